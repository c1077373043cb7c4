package planner

import (
	"context"
	"database/sql"
	"fmt"

	"meal-planner/internal/database"
)

// Ingredient is a (name, amount) pair contributed by a meal of a plan.
type Ingredient struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

// PlanRepository is a database-backed repository for meal plans.
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(d *sql.DB) *PlanRepository {
	return &PlanRepository{db: d}
}

// Create inserts a plan for p.HouseholdID. Callers validate dates first.
// Meal references to unknown meals are skipped.
func (r *PlanRepository) Create(ctx context.Context, p Plan) (*Plan, error) {
	var id int64
	err := database.InTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO plans (household_id, start_date, end_date) VALUES (?, ?, ?)",
			p.HouseholdID, p.StartDate.String(), p.EndDate.String())
		if err != nil {
			return fmt.Errorf("failed to insert plan: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read plan id: %w", err)
		}
		return replaceMeals(ctx, tx, id, p.Meals)
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// Update replaces the dates and the meal membership of a plan.
func (r *PlanRepository) Update(ctx context.Context, id int64, p Plan) (*Plan, error) {
	err := database.InTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE plans SET start_date = ?, end_date = ? WHERE id = ?",
			p.StartDate.String(), p.EndDate.String(), id)
		if err != nil {
			return fmt.Errorf("failed to update plan: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return replaceMeals(ctx, tx, id, p.Meals)
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func replaceMeals(ctx context.Context, tx *sql.Tx, planID int64, meals []MealRef) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM plan_meals WHERE plan_id = ?", planID); err != nil {
		return fmt.Errorf("failed to clear plan meals: %w", err)
	}
	for i, m := range meals {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO plan_meals (plan_id, meal_id, position) SELECT ?, id, ? FROM meals WHERE id = ?",
			planID, i+1, m.ID); err != nil {
			return fmt.Errorf("failed to add meal %d to plan: %w", m.ID, err)
		}
	}
	return nil
}

// Get retrieves a plan with its meals. It returns ErrNotFound when missing.
func (r *PlanRepository) Get(ctx context.Context, id int64) (*Plan, error) {
	plans, err := r.query(ctx, "SELECT id, household_id, start_date, end_date FROM plans WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, ErrNotFound
	}
	return &plans[0], nil
}

// ListByHousehold returns every plan of a household, newest first.
func (r *PlanRepository) ListByHousehold(ctx context.Context, householdID int64) ([]Plan, error) {
	return r.query(ctx,
		"SELECT id, household_id, start_date, end_date FROM plans WHERE household_id = ? ORDER BY start_date DESC, id DESC",
		householdID)
}

// Last returns the plan with the latest start date, or ErrNotFound.
func (r *PlanRepository) Last(ctx context.Context, householdID int64) (*Plan, error) {
	return r.first(ctx,
		"SELECT id, household_id, start_date, end_date FROM plans WHERE household_id = ? ORDER BY start_date DESC, id DESC LIMIT 1",
		householdID)
}

// Next returns the earliest plan starting after today, or ErrNotFound.
func (r *PlanRepository) Next(ctx context.Context, householdID int64, today Date) (*Plan, error) {
	return r.first(ctx,
		"SELECT id, household_id, start_date, end_date FROM plans WHERE household_id = ? AND start_date > ? ORDER BY start_date, id LIMIT 1",
		householdID, today.String())
}

// Future returns the plans that end after today, soonest first.
func (r *PlanRepository) Future(ctx context.Context, householdID int64, today Date) ([]Plan, error) {
	return r.query(ctx,
		"SELECT id, household_id, start_date, end_date FROM plans WHERE household_id = ? AND end_date > ? ORDER BY start_date, id",
		householdID, today.String())
}

func (r *PlanRepository) first(ctx context.Context, query string, args ...any) (*Plan, error) {
	plans, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, ErrNotFound
	}
	return &plans[0], nil
}

func (r *PlanRepository) query(ctx context.Context, query string, args ...any) ([]Plan, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	var plans []Plan
	for rows.Next() {
		var p Plan
		var start, end string
		if err := rows.Scan(&p.ID, &p.HouseholdID, &start, &end); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		if p.StartDate, err = ParseDate(start); err != nil {
			rows.Close()
			return nil, err
		}
		if p.EndDate, err = ParseDate(end); err != nil {
			rows.Close()
			return nil, err
		}
		plans = append(plans, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}

	for i := range plans {
		if plans[i].Meals, err = r.meals(ctx, plans[i].ID); err != nil {
			return nil, err
		}
	}
	return plans, nil
}

func (r *PlanRepository) meals(ctx context.Context, planID int64) ([]MealRef, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.id, m.name, m.slug FROM plan_meals pm
		JOIN meals m ON m.id = pm.meal_id
		WHERE pm.plan_id = ? ORDER BY pm.position, pm.id`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan meals: %w", err)
	}
	defer rows.Close()

	refs := []MealRef{}
	for rows.Next() {
		var m MealRef
		if err := rows.Scan(&m.ID, &m.Name, &m.Slug); err != nil {
			return nil, fmt.Errorf("failed to scan plan meal: %w", err)
		}
		refs = append(refs, m)
	}
	return refs, rows.Err()
}

// Ingredients lists the ingredients of every meal in the plan, in meal
// membership order and then ingredient order. Duplicates are kept.
func (r *PlanRepository) Ingredients(ctx context.Context, planID int64) ([]Ingredient, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT mi.name, mi.amount FROM plan_meals pm
		JOIN meal_ingredients mi ON mi.meal_id = pm.meal_id
		WHERE pm.plan_id = ? ORDER BY pm.position, pm.id, mi.position, mi.id`, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan ingredients: %w", err)
	}
	defer rows.Close()

	var out []Ingredient
	for rows.Next() {
		var ing Ingredient
		if err := rows.Scan(&ing.Name, &ing.Amount); err != nil {
			return nil, fmt.Errorf("failed to scan plan ingredient: %w", err)
		}
		out = append(out, ing)
	}
	return out, rows.Err()
}

// Delete removes a plan and its shopping status.
func (r *PlanRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM plans WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
