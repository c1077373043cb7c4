package meal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"meal-planner/internal/database"
	"meal-planner/internal/recipe"
)

// Repository is a database-backed repository for meals.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Create stores a new meal with a unique slug.
func (r *Repository) Create(ctx context.Context, m Meal) (*Meal, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	var id int64
	err := database.InTx(ctx, r.db, func(tx *sql.Tx) error {
		s, err := database.UniqueSlug(ctx, tx, "meals", m.Name, 0)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			"INSERT INTO meals (name, description, slug, image) VALUES (?, ?, ?, ?)",
			strings.TrimSpace(m.Name), m.Description, s, m.Image)
		if err != nil {
			return fmt.Errorf("failed to insert meal: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read meal id: %w", err)
		}
		return writeChildren(ctx, tx, id, m)
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

// Update replaces a meal's fields, children and recipe links.
func (r *Repository) Update(ctx context.Context, id int64, m Meal) (*Meal, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	err := database.InTx(ctx, r.db, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM meals WHERE id = ?", id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to load meal: %w", err)
		}
		if exists == 0 {
			return ErrNotFound
		}
		s, err := database.UniqueSlug(ctx, tx, "meals", m.Name, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE meals SET name = ?, description = ?, slug = ?, image = ? WHERE id = ?",
			strings.TrimSpace(m.Name), m.Description, s, m.Image, id); err != nil {
			return fmt.Errorf("failed to update meal: %w", err)
		}
		return writeChildren(ctx, tx, id, m)
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func writeChildren(ctx context.Context, tx *sql.Tx, mealID int64, m Meal) error {
	owned, err := database.ChildIDs(ctx, tx, "meal_ingredients", "meal_id", mealID)
	if err != nil {
		return err
	}
	for i, ing := range m.Ingredients {
		name, amount := strings.TrimSpace(ing.Name), strings.TrimSpace(ing.Amount)
		if owned[ing.ID] {
			owned[ing.ID] = false
			_, err = tx.ExecContext(ctx,
				"UPDATE meal_ingredients SET position = ?, name = ?, amount = ? WHERE id = ?",
				i+1, name, amount, ing.ID)
		} else {
			_, err = tx.ExecContext(ctx,
				"INSERT INTO meal_ingredients (meal_id, position, name, amount) VALUES (?, ?, ?, ?)",
				mealID, i+1, name, amount)
		}
		if err != nil {
			return fmt.Errorf("failed to write meal ingredient: %w", err)
		}
	}
	if err := database.DeleteUnclaimed(ctx, tx, "meal_ingredients", owned); err != nil {
		return err
	}

	owned, err = database.ChildIDs(ctx, tx, "meal_steps", "meal_id", mealID)
	if err != nil {
		return err
	}
	for i, st := range m.Steps {
		if owned[st.ID] {
			owned[st.ID] = false
			_, err = tx.ExecContext(ctx, `UPDATE meal_steps SET "order" = ?, text = ? WHERE id = ?`, i+1, st.Text, st.ID)
		} else {
			_, err = tx.ExecContext(ctx, `INSERT INTO meal_steps (meal_id, "order", text) VALUES (?, ?, ?)`, mealID, i+1, st.Text)
		}
		if err != nil {
			return fmt.Errorf("failed to write meal step: %w", err)
		}
	}
	if err := database.DeleteUnclaimed(ctx, tx, "meal_steps", owned); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM meal_recipes WHERE meal_id = ?", mealID); err != nil {
		return fmt.Errorf("failed to clear meal recipes: %w", err)
	}
	for _, rid := range m.Recipes {
		// Unknown recipe ids are skipped rather than failing the save.
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO meal_recipes (meal_id, recipe_id) SELECT ?, id FROM recipes WHERE id = ?",
			mealID, rid); err != nil {
			return fmt.Errorf("failed to link recipe %d: %w", rid, err)
		}
	}
	return nil
}

// Get retrieves a meal by its ID.
func (r *Repository) Get(ctx context.Context, id int64) (*Meal, error) {
	return r.getWhere(ctx, "id = ?", id)
}

// GetBySlug retrieves a meal by its slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Meal, error) {
	return r.getWhere(ctx, "slug = ?", slug)
}

func (r *Repository) getWhere(ctx context.Context, cond string, arg any) (*Meal, error) {
	var m Meal
	var image sql.NullString
	err := r.db.QueryRowContext(ctx, "SELECT id, name, description, slug, image FROM meals WHERE "+cond, arg).
		Scan(&m.ID, &m.Name, &m.Description, &m.Slug, &image)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meal: %w", err)
	}
	if image.Valid {
		m.Image = &image.String
	}

	m.Ingredients = []Ingredient{}
	err = scanRows(ctx, r.db, func(rows *sql.Rows) error {
		var ing Ingredient
		if err := rows.Scan(&ing.ID, &ing.Name, &ing.Amount); err != nil {
			return err
		}
		m.Ingredients = append(m.Ingredients, ing)
		return nil
	}, "SELECT id, name, amount FROM meal_ingredients WHERE meal_id = ? ORDER BY position, id", m.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load meal ingredients: %w", err)
	}

	m.Steps = []recipe.Step{}
	err = scanRows(ctx, r.db, func(rows *sql.Rows) error {
		var st recipe.Step
		if err := rows.Scan(&st.ID, &st.Order, &st.Text); err != nil {
			return err
		}
		m.Steps = append(m.Steps, st)
		return nil
	}, `SELECT id, "order", text FROM meal_steps WHERE meal_id = ? ORDER BY "order", id`, m.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load meal steps: %w", err)
	}

	m.Recipes = []int64{}
	err = scanRows(ctx, r.db, func(rows *sql.Rows) error {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		m.Recipes = append(m.Recipes, id)
		return nil
	}, "SELECT recipe_id FROM meal_recipes WHERE meal_id = ? ORDER BY recipe_id", m.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load meal recipes: %w", err)
	}
	return &m, nil
}

func scanRows(ctx context.Context, db *sql.DB, fn func(*sql.Rows) error, query string, args ...any) error {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// List returns all meals ordered by name.
func (r *Repository) List(ctx context.Context) ([]Meal, error) {
	var ids []int64
	err := scanRows(ctx, r.db, func(rows *sql.Rows) error {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		ids = append(ids, id)
		return nil
	}, "SELECT id FROM meals ORDER BY name, id")
	if err != nil {
		return nil, fmt.Errorf("failed to list meals: %w", err)
	}
	meals := make([]Meal, 0, len(ids))
	for _, id := range ids {
		m, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		meals = append(meals, *m)
	}
	return meals, nil
}

// Delete removes a meal and its plan memberships.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM meals WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete meal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
