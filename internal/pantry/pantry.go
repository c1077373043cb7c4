// Package pantry stores the staples a household always has at hand. Pantry
// items are left off derived shopping lists.
package pantry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"meal-planner/internal/database"
)

// DefaultItems seed a pantry the first time it is read.
var DefaultItems = []string{"salt", "pepper", "olive oil", "butter", "flour", "sugar"}

type Pantry struct {
	ID          int64    `json:"id"`
	HouseholdID int64    `json:"household_id"`
	Items       []string `json:"items"`
}

// Normalize lowercases, trims and deduplicates items.
func Normalize(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.ToLower(strings.TrimSpace(it))
		if it != "" && !slices.Contains(out, it) {
			out = append(out, it)
		}
	}
	return out
}

// Covers reports whether an ingredient name is satisfied by the pantry: its
// lowercased name contains one of the items.
func Covers(items []string, ingredient string) bool {
	name := strings.ToLower(ingredient)
	for _, it := range items {
		if it != "" && strings.Contains(name, it) {
			return true
		}
	}
	return false
}

// Repository is a database-backed repository for pantries.
type Repository struct {
	db *sql.DB
}

func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Get returns the household's pantry, creating it with DefaultItems when it
// does not exist yet.
func (r *Repository) Get(ctx context.Context, householdID int64) (*Pantry, error) {
	p := &Pantry{HouseholdID: householdID}
	err := database.InTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		p.ID, err = ensure(ctx, tx, householdID)
		return err
	})
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, "SELECT item_name FROM pantry_items WHERE pantry_id = ? ORDER BY item_name", p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pantry items: %w", err)
	}
	defer rows.Close()
	p.Items = []string{}
	for rows.Next() {
		var it string
		if err := rows.Scan(&it); err != nil {
			return nil, fmt.Errorf("failed to scan pantry item: %w", err)
		}
		p.Items = append(p.Items, it)
	}
	return p, rows.Err()
}

func ensure(ctx context.Context, tx *sql.Tx, householdID int64) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, "SELECT id FROM pantries WHERE household_id = ?", householdID).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to get pantry: %w", err)
	}

	res, err := tx.ExecContext(ctx, "INSERT INTO pantries (household_id) VALUES (?)", householdID)
	if err != nil {
		return 0, fmt.Errorf("failed to create pantry: %w", err)
	}
	if id, err = res.LastInsertId(); err != nil {
		return 0, fmt.Errorf("failed to read pantry id: %w", err)
	}
	if err := insertItems(ctx, tx, id, DefaultItems); err != nil {
		return 0, err
	}
	return id, nil
}

func insertItems(ctx context.Context, tx *sql.Tx, pantryID int64, items []string) error {
	for _, it := range Normalize(items) {
		if _, err := tx.ExecContext(ctx, "INSERT INTO pantry_items (pantry_id, item_name) VALUES (?, ?)", pantryID, it); err != nil {
			return fmt.Errorf("failed to add pantry item %q: %w", it, err)
		}
	}
	return nil
}

// Replace sets the pantry's items to exactly items.
func (r *Repository) Replace(ctx context.Context, householdID int64, items []string) (*Pantry, error) {
	err := database.InTx(ctx, r.db, func(tx *sql.Tx) error {
		id, err := ensure(ctx, tx, householdID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM pantry_items WHERE pantry_id = ?", id); err != nil {
			return fmt.Errorf("failed to clear pantry: %w", err)
		}
		return insertItems(ctx, tx, id, items)
	})
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, householdID)
}

// Clear removes every item. The pantry itself stays so defaults are not
// restored on the next read.
func (r *Repository) Clear(ctx context.Context, householdID int64) error {
	_, err := r.Replace(ctx, householdID, nil)
	return err
}
