package shopping

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// Repository persists the checked status of each plan's shopping list. The
// list entries themselves are always derived from the plan.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new shopping list repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Status returns the checked pairs of a plan, creating an empty status row on
// first access.
func (r *Repository) Status(ctx context.Context, planID int64) ([]Item, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, "SELECT items FROM shopping_status WHERE plan_id = ?", planID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		if _, err := r.db.ExecContext(ctx,
			"INSERT INTO shopping_status (plan_id, items) VALUES (?, '[]') ON CONFLICT(plan_id) DO NOTHING", planID); err != nil {
			return nil, fmt.Errorf("failed to create shopping status: %w", err)
		}
		return []Item{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shopping status: %w", err)
	}

	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shopping status: %w", err)
	}
	return items, nil
}

// SaveStatus replaces the checked pairs of a plan.
func (r *Repository) SaveStatus(ctx context.Context, planID int64, items []Item) error {
	if items == nil {
		items = []Item{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal shopping status: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO shopping_status (plan_id, items) VALUES (?, ?)
		ON CONFLICT(plan_id) DO UPDATE SET items = excluded.items`,
		planID, string(itemsJSON))
	if err != nil {
		return fmt.Errorf("failed to save shopping status: %w", err)
	}
	return nil
}
