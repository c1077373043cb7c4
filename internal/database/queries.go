package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gosimple/slug"
)

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// UniqueSlug derives a slug from name that no other row of table uses.
// Collisions get a numeric suffix: "pancakes", "pancakes-1", "pancakes-2".
// Rows with id excludeID are ignored so an update can keep its own slug.
func UniqueSlug(ctx context.Context, q Querier, table, name string, excludeID int64) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = table
	}
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE slug = ? AND id <> ?", table)

	candidate := base
	for i := 1; ; i++ {
		var n int
		if err := q.QueryRowContext(ctx, query, candidate, excludeID).Scan(&n); err != nil {
			return "", fmt.Errorf("failed to check slug %q: %w", candidate, err)
		}
		if n == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

// InTx runs fn inside a transaction, committing on success.
func InTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ChildIDs returns the ids of the rows in table that belong to parentID
// through parentCol.
func ChildIDs(ctx context.Context, q Querier, table, parentCol string, parentID int64) (map[int64]bool, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf("SELECT id FROM %s WHERE %s = ?", table, parentCol), parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	defer rows.Close()

	ids := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan %s id: %w", table, err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// DeleteUnclaimed removes the rows of ids still marked true.
func DeleteUnclaimed(ctx context.Context, q Querier, table string, ids map[int64]bool) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", table)
	for id, unclaimed := range ids {
		if !unclaimed {
			continue
		}
		if _, err := q.ExecContext(ctx, query, id); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
	}
	return nil
}
