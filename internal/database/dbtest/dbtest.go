// Package dbtest opens throwaway migrated databases for repository tests.
package dbtest

import (
	"database/sql"
	"path/filepath"
	"testing"

	"meal-planner/internal/database"
)

// New returns a migrated database living in the test's temp dir.
func New(t testing.TB) *sql.DB {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db.SQL
}
