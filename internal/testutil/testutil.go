package testutil

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/tcardoso/licensedesk/internal/migrations"

	_ "modernc.org/sqlite"
)

// NewTestDSN generates a DSN for an in-memory SQLite database scoped to
// one test. Foreign keys ride on the DSN so every connection enforces them.
func NewTestDSN(testName string) string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", testName)
}

// SetupTestDB opens an in-memory database with foreign keys enabled
func SetupTestDB(t *testing.T, testName string) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", NewTestDSN(testName))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

// SetupTestDBWithMigrations opens an in-memory database with the full schema applied
func SetupTestDBWithMigrations(t *testing.T, testName string) *sql.DB {
	t.Helper()

	db := SetupTestDB(t, testName)
	if err := migrations.NewMigrator(db).Run(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}
