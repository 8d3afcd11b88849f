package migrations

import (
	"database/sql"
	"fmt"
	"sort"
)

// Migration is one versioned schema change. Up runs inside a transaction
// together with the version bookkeeping, so a failed migration leaves the
// schema untouched.
type Migration struct {
	Version int64
	Name    string
	Up      func(*sql.Tx) error
}

// Migrator applies pending migrations in version order
type Migrator struct {
	db         *sql.DB
	migrations []Migration
}

// NewMigrator creates a migrator with the full migration set registered
func NewMigrator(db *sql.DB) *Migrator {
	m := &Migrator{db: db}
	for _, migration := range All() {
		m.Add(migration)
	}
	return m
}

// Add registers a migration, keeping the set sorted by version
func (m *Migrator) Add(migration Migration) {
	m.migrations = append(m.migrations, migration)
	sort.Slice(m.migrations, func(i, j int) bool {
		return m.migrations[i].Version < m.migrations[j].Version
	})
}

// Run applies every migration newer than the recorded schema version
func (m *Migrator) Run() error {
	if _, err := m.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	current, err := m.CurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	for _, migration := range m.migrations {
		if migration.Version <= current {
			continue
		}
		if err := m.apply(migration); err != nil {
			return fmt.Errorf("failed to run migration %d (%s): %w", migration.Version, migration.Name, err)
		}
	}
	return nil
}

// CurrentVersion returns the highest applied migration version
func (m *Migrator) CurrentVersion() (int64, error) {
	var version int64
	err := m.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

func (m *Migrator) apply(migration Migration) error {
	tx, err := m.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := migration.Up(tx); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version, name) VALUES (?, ?)",
		migration.Version, migration.Name); err != nil {
		return err
	}
	return tx.Commit()
}
