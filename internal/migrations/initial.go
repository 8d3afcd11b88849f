package migrations

import (
	"database/sql"
)

// All returns the full migration set in registration order
func All() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_license_tables",
			Up:      createLicenseTables,
		},
		{
			Version: 2,
			Name:    "create_accounts_table",
			Up:      createAccountsTable,
		},
	}
}

// createLicenseTables creates the five license collections. Pools do not
// store assigned/available counts; those are derived from the referencing
// rows on read.
func createLicenseTables(tx *sql.Tx) error {
	statements := []string{
		`CREATE TABLE license_pools (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			name TEXT NOT NULL,
			total_licenses INTEGER NOT NULL DEFAULT 0,
			cost REAL,
			expiration_date TEXT,
			notes TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE license_assignments (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			pool_id TEXT NOT NULL,
			device_name TEXT,
			server_name TEXT,
			user_email TEXT,
			serial_number TEXT,
			license_key TEXT,
			is_active INTEGER NOT NULL DEFAULT 1,
			notes TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			FOREIGN KEY (pool_id) REFERENCES license_pools(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE m365_pools (
			id TEXT PRIMARY KEY,
			license_type TEXT NOT NULL,
			total_licenses INTEGER NOT NULL DEFAULT 0,
			cost REAL,
			expiration_date TEXT,
			notes TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE m365_users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			assigned_licenses TEXT NOT NULL DEFAULT '[]',
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE legacy_licenses (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1,
			expiration_date TEXT,
			cost REAL,
			notes TEXT NOT NULL DEFAULT '',
			plan_type TEXT,
			assigned_user TEXT,
			user_email TEXT,
			product_type TEXT,
			device_count INTEGER,
			serial_number TEXT,
			product_name TEXT,
			version TEXT,
			server_name TEXT,
			license_key TEXT,
			windows_type TEXT,
			device_name TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX idx_license_assignments_pool_id ON license_assignments(pool_id)`,
		`CREATE INDEX idx_license_pools_type ON license_pools(type)`,
		`CREATE INDEX idx_legacy_licenses_type ON legacy_licenses(type)`,
	}

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// createAccountsTable creates the login accounts used by the auth boundary
func createAccountsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE accounts (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`)
	return err
}
