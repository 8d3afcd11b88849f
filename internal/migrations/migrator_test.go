package migrations

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T, name string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+name+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrator_Run(t *testing.T) {
	db := openTestDB(t, "TestMigrator_Run")

	m := NewMigrator(db)
	require.NoError(t, m.Run())

	version, err := m.CurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	for _, table := range []string{
		"license_pools", "license_assignments", "m365_pools", "m365_users", "legacy_licenses", "accounts",
	} {
		var count int
		err := db.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "missing table %s", table)
	}
}

func TestMigrator_RunIsIdempotent(t *testing.T) {
	db := openTestDB(t, "TestMigrator_RunIsIdempotent")

	m := NewMigrator(db)
	require.NoError(t, m.Run())
	require.NoError(t, m.Run())

	var applied int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
	assert.Equal(t, 2, applied)
}

func TestMigrator_FailedMigrationRollsBack(t *testing.T) {
	db := openTestDB(t, "TestMigrator_FailedMigrationRollsBack")

	m := &Migrator{db: db}
	m.Add(Migration{
		Version: 1,
		Name:    "broken",
		Up: func(tx *sql.Tx) error {
			if _, err := tx.Exec("CREATE TABLE half_done (id TEXT)"); err != nil {
				return err
			}
			_, err := tx.Exec("THIS IS NOT SQL")
			return err
		},
	})

	assert.Error(t, m.Run())

	var count int
	require.NoError(t, db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='half_done'",
	).Scan(&count))
	assert.Equal(t, 0, count)

	version, err := m.CurrentVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)
}

func TestMigrator_AppliesInVersionOrder(t *testing.T) {
	db := openTestDB(t, "TestMigrator_AppliesInVersionOrder")

	var order []int64
	m := &Migrator{db: db}
	for _, v := range []int64{3, 1, 2} {
		version := v
		m.Add(Migration{
			Version: version,
			Name:    "noop",
			Up: func(tx *sql.Tx) error {
				order = append(order, version)
				return nil
			},
		})
	}

	require.NoError(t, m.Run())
	assert.Equal(t, []int64{1, 2, 3}, order)
}
