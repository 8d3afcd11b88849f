package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcardoso/licensedesk/internal/domain"
	"github.com/tcardoso/licensedesk/internal/testutil"
)

func mustCreatePool(t *testing.T, repo PoolRepository, licenseType domain.LicenseType, name string, total int) domain.LicensePool {
	t.Helper()
	pool, err := repo.Save(context.Background(), domain.LicensePool{
		Type:          licenseType,
		Name:          name,
		TotalLicenses: total,
	})
	require.NoError(t, err)
	return pool
}

func TestAssignmentRepository_Save(t *testing.T) {
	db := testutil.SetupTestDBWithMigrations(t, "TestAssignmentRepository_Save")

	pools := NewPoolRepository(db)
	repo := NewAssignmentRepository(db)
	ctx := context.Background()

	pool := mustCreatePool(t, pools, domain.TypeSophos, "sophos-pool", 10)

	saved, err := repo.Save(ctx, domain.LicenseAssignment{
		Type:         domain.TypeSophos,
		PoolID:       pool.ID,
		DeviceName:   "laptop-042",
		UserEmail:    "jo@example.com",
		SerialNumber: "SN-1234",
		IsActive:     true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, pool.ID, saved.PoolID)
	assert.Equal(t, "laptop-042", saved.DeviceName)
	assert.Equal(t, "jo@example.com", saved.UserEmail)
	assert.True(t, saved.IsActive)
}

func TestAssignmentRepository_Save_Invalid(t *testing.T) {
	db := testutil.SetupTestDBWithMigrations(t, "TestAssignmentRepository_Save_Invalid")

	pools := NewPoolRepository(db)
	repo := NewAssignmentRepository(db)
	ctx := context.Background()

	pool := mustCreatePool(t, pools, domain.TypeServer, "server-pool", 4)

	tests := []struct {
		name       string
		assignment domain.LicenseAssignment
	}{
		{"missing pool", domain.LicenseAssignment{Type: domain.TypeServer, ServerName: "db-01"}},
		{"server without server name", domain.LicenseAssignment{Type: domain.TypeServer, PoolID: pool.ID, DeviceName: "db-01"}},
		{"device type with server name", domain.LicenseAssignment{Type: domain.TypeSophos, PoolID: pool.ID, ServerName: "db-01"}},
		{"invalid type", domain.LicenseAssignment{Type: "microsoft365", PoolID: pool.ID, DeviceName: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Save(ctx, tt.assignment)
			assert.ErrorIs(t, err, ErrInvalidEntity)
		})
	}
}

func TestAssignmentRepository_FindByID(t *testing.T) {
	db := testutil.SetupTestDBWithMigrations(t, "TestAssignmentRepository_FindByID")

	pools := NewPoolRepository(db)
	repo := NewAssignmentRepository(db)
	ctx := context.Background()

	pool := mustCreatePool(t, pools, domain.TypeServer, "server-pool", 4)

	saved, err := repo.Save(ctx, domain.LicenseAssignment{
		Type:       domain.TypeServer,
		PoolID:     pool.ID,
		ServerName: "db-01",
		LicenseKey: "XXXX-YYYY",
		IsActive:   true,
	})
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, found.ID)
	assert.Equal(t, "db-01", found.ServerName)
	assert.Empty(t, found.DeviceName)
	assert.Equal(t, "XXXX-YYYY", found.LicenseKey)

	_, err = repo.FindByID(ctx, "does-not-exist")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAssignmentRepository_Update(t *testing.T) {
	db := testutil.SetupTestDBWithMigrations(t, "TestAssignmentRepository_Update")

	pools := NewPoolRepository(db)
	repo := NewAssignmentRepository(db)
	ctx := context.Background()

	pool := mustCreatePool(t, pools, domain.TypeWindows, "windows-pool", 4)

	saved, err := repo.Save(ctx, domain.LicenseAssignment{
		Type:       domain.TypeWindows,
		PoolID:     pool.ID,
		DeviceName: "ws-01",
		IsActive:   true,
	})
	require.NoError(t, err)

	saved.IsActive = false
	saved.Notes = "machine retired"
	updated, err := repo.Save(ctx, saved)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, "machine retired", updated.Notes)

	missing := updated
	missing.ID = "does-not-exist"
	_, err = repo.Save(ctx, missing)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAssignmentRepository_FindByPoolIDAndType(t *testing.T) {
	db := testutil.SetupTestDBWithMigrations(t, "TestAssignmentRepository_FindByPoolIDAndType")

	pools := NewPoolRepository(db)
	repo := NewAssignmentRepository(db)
	ctx := context.Background()

	sophosPool := mustCreatePool(t, pools, domain.TypeSophos, "sophos-pool", 10)
	windowsPool := mustCreatePool(t, pools, domain.TypeWindows, "windows-pool", 10)

	for _, a := range []domain.LicenseAssignment{
		{Type: domain.TypeSophos, PoolID: sophosPool.ID, DeviceName: "laptop-1", IsActive: true},
		{Type: domain.TypeSophos, PoolID: sophosPool.ID, DeviceName: "laptop-2", IsActive: true},
		{Type: domain.TypeWindows, PoolID: windowsPool.ID, DeviceName: "ws-1", IsActive: true},
	} {
		_, err := repo.Save(ctx, a)
		require.NoError(t, err)
	}

	byPool, err := repo.FindByPoolID(ctx, sophosPool.ID)
	require.NoError(t, err)
	assert.Len(t, byPool, 2)

	byType, err := repo.FindByType(ctx, domain.TypeWindows)
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, "ws-1", byType[0].DeviceName)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestAssignmentRepository_DeleteByID(t *testing.T) {
	db := testutil.SetupTestDBWithMigrations(t, "TestAssignmentRepository_DeleteByID")

	pools := NewPoolRepository(db)
	repo := NewAssignmentRepository(db)
	ctx := context.Background()

	pool := mustCreatePool(t, pools, domain.TypeSophos, "sophos-pool", 10)

	saved, err := repo.Save(ctx, domain.LicenseAssignment{
		Type:       domain.TypeSophos,
		PoolID:     pool.ID,
		DeviceName: "laptop-1",
		IsActive:   true,
	})
	require.NoError(t, err)

	err = repo.DeleteByID(ctx, saved.ID)
	require.NoError(t, err)

	exists, err := repo.ExistsByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	// The pool itself is untouched
	exists, err = pools.ExistsByID(ctx, pool.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	err = repo.DeleteByID(ctx, saved.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
