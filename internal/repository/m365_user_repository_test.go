package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcardoso/licensedesk/internal/domain"
	"github.com/tcardoso/licensedesk/internal/testutil"
)

func TestM365UserRepository_Save(t *testing.T) {
	db := testutil.SetupTestDBWithMigrations(t, "TestM365UserRepository_Save")

	repo := NewM365UserRepository(db)
	ctx := context.Background()

	saved, err := repo.Save(ctx, domain.M365User{
		Name:     "Alex Fischer",
		Email:    "alex@example.com",
		IsActive: true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, "alex@example.com", saved.Email)
	// A user created without licenses reads back as an empty list, not nil
	assert.NotNil(t, saved.AssignedLicenses)
	assert.Empty(t, saved.AssignedLicenses)
}

func TestM365UserRepository_Save_Invalid(t *testing.T) {
	db := testutil.SetupTestDBWithMigrations(t, "TestM365UserRepository_Save_Invalid")

	repo := NewM365UserRepository(db)
	ctx := context.Background()

	_, err := repo.Save(ctx, domain.M365User{Email: "x@example.com"})
	assert.ErrorIs(t, err, ErrInvalidEntity)

	_, err = repo.Save(ctx, domain.M365User{Name: "No Email"})
	assert.ErrorIs(t, err, ErrInvalidEntity)
}

func TestM365UserRepository_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDBWithMigrations(t, "TestM365UserRepository_DuplicateEmail")

	repo := NewM365UserRepository(db)
	ctx := context.Background()

	_, err := repo.Save(ctx, domain.M365User{Name: "First", Email: "dup@example.com", IsActive: true})
	require.NoError(t, err)

	_, err = repo.Save(ctx, domain.M365User{Name: "Second", Email: "dup@example.com", IsActive: true})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestM365UserRepository_FindByEmail(t *testing.T) {
	db := testutil.SetupTestDBWithMigrations(t, "TestM365UserRepository_FindByEmail")

	repo := NewM365UserRepository(db)
	ctx := context.Background()

	saved, err := repo.Save(ctx, domain.M365User{
		Name:     "Robin Weber",
		Email:    "robin@example.com",
		IsActive: true,
	})
	require.NoError(t, err)

	found, err := repo.FindByEmail(ctx, "robin@example.com")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, found.ID)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestM365UserRepository_Update(t *testing.T) {
	db := testutil.SetupTestDBWithMigrations(t, "TestM365UserRepository_Update")

	pools := NewM365PoolRepository(db)
	repo := NewM365UserRepository(db)
	ctx := context.Background()

	pool, err := pools.Save(ctx, domain.M365Pool{LicenseType: "Business Standard", TotalLicenses: 5})
	require.NoError(t, err)

	saved, err := repo.Save(ctx, domain.M365User{
		Name:     "Alex Fischer",
		Email:    "alex@example.com",
		IsActive: true,
	})
	require.NoError(t, err)

	saved.AssignedLicenses = []string{pool.ID}
	saved.IsActive = false
	updated, err := repo.Save(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, []string{pool.ID}, updated.AssignedLicenses)
	assert.False(t, updated.IsActive)
	assert.True(t, updated.HoldsPool(pool.ID))

	missing := updated
	missing.ID = "does-not-exist"
	_, err = repo.Save(ctx, missing)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestM365UserRepository_FindAll(t *testing.T) {
	db := testutil.SetupTestDBWithMigrations(t, "TestM365UserRepository_FindAll")

	repo := NewM365UserRepository(db)
	ctx := context.Background()

	for _, u := range []domain.M365User{
		{Name: "User One", Email: "one@example.com", IsActive: true},
		{Name: "User Two", Email: "two@example.com"},
	} {
		_, err := repo.Save(ctx, u)
		require.NoError(t, err)
	}

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestM365UserRepository_DeleteByID(t *testing.T) {
	db := testutil.SetupTestDBWithMigrations(t, "TestM365UserRepository_DeleteByID")

	repo := NewM365UserRepository(db)
	ctx := context.Background()

	saved, err := repo.Save(ctx, domain.M365User{
		Name:     "Alex Fischer",
		Email:    "alex@example.com",
		IsActive: true,
	})
	require.NoError(t, err)

	err = repo.DeleteByID(ctx, saved.ID)
	require.NoError(t, err)

	exists, err := repo.ExistsByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	err = repo.DeleteByID(ctx, saved.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
