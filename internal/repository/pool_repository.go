package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tcardoso/licensedesk/internal/domain"
	"github.com/tcardoso/licensedesk/internal/ids"
)

// PoolRepository defines domain-specific operations for generic license pools
type PoolRepository interface {
	Repository[domain.LicensePool]
	FindByType(ctx context.Context, t domain.LicenseType) ([]domain.LicensePool, error)
}

// poolRepositoryImpl implements PoolRepository
type poolRepositoryImpl struct {
	db *sql.DB
}

// NewPoolRepository creates a new license pool repository
func NewPoolRepository(db *sql.DB) PoolRepository {
	return &poolRepositoryImpl{db: db}
}

const poolColumns = "id, type, name, total_licenses, cost, expiration_date, notes, created_at, updated_at"

func validatePool(p domain.LicensePool) error {
	if p.Name == "" {
		return fmt.Errorf("%w: pool name is required", ErrInvalidEntity)
	}
	if !domain.IsPoolType(p.Type) {
		return fmt.Errorf("%w: invalid pool type %q", ErrInvalidEntity, p.Type)
	}
	if p.TotalLicenses < 0 {
		return fmt.Errorf("%w: total licenses must not be negative", ErrInvalidEntity)
	}
	if p.Cost != nil && *p.Cost < 0 {
		return fmt.Errorf("%w: cost must not be negative", ErrInvalidEntity)
	}
	return nil
}

// Save creates the pool when its ID is empty, updates it otherwise
func (r *poolRepositoryImpl) Save(ctx context.Context, pool domain.LicensePool) (domain.LicensePool, error) {
	if err := validatePool(pool); err != nil {
		return domain.LicensePool{}, err
	}
	if pool.ID == "" {
		return r.create(ctx, pool)
	}
	return r.update(ctx, pool)
}

func (r *poolRepositoryImpl) create(ctx context.Context, p domain.LicensePool) (domain.LicensePool, error) {
	now := time.Now().UTC().Truncate(time.Second)
	p.ID = ids.New()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO license_pools (`+poolColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, string(p.Type), p.Name, p.TotalLicenses,
		nullFloat(p.Cost), nullDate(p.ExpirationDate), p.Notes,
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return domain.LicensePool{}, fmt.Errorf("failed to create license pool: %w", err)
	}
	return p, nil
}

func (r *poolRepositoryImpl) update(ctx context.Context, p domain.LicensePool) (domain.LicensePool, error) {
	p.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	result, err := r.db.ExecContext(ctx, `
		UPDATE license_pools
		SET type = ?, name = ?, total_licenses = ?, cost = ?, expiration_date = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		string(p.Type), p.Name, p.TotalLicenses,
		nullFloat(p.Cost), nullDate(p.ExpirationDate), p.Notes,
		formatTime(p.UpdatedAt), p.ID)
	if err != nil {
		return domain.LicensePool{}, fmt.Errorf("failed to update license pool: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return domain.LicensePool{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return domain.LicensePool{}, fmt.Errorf("license pool %s: %w", p.ID, ErrNotFound)
	}
	return r.FindByID(ctx, p.ID)
}

func scanPool(row interface{ Scan(...any) error }) (domain.LicensePool, error) {
	var (
		p          domain.LicensePool
		poolType   string
		cost       sql.NullFloat64
		expiration sql.NullString
		createdAt  string
		updatedAt  string
	)
	if err := row.Scan(&p.ID, &poolType, &p.Name, &p.TotalLicenses,
		&cost, &expiration, &p.Notes, &createdAt, &updatedAt); err != nil {
		return domain.LicensePool{}, err
	}

	p.Type = domain.LicenseType(poolType)
	p.Cost = fromNullFloat(cost)

	exp, err := fromNullDate(expiration)
	if err != nil {
		return domain.LicensePool{}, err
	}
	p.ExpirationDate = exp

	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.LicensePool{}, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return domain.LicensePool{}, err
	}
	return p, nil
}

// FindByID finds a license pool by ID
func (r *poolRepositoryImpl) FindByID(ctx context.Context, id string) (domain.LicensePool, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+poolColumns+` FROM license_pools WHERE id = ?`, id)
	p, err := scanPool(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.LicensePool{}, fmt.Errorf("license pool %s: %w", id, ErrNotFound)
		}
		return domain.LicensePool{}, fmt.Errorf("failed to find license pool: %w", err)
	}
	return p, nil
}

// FindAll finds all license pools, newest first
func (r *poolRepositoryImpl) FindAll(ctx context.Context) ([]domain.LicensePool, error) {
	return r.query(ctx, `SELECT `+poolColumns+` FROM license_pools ORDER BY created_at DESC, id DESC`)
}

// FindByType finds all pools of one category, newest first
func (r *poolRepositoryImpl) FindByType(ctx context.Context, t domain.LicenseType) ([]domain.LicensePool, error) {
	return r.query(ctx,
		`SELECT `+poolColumns+` FROM license_pools WHERE type = ? ORDER BY created_at DESC, id DESC`,
		string(t))
}

func (r *poolRepositoryImpl) query(ctx context.Context, q string, args ...any) ([]domain.LicensePool, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find license pools: %w", err)
	}
	defer rows.Close()

	var pools []domain.LicensePool
	for rows.Next() {
		p, err := scanPool(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan license pool: %w", err)
		}
		pools = append(pools, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating license pools: %w", err)
	}
	return pools, nil
}

// DeleteByID deletes a license pool and its assignments in one
// transaction: an assignment has no existence outside its pool. The
// assignments are removed explicitly rather than left to the foreign
// key cascade, which SQLite only enforces on connections that have the
// foreign_keys pragma set.
func (r *poolRepositoryImpl) DeleteByID(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	result, err := tx.ExecContext(ctx, "DELETE FROM license_pools WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete license pool: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("license pool %s: %w", id, ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM license_assignments WHERE pool_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete pool assignments: %w", err)
	}
	return tx.Commit()
}

// ExistsByID checks if a license pool exists by ID
func (r *poolRepositoryImpl) ExistsByID(ctx context.Context, id string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM license_pools WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check license pool existence: %w", err)
	}
	return count > 0, nil
}
