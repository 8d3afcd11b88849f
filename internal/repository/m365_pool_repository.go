package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tcardoso/licensedesk/internal/domain"
	"github.com/tcardoso/licensedesk/internal/ids"
)

// M365PoolRepository defines domain-specific operations for Microsoft 365 pools
type M365PoolRepository interface {
	Repository[domain.M365Pool]
}

// m365PoolRepositoryImpl implements M365PoolRepository
type m365PoolRepositoryImpl struct {
	db *sql.DB
}

// NewM365PoolRepository creates a new Microsoft 365 pool repository
func NewM365PoolRepository(db *sql.DB) M365PoolRepository {
	return &m365PoolRepositoryImpl{db: db}
}

const m365PoolColumns = "id, license_type, total_licenses, cost, expiration_date, notes, created_at, updated_at"

func validateM365Pool(p domain.M365Pool) error {
	if p.LicenseType == "" {
		return fmt.Errorf("%w: license type is required", ErrInvalidEntity)
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
func (r *m365PoolRepositoryImpl) Save(ctx context.Context, pool domain.M365Pool) (domain.M365Pool, error) {
	if err := validateM365Pool(pool); err != nil {
		return domain.M365Pool{}, err
	}
	if pool.ID == "" {
		return r.create(ctx, pool)
	}
	return r.update(ctx, pool)
}

func (r *m365PoolRepositoryImpl) create(ctx context.Context, p domain.M365Pool) (domain.M365Pool, error) {
	now := time.Now().UTC().Truncate(time.Second)
	p.ID = ids.New()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO m365_pools (`+m365PoolColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.LicenseType, p.TotalLicenses,
		nullFloat(p.Cost), nullDate(p.ExpirationDate), p.Notes,
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return domain.M365Pool{}, fmt.Errorf("failed to create m365 pool: %w", err)
	}
	return p, nil
}

func (r *m365PoolRepositoryImpl) update(ctx context.Context, p domain.M365Pool) (domain.M365Pool, error) {
	p.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	result, err := r.db.ExecContext(ctx, `
		UPDATE m365_pools
		SET license_type = ?, total_licenses = ?, cost = ?, expiration_date = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		p.LicenseType, p.TotalLicenses,
		nullFloat(p.Cost), nullDate(p.ExpirationDate), p.Notes,
		formatTime(p.UpdatedAt), p.ID)
	if err != nil {
		return domain.M365Pool{}, fmt.Errorf("failed to update m365 pool: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return domain.M365Pool{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return domain.M365Pool{}, fmt.Errorf("m365 pool %s: %w", p.ID, ErrNotFound)
	}
	return r.FindByID(ctx, p.ID)
}

func scanM365Pool(row interface{ Scan(...any) error }) (domain.M365Pool, error) {
	var (
		p          domain.M365Pool
		cost       sql.NullFloat64
		expiration sql.NullString
		createdAt  string
		updatedAt  string
	)
	if err := row.Scan(&p.ID, &p.LicenseType, &p.TotalLicenses,
		&cost, &expiration, &p.Notes, &createdAt, &updatedAt); err != nil {
		return domain.M365Pool{}, err
	}

	p.Cost = fromNullFloat(cost)

	exp, err := fromNullDate(expiration)
	if err != nil {
		return domain.M365Pool{}, err
	}
	p.ExpirationDate = exp

	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.M365Pool{}, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return domain.M365Pool{}, err
	}
	return p, nil
}

// FindByID finds a Microsoft 365 pool by ID
func (r *m365PoolRepositoryImpl) FindByID(ctx context.Context, id string) (domain.M365Pool, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+m365PoolColumns+` FROM m365_pools WHERE id = ?`, id)
	p, err := scanM365Pool(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.M365Pool{}, fmt.Errorf("m365 pool %s: %w", id, ErrNotFound)
		}
		return domain.M365Pool{}, fmt.Errorf("failed to find m365 pool: %w", err)
	}
	return p, nil
}

// FindAll finds all Microsoft 365 pools, newest first
func (r *m365PoolRepositoryImpl) FindAll(ctx context.Context) ([]domain.M365Pool, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+m365PoolColumns+` FROM m365_pools ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to find m365 pools: %w", err)
	}
	defer rows.Close()

	var pools []domain.M365Pool
	for rows.Next() {
		p, err := scanM365Pool(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan m365 pool: %w", err)
		}
		pools = append(pools, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating m365 pools: %w", err)
	}
	return pools, nil
}

// DeleteByID deletes a Microsoft 365 pool and removes the pool id from every
// user's assigned license set in the same transaction. Users themselves
// survive the pool.
func (r *m365PoolRepositoryImpl) DeleteByID(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	result, err := tx.ExecContext(ctx, "DELETE FROM m365_pools WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete m365 pool: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("m365 pool %s: %w", id, ErrNotFound)
	}

	if err := stripPoolFromUsers(ctx, tx, id); err != nil {
		return err
	}
	return tx.Commit()
}

// stripPoolFromUsers rewrites user license sets that reference the deleted
// pool. Users without the reference are left untouched.
func stripPoolFromUsers(ctx context.Context, tx *sql.Tx, poolID string) error {
	rows, err := tx.QueryContext(ctx, "SELECT id, assigned_licenses FROM m365_users")
	if err != nil {
		return fmt.Errorf("failed to load m365 users: %w", err)
	}
	defer rows.Close()

	type rewrite struct {
		userID string
		list   string
	}
	var rewrites []rewrite
	for rows.Next() {
		var userID, raw string
		if err := rows.Scan(&userID, &raw); err != nil {
			return fmt.Errorf("failed to scan m365 user: %w", err)
		}
		held, err := decodeIDList(raw)
		if err != nil {
			return err
		}
		kept := make([]string, 0, len(held))
		for _, h := range held {
			if h != poolID {
				kept = append(kept, h)
			}
		}
		if len(kept) == len(held) {
			continue
		}
		list, err := encodeIDList(kept)
		if err != nil {
			return err
		}
		rewrites = append(rewrites, rewrite{userID: userID, list: list})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating m365 users: %w", err)
	}

	now := formatTime(time.Now().UTC())
	for _, rw := range rewrites {
		if _, err := tx.ExecContext(ctx,
			"UPDATE m365_users SET assigned_licenses = ?, updated_at = ? WHERE id = ?",
			rw.list, now, rw.userID); err != nil {
			return fmt.Errorf("failed to detach m365 pool from user: %w", err)
		}
	}
	return nil
}

// ExistsByID checks if a Microsoft 365 pool exists by ID
func (r *m365PoolRepositoryImpl) ExistsByID(ctx context.Context, id string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM m365_pools WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check m365 pool existence: %w", err)
	}
	return count > 0, nil
}
