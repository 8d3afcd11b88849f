package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tcardoso/licensedesk/internal/domain"
	"github.com/tcardoso/licensedesk/internal/ids"
)

// AssignmentRepository defines domain-specific operations for license assignments
type AssignmentRepository interface {
	Repository[domain.LicenseAssignment]
	FindByPoolID(ctx context.Context, poolID string) ([]domain.LicenseAssignment, error)
	FindByType(ctx context.Context, t domain.LicenseType) ([]domain.LicenseAssignment, error)
}

// assignmentRepositoryImpl implements AssignmentRepository
type assignmentRepositoryImpl struct {
	db *sql.DB
}

// NewAssignmentRepository creates a new license assignment repository
func NewAssignmentRepository(db *sql.DB) AssignmentRepository {
	return &assignmentRepositoryImpl{db: db}
}

const assignmentColumns = "id, type, pool_id, device_name, server_name, user_email, serial_number, license_key, is_active, notes, created_at, updated_at"

// Save creates the assignment when its ID is empty, updates it otherwise.
// The assignment must name a pool of the matching type; capacity checks are
// the caller's responsibility.
func (r *assignmentRepositoryImpl) Save(ctx context.Context, a domain.LicenseAssignment) (domain.LicenseAssignment, error) {
	if err := a.Validate(); err != nil {
		return domain.LicenseAssignment{}, fmt.Errorf("%w: %s", ErrInvalidEntity, err)
	}
	if a.ID == "" {
		return r.create(ctx, a)
	}
	return r.update(ctx, a)
}

func (r *assignmentRepositoryImpl) create(ctx context.Context, a domain.LicenseAssignment) (domain.LicenseAssignment, error) {
	now := time.Now().UTC().Truncate(time.Second)
	a.ID = ids.New()
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO license_assignments (`+assignmentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, string(a.Type), a.PoolID,
		nullString(a.DeviceName), nullString(a.ServerName), nullString(a.UserEmail),
		nullString(a.SerialNumber), nullString(a.LicenseKey),
		a.IsActive, a.Notes, formatTime(a.CreatedAt), formatTime(a.UpdatedAt))
	if err != nil {
		return domain.LicenseAssignment{}, fmt.Errorf("failed to create license assignment: %w", err)
	}
	return a, nil
}

func (r *assignmentRepositoryImpl) update(ctx context.Context, a domain.LicenseAssignment) (domain.LicenseAssignment, error) {
	a.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	result, err := r.db.ExecContext(ctx, `
		UPDATE license_assignments
		SET type = ?, pool_id = ?, device_name = ?, server_name = ?, user_email = ?,
		    serial_number = ?, license_key = ?, is_active = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		string(a.Type), a.PoolID,
		nullString(a.DeviceName), nullString(a.ServerName), nullString(a.UserEmail),
		nullString(a.SerialNumber), nullString(a.LicenseKey),
		a.IsActive, a.Notes, formatTime(a.UpdatedAt), a.ID)
	if err != nil {
		return domain.LicenseAssignment{}, fmt.Errorf("failed to update license assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return domain.LicenseAssignment{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return domain.LicenseAssignment{}, fmt.Errorf("license assignment %s: %w", a.ID, ErrNotFound)
	}
	return r.FindByID(ctx, a.ID)
}

func scanAssignment(row interface{ Scan(...any) error }) (domain.LicenseAssignment, error) {
	var (
		a                                              domain.LicenseAssignment
		assignmentType                                 string
		deviceName, serverName, userEmail, serial, key sql.NullString
		createdAt, updatedAt                           string
	)
	if err := row.Scan(&a.ID, &assignmentType, &a.PoolID,
		&deviceName, &serverName, &userEmail, &serial, &key,
		&a.IsActive, &a.Notes, &createdAt, &updatedAt); err != nil {
		return domain.LicenseAssignment{}, err
	}

	a.Type = domain.LicenseType(assignmentType)
	a.DeviceName = fromNullString(deviceName)
	a.ServerName = fromNullString(serverName)
	a.UserEmail = fromNullString(userEmail)
	a.SerialNumber = fromNullString(serial)
	a.LicenseKey = fromNullString(key)

	var err error
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.LicenseAssignment{}, err
	}
	if a.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return domain.LicenseAssignment{}, err
	}
	return a, nil
}

// FindByID finds a license assignment by ID
func (r *assignmentRepositoryImpl) FindByID(ctx context.Context, id string) (domain.LicenseAssignment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+assignmentColumns+` FROM license_assignments WHERE id = ?`, id)
	a, err := scanAssignment(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.LicenseAssignment{}, fmt.Errorf("license assignment %s: %w", id, ErrNotFound)
		}
		return domain.LicenseAssignment{}, fmt.Errorf("failed to find license assignment: %w", err)
	}
	return a, nil
}

// FindAll finds all license assignments, newest first
func (r *assignmentRepositoryImpl) FindAll(ctx context.Context) ([]domain.LicenseAssignment, error) {
	return r.query(ctx, `SELECT `+assignmentColumns+` FROM license_assignments ORDER BY created_at DESC, id DESC`)
}

// FindByPoolID finds all assignments referencing a pool
func (r *assignmentRepositoryImpl) FindByPoolID(ctx context.Context, poolID string) ([]domain.LicenseAssignment, error) {
	return r.query(ctx,
		`SELECT `+assignmentColumns+` FROM license_assignments WHERE pool_id = ? ORDER BY created_at DESC, id DESC`,
		poolID)
}

// FindByType finds all assignments of one category, newest first
func (r *assignmentRepositoryImpl) FindByType(ctx context.Context, t domain.LicenseType) ([]domain.LicenseAssignment, error) {
	return r.query(ctx,
		`SELECT `+assignmentColumns+` FROM license_assignments WHERE type = ? ORDER BY created_at DESC, id DESC`,
		string(t))
}

func (r *assignmentRepositoryImpl) query(ctx context.Context, q string, args ...any) ([]domain.LicenseAssignment, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find license assignments: %w", err)
	}
	defer rows.Close()

	var assignments []domain.LicenseAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan license assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating license assignments: %w", err)
	}
	return assignments, nil
}

// DeleteByID deletes a license assignment by ID
func (r *assignmentRepositoryImpl) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM license_assignments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete license assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("license assignment %s: %w", id, ErrNotFound)
	}
	return nil
}

// ExistsByID checks if a license assignment exists by ID
func (r *assignmentRepositoryImpl) ExistsByID(ctx context.Context, id string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM license_assignments WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check license assignment existence: %w", err)
	}
	return count > 0, nil
}
