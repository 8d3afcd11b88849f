package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/tcardoso/licensedesk/internal/domain"
	"github.com/tcardoso/licensedesk/internal/ids"
)

// M365UserRepository defines domain-specific operations for Microsoft 365 users
type M365UserRepository interface {
	Repository[domain.M365User]
	FindByEmail(ctx context.Context, email string) (domain.M365User, error)
}

// m365UserRepositoryImpl implements M365UserRepository
type m365UserRepositoryImpl struct {
	db *sql.DB
}

// NewM365UserRepository creates a new Microsoft 365 user repository
func NewM365UserRepository(db *sql.DB) M365UserRepository {
	return &m365UserRepositoryImpl{db: db}
}

const m365UserColumns = "id, name, email, assigned_licenses, is_active, created_at, updated_at"

func validateM365User(u domain.M365User) error {
	if u.Name == "" {
		return fmt.Errorf("%w: user name is required", ErrInvalidEntity)
	}
	if u.Email == "" {
		return fmt.Errorf("%w: user email is required", ErrInvalidEntity)
	}
	return nil
}

// Save creates the user when its ID is empty, updates it otherwise
func (r *m365UserRepositoryImpl) Save(ctx context.Context, user domain.M365User) (domain.M365User, error) {
	if err := validateM365User(user); err != nil {
		return domain.M365User{}, err
	}
	if user.ID == "" {
		return r.create(ctx, user)
	}
	return r.update(ctx, user)
}

func (r *m365UserRepositoryImpl) create(ctx context.Context, u domain.M365User) (domain.M365User, error) {
	now := time.Now().UTC().Truncate(time.Second)
	u.ID = ids.New()
	u.CreatedAt = now
	u.UpdatedAt = now
	if u.AssignedLicenses == nil {
		u.AssignedLicenses = []string{}
	}

	list, err := encodeIDList(u.AssignedLicenses)
	if err != nil {
		return domain.M365User{}, err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO m365_users (`+m365UserColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, list, u.IsActive,
		formatTime(u.CreatedAt), formatTime(u.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.M365User{}, fmt.Errorf("m365 user with email %q: %w", u.Email, ErrDuplicate)
		}
		return domain.M365User{}, fmt.Errorf("failed to create m365 user: %w", err)
	}
	return u, nil
}

func (r *m365UserRepositoryImpl) update(ctx context.Context, u domain.M365User) (domain.M365User, error) {
	u.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	if u.AssignedLicenses == nil {
		u.AssignedLicenses = []string{}
	}

	list, err := encodeIDList(u.AssignedLicenses)
	if err != nil {
		return domain.M365User{}, err
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE m365_users
		SET name = ?, email = ?, assigned_licenses = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		u.Name, u.Email, list, u.IsActive, formatTime(u.UpdatedAt), u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.M365User{}, fmt.Errorf("m365 user with email %q: %w", u.Email, ErrDuplicate)
		}
		return domain.M365User{}, fmt.Errorf("failed to update m365 user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return domain.M365User{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return domain.M365User{}, fmt.Errorf("m365 user %s: %w", u.ID, ErrNotFound)
	}
	return r.FindByID(ctx, u.ID)
}

// isUniqueViolation detects SQLite unique constraint failures
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func scanM365User(row interface{ Scan(...any) error }) (domain.M365User, error) {
	var (
		u         domain.M365User
		list      string
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &list, &u.IsActive, &createdAt, &updatedAt); err != nil {
		return domain.M365User{}, err
	}

	held, err := decodeIDList(list)
	if err != nil {
		return domain.M365User{}, err
	}
	u.AssignedLicenses = held

	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.M365User{}, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return domain.M365User{}, err
	}
	return u, nil
}

// FindByID finds a Microsoft 365 user by ID
func (r *m365UserRepositoryImpl) FindByID(ctx context.Context, id string) (domain.M365User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+m365UserColumns+` FROM m365_users WHERE id = ?`, id)
	u, err := scanM365User(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.M365User{}, fmt.Errorf("m365 user %s: %w", id, ErrNotFound)
		}
		return domain.M365User{}, fmt.Errorf("failed to find m365 user: %w", err)
	}
	return u, nil
}

// FindByEmail finds a Microsoft 365 user by email
func (r *m365UserRepositoryImpl) FindByEmail(ctx context.Context, email string) (domain.M365User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+m365UserColumns+` FROM m365_users WHERE email = ?`, email)
	u, err := scanM365User(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return domain.M365User{}, fmt.Errorf("m365 user with email %q: %w", email, ErrNotFound)
		}
		return domain.M365User{}, fmt.Errorf("failed to find m365 user: %w", err)
	}
	return u, nil
}

// FindAll finds all Microsoft 365 users, newest first
func (r *m365UserRepositoryImpl) FindAll(ctx context.Context) ([]domain.M365User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+m365UserColumns+` FROM m365_users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to find m365 users: %w", err)
	}
	defer rows.Close()

	var users []domain.M365User
	for rows.Next() {
		u, err := scanM365User(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan m365 user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating m365 users: %w", err)
	}
	return users, nil
}

// DeleteByID deletes a Microsoft 365 user by ID
func (r *m365UserRepositoryImpl) DeleteByID(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM m365_users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete m365 user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("m365 user %s: %w", id, ErrNotFound)
	}
	return nil
}

// ExistsByID checks if a Microsoft 365 user exists by ID
func (r *m365UserRepositoryImpl) ExistsByID(ctx context.Context, id string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM m365_users WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check m365 user existence: %w", err)
	}
	return count > 0, nil
}
