package auth

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/tcardoso/licensedesk/internal/ids"
)

// Account is an administrator login for the dashboard
type Account struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AccountStore persists administrator accounts
type AccountStore interface {
	Create(ctx context.Context, email, name, passwordHash string) (Account, error)
	FindByEmail(ctx context.Context, email string) (Account, error)
	FindByID(ctx context.Context, id string) (Account, error)
}

type sqlAccountStore struct {
	db *sql.DB
}

// NewAccountStore creates an account store backed by the accounts table
func NewAccountStore(db *sql.DB) AccountStore {
	return &sqlAccountStore{db: db}
}

// NormalizeEmail canonicalizes an email for storage and lookup
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *sqlAccountStore) Create(ctx context.Context, email, name, passwordHash string) (Account, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return Account{}, fmt.Errorf("account email is required")
	}
	if passwordHash == "" {
		return Account{}, fmt.Errorf("account password hash is required")
	}

	now := time.Now().UTC().Truncate(time.Second)
	account := Account{
		ID:           ids.New(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, email, name, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		account.ID, account.Email, account.Name, account.PasswordHash,
		account.CreatedAt.Format(time.RFC3339), account.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return Account{}, fmt.Errorf("account %s: %w", email, ErrAccountExists)
		}
		return Account{}, fmt.Errorf("failed to create account: %w", err)
	}
	return account, nil
}

func (s *sqlAccountStore) FindByEmail(ctx context.Context, email string) (Account, error) {
	return s.find(ctx, "email = ?", NormalizeEmail(email))
}

func (s *sqlAccountStore) FindByID(ctx context.Context, id string) (Account, error) {
	return s.find(ctx, "id = ?", id)
}

func (s *sqlAccountStore) find(ctx context.Context, where string, arg any) (Account, error) {
	var (
		a         Account
		createdAt string
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, email, name, password_hash, created_at, updated_at FROM accounts WHERE "+where, arg).
		Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &createdAt, &updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, fmt.Errorf("failed to find account: %w", err)
	}
	if a.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return Account{}, fmt.Errorf("invalid account timestamp: %w", err)
	}
	if a.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return Account{}, fmt.Errorf("invalid account timestamp: %w", err)
	}
	return a, nil
}
