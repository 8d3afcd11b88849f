package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tcardoso/licensedesk/internal/ids"
)

const issuer = "licensedesk"

// DefaultTokenTTL is how long a login session stays valid
const DefaultTokenTTL = 12 * time.Hour

// Claims are the JWT claims carried by a session token
type Claims struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Session is the result of a successful login
type Session struct {
	Token   string
	Account Account
}

// Service authenticates administrator accounts and issues session tokens
type Service struct {
	accounts AccountStore
	secret   []byte
	tokenTTL time.Duration
}

// NewService creates an authentication service. The secret signs session
// tokens with HS256 and must not be empty.
func NewService(accounts AccountStore, secret string) (*Service, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("token secret is not configured")
	}
	return &Service{
		accounts: accounts,
		secret:   []byte(secret),
		tokenTTL: DefaultTokenTTL,
	}, nil
}

// Register creates a new administrator account with a hashed password
func (s *Service) Register(ctx context.Context, email, name, password string) (Account, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return Account{}, err
	}
	return s.accounts.Create(ctx, email, name, hash)
}

// Login verifies the credentials and issues a session token.
// Unknown emails and wrong passwords both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if err := VerifyPassword(account.PasswordHash, password); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	token, err := s.issueToken(account)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, Account: account}, nil
}

func (s *Service) issueToken(account Account) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Name:  account.Name,
		Email: account.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   account.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			ID:        ids.New(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies a session token signature and claims
func (s *Service) ParseToken(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

type ctxKey string

const accountIDKey ctxKey = "auth_account_id"

// ContextWithAccount stores the authenticated account ID in the context
func ContextWithAccount(ctx context.Context, accountID string) context.Context {
	return context.WithValue(ctx, accountIDKey, accountID)
}

// AccountIDFromContext extracts the authenticated account ID from the context
func AccountIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(accountIDKey).(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// Middleware rejects requests without a valid bearer token
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		claims, err := s.ParseToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithAccount(r.Context(), claims.Subject)))
	})
}
