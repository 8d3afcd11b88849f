package auth

import "errors"

var (
	// ErrInvalidCredentials indicates an unknown email or a wrong password.
	// Both cases map to the same error so login failures do not reveal
	// which accounts exist.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken indicates the token failed validation
	ErrInvalidToken = errors.New("invalid token")

	// ErrAccountExists indicates an account with the same email already exists
	ErrAccountExists = errors.New("account already exists")

	// ErrAccountNotFound indicates no account matched the lookup
	ErrAccountNotFound = errors.New("account not found")
)
