package domain

import "errors"

// ErrInvalidKey is returned when a key label or payload is not recognized.
var ErrInvalidKey = errors.New("invalid key")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionForbidden is returned when a session belongs to another user.
var ErrSessionForbidden = errors.New("session belongs to another user")

var (
	// ErrEmailTaken is returned when registering an email that already has an account.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned when email or password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned when a user ID does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrOperationNotFound is returned when an operation does not exist or is not owned by the user.
	ErrOperationNotFound = errors.New("operation not found")
	// ErrTokenInvalid is returned for malformed or tampered tokens.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is returned for tokens past their expiry.
	ErrTokenExpired = errors.New("token expired")
)
