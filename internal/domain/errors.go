package domain

import "errors"

// Business-rule errors surfaced by the account lifecycle service. Handlers
// map these to HTTP responses; internal causes never leak to callers.
var (
	ErrDuplicateIdentity = errors.New("a user with this email already exists")

	// ErrInvalidCredentials is returned for unknown email and for a password
	// mismatch alike, so callers cannot probe which emails are registered.
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrIdentityNotFound = errors.New("user with this email does not exist")

	ErrTokenNotFound = errors.New("token not found")
	ErrTokenExpired  = errors.New("token expired")

	// ErrTokenAlreadyPending enforces the one-outstanding-token policy:
	// an identity holds at most one live token, activation or reset.
	ErrTokenAlreadyPending = errors.New("user already has an activation or reset token")

	ErrSignerUnavailable = errors.New("session signing key unavailable")
)
