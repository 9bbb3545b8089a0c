package domain

import "time"

// SingleUseTokenTTL is the lifetime of an activation or reset token.
const SingleUseTokenTTL = 2 * time.Hour

// TokenPurpose selects which mutation a token validation performs.
type TokenPurpose string

const (
	PurposeActivation    TokenPurpose = "ACTIVATION"
	PurposePasswordReset TokenPurpose = "PASSWORD_RESET"
)

// SingleUseToken links exactly one identity to a pending activation or
// password reset. The row's existence is the pending state: a consumed or
// swept token is deleted, never marked used.
type SingleUseToken struct {
	ID         string
	Value      string
	IdentityID string
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

// Expired reports whether the token is past its expiration. The comparison
// is strict: a token expiring exactly at now is still valid.
func (t SingleUseToken) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}
