package auth

import (
	"crypto/rsa"
	"os"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/identity-service/internal/domain"
)

// sessionSubject marks what kind of principal the credential describes.
const sessionSubject = "User details"

// SessionClaims describes the signed session payload.
type SessionClaims struct {
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
	UserID   string      `json:"userId"`
	jwt.RegisteredClaims
}

// SessionSigner mints short-lived RS256 session credentials. The private key
// is loaded once at startup and shared read-only by all signing calls.
type SessionSigner struct {
	key    *rsa.PrivateKey
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionSigner parses a PEM-encoded RSA private key. A parse failure
// returns an error; callers may keep the degraded signer, whose Sign calls
// fail with ErrSignerUnavailable instead of crashing the process.
func NewSessionSigner(keyPEM []byte, issuer string, ttl time.Duration) (*SessionSigner, error) {
	signer := &SessionSigner{issuer: issuer, ttl: ttl, now: time.Now}

	key, err := jwt.ParseRSAPrivateKeyFromPEM(keyPEM)
	if err != nil {
		return signer, err
	}
	signer.key = key
	return signer, nil
}

// LoadSessionSigner reads the private key from disk and builds the signer.
func LoadSessionSigner(path, issuer string, ttl time.Duration) (*SessionSigner, error) {
	keyPEM, err := os.ReadFile(path)
	if err != nil {
		return &SessionSigner{issuer: issuer, ttl: ttl, now: time.Now}, err
	}
	return NewSessionSigner(keyPEM, issuer, ttl)
}

// Sign produces a compact signed credential for the identity.
func (s *SessionSigner) Sign(identity *domain.Identity) (string, time.Time, error) {
	if s == nil || s.key == nil {
		return "", time.Time{}, domain.ErrSignerUnavailable
	}

	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.ttl)
	claims := &SessionClaims{
		Username: identity.Email,
		Role:     identity.Role,
		UserID:   identity.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionSubject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
