package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"path/filepath"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/identity-service/internal/domain"
)

func generateKeyPEM(t *testing.T) ([]byte, *rsa.PrivateKey) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), key
}

func TestSignProducesVerifiableClaims(t *testing.T) {
	keyPEM, key := generateKeyPEM(t)

	signer, err := NewSessionSigner(keyPEM, "test-issuer", 30*time.Minute)
	require.NoError(t, err)

	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	signer.now = func() time.Time { return issuedAt }

	identity := &domain.Identity{
		ID:    "0197-abc",
		Email: "a@x.com",
		Role:  domain.RoleUser,
	}
	signed, expiresAt, err := signer.Sign(identity)
	require.NoError(t, err)
	assert.Equal(t, issuedAt.Add(30*time.Minute), expiresAt)

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(signed, claims, func(token *jwt.Token) (any, error) {
		require.IsType(t, jwt.SigningMethodRS256, token.Method)
		return &key.PublicKey, nil
	}, jwt.WithTimeFunc(func() time.Time { return issuedAt }))
	require.NoError(t, err)
	assert.True(t, parsed.Valid)

	assert.Equal(t, "User details", claims.Subject)
	assert.Equal(t, "test-issuer", claims.Issuer)
	assert.Equal(t, "a@x.com", claims.Username)
	assert.Equal(t, domain.RoleUser, claims.Role)
	assert.Equal(t, "0197-abc", claims.UserID)
	assert.Equal(t, issuedAt.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, issuedAt.Add(30*time.Minute).Unix(), claims.ExpiresAt.Unix())
}

func TestNewSessionSignerRejectsGarbageKeyButDegrades(t *testing.T) {
	signer, err := NewSessionSigner([]byte("not a key"), "test-issuer", 30*time.Minute)
	require.Error(t, err)
	require.NotNil(t, signer)

	_, _, signErr := signer.Sign(&domain.Identity{Email: "a@x.com"})
	assert.ErrorIs(t, signErr, domain.ErrSignerUnavailable)
}

func TestLoadSessionSignerMissingFileDegrades(t *testing.T) {
	signer, err := LoadSessionSigner(filepath.Join(t.TempDir(), "missing.pem"), "test-issuer", 30*time.Minute)
	require.Error(t, err)
	require.NotNil(t, signer)

	_, _, signErr := signer.Sign(&domain.Identity{Email: "a@x.com"})
	assert.ErrorIs(t, signErr, domain.ErrSignerUnavailable)
}
