package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/identity-service/internal/domain"
)

func TestSingleUseTokenTTLFallsBackToDomainDefault(t *testing.T) {
	assert.Equal(t, domain.SingleUseTokenTTL, AuthConfig{}.SingleUseTokenTTL())
	assert.Equal(t, domain.SingleUseTokenTTL, AuthConfig{SingleUseTokenTTLHours: -1}.SingleUseTokenTTL())
	assert.Equal(t, 4*time.Hour, AuthConfig{SingleUseTokenTTLHours: 4}.SingleUseTokenTTL())
}

func TestSessionTTLFallsBackToDefault(t *testing.T) {
	assert.Equal(t, 30*time.Minute, AuthConfig{}.SessionTTL())
	assert.Equal(t, 15*time.Minute, AuthConfig{SessionTTLMinutes: 15}.SessionTTL())
}
