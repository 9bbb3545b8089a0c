package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/identity-service/internal/domain"
	"github.com/spec-kit/identity-service/internal/observability"
)

type sweepIdentityRepo struct {
	identities map[string]*domain.Identity
}

func (r *sweepIdentityRepo) Create(_ context.Context, identity *domain.Identity) error {
	r.identities[identity.ID] = identity
	return nil
}

func (r *sweepIdentityRepo) GetByID(_ context.Context, id string) (*domain.Identity, error) {
	return r.identities[id], nil
}

func (r *sweepIdentityRepo) GetByEmail(_ context.Context, _ string) (*domain.Identity, error) {
	return nil, nil
}

func (r *sweepIdentityRepo) SetActive(_ context.Context, _ string) error { return nil }

func (r *sweepIdentityRepo) UpdatePassword(_ context.Context, _, _ string) error { return nil }

func (r *sweepIdentityRepo) DeleteInactive(_ context.Context) (int64, error) {
	var deleted int64
	for id, identity := range r.identities {
		if !identity.Active {
			delete(r.identities, id)
			deleted++
		}
	}
	return deleted, nil
}

type sweepTokenRepo struct {
	tokens map[string]*domain.SingleUseToken
}

func (r *sweepTokenRepo) Create(_ context.Context, token *domain.SingleUseToken) error {
	r.tokens[token.ID] = token
	return nil
}

func (r *sweepTokenRepo) GetByValue(_ context.Context, _ string) (*domain.SingleUseToken, error) {
	return nil, nil
}

func (r *sweepTokenRepo) GetByIdentityID(_ context.Context, _ string) (*domain.SingleUseToken, error) {
	return nil, nil
}

func (r *sweepTokenRepo) Delete(_ context.Context, _ string) error { return nil }

func (r *sweepTokenRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var deleted int64
	for id, token := range r.tokens {
		if token.ExpiresAt.Before(now) {
			delete(r.tokens, id)
			deleted++
		}
	}
	return deleted, nil
}

func TestRunOnceDeletesOnlyExpiredTokens(t *testing.T) {
	now := time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC)

	tokens := &sweepTokenRepo{tokens: map[string]*domain.SingleUseToken{
		"expired": {ID: "expired", Value: "old", ExpiresAt: now.Add(-time.Minute)},
		"live":    {ID: "live", Value: "fresh", ExpiresAt: now.Add(time.Hour)},
	}}
	identities := &sweepIdentityRepo{identities: map[string]*domain.Identity{}}

	sweeper := NewSweeper(identities, tokens, zap.NewNop(), observability.NewMetrics(), 3)
	sweeper.now = func() time.Time { return now }

	sweeper.RunOnce(context.Background())

	require.Len(t, tokens.tokens, 1)
	assert.Contains(t, tokens.tokens, "live")
}

func TestRunOnceDeletesInactiveIdentitiesRegardlessOfAge(t *testing.T) {
	now := time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC)

	identities := &sweepIdentityRepo{identities: map[string]*domain.Identity{
		"active":    {ID: "active", Active: true, CreatedAt: now.Add(-48 * time.Hour)},
		"abandoned": {ID: "abandoned", Active: false, CreatedAt: now.Add(-48 * time.Hour)},
		"brand-new": {ID: "brand-new", Active: false, CreatedAt: now.Add(-time.Minute)},
	}}
	tokens := &sweepTokenRepo{tokens: map[string]*domain.SingleUseToken{}}

	sweeper := NewSweeper(identities, tokens, zap.NewNop(), observability.NewMetrics(), 3)
	sweeper.now = func() time.Time { return now }

	sweeper.RunOnce(context.Background())

	require.Len(t, identities.identities, 1)
	assert.Contains(t, identities.identities, "active")
}

func TestRunOnceIsIdempotent(t *testing.T) {
	now := time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC)

	tokens := &sweepTokenRepo{tokens: map[string]*domain.SingleUseToken{
		"expired": {ID: "expired", ExpiresAt: now.Add(-time.Minute)},
	}}
	identities := &sweepIdentityRepo{identities: map[string]*domain.Identity{}}

	sweeper := NewSweeper(identities, tokens, zap.NewNop(), observability.NewMetrics(), 3)
	sweeper.now = func() time.Time { return now }

	sweeper.RunOnce(context.Background())
	sweeper.RunOnce(context.Background())

	assert.Empty(t, tokens.tokens)
}

func TestNextRun(t *testing.T) {
	loc := time.UTC

	before := time.Date(2025, 6, 1, 2, 59, 0, 0, loc)
	assert.Equal(t, time.Date(2025, 6, 1, 3, 0, 0, 0, loc), nextRun(before, 3))

	at := time.Date(2025, 6, 1, 3, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2025, 6, 2, 3, 0, 0, 0, loc), nextRun(at, 3))

	after := time.Date(2025, 6, 1, 4, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2025, 6, 2, 3, 0, 0, 0, loc), nextRun(after, 3))
}
