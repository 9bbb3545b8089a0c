package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/identity-service/internal/observability"
	"github.com/spec-kit/identity-service/internal/repository"
)

// Sweeper purges expired single-use tokens and never-activated accounts on a
// fixed daily schedule. Each pass is idempotent and safe to run alongside
// live traffic; a validation racing a sweep simply observes a missing row.
type Sweeper struct {
	identities repository.IdentityRepository
	tokens     repository.TokenRepository
	logger     *zap.Logger
	metrics    *observability.Metrics
	hour       int
	now        func() time.Time
}

// NewSweeper builds the sweeper. hour is the local hour-of-day for the daily
// run.
func NewSweeper(identities repository.IdentityRepository, tokens repository.TokenRepository, logger *zap.Logger, metrics *observability.Metrics, hour int) *Sweeper {
	if hour < 0 || hour > 23 {
		hour = 3
	}
	return &Sweeper{
		identities: identities,
		tokens:     tokens,
		logger:     logger,
		metrics:    metrics,
		hour:       hour,
		now:        time.Now,
	}
}

// Run blocks until ctx is cancelled, sweeping once per day at the configured
// hour.
func (s *Sweeper) Run(ctx context.Context) {
	for {
		next := nextRun(s.now(), s.hour)
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep pass.
func (s *Sweeper) RunOnce(ctx context.Context) {
	now := s.now()

	expired, err := s.tokens.DeleteExpired(ctx, now)
	if err != nil {
		s.logger.Error("failed to delete expired tokens", zap.Error(err))
	} else if expired > 0 {
		s.logger.Info("deleted expired tokens", zap.Int64("count", expired))
		s.metrics.RecordSweep("tokens", expired)
	}

	// Inactive accounts are removed regardless of how recently they
	// registered; only the active flag is consulted.
	inactive, err := s.identities.DeleteInactive(ctx)
	if err != nil {
		s.logger.Error("failed to delete inactive users", zap.Error(err))
	} else if inactive > 0 {
		s.logger.Info("deleted not activated users", zap.Int64("count", inactive))
		s.metrics.RecordSweep("identities", inactive)
	}
}

// nextRun returns the next occurrence of hour after now.
func nextRun(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
