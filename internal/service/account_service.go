package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/identity-service/internal/auth"
	"github.com/spec-kit/identity-service/internal/config"
	"github.com/spec-kit/identity-service/internal/domain"
	"github.com/spec-kit/identity-service/internal/events"
	"github.com/spec-kit/identity-service/internal/repository"
)

// RegisterInput carries validated registration fields.
type RegisterInput struct {
	Email                string
	Password             string
	FirstName            string
	LastName             string
	IdentificationNumber string
	BirthDate            *time.Time
	Gender               domain.Gender
}

// AccountService owns the account lifecycle state machine: registration,
// authentication, activation and password reset. Identity and token rows are
// mutated inside a single transaction; events are emitted only after commit.
type AccountService struct {
	txm        repository.TxManager
	identities repository.IdentityRepository
	signer     *auth.SessionSigner
	publisher  events.Publisher
	logger     *zap.Logger
	bcryptCost int
	tokenTTL   time.Duration
	now        func() time.Time
}

// AccountDependencies encapsulates collaborators for the account service.
type AccountDependencies struct {
	TxManager    repository.TxManager
	IdentityRepo repository.IdentityRepository
	Signer       *auth.SessionSigner
	Publisher    events.Publisher
	Logger       *zap.Logger
}

// NewAccountService builds the service.
func NewAccountService(cfg config.AuthConfig, deps AccountDependencies) *AccountService {
	return &AccountService{
		txm:        deps.TxManager,
		identities: deps.IdentityRepo,
		signer:     deps.Signer,
		publisher:  deps.Publisher,
		logger:     deps.Logger,
		bcryptCost: cfg.BcryptCost,
		tokenTTL:   cfg.SingleUseTokenTTL(),
		now:        time.Now,
	}
}

// Register creates an inactive identity with a fresh activation token. Both
// rows are written in one transaction; the activation email event and the
// downstream replica snapshot are emitted after the commit.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*domain.Identity, error) {
	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	var (
		identity *domain.Identity
		token    *domain.SingleUseToken
	)
	err = s.txm.RunInTx(ctx, func(ctx context.Context, store repository.Store) error {
		if _, err := store.Identities.GetByEmail(ctx, in.Email); err == nil {
			return domain.ErrDuplicateIdentity
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		now := s.now()
		identity = &domain.Identity{
			ID:                   uuid.Must(uuid.NewV7()).String(),
			Email:                in.Email,
			PasswordHash:         hash,
			FirstName:            in.FirstName,
			LastName:             in.LastName,
			IdentificationNumber: in.IdentificationNumber,
			BirthDate:            in.BirthDate,
			Gender:               in.Gender,
			Role:                 domain.RoleUser,
			Active:               false,
			CreatedAt:            now,
		}
		if err := store.Identities.Create(ctx, identity); err != nil {
			return err
		}

		token = s.mintToken(identity.ID)
		return store.Tokens.Create(ctx, token)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user created", zap.String("email", identity.Email))

	s.publisher.Publish(ctx, events.TopicEmailEvents, events.EmailEvent{
		Email:       identity.Email,
		Token:       &token.Value,
		RequestType: events.RequestNotExistingUser,
	})

	// The replica snapshot carries the downstream-facing role.
	replica := *identity
	replica.Role = domain.RoleCitizen
	s.publisher.Publish(ctx, events.TopicUserSendingEvents, events.SnapshotOf(&replica))

	s.logger.Info("activation link sent", zap.String("email", identity.Email))
	return identity, nil
}

// Authenticate verifies credentials and mints a signed session credential.
// Unknown email and wrong password return the identical error so callers
// cannot enumerate accounts.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (string, time.Time, error) {
	identity, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", time.Time{}, domain.ErrInvalidCredentials
		}
		return "", time.Time{}, err
	}
	if err := auth.ComparePassword(identity.PasswordHash, password); err != nil {
		s.logger.Warn("authentication failed", zap.String("email", email))
		return "", time.Time{}, domain.ErrInvalidCredentials
	}
	if !identity.Active {
		s.logger.Warn("authentication rejected for inactive account", zap.String("email", email))
		return "", time.Time{}, domain.ErrInvalidCredentials
	}

	signed, expiresAt, err := s.signer.Sign(identity)
	if err != nil {
		return "", time.Time{}, err
	}
	s.logger.Info("authentication successful", zap.String("email", email))
	return signed, expiresAt, nil
}

// RequestPasswordReset mints a reset token for an existing identity. An
// identity holds at most one live token at a time, whether for activation or
// reset; a second request while one is outstanding is a conflict.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	var token *domain.SingleUseToken
	err := s.txm.RunInTx(ctx, func(ctx context.Context, store repository.Store) error {
		identity, err := store.Identities.GetByEmail(ctx, email)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrIdentityNotFound
			}
			return err
		}

		if _, err := store.Tokens.GetByIdentityID(ctx, identity.ID); err == nil {
			return domain.ErrTokenAlreadyPending
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		token = s.mintToken(identity.ID)
		return store.Tokens.Create(ctx, token)
	})
	if err != nil {
		return err
	}

	s.publisher.Publish(ctx, events.TopicEmailEvents, events.EmailEvent{
		Email:       email,
		Token:       &token.Value,
		RequestType: events.RequestResetPassword,
	})
	s.logger.Info("reset password link sent", zap.String("email", email))
	return nil
}

// ValidateToken consumes a single-use token. For activation it flips the
// identity active; for password reset it stores the re-hashed newPassword.
// The identity mutation and the token deletion commit atomically, and the
// token is deleted rather than marked used.
func (s *AccountService) ValidateToken(ctx context.Context, value string, purpose domain.TokenPurpose, newPassword string) error {
	var email string
	err := s.txm.RunInTx(ctx, func(ctx context.Context, store repository.Store) error {
		token, err := store.Tokens.GetByValue(ctx, value)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrTokenNotFound
			}
			return err
		}
		if token.Expired(s.now()) {
			// Left in place for the sweeper rather than deleted here.
			return domain.ErrTokenExpired
		}

		identity, err := store.Identities.GetByID(ctx, token.IdentityID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrTokenNotFound
			}
			return err
		}
		email = identity.Email

		switch purpose {
		case domain.PurposeActivation:
			if err := store.Identities.SetActive(ctx, identity.ID); err != nil {
				return err
			}
		case domain.PurposePasswordReset:
			hash, err := auth.HashPassword(newPassword, s.bcryptCost)
			if err != nil {
				return err
			}
			if err := store.Identities.UpdatePassword(ctx, identity.ID, hash); err != nil {
				return err
			}
		default:
			return domain.ErrTokenNotFound
		}

		return store.Tokens.Delete(ctx, token.ID)
	})
	if err != nil {
		return err
	}

	switch purpose {
	case domain.PurposeActivation:
		s.publisher.Publish(ctx, events.TopicEmailEvents, events.EmailEvent{
			Email:       email,
			Token:       nil,
			RequestType: events.RequestAlreadyActivatedUser,
		})
		s.logger.Info("user activated", zap.String("email", email))
	case domain.PurposePasswordReset:
		s.logger.Info("password changed", zap.String("email", email))
	}
	return nil
}

func (s *AccountService) mintToken(identityID string) *domain.SingleUseToken {
	now := s.now()
	return &domain.SingleUseToken{
		ID:         uuid.NewString(),
		Value:      uuid.NewString(),
		IdentityID: identityID,
		ExpiresAt:  now.Add(s.tokenTTL),
		CreatedAt:  now,
	}
}
