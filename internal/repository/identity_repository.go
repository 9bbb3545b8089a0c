package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/identity-service/internal/domain"
)

// IdentityRepository defines persistence access for account records.
type IdentityRepository interface {
	Create(ctx context.Context, identity *domain.Identity) error
	GetByID(ctx context.Context, id string) (*domain.Identity, error)
	GetByEmail(ctx context.Context, email string) (*domain.Identity, error)
	SetActive(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	DeleteInactive(ctx context.Context) (int64, error)
}

type identityRepository struct {
	db DBTX
}

// NewIdentityRepository returns a Postgres-backed implementation.
func NewIdentityRepository(db DBTX) IdentityRepository {
	return &identityRepository{db: db}
}

const identityColumns = `user_id, email, password_hash, first_name, last_name,
        identification_number, birth_date, gender, role, is_active, creation_date`

func (r *identityRepository) Create(ctx context.Context, identity *domain.Identity) error {
	const query = `
        INSERT INTO users (user_id, email, password_hash, first_name, last_name,
            identification_number, birth_date, gender, role, is_active, creation_date)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`

	_, err := r.db.Exec(ctx, query,
		identity.ID,
		identity.Email,
		identity.PasswordHash,
		identity.FirstName,
		identity.LastName,
		nullIfEmpty(identity.IdentificationNumber),
		identity.BirthDate,
		nullIfEmpty(string(identity.Gender)),
		identity.Role,
		identity.Active,
		identity.CreatedAt,
	)
	if err != nil && isUniqueViolation(err, "users_email_key") {
		return domain.ErrDuplicateIdentity
	}
	return err
}

func (r *identityRepository) GetByID(ctx context.Context, id string) (*domain.Identity, error) {
	const query = `SELECT ` + identityColumns + ` FROM users WHERE user_id=$1`
	return r.scanIdentity(r.db.QueryRow(ctx, query, id))
}

func (r *identityRepository) GetByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	const query = `SELECT ` + identityColumns + ` FROM users WHERE email=$1`
	return r.scanIdentity(r.db.QueryRow(ctx, query, email))
}

func (r *identityRepository) SetActive(ctx context.Context, id string) error {
	const query = `UPDATE users SET is_active=TRUE WHERE user_id=$1`

	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *identityRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE users SET password_hash=$1 WHERE user_id=$2`

	cmd, err := r.db.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// DeleteInactive removes every account that never activated. Associated
// tokens are removed by the user_tokens foreign key cascade.
func (r *identityRepository) DeleteInactive(ctx context.Context) (int64, error) {
	const query = `DELETE FROM users WHERE is_active=FALSE`

	cmd, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *identityRepository) scanIdentity(row pgx.Row) (*domain.Identity, error) {
	var (
		identity domain.Identity
		idNumber *string
		gender   *string
	)
	if err := row.Scan(
		&identity.ID,
		&identity.Email,
		&identity.PasswordHash,
		&identity.FirstName,
		&identity.LastName,
		&idNumber,
		&identity.BirthDate,
		&gender,
		&identity.Role,
		&identity.Active,
		&identity.CreatedAt,
	); err != nil {
		return nil, err
	}
	if idNumber != nil {
		identity.IdentificationNumber = *idNumber
	}
	if gender != nil {
		identity.Gender = domain.Gender(*gender)
	}
	return &identity, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
