package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/printdesk/idcard-api/internal/domain/entity"
	"github.com/printdesk/idcard-api/internal/domain/repository"
)

// accountColumns is the select list shared by every lookup; nullable text
// columns are coalesced so they scan into plain strings.
const accountColumns = `
	id, name, email,
	COALESCE(password_hash, ''), COALESCE(google_id, ''),
	role, is_email_verified,
	COALESCE(email_verification_token, ''), email_verification_expiry,
	COALESCE(password_reset_token, ''), password_reset_expiry,
	has_completed_profile, is_active, last_login_at,
	created_at, updated_at`

type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func scanAccount(row pgx.Row) (*entity.Account, error) {
	a := &entity.Account{}
	err := row.Scan(
		&a.ID, &a.Name, &a.Email,
		&a.PasswordHash, &a.GoogleID,
		&a.Role, &a.IsEmailVerified,
		&a.EmailVerificationToken, &a.EmailVerificationExpiry,
		&a.PasswordResetToken, &a.PasswordResetExpiry,
		&a.HasCompletedProfile, &a.IsActive, &a.LastLoginAt,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// mapUniqueViolation translates a 23505 into the matching duplicate error.
func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if strings.Contains(pgErr.ConstraintName, "google_id") {
			return repository.ErrDuplicateGoogleID
		}
		return repository.ErrDuplicateEmail
	}
	return err
}

func (r *AccountRepository) Create(ctx context.Context, a *entity.Account) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO accounts (name, email, password_hash, google_id, role, is_email_verified, has_completed_profile)
		VALUES ($1, LOWER($2), NULLIF($3, ''), NULLIF($4, ''), $5, $6, $7)
		RETURNING id, email, is_active, created_at, updated_at
	`, a.Name, a.Email, a.PasswordHash, a.GoogleID, a.Role, a.IsEmailVerified, a.HasCompletedProfile)

	if err := row.Scan(&a.ID, &a.Email, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return mapUniqueViolation(err)
	}
	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (*entity.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1
	`, id))
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE email = LOWER($1)
	`, email))
}

func (r *AccountRepository) GetByGoogleID(ctx context.Context, googleID string) (*entity.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE google_id = $1
	`, googleID))
}

func (r *AccountRepository) UpdateProfile(ctx context.Context, id, name string, hasCompletedProfile bool) (*entity.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx, `
		UPDATE accounts
		SET name = $1, has_completed_profile = $2, updated_at = now()
		WHERE id = $3
		RETURNING `+accountColumns+`
	`, name, hasCompletedProfile, id))
}

func (r *AccountRepository) SetVerificationToken(ctx context.Context, id, token string, expiry time.Time) error {
	return r.exec(ctx, `
		UPDATE accounts
		SET email_verification_token = $1, email_verification_expiry = $2, updated_at = now()
		WHERE id = $3
	`, token, expiry, id)
}

// RedeemVerificationToken is a single conditional write so two concurrent
// confirms with the same token cannot both succeed.
func (r *AccountRepository) RedeemVerificationToken(ctx context.Context, token string, now time.Time) (*entity.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx, `
		UPDATE accounts
		SET is_email_verified = TRUE,
		    email_verification_token = NULL,
		    email_verification_expiry = NULL,
		    updated_at = now()
		WHERE email_verification_token = $1 AND email_verification_expiry > $2
		RETURNING `+accountColumns+`
	`, token, now))
}

func (r *AccountRepository) SetResetToken(ctx context.Context, id, token string, expiry time.Time) error {
	return r.exec(ctx, `
		UPDATE accounts
		SET password_reset_token = $1, password_reset_expiry = $2, updated_at = now()
		WHERE id = $3
	`, token, expiry, id)
}

// RedeemResetToken swaps the password hash and clears both reset fields in
// one conditional write, same guarantee as RedeemVerificationToken.
func (r *AccountRepository) RedeemResetToken(ctx context.Context, token, newHash string, now time.Time) (*entity.Account, error) {
	return scanAccount(r.pool.QueryRow(ctx, `
		UPDATE accounts
		SET password_hash = $1,
		    password_reset_token = NULL,
		    password_reset_expiry = NULL,
		    updated_at = now()
		WHERE password_reset_token = $2 AND password_reset_expiry > $3
		RETURNING `+accountColumns+`
	`, newHash, token, now))
}

func (r *AccountRepository) LinkGoogleID(ctx context.Context, id, googleID string) error {
	err := r.exec(ctx, `
		UPDATE accounts
		SET google_id = $1, is_email_verified = TRUE, updated_at = now()
		WHERE id = $2
	`, googleID, id)
	return mapUniqueViolation(err)
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	return r.exec(ctx, `
		UPDATE accounts
		SET password_hash = $1, updated_at = now()
		WHERE id = $2
	`, hash, id)
}

func (r *AccountRepository) SetActive(ctx context.Context, id string, active bool) error {
	return r.exec(ctx, `
		UPDATE accounts
		SET is_active = $1, updated_at = now()
		WHERE id = $2
	`, active, id)
}

func (r *AccountRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, `
		UPDATE accounts
		SET last_login_at = $1
		WHERE id = $2
	`, at, id)
}

func (r *AccountRepository) exec(ctx context.Context, sql string, args ...any) error {
	res, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.AccountRepository = (*AccountRepository)(nil)
