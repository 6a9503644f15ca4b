package repository

import (
	"context"
	"errors"
	"time"

	"github.com/printdesk/idcard-api/internal/domain/entity"
)

var (
	// ErrNotFound is returned when no account matches the lookup.
	ErrNotFound = errors.New("account not found")
	// ErrDuplicateEmail is returned when a create or update collides with
	// the case-insensitive unique index on email.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrDuplicateGoogleID is returned when a create or link collides with
	// the unique index on google_id.
	ErrDuplicateGoogleID = errors.New("google identity already linked")
)

// AccountRepository defines the persistence operations for accounts.
//
// Token redemption methods are required to be atomic match-and-clear
// operations: a token that was already consumed, overwritten, or expired
// must yield ErrNotFound rather than a second success.
type AccountRepository interface {
	Create(ctx context.Context, a *entity.Account) error
	GetByID(ctx context.Context, id string) (*entity.Account, error)
	GetByEmail(ctx context.Context, email string) (*entity.Account, error)
	GetByGoogleID(ctx context.Context, googleID string) (*entity.Account, error)

	// UpdateProfile changes the owner-mutable fields.
	UpdateProfile(ctx context.Context, id, name string, hasCompletedProfile bool) (*entity.Account, error)

	// SetVerificationToken replaces any outstanding verification token.
	SetVerificationToken(ctx context.Context, id, token string, expiry time.Time) error
	// RedeemVerificationToken marks the matching account verified and clears
	// both verification fields in a single conditional write.
	RedeemVerificationToken(ctx context.Context, token string, now time.Time) (*entity.Account, error)

	// SetResetToken replaces any outstanding password reset token.
	SetResetToken(ctx context.Context, id, token string, expiry time.Time) error
	// RedeemResetToken swaps in the new password hash and clears both reset
	// fields in a single conditional write.
	RedeemResetToken(ctx context.Context, token, newHash string, now time.Time) (*entity.Account, error)

	// LinkGoogleID attaches a Google identity and marks the account verified.
	LinkGoogleID(ctx context.Context, id, googleID string) error
	// UpdatePassword replaces the password hash outside the reset flow.
	UpdatePassword(ctx context.Context, id, hash string) error
	// SetActive toggles the account's active flag.
	SetActive(ctx context.Context, id string, active bool) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}
