package entity

import (
	"time"
)

// Account is the aggregate root for the identity domain
// Passwords are stored as bcrypt hashes in PasswordHash
//
// An account always carries at least one authentication method:
// a password hash, a linked Google identity, or both.
type Account struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string // empty for OAuth-only accounts
	GoogleID     string // empty unless a Google identity is linked

	Role            Role
	IsEmailVerified bool

	// Outstanding single-use tokens; token and expiry are always set and
	// cleared together. At most one outstanding token of each kind.
	EmailVerificationToken  string
	EmailVerificationExpiry *time.Time
	PasswordResetToken      string
	PasswordResetExpiry     *time.Time

	HasCompletedProfile bool
	IsActive            bool
	LastLoginAt         *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasPassword reports whether password login is possible for this account.
func (a *Account) HasPassword() bool {
	return a.PasswordHash != ""
}

// Summary is the non-sensitive projection returned to clients and attached
// to authenticated requests. It never carries the password hash or tokens.
type Summary struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Email               string `json:"email"`
	Role                Role   `json:"role"`
	IsEmailVerified     bool   `json:"is_email_verified"`
	HasCompletedProfile bool   `json:"has_completed_profile"`
	IsActive            bool   `json:"is_active"`
}

// Summary returns the client-safe projection of the account.
func (a *Account) Summary() Summary {
	return Summary{
		ID:                  a.ID,
		Name:                a.Name,
		Email:               a.Email,
		Role:                a.Role,
		IsEmailVerified:     a.IsEmailVerified,
		HasCompletedProfile: a.HasCompletedProfile,
		IsActive:            a.IsActive,
	}
}
