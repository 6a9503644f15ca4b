package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/printdesk/idcard-api/internal/domain/entity"
	"github.com/printdesk/idcard-api/internal/domain/repository"
)

// AccountRepository is an in-memory implementation used by tests and local
// tooling. It mirrors the Postgres implementation's guarantees: email
// uniqueness is case-insensitive, google ids are unique, and token
// redemption is an atomic match-and-clear under the store lock.
type AccountRepository struct {
	mu       sync.Mutex
	accounts map[string]*entity.Account // by id
}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{accounts: make(map[string]*entity.Account)}
}

func clone(a *entity.Account) *entity.Account {
	cp := *a
	return &cp
}

func (r *AccountRepository) Create(_ context.Context, a *entity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(a.Email)
	for _, ex := range r.accounts {
		if ex.Email == email {
			return repository.ErrDuplicateEmail
		}
		if a.GoogleID != "" && ex.GoogleID == a.GoogleID {
			return repository.ErrDuplicateGoogleID
		}
	}
	now := time.Now().UTC()
	a.ID = uuid.NewString()
	a.Email = email
	a.IsActive = true
	a.CreatedAt = now
	a.UpdatedAt = now
	r.accounts[a.ID] = clone(a)
	return nil
}

func (r *AccountRepository) GetByID(_ context.Context, id string) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[id]; ok {
		return clone(a), nil
	}
	return nil, repository.ErrNotFound
}

func (r *AccountRepository) GetByEmail(_ context.Context, email string) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = strings.ToLower(email)
	for _, a := range r.accounts {
		if a.Email == email {
			return clone(a), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *AccountRepository) GetByGoogleID(_ context.Context, googleID string) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.GoogleID != "" && a.GoogleID == googleID {
			return clone(a), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *AccountRepository) UpdateProfile(_ context.Context, id, name string, hasCompletedProfile bool) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	a.Name = name
	a.HasCompletedProfile = hasCompletedProfile
	a.UpdatedAt = time.Now().UTC()
	return clone(a), nil
}

func (r *AccountRepository) SetVerificationToken(_ context.Context, id, token string, expiry time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.EmailVerificationToken = token
	a.EmailVerificationExpiry = &expiry
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *AccountRepository) RedeemVerificationToken(_ context.Context, token string, now time.Time) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.EmailVerificationToken == token && token != "" &&
			a.EmailVerificationExpiry != nil && a.EmailVerificationExpiry.After(now) {
			a.IsEmailVerified = true
			a.EmailVerificationToken = ""
			a.EmailVerificationExpiry = nil
			a.UpdatedAt = time.Now().UTC()
			return clone(a), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *AccountRepository) SetResetToken(_ context.Context, id, token string, expiry time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.PasswordResetToken = token
	a.PasswordResetExpiry = &expiry
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *AccountRepository) RedeemResetToken(_ context.Context, token, newHash string, now time.Time) (*entity.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.PasswordResetToken == token && token != "" &&
			a.PasswordResetExpiry != nil && a.PasswordResetExpiry.After(now) {
			a.PasswordHash = newHash
			a.PasswordResetToken = ""
			a.PasswordResetExpiry = nil
			a.UpdatedAt = time.Now().UTC()
			return clone(a), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *AccountRepository) LinkGoogleID(_ context.Context, id, googleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ex := range r.accounts {
		if ex.ID != id && ex.GoogleID == googleID {
			return repository.ErrDuplicateGoogleID
		}
	}
	a, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.GoogleID = googleID
	a.IsEmailVerified = true
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *AccountRepository) UpdatePassword(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.PasswordHash = hash
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *AccountRepository) SetActive(_ context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.IsActive = active
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *AccountRepository) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.LastLoginAt = &at
	return nil
}

var _ repository.AccountRepository = (*AccountRepository)(nil)
