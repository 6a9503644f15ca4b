package application

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/printdesk/idcard-api/internal/domain/entity"
	repo "github.com/printdesk/idcard-api/internal/domain/repository"
)

// Intent is the caller-declared purpose of an OAuth round trip. The provider
// callback cannot distinguish login from signup on its own, so the intent is
// threaded through the state parameter.
type Intent string

const (
	IntentLogin  Intent = "login"
	IntentSignup Intent = "signup"
)

// Valid reports whether i is a known intent.
func (i Intent) Valid() bool {
	return i == IntentLogin || i == IntentSignup
}

// ExternalProfile is the identity asserted by the OAuth provider.
type ExternalProfile struct {
	GoogleID string
	Email    string
	Name     string
}

// OAuthResult carries the resolved account plus routing hints for the
// frontend (new accounts go to profile completion).
type OAuthResult struct {
	Account    *entity.Account
	NewAccount bool
	Linked     bool
}

// OAuthService resolves a provider identity to a local account. It is pure
// resolution logic: no transport, no cookies, so it is testable without a
// live provider round trip.
type OAuthService struct {
	Repo   repo.AccountRepository
	Logger *logrus.Logger
}

func NewOAuthService(r repo.AccountRepository, logger *logrus.Logger) *OAuthService {
	return &OAuthService{Repo: r, Logger: logger}
}

// Resolve implements the account resolution algorithm:
//
//  1. An account already linked to this Google id authenticates directly,
//     regardless of intent.
//  2. An account with the same email gets the Google id linked and is
//     treated as verified: the provider asserted ownership of the address.
//  3. Otherwise, signup intent creates a verified account with no password;
//     login intent fails with ErrAccountNotFound and no side effects.
//
// Uniqueness violations at write time mean a concurrent callback won the
// race; the account is re-read and authenticated instead of duplicated.
func (s *OAuthService) Resolve(ctx context.Context, intent Intent, p ExternalProfile) (*OAuthResult, error) {
	if !intent.Valid() || p.GoogleID == "" || !validEmail(p.Email) {
		return nil, ErrValidation
	}
	email := normalizeEmail(p.Email)

	a, err := s.Repo.GetByGoogleID(ctx, p.GoogleID)
	if err == nil {
		return &OAuthResult{Account: a}, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	a, err = s.Repo.GetByEmail(ctx, email)
	if err == nil {
		return s.link(ctx, a, p.GoogleID)
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	if intent == IntentLogin {
		return nil, ErrAccountNotFound
	}
	return s.create(ctx, p, email)
}

func (s *OAuthService) link(ctx context.Context, a *entity.Account, googleID string) (*OAuthResult, error) {
	if err := s.Repo.LinkGoogleID(ctx, a.ID, googleID); err != nil {
		if errors.Is(err, repo.ErrDuplicateGoogleID) {
			// Lost a linking race; whoever holds the id now is the account.
			winner, rerr := s.Repo.GetByGoogleID(ctx, googleID)
			if rerr != nil {
				return nil, rerr
			}
			return &OAuthResult{Account: winner}, nil
		}
		return nil, err
	}
	a.GoogleID = googleID
	a.IsEmailVerified = true
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"account_id": a.ID}).Info("linked google identity to existing account")
	}
	return &OAuthResult{Account: a, Linked: true}, nil
}

func (s *OAuthService) create(ctx context.Context, p ExternalProfile, email string) (*OAuthResult, error) {
	a := &entity.Account{
		Name:            p.Name,
		Email:           email,
		GoogleID:        p.GoogleID,
		Role:            entity.DefaultRole,
		IsEmailVerified: true, // provider-asserted identity
	}
	err := s.Repo.Create(ctx, a)
	if err == nil {
		return &OAuthResult{Account: a, NewAccount: true}, nil
	}

	// The store's uniqueness constraints are the backstop for concurrent
	// callbacks: treat a violation as "someone else just created it".
	switch {
	case errors.Is(err, repo.ErrDuplicateGoogleID):
		existing, rerr := s.Repo.GetByGoogleID(ctx, p.GoogleID)
		if rerr != nil {
			return nil, rerr
		}
		return &OAuthResult{Account: existing}, nil
	case errors.Is(err, repo.ErrDuplicateEmail):
		existing, rerr := s.Repo.GetByEmail(ctx, email)
		if rerr != nil {
			return nil, rerr
		}
		return s.link(ctx, existing, p.GoogleID)
	}
	return nil, err
}
