package application

import (
	"context"
	"errors"
	"testing"

	"github.com/printdesk/idcard-api/internal/domain/entity"
	repo "github.com/printdesk/idcard-api/internal/domain/repository"
	"github.com/printdesk/idcard-api/internal/infrastructure/memory"
)

func googleProfile() ExternalProfile {
	return ExternalProfile{
		GoogleID: "google-123",
		Email:    "ana@example.com",
		Name:     "Ana",
	}
}

func TestResolve_SignupCreatesVerifiedAccount(t *testing.T) {
	ctx := context.Background()
	svc := NewOAuthService(memory.NewAccountRepository(), testLogger())

	res, err := svc.Resolve(ctx, IntentSignup, googleProfile())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !res.NewAccount {
		t.Fatal("expected a new account")
	}
	a := res.Account
	if a.GoogleID != "google-123" || a.Email != "ana@example.com" {
		t.Fatalf("unexpected account: %+v", a)
	}
	if !a.IsEmailVerified {
		t.Fatal("provider-asserted email must be verified")
	}
	if a.HasPassword() {
		t.Fatal("oauth-only account must not carry a password hash")
	}
	if a.Role != entity.DefaultRole {
		t.Fatalf("expected default role, got %q", a.Role)
	}
}

func TestResolve_Deterministic(t *testing.T) {
	ctx := context.Background()
	svc := NewOAuthService(memory.NewAccountRepository(), testLogger())

	first, err := svc.Resolve(ctx, IntentSignup, googleProfile())
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	for _, intent := range []Intent{IntentLogin, IntentSignup} {
		res, err := svc.Resolve(ctx, intent, googleProfile())
		if err != nil {
			t.Fatalf("resolve %s: %v", intent, err)
		}
		if res.Account.ID != first.Account.ID {
			t.Fatalf("same google id must resolve to the same account")
		}
		if res.NewAccount || res.Linked {
			t.Fatalf("repeat resolution must not create or link: %+v", res)
		}
	}
}

func TestResolve_LinksOnEmailMatch(t *testing.T) {
	ctx := context.Background()
	r := memory.NewAccountRepository()
	svc := NewOAuthService(r, testLogger())

	// Local account registered before the Google round trip, unverified.
	local := &entity.Account{Name: "Ana", Email: "ana@example.com", PasswordHash: "x", Role: entity.RoleTeacher}
	if err := r.Create(ctx, local); err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := svc.Resolve(ctx, IntentLogin, googleProfile())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Account.ID != local.ID {
		t.Fatal("expected the existing account")
	}
	if !res.Linked || res.NewAccount {
		t.Fatalf("expected a link, got %+v", res)
	}
	if !res.Account.IsEmailVerified {
		t.Fatal("linking must mark the email verified")
	}

	stored, _ := r.GetByID(ctx, local.ID)
	if stored.GoogleID != "google-123" {
		t.Fatalf("google id not persisted: %+v", stored)
	}
	if !stored.HasPassword() {
		t.Fatal("linking must not drop the existing password")
	}
}

func TestResolve_LoginIntentUnknownAccount(t *testing.T) {
	ctx := context.Background()
	r := memory.NewAccountRepository()
	svc := NewOAuthService(r, testLogger())

	if _, err := svc.Resolve(ctx, IntentLogin, googleProfile()); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	// No account materializes from a failed login intent.
	if _, err := r.GetByEmail(ctx, "ana@example.com"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected no account, got %v", err)
	}
	if _, err := r.GetByGoogleID(ctx, "google-123"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("expected no account, got %v", err)
	}
}

func TestResolve_Validation(t *testing.T) {
	ctx := context.Background()
	svc := NewOAuthService(memory.NewAccountRepository(), testLogger())

	cases := []struct {
		intent  Intent
		profile ExternalProfile
	}{
		{Intent("unknown"), googleProfile()},
		{IntentSignup, ExternalProfile{GoogleID: "", Email: "ana@example.com"}},
		{IntentSignup, ExternalProfile{GoogleID: "google-123", Email: "not-an-email"}},
	}
	for _, tc := range cases {
		if _, err := svc.Resolve(ctx, tc.intent, tc.profile); !errors.Is(err, ErrValidation) {
			t.Fatalf("intent=%q profile=%+v: expected ErrValidation, got %v", tc.intent, tc.profile, err)
		}
	}
}

// raceRepo simulates a concurrent callback winning between the lookup and
// the write: lookups miss until a write has been attempted, so the write
// collides with state the resolver never saw.
type raceRepo struct {
	*memory.AccountRepository
	hidden bool
}

func (r *raceRepo) GetByGoogleID(ctx context.Context, googleID string) (*entity.Account, error) {
	if r.hidden {
		return nil, repo.ErrNotFound
	}
	return r.AccountRepository.GetByGoogleID(ctx, googleID)
}

func (r *raceRepo) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	if r.hidden {
		return nil, repo.ErrNotFound
	}
	return r.AccountRepository.GetByEmail(ctx, email)
}

func (r *raceRepo) Create(ctx context.Context, a *entity.Account) error {
	r.hidden = false
	return r.AccountRepository.Create(ctx, a)
}

func (r *raceRepo) LinkGoogleID(ctx context.Context, id, googleID string) error {
	r.hidden = false
	return r.AccountRepository.LinkGoogleID(ctx, id, googleID)
}

func TestResolve_DuplicateCreationBackstop(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewAccountRepository()

	// A concurrent callback already created the account for this google id.
	winner := &entity.Account{Name: "Ana", Email: "ana@example.com", GoogleID: "google-123", Role: entity.RoleTeacher, IsEmailVerified: true}
	if err := mem.Create(ctx, winner); err != nil {
		t.Fatalf("create winner: %v", err)
	}

	svc := NewOAuthService(&raceRepo{AccountRepository: mem, hidden: true}, testLogger())
	res, err := svc.Resolve(ctx, IntentSignup, googleProfile())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Account.ID != winner.ID {
		t.Fatal("expected the concurrent winner's account")
	}
	if res.NewAccount {
		t.Fatal("collision must not report a new account")
	}

	// Only one account exists afterwards.
	if _, err := mem.GetByEmail(ctx, "ana@example.com"); err != nil {
		t.Fatalf("get winner: %v", err)
	}
}
