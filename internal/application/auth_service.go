package application

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/printdesk/idcard-api/config"
	"github.com/printdesk/idcard-api/internal/domain/entity"
	repo "github.com/printdesk/idcard-api/internal/domain/repository"
	"github.com/printdesk/idcard-api/pkg/helpers"
	"github.com/printdesk/idcard-api/pkg/mailer"
	tpl "github.com/printdesk/idcard-api/pkg/mailer/templates"
)

// Publisher is the outbound notification channel. Publish failures never
// abort the owning flow; they are logged so operators can intervene.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// AuthService orchestrates registration, email verification, credential
// login, and password reset.
type AuthService struct {
	Repo   repo.AccountRepository
	Tokens *helpers.TokenManager
	Redis  *redis.Client
	Pub    Publisher
	Logger *logrus.Logger
	Cfg    *config.Config

	now func() time.Time
}

func NewAuthService(r repo.AccountRepository, tokens *helpers.TokenManager, rdb *redis.Client, pub Publisher, logger *logrus.Logger, cfg *config.Config) *AuthService {
	return &AuthService{
		Repo:   r,
		Tokens: tokens,
		Redis:  rdb,
		Pub:    pub,
		Logger: logger,
		Cfg:    cfg,
		now:    time.Now,
	}
}

// Session bundles a freshly issued session token with its expiry.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

func summaryKey(accountID string) string {
	return "account:summary:" + accountID
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

// Register creates an unverified account, issues a verification token, and
// dispatches the verification email. The token is never returned to the
// caller.
func (s *AuthService) Register(ctx context.Context, name, email, password string, role entity.Role) (*entity.Account, error) {
	email = normalizeEmail(email)
	if name == "" || !validEmail(email) {
		return nil, ErrValidation
	}
	if len(password) < helpers.MinPasswordLength {
		return nil, ErrValidation
	}
	if role == "" {
		role = entity.DefaultRole
	}
	// Registration never grants admin; the bootstrap admin comes from the
	// seed and further admins from an existing admin.
	if !role.Valid() || role == entity.RoleAdmin {
		return nil, ErrValidation
	}

	hash, err := helpers.HashPassword(password)
	if err != nil {
		return nil, err
	}

	a := &entity.Account{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.Repo.Create(ctx, a); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	if err := s.issueVerification(ctx, a); err != nil {
		// The account exists; the user can still request a resend.
		s.logError("issue verification token failed", err, logrus.Fields{"account_id": a.ID})
	}
	return a, nil
}

// issueVerification replaces any outstanding verification token and
// enqueues the verification email.
func (s *AuthService) issueVerification(ctx context.Context, a *entity.Account) error {
	token, err := helpers.NewSingleUseToken()
	if err != nil {
		return err
	}
	expiry := s.now().Add(s.Cfg.VerificationTTL)
	if err := s.Repo.SetVerificationToken(ctx, a.ID, token, expiry); err != nil {
		return err
	}
	s.enqueueEmail(ctx, a, mailer.TemplateVerifyEmail, s.Cfg.VerifyEmailURL+"?token="+token, expiry)
	return nil
}

// ConfirmEmail redeems a verification token. On success the account is
// verified and a session is issued so the user lands signed in.
func (s *AuthService) ConfirmEmail(ctx context.Context, token string) (*entity.Account, *Session, error) {
	if token == "" {
		return nil, nil, ErrTokenInvalidOrExpired
	}
	a, err := s.Repo.RedeemVerificationToken(ctx, token, s.now())
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// No match and expired-match are indistinguishable on purpose.
			return nil, nil, ErrTokenInvalidOrExpired
		}
		return nil, nil, err
	}
	sess, err := s.IssueSession(ctx, a)
	if err != nil {
		return nil, nil, err
	}
	return a, sess, nil
}

// ResendVerification issues a fresh token for an unverified account,
// invalidating the previous one.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	a, err := s.Repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrAccountNotFound
		}
		return err
	}
	if a.IsEmailVerified {
		return ErrAccountNotFound
	}
	return s.issueVerification(ctx, a)
}

// Login validates credentials and issues a session. Unknown email and wrong
// password are deliberately indistinguishable to avoid account enumeration.
func (s *AuthService) Login(ctx context.Context, email, password string) (*entity.Account, *Session, error) {
	a, err := s.Repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !a.IsActive || !a.HasPassword() || !helpers.CompareHashAndPassword(a.PasswordHash, password) {
		return nil, nil, ErrInvalidCredentials
	}
	if !a.IsEmailVerified {
		return nil, nil, ErrEmailNotVerified
	}
	sess, err := s.IssueSession(ctx, a)
	if err != nil {
		return nil, nil, err
	}
	return a, sess, nil
}

// IssueSession signs a session token, records last login, and caches the
// account projection for the session middleware. Cache and bookkeeping
// failures are logged, not fatal.
func (s *AuthService) IssueSession(ctx context.Context, a *entity.Account) (*Session, error) {
	token, exp, err := s.Tokens.IssueSession(a.ID)
	if err != nil {
		s.logError("issue session token failed", err, logrus.Fields{"account_id": a.ID})
		return nil, err
	}
	if err := s.Repo.TouchLastLogin(ctx, a.ID, s.now()); err != nil {
		s.logError("record last login failed", err, logrus.Fields{"account_id": a.ID})
	}
	s.cacheSummary(ctx, a)
	return &Session{Token: token, ExpiresAt: exp}, nil
}

func (s *AuthService) cacheSummary(ctx context.Context, a *entity.Account) {
	if s.Redis == nil {
		return
	}
	if err := helpers.RedisSetJSON(ctx, s.Redis, summaryKey(a.ID), a.Summary(), s.Cfg.SessionTTL); err != nil {
		s.logError("cache account summary failed", err, logrus.Fields{"account_id": a.ID})
	}
}

// RequestPasswordReset issues a single-use reset token when the email is
// known. The caller always gets a success-shaped answer either way, so the
// endpoint cannot be used to discover registered addresses.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	a, err := s.Repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.logInfo("password reset requested for unknown email", logrus.Fields{})
			return nil
		}
		return err
	}
	token, err := helpers.NewSingleUseToken()
	if err != nil {
		return err
	}
	expiry := s.now().Add(s.Cfg.ResetTTL)
	if err := s.Repo.SetResetToken(ctx, a.ID, token, expiry); err != nil {
		return err
	}
	s.enqueueEmail(ctx, a, mailer.TemplateResetPassword, s.Cfg.ResetPasswordURL+"?token="+token, expiry)
	return nil
}

// ResetPassword redeems a reset token and replaces the password hash. It
// does not issue a session; the user goes through the normal login flow.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return ErrTokenInvalidOrExpired
	}
	if len(newPassword) < helpers.MinPasswordLength {
		return ErrValidation
	}
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if _, err := s.Repo.RedeemResetToken(ctx, token, hash, s.now()); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrTokenInvalidOrExpired
		}
		return err
	}
	return nil
}

// ChangePassword replaces the caller's password. Accounts that already have
// a password must prove the current one; OAuth-only accounts set their first
// password without it (the session is the proof of identity there).
func (s *AuthService) ChangePassword(ctx context.Context, accountID, currentPassword, newPassword string) error {
	if len(newPassword) < helpers.MinPasswordLength {
		return ErrValidation
	}
	a, err := s.Repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrAccountNotFound
		}
		return err
	}
	if a.HasPassword() && !helpers.CompareHashAndPassword(a.PasswordHash, currentPassword) {
		return ErrInvalidCredentials
	}
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.Repo.UpdatePassword(ctx, a.ID, hash)
}

// SetAccountActive toggles an account's active flag. Deactivation also
// drops the cached projection so outstanding sessions stop working
// immediately instead of at cache expiry.
func (s *AuthService) SetAccountActive(ctx context.Context, accountID string, active bool) error {
	if err := s.Repo.SetActive(ctx, accountID, active); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrAccountNotFound
		}
		return err
	}
	if s.Redis != nil {
		if err := helpers.RedisDel(ctx, s.Redis, summaryKey(accountID)); err != nil {
			s.logError("drop account summary cache failed", err, logrus.Fields{"account_id": accountID})
		}
	}
	return nil
}

// Profile returns the account for the authenticated caller.
func (s *AuthService) Profile(ctx context.Context, accountID string) (*entity.Account, error) {
	a, err := s.Repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return a, nil
}

// UpdateProfile changes the owner-mutable fields and refreshes the cached
// projection.
func (s *AuthService) UpdateProfile(ctx context.Context, accountID, name string, hasCompletedProfile bool) (*entity.Account, error) {
	if name == "" {
		return nil, ErrValidation
	}
	a, err := s.Repo.UpdateProfile(ctx, accountID, name, hasCompletedProfile)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	s.cacheSummary(ctx, a)
	return a, nil
}

func (s *AuthService) enqueueEmail(ctx context.Context, a *entity.Account, template, actionURL string, expiry time.Time) {
	if s.Pub == nil || !s.Cfg.MailSendEnabled {
		return
	}
	job := mailer.EmailJob{
		To:       a.Email,
		Template: template,
		Data: tpl.ToMap(tpl.Data{
			Name:      a.Name,
			AppName:   s.Cfg.AppName,
			ActionURL: actionURL,
			ExpiresAt: expiry,
		}),
	}
	if err := s.Pub.PublishJSON(ctx, job); err != nil {
		// Registration and reset still succeed; without the email the user
		// cannot finish the flow, so this must be visible to operators.
		s.logError("enqueue email failed", err, logrus.Fields{"template": template, "account_id": a.ID})
	}
}

func (s *AuthService) logError(msg string, err error, fields logrus.Fields) {
	if s.Logger == nil {
		return
	}
	s.Logger.WithError(err).WithFields(fields).Error(msg)
}

func (s *AuthService) logInfo(msg string, fields logrus.Fields) {
	if s.Logger == nil {
		return
	}
	s.Logger.WithFields(fields).Info(msg)
}
