package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/printdesk/idcard-api/config"
	"github.com/printdesk/idcard-api/internal/application"
	"github.com/printdesk/idcard-api/internal/infrastructure/memory"
	"github.com/printdesk/idcard-api/internal/oauth"
	"github.com/printdesk/idcard-api/pkg/helpers"
)

const frontendURL = "http://localhost:3000"

// stubProvider answers the provider round trip from canned data.
type stubProvider struct {
	profile     oauth.Profile
	exchangeErr error
}

func (p *stubProvider) AuthCodeURL(state string) string {
	return "https://provider.example/auth?state=" + url.QueryEscape(state)
}

func (p *stubProvider) Exchange(_ context.Context, code string) (string, error) {
	if p.exchangeErr != nil {
		return "", p.exchangeErr
	}
	return "access-" + code, nil
}

func (p *stubProvider) UserInfo(_ context.Context, _ string) (*oauth.Profile, error) {
	prof := p.profile
	return &prof, nil
}

type oauthEnv struct {
	engine   *gin.Engine
	repo     *memory.AccountRepository
	state    *oauth.StateManager
	provider *stubProvider
}

func newOAuthEnv(t *testing.T) *oauthEnv {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := &config.Config{
		AppName:         "idcard-api",
		SessionTTL:      time.Hour,
		VerificationTTL: 24 * time.Hour,
		ResetTTL:        time.Hour,
	}
	repo := memory.NewAccountRepository()
	tokens := helpers.NewTokenManager("test-secret", cfg.SessionTTL)
	authSvc := application.NewAuthService(repo, tokens, nil, nil, logger, cfg)
	oauthSvc := application.NewOAuthService(repo, logger)
	state := oauth.NewStateManager("test-secret", 10*time.Minute)
	provider := &stubProvider{profile: oauth.Profile{Sub: "google-123", Email: "ana@example.com", EmailVerified: true, Name: "Ana"}}
	cookies := helpers.NewCookieManager("", false)

	h := NewOAuthHandler(provider, state, oauthSvc, authSvc, cookies, logger, frontendURL)

	e := gin.New()
	g := e.Group("/api/oauth/google")
	g.GET("/login", h.LoginRedirect)
	g.GET("/signup", h.SignupRedirect)
	g.GET("/callback", h.Callback)

	return &oauthEnv{engine: e, repo: repo, state: state, provider: provider}
}

func (e *oauthEnv) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

// callbackQuery follows the handler redirect and parses its query string.
func callbackQuery(t *testing.T, w *httptest.ResponseRecorder) url.Values {
	t.Helper()
	if w.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d: %s", w.Code, w.Body.String())
	}
	loc := w.Header().Get("Location")
	if !strings.HasPrefix(loc, frontendURL+"/auth/callback?") {
		t.Fatalf("unexpected redirect target %q", loc)
	}
	u, err := url.Parse(loc)
	if err != nil {
		t.Fatalf("parse redirect: %v", err)
	}
	return u.Query()
}

func TestOAuthRedirect_CarriesIntent(t *testing.T) {
	e := newOAuthEnv(t)

	for path, want := range map[string]string{
		"/api/oauth/google/login":  "login",
		"/api/oauth/google/signup": "signup",
	} {
		w := e.get(t, path)
		if w.Code != http.StatusFound {
			t.Fatalf("%s: expected 302, got %d", path, w.Code)
		}
		u, err := url.Parse(w.Header().Get("Location"))
		if err != nil {
			t.Fatalf("parse location: %v", err)
		}
		intent, err := e.state.Decode(u.Query().Get("state"))
		if err != nil {
			t.Fatalf("decode state: %v", err)
		}
		if intent != want {
			t.Fatalf("%s: expected intent %q, got %q", path, want, intent)
		}
	}
}

func TestOAuthCallback_SignupCreatesSession(t *testing.T) {
	e := newOAuthEnv(t)

	state, err := e.state.Encode("signup")
	if err != nil {
		t.Fatalf("encode state: %v", err)
	}
	w := e.get(t, "/api/oauth/google/callback?state="+url.QueryEscape(state)+"&code=abc")

	q := callbackQuery(t, w)
	if q.Get("success") != "1" || q.Get("new_account") != "1" {
		t.Fatalf("expected success=1&new_account=1, got %v", q)
	}
	cookie := sessionCookie(t, w)
	if cookie.Value == "" {
		t.Fatal("expected a session cookie")
	}

	a, err := e.repo.GetByGoogleID(context.Background(), "google-123")
	if err != nil {
		t.Fatalf("account not created: %v", err)
	}
	if !a.IsEmailVerified {
		t.Fatal("oauth signup must create a verified account")
	}
}

func TestOAuthCallback_LoginIntentUnknownAccount(t *testing.T) {
	e := newOAuthEnv(t)

	state, err := e.state.Encode("login")
	if err != nil {
		t.Fatalf("encode state: %v", err)
	}
	w := e.get(t, "/api/oauth/google/callback?state="+url.QueryEscape(state)+"&code=abc")

	q := callbackQuery(t, w)
	if q.Get("error") != "account_not_found" {
		t.Fatalf("expected account_not_found, got %v", q)
	}
	// The provider profile is carried for signup pre-fill.
	if q.Get("email") != "ana@example.com" || q.Get("google_id") != "google-123" {
		t.Fatalf("expected profile pre-fill, got %v", q)
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == helpers.SessionCookieName {
			t.Fatal("failed login must not set a session cookie")
		}
	}
}

func TestOAuthCallback_Failures(t *testing.T) {
	e := newOAuthEnv(t)

	state, err := e.state.Encode("login")
	if err != nil {
		t.Fatalf("encode state: %v", err)
	}

	cases := []struct {
		name, path, want string
	}{
		{"provider denied", "/api/oauth/google/callback?error=access_denied", "provider_denied"},
		{"missing state", "/api/oauth/google/callback?code=abc", "invalid_state"},
		{"forged state", "/api/oauth/google/callback?state=bogus&code=abc", "invalid_state"},
		{"missing code", "/api/oauth/google/callback?state=" + url.QueryEscape(state), "missing_code"},
	}
	for _, tc := range cases {
		q := callbackQuery(t, e.get(t, tc.path))
		if q.Get("error") != tc.want {
			t.Fatalf("%s: expected error %q, got %v", tc.name, tc.want, q)
		}
	}

	e.provider.exchangeErr = errors.New("token endpoint unavailable")
	q := callbackQuery(t, e.get(t, "/api/oauth/google/callback?state="+url.QueryEscape(state)+"&code=abc"))
	if q.Get("error") != "provider_error" {
		t.Fatalf("exchange failure: expected provider_error, got %v", q)
	}
}
