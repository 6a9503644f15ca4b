package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/printdesk/idcard-api/internal/application"
	"github.com/printdesk/idcard-api/internal/oauth"
	"github.com/printdesk/idcard-api/pkg/helpers"
)

// OAuthProvider abstracts the provider round trip so the handler can be
// tested without reaching Google.
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (string, error)
	UserInfo(ctx context.Context, accessToken string) (*oauth.Profile, error)
}

// OAuthHandler is the transport side of third-party login: redirects,
// state round-tripping, and cookies. The account resolution itself lives in
// application.OAuthService.
//
// Failures surface as redirects with an encoded error, not JSON bodies:
// the caller here is a browser navigation.
type OAuthHandler struct {
	Provider    OAuthProvider
	State       *oauth.StateManager
	OAuth       *application.OAuthService
	Auth        *application.AuthService
	Cookies     *helpers.CookieManager
	Logger      *logrus.Logger
	FrontendURL string
}

func NewOAuthHandler(provider OAuthProvider, state *oauth.StateManager, oauthSvc *application.OAuthService, authSvc *application.AuthService, cookies *helpers.CookieManager, logger *logrus.Logger, frontendURL string) *OAuthHandler {
	return &OAuthHandler{
		Provider:    provider,
		State:       state,
		OAuth:       oauthSvc,
		Auth:        authSvc,
		Cookies:     cookies,
		Logger:      logger,
		FrontendURL: frontendURL,
	}
}

func (h *OAuthHandler) redirectError(c *gin.Context, code string, extra url.Values) {
	q := url.Values{"error": {code}}
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	c.Redirect(http.StatusFound, h.FrontendURL+"/auth/callback?"+q.Encode())
}

// beginFlow redirects the browser to the provider with the intent signed
// into the state parameter.
func (h *OAuthHandler) beginFlow(c *gin.Context, intent application.Intent) {
	state, err := h.State.Encode(string(intent))
	if err != nil {
		h.Logger.WithError(err).Error("encode oauth state failed")
		h.redirectError(c, "internal", nil)
		return
	}
	c.Redirect(http.StatusFound, h.Provider.AuthCodeURL(state))
}

// LoginRedirect handles GET /api/oauth/google/login.
func (h *OAuthHandler) LoginRedirect(c *gin.Context) {
	h.beginFlow(c, application.IntentLogin)
}

// SignupRedirect handles GET /api/oauth/google/signup.
func (h *OAuthHandler) SignupRedirect(c *gin.Context) {
	h.beginFlow(c, application.IntentSignup)
}

// Callback handles GET /api/oauth/google/callback.
func (h *OAuthHandler) Callback(c *gin.Context) {
	if errCode := c.Query("error"); errCode != "" {
		h.redirectError(c, "provider_denied", nil)
		return
	}

	intentStr, err := h.State.Decode(c.Query("state"))
	if err != nil {
		h.redirectError(c, "invalid_state", nil)
		return
	}
	intent := application.Intent(intentStr)

	code := c.Query("code")
	if code == "" {
		h.redirectError(c, "missing_code", nil)
		return
	}

	ctx := c.Request.Context()
	accessToken, err := h.Provider.Exchange(ctx, code)
	if err != nil {
		h.Logger.WithError(err).Warn("oauth code exchange failed")
		h.redirectError(c, "provider_error", nil)
		return
	}
	profile, err := h.Provider.UserInfo(ctx, accessToken)
	if err != nil {
		h.Logger.WithError(err).Warn("oauth userinfo failed")
		h.redirectError(c, "provider_error", nil)
		return
	}

	result, err := h.OAuth.Resolve(ctx, intent, application.ExternalProfile{
		GoogleID: profile.Sub,
		Email:    profile.Email,
		Name:     profile.Name,
	})
	if err != nil {
		if errors.Is(err, application.ErrAccountNotFound) {
			// Carry the provider profile so the frontend can pre-fill signup.
			h.redirectError(c, "account_not_found", url.Values{
				"email":     {profile.Email},
				"name":      {profile.Name},
				"google_id": {profile.Sub},
			})
			return
		}
		h.Logger.WithError(err).Error("oauth resolution failed")
		h.redirectError(c, "internal", nil)
		return
	}

	sess, err := h.Auth.IssueSession(ctx, result.Account)
	if err != nil {
		h.redirectError(c, "internal", nil)
		return
	}
	h.Cookies.SetSession(c, sess.Token, sess.ExpiresAt)

	q := url.Values{"success": {"1"}}
	if result.NewAccount {
		q.Set("new_account", "1")
	}
	c.Redirect(http.StatusFound, h.FrontendURL+"/auth/callback?"+q.Encode())
}
