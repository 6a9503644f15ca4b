package helpers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// SessionCookieName is the transport for session tokens.
const SessionCookieName = "session_token"

// CookieManager centralizes session cookie attributes.
//
// Cookies are always HttpOnly. When Secure is set (TLS deployments) SameSite
// is None so the cookie survives cross-site frontend/backend setups;
// otherwise Lax for local development.
type CookieManager struct {
	Domain string
	Secure bool
}

func NewCookieManager(domain string, secure bool) *CookieManager {
	return &CookieManager{Domain: domain, Secure: secure}
}

func (m *CookieManager) sameSite() http.SameSite {
	if m.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// SetSession stores the session token until its expiry.
func (m *CookieManager) SetSession(c *gin.Context, token string, exp time.Time) {
	c.SetSameSite(m.sameSite())
	c.SetCookie(SessionCookieName, token, maxAgeFrom(exp), "/", m.Domain, m.Secure, true)
}

// ClearSession removes the session cookie. There is no server-side
// revocation; the token simply ages out.
func (m *CookieManager) ClearSession(c *gin.Context) {
	c.SetSameSite(m.sameSite())
	c.SetCookie(SessionCookieName, "", -1, "/", m.Domain, m.Secure, true)
}

func maxAgeFrom(exp time.Time) int {
	sec := int(time.Until(exp).Seconds())
	if sec < 0 {
		return 0
	}
	return sec
}
