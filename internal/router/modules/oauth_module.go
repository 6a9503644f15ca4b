package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/printdesk/idcard-api/internal/container"
	handlers "github.com/printdesk/idcard-api/internal/interface/http"
	"github.com/printdesk/idcard-api/internal/interface/middleware"
)

// OAuthModule wires the Google OAuth round trip.
// GET /api/oauth/google/login, GET /api/oauth/google/signup,
// GET /api/oauth/google/callback
type OAuthModule struct {
	Handler *handlers.OAuthHandler
}

func NewOAuthModule(h *handlers.OAuthHandler) *OAuthModule {
	return &OAuthModule{Handler: h}
}

func (m *OAuthModule) Register(rg *gin.RouterGroup) {
	limiter := middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByIPAndPath(), nil)

	oauth := rg.Group("/oauth/google")
	oauth.Use(limiter)
	{
		oauth.GET("/login", m.Handler.LoginRedirect)
		oauth.GET("/signup", m.Handler.SignupRedirect)
		oauth.GET("/callback", m.Handler.Callback)
	}
}
