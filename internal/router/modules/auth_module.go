package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/printdesk/idcard-api/internal/container"
	handlers "github.com/printdesk/idcard-api/internal/interface/http"
	"github.com/printdesk/idcard-api/internal/interface/middleware"
)

// AuthModule wires the public identity endpoints.
// POST /api/register, POST /api/login, GET /api/verify-email,
// POST /api/resend-verification, POST /api/forgot-password,
// POST /api/reset-password
type AuthModule struct {
	Handler *handlers.AuthHandler
}

func NewAuthModule(h *handlers.AuthHandler) *AuthModule {
	return &AuthModule{Handler: h}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()

	registerLimiter := middleware.RateLimit(rdb, 5, time.Minute, middleware.KeyByIPAndPath(), nil)
	loginLimiter := middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByIP(), nil)
	confirmLimiter := middleware.RateLimit(rdb, 30, time.Minute, middleware.KeyByIPAndPath(), nil)
	forgotLimiter := middleware.RateLimit(rdb, 5, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/register", registerLimiter, m.Handler.Register)
	rg.POST("/login", loginLimiter, m.Handler.Login)
	rg.GET("/verify-email", confirmLimiter, m.Handler.VerifyEmail)
	rg.POST("/resend-verification", forgotLimiter, m.Handler.ResendVerification)
	rg.POST("/forgot-password", forgotLimiter, m.Handler.ForgotPassword)
	rg.POST("/reset-password", confirmLimiter, m.Handler.ResetPassword)
}
