package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/printdesk/idcard-api/internal/container"
	"github.com/printdesk/idcard-api/internal/domain/entity"
	repo "github.com/printdesk/idcard-api/internal/domain/repository"
	handlers "github.com/printdesk/idcard-api/internal/interface/http"
	"github.com/printdesk/idcard-api/internal/interface/middleware"
)

// AccountModule wires the session-protected account endpoints.
// POST /api/logout, GET /api/profile, PUT /api/profile, PUT /api/password,
// and the admin-only /api/accounts/:id lookup and active switch.
type AccountModule struct {
	Handler *handlers.AccountHandler
	Repo    repo.AccountRepository
}

func NewAccountModule(h *handlers.AccountHandler, r repo.AccountRepository) *AccountModule {
	return &AccountModule{Handler: h, Repo: r}
}

func (m *AccountModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()

	auth := rg.Group("/")
	auth.Use(middleware.Auth(rdb, container.GetTokens(), m.Repo))
	auth.Use(middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByAccount(), middleware.AllowPrivateIP()))
	{
		auth.POST("/logout", m.Handler.Logout)
		auth.GET("/profile", m.Handler.GetProfile)
		auth.PUT("/profile", m.Handler.UpdateProfile)
		auth.PUT("/password", m.Handler.ChangePassword)

		admin := auth.Group("/accounts")
		admin.Use(middleware.RequireRole(entity.RoleAdmin))
		admin.GET("/:id", m.Handler.GetAccount)
		admin.PUT("/:id/active", m.Handler.SetAccountActive)
	}
}
