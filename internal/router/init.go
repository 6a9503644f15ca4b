package router

import (
	"github.com/printdesk/idcard-api/internal/application"
	"github.com/printdesk/idcard-api/internal/container"
	pginfra "github.com/printdesk/idcard-api/internal/infrastructure/postgres"
	handlers "github.com/printdesk/idcard-api/internal/interface/http"
	"github.com/printdesk/idcard-api/internal/oauth"
	"github.com/printdesk/idcard-api/internal/router/modules"
	"github.com/printdesk/idcard-api/pkg/helpers"
)

// InitModules constructs the identity stack from the container singletons
// and registers every feature module. Called once during startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	repo := pginfra.NewAccountRepository(container.GetPGPool())
	cookies := helpers.NewCookieManager(cfg.CookieDomain, cfg.CookieSecure)

	// Keep the interface nil when no publisher was constructed so the
	// service's nil check works.
	var pub application.Publisher
	if rp := container.GetRabbitPub(); rp != nil {
		pub = rp
	}

	authSvc := application.NewAuthService(
		repo,
		container.GetTokens(),
		container.GetRedis(),
		pub,
		logger,
		cfg,
	)
	oauthSvc := application.NewOAuthService(repo, logger)

	provider := oauth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL)
	state := oauth.NewStateManager(cfg.SessionSecret, cfg.OAuthStateTTL)

	r.Add(modules.NewAuthModule(handlers.NewAuthHandler(authSvc, cookies, logger)))
	r.Add(modules.NewOAuthModule(handlers.NewOAuthHandler(provider, state, oauthSvc, authSvc, cookies, logger, cfg.FrontendURL)))
	r.Add(modules.NewAccountModule(handlers.NewAccountHandler(authSvc, cookies, logger), repo))
}
