package router

import (
	"account-service/internal/application"
	"account-service/internal/container"
	"account-service/internal/domain/entity"
	pginfra "account-service/internal/infrastructure/postgres"
	handlers "account-service/internal/interface/http"
	"account-service/internal/router/modules"
	"account-service/pkg/helpers"
)

func buildService() *application.Service {
	cfg := container.GetConfig()
	return &application.Service{
		Repo:   pginfra.NewAccountRepository(container.GetPGPool()),
		Hasher: helpers.NewHasher(cfg.BcryptCost),
		JWT:    container.GetJWT(),
		Lockout: entity.LockoutPolicy{
			MaxAttempts:  cfg.MaxLoginAttempts,
			LockDuration: cfg.LockDuration,
		},

		ResetCodeTTL:    cfg.ResetCodeTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,

		Redis:           container.GetRedis(),
		Logger:          container.GetLogger(),
		Pub:             container.GetRabbitPub(),
		GCS:             container.GetGCS(),
		GCSBucket:       cfg.GCSBucket,
		ES:              container.GetES(),
		ESAccountsIndex: cfg.ESAccountsIndex,

		VerifyEmailURL: cfg.VerifyEmailURL,
		SupportURL:     cfg.SupportURL,
		MailEnabled:    cfg.MailSendEnabled,
	}
}

// InitModules initializes all application modules and registers them
// with the router registry. Called once during startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	svc := buildService()

	authHandler := handlers.NewAuthHandler(svc, container.GetLogger(), cfg.CookieDomain, cfg.CookieSecure)
	accountHandler := handlers.NewAccountHandler(svc, container.GetLogger(), cfg.CookieDomain, cfg.CookieSecure)

	r.Add(modules.NewAuthModule(authHandler))
	r.Add(modules.NewAccountModule(accountHandler, container.GetJWT()))
}
