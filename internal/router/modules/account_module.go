package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"account-service/internal/container"
	handlers "account-service/internal/interface/http"
	"account-service/internal/interface/middleware"
	"account-service/pkg/helpers"
)

// AccountModule wires the authenticated routes.
// GET    /api/me, /api/account-type, /api/accounts/search
// POST   /api/logout
// DELETE /api/delete-account

type AccountModule struct {
	Handler *handlers.AccountHandler
	JWT     *helpers.JWTManager
}

func NewAccountModule(h *handlers.AccountHandler, jwt *helpers.JWTManager) *AccountModule {
	return &AccountModule{Handler: h, JWT: jwt}
}

func (m *AccountModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()

	auth := rg.Group("/")
	auth.Use(middleware.Auth(rdb, m.JWT))
	auth.Use(
		middleware.RateLimit(rdb, 300, time.Minute, middleware.KeyByIP(), nil),
		middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByAccountID(), nil),
	)
	{
		auth.GET("/me", m.Handler.Me)
		auth.POST("/logout", m.Handler.Logout)
		auth.GET("/account-type", m.Handler.AccountType)
		auth.DELETE("/delete-account", m.Handler.Delete)
		auth.GET("/accounts/search", m.Handler.Search)
	}
}
