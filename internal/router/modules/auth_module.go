package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"account-service/internal/container"
	handlers "account-service/internal/interface/http"
	"account-service/internal/interface/middleware"
)

// AuthModule wires the unauthenticated account routes.
// POST /api/register, /api/login, /api/refresh
// POST /api/forgot-password, /api/reset-password, /api/resend-verification
// GET  /api/verify-email

type AuthModule struct {
	Handler *handlers.AuthHandler
}

func NewAuthModule(h *handlers.AuthHandler) *AuthModule {
	return &AuthModule{Handler: h}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()

	registerLimiter := middleware.RateLimit(rdb, 5, time.Minute, middleware.KeyByIP(), nil)
	loginLimiter := middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByIP(), nil)
	refreshLimiter := middleware.RateLimit(rdb, 60, time.Minute, middleware.KeyByIP(), nil)
	// password reset and resend endpoints send email; keep them tight
	mailLimiter := middleware.RateLimit(rdb, 5, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/register", registerLimiter, m.Handler.Register)
	rg.POST("/login", loginLimiter, m.Handler.Login)
	rg.POST("/refresh", refreshLimiter, m.Handler.Refresh)

	rg.GET("/verify-email", m.Handler.VerifyEmail)
	rg.POST("/resend-verification", mailLimiter, m.Handler.ResendVerification)
	rg.POST("/forgot-password", mailLimiter, m.Handler.ForgotPassword)
	rg.POST("/reset-password", mailLimiter, m.Handler.ResetPassword)
}
