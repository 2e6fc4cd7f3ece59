package handlers

import (
	"fmt"
	"html"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"account-service/internal/application"
	"account-service/internal/domain/entity"
	"account-service/pkg/helpers"
	"account-service/pkg/response"
	"account-service/pkg/validation"
)

// AuthHandler serves the unauthenticated endpoints: registration,
// login, token refresh, verification, and password reset.
type AuthHandler struct {
	Svc     *application.Service
	Logger  *logrus.Logger
	Cookies *helpers.CookieManager
}

func NewAuthHandler(svc *application.Service, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookieManager(cookieDomain, cookieSecure)}
}

type registerRequest struct {
	DisplayName string `form:"display_name" json:"display_name" binding:"required,displayname"`
	Email       string `form:"email" json:"email" binding:"required,email"`
	Password    string `form:"password" json:"password" binding:"required,pwd"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required,len=6"`
	NewPassword string `json:"new_password" binding:"required,pwd"`
}

func accountPayload(a *entity.Account) gin.H {
	out := gin.H{
		"id":             a.ID,
		"email":          a.Email,
		"display_name":   a.DisplayName,
		"status":         a.Status,
		"email_verified": a.EmailVerified,
		"created_at":     a.CreatedAt,
		"updated_at":     a.UpdatedAt,
	}
	if a.ProfileImage != nil {
		out["profile_image"] = a.ProfileImage.URL
	}
	if a.LastLoginAt != nil {
		out["last_login_at"] = a.LastLoginAt
	}
	return out
}

// Register POST /api/register
// Accepts JSON or multipart form data; multipart may carry an optional
// profile_image file.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	in := application.RegisterInput{
		DisplayName: req.DisplayName,
		Email:       req.Email,
		Password:    req.Password,
	}
	if file, err := c.FormFile("profile_image"); err == nil && file != nil {
		f, err := file.Open()
		if err != nil {
			response.Error[any](c, http.StatusBadRequest, "unreadable profile image", nil)
			return
		}
		defer func() { _ = f.Close() }()
		in.Image = &application.ImageUpload{
			Reader:      f,
			Filename:    file.Filename,
			ContentType: file.Header.Get("Content-Type"),
		}
	}

	a, pair, err := h.Svc.Register(c.Request.Context(), in)
	if err != nil {
		serviceError(c, h.Logger, err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	// cookieless clients need the pair in the body, same as Login
	response.Success(c, http.StatusCreated, gin.H{
		"account":            accountPayload(a),
		"access_token":       pair.AccessToken,
		"refresh_token":      pair.RefreshToken,
		"access_expires_at":  pair.AccessTokenExpiry,
		"refresh_expires_at": pair.RefreshTokenExpiry,
	}, "registered; verification email sent")
}

// Login POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	a, pair, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		serviceError(c, h.Logger, err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, gin.H{
		"account":            accountPayload(a),
		"access_token":       pair.AccessToken,
		"refresh_token":      pair.RefreshToken,
		"access_expires_at":  pair.AccessTokenExpiry,
		"refresh_expires_at": pair.RefreshTokenExpiry,
	}, "login successful")
}

// Refresh POST /api/refresh
// Rotates the refresh token taken from the cookie or the JSON body.
func (h *AuthHandler) Refresh(c *gin.Context) {
	refresh, _ := c.Cookie("refresh_token")
	if refresh == "" {
		var req struct {
			RefreshToken string `json:"refresh_token"`
		}
		_ = c.ShouldBindJSON(&req)
		refresh = req.RefreshToken
	}
	if refresh == "" {
		response.Error[any](c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}

	_, pair, err := h.Svc.Refresh(c.Request.Context(), refresh)
	if err != nil {
		serviceError(c, h.Logger, err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, gin.H{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	}, "token refreshed")
}

// VerifyEmail GET /api/verify-email?token=...
// Serves a small HTML landing page so the link works from any mail
// client without a front end.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	envelope := c.Query("token")
	a, err := h.Svc.VerifyEmail(c.Request.Context(), envelope)
	if err != nil {
		c.Data(http.StatusBadRequest, "text/html; charset=utf-8", []byte(verifyPage(
			"Verification failed",
			"This verification link is invalid or has already been used.",
		)))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(verifyPage(
		"Email verified",
		fmt.Sprintf("Thanks %s, your email address is confirmed and your account is active.", html.EscapeString(a.DisplayName)),
	)))
}

func verifyPage(title, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>%s</title></head>
<body style="font-family:sans-serif;max-width:480px;margin:80px auto;text-align:center">
<h1>%s</h1>
<p>%s</p>
</body>
</html>`, title, title, body)
}

// ResendVerification POST /api/resend-verification
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.ResendVerification(c.Request.Context(), req.Email); err != nil {
		serviceError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"sent": true}, "verification email sent")
}

// ForgotPassword POST /api/forgot-password
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		serviceError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"sent": true}, "reset code sent")
}

// ResetPassword POST /api/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.ResetPassword(c.Request.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		serviceError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"reset": true}, "password updated")
}
