package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"account-service/internal/application"
	"account-service/pkg/helpers"
	"account-service/pkg/response"
)

// AccountHandler serves the authenticated endpoints.
type AccountHandler struct {
	Svc     *application.Service
	Logger  *logrus.Logger
	Cookies *helpers.CookieManager
}

func NewAccountHandler(svc *application.Service, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *AccountHandler {
	return &AccountHandler{Svc: svc, Logger: logger, Cookies: helpers.NewCookieManager(cookieDomain, cookieSecure)}
}

// Me GET /api/me
func (h *AccountHandler) Me(c *gin.Context) {
	a, err := h.Svc.GetProfile(c.Request.Context(), c.GetString("accountID"))
	if err != nil {
		serviceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, accountPayload(a), "profile")
}

// Logout POST /api/logout
// Revokes the refresh token from the cookie; {"all": true} or a missing
// cookie revokes every session.
func (h *AccountHandler) Logout(c *gin.Context) {
	var req struct {
		All bool `json:"all"`
	}
	_ = c.ShouldBindJSON(&req)

	refresh, _ := c.Cookie("refresh_token")
	if req.All {
		refresh = ""
	}
	if err := h.Svc.Logout(c.Request.Context(), c.GetString("accountID"), refresh); err != nil {
		serviceError(c, h.Logger, err)
		return
	}
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, gin.H{"logged_out": true}, "logged out")
}

// AccountType GET /api/account-type
// Tells the client whether deleting this account requires a password.
func (h *AccountHandler) AccountType(c *gin.Context) {
	info, err := h.Svc.AccountType(c.Request.Context(), c.GetString("accountID"))
	if err != nil {
		serviceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, info, "account type")
}

// Delete DELETE /api/delete-account
// Local accounts must confirm with their password; oauth-only accounts
// delete without one.
func (h *AccountHandler) Delete(c *gin.Context) {
	var req struct {
		Password string `json:"password"`
	}
	_ = c.ShouldBindJSON(&req)

	accountType, err := h.Svc.DeleteAccount(c.Request.Context(), c.GetString("accountID"), req.Password)
	if err != nil {
		serviceError(c, h.Logger, err)
		return
	}
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, gin.H{
		"deleted":      true,
		"account_type": accountType,
	}, "account deleted")
}

// Search GET /api/accounts/search?q=...&size=...
func (h *AccountHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "missing query", nil)
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))

	hits, err := h.Svc.SearchAccounts(c.Request.Context(), q, size)
	if err != nil {
		serviceError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"results": hits, "count": len(hits)}, "search results")
}
