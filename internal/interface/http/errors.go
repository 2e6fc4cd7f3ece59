package handlers

import (
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"account-service/internal/application"
	"account-service/internal/domain/entity"
	repo "account-service/internal/domain/repository"
	"account-service/pkg/response"
)

// serviceError maps application sentinels to HTTP statuses. Anything
// unmapped is a 500: logged, reported to Sentry, and masked from the
// client.
func serviceError(c *gin.Context, logger *logrus.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		sentry.CaptureException(err)
		if logger != nil {
			logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		}
		response.Error[any](c, status, "internal server error", nil)
		return
	}
	response.Error[any](c, status, err.Error(), nil)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, application.ErrInvalidCredentials),
		errors.Is(err, application.ErrEmailNotVerified),
		errors.Is(err, application.ErrAccountNotActive),
		errors.Is(err, application.ErrInvalidRefreshToken):
		return http.StatusUnauthorized
	case errors.Is(err, application.ErrAccountLocked),
		errors.Is(err, application.ErrAccountSuspended):
		return http.StatusLocked
	case errors.Is(err, application.ErrAccountDeleted):
		return http.StatusForbidden
	case errors.Is(err, application.ErrAccountNotFound),
		errors.Is(err, repo.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repo.ErrDuplicateEmail),
		errors.Is(err, application.ErrInvalidToken),
		errors.Is(err, application.ErrInvalidResetCode),
		errors.Is(err, application.ErrAlreadyVerified),
		errors.Is(err, application.ErrPasswordRequired),
		errors.Is(err, entity.ErrInvalidEmail),
		errors.Is(err, entity.ErrDisplayNameMissing),
		errors.Is(err, entity.ErrDisplayNameTooLong),
		errors.Is(err, entity.ErrNoCredential):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
