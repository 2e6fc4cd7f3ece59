package application

import "errors"

// Sentinel errors for the account lifecycle. Handlers translate these
// into HTTP statuses; messages are what the API exposes, so token
// failures stay deliberately vague to resist enumeration.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountNotFound    = errors.New("account not found")

	ErrEmailNotVerified = errors.New("please verify your email to activate your account")
	ErrAccountNotActive = errors.New("account is not active")
	ErrAccountLocked    = errors.New("account is temporarily locked due to too many failed login attempts")
	ErrAccountSuspended = errors.New("account is suspended")
	ErrAccountDeleted   = errors.New("account no longer exists")

	ErrInvalidToken        = errors.New("invalid or expired verification token")
	ErrInvalidResetCode    = errors.New("invalid or expired reset code")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrAlreadyVerified     = errors.New("email is already verified")

	ErrPasswordRequired = errors.New("password is required for account deletion")
)
