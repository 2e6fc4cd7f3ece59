package repository

import (
	"context"
	"errors"
	"time"

	"account-service/internal/domain/entity"
)

var (
	// ErrNotFound is returned when no account matches the lookup.
	ErrNotFound = errors.New("account not found")
	// ErrDuplicateEmail is returned by Create when the email is taken.
	ErrDuplicateEmail = errors.New("email already registered")
)

// AccountRepository is the credential store contract. Default reads
// exclude the password hash; the WithPassword variants must be used
// wherever a credential check happens. Each mutating method writes a
// single field group so concurrent updates to unrelated groups (lock
// state, token state, ledger) never clobber each other.
type AccountRepository interface {
	Create(ctx context.Context, a *entity.Account) error
	GetByID(ctx context.Context, id string) (*entity.Account, error)
	GetByEmail(ctx context.Context, email string) (*entity.Account, error)
	GetByIDWithPassword(ctx context.Context, id string) (*entity.Account, error)
	GetByEmailWithPassword(ctx context.Context, email string) (*entity.Account, error)
	// GetByVerification matches both the email and the stored opaque
	// verification token; any miss is ErrNotFound.
	GetByVerification(ctx context.Context, email, token string) (*entity.Account, error)

	// Status state machine
	UpdateStatus(ctx context.Context, id string, status entity.Status, changedBy string, at time.Time) error

	// Lock state
	UpdateLoginSecurity(ctx context.Context, id string, patch entity.LoginSecurityPatch) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error

	// Token state
	SetVerificationToken(ctx context.Context, id, token string) error
	MarkVerified(ctx context.Context, id string) error
	SetResetCode(ctx context.Context, id, codeHash string, expiresAt time.Time) error
	ClearResetCode(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// Session ledger
	AppendRefreshToken(ctx context.Context, id, token string, createdAt time.Time) error
	RevokeRefreshToken(ctx context.Context, id, token string) error
	RevokeAllRefreshTokens(ctx context.Context, id string) error
	ListRefreshTokens(ctx context.Context, id string) ([]entity.RefreshToken, error)
}
