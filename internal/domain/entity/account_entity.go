package entity

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// Status is the lifecycle state of an account. Deleted is terminal.
type Status string

const (
	StatusActive    Status = "active"
	StatusInactive  Status = "inactive"
	StatusSuspended Status = "suspended"
	StatusDeleted   Status = "deleted"
)

const MaxDisplayNameLen = 50

var emailRe = regexp.MustCompile(`^[\w\-.]+@([\w-]+\.)+[\w-]{2,4}$`)

var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrDisplayNameMissing = errors.New("display name is required")
	ErrDisplayNameTooLong = errors.New("display name cannot be more than 50 characters")
	ErrNoCredential       = errors.New("account needs a password or at least one oauth provider")
	ErrInvalidStatus      = errors.New("invalid account status")
	ErrAccountIsDeleted   = errors.New("deleted accounts cannot change status")
)

// OAuthProvider is a binding to an external identity provider.
type OAuthProvider struct {
	Provider   string    `json:"provider"`
	ProviderID string    `json:"provider_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// RefreshToken is one entry of the per-account session ledger.
type RefreshToken struct {
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}

// ProfileImage points at an uploaded object so it can be replaced or removed later.
type ProfileImage struct {
	URL      string `json:"url"`
	ObjectID string `json:"object_id"`
}

// Account is the aggregate root for the account domain.
// PasswordHash holds a bcrypt digest and is only populated by the
// explicit WithPassword repository reads.
type Account struct {
	ID             string
	Email          string
	DisplayName    string
	PasswordHash   string
	OAuthProviders []OAuthProvider
	ProfileImage   *ProfileImage

	Status          Status
	StatusChangedAt time.Time
	StatusChangedBy string

	EmailVerified     bool
	VerificationToken string

	ResetCodeHash      string
	ResetCodeExpiresAt *time.Time

	FailedLoginCount int
	LockedUntil      *time.Time

	LastLoginAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Normalize applies the canonical form the write path persists:
// trimmed display name, lowercased trimmed email.
func (a *Account) Normalize() {
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	a.DisplayName = strings.TrimSpace(a.DisplayName)
}

// Validate checks field constraints and the credential invariant:
// an account must hold a password, an oauth binding, or both.
func (a *Account) Validate() error {
	if a.DisplayName == "" {
		return ErrDisplayNameMissing
	}
	if len(a.DisplayName) > MaxDisplayNameLen {
		return ErrDisplayNameTooLong
	}
	if !emailRe.MatchString(a.Email) {
		return ErrInvalidEmail
	}
	if a.PasswordHash == "" && len(a.OAuthProviders) == 0 {
		return ErrNoCredential
	}
	switch a.Status {
	case StatusActive, StatusInactive, StatusSuspended, StatusDeleted:
	default:
		return ErrInvalidStatus
	}
	return nil
}

// IsLocked reports whether a lockout is in effect at now.
func (a *Account) IsLocked(now time.Time) bool {
	return a.LockedUntil != nil && now.Before(*a.LockedUntil)
}

// CanLogin reports login eligibility: active, verified, not locked.
func (a *Account) CanLogin(now time.Time) bool {
	return a.Status == StatusActive && a.EmailVerified && !a.IsLocked(now)
}

// IsOAuthOnly reports whether the account has no local password and
// authenticates solely through external providers.
func (a *Account) IsOAuthOnly() bool {
	return len(a.OAuthProviders) > 0 && a.PasswordHash == ""
}

func (a *Account) IsActive() bool    { return a.Status == StatusActive }
func (a *Account) IsSuspended() bool { return a.Status == StatusSuspended }
func (a *Account) IsDeleted() bool   { return a.Status == StatusDeleted }

// Transition moves the account to the given status, stamping the audit
// fields. Deleted is terminal; any transition off it is rejected.
func (a *Account) Transition(to Status, changedBy string, now time.Time) error {
	switch to {
	case StatusActive, StatusInactive, StatusSuspended, StatusDeleted:
	default:
		return ErrInvalidStatus
	}
	if a.Status == StatusDeleted {
		return ErrAccountIsDeleted
	}
	a.Status = to
	a.StatusChangedAt = now
	if changedBy != "" {
		a.StatusChangedBy = changedBy
	}
	return nil
}

func (a *Account) Activate(changedBy string, now time.Time) error {
	return a.Transition(StatusActive, changedBy, now)
}

func (a *Account) Deactivate(changedBy string, now time.Time) error {
	return a.Transition(StatusInactive, changedBy, now)
}

func (a *Account) Suspend(changedBy string, now time.Time) error {
	return a.Transition(StatusSuspended, changedBy, now)
}

// SoftDelete marks the account deleted without removing the record.
func (a *Account) SoftDelete(changedBy string, now time.Time) error {
	return a.Transition(StatusDeleted, changedBy, now)
}
