package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAccount() *Account {
	now := time.Now().UTC()
	return &Account{
		ID:           "acc-1",
		Email:        "a@x.com",
		DisplayName:  "Alice",
		PasswordHash: "$2a$12$fakehash",
		Status:       StatusInactive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestNormalize(t *testing.T) {
	a := testAccount()
	a.Email = "  Alice@Example.COM "
	a.DisplayName = " Alice "
	a.Normalize()
	assert.Equal(t, "alice@example.com", a.Email)
	assert.Equal(t, "Alice", a.DisplayName)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Account)
		wantErr error
	}{
		{name: "valid local account", mutate: func(a *Account) {}},
		{
			name:    "missing display name",
			mutate:  func(a *Account) { a.DisplayName = "" },
			wantErr: ErrDisplayNameMissing,
		},
		{
			name: "display name too long",
			mutate: func(a *Account) {
				for len(a.DisplayName) <= MaxDisplayNameLen {
					a.DisplayName += "x"
				}
			},
			wantErr: ErrDisplayNameTooLong,
		},
		{
			name:    "bad email",
			mutate:  func(a *Account) { a.Email = "not-an-email" },
			wantErr: ErrInvalidEmail,
		},
		{
			name:    "no credential at all",
			mutate:  func(a *Account) { a.PasswordHash = "" },
			wantErr: ErrNoCredential,
		},
		{
			name: "oauth binding is enough",
			mutate: func(a *Account) {
				a.PasswordHash = ""
				a.OAuthProviders = []OAuthProvider{{Provider: "google", ProviderID: "g-1"}}
			},
		},
		{
			name:    "unknown status",
			mutate:  func(a *Account) { a.Status = Status("archived") },
			wantErr: ErrInvalidStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := testAccount()
			tt.mutate(a)
			err := a.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTransitions(t *testing.T) {
	now := time.Now().UTC()

	a := testAccount()
	require.NoError(t, a.Activate("", now))
	assert.Equal(t, StatusActive, a.Status)
	assert.Equal(t, now, a.StatusChangedAt)

	require.NoError(t, a.Suspend("admin-1", now))
	assert.Equal(t, StatusSuspended, a.Status)
	assert.Equal(t, "admin-1", a.StatusChangedBy)

	require.NoError(t, a.Activate("", now))
	assert.True(t, a.IsActive())
	// changedBy is preserved when the next transition omits it
	assert.Equal(t, "admin-1", a.StatusChangedBy)

	require.NoError(t, a.SoftDelete(a.ID, now))
	assert.True(t, a.IsDeleted())

	// deleted is terminal
	assert.ErrorIs(t, a.Activate("", now), ErrAccountIsDeleted)
	assert.ErrorIs(t, a.Suspend("", now), ErrAccountIsDeleted)
	assert.Equal(t, StatusDeleted, a.Status)
}

func TestCanLogin(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name   string
		mutate func(*Account)
		want   bool
	}{
		{
			name:   "active verified unlocked",
			mutate: func(a *Account) { a.Status = StatusActive; a.EmailVerified = true },
			want:   true,
		},
		{
			name:   "inactive",
			mutate: func(a *Account) { a.EmailVerified = true },
			want:   false,
		},
		{
			name:   "unverified",
			mutate: func(a *Account) { a.Status = StatusActive },
			want:   false,
		},
		{
			name: "locked",
			mutate: func(a *Account) {
				a.Status = StatusActive
				a.EmailVerified = true
				a.LockedUntil = &future
			},
			want: false,
		},
		{
			name: "expired lock does not block",
			mutate: func(a *Account) {
				a.Status = StatusActive
				a.EmailVerified = true
				a.LockedUntil = &past
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := testAccount()
			tt.mutate(a)
			assert.Equal(t, tt.want, a.CanLogin(now))
		})
	}
}

func TestIsOAuthOnly(t *testing.T) {
	a := testAccount()
	assert.False(t, a.IsOAuthOnly())

	a.OAuthProviders = []OAuthProvider{{Provider: "github", ProviderID: "gh-9"}}
	assert.False(t, a.IsOAuthOnly(), "has both password and provider")

	a.PasswordHash = ""
	assert.True(t, a.IsOAuthOnly())
}
