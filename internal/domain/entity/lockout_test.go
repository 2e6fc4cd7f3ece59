package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPolicy = LockoutPolicy{MaxAttempts: 5, LockDuration: 30 * time.Minute}

func loginReady() *Account {
	a := testAccount()
	a.Status = StatusActive
	a.EmailVerified = true
	return a
}

func TestOnFailureLocksAtThreshold(t *testing.T) {
	now := time.Now().UTC()
	a := loginReady()

	for i := 1; i < testPolicy.MaxAttempts; i++ {
		patch := testPolicy.OnFailure(a, now)
		patch.Apply(a)
		assert.Equal(t, i, a.FailedLoginCount)
		assert.Nil(t, a.LockedUntil)
		assert.Equal(t, StatusActive, a.Status)
	}

	patch := testPolicy.OnFailure(a, now)
	patch.Apply(a)
	assert.Equal(t, testPolicy.MaxAttempts, a.FailedLoginCount)
	require.NotNil(t, a.LockedUntil)
	assert.Equal(t, now.Add(testPolicy.LockDuration), *a.LockedUntil)
	assert.Equal(t, StatusSuspended, a.Status)
	assert.Equal(t, now, a.StatusChangedAt)
	assert.True(t, a.IsLocked(now))
}

func TestOnFailureWhileLockedDoesNotExtendLock(t *testing.T) {
	now := time.Now().UTC()
	until := now.Add(10 * time.Minute)
	a := loginReady()
	a.Status = StatusSuspended
	a.FailedLoginCount = 5
	a.LockedUntil = &until

	patch := testPolicy.OnFailure(a, now)
	patch.Apply(a)
	assert.Equal(t, 6, a.FailedLoginCount)
	require.NotNil(t, a.LockedUntil)
	assert.Equal(t, until, *a.LockedUntil, "lock-set is idempotent")
	assert.Nil(t, patch.Status)
}

func TestOnFailureAfterLockExpiryRestartsCounter(t *testing.T) {
	now := time.Now().UTC()
	expired := now.Add(-time.Minute)
	a := loginReady()
	a.Status = StatusSuspended
	a.FailedLoginCount = 7
	a.LockedUntil = &expired

	patch := testPolicy.OnFailure(a, now)
	patch.Apply(a)
	assert.Equal(t, 1, a.FailedLoginCount)
	assert.Nil(t, a.LockedUntil)
	assert.Equal(t, StatusActive, a.Status, "lockout suspension ends with the lock")
}

func TestOnSuccessClearsAndReactivates(t *testing.T) {
	now := time.Now().UTC()
	until := now.Add(-time.Second)
	a := loginReady()
	a.Status = StatusSuspended
	a.FailedLoginCount = 5
	a.LockedUntil = &until

	patch := testPolicy.OnSuccess(a, now)
	patch.Apply(a)
	assert.Zero(t, a.FailedLoginCount)
	assert.Nil(t, a.LockedUntil)
	assert.Equal(t, StatusActive, a.Status)
	assert.False(t, a.IsLocked(now))
}

func TestOnSuccessLeavesExplicitSuspensionAlone(t *testing.T) {
	now := time.Now().UTC()
	a := loginReady()
	a.Status = StatusSuspended // admin-set, no LockedUntil
	a.FailedLoginCount = 2

	patch := testPolicy.OnSuccess(a, now)
	patch.Apply(a)
	assert.Zero(t, a.FailedLoginCount)
	assert.Equal(t, StatusSuspended, a.Status)
}
