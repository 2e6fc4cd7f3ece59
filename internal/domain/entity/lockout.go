package entity

import "time"

// LockoutPolicy decides how failed logins escalate into a temporary
// lock. Thresholds come from configuration, not globals.
type LockoutPolicy struct {
	MaxAttempts  int
	LockDuration time.Duration
}

// LoginSecurityPatch is the lock-state field group written back after a
// login attempt. It is applied as a single per-account update, so two
// concurrent attempts resolve last-write-wins with an idempotent
// lock-set, and it never touches token state or the session ledger.
type LoginSecurityPatch struct {
	FailedLoginCount int
	LockedUntil      *time.Time
	Status           *Status
	StatusChangedAt  *time.Time
}

// OnFailure records one failed login. A lock that has already expired
// is cleared and the counter restarts at 1; if that lock had suspended
// the account, the suspension is lifted with it. Reaching MaxAttempts
// while unlocked sets the lock and suspends the account in the same
// patch.
func (p LockoutPolicy) OnFailure(a *Account, now time.Time) LoginSecurityPatch {
	if a.LockedUntil != nil && !now.Before(*a.LockedUntil) {
		patch := LoginSecurityPatch{FailedLoginCount: 1, LockedUntil: nil}
		if a.Status == StatusSuspended {
			active := StatusActive
			patch.Status = &active
			patch.StatusChangedAt = &now
		}
		return patch
	}

	patch := LoginSecurityPatch{
		FailedLoginCount: a.FailedLoginCount + 1,
		LockedUntil:      a.LockedUntil,
	}
	if patch.FailedLoginCount >= p.MaxAttempts && !a.IsLocked(now) {
		until := now.Add(p.LockDuration)
		patch.LockedUntil = &until
		suspended := StatusSuspended
		patch.Status = &suspended
		patch.StatusChangedAt = &now
	}
	return patch
}

// OnSuccess clears the counter and the lock. A suspension that was
// caused by lockout (it carries LockedUntil) is lifted; an explicit
// suspension without a lock is left alone.
func (p LockoutPolicy) OnSuccess(a *Account, now time.Time) LoginSecurityPatch {
	patch := LoginSecurityPatch{FailedLoginCount: 0, LockedUntil: nil}
	if a.Status == StatusSuspended && a.LockedUntil != nil {
		active := StatusActive
		patch.Status = &active
		patch.StatusChangedAt = &now
	}
	return patch
}

// Apply copies the patch onto the in-memory account, mirroring what the
// store-side update does to the row.
func (patch LoginSecurityPatch) Apply(a *Account) {
	a.FailedLoginCount = patch.FailedLoginCount
	a.LockedUntil = patch.LockedUntil
	if patch.Status != nil {
		a.Status = *patch.Status
	}
	if patch.StatusChangedAt != nil {
		a.StatusChangedAt = *patch.StatusChangedAt
	}
}
