// Package lockout throttles credential guessing. Consecutive login failures
// for the same email and client IP are counted inside a sliding window; once
// the threshold is crossed the pair is locked out for a fixed period and
// every attempt is refused before credentials are even looked at.
package lockout

import (
	"context"
	"strings"
	"time"

	dErrors "odontoforense/pkg/domain-errors"
)

// Policy holds the thresholds. The zero value is unusable; use DefaultPolicy.
type Policy struct {
	MaxFailures int
	Window      time.Duration
	LockFor     time.Duration
}

// DefaultPolicy allows five failures per fifteen minutes before a fifteen
// minute hard lock.
func DefaultPolicy() Policy {
	return Policy{
		MaxFailures: 5,
		Window:      15 * time.Minute,
		LockFor:     15 * time.Minute,
	}
}

// Store persists failure counts and locks.
type Store interface {
	// RecordFailure bumps the failure count for key and returns the new
	// count. The count expires window after the first failure.
	RecordFailure(ctx context.Context, key string, window time.Duration) (int, error)
	// Lock marks key as locked until the duration passes.
	Lock(ctx context.Context, key string, lockFor time.Duration) error
	// LockedUntil returns the lock deadline for key, or nil when unlocked.
	LockedUntil(ctx context.Context, key string) (*time.Time, error)
	// Clear drops both the failure count and any lock for key.
	Clear(ctx context.Context, key string) error
}

// Guard applies a Policy to a Store.
type Guard struct {
	store  Store
	policy Policy
}

// NewGuard creates a new Guard.
func NewGuard(store Store, policy Policy) *Guard {
	return &Guard{store: store, policy: policy}
}

// key pairs the claimed identity with the client address so one victim email
// cannot be locked out remotely from a single source, and one source cannot
// sweep many emails unnoticed.
func key(email, ip string) string {
	return strings.ToLower(strings.TrimSpace(email)) + "|" + ip
}

// Check refuses the attempt when the pair is currently locked.
func (g *Guard) Check(ctx context.Context, email, ip string) error {
	until, err := g.store.LockedUntil(ctx, key(email, ip))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read lockout state")
	}
	if until != nil {
		return dErrors.New(dErrors.CodeUnauthorized, "too many failed login attempts, try again later")
	}
	return nil
}

// RecordFailure counts one failed attempt and locks the pair when the policy
// threshold is reached.
func (g *Guard) RecordFailure(ctx context.Context, email, ip string) error {
	k := key(email, ip)
	count, err := g.store.RecordFailure(ctx, k, g.policy.Window)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record login failure")
	}
	if count >= g.policy.MaxFailures {
		if err := g.store.Lock(ctx, k, g.policy.LockFor); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to lock identity")
		}
	}
	return nil
}

// Reset clears the failure history after a successful login.
func (g *Guard) Reset(ctx context.Context, email, ip string) error {
	if err := g.store.Clear(ctx, key(email, ip)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to clear lockout state")
	}
	return nil
}
