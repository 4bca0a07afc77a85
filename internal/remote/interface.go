// Package remote defines the contract the engine uses to talk to the
// game authority. The engine treats the authority as opaque: it posts
// optimistic state and adopts whatever authoritative values come back.
// Implementations live in subpackages (httpapi) or in test fakes.
package remote

import (
	"context"
	"errors"
)

var (
	// ErrUnauthorized means the session identity was rejected. Callers
	// treat this as terminal for the session.
	ErrUnauthorized = errors.New("unauthorized session")

	// ErrUserNotFound means the authority has no record for this
	// identity; the caller may create one.
	ErrUserNotFound = errors.New("user not found")

	// ErrRejected means the authority understood the request and
	// refused it (for example an upgrade the player cannot afford).
	ErrRejected = errors.New("request rejected")
)

// Client is the sync capability the economy components depend on.
// Every call is authenticated with the session identity the
// implementation was constructed with.
type Client interface {
	// FetchUser loads the authoritative session state.
	FetchUser(ctx context.Context) (User, error)

	// CreateUser registers a new user, optionally crediting a referrer.
	CreateUser(ctx context.Context, referrerID int64) (User, error)

	// UpdateLastLogin records a session start. Best-effort.
	UpdateLastLogin(ctx context.Context) error

	// UpdateEnergy reports the locally available energy and returns the
	// authoritative value, which may differ.
	UpdateEnergy(ctx context.Context, active int64) (float64, error)

	// UpdateBalance reports an earned-points delta accumulated locally.
	// requestID identifies the logical sync: retries of a delta whose
	// earlier attempt may have landed reuse the same id so the
	// authority can deduplicate them.
	UpdateBalance(ctx context.Context, delta int64, requestID string) error

	// UpdateBoost records the boost activation timestamp (epoch millis).
	UpdateBoost(ctx context.Context, lastBoostRun int64) error

	// UpdateAbility asks the authority to level up an ability, charging
	// the price server-side. Returns the confirmed post-purchase state.
	UpdateAbility(ctx context.Context, ability string) (UpgradeResult, error)

	// ClaimReferralReward claims the reward for a referred user.
	ClaimReferralReward(ctx context.Context, referredUserID int64) (ClaimResult, error)
}
