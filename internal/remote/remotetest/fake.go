// Package remotetest provides a recording in-memory fake of the
// remote.Client contract for tests.
package remotetest

import (
	"context"
	"sync"

	"github.com/tapcraft/clickercore/internal/remote"
)

// Fake implements remote.Client. Every call is recorded; per-method
// hooks override the default succeed-with-zero-value behavior.
// UpdateEnergy echoes the reported value when no hook is set.
type Fake struct {
	mu sync.Mutex

	FetchUserFn     func(ctx context.Context) (remote.User, error)
	CreateUserFn    func(ctx context.Context, referrerID int64) (remote.User, error)
	UpdateEnergyFn  func(active int64) (float64, error)
	UpdateBalanceFn func(delta int64) error
	UpdateBoostFn   func(lastBoostRun int64) error
	UpdateAbilityFn func(ability string) (remote.UpgradeResult, error)
	ClaimRewardFn   func(referredUserID int64) (remote.ClaimResult, error)

	energyReports  []int64
	balanceDeltas  []int64
	balanceReqIDs  []string
	boostRuns      []int64
	abilityCalls   []string
	lastLoginCalls int
}

func (f *Fake) FetchUser(ctx context.Context) (remote.User, error) {
	f.mu.Lock()
	fn := f.FetchUserFn
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}

	return remote.User{}, nil
}

func (f *Fake) CreateUser(ctx context.Context, referrerID int64) (remote.User, error) {
	f.mu.Lock()
	fn := f.CreateUserFn
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, referrerID)
	}

	return remote.User{}, nil
}

func (f *Fake) UpdateLastLogin(context.Context) error {
	f.mu.Lock()
	f.lastLoginCalls++
	f.mu.Unlock()

	return nil
}

func (f *Fake) UpdateEnergy(_ context.Context, active int64) (float64, error) {
	f.mu.Lock()
	f.energyReports = append(f.energyReports, active)
	fn := f.UpdateEnergyFn
	f.mu.Unlock()

	if fn != nil {
		return fn(active)
	}

	return float64(active), nil
}

func (f *Fake) UpdateBalance(_ context.Context, delta int64, requestID string) error {
	f.mu.Lock()
	f.balanceReqIDs = append(f.balanceReqIDs, requestID)
	fn := f.UpdateBalanceFn
	f.mu.Unlock()

	if fn != nil {
		err := fn(delta)
		if err != nil {
			return err
		}
	}

	f.mu.Lock()
	f.balanceDeltas = append(f.balanceDeltas, delta)
	f.mu.Unlock()

	return nil
}

func (f *Fake) UpdateBoost(_ context.Context, lastBoostRun int64) error {
	f.mu.Lock()
	fn := f.UpdateBoostFn
	f.mu.Unlock()

	if fn != nil {
		err := fn(lastBoostRun)
		if err != nil {
			return err
		}
	}

	f.mu.Lock()
	f.boostRuns = append(f.boostRuns, lastBoostRun)
	f.mu.Unlock()

	return nil
}

func (f *Fake) UpdateAbility(_ context.Context, ability string) (remote.UpgradeResult, error) {
	f.mu.Lock()
	f.abilityCalls = append(f.abilityCalls, ability)
	fn := f.UpdateAbilityFn
	f.mu.Unlock()

	if fn != nil {
		return fn(ability)
	}

	return remote.UpgradeResult{}, nil
}

func (f *Fake) ClaimReferralReward(_ context.Context, referredUserID int64) (remote.ClaimResult, error) {
	f.mu.Lock()
	fn := f.ClaimRewardFn
	f.mu.Unlock()

	if fn != nil {
		return fn(referredUserID)
	}

	return remote.ClaimResult{}, nil
}

// EnergyReports returns the values posted via UpdateEnergy.
func (f *Fake) EnergyReports() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]int64(nil), f.energyReports...)
}

// BalanceDeltas returns the deltas confirmed via UpdateBalance.
func (f *Fake) BalanceDeltas() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]int64(nil), f.balanceDeltas...)
}

// BalanceRequestIDs returns the request id of every UpdateBalance
// attempt, failed ones included.
func (f *Fake) BalanceRequestIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.balanceReqIDs...)
}

// BoostRuns returns the timestamps posted via UpdateBoost.
func (f *Fake) BoostRuns() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]int64(nil), f.boostRuns...)
}

// AbilityCalls returns the abilities requested via UpdateAbility.
func (f *Fake) AbilityCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.abilityCalls...)
}

// LastLoginCalls returns how many times UpdateLastLogin was called.
func (f *Fake) LastLoginCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.lastLoginCalls
}
