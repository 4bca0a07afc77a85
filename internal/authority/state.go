// Package authority is a reference in-memory game authority: it keeps
// the canonical user state the engine syncs against and applies the
// same rules a production backend would (funds prechecks, energy
// clamping, idempotent balance deltas).
package authority

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tapcraft/clickercore/internal/levels"
	"github.com/tapcraft/clickercore/internal/remote"
)

var (
	// ErrUnknownUser means no user is registered for the token.
	ErrUnknownUser = errors.New("unknown user")

	// ErrUserExists means create was called for a registered token.
	ErrUserExists = errors.New("user already exists")

	// ErrInsufficientFunds means the balance cannot cover an upgrade.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrMaxLevel means the ability cannot be raised further.
	ErrMaxLevel = errors.New("ability at max level")

	// ErrUnknownAbility means the ability name is not recognized.
	ErrUnknownAbility = errors.New("unknown ability")

	// ErrNoSuchReferral means the referral cannot be claimed.
	ErrNoSuchReferral = errors.New("no claimable referral")
)

// ReferralReward is credited per claimed referral.
const ReferralReward int64 = 2500

// maxTrackedRequests bounds the per-process request-id table. Dedup
// only needs to span a client's short retry window, so the table is
// simply reset once it fills instead of carrying an eviction order.
const maxTrackedRequests = 4096

type userRecord struct {
	user      remote.User
	lastLogin time.Time
}

// Store is the in-memory user table, keyed by the opaque init-data
// token each client authenticates with.
type Store struct {
	mu      sync.Mutex
	users   map[string]*userRecord
	byID    map[int64]*userRecord
	applied map[string]int64 // delta applied per request id, for sync idempotency
	nextID  int64
	now     func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:   make(map[string]*userRecord),
		byID:    make(map[int64]*userRecord),
		applied: make(map[string]int64),
		nextID:  1,
		now:     time.Now,
	}
}

// Seed registers a user for a token as-is. Test and bootstrap helper.
func (s *Store) Seed(token string, user remote.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := &userRecord{user: user}
	s.users[token] = rec
	s.byID[user.ID] = rec

	if user.ID >= s.nextID {
		s.nextID = user.ID + 1
	}
}

// GetUser returns the canonical state for the token.
func (s *Store) GetUser(token string) (remote.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[token]
	if !ok {
		return remote.User{}, ErrUnknownUser
	}

	return rec.user, nil
}

// CreateUser registers a fresh level-1 user for the token. A non-zero
// referrerID records the new user on the referrer's list.
func (s *Store) CreateUser(token string, referrerID int64) (remote.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[token]; ok {
		return remote.User{}, ErrUserExists
	}

	user := remote.User{
		ID: s.nextID,
		Abilities: remote.Abilities{
			ClickLevel:  levels.ClickLevelMin,
			EnergyLevel: levels.EnergyLevelMin,
			RegenLevel:  levels.RegenLevelMin,
		},
		ActiveEnergy: float64(levels.EnergyCap(levels.EnergyLevelMin)),
	}
	s.nextID++

	rec := &userRecord{user: user, lastLogin: s.now()}
	s.users[token] = rec
	s.byID[user.ID] = rec

	if referrerID != 0 {
		if referrer, ok := s.byID[referrerID]; ok {
			referrer.user.Referrals = append(referrer.user.Referrals, remote.Referral{
				UserID: user.ID,
			})
		}
	}

	return user, nil
}

// TouchLastLogin records a session start.
func (s *Store) TouchLastLogin(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[token]
	if !ok {
		return ErrUnknownUser
	}

	rec.lastLogin = s.now()

	return nil
}

// UpdateEnergy stores the reported energy clamped to the user's cap
// and returns the value that now stands.
func (s *Store) UpdateEnergy(token string, reported int64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[token]
	if !ok {
		return 0, ErrUnknownUser
	}

	v := float64(reported)

	capacity := float64(levels.EnergyCap(rec.user.Abilities.EnergyLevel))
	if v < 0 {
		v = 0
	}

	if v > capacity {
		v = capacity
	}

	rec.user.ActiveEnergy = v

	return v, nil
}

// AddBalance applies an earned-points delta. A requestID identifies
// one logical sync across retries: an exact repeat is a no-op, and a
// retry that grew while the first attempt was lost credits only the
// difference. Retried syncs can therefore never double-credit.
func (s *Store) AddBalance(token string, delta int64, requestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[token]
	if !ok {
		return ErrUnknownUser
	}

	if requestID == "" {
		rec.user.Balance += delta
		return nil
	}

	if len(s.applied) >= maxTrackedRequests {
		s.applied = make(map[string]int64)
	}

	if prior := s.applied[requestID]; prior > 0 {
		delta -= prior
	}

	if delta > 0 {
		rec.user.Balance += delta
		s.applied[requestID] += delta
	}

	return nil
}

// SetBoostRun records a boost activation timestamp (epoch millis).
func (s *Store) SetBoostRun(token string, lastBoostRun int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[token]
	if !ok {
		return ErrUnknownUser
	}

	rec.user.LastBoostRun = lastBoostRun

	return nil
}

// UpgradeAbility charges the next level's price and bumps the level.
// The post-purchase balance, levels and energy are returned so the
// client can adopt them verbatim.
func (s *Store) UpgradeAbility(token string, ability string) (remote.UpgradeResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[token]
	if !ok {
		return remote.UpgradeResult{}, ErrUnknownUser
	}

	var level *int

	switch levels.Ability(ability) {
	case levels.AbilityClick:
		level = &rec.user.Abilities.ClickLevel
	case levels.AbilityEnergy:
		level = &rec.user.Abilities.EnergyLevel
	case levels.AbilityRegen:
		level = &rec.user.Abilities.RegenLevel
	default:
		return remote.UpgradeResult{}, fmt.Errorf("%w: %q", ErrUnknownAbility, ability)
	}

	price, ok := levels.UpgradePrice(levels.Ability(ability), *level+1)
	if !ok {
		return remote.UpgradeResult{}, ErrMaxLevel
	}

	// Precheck before mutating anything.
	if rec.user.Balance < price {
		return remote.UpgradeResult{}, ErrInsufficientFunds
	}

	rec.user.Balance -= price
	*level++

	// A bigger pool starts full; other upgrades keep energy as-is.
	if levels.Ability(ability) == levels.AbilityEnergy {
		rec.user.ActiveEnergy = float64(levels.EnergyCap(*level))
	}

	return remote.UpgradeResult{
		Balance:      rec.user.Balance,
		Abilities:    rec.user.Abilities,
		ActiveEnergy: rec.user.ActiveEnergy,
	}, nil
}

// ClaimReferral credits the reward for one referred user and marks the
// referral claimed.
func (s *Store) ClaimReferral(token string, referredUserID int64) (remote.ClaimResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[token]
	if !ok {
		return remote.ClaimResult{}, ErrUnknownUser
	}

	for i := range rec.user.Referrals {
		ref := &rec.user.Referrals[i]
		if ref.UserID != referredUserID || ref.RewardClaimed {
			continue
		}

		ref.RewardClaimed = true
		rec.user.Balance += ReferralReward

		return remote.ClaimResult{
			Balance:   rec.user.Balance,
			Referrals: append([]remote.Referral(nil), rec.user.Referrals...),
		}, nil
	}

	return remote.ClaimResult{}, ErrNoSuchReferral
}
