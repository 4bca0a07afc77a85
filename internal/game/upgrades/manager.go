// Package upgrades runs the ability purchase and referral reward
// flows. The authority owns the charge; this package only prechecks
// affordability, posts the intent, and adopts the confirmed state.
package upgrades

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tapcraft/clickercore/internal/game/balance"
	"github.com/tapcraft/clickercore/internal/game/clicks"
	"github.com/tapcraft/clickercore/internal/game/energy"
	"github.com/tapcraft/clickercore/internal/host"
	"github.com/tapcraft/clickercore/internal/levels"
	"github.com/tapcraft/clickercore/internal/remote"
)

var (
	// ErrMaxLevel means the ability is already at its level cap.
	ErrMaxLevel = errors.New("ability at max level")

	// ErrInsufficientFunds means the local balance cannot cover the
	// next level's price.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Offer describes the next purchasable step of one ability.
type Offer struct {
	Ability levels.Ability
	Level   int   // current level
	Next    int   // level the purchase would reach, 0 when maxed
	Price   int64 // 0 when maxed
	Maxed   bool
}

// Config tunes the manager.
type Config struct {
	CallTimeout time.Duration
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{CallTimeout: 10 * time.Second}
}

// Manager coordinates purchases across the economy subsystems.
type Manager struct {
	cfg      Config
	ledger   *balance.Ledger
	meter    *energy.Meter
	resolver *clicks.Resolver
	client   remote.Client
	bridge   host.Bridge
	log      *slog.Logger
	notify   func()
}

// New wires the manager. notify may be nil.
func New(cfg Config, ledger *balance.Ledger, meter *energy.Meter, resolver *clicks.Resolver, client remote.Client, bridge host.Bridge, log *slog.Logger, notify func()) *Manager {
	return &Manager{
		cfg:      cfg,
		ledger:   ledger,
		meter:    meter,
		resolver: resolver,
		client:   client,
		bridge:   bridge,
		log:      log,
		notify:   notify,
	}
}

// Level returns the current level of the given ability.
func (m *Manager) Level(ability levels.Ability) int {
	switch ability {
	case levels.AbilityClick:
		return m.resolver.ClickLevel()
	case levels.AbilityEnergy:
		return m.meter.TotalLevel()
	case levels.AbilityRegen:
		return m.meter.RegenLevel()
	default:
		panic("upgrades: unknown ability " + string(ability))
	}
}

// Offer returns the next purchasable step for one ability.
func (m *Manager) Offer(ability levels.Ability) Offer {
	level := m.Level(ability)

	price, ok := levels.UpgradePrice(ability, level+1)
	if !ok {
		return Offer{Ability: ability, Level: level, Maxed: true}
	}

	return Offer{Ability: ability, Level: level, Next: level + 1, Price: price}
}

// Catalog returns the current offer for every ability.
func (m *Manager) Catalog() []Offer {
	return []Offer{
		m.Offer(levels.AbilityClick),
		m.Offer(levels.AbilityEnergy),
		m.Offer(levels.AbilityRegen),
	}
}

// Purchase levels up one ability. Pending balance is flushed first so
// the authority charges against the full score. On success the
// confirmed balance, ability levels and energy overwrite local state.
// A rejection leaves local state unchanged and surfaces a host alert;
// an unauthorized session closes the host app.
func (m *Manager) Purchase(ctx context.Context, ability levels.Ability) error {
	offer := m.Offer(ability)
	if offer.Maxed {
		return fmt.Errorf("purchase %s: %w", ability, ErrMaxLevel)
	}

	if m.ledger.Balance() < offer.Price {
		return fmt.Errorf("purchase %s: %w", ability, ErrInsufficientFunds)
	}

	m.ledger.Flush()

	ctx, cancel := context.WithTimeout(ctx, m.cfg.CallTimeout)
	defer cancel()

	res, err := m.client.UpdateAbility(ctx, string(ability))
	if err != nil {
		return m.purchaseFailed(ability, err)
	}

	m.ledger.Set(res.Balance)
	m.resolver.ApplyAbilities(res.Abilities)
	m.meter.SetAvailable(res.ActiveEnergy)
	m.notifyChanged()

	m.log.Info("ability upgraded",
		"ability", string(ability), "level", offer.Next, "balance", res.Balance)

	return nil
}

// ClaimReferral claims the reward for one referred user and adopts the
// authoritative balance.
func (m *Manager) ClaimReferral(ctx context.Context, referredUserID int64) error {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.CallTimeout)
	defer cancel()

	res, err := m.client.ClaimReferralReward(ctx, referredUserID)
	if err != nil {
		if errors.Is(err, remote.ErrUnauthorized) {
			m.bridge.Close()
		}

		return fmt.Errorf("claim referral reward: %w", err)
	}

	m.ledger.Set(res.Balance)
	m.notifyChanged()

	return nil
}

func (m *Manager) purchaseFailed(ability levels.Ability, err error) error {
	switch {
	case errors.Is(err, remote.ErrUnauthorized):
		m.bridge.Close()
	case errors.Is(err, remote.ErrRejected):
		m.bridge.ShowAlert("Upgrade declined: not enough points")
	default:
		m.log.Warn("ability upgrade failed", "ability", string(ability), "error", err)
	}

	return fmt.Errorf("purchase %s: %w", ability, err)
}

func (m *Manager) notifyChanged() {
	if m.notify != nil {
		m.notify()
	}
}
