// Package session is the composition root of the economy engine: it
// wires the subsystems together, bootstraps them from the authority,
// and tears everything down in reverse order on close.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tapcraft/clickercore/internal/clock"
	"github.com/tapcraft/clickercore/internal/config"
	"github.com/tapcraft/clickercore/internal/game/balance"
	"github.com/tapcraft/clickercore/internal/game/boost"
	"github.com/tapcraft/clickercore/internal/game/clicks"
	"github.com/tapcraft/clickercore/internal/game/energy"
	"github.com/tapcraft/clickercore/internal/game/upgrades"
	"github.com/tapcraft/clickercore/internal/host"
	"github.com/tapcraft/clickercore/internal/remote"
	"github.com/tapcraft/clickercore/pkg/shutdownqueue"
)

// Config tunes the session itself; subsystem tuning comes separately.
type Config struct {
	CallTimeout time.Duration
	ReferrerID  int64 // credited when the user is created, 0 for none
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{CallTimeout: 10 * time.Second}
}

// Session owns one player's economy engine instance.
type Session struct {
	cfg    Config
	client remote.Client
	bridge host.Bridge
	log    *slog.Logger

	meter    *energy.Meter
	ledger   *balance.Ledger
	resolver *clicks.Resolver
	boost    *boost.Engine
	upgrades *upgrades.Manager

	queue *shutdownqueue.Queue
	user  remote.User
}

// New builds the full subsystem graph. notify, when non-nil, fires on
// every observable state change of any subsystem.
func New(cfg Config, tuning config.Tuning, sched *clock.Scheduler, client remote.Client, bridge host.Bridge, log *slog.Logger, notify func()) *Session {
	s := &Session{
		cfg:    cfg,
		client: client,
		bridge: bridge,
		log:    log,
		queue:  shutdownqueue.New(),
	}

	s.meter = energy.New(tuning.Energy, sched, client, log, notify)
	s.ledger = balance.New(tuning.Balance, sched, client, bridge, log, notify)
	s.resolver = clicks.New(tuning.Clicks, sched, s.meter, s.ledger, bridge, log, notify)
	s.boost = boost.New(tuning.Boost, sched, s.meter, s.resolver, client, log, notify)
	s.resolver.SetMultiplierSource(s.boost.Multiplier)
	s.upgrades = upgrades.New(tuning.Upgrades, s.ledger, s.meter, s.resolver, client, bridge, log, notify)

	s.queue.Add(func(context.Context) error {
		s.meter.Close()

		return nil
	})
	s.queue.Add(func(context.Context) error {
		// Flushes any unsynced score before the meter goes away.
		s.ledger.Close()

		return nil
	})
	s.queue.Add(func(context.Context) error {
		s.resolver.Close()

		return nil
	})
	s.queue.Add(func(context.Context) error {
		s.boost.Close()

		return nil
	})

	return s
}

// Start bootstraps the session: loads (or creates) the user, seeds
// every subsystem with the authoritative state, and starts the regen
// and sync loops. The last-login report is best-effort.
func (s *Session) Start(ctx context.Context) error {
	user, err := s.fetchOrCreateUser(ctx)
	if err != nil {
		if errors.Is(err, remote.ErrUnauthorized) {
			s.bridge.Close()
		}

		return fmt.Errorf("bootstrap session: %w", err)
	}

	s.user = user

	s.ledger.Set(user.Balance)
	s.resolver.ApplyAbilities(user.Abilities)
	s.meter.SetAvailable(user.ActiveEnergy)
	s.boost.SetInitialData(user.LastBoostRun)

	s.meter.Start(ctx)
	s.ledger.Start(ctx)

	s.reportLastLogin(ctx)

	s.log.Info("session started",
		"user", user.ID,
		"balance", user.Balance,
		"energy", user.ActiveEnergy,
		"click_level", user.Abilities.ClickLevel)

	return nil
}

// Close drains every subsystem in reverse construction order.
func (s *Session) Close(ctx context.Context) error {
	return s.queue.Shutdown(ctx)
}

// User returns the state loaded at bootstrap. Live values should be
// read from the subsystems, not from here.
func (s *Session) User() remote.User { return s.user }

// Meter returns the energy subsystem.
func (s *Session) Meter() *energy.Meter { return s.meter }

// Ledger returns the balance subsystem.
func (s *Session) Ledger() *balance.Ledger { return s.ledger }

// Clicks returns the click resolution engine.
func (s *Session) Clicks() *clicks.Resolver { return s.resolver }

// Boost returns the boost engine.
func (s *Session) Boost() *boost.Engine { return s.boost }

// Upgrades returns the purchase manager.
func (s *Session) Upgrades() *upgrades.Manager { return s.upgrades }

func (s *Session) fetchOrCreateUser(ctx context.Context) (remote.User, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	user, err := s.client.FetchUser(callCtx)
	if err == nil {
		return user, nil
	}

	if !errors.Is(err, remote.ErrUserNotFound) {
		return remote.User{}, fmt.Errorf("fetch user: %w", err)
	}

	createCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	user, err = s.client.CreateUser(createCtx, s.cfg.ReferrerID)
	if err != nil {
		return remote.User{}, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("user created", "user", user.ID, "referrer", s.cfg.ReferrerID)

	return user, nil
}

func (s *Session) reportLastLogin(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	if err := s.client.UpdateLastLogin(ctx); err != nil {
		s.log.Warn("last-login report failed", "error", err)
	}
}
