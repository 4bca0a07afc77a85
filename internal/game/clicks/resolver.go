// Package clicks is the click resolution engine: it decides whether a
// tap may be resolved, converts energy into points through the current
// boost multiplier, keeps the ephemeral click-message list for the
// presentation layer, and runs the tap guard heuristic.
package clicks

import (
	"log/slog"
	"sync"
	"time"

	"github.com/tapcraft/clickercore/internal/clock"
	"github.com/tapcraft/clickercore/internal/game/balance"
	"github.com/tapcraft/clickercore/internal/game/energy"
	"github.com/tapcraft/clickercore/internal/host"
	"github.com/tapcraft/clickercore/internal/levels"
	"github.com/tapcraft/clickercore/internal/remote"
)

// Config tunes the resolver.
type Config struct {
	MessageLifetime time.Duration // how long a click message stays visible
	ScalePulse      time.Duration // duration of the icon scale pulse
	Guard           GuardConfig
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		MessageLifetime: 500 * time.Millisecond,
		ScalePulse:      100 * time.Millisecond,
		Guard:           DefaultGuardConfig(),
	}
}

// Message is one ephemeral "+N" marker at the tap position. It is a
// value type owned by the resolver and dropped once RemoveAt passes.
type Message struct {
	ID       int64
	X, Y     float64
	RemoveAt time.Time
}

// Resolver is the click resolution engine.
type Resolver struct {
	cfg    Config
	sched  *clock.Scheduler
	meter  *energy.Meter
	ledger *balance.Ledger
	bridge host.Bridge
	log    *slog.Logger
	notify func()

	scale  *clock.Timer
	expiry *clock.Timer

	mu         sync.Mutex
	clickLevel int
	nextID     int64
	msgs       []Message
	scaled     bool
	guard      guardState
	multiplier func() int
}

// New wires the resolver to its collaborators. The boost multiplier
// source is attached later via SetMultiplierSource because the boost
// engine is constructed after the resolver. notify may be nil.
func New(cfg Config, sched *clock.Scheduler, meter *energy.Meter, ledger *balance.Ledger, bridge host.Bridge, log *slog.Logger, notify func()) *Resolver {
	r := &Resolver{
		cfg:        cfg,
		sched:      sched,
		meter:      meter,
		ledger:     ledger,
		bridge:     bridge,
		log:        log,
		notify:     notify,
		scale:      sched.NewTimer(),
		expiry:     sched.NewTimer(),
		clickLevel: levels.ClickLevelMin,
	}
	meter.SetClickCost(float64(levels.ClickCost(r.clickLevel)))

	return r
}

// SetMultiplierSource attaches the current-multiplier getter, normally
// the boost engine's Multiplier method.
func (r *Resolver) SetMultiplierSource(fn func() int) {
	r.mu.Lock()
	r.multiplier = fn
	r.mu.Unlock()
}

// ClickLevel returns the current click ability level.
func (r *Resolver) ClickLevel() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.clickLevel
}

// ClickCost returns the energy cost (and base point value) per click.
func (r *Resolver) ClickCost() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return levels.ClickCost(r.clickLevel)
}

// SetClickLevel applies a server-confirmed click level and keeps the
// energy meter's availability gate in step.
func (r *Resolver) SetClickLevel(level int) {
	r.mu.Lock()
	r.clickLevel = level
	cost := levels.ClickCost(level)
	r.mu.Unlock()

	r.meter.SetClickCost(float64(cost))
	r.notifyChanged()
}

// ApplyAbilities applies a full set of server-confirmed ability
// levels: click level here, capacity and regeneration forwarded to the
// energy meter.
func (r *Resolver) ApplyAbilities(a remote.Abilities) {
	r.SetClickLevel(a.ClickLevel)
	r.meter.SetTotalLevel(a.EnergyLevel)
	r.meter.SetRegenLevel(a.RegenLevel)
}

// HandleClick resolves one tap at the given position. It reports
// whether the tap was accepted. Rejection is a normal outcome, not an
// error: either energy cannot cover the cost, or the tap guard is in
// blocking mode and flagged the tap.
func (r *Resolver) HandleClick(x, y float64) bool {
	cost := r.ClickCost()

	if r.meter.Available() < float64(cost) {
		return false
	}

	now := r.sched.Now()

	r.mu.Lock()
	verdict := r.guard.observe(r.cfg.Guard, x, y, now)
	r.mu.Unlock()

	switch verdict {
	case guardFlagged:
		r.log.Warn("tap guard flagged automated clicking",
			"x", x, "y", y, "streak", r.guardStreak())
		r.bridge.ShowAlert("Suspicious clicking detected")

		if r.cfg.Guard.Policy == PolicyBlock {
			return false
		}
	case guardBlocked:
		// Already alerted for this streak; stay quiet.
		if r.cfg.Guard.Policy == PolicyBlock {
			return false
		}
	case guardClean:
	}

	r.meter.Decrement(float64(cost))
	r.ledger.Increment(int64(cost) * int64(r.currentMultiplier()))

	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.msgs = append(r.msgs, Message{ID: id, X: x, Y: y, RemoveAt: now.Add(r.cfg.MessageLifetime)})
	r.scaled = true
	r.mu.Unlock()

	r.expiry.Start(r.cfg.MessageLifetime, r.sweep)
	// Restarting the pulse cancels any in-flight reset.
	r.scale.Start(r.cfg.ScalePulse, func() {
		r.mu.Lock()
		r.scaled = false
		r.mu.Unlock()

		r.notifyChanged()
	})

	r.bridge.HapticFeedback(host.HapticHeavy)
	r.notifyChanged()

	return true
}

// ActiveMessages returns the non-expired click messages. The list is a
// projection filtered on read; expired entries may still sit in the
// backing slice until the next sweep.
func (r *Resolver) ActiveMessages() []Message {
	now := r.sched.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Message, 0, len(r.msgs))
	for _, m := range r.msgs {
		if m.RemoveAt.After(now) {
			out = append(out, m)
		}
	}

	return out
}

// IsScaled reports whether the icon scale pulse is active.
func (r *Resolver) IsScaled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.scaled
}

// Close cancels the resolver's timers.
func (r *Resolver) Close() {
	r.scale.Stop()
	r.expiry.Stop()
}

// sweep drops expired messages from the backing slice and re-arms
// itself while any remain.
func (r *Resolver) sweep() {
	now := r.sched.Now()

	r.mu.Lock()

	kept := r.msgs[:0]

	var next time.Time

	for _, m := range r.msgs {
		if !m.RemoveAt.After(now) {
			continue
		}

		kept = append(kept, m)
		if next.IsZero() || m.RemoveAt.Before(next) {
			next = m.RemoveAt
		}
	}

	r.msgs = kept
	r.mu.Unlock()

	if !next.IsZero() {
		r.expiry.Start(next.Sub(now), r.sweep)
	}

	r.notifyChanged()
}

func (r *Resolver) currentMultiplier() int {
	r.mu.Lock()
	fn := r.multiplier
	r.mu.Unlock()

	if fn == nil {
		return 1
	}

	return fn()
}

func (r *Resolver) guardStreak() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.guard.streak
}

func (r *Resolver) notifyChanged() {
	if r.notify != nil {
		r.notify()
	}
}
