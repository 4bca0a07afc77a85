// Package boost runs the timed score multipliers: activation with a
// shared cooldown, the auto-click loop while a boost is live, and the
// once-per-second cooldown countdown.
package boost

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/tapcraft/clickercore/internal/clock"
	"github.com/tapcraft/clickercore/internal/remote"
)

// Tier identifies one boost product.
type Tier int

const (
	TierTiny Tier = iota
	TierNormal
	TierMega
)

// Multiplier returns the score multiplier the tier applies.
func (t Tier) Multiplier() int {
	switch t {
	case TierTiny:
		return 5
	case TierNormal:
		return 10
	case TierMega:
		return 20
	default:
		panic(fmt.Sprintf("boost: unknown tier %d", t))
	}
}

// Duration returns how long the tier stays active.
func (t Tier) Duration() time.Duration {
	switch t {
	case TierTiny:
		return 15 * time.Second
	case TierNormal:
		return 30 * time.Second
	case TierMega:
		return 60 * time.Second
	default:
		panic(fmt.Sprintf("boost: unknown tier %d", t))
	}
}

// Interval returns the auto-click period of the tier.
func (t Tier) Interval() time.Duration {
	switch t {
	case TierTiny, TierNormal:
		return time.Second
	case TierMega:
		return 500 * time.Millisecond
	default:
		panic(fmt.Sprintf("boost: unknown tier %d", t))
	}
}

func (t Tier) String() string {
	switch t {
	case TierTiny:
		return "tiny"
	case TierNormal:
		return "normal"
	case TierMega:
		return "mega"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

// Clicker resolves one synthetic tap. Satisfied by the click resolver.
type Clicker interface {
	HandleClick(x, y float64) bool
}

// EnergyPool refills the energy pool to capacity. Satisfied by the
// energy meter.
type EnergyPool interface {
	Refill()
}

// Config tunes the engine.
type Config struct {
	Cooldown      time.Duration // shared across tiers, anchored to activation
	CountdownTick time.Duration
	CallTimeout   time.Duration
	FieldWidth    int // synthetic tap area for auto-clicks
	FieldHeight   int
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		Cooldown:      6 * time.Hour,
		CountdownTick: time.Second,
		CallTimeout:   10 * time.Second,
		FieldWidth:    360,
		FieldHeight:   640,
	}
}

// Engine owns boost activation state. All tiers share one cooldown, so
// at most one boost is ever active.
type Engine struct {
	cfg     Config
	sched   *clock.Scheduler
	pool    EnergyPool
	clicker Clicker
	client  remote.Client
	log     *slog.Logger
	notify  func()

	duration  *clock.Timer
	interval  *clock.Ticker
	countdown *clock.Ticker

	mu      sync.Mutex
	active  bool
	tier    Tier
	lastRun time.Time // zero when the user never boosted
	randFn  func(n int) int
}

// New wires the engine. notify may be nil.
func New(cfg Config, sched *clock.Scheduler, pool EnergyPool, clicker Clicker, client remote.Client, log *slog.Logger, notify func()) *Engine {
	return &Engine{
		cfg:       cfg,
		sched:     sched,
		pool:      pool,
		clicker:   clicker,
		client:    client,
		log:       log,
		notify:    notify,
		duration:  sched.NewTimer(),
		interval:  sched.NewTicker(),
		countdown: sched.NewTicker(),
		randFn:    rand.IntN,
	}
}

// SetRandSource replaces the tier/position randomness. Test hook.
func (e *Engine) SetRandSource(fn func(n int) int) {
	e.mu.Lock()
	e.randFn = fn
	e.mu.Unlock()
}

// Multiplier returns the active boost multiplier, 1 when idle. The
// click resolver reads this on every accepted tap.
func (e *Engine) Multiplier() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.active {
		return 1
	}

	return e.tier.Multiplier()
}

// Active returns the running tier, if any.
func (e *Engine) Active() (Tier, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.tier, e.active
}

// SetInitialData seeds the last activation timestamp from the
// authority (epoch milliseconds, 0 for never) and resumes the cooldown
// countdown if one is still running.
func (e *Engine) SetInitialData(lastRunMillis int64) {
	if lastRunMillis <= 0 {
		return
	}

	e.mu.Lock()
	e.lastRun = time.UnixMilli(lastRunMillis)
	e.mu.Unlock()

	if e.CooldownRemaining() > 0 {
		e.startCountdown()
	}
}

// UseDaily activates a uniformly random tier.
func (e *Engine) UseDaily(ctx context.Context) bool {
	e.mu.Lock()
	tier := Tier(e.randFn(3))
	e.mu.Unlock()

	return e.Start(ctx, tier)
}

// Start activates a boost: refills energy, arms the expiry timer and
// the auto-click loop, and reports the activation best-effort. It is a
// no-op while the shared cooldown is running, which also makes boosts
// mutually exclusive.
func (e *Engine) Start(ctx context.Context, tier Tier) bool {
	now := e.sched.Now()

	e.mu.Lock()
	if !e.lastRun.IsZero() && now.Sub(e.lastRun) < e.cfg.Cooldown {
		e.mu.Unlock()

		return false
	}

	e.active = true
	e.tier = tier
	e.lastRun = now
	e.mu.Unlock()

	// A restart replaces whatever was scheduled before.
	e.duration.Start(tier.Duration(), e.Stop)
	e.interval.Start(tier.Interval(), e.autoClick)
	e.startCountdown()

	e.pool.Refill()
	e.reportActivation(ctx, now)
	e.notifyChanged()

	e.log.Info("boost started", "tier", tier.String(), "multiplier", tier.Multiplier())

	return true
}

// Stop deactivates the running boost. The activation timestamp stays,
// so the cooldown keeps counting from the original Start.
func (e *Engine) Stop() {
	e.mu.Lock()
	wasActive := e.active
	e.active = false
	e.mu.Unlock()

	e.duration.Stop()
	e.interval.Stop()

	if wasActive {
		e.log.Info("boost ended")
		e.notifyChanged()
	}
}

// CooldownRemaining returns how long until the next boost may start.
func (e *Engine) CooldownRemaining() time.Duration {
	now := e.sched.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.lastRun.IsZero() {
		return 0
	}

	rest := e.cfg.Cooldown - now.Sub(e.lastRun)
	if rest < 0 {
		return 0
	}

	return rest
}

// CountdownRunning reports whether the once-per-second cooldown
// ticker is armed. It disarms itself on the first tick at zero.
func (e *Engine) CountdownRunning() bool {
	return e.countdown.Active()
}

// CountdownLabel renders the remaining cooldown as "MM:SS". Empty when
// no cooldown is running.
func (e *Engine) CountdownLabel() string {
	rest := e.CooldownRemaining()
	if rest == 0 {
		return ""
	}

	secs := int((rest + time.Second - 1) / time.Second)

	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// Close cancels every timer the engine owns.
func (e *Engine) Close() {
	e.duration.Stop()
	e.interval.Stop()
	e.countdown.Stop()
}

// autoClick is one interval tick: top up energy, then drive the
// resolver at a synthetic position so the tap credits through the
// normal path with the boost multiplier applied.
func (e *Engine) autoClick() {
	e.mu.Lock()
	x := float64(e.randFn(e.cfg.FieldWidth))
	y := float64(e.randFn(e.cfg.FieldHeight))
	e.mu.Unlock()

	e.pool.Refill()
	e.clicker.HandleClick(x, y)
}

// startCountdown (re)arms the once-per-second cooldown ticker. It
// stops itself when the cooldown hits zero.
func (e *Engine) startCountdown() {
	e.countdown.Start(e.cfg.CountdownTick, func() {
		if e.CooldownRemaining() == 0 {
			e.countdown.Stop()
		}

		e.notifyChanged()
	})
}

func (e *Engine) reportActivation(ctx context.Context, at time.Time) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.CallTimeout)
	defer cancel()

	if err := e.client.UpdateBoost(ctx, at.UnixMilli()); err != nil {
		e.log.Warn("boost activation sync failed", "error", err)
	}
}

func (e *Engine) notifyChanged() {
	if e.notify != nil {
		e.notify()
	}
}
