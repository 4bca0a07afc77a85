// Package energy owns the spendable energy pool: clamped debits,
// fixed-tick regeneration, and best-effort synchronization with the
// authority on a debounced schedule with exponential backoff.
package energy

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/tapcraft/clickercore/internal/clock"
	"github.com/tapcraft/clickercore/internal/levels"
	"github.com/tapcraft/clickercore/internal/remote"
)

// Config tunes the meter's timing behavior.
type Config struct {
	RegenInterval time.Duration // fixed regeneration tick
	SyncDebounce  time.Duration // quiet period after a debit before syncing
	SyncBase      time.Duration // periodic sync interval when healthy
	SyncMax       time.Duration // backoff ceiling after failures
	CallTimeout   time.Duration // per sync call
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		RegenInterval: 100 * time.Millisecond,
		SyncDebounce:  2 * time.Second,
		SyncBase:      5 * time.Second,
		SyncMax:       30 * time.Second,
		CallTimeout:   10 * time.Second,
	}
}

// Meter is the energy subsystem. All state is mutated through its
// methods; timers fire on scheduler goroutines and take the same lock.
type Meter struct {
	cfg    Config
	sched  *clock.Scheduler
	client remote.Client
	log    *slog.Logger
	notify func()

	regen    *clock.Ticker
	syncLoop *clock.Timer
	debounce *clock.Timer

	mu           sync.Mutex
	ctx          context.Context
	available    float64
	totalLevel   int
	regenLevel   int
	clickCost    float64
	isAvailable  bool
	lastSynced   float64
	syncInterval time.Duration
	syncing      bool
}

// New returns a meter at level-1 defaults with a full pool. notify may
// be nil; when set it is invoked (without the lock) after every state
// change, for the presentation layer to pick up.
func New(cfg Config, sched *clock.Scheduler, client remote.Client, log *slog.Logger, notify func()) *Meter {
	m := &Meter{
		cfg:          cfg,
		sched:        sched,
		client:       client,
		log:          log,
		notify:       notify,
		regen:        sched.NewTicker(),
		syncLoop:     sched.NewTimer(),
		debounce:     sched.NewTimer(),
		ctx:          context.Background(),
		totalLevel:   levels.EnergyLevelMin,
		regenLevel:   levels.RegenLevelMin,
		clickCost:    float64(levels.ClickCost(levels.ClickLevelMin)),
		syncInterval: cfg.SyncBase,
	}
	m.available = levels.EnergyCap(m.totalLevel)
	m.isAvailable = true
	m.lastSynced = m.available

	return m
}

// Available returns the current spendable energy.
func (m *Meter) Available() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.available
}

// Cap returns the pool size at the current total level.
func (m *Meter) Cap() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return levels.EnergyCap(m.totalLevel)
}

// IsAvailable reports whether the pool covers the current click cost.
func (m *Meter) IsAvailable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.isAvailable
}

// TotalLevel returns the energy capacity ability level.
func (m *Meter) TotalLevel() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.totalLevel
}

// RegenLevel returns the regeneration ability level.
func (m *Meter) RegenLevel() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.regenLevel
}

// SetClickCost tells the meter what a click currently costs, so the
// availability flag stays accurate. The click resolver calls this
// whenever its level changes.
func (m *Meter) SetClickCost(cost float64) {
	m.mu.Lock()
	m.clickCost = cost
	m.refreshAvailabilityLocked()
	m.mu.Unlock()

	m.notifyChanged()
}

// Decrement spends energy, clamping at zero, and schedules a debounced
// sync of the new value.
func (m *Meter) Decrement(amount float64) {
	m.mu.Lock()
	m.available = math.Max(m.available-amount, 0)
	m.refreshAvailabilityLocked()
	m.mu.Unlock()

	m.debounce.Start(m.cfg.SyncDebounce, m.syncWithServer)
	m.notifyChanged()
}

// Refill sets the pool to its cap and marks energy available. The
// boost engine uses this so the auto-click loop is never starved.
func (m *Meter) Refill() {
	m.mu.Lock()
	m.available = levels.EnergyCap(m.totalLevel)
	m.isAvailable = true
	m.mu.Unlock()

	m.debounce.Start(m.cfg.SyncDebounce, m.syncWithServer)
	m.notifyChanged()
}

// SetAvailable applies an authoritative value from the server, clamped
// to the pool bounds. No sync is scheduled: the server already holds
// this value.
func (m *Meter) SetAvailable(v float64) {
	m.mu.Lock()
	m.available = clamp(v, 0, levels.EnergyCap(m.totalLevel))
	m.lastSynced = m.available
	m.refreshAvailabilityLocked()
	m.mu.Unlock()

	m.notifyChanged()
}

// SetTotalLevel applies a server-confirmed capacity level. Raising the
// cap never touches the available value; lowering it (which the
// authority does not do in practice) clamps.
func (m *Meter) SetTotalLevel(level int) {
	m.mu.Lock()
	m.totalLevel = level
	m.available = math.Min(m.available, levels.EnergyCap(level))
	m.refreshAvailabilityLocked()
	m.mu.Unlock()

	m.notifyChanged()
}

// SetRegenLevel applies a server-confirmed regeneration level.
func (m *Meter) SetRegenLevel(level int) {
	m.mu.Lock()
	m.regenLevel = level
	m.mu.Unlock()

	m.notifyChanged()
}

// Start begins the regeneration tick and the periodic sync loop.
// ctx bounds every network call the meter makes from its timers.
func (m *Meter) Start(ctx context.Context) {
	m.mu.Lock()
	if ctx != nil {
		m.ctx = ctx
	}
	m.mu.Unlock()

	m.regen.Start(m.cfg.RegenInterval, m.regenerate)
	m.scheduleSyncLoop()
}

// Close cancels every timer the meter owns.
func (m *Meter) Close() {
	m.regen.Stop()
	m.syncLoop.Stop()
	m.debounce.Stop()
}

// regenerate runs on every regen tick.
func (m *Meter) regenerate() {
	m.mu.Lock()
	m.available = math.Min(m.available+levels.RegenPerTick(m.regenLevel), levels.EnergyCap(m.totalLevel))
	m.refreshAvailabilityLocked()
	m.mu.Unlock()

	m.notifyChanged()
}

// scheduleSyncLoop arms the next periodic sync at the current
// (possibly backed-off) interval. The loop re-arms itself after each
// attempt so interval changes take effect on the next cycle.
func (m *Meter) scheduleSyncLoop() {
	m.mu.Lock()
	interval := m.syncInterval
	m.mu.Unlock()

	m.syncLoop.Start(interval, func() {
		m.syncWithServer()
		m.scheduleSyncLoop()
	})
}

// syncWithServer pushes the current energy to the authority. Skips
// when the pool is full or unchanged since the last confirmed sync.
// Overlapping calls collapse into one in-flight request.
func (m *Meter) syncWithServer() {
	m.mu.Lock()

	capacity := levels.EnergyCap(m.totalLevel)
	if m.available == capacity || m.available == m.lastSynced || m.syncing {
		m.mu.Unlock()
		return
	}

	m.syncing = true
	reportedAt := m.available
	reported := int64(math.Ceil(m.available))
	ctx := m.ctx
	m.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, m.cfg.CallTimeout)
	defer cancel()

	authoritative, err := m.client.UpdateEnergy(callCtx, reported)

	m.mu.Lock()
	m.syncing = false

	if err != nil {
		m.syncInterval = minDuration(m.syncInterval*2, m.cfg.SyncMax)
		next := m.syncInterval
		m.mu.Unlock()

		m.log.Warn("energy sync failed", "error", err, "next_interval", next)
		return
	}

	// Only adopt a correction; an echo of our own report must not roll
	// back regeneration that happened during the round trip.
	if authoritative != float64(reported) {
		m.available = clamp(authoritative, 0, levels.EnergyCap(m.totalLevel))
		m.refreshAvailabilityLocked()
		m.lastSynced = m.available
	} else {
		// Record the value at report time, not the current one: drift
		// accrued during the round trip never reached the server and
		// must go out on the next cycle.
		m.lastSynced = reportedAt
	}

	m.syncInterval = m.cfg.SyncBase
	m.mu.Unlock()

	m.notifyChanged()
}

func (m *Meter) refreshAvailabilityLocked() {
	m.isAvailable = m.available >= m.clickCost
}

func (m *Meter) notifyChanged() {
	if m.notify != nil {
		m.notify()
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
