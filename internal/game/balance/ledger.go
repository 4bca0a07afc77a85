// Package balance owns the player's point total. Credits are applied
// optimistically and batched into a pending delta that a short
// debounce flushes to the authority; a failed flush keeps the delta so
// no earned points are ever silently lost.
package balance

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tapcraft/clickercore/internal/clock"
	"github.com/tapcraft/clickercore/internal/host"
	"github.com/tapcraft/clickercore/internal/remote"
)

// Config tunes the ledger's sync behavior.
type Config struct {
	SyncDebounce time.Duration
	CallTimeout  time.Duration
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		SyncDebounce: 500 * time.Millisecond,
		CallTimeout:  10 * time.Second,
	}
}

// Ledger is the balance subsystem.
type Ledger struct {
	cfg    Config
	client remote.Client
	bridge host.Bridge
	log    *slog.Logger
	notify func()

	debounce *clock.Timer

	mu        sync.Mutex
	ctx       context.Context
	balance   int64
	pending   int64
	syncing   bool
	epoch     uint64 // bumped by Set so in-flight flushes know it superseded them
	requestID string // identifies the current unflushed delta across retries
}

// New returns an empty ledger. notify may be nil.
func New(cfg Config, sched *clock.Scheduler, client remote.Client, bridge host.Bridge, log *slog.Logger, notify func()) *Ledger {
	return &Ledger{
		cfg:      cfg,
		client:   client,
		bridge:   bridge,
		log:      log,
		notify:   notify,
		debounce: sched.NewTimer(),
		ctx:      context.Background(),
	}
}

// Start binds the context used for sync calls made from timers.
func (l *Ledger) Start(ctx context.Context) {
	l.mu.Lock()
	if ctx != nil {
		l.ctx = ctx
	}
	l.mu.Unlock()
}

// Close cancels the pending debounce and makes one final best-effort
// flush of whatever delta is still unsynced.
func (l *Ledger) Close() {
	l.debounce.Stop()
	l.Flush()
}

// Balance returns the current point total.
func (l *Ledger) Balance() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.balance
}

// Pending returns the locally accumulated, not yet confirmed delta.
func (l *Ledger) Pending() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.pending
}

// Increment credits points optimistically and (re)arms the debounce
// that will flush the accumulated delta.
func (l *Ledger) Increment(amount int64) {
	l.mu.Lock()
	if l.pending == 0 {
		// A new unflushed delta begins; retries of it reuse this id so
		// the authority can drop a repeat whose first attempt landed.
		l.requestID = uuid.NewString()
	}

	l.balance += amount
	l.pending += amount
	l.mu.Unlock()

	// Unsynced points exist now; ask the host to confirm app close.
	l.bridge.EnableClosingConfirmation()
	l.debounce.Start(l.cfg.SyncDebounce, func() { l.Flush() })
	l.notifyChanged()
}

// Set applies an authoritative balance. The server value fully
// replaces local state, so the pending delta is cleared: whatever the
// authority returned already accounts for everything it has seen.
func (l *Ledger) Set(amount int64) {
	l.mu.Lock()
	l.balance = amount
	l.pending = 0
	// Any flush still in flight reported a delta this value already
	// accounts for; the epoch bump stops it from subtracting again.
	l.epoch++
	l.mu.Unlock()

	l.notifyChanged()
}

// Flush sends the pending delta to the authority. A no-op when there
// is nothing pending; at most one flush is in flight at a time, an
// overlapping call returns without sending. On failure the delta stays
// intact and the next debounce resends the whole accumulated amount.
// Returns true when there is nothing left pending afterwards.
func (l *Ledger) Flush() bool {
	l.mu.Lock()

	delta := l.pending
	if delta == 0 {
		l.mu.Unlock()
		return true
	}

	if l.syncing {
		// The in-flight call already carries the delta it read; the
		// debounce picks up whatever it leaves behind.
		l.mu.Unlock()
		return false
	}

	l.syncing = true
	epoch := l.epoch
	requestID := l.requestID
	ctx := l.ctx
	l.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, l.cfg.CallTimeout)
	defer cancel()

	err := l.client.UpdateBalance(callCtx, delta, requestID)

	l.mu.Lock()
	l.syncing = false

	if err != nil {
		l.mu.Unlock()
		l.log.Warn("balance sync failed, delta retained", "error", err, "delta", delta)

		return false
	}

	if epoch == l.epoch {
		// Only subtract what was confirmed; credits that raced in
		// during the round trip stay pending for the next flush. When
		// an authoritative Set landed mid-flight it already absorbed
		// this delta, so nothing is subtracted then.
		if l.pending > delta {
			l.pending -= delta
		} else {
			l.pending = 0
		}

		// The confirmed delta is done; a leftover is a new logical
		// sync and must not be deduplicated against it.
		l.requestID = uuid.NewString()
	}

	rest := l.pending
	l.mu.Unlock()

	if rest == 0 {
		l.bridge.DisableClosingConfirmation()
	}

	l.notifyChanged()

	return rest == 0
}

func (l *Ledger) notifyChanged() {
	if l.notify != nil {
		l.notify()
	}
}
