package clock

import (
	"sync"
	"time"

	bclock "github.com/benbjohnson/clock"
)

// Timer owns at most one pending delayed callback. Starting it again
// cancels the pending callback first, so a restart can never leak a
// stale fire. The zero value is not usable; obtain one from
// Scheduler.NewTimer.
type Timer struct {
	mu  sync.Mutex
	clk bclock.Clock
	t   *bclock.Timer
	gen uint64
}

// Start schedules fn to run once after d, cancelling any pending
// callback. fn runs without the timer's lock held, so it may call
// Start or Stop on the same timer.
func (t *Timer) Start(d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()

	gen := t.gen
	t.t = t.clk.AfterFunc(d, func() {
		t.mu.Lock()
		if t.gen != gen {
			// Stopped or restarted after this fire was dispatched.
			t.mu.Unlock()
			return
		}

		t.t = nil
		t.mu.Unlock()

		fn()
	})
}

// Stop cancels the pending callback, if any. Safe to call when idle.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
}

// Active reports whether a callback is pending.
func (t *Timer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.t != nil
}

func (t *Timer) stopLocked() {
	t.gen++

	if t.t != nil {
		t.t.Stop()
		t.t = nil
	}
}

// Ticker owns at most one repeating callback. It is built on chained
// one-shot timers rather than a channel-consuming goroutine so that a
// mock clock drives ticks synchronously in tests.
type Ticker struct {
	mu  sync.Mutex
	clk bclock.Clock
	t   *bclock.Timer
	gen uint64
}

// Start schedules fn to run every interval, cancelling any previous
// schedule. fn runs without the ticker's lock held; calling Stop from
// inside fn halts the chain.
func (t *Ticker) Start(interval time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.armLocked(t.gen, interval, fn)
}

// Stop cancels the repeating callback, if any. Safe to call when idle.
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
}

// Active reports whether the ticker is running.
func (t *Ticker) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.t != nil
}

func (t *Ticker) armLocked(gen uint64, interval time.Duration, fn func()) {
	t.t = t.clk.AfterFunc(interval, func() {
		t.mu.Lock()
		if t.gen != gen {
			t.mu.Unlock()
			return
		}
		t.mu.Unlock()

		fn()

		t.mu.Lock()
		if t.gen == gen {
			t.armLocked(gen, interval, fn)
		}
		t.mu.Unlock()
	})
}

func (t *Ticker) stopLocked() {
	t.gen++

	if t.t != nil {
		t.t.Stop()
		t.t = nil
	}
}
