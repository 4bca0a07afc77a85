// Package clock wraps a mockable time source behind the small surface
// the engine needs: reading the current time and owning delayed or
// repeating callbacks. Every timer in the engine lives in a Timer or
// Ticker owner, which guarantees at most one live callback per logical
// concern and makes cancel-before-restart structural instead of a
// convention each call site has to remember.
package clock

import (
	"time"

	bclock "github.com/benbjohnson/clock"
)

// Scheduler issues timers and reports the current time. It is a thin
// facade over a benbjohnson/clock source so tests can drive the whole
// engine off a mock.
type Scheduler struct {
	clk bclock.Clock
}

// NewScheduler wraps the given clock source.
func NewScheduler(clk bclock.Clock) *Scheduler {
	return &Scheduler{clk: clk}
}

// System returns a scheduler backed by the real wall clock.
func System() *Scheduler {
	return NewScheduler(bclock.New())
}

// NewMock returns a scheduler backed by a mock clock, plus the mock
// itself so tests can advance time deterministically.
func NewMock() (*Scheduler, *bclock.Mock) {
	mock := bclock.NewMock()
	return NewScheduler(mock), mock
}

// Now returns the scheduler's current time.
func (s *Scheduler) Now() time.Time {
	return s.clk.Now()
}

// NewTimer returns an idle one-shot timer owner bound to this
// scheduler.
func (s *Scheduler) NewTimer() *Timer {
	return &Timer{clk: s.clk}
}

// NewTicker returns an idle repeating timer owner bound to this
// scheduler.
func (s *Scheduler) NewTicker() *Ticker {
	return &Ticker{clk: s.clk}
}
