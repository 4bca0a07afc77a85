package boost

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/tapcraft/clickercore/internal/clock"
	"github.com/tapcraft/clickercore/internal/remote/remotetest"
)

type fakePool struct {
	mu      sync.Mutex
	refills int
}

func (p *fakePool) Refill() {
	p.mu.Lock()
	p.refills++
	p.mu.Unlock()
}

func (p *fakePool) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.refills
}

type fakeClicker struct {
	mu     sync.Mutex
	clicks int
}

func (c *fakeClicker) HandleClick(x, y float64) bool {
	c.mu.Lock()
	c.clicks++
	c.mu.Unlock()

	return true
}

func (c *fakeClicker) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.clicks
}

type fixture struct {
	engine  *Engine
	pool    *fakePool
	clicker *fakeClicker
	client  *remotetest.Fake
	advance func(time.Duration)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	sched, mock := clock.NewMock()
	// The mock clock starts at the Unix epoch; move well past it so
	// "some time ago" timestamps stay positive epoch millis.
	mock.Add(240 * time.Hour)

	pool := &fakePool{}
	clicker := &fakeClicker{}
	client := &remotetest.Fake{}

	e := New(DefaultConfig(), sched, pool, clicker, client, slog.Default(), nil)
	t.Cleanup(e.Close)

	return &fixture{
		engine:  e,
		pool:    pool,
		clicker: clicker,
		client:  client,
		advance: func(d time.Duration) { mock.Add(d) },
	}
}

func TestEngine_MultiplierFollowsActivation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	if got := f.engine.Multiplier(); got != 1 {
		t.Fatalf("idle multiplier: want 1, got %d", got)
	}

	if !f.engine.Start(context.Background(), TierNormal) {
		t.Fatalf("first activation must succeed")
	}
	if got := f.engine.Multiplier(); got != 10 {
		t.Fatalf("normal multiplier: want 10, got %d", got)
	}

	f.engine.Stop()

	if got := f.engine.Multiplier(); got != 1 {
		t.Fatalf("multiplier after stop: want 1, got %d", got)
	}
}

func TestEngine_StartRefillsEnergyAndReports(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	f.engine.Start(context.Background(), TierTiny)

	if got := f.pool.count(); got != 1 {
		t.Fatalf("activation must refill once, got %d", got)
	}
	if got := len(f.client.BoostRuns()); got != 1 {
		t.Fatalf("activation must be reported once, got %d calls", got)
	}
}

func TestEngine_SecondStartBlockedWhileActive(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	f.engine.Start(context.Background(), TierTiny)

	if f.engine.Start(context.Background(), TierMega) {
		t.Fatalf("second activation must be rejected while one runs")
	}
	if got := f.engine.Multiplier(); got != 5 {
		t.Fatalf("running tier must be untouched: want 5, got %d", got)
	}
	if got := len(f.client.BoostRuns()); got != 1 {
		t.Fatalf("rejected start must not be reported, got %d calls", got)
	}
}

func TestEngine_AutoClickLoopAndExpiry(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	f.engine.Start(context.Background(), TierTiny) // 15s, 1s ticks

	f.advance(14*time.Second + 500*time.Millisecond)

	if got := f.clicker.count(); got != 14 {
		t.Fatalf("auto-clicks at 14.5s: want 14, got %d", got)
	}
	// Activation plus one refill per tick.
	if got := f.pool.count(); got != 15 {
		t.Fatalf("refills at 14.5s: want 15, got %d", got)
	}

	f.advance(time.Second)

	if _, active := f.engine.Active(); active {
		t.Fatalf("boost must expire after its duration")
	}
	if got := f.engine.Multiplier(); got != 1 {
		t.Fatalf("multiplier after expiry: want 1, got %d", got)
	}

	// The tick scheduled exactly at expiry may land on either side of
	// the stop; after that the loop must be silent.
	settled := f.clicker.count()
	if settled != 14 && settled != 15 {
		t.Fatalf("auto-clicks after expiry: want 14 or 15, got %d", settled)
	}

	f.advance(10 * time.Second)

	if got := f.clicker.count(); got != settled {
		t.Fatalf("auto-click loop kept running after expiry: %d -> %d", settled, got)
	}
}

func TestEngine_MegaTickRate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	f.engine.Start(context.Background(), TierMega) // 60s, 500ms ticks

	f.advance(10*time.Second + 250*time.Millisecond)

	if got := f.clicker.count(); got != 20 {
		t.Fatalf("mega auto-clicks at 10.25s: want 20, got %d", got)
	}
}

func TestEngine_CooldownGatesRestart(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	f.engine.Start(ctx, TierTiny)
	f.advance(time.Hour)

	if f.engine.Start(ctx, TierNormal) {
		t.Fatalf("activation inside the cooldown must be a no-op")
	}
	if got, want := f.engine.CooldownRemaining(), 5*time.Hour; got != want {
		t.Fatalf("cooldown remaining: want %v, got %v", want, got)
	}

	f.advance(5 * time.Hour)

	if got := f.engine.CooldownRemaining(); got != 0 {
		t.Fatalf("cooldown must reach zero, got %v", got)
	}
	if !f.engine.Start(ctx, TierNormal) {
		t.Fatalf("activation after the cooldown must succeed")
	}
}

func TestEngine_CountdownStopsAtZero(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	f.engine.Start(context.Background(), TierTiny)

	if !f.engine.CountdownRunning() {
		t.Fatalf("countdown must run while the cooldown counts")
	}

	f.advance(6 * time.Hour)

	if got := f.engine.CooldownRemaining(); got != 0 {
		t.Fatalf("cooldown must reach zero, got %v", got)
	}
	// Once the cooldown has elapsed the ticker disarms itself; no
	// further once-per-second ticks stay scheduled.
	if f.engine.CountdownRunning() {
		t.Fatalf("countdown ticker still armed after the cooldown ended")
	}
}

func TestEngine_StopKeepsCooldownAnchor(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	f.engine.Start(context.Background(), TierTiny)
	f.advance(5 * time.Second)
	f.engine.Stop()

	// Stopping early does not shorten or restart the cooldown.
	if got, want := f.engine.CooldownRemaining(), 6*time.Hour-5*time.Second; got != want {
		t.Fatalf("cooldown remaining after early stop: want %v, got %v", want, got)
	}
}

func TestEngine_CountdownLabel(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	if got := f.engine.CountdownLabel(); got != "" {
		t.Fatalf("label with no cooldown: want empty, got %q", got)
	}

	f.engine.Start(context.Background(), TierTiny)

	if got := f.engine.CountdownLabel(); got != "360:00" {
		t.Fatalf("label at activation: want 360:00, got %q", got)
	}

	f.advance(time.Second)

	if got := f.engine.CountdownLabel(); got != "359:59" {
		t.Fatalf("label one second in: want 359:59, got %q", got)
	}
}

func TestEngine_SetInitialDataResumesCooldown(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	lastRun := f.engine.sched.Now().Add(-time.Hour)
	f.engine.SetInitialData(lastRun.UnixMilli())

	if got, want := f.engine.CooldownRemaining(), 5*time.Hour; got != want {
		t.Fatalf("resumed cooldown: want %v, got %v", want, got)
	}
	if f.engine.Start(context.Background(), TierTiny) {
		t.Fatalf("activation inside a resumed cooldown must be a no-op")
	}
}

func TestEngine_SetInitialDataZeroMeansNeverBoosted(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	f.engine.SetInitialData(0)

	if got := f.engine.CooldownRemaining(); got != 0 {
		t.Fatalf("never boosted: want zero cooldown, got %v", got)
	}
}

func TestEngine_UseDailyPicksRandomTier(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.engine.SetRandSource(func(int) int { return 2 })

	if !f.engine.UseDaily(context.Background()) {
		t.Fatalf("daily boost must activate off cooldown")
	}

	tier, active := f.engine.Active()
	if !active || tier != TierMega {
		t.Fatalf("want mega active, got %v active=%v", tier, active)
	}
}
