// Black-box test of the whole system: the in-memory authority served
// over real HTTP, and a full engine session talking to it through the
// production httpapi client. Time is driven by the mock scheduler so
// every debounce and regen tick is deterministic.
package e2etests

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tapcraft/clickercore/internal/authority"
	"github.com/tapcraft/clickercore/internal/clock"
	"github.com/tapcraft/clickercore/internal/config"
	"github.com/tapcraft/clickercore/internal/game/boost"
	"github.com/tapcraft/clickercore/internal/game/session"
	"github.com/tapcraft/clickercore/internal/host"
	"github.com/tapcraft/clickercore/internal/levels"
	"github.com/tapcraft/clickercore/internal/remote"
	"github.com/tapcraft/clickercore/internal/remote/httpapi"
)

const playerToken = "e2e-player"

func TestE2E_SessionAgainstAuthority(t *testing.T) {
	store := authority.NewStore()
	srv := httptest.NewServer(authority.NewRouter(store))
	defer srv.Close()

	sched, mock := clock.NewMock()
	client := httpapi.New(srv.URL, playerToken)

	sess := session.New(
		session.DefaultConfig(), config.DefaultTuning(), sched,
		client, host.Nop{Identity: playerToken}, slog.Default(), nil)

	defer func() { _ = sess.Close(context.Background()) }()

	ctx := context.Background()

	mustUser := func(t *testing.T) remote.User {
		t.Helper()

		user, err := store.GetUser(playerToken)
		if err != nil {
			t.Fatalf("authority lost the user: %v", err)
		}

		return user
	}

	t.Run("bootstrap_creates_user", func(t *testing.T) {
		if err := sess.Start(ctx); err != nil {
			t.Fatalf("session start: %v", err)
		}

		user := mustUser(t)
		if user.ID != 1 {
			t.Fatalf("created user id: want 1, got %d", user.ID)
		}
		if sess.User().ID != user.ID {
			t.Fatalf("session bootstrapped a different user: %d", sess.User().ID)
		}
		if got := sess.Meter().Available(); got != 1000 {
			t.Fatalf("fresh energy: want 1000, got %v", got)
		}
	})

	t.Run("clicks_flush_to_authority", func(t *testing.T) {
		for i := range 600 {
			// Spread positions so the tap guard never engages.
			if !sess.Clicks().HandleClick(float64(i%30)*12, float64(i/30)*12) {
				t.Fatalf("click %d rejected", i)
			}
		}

		if got := sess.Ledger().Balance(); got != 600 {
			t.Fatalf("local balance: want 600, got %d", got)
		}

		// The balance debounce fires at 500ms.
		mock.Add(500 * time.Millisecond)

		if got := sess.Ledger().Pending(); got != 0 {
			t.Fatalf("pending after flush: want 0, got %d", got)
		}
		if got := mustUser(t).Balance; got != 600 {
			t.Fatalf("authority balance: want 600, got %d", got)
		}
	})

	t.Run("energy_report_carries_regen", func(t *testing.T) {
		// Reach the 2s energy debounce; regen keeps running meanwhile,
		// so the authority must see more than the post-drain 400.
		mock.Add(1500 * time.Millisecond)

		user := mustUser(t)
		if user.ActiveEnergy <= 400 || user.ActiveEnergy > 1000 {
			t.Fatalf("authority energy out of range: %v", user.ActiveEnergy)
		}
		// A regen tick may land on the same instant as the sync, so the
		// engine can be at most one tick ahead of the reported value.
		if got := sess.Meter().Available(); got < user.ActiveEnergy || got > user.ActiveEnergy+1 {
			t.Fatalf("engine and authority disagree on energy: %v vs %v",
				got, user.ActiveEnergy)
		}
	})

	t.Run("upgrade_roundtrip", func(t *testing.T) {
		if err := sess.Upgrades().Purchase(ctx, levels.AbilityClick); err != nil {
			t.Fatalf("purchase: %v", err)
		}

		user := mustUser(t)
		if user.Abilities.ClickLevel != 2 {
			t.Fatalf("authority click level: want 2, got %d", user.Abilities.ClickLevel)
		}
		if got := sess.Clicks().ClickLevel(); got != 2 {
			t.Fatalf("engine click level: want 2, got %d", got)
		}
		// 600 earned minus the 500 charge.
		if user.Balance != 100 || sess.Ledger().Balance() != 100 {
			t.Fatalf("post-purchase balance: want 100/100, got %d/%d",
				user.Balance, sess.Ledger().Balance())
		}
	})

	t.Run("referral_claim", func(t *testing.T) {
		friend := httpapi.New(srv.URL, "e2e-friend")

		invited, err := friend.CreateUser(ctx, sess.User().ID)
		if err != nil {
			t.Fatalf("create referred user: %v", err)
		}

		if err := sess.Upgrades().ClaimReferral(ctx, invited.ID); err != nil {
			t.Fatalf("claim referral: %v", err)
		}

		want := int64(100) + authority.ReferralReward
		if got := sess.Ledger().Balance(); got != want {
			t.Fatalf("balance after claim: want %d, got %d", want, got)
		}
		if got := mustUser(t).Balance; got != want {
			t.Fatalf("authority balance after claim: want %d, got %d", want, got)
		}
	})

	t.Run("boost_activation_reported", func(t *testing.T) {
		balanceBefore := sess.Ledger().Balance()

		if !sess.Boost().Start(ctx, boost.TierTiny) {
			t.Fatalf("boost activation failed")
		}

		if got := mustUser(t).LastBoostRun; got != sched.Now().UnixMilli() {
			t.Fatalf("authority boost run: want %d, got %d",
				sched.Now().UnixMilli(), got)
		}
		if got := sess.Meter().Available(); got != sess.Meter().Cap() {
			t.Fatalf("activation must refill energy: %v of %v",
				got, sess.Meter().Cap())
		}

		// One manual tap at x5 and level-2 cost 6 credits 30.
		if !sess.Clicks().HandleClick(10, 10) {
			t.Fatalf("boosted click rejected")
		}

		mock.Add(500 * time.Millisecond) // flush the credit

		want := balanceBefore + 30
		if got := mustUser(t).Balance; got != want {
			t.Fatalf("authority balance after boosted click: want %d, got %d",
				want, got)
		}
	})
}
