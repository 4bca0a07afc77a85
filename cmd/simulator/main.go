// The simulator runs a headless engine session against an authority:
// it bootstraps a user, then taps at a steady rate and logs the
// economy state, which makes it a convenient smoke-test client.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tapcraft/clickercore/internal/clock"
	"github.com/tapcraft/clickercore/internal/config"
	"github.com/tapcraft/clickercore/internal/game/session"
	"github.com/tapcraft/clickercore/internal/host"
	"github.com/tapcraft/clickercore/internal/infra/logging"
	"github.com/tapcraft/clickercore/internal/remote/httpapi"
	"github.com/tapcraft/clickercore/pkg/envconf"
	"github.com/tapcraft/clickercore/pkg/shutdownqueue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running simulator: %v", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	cfg := new(simulatorConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupText(logging.ParseLevel(cfg.LogLevel))

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	tuning, err := config.LoadTuning(cfg.TuningFile)
	if err != nil {
		return fmt.Errorf("load tuning: %w", err)
	}

	log := slog.Default()
	bridge := host.Logging{Identity: cfg.InitData, Log: log}
	client := httpapi.New(cfg.AuthorityURL, cfg.InitData)

	sessCfg := session.DefaultConfig()
	sessCfg.ReferrerID = cfg.ReferrerID

	sess := session.New(sessCfg, tuning, clock.System(), client, bridge, log, nil)

	shutdownqueue.Add(func(c context.Context) error {
		slog.Info("Shut down session")

		err := sess.Close(c)
		if err != nil {
			return fmt.Errorf("close session: %w", err)
		}

		return nil
	})

	err = sess.Start(ctx)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	slog.Info("Simulator started",
		"authority", cfg.AuthorityURL, "click_rate", cfg.ClickRate)

	taps := time.NewTicker(cfg.ClickRate)
	defer taps.Stop()

	stats := time.NewTicker(cfg.StatsEvery)
	defer stats.Stop()

	for {
		select {
		case <-ctx.Done():
			// graceful path; deferred shutdownqueue.Shutdown will run
			return nil

		case <-taps.C:
			x := float64(rand.IntN(360))
			y := float64(rand.IntN(640))

			if !sess.Clicks().HandleClick(x, y) {
				slog.Debug("tap rejected", "energy", sess.Meter().Available())
			}

		case <-stats.C:
			slog.Info("economy state",
				"balance", sess.Ledger().Balance(),
				"pending", sess.Ledger().Pending(),
				"energy", sess.Meter().Available(),
				"cap", sess.Meter().Cap(),
				"boost_multiplier", sess.Boost().Multiplier(),
				"cooldown", sess.Boost().CountdownLabel())
		}
	}
}
