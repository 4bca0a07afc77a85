// Package config assembles engine tuning: compiled-in defaults with an
// optional TOML overlay for the knobs operators actually turn.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/tapcraft/clickercore/internal/game/balance"
	"github.com/tapcraft/clickercore/internal/game/boost"
	"github.com/tapcraft/clickercore/internal/game/clicks"
	"github.com/tapcraft/clickercore/internal/game/energy"
	"github.com/tapcraft/clickercore/internal/game/upgrades"
)

// Tuning carries the per-subsystem configs the session is built with.
type Tuning struct {
	Energy   energy.Config
	Balance  balance.Config
	Clicks   clicks.Config
	Boost    boost.Config
	Upgrades upgrades.Config
}

// DefaultTuning returns the production defaults of every subsystem.
func DefaultTuning() Tuning {
	return Tuning{
		Energy:   energy.DefaultConfig(),
		Balance:  balance.DefaultConfig(),
		Clicks:   clicks.DefaultConfig(),
		Boost:    boost.DefaultConfig(),
		Upgrades: upgrades.DefaultConfig(),
	}
}

// duration parses TOML duration strings ("250ms", "6h").
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration: %w", err)
	}

	d.Duration = parsed

	return nil
}

// FileConfig represents the TOML tuning file. Absent fields keep the
// compiled-in defaults.
type FileConfig struct {
	Energy  EnergyTuning  `toml:"energy"`
	Balance BalanceTuning `toml:"balance"`
	Clicks  ClicksTuning  `toml:"clicks"`
	Guard   GuardTuning   `toml:"guard"`
	Boost   BoostTuning   `toml:"boost"`
}

// EnergyTuning maps energy meter settings.
type EnergyTuning struct {
	RegenInterval *duration `toml:"regen-interval"`
	SyncDebounce  *duration `toml:"sync-debounce"`
	SyncBase      *duration `toml:"sync-base"`
	SyncMax       *duration `toml:"sync-max"`
}

// BalanceTuning maps balance ledger settings.
type BalanceTuning struct {
	SyncDebounce *duration `toml:"sync-debounce"`
}

// ClicksTuning maps click resolver settings.
type ClicksTuning struct {
	MessageLifetime *duration `toml:"message-lifetime"`
	ScalePulse      *duration `toml:"scale-pulse"`
}

// GuardTuning maps tap guard settings.
type GuardTuning struct {
	Policy    *string   `toml:"policy"` // "observe" or "block"
	Window    *duration `toml:"window"`
	Tolerance *float64  `toml:"tolerance"`
	Threshold *int      `toml:"threshold"`
}

// BoostTuning maps boost engine settings.
type BoostTuning struct {
	Cooldown    *duration `toml:"cooldown"`
	FieldWidth  *int      `toml:"field-width"`
	FieldHeight *int      `toml:"field-height"`
}

// LoadTuning returns the defaults overlaid with the TOML file at path.
// An empty path or a missing file yields the plain defaults.
func LoadTuning(path string) (Tuning, error) {
	t := DefaultTuning()

	if path == "" {
		return t, nil
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}

		return Tuning{}, fmt.Errorf("stat tuning file: %w", err)
	}

	var f FileConfig
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return Tuning{}, fmt.Errorf("decode tuning file: %w", err)
	}

	if err := f.apply(&t); err != nil {
		return Tuning{}, fmt.Errorf("apply tuning file: %w", err)
	}

	return t, nil
}

func (f FileConfig) apply(t *Tuning) error {
	setDuration(&t.Energy.RegenInterval, f.Energy.RegenInterval)
	setDuration(&t.Energy.SyncDebounce, f.Energy.SyncDebounce)
	setDuration(&t.Energy.SyncBase, f.Energy.SyncBase)
	setDuration(&t.Energy.SyncMax, f.Energy.SyncMax)

	setDuration(&t.Balance.SyncDebounce, f.Balance.SyncDebounce)

	setDuration(&t.Clicks.MessageLifetime, f.Clicks.MessageLifetime)
	setDuration(&t.Clicks.ScalePulse, f.Clicks.ScalePulse)

	if f.Guard.Policy != nil {
		switch *f.Guard.Policy {
		case "observe":
			t.Clicks.Guard.Policy = clicks.PolicyObserve
		case "block":
			t.Clicks.Guard.Policy = clicks.PolicyBlock
		default:
			return fmt.Errorf("unknown guard policy %q", *f.Guard.Policy)
		}
	}

	setDuration(&t.Clicks.Guard.Window, f.Guard.Window)

	if f.Guard.Tolerance != nil {
		t.Clicks.Guard.Tolerance = *f.Guard.Tolerance
	}

	if f.Guard.Threshold != nil {
		t.Clicks.Guard.Threshold = *f.Guard.Threshold
	}

	setDuration(&t.Boost.Cooldown, f.Boost.Cooldown)

	if f.Boost.FieldWidth != nil {
		t.Boost.FieldWidth = *f.Boost.FieldWidth
	}

	if f.Boost.FieldHeight != nil {
		t.Boost.FieldHeight = *f.Boost.FieldHeight
	}

	return nil
}

func setDuration(dst *time.Duration, src *duration) {
	if src != nil {
		*dst = src.Duration
	}
}
