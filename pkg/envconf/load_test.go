package envconf

import (
	"errors"
	"testing"
	"time"
)

type nested struct {
	Port int `env:"TEST_NESTED_PORT"`
}

type config struct {
	Name    string        `env:"TEST_NAME"`
	Debug   bool          `env:"TEST_DEBUG" envDefault:"false"`
	Timeout time.Duration `env:"TEST_TIMEOUT" envDefault:"5s"`
	Rate    float64       `env:"TEST_RATE" envDefault:"1.5"`
	Nested  nested
	Ignored string `env:"-"`
}

//nolint:paralleltest // t.Setenv forbids parallel
func TestLoad(t *testing.T) {
	t.Setenv("TEST_NAME", "svc")
	t.Setenv("TEST_DEBUG", "true")
	t.Setenv("TEST_TIMEOUT", "250ms")
	t.Setenv("TEST_RATE", "0.25")
	t.Setenv("TEST_NESTED_PORT", "8080")

	var cfg config
	if err := Load(&cfg); err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Name != "svc" || !cfg.Debug || cfg.Timeout != 250*time.Millisecond {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	if cfg.Rate != 0.25 {
		t.Fatalf("rate: want 0.25, got %v", cfg.Rate)
	}

	if cfg.Nested.Port != 8080 {
		t.Fatalf("nested port: want 8080, got %d", cfg.Nested.Port)
	}
}

//nolint:paralleltest // t.Setenv forbids parallel
func TestLoadDefaults(t *testing.T) {
	t.Setenv("TEST_NAME", "svc")
	t.Setenv("TEST_NESTED_PORT", "1")

	var cfg config
	if err := Load(&cfg); err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Debug {
		t.Fatalf("debug default: want false")
	}

	if cfg.Timeout != 5*time.Second {
		t.Fatalf("timeout default: want 5s, got %v", cfg.Timeout)
	}

	if cfg.Rate != 1.5 {
		t.Fatalf("rate default: want 1.5, got %v", cfg.Rate)
	}
}

//nolint:paralleltest // t.Setenv forbids parallel
func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("TEST_NESTED_PORT", "1")

	var cfg config

	err := Load(&cfg)
	if !errors.Is(err, ErrMissingRequired) {
		t.Fatalf("want ErrMissingRequired, got %v", err)
	}
}

//nolint:paralleltest // t.Setenv forbids parallel
func TestLoadParseError(t *testing.T) {
	t.Setenv("TEST_NAME", "svc")
	t.Setenv("TEST_NESTED_PORT", "not-a-number")

	var cfg config

	if err := Load(&cfg); err == nil {
		t.Fatalf("want parse error for garbage int")
	}
}

func TestLoadRejectsNonStructDestinations(t *testing.T) {
	t.Parallel()

	if err := Load(nil); err == nil {
		t.Fatalf("want error for nil destination")
	}

	var n int
	if err := Load(&n); err == nil {
		t.Fatalf("want error for non-struct destination")
	}
}
