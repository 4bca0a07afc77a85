package clicks

import "time"

// Policy controls what the tap guard does with a flagged streak:
// observe only (alert and keep resolving) or block the credit path.
type Policy int

const (
	PolicyObserve Policy = iota
	PolicyBlock
)

// GuardConfig tunes the automated-clicking heuristic: taps landing
// within Tolerance pixels of the previous tap, faster than Window
// apart, Threshold times in a row, are considered automated.
type GuardConfig struct {
	Policy    Policy
	Window    time.Duration
	Tolerance float64
	Threshold int
}

// DefaultGuardConfig returns the production tuning.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		Policy:    PolicyObserve,
		Window:    80 * time.Millisecond,
		Tolerance: 4,
		Threshold: 10,
	}
}

type guardVerdict int

const (
	guardClean   guardVerdict = iota
	guardFlagged              // streak just crossed the threshold
	guardBlocked              // streak already over the threshold
)

// guardState tracks the last accepted tap and the suspicion streak.
// Mutated only under the resolver's lock.
type guardState struct {
	lastX, lastY float64
	lastAt       time.Time
	streak       int
}

// observe records a tap and returns its verdict. A tap outside the
// window or tolerance resets the streak.
func (g *guardState) observe(cfg GuardConfig, x, y float64, now time.Time) guardVerdict {
	suspicious := !g.lastAt.IsZero() &&
		now.Sub(g.lastAt) <= cfg.Window &&
		abs(x-g.lastX) <= cfg.Tolerance &&
		abs(y-g.lastY) <= cfg.Tolerance

	if suspicious {
		g.streak++
	} else {
		g.streak = 0
	}

	g.lastX, g.lastY = x, y
	g.lastAt = now

	switch {
	case g.streak == cfg.Threshold:
		return guardFlagged
	case g.streak > cfg.Threshold:
		return guardBlocked
	default:
		return guardClean
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
