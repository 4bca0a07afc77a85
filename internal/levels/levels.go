// Package levels holds the ability-level tables: how much a click
// costs, how large the energy pool is and how fast it refills at a
// given level, and what the next level is priced at. Everything here
// is a pure function of the level; the authority confirms level
// changes, the client only evaluates them.
package levels

// Level bounds per ability.
const (
	ClickLevelMin = 1
	ClickLevelMax = 20

	EnergyLevelMin = 1
	EnergyLevelMax = 10

	RegenLevelMin = 1
	RegenLevelMax = 10
)

// ClickCost returns the energy cost (and pre-multiplier point value)
// of a single click at the given level.
func ClickCost(level int) int {
	return 5*(clampLevel(level, ClickLevelMin, ClickLevelMax)-1) + 1
}

// EnergyCap returns the maximum energy pool size at the given level.
func EnergyCap(level int) float64 {
	return float64(2500*(clampLevel(level, EnergyLevelMin, EnergyLevelMax)-1) + 1000)
}

// RegenPerTick returns how much energy is restored on every
// regeneration tick at the given level.
func RegenPerTick(level int) float64 {
	return float64(5*(clampLevel(level, RegenLevelMin, RegenLevelMax)-1) + 1)
}

func clampLevel(level, min, max int) int {
	if level < min {
		return min
	}
	if level > max {
		return max
	}
	return level
}
