package levels

// Ability identifies one of the three upgradable abilities.
type Ability string

const (
	AbilityClick  Ability = "click"
	AbilityEnergy Ability = "energy"
	AbilityRegen  Ability = "regen"
)

// Upgrade prices per target level. Index 0 corresponds to upgrading
// into level 2; level 1 is the starting level and is never bought.
// The authority owns the real charge, these tables only feed the
// client-side affordability check and the upgrade UI.
var (
	clickPrices = []int64{
		500, 1200, 2500, 5000, 9000, 15000, 24000, 37000, 55000, 80000,
		115000, 160000, 220000, 300000, 400000, 530000, 700000, 920000, 1200000,
	}

	energyPrices = []int64{
		800, 2000, 4500, 9000, 17000, 30000, 50000, 80000, 125000,
	}

	regenPrices = []int64{
		600, 1500, 3500, 7000, 13000, 23000, 38000, 60000, 95000,
	}
)

// UpgradePrice returns the price of raising the given ability to
// nextLevel. The second return is false when nextLevel is out of range
// (already at max, or below the starting level).
func UpgradePrice(ability Ability, nextLevel int) (int64, bool) {
	var table []int64

	switch ability {
	case AbilityClick:
		table = clickPrices
	case AbilityEnergy:
		table = energyPrices
	case AbilityRegen:
		table = regenPrices
	default:
		panic("levels: unknown ability " + string(ability))
	}

	idx := nextLevel - 2
	if idx < 0 || idx >= len(table) {
		return 0, false
	}

	return table[idx], true
}

// MaxLevel returns the level cap for the given ability.
func MaxLevel(ability Ability) int {
	switch ability {
	case AbilityClick:
		return ClickLevelMax
	case AbilityEnergy:
		return EnergyLevelMax
	case AbilityRegen:
		return RegenLevelMax
	default:
		panic("levels: unknown ability " + string(ability))
	}
}
