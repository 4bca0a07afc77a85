package remote

// Abilities carries the three server-confirmed ability levels.
type Abilities struct {
	ClickLevel  int `json:"clickLevel"`
	EnergyLevel int `json:"energyLevel"`
	RegenLevel  int `json:"regenLevel"`
}

// User is the authoritative session state returned by the authority.
type User struct {
	ID           int64      `json:"id"`
	Balance      int64      `json:"balance"`
	Abilities    Abilities  `json:"abilities"`
	ActiveEnergy float64    `json:"activeEnergy"`
	LastBoostRun int64      `json:"lastBoostRun"` // epoch millis, 0 when never boosted
	Referrals    []Referral `json:"referrals,omitempty"`
}

// Referral is one referred user, as the authority reports it.
type Referral struct {
	UserID        int64  `json:"userId"`
	UserName      string `json:"userName,omitempty"`
	Balance       int64  `json:"balance"`
	RewardClaimed bool   `json:"rewardClaimed"`
}

// UpgradeResult is the confirmed state after a successful ability
// purchase.
type UpgradeResult struct {
	Balance      int64     `json:"balance"`
	Abilities    Abilities `json:"abilities"`
	ActiveEnergy float64   `json:"activeEnergy"`
}

// ClaimResult is the confirmed state after a referral reward claim.
type ClaimResult struct {
	Balance   int64      `json:"balance"`
	Referrals []Referral `json:"referrals"`
}
