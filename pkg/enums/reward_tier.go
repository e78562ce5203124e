package enums

import "fmt"

// RewardTier distinguishes the three reward coin denominations. Diamond is
// the only spendable denomination at checkout.
type RewardTier string

const (
	RewardTierSilver  RewardTier = "silver"
	RewardTierGold    RewardTier = "gold"
	RewardTierDiamond RewardTier = "diamond"
)

var validRewardTiers = []RewardTier{
	RewardTierSilver,
	RewardTierGold,
	RewardTierDiamond,
}

// String implements fmt.Stringer.
func (r RewardTier) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RewardTier.
func (r RewardTier) IsValid() bool {
	for _, candidate := range validRewardTiers {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRewardTier converts raw input into a RewardTier.
func ParseRewardTier(value string) (RewardTier, error) {
	for _, candidate := range validRewardTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reward tier %q", value)
}
