package evaluation

import (
	"github.com/shopspring/decimal"

	"liveshop-creatorplane/services/creator"
)

// tierThresholds maps trailing-30-day revenue to tiers, highest first. An
// exact threshold resolves to the higher tier.
var tierThresholds = []struct {
	Tier    creator.Tier
	Revenue decimal.Decimal
}{
	{creator.TierDiamond, decimal.NewFromInt(250_000)},
	{creator.TierPlatinum, decimal.NewFromInt(100_000)},
	{creator.TierGold, decimal.NewFromInt(30_000)},
	{creator.TierSilver, decimal.NewFromInt(10_000)},
	{creator.TierBronze, decimal.Zero},
}

// TierForRevenue is pure: identical revenue always yields the identical tier,
// and recomputation is not sticky, so a creator can move down as well as up.
func TierForRevenue(revenue decimal.Decimal) creator.Tier {
	for _, t := range tierThresholds {
		if revenue.GreaterThanOrEqual(t.Revenue) {
			return t.Tier
		}
	}
	return creator.TierBronze
}
