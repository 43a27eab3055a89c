package evaluation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"liveshop-creatorplane/services/creator"
)

func TestTierForRevenue(t *testing.T) {
	cases := []struct {
		revenue string
		want    creator.Tier
	}{
		{"0", creator.TierBronze},
		{"9999.99", creator.TierBronze},
		{"10000", creator.TierSilver},
		{"29999.99", creator.TierSilver},
		{"30000", creator.TierGold},
		{"99999.99", creator.TierGold},
		{"100000", creator.TierPlatinum},
		{"249999.99", creator.TierPlatinum},
		{"250000", creator.TierDiamond},
		{"1000000", creator.TierDiamond},
	}
	for _, tc := range cases {
		revenue, err := decimal.NewFromString(tc.revenue)
		require.NoError(t, err)
		require.Equal(t, tc.want, TierForRevenue(revenue), "revenue %s", tc.revenue)
	}
}
