package payout

import (
	"time"

	"github.com/shopspring/decimal"

	"liveshop-creatorplane/services/creator"
)

// Snapshot fixes everything a payout calculation reads at the start of the
// run: tier, trust, quality, period sales, and period-scoped incident counts.
// The calculator never re-reads state mid-computation, so a concurrent
// evaluator run cannot skew a calculation.
type Snapshot struct {
	CreatorID        string
	Tier             creator.Tier
	TrustScore       float64
	QualityScore     float64
	BaseSales        decimal.Decimal
	PeriodNoShows    int
	PeriodLateStarts int
}

// Calculation is a computed payout; persisting it is the batch processor's
// decision.
type Calculation struct {
	CreatorID         string
	PeriodStart       time.Time
	PeriodEnd         time.Time
	BaseSales         decimal.Decimal
	Commission        decimal.Decimal
	Bonuses           decimal.Decimal
	Penalties         decimal.Decimal
	NetPayout         decimal.Decimal
	TierAtCalculation creator.Tier
	Status            Status
	HoldReason        string
}

var qualityBonusRate = decimal.NewFromFloat(0.05)

// Calculate computes commission, bonuses, penalties, net payout, and hold
// status from a fixed snapshot. Net payout is clamped at zero.
func Calculate(snap Snapshot, periodStart, periodEnd time.Time) *Calculation {
	policy := PolicyFor(snap.Tier)

	commission := snap.BaseSales.Mul(policy.Rate).Round(2)

	bonuses := decimal.Zero
	if snap.BaseSales.GreaterThanOrEqual(policy.BonusThreshold) {
		bonuses = bonuses.Add(policy.BonusAmount)
	}
	if snap.QualityScore >= 95 {
		bonuses = bonuses.Add(commission.Mul(qualityBonusRate).Round(2))
	}

	penalties := decimal.NewFromInt(int64(snap.PeriodNoShows*100 + snap.PeriodLateStarts*25))

	netPayout := commission.Add(bonuses).Sub(penalties)
	if netPayout.IsNegative() {
		netPayout = decimal.Zero
	}

	calc := &Calculation{
		CreatorID:         snap.CreatorID,
		PeriodStart:       periodStart,
		PeriodEnd:         periodEnd,
		BaseSales:         snap.BaseSales,
		Commission:        commission,
		Bonuses:           bonuses,
		Penalties:         penalties,
		NetPayout:         netPayout,
		TierAtCalculation: snap.Tier,
		Status:            StatusPending,
	}

	switch {
	case snap.TrustScore < 30:
		calc.Status = StatusHeld
		calc.HoldReason = HoldReasonLowTrust
	case snap.PeriodNoShows > 3:
		calc.Status = StatusHeld
		calc.HoldReason = HoldReasonExcessiveNoShows
	}

	return calc
}
