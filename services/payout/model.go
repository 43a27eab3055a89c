package payout

import (
	"time"

	"github.com/shopspring/decimal"

	"liveshop-creatorplane/services/creator"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusPaid     Status = "paid"
	StatusHeld     Status = "held"
)

const (
	HoldReasonLowTrust         = "low trust score"
	HoldReasonExcessiveNoShows = "excessive no-shows"
)

// PayoutRecord is append-only once created and never mutated after paid.
type PayoutRecord struct {
	ID                string          `gorm:"column:id;primaryKey"`
	CreatorID         string          `gorm:"column:creator_id;index"`
	PeriodStart       time.Time       `gorm:"column:period_start"`
	PeriodEnd         time.Time       `gorm:"column:period_end"`
	BaseSales         decimal.Decimal `gorm:"column:base_sales;type:numeric(14,2)"`
	Commission        decimal.Decimal `gorm:"column:commission;type:numeric(14,2)"`
	Bonuses           decimal.Decimal `gorm:"column:bonuses;type:numeric(14,2)"`
	Penalties         decimal.Decimal `gorm:"column:penalties;type:numeric(14,2)"`
	NetPayout         decimal.Decimal `gorm:"column:net_payout;type:numeric(14,2)"`
	TierAtCalculation creator.Tier    `gorm:"column:tier_at_calculation"`
	Status            Status          `gorm:"column:status;index"`
	HoldReason        string          `gorm:"column:hold_reason"`
	CreatedAt         time.Time       `gorm:"column:created_at"`
}

func (PayoutRecord) TableName() string {
	return "payout_records"
}

// CommissionPolicy is the per-tier commission bracket. The tier used for a
// calculation is the tier current at calculation time; it is snapshotted onto
// the record for auditability.
type CommissionPolicy struct {
	Rate           decimal.Decimal
	BonusThreshold decimal.Decimal
	BonusAmount    decimal.Decimal
}

var commissionPolicies = map[creator.Tier]CommissionPolicy{
	creator.TierBronze: {
		Rate:           decimal.NewFromFloat(0.10),
		BonusThreshold: decimal.NewFromInt(5_000),
		BonusAmount:    decimal.NewFromInt(100),
	},
	creator.TierSilver: {
		Rate:           decimal.NewFromFloat(0.12),
		BonusThreshold: decimal.NewFromInt(10_000),
		BonusAmount:    decimal.NewFromInt(250),
	},
	creator.TierGold: {
		Rate:           decimal.NewFromFloat(0.15),
		BonusThreshold: decimal.NewFromInt(25_000),
		BonusAmount:    decimal.NewFromInt(500),
	},
	creator.TierPlatinum: {
		Rate:           decimal.NewFromFloat(0.18),
		BonusThreshold: decimal.NewFromInt(50_000),
		BonusAmount:    decimal.NewFromInt(1_000),
	},
	creator.TierDiamond: {
		Rate:           decimal.NewFromFloat(0.20),
		BonusThreshold: decimal.NewFromInt(100_000),
		BonusAmount:    decimal.NewFromInt(2_500),
	},
}

func PolicyFor(tier creator.Tier) CommissionPolicy {
	if policy, ok := commissionPolicies[tier]; ok {
		return policy
	}
	return commissionPolicies[creator.TierBronze]
}
