package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order rows are written by the commerce subsystem; this engine only reads them
// to attribute revenue to shows and payout periods.
type Order struct {
	ID          string          `gorm:"column:id;primaryKey"`
	ShowID      string          `gorm:"column:show_id;index"`
	CreatorID   string          `gorm:"column:creator_id;index"`
	TotalAmount decimal.Decimal `gorm:"column:total_amount;type:numeric(14,2)"`
	CreatedAt   time.Time       `gorm:"column:created_at"`
}

func (Order) TableName() string {
	return "orders"
}
