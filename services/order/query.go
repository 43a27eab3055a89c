package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ForShowWindow returns orders attributed to a show inside [from,to).
func ForShowWindow(ctx context.Context, db *gorm.DB, showID string, from, to time.Time) ([]*Order, error) {
	var orders []*Order
	err := db.WithContext(ctx).
		Where("show_id = ? AND created_at >= ? AND created_at < ?", showID, from, to).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// SumTotals adds order totals, zero for an empty slice.
func SumTotals(orders []*Order) decimal.Decimal {
	total := decimal.Zero
	for _, o := range orders {
		total = total.Add(o.TotalAmount)
	}
	return total
}
