package show

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusLive      Status = "live"
	StatusCompleted Status = "completed"
)

type LiveShow struct {
	ID             string          `gorm:"column:id;primaryKey"`
	ScheduleID     string          `gorm:"column:schedule_id;index"`
	CreatorID      string          `gorm:"column:creator_id;index"`
	StartedAt      time.Time       `gorm:"column:started_at"`
	EndedAt        *time.Time      `gorm:"column:ended_at"`
	Status         Status          `gorm:"column:status;index"`
	CurrentViewers int             `gorm:"column:current_viewers"`
	PeakViewers    int             `gorm:"column:peak_viewers"`
	TotalOrders    int             `gorm:"column:total_orders"`
	Revenue        decimal.Decimal `gorm:"column:revenue;type:numeric(14,2)"`
	AvgOrderValue  decimal.Decimal `gorm:"column:avg_order_value;type:numeric(14,2)"`
	CreatedAt      time.Time       `gorm:"column:created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at"`
}

func (LiveShow) TableName() string {
	return "live_shows"
}

// CreatorPerformance is the rolling lifetime aggregate per creator, mutated
// only by show completion and the evaluators.
type CreatorPerformance struct {
	CreatorID       string          `gorm:"column:creator_id;primaryKey"`
	TotalShows      int             `gorm:"column:total_shows"`
	TotalRevenue    decimal.Decimal `gorm:"column:total_revenue;type:numeric(14,2)"`
	AvgOrderValue   decimal.Decimal `gorm:"column:avg_order_value;type:numeric(14,2)"`
	ConversionRate  float64         `gorm:"column:conversion_rate"`
	NoShowCount     int             `gorm:"column:no_show_count"`
	LateStartCount  int             `gorm:"column:late_start_count"`
	QualityScore    float64         `gorm:"column:quality_score"`
	LastEvaluatedAt *time.Time      `gorm:"column:last_evaluated_at"`
	UpdatedAt       time.Time       `gorm:"column:updated_at"`
}

func (CreatorPerformance) TableName() string {
	return "creator_performances"
}

type IncidentKind string

const (
	IncidentNoShow    IncidentKind = "no_show"
	IncidentLateStart IncidentKind = "late_start"
)

// Incident is one reliability event. The lifetime counters on
// CreatorPerformance feed trust scoring; payout penalties count incidents
// inside the payout period only, so one incident is never penalized twice.
type Incident struct {
	ID         string       `gorm:"column:id;primaryKey"`
	CreatorID  string       `gorm:"column:creator_id;index"`
	ScheduleID string       `gorm:"column:schedule_id"`
	Kind       IncidentKind `gorm:"column:kind"`
	OccurredAt time.Time    `gorm:"column:occurred_at;index"`
}

func (Incident) TableName() string {
	return "performance_incidents"
}
