package schedule

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

type Recurrence string

const (
	RecurrenceNone   Recurrence = "none"
	RecurrenceDaily  Recurrence = "daily"
	RecurrenceWeekly Recurrence = "weekly"
)

func (r Recurrence) Valid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly:
		return true
	}
	return false
}

type BroadcastSchedule struct {
	ID            string                      `gorm:"column:id;primaryKey"`
	CreatorID     string                      `gorm:"column:creator_id;index"`
	StartAt       time.Time                   `gorm:"column:start_at;index"`
	EndAt         time.Time                   `gorm:"column:end_at"`
	Title         string                      `gorm:"column:title"`
	ProductIDs    datatypes.JSONSlice[string] `gorm:"column:product_ids"`
	TargetRevenue decimal.Decimal             `gorm:"column:target_revenue;type:numeric(14,2)"`
	Status        Status                      `gorm:"column:status;index"`
	Recurrence    Recurrence                  `gorm:"column:recurrence"`
	CreatedAt     time.Time                   `gorm:"column:created_at"`
	UpdatedAt     time.Time                   `gorm:"column:updated_at"`
}

func (BroadcastSchedule) TableName() string {
	return "broadcast_schedules"
}

func (s *BroadcastSchedule) Range() TimeRange {
	return TimeRange{Start: s.StartAt, End: s.EndAt}
}

// TimeRange is a half-open interval [Start, End).
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r TimeRange) String() string {
	return fmt.Sprintf("[%s, %s)", r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
}
