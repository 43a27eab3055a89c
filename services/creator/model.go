package creator

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
	TierDiamond  Tier = "diamond"
)

// Rank orders tiers for scheduling priority, diamond highest.
func (t Tier) Rank() int {
	switch t {
	case TierDiamond:
		return 5
	case TierPlatinum:
		return 4
	case TierGold:
		return 3
	case TierSilver:
		return 2
	case TierBronze:
		return 1
	default:
		return 0
	}
}

func (t Tier) Valid() bool {
	return t.Rank() > 0
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// TimeWindow is a same-day availability range in the creator's local time,
// "HH:MM" inclusive start, exclusive end.
type TimeWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (w TimeWindow) Validate() error {
	start, err := parseClock(w.Start)
	if err != nil {
		return fmt.Errorf("invalid window start %q: %w", w.Start, err)
	}
	end, err := parseClock(w.End)
	if err != nil {
		return fmt.Errorf("invalid window end %q: %w", w.End, err)
	}
	if start >= end {
		return fmt.Errorf("window start %q must be before end %q", w.Start, w.End)
	}
	return nil
}

// Covers reports whether [from,to) minutes-of-day fall inside the window.
func (w TimeWindow) Covers(from, to int) bool {
	start, err := parseClock(w.Start)
	if err != nil {
		return false
	}
	end, err := parseClock(w.End)
	if err != nil {
		return false
	}
	return start <= from && to <= end
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// WeeklyAvailability maps weekdays to declared broadcast windows.
type WeeklyAvailability map[time.Weekday][]TimeWindow

func (a WeeklyAvailability) Validate() error {
	for day, windows := range a {
		if day < time.Sunday || day > time.Saturday {
			return fmt.Errorf("invalid weekday %d", day)
		}
		for _, w := range windows {
			if err := w.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a WeeklyAvailability) HasWeekday(day time.Weekday) bool {
	return len(a[day]) > 0
}

// CoversInterval reports whether a same-day interval in local time falls inside
// one declared window. Intervals crossing midnight are never covered.
func (a WeeklyAvailability) CoversInterval(start, end time.Time) bool {
	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	if sy != ey || sm != em || sd != ed {
		// Ending exactly at the next midnight still counts as the same day.
		midnight := time.Date(sy, sm, sd, 0, 0, 0, 0, start.Location()).AddDate(0, 0, 1)
		if !end.Equal(midnight) {
			return false
		}
	}

	from := start.Hour()*60 + start.Minute()
	to := end.Hour()*60 + end.Minute()
	if to == 0 {
		to = 24 * 60
	}

	for _, w := range a[start.Weekday()] {
		if w.Covers(from, to) {
			return true
		}
	}
	return false
}

type Creator struct {
	ID           string                                 `gorm:"column:id;primaryKey"`
	Handle       string                                 `gorm:"column:handle;uniqueIndex"`
	DisplayName  string                                 `gorm:"column:display_name"`
	Tier         Tier                                   `gorm:"column:tier"`
	TrustScore   float64                                `gorm:"column:trust_score"`
	Availability datatypes.JSONType[WeeklyAvailability] `gorm:"column:availability"`
	Timezone     string                                 `gorm:"column:timezone"`
	Status       Status                                 `gorm:"column:status"`
	CreatedAt    time.Time                              `gorm:"column:created_at"`
	UpdatedAt    time.Time                              `gorm:"column:updated_at"`
}

func (Creator) TableName() string {
	return "creators"
}

// Location resolves the creator's IANA timezone, falling back to UTC.
func (c *Creator) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
