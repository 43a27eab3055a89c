package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"liveshop-creatorplane/pkg/errutil"
)

// blockingStatuses are the schedule states that reserve a creator's time.
var blockingStatuses = []Status{StatusScheduled, StatusInProgress}

// Overlaps reports whether the half-open intervals [s1,e1) and [s2,e2) overlap.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// ConflictError carries the overlapping reservations so callers can propose an
// alternative slot. It is recoverable.
type ConflictError struct {
	Conflicts []TimeRange
}

func (e *ConflictError) Error() string {
	ranges := make([]string, 0, len(e.Conflicts))
	for _, r := range e.Conflicts {
		ranges = append(ranges, r.String())
	}
	return fmt.Sprintf("broadcast slot conflicts with %d existing reservation(s): %s",
		len(e.Conflicts), strings.Join(ranges, ", "))
}

func (e *ConflictError) Status() errutil.CoreStatus {
	return errutil.StatusConflict
}

func (e *ConflictError) Count() int {
	return len(e.Conflicts)
}

// FindConflicts returns the creator's blocking schedules overlapping the
// proposed [start,end) interval, excluding excludeID when non-empty. Read-only.
func (s *Service) FindConflicts(ctx context.Context, creatorID string, start, end time.Time, excludeID string) ([]*BroadcastSchedule, error) {
	return findConflicts(s.db.WithContext(ctx), creatorID, start, end, excludeID)
}

func findConflicts(db *gorm.DB, creatorID string, start, end time.Time, excludeID string) ([]*BroadcastSchedule, error) {
	query := db.
		Where("creator_id = ? AND status IN ?", creatorID, blockingStatuses).
		Where("start_at < ? AND end_at > ?", end, start).
		Order("start_at ASC")
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var conflicts []*BroadcastSchedule
	if err := query.Find(&conflicts).Error; err != nil {
		return nil, err
	}
	return conflicts, nil
}

func conflictError(conflicts []*BroadcastSchedule) *ConflictError {
	ranges := make([]TimeRange, 0, len(conflicts))
	for _, c := range conflicts {
		ranges = append(ranges, c.Range())
	}
	return &ConflictError{Conflicts: ranges}
}
