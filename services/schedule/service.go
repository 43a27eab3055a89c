package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"liveshop-creatorplane/pkg/db/option"
	"liveshop-creatorplane/pkg/errutil"
	"liveshop-creatorplane/pkg/repository"
	"liveshop-creatorplane/services/creator"
)

type Service struct {
	db   *gorm.DB
	node *snowflake.Node

	schedules repository.Repository[BroadcastSchedule]
	creators  repository.Repository[creator.Creator]

	// locks serializes the conflict-check-then-insert unit per creator, so two
	// concurrent requests cannot both pass the check before either commits.
	locks creatorLocks
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:        p.DB,
		node:      p.Node,
		schedules: repository.ProvideStore[BroadcastSchedule](p.DB),
		creators:  repository.ProvideStore[creator.Creator](p.DB),
	}
}

type creatorLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *creatorLocks) forCreator(creatorID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	lock, ok := l.locks[creatorID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[creatorID] = lock
	}
	return lock
}

type CreateParams struct {
	CreatorID     string
	StartAt       time.Time
	EndAt         time.Time
	Title         string
	ProductIDs    []string
	TargetRevenue decimal.Decimal
	Recurrence    Recurrence
}

// Create validates and reserves a single broadcast slot. Conflicting slots fail
// with *ConflictError; a slot outside the creator's declared availability is
// accepted with a warning.
func (s *Service) Create(ctx context.Context, p CreateParams) (*BroadcastSchedule, error) {
	if !p.StartAt.Before(p.EndAt) {
		return nil, errutil.ValidationFailed("schedule start must be before end")
	}
	if p.TargetRevenue.IsNegative() {
		return nil, errutil.ValidationFailed("target revenue must not be negative")
	}
	if p.Recurrence == "" {
		p.Recurrence = RecurrenceNone
	}
	if !p.Recurrence.Valid() {
		return nil, errutil.ValidationFailed(fmt.Sprintf("unsupported recurrence %q", p.Recurrence))
	}

	host, err := s.creators.FindOne(ctx, &creator.Creator{ID: p.CreatorID})
	if err != nil {
		return nil, err
	}
	if host == nil {
		return nil, errutil.NotFound("creator not found")
	}
	if host.Status != creator.StatusActive {
		return nil, errutil.InvalidState(fmt.Sprintf("creator is %s, only active creators can be scheduled", host.Status))
	}

	s.warnOutsideAvailability(host, p.StartAt, p.EndAt)

	row := &BroadcastSchedule{
		ID:            s.node.Generate().String(),
		CreatorID:     p.CreatorID,
		StartAt:       p.StartAt,
		EndAt:         p.EndAt,
		Title:         p.Title,
		ProductIDs:    datatypes.NewJSONSlice(p.ProductIDs),
		TargetRevenue: p.TargetRevenue,
		Status:        StatusScheduled,
		Recurrence:    p.Recurrence,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	lock := s.locks.forCreator(p.CreatorID)
	lock.Lock()
	defer lock.Unlock()

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the creator's blocking rows so a concurrent insert on another
		// instance cannot pass the same conflict check.
		tx = tx.Scopes(option.LockingUpdate)

		conflicts, err := findConflicts(tx, p.CreatorID, p.StartAt, p.EndAt, "")
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return conflictError(conflicts)
		}

		return tx.Create(row).Error
	}); err != nil {
		return nil, err
	}

	zap.L().Info("broadcast slot reserved",
		zap.String("schedule_id", row.ID),
		zap.String("creator_id", row.CreatorID),
		zap.Time("start_at", row.StartAt),
		zap.Time("end_at", row.EndAt),
	)

	return row, nil
}

func (s *Service) warnOutsideAvailability(host *creator.Creator, start, end time.Time) {
	loc := host.Location()
	availability := host.Availability.Data()
	if !availability.CoversInterval(start.In(loc), end.In(loc)) {
		zap.L().Warn("schedule falls outside declared availability",
			zap.String("creator_id", host.ID),
			zap.Time("start_at", start),
			zap.Time("end_at", end),
		)
	}
}

func (s *Service) Get(ctx context.Context, scheduleID string) (*BroadcastSchedule, error) {
	row, err := s.schedules.FindOne(ctx, &BroadcastSchedule{ID: scheduleID})
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, errutil.NotFound("schedule not found")
	}
	return row, nil
}

// ListForCreator returns the creator's schedules starting inside [from,to).
func (s *Service) ListForCreator(ctx context.Context, creatorID string, from, to time.Time) ([]*BroadcastSchedule, error) {
	return s.schedules.Find(ctx, &BroadcastSchedule{CreatorID: creatorID},
		option.ApplyOperator(option.Condition{Field: "start_at", Operator: option.GTE, Value: from}),
		option.ApplyOperator(option.Condition{Field: "start_at", Operator: option.LT, Value: to}),
		option.WithSortBy(option.QuerySortBy{
			SortBy: "start_at",
			Allow: map[string]bool{
				"start_at": true,
			},
		}),
	)
}

// Cancel releases a reserved slot. Only scheduled slots can be cancelled.
func (s *Service) Cancel(ctx context.Context, scheduleID string) error {
	res := s.db.WithContext(ctx).
		Model(&BroadcastSchedule{}).
		Where("id = ? AND status = ?", scheduleID, StatusScheduled).
		Updates(map[string]any{"status": StatusCancelled, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		existing, err := s.schedules.FindOne(ctx, &BroadcastSchedule{ID: scheduleID})
		if err != nil {
			return err
		}
		if existing == nil {
			return errutil.NotFound("schedule not found")
		}
		return errutil.InvalidState(fmt.Sprintf("cannot cancel a %s schedule", existing.Status))
	}
	return nil
}
