package payout

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"liveshop-creatorplane/pkg/db/option"
	"liveshop-creatorplane/pkg/errutil"
	"liveshop-creatorplane/pkg/repository"
	"liveshop-creatorplane/services/creator"
	"liveshop-creatorplane/services/notification"
	"liveshop-creatorplane/services/show"
)

type Service struct {
	db        *gorm.DB
	node      *snowflake.Node
	publisher notification.Publisher

	creators     repository.Repository[creator.Creator]
	performances repository.Repository[show.CreatorPerformance]
	records      repository.Repository[PayoutRecord]
}

type ServiceParams struct {
	fx.In
	DB        *gorm.DB
	Node      *snowflake.Node
	Publisher notification.Publisher
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:           p.DB,
		node:         p.Node,
		publisher:    p.Publisher,
		creators:     repository.ProvideStore[creator.Creator](p.DB),
		performances: repository.ProvideStore[show.CreatorPerformance](p.DB),
		records:      repository.ProvideStore[PayoutRecord](p.DB),
	}
}

// CalculateCreatorPayout computes one creator's payout for [periodStart,
// periodEnd) without persisting it.
func (s *Service) CalculateCreatorPayout(ctx context.Context, creatorID string, periodStart, periodEnd time.Time) (*Calculation, error) {
	if !periodStart.Before(periodEnd) {
		return nil, errutil.ValidationFailed("payout period start must be before end")
	}

	snap, err := s.snapshot(ctx, creatorID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	return Calculate(*snap, periodStart, periodEnd), nil
}

// snapshot reads everything the calculator needs exactly once.
func (s *Service) snapshot(ctx context.Context, creatorID string, periodStart, periodEnd time.Time) (*Snapshot, error) {
	c, err := s.creators.FindOne(ctx, &creator.Creator{ID: creatorID})
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errutil.NotFound("creator not found")
	}

	perf, err := s.performances.FindOne(ctx, &show.CreatorPerformance{CreatorID: creatorID})
	if err != nil {
		return nil, err
	}
	if perf == nil {
		perf = &show.CreatorPerformance{CreatorID: creatorID}
	}

	baseSales, err := s.completedRevenue(ctx, creatorID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	noShows, err := s.countIncidents(ctx, creatorID, show.IncidentNoShow, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	lateStarts, err := s.countIncidents(ctx, creatorID, show.IncidentLateStart, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		CreatorID:        creatorID,
		Tier:             c.Tier,
		TrustScore:       c.TrustScore,
		QualityScore:     perf.QualityScore,
		BaseSales:        baseSales,
		PeriodNoShows:    noShows,
		PeriodLateStarts: lateStarts,
	}, nil
}

type BatchSummary struct {
	TotalCreators    int
	PayoutsGenerated int
	TotalPayout      decimal.Decimal
	HeldPayouts      int
}

// ProcessAllCreatorPayouts runs the calculator over every active creator and
// persists a record for each one with sales in the period. Creators are
// independent, so the batch fans out; a failing creator is logged and skipped,
// it never aborts the batch.
func (s *Service) ProcessAllCreatorPayouts(ctx context.Context, periodStart, periodEnd time.Time) (*BatchSummary, error) {
	if !periodStart.Before(periodEnd) {
		return nil, errutil.ValidationFailed("payout period start must be before end")
	}

	active, err := s.creators.Find(ctx, &creator.Creator{Status: creator.StatusActive})
	if err != nil {
		return nil, err
	}

	summary := &BatchSummary{
		TotalCreators: len(active),
		TotalPayout:   decimal.Zero,
	}

	var mu sync.Mutex
	wg := errgroup.Group{}
	wg.SetLimit(8)

	for _, c := range active {
		wg.Go(func() error {
			calc, err := s.CalculateCreatorPayout(ctx, c.ID, periodStart, periodEnd)
			if err != nil {
				zap.L().Error("payout calculation failed, skipping creator",
					zap.String("creator_id", c.ID),
					zap.Error(err),
				)
				return nil
			}

			if !calc.BaseSales.IsPositive() {
				return nil
			}

			record, err := s.persist(ctx, calc)
			if err != nil {
				zap.L().Error("failed to persist payout record, skipping creator",
					zap.String("creator_id", c.ID),
					zap.Error(err),
				)
				return nil
			}

			mu.Lock()
			summary.PayoutsGenerated++
			summary.TotalPayout = summary.TotalPayout.Add(calc.NetPayout)
			if calc.Status == StatusHeld {
				summary.HeldPayouts++
			}
			mu.Unlock()

			s.publish(ctx, record)
			return nil
		})
	}
	_ = wg.Wait()

	zap.L().Info("payout batch finished",
		zap.Int("total_creators", summary.TotalCreators),
		zap.Int("payouts_generated", summary.PayoutsGenerated),
		zap.Int("held_payouts", summary.HeldPayouts),
		zap.String("total_payout", summary.TotalPayout.String()),
	)

	return summary, nil
}

func (s *Service) persist(ctx context.Context, calc *Calculation) (*PayoutRecord, error) {
	record := &PayoutRecord{
		ID:                s.node.Generate().String(),
		CreatorID:         calc.CreatorID,
		PeriodStart:       calc.PeriodStart,
		PeriodEnd:         calc.PeriodEnd,
		BaseSales:         calc.BaseSales,
		Commission:        calc.Commission,
		Bonuses:           calc.Bonuses,
		Penalties:         calc.Penalties,
		NetPayout:         calc.NetPayout,
		TierAtCalculation: calc.TierAtCalculation,
		Status:            calc.Status,
		HoldReason:        calc.HoldReason,
		CreatedAt:         time.Now(),
	}

	if err := s.records.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// ListForCreator returns the creator's payout history, newest first. A limit
// of zero returns everything.
func (s *Service) ListForCreator(ctx context.Context, creatorID string, limit int) ([]*PayoutRecord, error) {
	return s.records.Find(ctx, &PayoutRecord{CreatorID: creatorID},
		option.WithSortBy(option.QuerySortBy{
			SortBy:  "period_start",
			OrderBy: "desc",
			Allow: map[string]bool{
				"period_start": true,
			},
		}),
		option.WithLimit(limit),
	)
}

// Approve moves a pending record to approved; held records need the hold
// lifted by review first, and paid records are immutable.
func (s *Service) Approve(ctx context.Context, recordID string) error {
	return s.transition(ctx, recordID, StatusApproved, StatusPending)
}

// MarkPaid finalizes an approved record.
func (s *Service) MarkPaid(ctx context.Context, recordID string) error {
	return s.transition(ctx, recordID, StatusPaid, StatusApproved)
}

// ReleaseHold moves a held record back to pending after manual review.
func (s *Service) ReleaseHold(ctx context.Context, recordID string) error {
	if err := s.transition(ctx, recordID, StatusPending, StatusHeld); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&PayoutRecord{}).
		Where("id = ?", recordID).
		Update("hold_reason", "").Error
}

func (s *Service) transition(ctx context.Context, recordID string, to Status, from Status) error {
	res := s.db.WithContext(ctx).
		Model(&PayoutRecord{}).
		Where("id = ? AND status = ?", recordID, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		existing, err := s.records.FindOne(ctx, &PayoutRecord{ID: recordID})
		if err != nil {
			return err
		}
		if existing == nil {
			return errutil.NotFound("payout record not found")
		}
		return errutil.InvalidState("payout record is " + string(existing.Status) + ", expected " + string(from))
	}
	return nil
}

func (s *Service) completedRevenue(ctx context.Context, creatorID string, from, to time.Time) (decimal.Decimal, error) {
	var shows []*show.LiveShow
	err := s.db.WithContext(ctx).
		Where("creator_id = ? AND status = ? AND ended_at >= ? AND ended_at < ?",
			creatorID, show.StatusCompleted, from, to).
		Find(&shows).Error
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, sh := range shows {
		total = total.Add(sh.Revenue)
	}
	return total, nil
}

func (s *Service) countIncidents(ctx context.Context, creatorID string, kind show.IncidentKind, from, to time.Time) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&show.Incident{}).
		Where("creator_id = ? AND kind = ? AND occurred_at >= ? AND occurred_at < ?",
			creatorID, kind, from, to).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (s *Service) publish(ctx context.Context, record *PayoutRecord) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, notification.Event{
		Type:      notification.EventPayoutProcessed,
		CreatorID: record.CreatorID,
		Payload: map[string]any{
			"payout_id":  record.ID,
			"net_payout": record.NetPayout.String(),
			"status":     string(record.Status),
		},
	})
	if err != nil {
		zap.L().Error("failed to publish payout event", zap.String("payout_id", record.ID), zap.Error(err))
	}
}
