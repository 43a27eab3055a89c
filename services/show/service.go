package show

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"liveshop-creatorplane/pkg/config"
	"liveshop-creatorplane/pkg/errutil"
	"liveshop-creatorplane/pkg/repository"
	"liveshop-creatorplane/services/notification"
	"liveshop-creatorplane/services/order"
	"liveshop-creatorplane/services/schedule"
)

const defaultLateStartThreshold = 5 * time.Minute

type Service struct {
	db        *gorm.DB
	node      *snowflake.Node
	cfg       *config.Config
	publisher notification.Publisher

	shows        repository.Repository[LiveShow]
	performances repository.Repository[CreatorPerformance]
	schedules    repository.Repository[schedule.BroadcastSchedule]
}

type ServiceParams struct {
	fx.In
	DB        *gorm.DB
	Node      *snowflake.Node
	Config    *config.Config `optional:"true"`
	Publisher notification.Publisher
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:           p.DB,
		node:         p.Node,
		cfg:          p.Config,
		publisher:    p.Publisher,
		shows:        repository.ProvideStore[LiveShow](p.DB),
		performances: repository.ProvideStore[CreatorPerformance](p.DB),
		schedules:    repository.ProvideStore[schedule.BroadcastSchedule](p.DB),
	}
}

func (s *Service) lateStartThreshold() time.Duration {
	if s.cfg != nil && s.cfg.Engine.LateStartThreshold > 0 {
		return s.cfg.Engine.LateStartThreshold
	}
	return defaultLateStartThreshold
}

// Start takes a scheduled broadcast live. The scheduled→in_progress move is a
// check-and-set inside the transaction, so concurrent start triggers cannot
// both succeed.
func (s *Service) Start(ctx context.Context, scheduleID string) (*LiveShow, error) {
	sched, err := s.schedules.FindOne(ctx, &schedule.BroadcastSchedule{ID: scheduleID})
	if err != nil {
		return nil, err
	}
	if sched == nil {
		return nil, errutil.NotFound("schedule not found")
	}

	now := time.Now()
	late := now.After(sched.StartAt.Add(s.lateStartThreshold()))

	row := &LiveShow{
		ID:            s.node.Generate().String(),
		ScheduleID:    sched.ID,
		CreatorID:     sched.CreatorID,
		StartedAt:     now,
		Status:        StatusLive,
		Revenue:       decimal.Zero,
		AvgOrderValue: decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&schedule.BroadcastSchedule{}).
			Where("id = ? AND status = ?", sched.ID, schedule.StatusScheduled).
			Updates(map[string]any{"status": schedule.StatusInProgress, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errutil.InvalidState(fmt.Sprintf("broadcast cannot start from %s", sched.Status))
		}

		if err := tx.Create(row).Error; err != nil {
			return err
		}

		if late {
			if err := s.recordIncident(tx, sched.CreatorID, sched.ID, IncidentLateStart, now); err != nil {
				return err
			}
		}

		return nil
	}); err != nil {
		return nil, err
	}

	if late {
		zap.L().Warn("show started late",
			zap.String("show_id", row.ID),
			zap.String("creator_id", row.CreatorID),
			zap.Duration("delay", now.Sub(sched.StartAt)),
		)
	}

	s.publish(ctx, notification.Event{
		Type:      notification.EventShowStarted,
		CreatorID: row.CreatorID,
		Payload: map[string]any{
			"show_id":     row.ID,
			"schedule_id": row.ScheduleID,
			"started_at":  row.StartedAt,
		},
	})

	return row, nil
}

// End finalizes a live show, aggregates the orders placed during it, and folds
// the result into the creator's rolling performance. The show row is immutable
// afterwards.
func (s *Service) End(ctx context.Context, showID string) (*LiveShow, error) {
	row, err := s.shows.FindOne(ctx, &LiveShow{ID: showID})
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, errutil.NotFound("show not found")
	}

	now := time.Now()

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&LiveShow{}).
			Where("id = ? AND status = ?", showID, StatusLive).
			Updates(map[string]any{"status": StatusCompleted, "ended_at": now, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errutil.InvalidState("only a live show can be ended")
		}

		orders, err := order.ForShowWindow(ctx, tx, showID, row.StartedAt, now)
		if err != nil {
			return err
		}

		totalOrders := len(orders)
		revenue := order.SumTotals(orders)
		avgOrderValue := decimal.Zero
		if totalOrders > 0 {
			avgOrderValue = revenue.Div(decimal.NewFromInt(int64(totalOrders))).Round(2)
		}

		if err := tx.Model(&LiveShow{}).Where("id = ?", showID).Updates(map[string]any{
			"total_orders":    totalOrders,
			"revenue":         revenue,
			"avg_order_value": avgOrderValue,
		}).Error; err != nil {
			return err
		}

		if row.ScheduleID != "" {
			if err := tx.Model(&schedule.BroadcastSchedule{}).
				Where("id = ? AND status = ?", row.ScheduleID, schedule.StatusInProgress).
				Updates(map[string]any{"status": schedule.StatusCompleted, "updated_at": now}).Error; err != nil {
				return err
			}
		}

		showConversion := 0.0
		if row.PeakViewers > 0 {
			showConversion = float64(totalOrders) / float64(row.PeakViewers) * 100
		}

		return s.foldIntoPerformance(tx, row.CreatorID, revenue, avgOrderValue, showConversion, now)
	}); err != nil {
		return nil, err
	}

	zap.L().Info("show completed",
		zap.String("show_id", showID),
		zap.String("creator_id", row.CreatorID),
		zap.Float64("duration_minutes", now.Sub(row.StartedAt).Minutes()),
	)

	finalized, err := s.shows.FindOne(ctx, &LiveShow{ID: showID})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, notification.Event{
		Type:      notification.EventShowEnded,
		CreatorID: finalized.CreatorID,
		Payload: map[string]any{
			"show_id":      finalized.ID,
			"total_orders": finalized.TotalOrders,
			"revenue":      finalized.Revenue.String(),
		},
	})

	return finalized, nil
}

// RecordViewers updates the live viewer gauge and ratchets the peak.
func (s *Service) RecordViewers(ctx context.Context, showID string, current int) error {
	row, err := s.shows.FindOne(ctx, &LiveShow{ID: showID})
	if err != nil {
		return err
	}
	if row == nil {
		return errutil.NotFound("show not found")
	}
	if row.Status != StatusLive {
		return errutil.InvalidState("viewer counts only apply to live shows")
	}

	updates := map[string]any{"current_viewers": current, "updated_at": time.Now()}
	if current > row.PeakViewers {
		updates["peak_viewers"] = current
	}

	return s.shows.Update(ctx, showID, updates)
}

// MarkNoShow cancels a scheduled broadcast the creator never started and
// records the reliability incident.
func (s *Service) MarkNoShow(ctx context.Context, scheduleID string) error {
	sched, err := s.schedules.FindOne(ctx, &schedule.BroadcastSchedule{ID: scheduleID})
	if err != nil {
		return err
	}
	if sched == nil {
		return errutil.NotFound("schedule not found")
	}

	now := time.Now()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&schedule.BroadcastSchedule{}).
			Where("id = ? AND status = ?", scheduleID, schedule.StatusScheduled).
			Updates(map[string]any{"status": schedule.StatusCancelled, "updated_at": now})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errutil.InvalidState(fmt.Sprintf("cannot mark a %s schedule as no-show", sched.Status))
		}

		return s.recordIncident(tx, sched.CreatorID, sched.ID, IncidentNoShow, now)
	})
}

func (s *Service) recordIncident(tx *gorm.DB, creatorID, scheduleID string, kind IncidentKind, occurredAt time.Time) error {
	if err := tx.Create(&Incident{
		ID:         s.node.Generate().String(),
		CreatorID:  creatorID,
		ScheduleID: scheduleID,
		Kind:       kind,
		OccurredAt: occurredAt,
	}).Error; err != nil {
		return err
	}

	column := "late_start_count"
	if kind == IncidentNoShow {
		column = "no_show_count"
	}

	perf, err := s.loadPerformance(tx, creatorID)
	if err != nil {
		return err
	}
	if perf == nil {
		perf = &CreatorPerformance{
			CreatorID:     creatorID,
			TotalRevenue:  decimal.Zero,
			AvgOrderValue: decimal.Zero,
			UpdatedAt:     occurredAt,
		}
		if kind == IncidentNoShow {
			perf.NoShowCount = 1
		} else {
			perf.LateStartCount = 1
		}
		return tx.Create(perf).Error
	}

	return tx.Model(&CreatorPerformance{}).
		Where("creator_id = ?", creatorID).
		Updates(map[string]any{column: gorm.Expr(column + " + 1"), "updated_at": occurredAt}).Error
}

func (s *Service) foldIntoPerformance(tx *gorm.DB, creatorID string, revenue, avgOrderValue decimal.Decimal, conversion float64, now time.Time) error {
	perf, err := s.loadPerformance(tx, creatorID)
	if err != nil {
		return err
	}

	if perf == nil {
		return tx.Create(&CreatorPerformance{
			CreatorID:      creatorID,
			TotalShows:     1,
			TotalRevenue:   revenue,
			AvgOrderValue:  avgOrderValue,
			ConversionRate: conversion,
			UpdatedAt:      now,
		}).Error
	}

	oldShows := decimal.NewFromInt(int64(perf.TotalShows))
	newShows := perf.TotalShows + 1
	newAvg := perf.AvgOrderValue.Mul(oldShows).Add(avgOrderValue).
		Div(decimal.NewFromInt(int64(newShows))).Round(2)
	newConversion := (perf.ConversionRate*float64(perf.TotalShows) + conversion) / float64(newShows)

	return tx.Model(&CreatorPerformance{}).
		Where("creator_id = ?", creatorID).
		Updates(map[string]any{
			"total_shows":     newShows,
			"total_revenue":   perf.TotalRevenue.Add(revenue),
			"avg_order_value": newAvg,
			"conversion_rate": newConversion,
			"updated_at":      now,
		}).Error
}

func (s *Service) loadPerformance(tx *gorm.DB, creatorID string) (*CreatorPerformance, error) {
	var perf CreatorPerformance
	err := tx.Where("creator_id = ?", creatorID).First(&perf).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &perf, nil
}

func (s *Service) publish(ctx context.Context, event notification.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		zap.L().Error("failed to publish event", zap.String("event_type", event.Type), zap.Error(err))
	}
}
