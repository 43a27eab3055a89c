package payout

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"liveshop-creatorplane/pkg/config"
	"liveshop-creatorplane/pkg/taskname"
)

// RunPayload carries an explicit payout period. A zero payload means the
// previous calendar month.
type RunPayload struct {
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
}

// HandlePayoutRun is the asynq handler for the monthly payout batch.
func (s *Service) HandlePayoutRun(ctx context.Context, t *asynq.Task) error {
	var payload RunPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return err
		}
	}

	periodStart, periodEnd := payload.PeriodStart, payload.PeriodEnd
	if periodStart.IsZero() || periodEnd.IsZero() {
		periodStart, periodEnd = previousMonth(time.Now().UTC())
	}

	summary, err := s.ProcessAllCreatorPayouts(ctx, periodStart, periodEnd)
	if err != nil {
		return err
	}

	zap.L().Info("payout run finished",
		zap.Time("period_start", periodStart),
		zap.Time("period_end", periodEnd),
		zap.Int("payouts_generated", summary.PayoutsGenerated),
		zap.Int("held_payouts", summary.HeldPayouts),
	)
	return nil
}

// previousMonth returns the half-open calendar month preceding now.
func previousMonth(now time.Time) (time.Time, time.Time) {
	end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	start := end.AddDate(0, -1, 0)
	return start, end
}

type Scheduler struct {
	client *asynq.Client
	cfg    *config.Config
	cancel context.CancelFunc
}

func NewScheduler(client *asynq.Client, cfg *config.Config) *Scheduler {
	return &Scheduler{client: client, cfg: cfg}
}

// StartScheduler is invoked by FX on service start. The loop runs on its own
// context, not the start hook's, which FX cancels once startup completes.
func StartScheduler(lc fx.Lifecycle, s *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			s.cancel = cancel
			go s.run(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			if s.cancel != nil {
				s.cancel()
			}
			return nil
		},
	})
}

// run is the daily loop; the payout batch only fires on the first of the
// month, the evaluation jobs fire every day.
func (s *Scheduler) run(ctx context.Context) {
	zap.L().Info("[Scheduler] started payout scheduler")

	for {
		now := time.Now()
		next := nextRunTime(now, s.cfg.Engine.PayoutRunHour, 0)

		sleepDuration := next.Sub(now)
		zap.L().Info("[Scheduler] next run scheduled",
			zap.Time("next_run", next),
			zap.Duration("sleep_for", sleepDuration),
		)
		select {
		case <-time.After(sleepDuration):
			s.runDaily(ctx, next)
		case <-ctx.Done():
			zap.L().Warn("[Scheduler] stopped")
			return
		}
	}
}

func (s *Scheduler) runDaily(ctx context.Context, runAt time.Time) {
	start := time.Now()
	zap.L().Info("[Scheduler] running daily enqueue job")

	if err := s.enqueue(ctx, taskname.EvaluationTierRun, nil, "default"); err != nil {
		zap.L().Error("[Scheduler] failed to enqueue tier evaluation", zap.Error(err))
	}
	if err := s.enqueue(ctx, taskname.EvaluationTrustRun, nil, "default"); err != nil {
		zap.L().Error("[Scheduler] failed to enqueue trust evaluation", zap.Error(err))
	}

	if runAt.Day() == 1 {
		if err := s.enqueue(ctx, taskname.PayoutRun, nil, "critical"); err != nil {
			zap.L().Error("[Scheduler] failed to enqueue payout run", zap.Error(err))
		}
	}

	zap.L().Info("[Scheduler] finished daily enqueue job",
		zap.Duration("duration", time.Since(start)),
	)
}

func (s *Scheduler) enqueue(ctx context.Context, name string, payload []byte, queue string) error {
	task := asynq.NewTask(name, payload)
	_, err := s.client.EnqueueContext(ctx, task, asynq.Queue(queue))
	return err
}

func nextRunTime(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if now.After(next) {
		next = next.Add(24 * time.Hour)
	}
	return next
}
