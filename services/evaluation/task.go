package evaluation

import (
	"context"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// HandleTierRun is the asynq handler for the periodic tier re-evaluation job.
func (s *Service) HandleTierRun(ctx context.Context, t *asynq.Task) error {
	result, err := s.EvaluateAllTiers(ctx)
	if err != nil {
		return err
	}

	zap.L().Info("tier evaluation run finished",
		zap.Int("evaluated", result.Evaluated),
		zap.Int("failed", result.Failed),
	)
	return nil
}

// HandleTrustRun is the asynq handler for the periodic trust score job.
func (s *Service) HandleTrustRun(ctx context.Context, t *asynq.Task) error {
	result, err := s.EvaluateAllTrust(ctx)
	if err != nil {
		return err
	}

	zap.L().Info("trust evaluation run finished",
		zap.Int("evaluated", result.Evaluated),
		zap.Int("failed", result.Failed),
	)
	return nil
}
