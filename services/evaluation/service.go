package evaluation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"liveshop-creatorplane/pkg/errutil"
	"liveshop-creatorplane/pkg/repository"
	"liveshop-creatorplane/services/creator"
	"liveshop-creatorplane/services/show"
)

const trailingWindow = 30 * 24 * time.Hour

type Service struct {
	db *gorm.DB

	creators     repository.Repository[creator.Creator]
	performances repository.Repository[show.CreatorPerformance]
}

type ServiceParams struct {
	fx.In
	DB *gorm.DB
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:           p.DB,
		creators:     repository.ProvideStore[creator.Creator](p.DB),
		performances: repository.ProvideStore[show.CreatorPerformance](p.DB),
	}
}

type TierResult struct {
	MonthlyRevenue decimal.Decimal
	NewTier        creator.Tier
}

// EvaluateTier recomputes the creator's tier from trailing-30-day revenue of
// completed shows and persists it. Demotions apply like promotions.
func (s *Service) EvaluateTier(ctx context.Context, creatorID string) (*TierResult, error) {
	c, err := s.creators.FindOne(ctx, &creator.Creator{ID: creatorID})
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errutil.NotFound("creator not found")
	}

	now := time.Now()
	revenue, err := s.completedRevenue(ctx, creatorID, now.Add(-trailingWindow), now)
	if err != nil {
		return nil, err
	}

	newTier := TierForRevenue(revenue)
	if newTier != c.Tier {
		zap.L().Info("creator tier changed",
			zap.String("creator_id", creatorID),
			zap.String("old_tier", string(c.Tier)),
			zap.String("new_tier", string(newTier)),
			zap.String("monthly_revenue", revenue.String()),
		)
	}

	if err := s.creators.Update(ctx, creatorID, map[string]any{
		"tier":       newTier,
		"updated_at": now,
	}); err != nil {
		return nil, err
	}

	return &TierResult{MonthlyRevenue: revenue, NewTier: newTier}, nil
}

// EvaluateTrust recomputes the creator's trust score from the current
// performance snapshot and persists it.
func (s *Service) EvaluateTrust(ctx context.Context, creatorID string) (float64, error) {
	c, err := s.creators.FindOne(ctx, &creator.Creator{ID: creatorID})
	if err != nil {
		return 0, err
	}
	if c == nil {
		return 0, errutil.NotFound("creator not found")
	}

	perf, err := s.performances.FindOne(ctx, &show.CreatorPerformance{CreatorID: creatorID})
	if err != nil {
		return 0, err
	}
	if perf == nil {
		perf = &show.CreatorPerformance{CreatorID: creatorID}
	}

	now := time.Now()
	score := ComputeTrustScore(*perf)

	if err := s.creators.Update(ctx, creatorID, map[string]any{
		"trust_score": score,
		"updated_at":  now,
	}); err != nil {
		return 0, err
	}

	if err := s.db.WithContext(ctx).Model(&show.CreatorPerformance{}).
		Where("creator_id = ?", creatorID).
		Updates(map[string]any{"last_evaluated_at": now, "updated_at": now}).Error; err != nil {
		return 0, err
	}

	return score, nil
}

type BatchResult struct {
	Evaluated int
	Failed    int
}

// EvaluateAllTiers runs the tier evaluator over every active creator.
// Per-creator failures are logged and skipped.
func (s *Service) EvaluateAllTiers(ctx context.Context) (*BatchResult, error) {
	return s.forEachActive(ctx, func(creatorID string) error {
		_, err := s.EvaluateTier(ctx, creatorID)
		return err
	})
}

// EvaluateAllTrust runs the trust score calculator over every active creator.
func (s *Service) EvaluateAllTrust(ctx context.Context) (*BatchResult, error) {
	return s.forEachActive(ctx, func(creatorID string) error {
		_, err := s.EvaluateTrust(ctx, creatorID)
		return err
	})
}

func (s *Service) forEachActive(ctx context.Context, fn func(creatorID string) error) (*BatchResult, error) {
	active, err := s.creators.Find(ctx, &creator.Creator{Status: creator.StatusActive})
	if err != nil {
		return nil, err
	}

	result := &BatchResult{}
	for _, c := range active {
		if err := fn(c.ID); err != nil {
			zap.L().Error("creator evaluation failed, skipping",
				zap.String("creator_id", c.ID),
				zap.Error(err),
			)
			result.Failed++
			continue
		}
		result.Evaluated++
	}

	return result, nil
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
