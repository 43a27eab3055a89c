package schedule

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"liveshop-creatorplane/pkg/errutil"
	"liveshop-creatorplane/services/creator"
)

const DefaultBlockLength = 2 * time.Hour

type PlanParams struct {
	HorizonStart time.Time
	HorizonEnd   time.Time
	// BlockLength defaults to DefaultBlockLength when zero.
	BlockLength time.Duration
	// MaxBlocksPerCreator caps how many blocks one creator may receive;
	// zero means uncapped, which lets the top-ranked conflict-free creator
	// absorb the whole horizon.
	MaxBlocksPerCreator int
}

type Assignment struct {
	CreatorID  string       `json:"creator_id"`
	Start      time.Time    `json:"start"`
	End        time.Time    `json:"end"`
	Tier       creator.Tier `json:"tier"`
	TrustScore float64      `json:"trust_score"`
}

type CoveragePlan struct {
	TotalSlots  int          `json:"total_slots"`
	FilledSlots int          `json:"filled_slots"`
	Coverage    float64      `json:"coverage"`
	Assignments []Assignment `json:"assignments"`
}

// PlanCoverage greedily fills [HorizonStart,HorizonEnd) with fixed-length
// blocks, assigning the best-ranked available creator per block. The result is
// a proposal only: callers must reserve each assignment through Create, which
// re-validates conflicts transactionally.
func (s *Service) PlanCoverage(ctx context.Context, p PlanParams) (*CoveragePlan, error) {
	if !p.HorizonStart.Before(p.HorizonEnd) {
		return nil, errutil.ValidationFailed("horizon start must be before end")
	}
	blockLength := p.BlockLength
	if blockLength <= 0 {
		blockLength = DefaultBlockLength
	}

	candidates, err := s.rankedActiveCreators(ctx)
	if err != nil {
		return nil, err
	}

	plan := &CoveragePlan{Assignments: []Assignment{}}
	assigned := make(map[string]int, len(candidates))

	for blockStart := p.HorizonStart; !blockStart.Add(blockLength).After(p.HorizonEnd); blockStart = blockStart.Add(blockLength) {
		blockEnd := blockStart.Add(blockLength)
		plan.TotalSlots++

		match := s.pickCreatorForBlock(ctx, candidates, assigned, p.MaxBlocksPerCreator, blockStart, blockEnd)
		if match == nil {
			continue
		}

		assigned[match.ID]++
		plan.FilledSlots++
		plan.Assignments = append(plan.Assignments, Assignment{
			CreatorID:  match.ID,
			Start:      blockStart,
			End:        blockEnd,
			Tier:       match.Tier,
			TrustScore: match.TrustScore,
		})
	}

	if plan.TotalSlots > 0 {
		plan.Coverage = float64(plan.FilledSlots) / float64(plan.TotalSlots) * 100
	}

	zap.L().Info("coverage plan computed",
		zap.Int("total_slots", plan.TotalSlots),
		zap.Int("filled_slots", plan.FilledSlots),
		zap.Float64("coverage", plan.Coverage),
	)

	return plan, nil
}

func (s *Service) pickCreatorForBlock(ctx context.Context, candidates []*creator.Creator, assigned map[string]int, maxPerCreator int, blockStart, blockEnd time.Time) *creator.Creator {
	for _, c := range candidates {
		if maxPerCreator > 0 && assigned[c.ID] >= maxPerCreator {
			continue
		}

		localStart := blockStart.In(c.Location())
		if !c.Availability.Data().HasWeekday(localStart.Weekday()) {
			continue
		}

		conflicts, err := s.FindConflicts(ctx, c.ID, blockStart, blockEnd, "")
		if err != nil {
			zap.L().Warn("conflict check failed during coverage planning, skipping creator",
				zap.String("creator_id", c.ID),
				zap.Error(err),
			)
			continue
		}
		if len(conflicts) > 0 {
			continue
		}

		return c
	}
	return nil
}

func (s *Service) rankedActiveCreators(ctx context.Context) ([]*creator.Creator, error) {
	candidates, err := s.creators.Find(ctx, &creator.Creator{Status: creator.StatusActive})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Tier.Rank() != candidates[j].Tier.Rank() {
			return candidates[i].Tier.Rank() > candidates[j].Tier.Rank()
		}
		return candidates[i].TrustScore > candidates[j].TrustScore
	})

	return candidates, nil
}
