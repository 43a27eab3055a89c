package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"liveshop-creatorplane/pkg/errutil"
	"liveshop-creatorplane/services/creator"
)

func seedRankedCreator(t *testing.T, db *gorm.DB, id string, tier creator.Tier, trust float64, days ...time.Weekday) {
	t.Helper()
	availability := creator.WeeklyAvailability{}
	for _, day := range days {
		availability[day] = []creator.TimeWindow{{Start: "00:00", End: "23:59"}}
	}
	require.NoError(t, db.Create(&creator.Creator{
		ID:           id,
		Handle:       id,
		DisplayName:  id,
		Tier:         tier,
		TrustScore:   trust,
		Availability: datatypes.NewJSONType(availability),
		Timezone:     "UTC",
		Status:       creator.StatusActive,
	}).Error)
}

func TestPlanCoverageUncapped(t *testing.T) {
	svc, db := newTestService(t)
	seedRankedCreator(t, db, "cr_diamond", creator.TierDiamond, 90, time.Monday)
	seedRankedCreator(t, db, "cr_gold", creator.TierGold, 85, time.Monday)
	seedRankedCreator(t, db, "cr_silver", creator.TierSilver, 70, time.Monday)

	plan, err := svc.PlanCoverage(context.Background(), PlanParams{
		HorizonStart: monday,
		HorizonEnd:   monday.Add(24 * time.Hour),
		BlockLength:  2 * time.Hour,
	})
	require.NoError(t, err)
	require.Equal(t, 12, plan.TotalSlots)
	require.Equal(t, 12, plan.FilledSlots)
	require.Equal(t, 100.0, plan.Coverage)

	// Without a per-creator cap the top-ranked creator absorbs every block.
	for _, a := range plan.Assignments {
		require.Equal(t, "cr_diamond", a.CreatorID)
	}
}

func TestPlanCoverageCapped(t *testing.T) {
	svc, db := newTestService(t)
	seedRankedCreator(t, db, "cr_diamond", creator.TierDiamond, 90, time.Monday)
	seedRankedCreator(t, db, "cr_gold", creator.TierGold, 85, time.Monday)
	seedRankedCreator(t, db, "cr_silver", creator.TierSilver, 70, time.Monday)

	plan, err := svc.PlanCoverage(context.Background(), PlanParams{
		HorizonStart:        monday,
		HorizonEnd:          monday.Add(24 * time.Hour),
		BlockLength:         2 * time.Hour,
		MaxBlocksPerCreator: 5,
	})
	require.NoError(t, err)
	require.Equal(t, 12, plan.FilledSlots)

	counts := map[string]int{}
	for _, a := range plan.Assignments {
		counts[a.CreatorID]++
	}
	require.Equal(t, 5, counts["cr_diamond"])
	require.Equal(t, 5, counts["cr_gold"])
	require.Equal(t, 2, counts["cr_silver"])
}

func TestPlanCoverageRespectsAvailability(t *testing.T) {
	svc, db := newTestService(t)
	// Only available Mondays, horizon spans Monday and Tuesday.
	seedRankedCreator(t, db, "cr_1", creator.TierGold, 80, time.Monday)

	plan, err := svc.PlanCoverage(context.Background(), PlanParams{
		HorizonStart: monday,
		HorizonEnd:   monday.Add(48 * time.Hour),
		BlockLength:  2 * time.Hour,
	})
	require.NoError(t, err)
	require.Equal(t, 24, plan.TotalSlots)
	require.Equal(t, 12, plan.FilledSlots)
	require.Equal(t, 50.0, plan.Coverage)
}

func TestPlanCoverageSkipsReservedSlots(t *testing.T) {
	svc, db := newTestService(t)
	seedRankedCreator(t, db, "cr_1", creator.TierGold, 80, time.Monday)

	// An existing reservation blocks the 10:00-12:00 block.
	_, err := svc.Create(context.Background(), CreateParams{
		CreatorID: "cr_1",
		StartAt:   monday.Add(10 * time.Hour),
		EndAt:     monday.Add(12 * time.Hour),
	})
	require.NoError(t, err)

	plan, err := svc.PlanCoverage(context.Background(), PlanParams{
		HorizonStart: monday,
		HorizonEnd:   monday.Add(24 * time.Hour),
		BlockLength:  2 * time.Hour,
	})
	require.NoError(t, err)
	require.Equal(t, 12, plan.TotalSlots)
	require.Equal(t, 11, plan.FilledSlots)
	for _, a := range plan.Assignments {
		require.False(t, Overlaps(a.Start, a.End, monday.Add(10*time.Hour), monday.Add(12*time.Hour)))
	}
}

func TestPlanCoverageDefaultBlockLength(t *testing.T) {
	svc, db := newTestService(t)
	seedRankedCreator(t, db, "cr_1", creator.TierGold, 80, time.Monday)

	plan, err := svc.PlanCoverage(context.Background(), PlanParams{
		HorizonStart: monday,
		HorizonEnd:   monday.Add(24 * time.Hour),
	})
	require.NoError(t, err)
	require.Equal(t, 12, plan.TotalSlots)
}

func TestPlanCoverageInvalidHorizon(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.PlanCoverage(context.Background(), PlanParams{
		HorizonStart: monday,
		HorizonEnd:   monday,
	})
	require.True(t, errutil.HasStatus(err, errutil.StatusValidationFailed))
}
