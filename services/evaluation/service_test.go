package evaluation

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"liveshop-creatorplane/pkg/errutil"
	"liveshop-creatorplane/services/creator"
	"liveshop-creatorplane/services/show"
	"liveshop-creatorplane/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	db := testutil.NewTestDB(t, &creator.Creator{}, &show.LiveShow{}, &show.CreatorPerformance{})
	return NewService(ServiceParams{DB: db}), db
}

func seedCreator(t *testing.T, db *gorm.DB, id string, tier creator.Tier, status creator.Status) {
	t.Helper()
	require.NoError(t, db.Create(&creator.Creator{
		ID:          id,
		Handle:      id,
		DisplayName: id,
		Tier:        tier,
		TrustScore:  50,
		Timezone:    "UTC",
		Status:      status,
	}).Error)
}

func seedCompletedShow(t *testing.T, db *gorm.DB, id, creatorID string, revenue int64, endedAt time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&show.LiveShow{
		ID:            id,
		ScheduleID:    "sch_" + id,
		CreatorID:     creatorID,
		StartedAt:     endedAt.Add(-2 * time.Hour),
		EndedAt:       &endedAt,
		Status:        show.StatusCompleted,
		Revenue:       decimal.NewFromInt(revenue),
		AvgOrderValue: decimal.Zero,
	}).Error)
}

func TestEvaluateTierPromotion(t *testing.T) {
	svc, db := newTestService(t)
	seedCreator(t, db, "cr_1", creator.TierBronze, creator.StatusActive)
	seedCompletedShow(t, db, "show_1", "cr_1", 20_000, time.Now().Add(-48*time.Hour))
	seedCompletedShow(t, db, "show_2", "cr_1", 15_000, time.Now().Add(-24*time.Hour))

	result, err := svc.EvaluateTier(context.Background(), "cr_1")
	require.NoError(t, err)
	require.Equal(t, creator.TierGold, result.NewTier)
	require.Equal(t, "35000", result.MonthlyRevenue.String())

	var c creator.Creator
	require.NoError(t, db.First(&c, "id = ?", "cr_1").Error)
	require.Equal(t, creator.TierGold, c.Tier)
}

func TestEvaluateTierDemotion(t *testing.T) {
	svc, db := newTestService(t)
	seedCreator(t, db, "cr_1", creator.TierDiamond, creator.StatusActive)
	seedCompletedShow(t, db, "show_1", "cr_1", 5_000, time.Now().Add(-24*time.Hour))

	result, err := svc.EvaluateTier(context.Background(), "cr_1")
	require.NoError(t, err)
	require.Equal(t, creator.TierBronze, result.NewTier)
}

func TestEvaluateTierIgnoresRevenueOutsideWindow(t *testing.T) {
	svc, db := newTestService(t)
	seedCreator(t, db, "cr_1", creator.TierBronze, creator.StatusActive)
	seedCompletedShow(t, db, "show_1", "cr_1", 500_000, time.Now().Add(-40*24*time.Hour))

	result, err := svc.EvaluateTier(context.Background(), "cr_1")
	require.NoError(t, err)
	require.Equal(t, creator.TierBronze, result.NewTier)
	require.True(t, result.MonthlyRevenue.IsZero())
}

func TestEvaluateTierUnknownCreator(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.EvaluateTier(context.Background(), "missing")
	require.True(t, errutil.HasStatus(err, errutil.StatusNotFound))
}

func TestEvaluateTrustPersists(t *testing.T) {
	svc, db := newTestService(t)
	seedCreator(t, db, "cr_1", creator.TierSilver, creator.StatusActive)
	require.NoError(t, db.Create(&show.CreatorPerformance{
		CreatorID:      "cr_1",
		TotalShows:     20,
		TotalRevenue:   decimal.NewFromInt(10_000),
		AvgOrderValue:  decimal.NewFromInt(50),
		ConversionRate: 3.5,
		QualityScore:   50,
		NoShowCount:    3,
	}).Error)

	score, err := svc.EvaluateTrust(context.Background(), "cr_1")
	require.NoError(t, err)
	// 50 base + 21 reliability + 15 quality + 15 conversion + 10 consistency.
	require.InDelta(t, 50+70.0/100*30+15+15+10, score, 1e-9)

	var c creator.Creator
	require.NoError(t, db.First(&c, "id = ?", "cr_1").Error)
	require.InDelta(t, score, c.TrustScore, 1e-9)

	var perf show.CreatorPerformance
	require.NoError(t, db.First(&perf, "creator_id = ?", "cr_1").Error)
	require.NotNil(t, perf.LastEvaluatedAt)
}

func TestEvaluateTrustWithoutHistory(t *testing.T) {
	svc, db := newTestService(t)
	seedCreator(t, db, "cr_1", creator.TierBronze, creator.StatusActive)

	score, err := svc.EvaluateTrust(context.Background(), "cr_1")
	require.NoError(t, err)
	require.InDelta(t, 80.0, score, 1e-9)
}

func TestEvaluateAllSkipsInactive(t *testing.T) {
	svc, db := newTestService(t)
	seedCreator(t, db, "cr_1", creator.TierBronze, creator.StatusActive)
	seedCreator(t, db, "cr_2", creator.TierBronze, creator.StatusActive)
	seedCreator(t, db, "cr_3", creator.TierBronze, creator.StatusSuspended)

	result, err := svc.EvaluateAllTiers(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, result.Evaluated)
	require.Zero(t, result.Failed)

	result, err = svc.EvaluateAllTrust(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, result.Evaluated)
}
