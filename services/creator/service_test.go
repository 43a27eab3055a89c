package creator

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"liveshop-creatorplane/pkg/errutil"
	"liveshop-creatorplane/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) *Service {
	db := testutil.NewTestDB(t, &Creator{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return NewService(ServiceParams{DB: db, Node: node})
}

func TestOnboardDefaults(t *testing.T) {
	svc := newTestService(t)

	c, err := svc.Onboard(context.Background(), OnboardParams{
		DisplayName: "Jane Doe",
		Timezone:    "Asia/Jakarta",
		Availability: WeeklyAvailability{
			time.Monday: {{Start: "19:00", End: "23:00"}},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "jane-doe", c.Handle)
	require.Equal(t, TierBronze, c.Tier)
	require.Equal(t, 50.0, c.TrustScore)
	require.Equal(t, StatusPending, c.Status)
}

func TestOnboardDuplicateHandle(t *testing.T) {
	svc := newTestService(t)

	first, err := svc.Onboard(context.Background(), OnboardParams{DisplayName: "Jane Doe", Timezone: "UTC"})
	require.NoError(t, err)

	second, err := svc.Onboard(context.Background(), OnboardParams{DisplayName: "Jane Doe", Timezone: "UTC"})
	require.NoError(t, err)
	require.NotEqual(t, first.Handle, second.Handle)
	require.Contains(t, second.Handle, "jane-doe-")
}

func TestOnboardHandleRaceRetries(t *testing.T) {
	db := testutil.NewTestDB(t, &Creator{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	svc := NewService(ServiceParams{DB: db, Node: node})

	// A rival onboard lands between the handle check and the insert.
	raced := false
	err = db.Callback().Create().Before("gorm:create").Register("rival_onboard", func(tx *gorm.DB) {
		if raced {
			return
		}
		if _, ok := tx.Statement.Dest.(*Creator); !ok {
			return
		}
		raced = true
		require.NoError(t, db.Session(&gorm.Session{NewDB: true}).Create(&Creator{
			ID:          "cr_rival",
			Handle:      "jane-doe",
			DisplayName: "Jane Doe",
			Tier:        TierBronze,
			Status:      StatusPending,
		}).Error)
	})
	require.NoError(t, err)

	c, err := svc.Onboard(context.Background(), OnboardParams{DisplayName: "Jane Doe", Timezone: "UTC"})
	require.NoError(t, err)
	require.NotEqual(t, "jane-doe", c.Handle)
	require.Contains(t, c.Handle, "jane-doe-")
}

func TestOnboardInvalidTimezone(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Onboard(context.Background(), OnboardParams{DisplayName: "Jane", Timezone: "Mars/Olympus"})
	require.Error(t, err)
	require.True(t, errutil.HasStatus(err, errutil.StatusValidationFailed))
}

func TestOnboardInvalidAvailability(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Onboard(context.Background(), OnboardParams{
		DisplayName: "Jane",
		Timezone:    "UTC",
		Availability: WeeklyAvailability{
			time.Monday: {{Start: "23:00", End: "09:00"}},
		},
	})
	require.Error(t, err)
	require.True(t, errutil.HasStatus(err, errutil.StatusValidationFailed))
}

func TestActivateAndSuspend(t *testing.T) {
	svc := newTestService(t)

	c, err := svc.Onboard(context.Background(), OnboardParams{DisplayName: "Jane", Timezone: "UTC"})
	require.NoError(t, err)

	require.NoError(t, svc.Activate(context.Background(), c.ID))
	got, err := svc.Get(context.Background(), c.ID)
	require.NoError(t, err)
	require.Equal(t, StatusActive, got.Status)

	// Already active, the transition is rejected.
	err = svc.Activate(context.Background(), c.ID)
	require.True(t, errutil.HasStatus(err, errutil.StatusUnprocessableEntity))

	require.NoError(t, svc.Suspend(context.Background(), c.ID))
	got, err = svc.Get(context.Background(), c.ID)
	require.NoError(t, err)
	require.Equal(t, StatusSuspended, got.Status)

	// A suspended creator can be re-activated.
	require.NoError(t, svc.Activate(context.Background(), c.ID))
}

func TestSuspendPendingCreator(t *testing.T) {
	svc := newTestService(t)

	c, err := svc.Onboard(context.Background(), OnboardParams{DisplayName: "Jane", Timezone: "UTC"})
	require.NoError(t, err)

	err = svc.Suspend(context.Background(), c.ID)
	require.True(t, errutil.HasStatus(err, errutil.StatusUnprocessableEntity))
}

func TestTransitionUnknownCreator(t *testing.T) {
	svc := newTestService(t)

	err := svc.Activate(context.Background(), "missing")
	require.True(t, errutil.HasStatus(err, errutil.StatusNotFound))
}

func TestGetUnknownCreator(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Get(context.Background(), "missing")
	require.True(t, errutil.HasStatus(err, errutil.StatusNotFound))
}

func TestListActiveOrdering(t *testing.T) {
	svc := newTestService(t)

	seed := []struct {
		name  string
		tier  Tier
		trust float64
	}{
		{"Bronze Low", TierBronze, 40},
		{"Diamond", TierDiamond, 70},
		{"Gold High", TierGold, 90},
		{"Gold Low", TierGold, 60},
	}
	for _, s := range seed {
		c, err := svc.Onboard(context.Background(), OnboardParams{DisplayName: s.name, Timezone: "UTC"})
		require.NoError(t, err)
		require.NoError(t, svc.Activate(context.Background(), c.ID))
		require.NoError(t, svc.creators.Update(context.Background(), c.ID, map[string]any{
			"tier":        s.tier,
			"trust_score": s.trust,
		}))
	}

	// One pending creator that must not appear.
	_, err := svc.Onboard(context.Background(), OnboardParams{DisplayName: "Pending", Timezone: "UTC"})
	require.NoError(t, err)

	active, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 4)
	require.Equal(t, "Diamond", active[0].DisplayName)
	require.Equal(t, "Gold High", active[1].DisplayName)
	require.Equal(t, "Gold Low", active[2].DisplayName)
	require.Equal(t, "Bronze Low", active[3].DisplayName)
}

func TestSetAvailability(t *testing.T) {
	svc := newTestService(t)

	c, err := svc.Onboard(context.Background(), OnboardParams{DisplayName: "Jane", Timezone: "UTC"})
	require.NoError(t, err)

	availability := WeeklyAvailability{
		time.Saturday: {{Start: "10:00", End: "14:00"}},
	}
	require.NoError(t, svc.SetAvailability(context.Background(), c.ID, availability))

	got, err := svc.Get(context.Background(), c.ID)
	require.NoError(t, err)
	require.True(t, got.Availability.Data().HasWeekday(time.Saturday))
	require.False(t, got.Availability.Data().HasWeekday(time.Monday))

	err = svc.SetAvailability(context.Background(), c.ID, WeeklyAvailability{
		time.Monday: {{Start: "14:00", End: "10:00"}},
	})
	require.True(t, errutil.HasStatus(err, errutil.StatusValidationFailed))
}
