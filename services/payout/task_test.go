package payout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"liveshop-creatorplane/pkg/config"
)

func TestPreviousMonth(t *testing.T) {
	start, end := previousMonth(time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC))
	require.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), start)
	require.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), end)

	// January rolls back into the previous year.
	start, end = previousMonth(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	require.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), start)
	require.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestSchedulerOutlivesStartHook(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	cfg := &config.Config{}
	cfg.Engine.PayoutRunHour = (time.Now().Hour() + 12) % 24

	s := NewScheduler(nil, cfg)
	lc := fxtest.NewLifecycle(t)
	StartScheduler(lc, s)
	lc.RequireStart()

	// The start hook context is cancelled once RequireStart returns; the loop
	// must keep waiting for its next tick.
	time.Sleep(100 * time.Millisecond)
	require.Zero(t, logs.FilterMessage("[Scheduler] stopped").Len())

	lc.RequireStop()
	require.Eventually(t, func() bool {
		return logs.FilterMessage("[Scheduler] stopped").Len() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestNextRunTime(t *testing.T) {
	now := time.Date(2026, 8, 23, 1, 0, 0, 0, time.UTC)

	next := nextRunTime(now, 2, 0)
	require.Equal(t, time.Date(2026, 8, 23, 2, 0, 0, 0, time.UTC), next)

	// Past today's run hour, the next run is tomorrow.
	next = nextRunTime(now.Add(2*time.Hour), 2, 0)
	require.Equal(t, time.Date(2026, 8, 24, 2, 0, 0, 0, time.UTC), next)
}
