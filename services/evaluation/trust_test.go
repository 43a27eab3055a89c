package evaluation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"liveshop-creatorplane/services/show"
)

func TestComputeTrustScoreNewCreator(t *testing.T) {
	// No history: base 50 plus a clean reliability component.
	score := ComputeTrustScore(show.CreatorPerformance{})
	require.InDelta(t, 80.0, score, 1e-9)
}

func TestComputeTrustScoreCapped(t *testing.T) {
	score := ComputeTrustScore(show.CreatorPerformance{
		TotalShows:     150,
		ConversionRate: 7.5,
		QualityScore:   100,
	})
	require.Equal(t, 100.0, score)
}

func TestComputeTrustScoreReliabilityPenalty(t *testing.T) {
	// 2 no-shows and 4 late starts burn 40 reliability points.
	score := ComputeTrustScore(show.CreatorPerformance{
		NoShowCount:    2,
		LateStartCount: 4,
	})
	require.InDelta(t, 50+60.0/100*30, score, 1e-9)
}

func TestComputeTrustScoreReliabilityFloor(t *testing.T) {
	// Heavy no-show history cannot push reliability below zero.
	score := ComputeTrustScore(show.CreatorPerformance{NoShowCount: 50})
	require.InDelta(t, 50.0, score, 1e-9)
}

func TestComputeTrustScoreConversionBrackets(t *testing.T) {
	base := ComputeTrustScore(show.CreatorPerformance{})

	cases := []struct {
		conversion float64
		bonus      float64
	}{
		{0.5, 0},
		{1, 10},
		{2.9, 10},
		{3, 15},
		{4.9, 15},
		{5, 20},
		{12, 20},
	}
	for _, tc := range cases {
		score := ComputeTrustScore(show.CreatorPerformance{ConversionRate: tc.conversion})
		require.InDelta(t, base+tc.bonus, score, 1e-9)
	}
}

func TestComputeTrustScoreConsistencyBrackets(t *testing.T) {
	base := ComputeTrustScore(show.CreatorPerformance{})

	cases := []struct {
		shows int
		bonus float64
	}{
		{0, 0},
		{9, 0},
		{10, 5},
		{20, 10},
		{50, 15},
		{100, 20},
	}
	for _, tc := range cases {
		score := ComputeTrustScore(show.CreatorPerformance{TotalShows: tc.shows})
		require.InDelta(t, base+tc.bonus, score, 1e-9)
	}
}

func TestComputeTrustScoreDeterministic(t *testing.T) {
	perf := show.CreatorPerformance{
		TotalShows:     42,
		ConversionRate: 3.3,
		QualityScore:   77,
		NoShowCount:    1,
		LateStartCount: 2,
	}
	require.Equal(t, ComputeTrustScore(perf), ComputeTrustScore(perf))
}
