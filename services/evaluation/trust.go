package evaluation

import (
	"liveshop-creatorplane/services/show"
)

// ComputeTrustScore derives the 0-100 composite reliability/quality score from
// a performance snapshot. Pure and deterministic: identical snapshots always
// yield identical scores.
func ComputeTrustScore(perf show.CreatorPerformance) float64 {
	score := 50.0

	reliability := clamp(100-float64(perf.NoShowCount*10+perf.LateStartCount*5), 0, 100)
	score += reliability / 100 * 30

	score += clamp(perf.QualityScore, 0, 100) / 100 * 30

	switch {
	case perf.ConversionRate >= 5:
		score += 20
	case perf.ConversionRate >= 3:
		score += 15
	case perf.ConversionRate >= 1:
		score += 10
	}

	switch {
	case perf.TotalShows >= 100:
		score += 20
	case perf.TotalShows >= 50:
		score += 15
	case perf.TotalShows >= 20:
		score += 10
	case perf.TotalShows >= 10:
		score += 5
	}

	return clamp(score, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
