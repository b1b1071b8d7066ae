// Package catalog turns raw API records into display-ready view models:
// rating aggregation, id resolution, per-user statistics, activity feeds and
// derived lists. Every function here is pure.
package catalog

import (
	"math"

	"github.com/Clark-Hu/cinelog/internal/domain"
)

// ReviewAverage is the unrounded mean of a review's three sub-scores.
func ReviewAverage(r domain.Review) float64 {
	return float64(r.NoteVisual+r.NoteAction+r.NoteScenario) / 3
}

// StatsByMovie groups reviews by movie id. Movies without reviews have no
// entry, so callers can tell "not yet reviewed" apart from a zero rating.
func StatsByMovie(reviews []domain.Review) map[int]domain.ReviewStats {
	type acc struct {
		total    float64
		count    int
		lastDate string
	}
	totals := make(map[int]*acc)
	for _, r := range reviews {
		entry, ok := totals[r.MovieID]
		if !ok {
			entry = &acc{lastDate: r.DateReviewed}
			totals[r.MovieID] = entry
		}
		entry.total += ReviewAverage(r)
		entry.count++
		// ISO dates order lexicographically.
		if r.DateReviewed > entry.lastDate {
			entry.lastDate = r.DateReviewed
		}
	}

	stats := make(map[int]domain.ReviewStats, len(totals))
	for movieID, entry := range totals {
		stats[movieID] = domain.ReviewStats{
			Average:  Round2(entry.total / float64(entry.count)),
			Count:    entry.count,
			LastDate: entry.lastDate,
		}
	}
	return stats
}

// ValidNotes reports whether every sub-score is within bounds.
func ValidNotes(visual, action, scenario int) bool {
	for _, n := range []int{visual, action, scenario} {
		if n < domain.MinNote || n > domain.MaxNote {
			return false
		}
	}
	return true
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round1 rounds half away from zero to one decimal.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
