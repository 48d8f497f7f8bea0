// Package plateau detects stalled weight progress and plans corrections.
package plateau

import (
	"sort"
	"time"

	"github.com/ykvlv/coach-bot/internal/domain"
)

const (
	// WindowSize is the number of most recent weighings a plateau is judged on.
	WindowSize = 7
	// LookbackDays is how many calendar days, asOf's included, the window
	// may be drawn from.
	LookbackDays = 14
	// Threshold is the largest weight movement, in kg, that still counts as flat.
	Threshold = 0.5

	epsilon = 1e-9
)

// Detect judges whether weight progress has stalled as of asOf.
//
// The window test uses the last WindowSize samples inside the trailing
// LookbackDays. PlateauDays walks back over the whole history supplied, so a
// caller passing a longer history gets durations beyond two weeks, but the
// walk stops at the first missed day.
// Fewer than WindowSize recent samples yields the zero verdict.
func Detect(samples []domain.WeightSample, asOf time.Time) domain.PlateauVerdict {
	sorted := make([]domain.WeightSample, 0, len(samples))
	for _, s := range samples {
		if s.Date.After(asOf) {
			continue
		}
		sorted = append(sorted, s)
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	from := domain.DayOf(asOf).AddDate(0, 0, -(LookbackDays - 1))
	recent := 0
	for _, s := range sorted {
		if !s.Date.Before(from) {
			recent++
		}
	}
	if recent < WindowSize {
		return domain.PlateauVerdict{}
	}

	window := sorted[len(sorted)-WindowSize:]
	lo, hi := window[0].Weight, window[0].Weight
	for _, s := range window[1:] {
		if s.Weight < lo {
			lo = s.Weight
		}
		if s.Weight > hi {
			hi = s.Weight
		}
	}
	spread := hi - lo

	return domain.PlateauVerdict{
		IsPlateau:   spread <= Threshold+epsilon,
		PlateauDays: flatRunDays(sorted),
		WeightRange: spread,
	}
}

// flatRunDays counts calendar days covered by the trailing run of samples whose
// adjacent deltas stay within Threshold and whose dates are at most one day
// apart. No qualifying delta means zero.
func flatRunDays(sorted []domain.WeightSample) int {
	n := len(sorted)
	if n < 2 {
		return 0
	}
	start := n - 1
	for i := n - 1; i > 0; i-- {
		if domain.DayOf(sorted[i].Date).Sub(domain.DayOf(sorted[i-1].Date)) > 24*time.Hour {
			break
		}
		d := sorted[i].Weight - sorted[i-1].Weight
		if d < 0 {
			d = -d
		}
		if d > Threshold+epsilon {
			break
		}
		start = i - 1
	}
	if start == n-1 {
		return 0
	}
	first := domain.DayOf(sorted[start].Date)
	last := domain.DayOf(sorted[n-1].Date)
	return int(last.Sub(first).Hours()/24) + 1
}
