// Package pattern learns per-user habits from check-in history and keeps the
// result in a cache the reminder scheduler reads from.
package pattern

import (
	"math"
	"time"

	"github.com/ykvlv/coach-bot/internal/domain"
)

const (
	// WindowDays is the span of history a pattern is learned from.
	WindowDays = 30
	// MinCheckIns is the least history a pattern is computed from.
	MinCheckIns = 7
	// MinTimeSamples is the least samples a typical time is averaged from.
	MinTimeSamples = 3

	morningFromM = 4 * 60
	morningToM   = 12 * 60 // hours 4..11
	eveningFromM = 17 * 60
	eveningToM   = 24 * 60 // hours 17..23

	anchorHour   = 8.0
	deadBandFrom = 6.0
	deadBandTo   = 10.0

	skipDayRatio = 0.5
)

// Analyze derives a UserPattern from the check-ins of the WindowDays ending on
// asOf's date. It reports false when fewer than MinCheckIns fall in the window.
func Analyze(checkins []domain.CheckIn, profile domain.UserProfile, asOf time.Time) (domain.UserPattern, bool) {
	last := domain.DayOf(asOf)
	first := last.AddDate(0, 0, -(WindowDays - 1))

	window := make([]domain.CheckIn, 0, len(checkins))
	for _, c := range checkins {
		d := domain.DayOf(c.Date)
		if d.Before(first) || d.After(last) {
			continue
		}
		window = append(window, c)
	}
	if len(window) < MinCheckIns {
		return domain.UserPattern{}, false
	}

	p := domain.UserPattern{
		UserID:                 profile.UserID,
		InferredOffset:         inferOffset(window),
		Consistency:            clamp01(float64(len(window)) / WindowDays),
		SleepAverage:           sleepAverage(window),
		SkipDays:               skipDays(window),
		PreferredReminderStyle: StyleForGoal(profile.Goal),
		Samples:                len(window),
		ComputedAt:             asOf,
	}

	loc := p.Location()
	if profile.Timezone != "" {
		if explicit, err := domain.ParseTimezone(profile.Timezone); err == nil {
			loc = explicit
		}
	}
	p.MorningM = typicalTime(window, loc, func(c domain.CheckIn) *time.Time { return c.WeightAt }, morningFromM, morningToM)
	p.EveningM = typicalTime(window, loc, func(c domain.CheckIn) *time.Time { return c.StepsAt }, eveningFromM, eveningToM)
	return p, true
}

// StyleForGoal is the default reminder tone for a goal.
func StyleForGoal(g domain.Goal) domain.ReminderStyle {
	switch g {
	case domain.GoalLoseWeight:
		return domain.StyleMotivational
	case domain.GoalGainMuscle:
		return domain.StyleStrict
	default:
		return domain.StyleFriendly
	}
}

// inferOffset guesses the UTC offset from when morning weights are logged.
// Weighing is assumed to happen around 08:00 local; averages inside
// [06:00, 10:00] UTC are taken as no offset.
func inferOffset(window []domain.CheckIn) int {
	hours := make([]float64, 0, len(window))
	for _, c := range window {
		if c.Weight == nil || c.WeightAt == nil {
			continue
		}
		t := c.WeightAt.UTC()
		hours = append(hours, float64(t.Hour())+float64(t.Minute())/60)
	}
	if len(hours) == 0 {
		return 0
	}
	avg := circularMeanHour(hours)
	if avg >= deadBandFrom && avg <= deadBandTo {
		return 0
	}
	off := int(math.Round(anchorHour - avg))
	switch {
	case off < -12:
		off += 24
	case off > 14:
		off -= 24
	}
	return off
}

// circularMeanHour averages clock hours so that 23:00 and 01:00 meet at 00:00.
func circularMeanHour(hours []float64) float64 {
	var sin, cos float64
	for _, h := range hours {
		a := h / 24 * 2 * math.Pi
		sin += math.Sin(a)
		cos += math.Cos(a)
	}
	avg := math.Atan2(sin, cos) / (2 * math.Pi) * 24
	if avg < 0 {
		avg += 24
	}
	return avg
}

func typicalTime(window []domain.CheckIn, loc *time.Location, at func(domain.CheckIn) *time.Time, fromM, toM int) *int {
	sum, n := 0, 0
	for _, c := range window {
		ts := at(c)
		if ts == nil {
			continue
		}
		m := domain.MinutesOfDay(ts.In(loc))
		if !domain.InWindow(m, fromM, toM) {
			continue
		}
		sum += m
		n++
	}
	if n < MinTimeSamples {
		return nil
	}
	avg := int(math.Round(float64(sum) / float64(n)))
	return &avg
}

func sleepAverage(window []domain.CheckIn) float64 {
	sum, n := 0.0, 0
	for _, c := range window {
		if c.SleepHours == nil {
			continue
		}
		sum += *c.SleepHours
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// skipDays marks weekdays whose check-in count is below half the mean of all
// seven weekday buckets.
func skipDays(window []domain.CheckIn) [7]bool {
	var counts [7]int
	for _, c := range window {
		counts[c.Date.Weekday()]++
	}
	mean := float64(len(window)) / 7
	var out [7]bool
	for d, n := range counts {
		out[d] = float64(n) < skipDayRatio*mean
	}
	return out
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
