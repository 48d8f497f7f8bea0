package pattern

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ykvlv/coach-bot/internal/domain"
)

var asOf = time.Date(2025, time.June, 30, 21, 0, 0, 0, time.UTC)

// history builds one check-in per day for the last n days, weighed at
// localHour:localMin in a zone offset hours east of UTC and steps logged at 21:00 local.
func history(n, offset, localHour, localMin int) []domain.CheckIn {
	loc := time.FixedZone("test", offset*3600)
	last := domain.DayOf(asOf)
	out := make([]domain.CheckIn, 0, n)
	for i := n - 1; i >= 0; i-- {
		day := last.AddDate(0, 0, -i)
		w, steps, sleep := 80.0, 8000, 7.5
		weighed := time.Date(day.Year(), day.Month(), day.Day(), localHour, localMin, 0, 0, loc).UTC()
		walked := time.Date(day.Year(), day.Month(), day.Day(), 21, 0, 0, 0, loc).UTC()
		out = append(out, domain.CheckIn{
			UserID:     7,
			Date:       day,
			Weight:     &w,
			WeightAt:   &weighed,
			Steps:      &steps,
			StepsAt:    &walked,
			SleepHours: &sleep,
		})
	}
	return out
}

func TestAnalyze_InsufficientHistory(t *testing.T) {
	_, ok := Analyze(history(6, 0, 8, 0), domain.UserProfile{UserID: 7}, asOf)
	assert.False(t, ok)

	// Old check-ins outside the window do not count.
	old := history(10, 0, 8, 0)
	for i := range old {
		old[i].Date = old[i].Date.AddDate(0, 0, -60)
	}
	_, ok = Analyze(old, domain.UserProfile{UserID: 7}, asOf)
	assert.False(t, ok)
}

func TestAnalyze_TimezoneRoundTrip(t *testing.T) {
	for _, offset := range []int{-10, -7, -4, 0, 5, 9, 10, 11} {
		checkins := history(30, offset, 8, 0)
		p, ok := Analyze(checkins, domain.UserProfile{UserID: 7}, asOf)
		require.True(t, ok)

		recorded := checkins[len(checkins)-1].WeightAt.UTC()
		local := recorded.In(p.Location())
		if offset >= -2 && offset <= 2 {
			// Inside the dead band the offset stays zero, and so does the
			// learned time, keeping both in the same frame.
			assert.Equal(t, 0, p.InferredOffset)
			continue
		}
		assert.Equal(t, offset, p.InferredOffset, "offset %d", offset)
		assert.Equal(t, 8, local.Hour(), "offset %d", offset)
		require.NotNil(t, p.MorningM)
		assert.Equal(t, 8*60, *p.MorningM, "offset %d", offset)
	}
}

func TestAnalyze_ExplicitTimezoneWinsForTimes(t *testing.T) {
	checkins := history(30, 3, 7, 30)
	profile := domain.UserProfile{UserID: 7, Timezone: "UTC+3"}

	p, ok := Analyze(checkins, profile, asOf)
	require.True(t, ok)
	require.NotNil(t, p.MorningM)
	require.NotNil(t, p.EveningM)
	assert.Equal(t, 7*60+30, *p.MorningM)
	assert.Equal(t, 21*60, *p.EveningM)
}

func TestAnalyze_TimesNeedEnoughSamplesInsideWindow(t *testing.T) {
	checkins := history(10, 0, 14, 0) // afternoon weighing is not a morning habit
	p, ok := Analyze(checkins, domain.UserProfile{UserID: 7, Timezone: "UTC"}, asOf)
	require.True(t, ok)
	assert.Nil(t, p.MorningM)
	assert.NotNil(t, p.EveningM)

	for i := range checkins {
		if i >= 2 {
			checkins[i].StepsAt = nil
		}
	}
	p, _ = Analyze(checkins, domain.UserProfile{UserID: 7, Timezone: "UTC"}, asOf)
	assert.Nil(t, p.EveningM)
}

func TestAnalyze_ConsistencySleepAndStyle(t *testing.T) {
	p, ok := Analyze(history(15, 0, 8, 0), domain.UserProfile{UserID: 7, Goal: domain.GoalGainMuscle}, asOf)
	require.True(t, ok)
	assert.InDelta(t, 0.5, p.Consistency, 1e-9)
	assert.InDelta(t, 7.5, p.SleepAverage, 1e-9)
	assert.Equal(t, domain.StyleStrict, p.PreferredReminderStyle)
	assert.Equal(t, 15, p.Samples)
	assert.Equal(t, int64(7), p.UserID)

	full, _ := Analyze(history(30, 0, 8, 0), domain.UserProfile{UserID: 7}, asOf)
	assert.InDelta(t, 1.0, full.Consistency, 1e-9)
}

func TestAnalyze_SkipDays(t *testing.T) {
	var kept []domain.CheckIn
	for _, c := range history(28, 0, 8, 0) {
		if c.Date.Weekday() == time.Sunday {
			continue
		}
		if c.Date.Weekday() == time.Saturday && c.Date.Day()%2 == 0 {
			continue
		}
		kept = append(kept, c)
	}
	p, ok := Analyze(kept, domain.UserProfile{UserID: 7}, asOf)
	require.True(t, ok)

	assert.True(t, p.Skips(time.Sunday))
	assert.False(t, p.Skips(time.Monday))
	assert.False(t, p.Skips(time.Wednesday))
}

func TestStyleForGoal(t *testing.T) {
	assert.Equal(t, domain.StyleMotivational, StyleForGoal(domain.GoalLoseWeight))
	assert.Equal(t, domain.StyleStrict, StyleForGoal(domain.GoalGainMuscle))
	assert.Equal(t, domain.StyleFriendly, StyleForGoal(domain.GoalMaintain))
}
