package plateau

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ykvlv/coach-bot/internal/domain"
)

var asOf = time.Date(2025, time.June, 30, 12, 0, 0, 0, time.UTC)

// series builds daily samples ending on asOf's date.
func series(weights ...float64) []domain.WeightSample {
	end := domain.DayOf(asOf)
	out := make([]domain.WeightSample, len(weights))
	for i, w := range weights {
		out[i] = domain.WeightSample{
			Date:   end.AddDate(0, 0, i-len(weights)+1),
			Weight: w,
		}
	}
	return out
}

func TestDetect_ExampleScenario(t *testing.T) {
	v := Detect(series(80.1, 80.0, 80.3, 79.9, 80.2, 80.0, 80.1), asOf)

	assert.True(t, v.IsPlateau)
	assert.Equal(t, 7, v.PlateauDays)
	assert.InDelta(t, 0.4, v.WeightRange, 1e-9)
}

func TestDetect_InsufficientData(t *testing.T) {
	cases := [][]domain.WeightSample{
		nil,
		series(80),
		series(80, 80, 80, 80, 80, 80),
	}
	for _, c := range cases {
		assert.Equal(t, domain.PlateauVerdict{}, Detect(c, asOf))
	}
}

func TestDetect_OldSamplesDoNotCountTowardsWindow(t *testing.T) {
	// Seven flat samples, but only three of them inside the trailing 14 days.
	s := series(80, 80, 80, 80, 80, 80, 80)
	for i := 0; i < 4; i++ {
		s[i].Date = s[i].Date.AddDate(0, 0, -30)
	}
	assert.Equal(t, domain.PlateauVerdict{}, Detect(s, asOf))
}

func TestDetect_BandBoundary(t *testing.T) {
	flat := Detect(series(80.0, 80.5, 80.0, 80.5, 80.0, 80.5, 80.0), asOf)
	assert.True(t, flat.IsPlateau, "0.5 kg band is still a plateau")

	moving := Detect(series(80.0, 80.2, 80.4, 80.6, 80.8, 81.0, 81.2), asOf)
	assert.False(t, moving.IsPlateau)
	assert.InDelta(t, 1.2, moving.WeightRange, 1e-9)
}

func TestDetect_PlateauDaysIndependentOfWindow(t *testing.T) {
	// A drop breaks the run three samples back; the window still spans it.
	v := Detect(series(80.0, 80.1, 80.2, 80.3, 79.0, 79.1, 79.0, 79.2), asOf)
	assert.False(t, v.IsPlateau)
	assert.Equal(t, 4, v.PlateauDays)

	// A long flat history extends the duration past the window size.
	long := make([]float64, 22)
	for i := range long {
		long[i] = 75 + float64(i%2)*0.2
	}
	v = Detect(series(long...), asOf)
	assert.True(t, v.IsPlateau)
	assert.Equal(t, 22, v.PlateauDays)
}

func TestDetect_IgnoresOrderAndFutureSamples(t *testing.T) {
	s := series(80.1, 80.0, 80.3, 79.9, 80.2, 80.0, 80.1)
	reversed := make([]domain.WeightSample, len(s))
	for i := range s {
		reversed[len(s)-1-i] = s[i]
	}
	future := append(reversed, domain.WeightSample{Date: asOf.AddDate(0, 0, 3), Weight: 90})

	require.Equal(t, Detect(s, asOf), Detect(future, asOf))
}

func TestDetect_Deterministic(t *testing.T) {
	s := series(70.2, 70.1, 70.4, 70.0, 70.3, 70.2, 70.1, 70.2)
	first := Detect(s, asOf)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, Detect(s, asOf))
	}
}

func TestDetect_MissedDayEndsTheRun(t *testing.T) {
	// One weigh-in two months ago, then a week of daily flat weigh-ins.
	s := series(80, 80, 80, 80, 80, 80, 80)
	s = append([]domain.WeightSample{{Date: domain.DayOf(asOf).AddDate(0, 0, -60), Weight: 80}}, s...)

	v := Detect(s, asOf)
	assert.True(t, v.IsPlateau)
	assert.Equal(t, 7, v.PlateauDays)

	res := Plan(domain.GoalLoseWeight, v, loseProfile())
	assert.Equal(t, -100, res.CalorieAdjustment)
	assert.Nil(t, res.Refeed)
	assert.False(t, DietBreakSuggested(loseProfile(), checkinsFrom(s), asOf))

	// A single skipped day also splits the run.
	gap := series(80, 80, 80, 80, 80, 80, 80, 80, 80, 80)
	gap = append(gap[:3], gap[4:]...)
	assert.Equal(t, 6, Detect(gap, asOf).PlateauDays)
}

func TestDetect_WindowSpansFourteenCalendarDays(t *testing.T) {
	// Seven samples, the oldest exactly 14 calendar days back counting asOf's date.
	end := domain.DayOf(asOf)
	var s []domain.WeightSample
	for _, back := range []int{13, 11, 9, 7, 5, 3, 0} {
		s = append(s, domain.WeightSample{Date: end.AddDate(0, 0, -back), Weight: 80})
	}
	assert.True(t, Detect(s, asOf).IsPlateau)

	s[0].Date = end.AddDate(0, 0, -14)
	assert.Equal(t, domain.PlateauVerdict{}, Detect(s, asOf))
}
