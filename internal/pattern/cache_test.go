package pattern

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ykvlv/coach-bot/internal/domain"
)

func TestMemoryCache_WholeValueSwap(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	_, ok := c.GetPattern(ctx, 1)
	assert.False(t, ok)

	morning := 8 * 60
	p := domain.UserPattern{UserID: 1, MorningM: &morning, Consistency: 0.8}
	require.NoError(t, c.PutPattern(ctx, p))

	// Mutating the caller's copy after Put must not leak into the cache.
	morning = 11 * 60
	got, ok := c.GetPattern(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, 8*60, *got.MorningM)

	require.NoError(t, c.PutPattern(ctx, domain.UserPattern{UserID: 1, Consistency: 0.3}))
	got, _ = c.GetPattern(ctx, 1)
	assert.Nil(t, got.MorningM)
	assert.InDelta(t, 0.3, got.Consistency, 1e-9)

	require.NoError(t, c.DeletePattern(ctx, 1))
	_, ok = c.GetPattern(ctx, 1)
	assert.False(t, ok)
}

func TestPatternRecord_PreservesFields(t *testing.T) {
	morning, evening := 7*60+45, 20*60+10
	in := domain.UserPattern{
		UserID:                 42,
		InferredOffset:         -4,
		MorningM:               &morning,
		EveningM:               &evening,
		Consistency:            0.7,
		SleepAverage:           6.5,
		PreferredReminderStyle: domain.StyleStrict,
		Samples:                21,
		ComputedAt:             time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC),
	}
	in.SkipDays[time.Sunday] = true
	in.SkipDays[time.Saturday] = true

	raw, err := encodePattern(in)
	require.NoError(t, err)
	out, err := decodePattern(raw)
	require.NoError(t, err)
	assert.True(t, in.ComputedAt.Equal(out.ComputedAt))
	out.ComputedAt = in.ComputedAt
	assert.Equal(t, in, out)

	_, err = decodePattern([]byte(`{"skip_days":[9]}`))
	assert.Error(t, err)
}
