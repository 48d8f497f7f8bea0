package pattern

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ykvlv/coach-bot/internal/domain"
)

type fakeCheckIns struct {
	mu    sync.Mutex
	data  map[int64][]domain.CheckIn
	err   error
	calls int
}

func (f *fakeCheckIns) GetRecentCheckIns(_ context.Context, userID int64, since time.Time) ([]domain.CheckIn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.CheckIn
	for _, c := range f.data[userID] {
		if !c.Date.Before(since) {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeLister struct{ users []domain.UserProfile }

func (f fakeLister) ListActive(context.Context) ([]domain.UserProfile, error) { return f.users, nil }

func TestService_ReadThroughAndDailyCadence(t *testing.T) {
	ctx := context.Background()
	now := asOf
	repo := &fakeCheckIns{data: map[int64][]domain.CheckIn{7: history(20, 0, 8, 0)}}
	svc := NewService(NewMemoryCache(), repo, zap.NewNop(), nil).WithClock(func() time.Time { return now })
	profile := domain.UserProfile{UserID: 7, Goal: domain.GoalMaintain}

	p, ok := svc.Pattern(ctx, profile)
	require.True(t, ok)
	assert.Equal(t, domain.StyleFriendly, p.PreferredReminderStyle)
	assert.Equal(t, 1, repo.calls)

	now = now.Add(2 * time.Hour)
	_, ok = svc.Pattern(ctx, profile)
	require.True(t, ok)
	assert.Equal(t, 1, repo.calls, "fresh pattern is served from cache")

	now = now.Add(MaxAge)
	_, ok = svc.Pattern(ctx, profile)
	require.True(t, ok)
	assert.Equal(t, 2, repo.calls, "stale pattern is recomputed")
}

func TestService_InsufficientDataIsNotRetriedEveryCall(t *testing.T) {
	ctx := context.Background()
	now := asOf
	repo := &fakeCheckIns{data: map[int64][]domain.CheckIn{7: history(3, 0, 8, 0)}}
	svc := NewService(NewMemoryCache(), repo, zap.NewNop(), nil).WithClock(func() time.Time { return now })
	profile := domain.UserProfile{UserID: 7}

	for i := 0; i < 5; i++ {
		_, ok := svc.Pattern(ctx, profile)
		assert.False(t, ok)
		now = now.Add(time.Minute)
	}
	assert.Equal(t, 1, repo.calls)
}

func TestService_StalePatternSurvivesFailure(t *testing.T) {
	ctx := context.Background()
	now := asOf
	cache := NewMemoryCache()
	repo := &fakeCheckIns{err: errors.New("db down")}
	svc := NewService(cache, repo, zap.NewNop(), nil).WithClock(func() time.Time { return now })

	old := domain.UserPattern{UserID: 7, Consistency: 0.9, ComputedAt: now.Add(-3 * MaxAge)}
	require.NoError(t, cache.PutPattern(ctx, old))

	p, ok := svc.Pattern(ctx, domain.UserProfile{UserID: 7})
	require.True(t, ok)
	assert.InDelta(t, 0.9, p.Consistency, 1e-9)
}

func TestRefresher_IsolatesUsers(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache()
	repo := &fakeCheckIns{data: map[int64][]domain.CheckIn{
		1: history(30, 0, 8, 0),
		2: history(2, 0, 8, 0),
		3: history(30, 5, 8, 0),
	}}
	svc := NewService(cache, repo, zap.NewNop(), nil).WithClock(func() time.Time { return asOf })
	users := []domain.UserProfile{{UserID: 1}, {UserID: 2}, {UserID: 3}}

	NewRefresher(svc, fakeLister{users: users}, zap.NewNop(), time.Hour, 2).RefreshAll(ctx)

	_, ok := cache.GetPattern(ctx, 1)
	assert.True(t, ok)
	_, ok = cache.GetPattern(ctx, 2)
	assert.False(t, ok)
	p3, ok := cache.GetPattern(ctx, 3)
	require.True(t, ok)
	assert.Equal(t, 5, p3.InferredOffset)
}
