package pattern

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ykvlv/coach-bot/internal/domain"
	"github.com/ykvlv/coach-bot/internal/metrics"
	"github.com/ykvlv/coach-bot/internal/worker"
)

// MaxAge is how long a pattern is served before it is recomputed.
const MaxAge = 24 * time.Hour

// CheckInSource reads check-in history.
type CheckInSource interface {
	GetRecentCheckIns(ctx context.Context, userID int64, since time.Time) ([]domain.CheckIn, error)
}

// ProfileLister lists users whose patterns should be kept fresh.
type ProfileLister interface {
	ListActive(ctx context.Context) ([]domain.UserProfile, error)
}

// Service is a read-through front of a Cache. Each user is recomputed at
// most once per MaxAge, whether or not the attempt produced a pattern.
type Service struct {
	cache    Cache
	checkins CheckInSource
	log      *zap.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
	attempts sync.Map // int64 -> time.Time
}

func NewService(cache Cache, checkins CheckInSource, log *zap.Logger, m *metrics.Metrics) *Service {
	return &Service{
		cache:    cache,
		checkins: checkins,
		log:      log,
		metrics:  m,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the wall clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Pattern returns the user's pattern. A stale pattern is still returned when
// recomputation fails or is not yet due.
func (s *Service) Pattern(ctx context.Context, profile domain.UserProfile) (domain.UserPattern, bool) {
	now := s.now()
	cached, ok := s.cache.GetPattern(ctx, profile.UserID)
	if ok && now.Sub(cached.ComputedAt) < MaxAge {
		return cached, true
	}
	if !s.due(profile.UserID, now) {
		return cached, ok
	}

	fresh, found, err := s.Recompute(ctx, profile)
	if err != nil {
		s.log.Warn("pattern recompute failed", zap.Int64("userID", profile.UserID), zap.Error(err))
		return cached, ok
	}
	return fresh, found
}

// Recompute learns the pattern from the last WindowDays of check-ins and
// swaps it into the cache. Too little history removes any cached pattern.
func (s *Service) Recompute(ctx context.Context, profile domain.UserProfile) (domain.UserPattern, bool, error) {
	now := s.now()
	s.attempts.Store(profile.UserID, now)

	since := domain.DayOf(now).AddDate(0, 0, -(WindowDays - 1))
	checkins, err := s.checkins.GetRecentCheckIns(ctx, profile.UserID, since)
	if err != nil {
		s.metrics.PatternRecomputed("error")
		return domain.UserPattern{}, false, fmt.Errorf("load check-ins: %w", err)
	}

	p, ok := Analyze(checkins, profile, now)
	if !ok {
		s.metrics.PatternRecomputed("insufficient")
		if err := s.cache.DeletePattern(ctx, profile.UserID); err != nil {
			return domain.UserPattern{}, false, fmt.Errorf("drop pattern: %w", err)
		}
		return domain.UserPattern{}, false, nil
	}
	if err := s.cache.PutPattern(ctx, p); err != nil {
		s.metrics.PatternRecomputed("error")
		return domain.UserPattern{}, false, fmt.Errorf("store pattern: %w", err)
	}
	s.metrics.PatternRecomputed("ok")
	return p, true, nil
}

func (s *Service) due(userID int64, now time.Time) bool {
	v, ok := s.attempts.Load(userID)
	if !ok {
		return true
	}
	return now.Sub(v.(time.Time)) >= MaxAge
}

// Refresher is the daily background job recomputing every active user.
type Refresher struct {
	svc      *Service
	profiles ProfileLister
	log      *zap.Logger
	interval time.Duration
	workers  int
}

func NewRefresher(svc *Service, profiles ProfileLister, log *zap.Logger, interval time.Duration, workers int) *Refresher {
	if interval <= 0 {
		interval = MaxAge
	}
	return &Refresher{svc: svc, profiles: profiles, log: log, interval: interval, workers: workers}
}

// Run refreshes immediately and then every interval until ctx is canceled.
func (r *Refresher) Run(ctx context.Context) {
	worker.Every(ctx, r.interval, true, r.RefreshAll)
	r.log.Info("pattern refresher stopping")
}

// RefreshAll recomputes the pattern of every active user.
func (r *Refresher) RefreshAll(ctx context.Context) {
	users, err := r.profiles.ListActive(ctx)
	if err != nil {
		r.log.Error("list active users failed", zap.Error(err))
		return
	}
	worker.ForEach(ctx, users, r.workers, func(ctx context.Context, p domain.UserProfile) error {
		_, _, err := r.svc.Recompute(ctx, p)
		return err
	}, func(p domain.UserProfile, err error) {
		r.svc.metrics.UserError("pattern")
		r.log.Error("pattern refresh failed", zap.Int64("userID", p.UserID), zap.Error(err))
	})
}
