package scheduler

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

// Notifier takes reminders for delivery. Fire must not block on delivery.
type Notifier interface {
	Fire(r domain.Reminder)
}

// ProfileSource lists the users to evaluate on each tick.
type ProfileSource interface {
	ListActive(ctx context.Context) ([]domain.UserProfile, error)
}

// CheckInSource reads recent check-ins.
type CheckInSource interface {
	GetRecentCheckIns(ctx context.Context, userID int64, since time.Time) ([]domain.CheckIn, error)
}

// PatternSource returns a user's learned pattern, if any.
type PatternSource interface {
	Pattern(ctx context.Context, profile domain.UserProfile) (domain.UserPattern, bool)
}

// Scheduler evaluates every active user once per tick and hands due
// reminders to the Notifier.
type Scheduler struct {
	profiles ProfileSource
	checkins CheckInSource
	patterns PatternSource
	notifier Notifier
	eval     *Evaluator
	log      *zap.Logger
	metrics  *metrics.Metrics
	interval time.Duration
	workers  int
	now      func() time.Time

	states sync.Map // int64 -> *userState
}

// userState is the fire log and response tracking of one user. Only the
// goroutine evaluating that user touches it during a tick.
type userState struct {
	mu      sync.Mutex
	fired   map[Slot]bool
	pending map[domain.ReminderKind]pendingFire
	tracker *Tracker
}

// New creates a Scheduler ticking every interval with at most workers users
// evaluated concurrently.
func New(profiles ProfileSource, checkins CheckInSource, patterns PatternSource, notifier Notifier,
	log *zap.Logger, m *metrics.Metrics, interval time.Duration, workers int) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		profiles: profiles,
		checkins: checkins,
		patterns: patterns,
		notifier: notifier,
		eval:     NewEvaluator(log),
		log:      log,
		metrics:  m,
		interval: interval,
		workers:  workers,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the wall clock, for tests.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Run starts the loop until ctx is canceled. A tick in progress when ctx is
// canceled finishes the users it already started.
func (s *Scheduler) Run(ctx context.Context) {
	worker.Every(ctx, s.interval, false, s.tick)
	s.log.Info("scheduler stopping")
}

// tick performs one scheduling cycle across all active users.
func (s *Scheduler) tick(ctx context.Context) {
	start := time.Now()
	now := s.now()

	users, err := s.profiles.ListActive(ctx)
	if err != nil {
		s.log.Error("ListActive failed", zap.Error(err))
		return
	}
	worker.ForEach(ctx, users, s.workers, func(ctx context.Context, p domain.UserProfile) error {
		return s.evaluateUser(ctx, p, now)
	}, func(p domain.UserProfile, err error) {
		s.metrics.UserError("reminder")
		s.log.Error("reminder evaluation failed", zap.Int64("userID", p.UserID), zap.Error(err))
	})
	s.metrics.TickObserved(time.Since(start))
}

func (s *Scheduler) evaluateUser(ctx context.Context, p domain.UserProfile, now time.Time) error {
	if p.Reminders.AllDisabled {
		return nil
	}

	var pattern *domain.UserPattern
	if pat, ok := s.patterns.Pattern(ctx, p); ok {
		pattern = &pat
	}

	loc, _ := ResolveLocation(p, pattern)
	local := domain.LocalNow(now, loc)
	day := domain.DayKey(local)

	checkins, err := s.checkins.GetRecentCheckIns(ctx, p.UserID, domain.DayOf(local))
	if err != nil {
		return fmt.Errorf("load today's check-in: %w", err)
	}
	var today *domain.CheckIn
	for i := range checkins {
		if domain.DayKey(checkins[i].Date) == day {
			today = &checkins[i]
			break
		}
	}

	st := s.state(p.UserID)
	st.mu.Lock()
	st.observe(day, today)
	due := s.eval.Evaluate(now, Input{
		Profile:   p,
		Pattern:   pattern,
		Today:     today,
		Fired:     st.fired,
		Rotations: st.tracker.Rotations(),
	})
	for _, r := range due {
		st.markFired(r, today)
	}
	st.mu.Unlock()

	for _, r := range due {
		s.notifier.Fire(r)
		s.metrics.ReminderFired(string(r.Kind), string(r.Tone))
		s.log.Info("reminder fired",
			zap.Int64("userID", r.UserID),
			zap.String("slot", SlotFor(r).String()),
			zap.String("tone", string(r.Tone)))
	}
	return nil
}

func (s *Scheduler) state(userID int64) *userState {
	if v, ok := s.states.Load(userID); ok {
		return v.(*userState)
	}
	v, _ := s.states.LoadOrStore(userID, &userState{
		fired:   make(map[Slot]bool),
		pending: make(map[domain.ReminderKind]pendingFire),
		tracker: NewTracker(),
	})
	return v.(*userState)
}

// observe settles pending reminders against today's check-in and forgets
// fire records of earlier days.
func (st *userState) observe(day string, today *domain.CheckIn) {
	for kind, pf := range st.pending {
		switch {
		case pf.day != day:
			st.tracker.Record(kind, false)
			delete(st.pending, kind)
		case answered(kind, pf, today):
			st.tracker.Record(kind, true)
			delete(st.pending, kind)
		}
	}
	for slot := range st.fired {
		if slot.Day != day {
			delete(st.fired, slot)
		}
	}
}

func (st *userState) markFired(r domain.Reminder, today *domain.CheckIn) {
	slot := SlotFor(r)
	st.fired[slot] = true
	if _, waiting := st.pending[r.Kind]; waiting {
		// a newer nudge of the same kind supersedes an unanswered one
		st.tracker.Record(r.Kind, false)
	}
	st.pending[r.Kind] = pendingFire{day: slot.Day, water: today.Water()}
}
