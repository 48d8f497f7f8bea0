package adapt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ykvlv/coach-bot/internal/domain"
	"github.com/ykvlv/coach-bot/internal/metrics"
	"github.com/ykvlv/coach-bot/internal/plateau"
	"github.com/ykvlv/coach-bot/internal/store"
)

// History is how much check-in history one cycle reads.
const History = 90 * 24 * time.Hour

// Outcomes of one adaptation cycle, as reported to metrics.
const (
	OutcomeApplied    = "applied"
	OutcomeUnchanged  = "unchanged"
	OutcomeNoBaseline = "no_baseline"
	OutcomeConflict   = "conflict"
	OutcomeFailed     = "failed"
)

// ProfileStore reads and conditionally writes profiles.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID int64) (*domain.UserProfile, error)
	UpdateProfile(ctx context.Context, p *domain.UserProfile) error
}

// CheckInSource reads check-in history.
type CheckInSource interface {
	GetRecentCheckIns(ctx context.Context, userID int64, since time.Time) ([]domain.CheckIn, error)
}

// Publisher receives applied adaptations.
type Publisher interface {
	PublishAdaptation(ctx context.Context, ev domain.AdaptationEvent)
}

// Service runs the adaptation cycle of a single user: detect, plan, apply.
type Service struct {
	profiles ProfileStore
	checkins CheckInSource
	pub      Publisher
	log      *zap.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewService builds a Service. pub may be nil.
func NewService(profiles ProfileStore, checkins CheckInSource, pub Publisher, log *zap.Logger, m *metrics.Metrics) *Service {
	return &Service{
		profiles: profiles,
		checkins: checkins,
		pub:      pub,
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

// Adapt runs one cycle for userID. It returns the applied event, or nil when
// the profile already matches the plan. A concurrent profile update is
// retried once against the fresh profile; a second conflict is returned.
func (s *Service) Adapt(ctx context.Context, userID int64) (*domain.AdaptationEvent, error) {
	now := s.now()

	p, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		s.metrics.Adaptation("", OutcomeFailed)
		return nil, fmt.Errorf("load profile: %w", err)
	}
	goal := string(p.Goal)

	asOf := asOfDay(*p, now)
	checkins, err := s.checkins.GetRecentCheckIns(ctx, userID, asOf.Add(-History))
	if err != nil {
		s.metrics.Adaptation(goal, OutcomeFailed)
		return nil, fmt.Errorf("load check-ins: %w", err)
	}
	verdict := plateau.Detect(domain.WeightSamples(checkins), asOf)

	for attempt := 0; ; attempt++ {
		ev, changed := s.plan(p, verdict, checkins, asOf, now)
		if ev == nil {
			s.metrics.Adaptation(goal, OutcomeNoBaseline)
			return nil, nil
		}
		if !changed {
			s.metrics.Adaptation(goal, OutcomeUnchanged)
			return nil, nil
		}

		err = s.profiles.UpdateProfile(ctx, p)
		if err == nil {
			s.metrics.Adaptation(goal, OutcomeApplied)
			s.publish(ctx, *ev)
			return ev, nil
		}
		if !errors.Is(err, store.ErrConflict) {
			s.metrics.Adaptation(goal, OutcomeFailed)
			return nil, fmt.Errorf("update profile: %w", err)
		}
		if attempt > 0 {
			s.metrics.Adaptation(goal, OutcomeConflict)
			return nil, fmt.Errorf("update profile after retry: %w", err)
		}

		s.log.Warn("profile changed during adaptation, retrying",
			zap.Int64("userID", userID), zap.Error(err))
		if p, err = s.profiles.GetProfile(ctx, userID); err != nil {
			s.metrics.Adaptation(goal, OutcomeFailed)
			return nil, fmt.Errorf("reload profile: %w", err)
		}
	}
}

// plan mutates p in place to the targets the verdict calls for. It returns a
// nil event when no baseline can be established, and changed=false when p
// already holds those targets. Planning uses the latest logged weight, or
// the profile weight when nothing was logged.
func (s *Service) plan(p *domain.UserProfile, v domain.PlateauVerdict, checkins []domain.CheckIn,
	asOf, now time.Time) (*domain.AdaptationEvent, bool) {
	planned := *p
	if w, ok := LatestWeight(checkins, asOf); ok {
		planned.CurrentWeight = w
	}
	baseline, ok := Baseline(planned)
	if !ok {
		return nil, false
	}
	p.Baseline = baseline
	planned.Baseline = baseline

	res := plateau.Plan(p.Goal, v, planned)
	res.DietBreak = plateau.DietBreakSuggested(planned, checkins, asOf)
	if res.DietBreak {
		res.Strategies = append(res.Strategies, domain.StrategyDietBreakAdvised)
	}

	before := p.Targets
	after := res.Apply(baseline)
	ev := &domain.AdaptationEvent{
		ID:        uuid.NewString(),
		UserID:    p.UserID,
		ChatID:    p.ChatID,
		Verdict:   v,
		Result:    res,
		Before:    before,
		After:     after,
		AppliedAt: now,
	}
	if before == after {
		return ev, false
	}
	p.Targets = after
	return ev, true
}

func (s *Service) publish(ctx context.Context, ev domain.AdaptationEvent) {
	s.log.Info("adaptation applied",
		zap.String("eventID", ev.ID),
		zap.Int64("userID", ev.UserID),
		zap.String("goal", string(ev.Result.Goal)),
		zap.Int("plateauDays", ev.Verdict.PlateauDays),
		zap.Int("caloriesBefore", ev.Before.Calories),
		zap.Int("caloriesAfter", ev.After.Calories),
		zap.Strings("strategies", ev.Result.Strategies),
	)
	if s.pub != nil {
		s.pub.PublishAdaptation(ctx, ev)
	}
}

// Baseline returns the pre-plateau targets of p. An unset baseline falls back
// to the live targets, then to targets computed from body data.
func Baseline(p domain.UserProfile) (domain.Targets, bool) {
	switch {
	case !p.Baseline.IsZero():
		return p.Baseline, true
	case !p.Targets.IsZero():
		return p.Targets, true
	case p.Body.Complete() && p.CurrentWeight > 0:
		return domain.CalculateTargets(p.Body, p.CurrentWeight, p.Goal), true
	default:
		return domain.Targets{}, false
	}
}

// LatestWeight returns the most recent weight logged on or before asOf.
func LatestWeight(checkins []domain.CheckIn, asOf time.Time) (float64, bool) {
	var (
		latest time.Time
		weight float64
		found  bool
	)
	for _, c := range checkins {
		if c.Weight == nil || *c.Weight <= 0 || c.Date.After(asOf) {
			continue
		}
		if !found || !c.Date.Before(latest) {
			latest, weight, found = c.Date, *c.Weight, true
		}
	}
	return weight, found
}

// asOfDay is the user's current local calendar day.
func asOfDay(p domain.UserProfile, nowUTC time.Time) time.Time {
	loc := time.UTC
	if p.Timezone != "" {
		if l, err := domain.ParseTimezone(p.Timezone); err == nil {
			loc = l
		}
	}
	return domain.DayOf(domain.LocalNow(nowUTC, loc))
}
