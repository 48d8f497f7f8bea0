package scheduler

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ykvlv/coach-bot/internal/domain"
)

const (
	DefaultMorningM = 8 * 60
	DefaultEveningM = 20 * 60
	// Tolerance is how far from the reminder time a tick may still fire it.
	Tolerance = 5 * time.Minute

	// WaterGoalML is the daily hydration target.
	WaterGoalML = 2000

	hydrationFromHour = 7
	hydrationToHour   = 22
	behindPaceRatio   = 0.7
)

// Slot identifies one fire opportunity. Morning and evening have one slot per
// local day; hydration has one per local hour.
type Slot struct {
	Kind domain.ReminderKind
	Day  string // local YYYY-MM-DD
	Hour int    // hydration only
}

// Input is everything Evaluate looks at for one user.
type Input struct {
	Profile   domain.UserProfile
	Pattern   *domain.UserPattern // nil when no pattern is learned
	Today     *domain.CheckIn     // today's check-in in the user's local day, nil if none
	Fired     map[Slot]bool       // slots already fired
	Rotations map[domain.ReminderKind]int
}

// Evaluator decides which reminders are due for a user at a given instant.
// It holds no per-user state; everything comes through Input.
type Evaluator struct {
	log *zap.Logger
}

func NewEvaluator(log *zap.Logger) *Evaluator {
	return &Evaluator{log: log}
}

// ResolveLocation picks the explicit timezone, then the inferred one, then UTC.
// A malformed explicit timezone is reported alongside the fallback.
func ResolveLocation(p domain.UserProfile, pat *domain.UserPattern) (*time.Location, error) {
	var err error
	if p.Timezone != "" {
		loc, perr := domain.ParseTimezone(p.Timezone)
		if perr == nil {
			return loc, nil
		}
		err = perr
	}
	if pat != nil {
		return pat.Location(), err
	}
	return time.UTC, err
}

// Evaluate returns the reminders to fire at nowUTC. A slot listed in
// in.Fired is never returned again.
func (e *Evaluator) Evaluate(nowUTC time.Time, in Input) []domain.Reminder {
	p := in.Profile
	if p.Reminders.AllDisabled {
		return nil
	}

	loc, err := ResolveLocation(p, in.Pattern)
	if err != nil {
		e.log.Warn("invalid timezone, using fallback",
			zap.Int64("userID", p.UserID), zap.String("tz", p.Timezone), zap.Error(err))
	}
	local := domain.LocalNow(nowUTC, loc)
	day := domain.DayKey(local)

	today := in.Today
	if today != nil && domain.DayKey(today.Date) != day {
		today = nil
	}

	var out []domain.Reminder
	emit := func(kind domain.ReminderKind, water int) {
		out = append(out, domain.Reminder{
			UserID:    p.UserID,
			ChatID:    p.ChatID,
			Kind:      kind,
			Tone:      e.tone(in, kind),
			LocalTime: local,
			WaterML:   water,
			WaterGoal: WaterGoalML,
		})
	}

	if !in.Pattern.Skips(local.Weekday()) {
		var learnedMorning, learnedEvening *int
		if in.Pattern != nil {
			learnedMorning, learnedEvening = in.Pattern.MorningM, in.Pattern.EveningM
		}

		morning := e.clock(p, "morning_time", p.Reminders.MorningTime, learnedMorning, DefaultMorningM)
		if !in.Fired[Slot{Kind: domain.KindMorning, Day: day}] && near(local, morning) && !today.HasWeight() {
			emit(domain.KindMorning, 0)
		}

		evening := e.clock(p, "evening_time", p.Reminders.EveningTime, learnedEvening, DefaultEveningM)
		if !in.Fired[Slot{Kind: domain.KindEvening, Day: day}] && near(local, evening) && !today.HasSteps() {
			emit(domain.KindEvening, 0)
		}
	}

	if p.Reminders.WaterReminders && !in.Fired[Slot{Kind: domain.KindHydration, Day: day, Hour: local.Hour()}] {
		if water := today.Water(); HydrationDue(local, water) {
			emit(domain.KindHydration, water)
		}
	}
	return out
}

// SlotFor returns the slot a reminder occupies.
func SlotFor(r domain.Reminder) Slot {
	s := Slot{Kind: r.Kind, Day: domain.DayKey(r.LocalTime)}
	if r.Kind == domain.KindHydration {
		s.Hour = r.LocalTime.Hour()
	}
	return s
}

// HydrationDue reports whether a water nudge belongs at local time given the
// water drunk so far. Users behind a linear 07:00–22:00 pace are nudged every
// even hour, others every third hour, always on the hour.
func HydrationDue(local time.Time, waterML int) bool {
	if waterML >= WaterGoalML {
		return false
	}
	h := local.Hour()
	if h < hydrationFromHour || h > hydrationToHour || local.Minute() != 0 {
		return false
	}
	expected := float64(h-hydrationFromHour) / float64(hydrationToHour-hydrationFromHour) * WaterGoalML
	if float64(waterML) < expected*behindPaceRatio {
		return h%2 == 0
	}
	return h%3 == 0
}

// near reports whether local is within Tolerance of targetM on local's own
// day. The window does not wrap midnight: slots are keyed by local day, so
// 00:02 matching a 23:58 target would fire the next day's slot early.
func near(local time.Time, targetM int) bool {
	diff := domain.SinceMidnight(local) - time.Duration(targetM)*time.Minute
	if diff < 0 {
		diff = -diff
	}
	return diff <= Tolerance
}

// clock resolves a reminder time: explicit setting, then learned, then default.
// A malformed explicit setting falls back to the default.
func (e *Evaluator) clock(p domain.UserProfile, field, explicit string, learned *int, def int) int {
	if explicit != "" {
		m, err := domain.ParseClock(explicit)
		if err == nil {
			return m
		}
		e.log.Warn("invalid reminder time, using default",
			zap.Int64("userID", p.UserID),
			zap.String("field", field),
			zap.String("default", domain.FormatMinutes(def)),
			zap.Error(err))
		return def
	}
	if learned != nil {
		return *learned
	}
	return def
}

func (e *Evaluator) tone(in Input, kind domain.ReminderKind) domain.ReminderStyle {
	base := domain.StyleFriendly
	switch {
	case in.Profile.ReminderStyle.Valid():
		base = in.Profile.ReminderStyle
	case in.Pattern != nil && in.Pattern.PreferredReminderStyle.Valid():
		base = in.Pattern.PreferredReminderStyle
	}
	for i := 0; i < in.Rotations[kind]%3; i++ {
		base = base.Next()
	}
	return base
}

func (s Slot) String() string {
	if s.Kind == domain.KindHydration {
		return fmt.Sprintf("%s@%s/%02d", s.Kind, s.Day, s.Hour)
	}
	return fmt.Sprintf("%s@%s", s.Kind, s.Day)
}
