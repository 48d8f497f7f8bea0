package plateau

import (
	"fmt"
	"strings"
	"time"

	"github.com/ykvlv/coach-bot/internal/domain"
)

// Escalation tiers, in plateau days. Tiers are cumulative.
const (
	TierReduce   = 7
	TierCycling  = 10
	TierEscalate = 14
	TierRefeed   = 21
)

const (
	cyclingLowDelta   = -300
	refeedCalories    = 500
	dietBreakLossFrac = 0.10
	dietBreakLookback = 90 * 24 * time.Hour
)

var cyclingHighDays = map[time.Weekday]bool{time.Saturday: true, time.Sunday: true}

// Plan turns a verdict into a correction for the given goal. Adjustments are
// relative to profile.Baseline, never to the live targets, so re-planning the
// same verdict yields the same targets. Per-kilogram macro overrides use
// profile.CurrentWeight and are left out when it is unknown.
func Plan(goal domain.Goal, v domain.PlateauVerdict, profile domain.UserProfile) domain.AdaptationResult {
	res := domain.AdaptationResult{Goal: goal}
	if !v.IsPlateau || v.PlateauDays < TierReduce {
		res.Rationale = "Weight is still moving; targets stay at baseline."
		return res
	}

	switch goal {
	case domain.GoalLoseWeight:
		planLoss(&res, v, profile)
	case domain.GoalGainMuscle:
		planGain(&res, v, profile)
	case domain.GoalMaintain:
		planMaintain(&res, v)
	default:
		res.Rationale = fmt.Sprintf("No strategy for goal %q.", goal)
	}
	return res
}

func planLoss(res *domain.AdaptationResult, v domain.PlateauVerdict, p domain.UserProfile) {
	days := v.PlateauDays
	base := baselineCalories(p)

	res.CalorieAdjustment = -100
	res.Strategies = append(res.Strategies, domain.StrategyDeficit100)

	if days >= TierCycling {
		res.Cycling = cyclingWeek(base, 0, cyclingLowDelta)
		res.Strategies = append(res.Strategies, domain.StrategyCalorieCycling)
	}
	if days >= TierEscalate {
		res.CalorieAdjustment = -200
		res.Strategies = append(res.Strategies, domain.StrategyDeficit200)
		if p.CurrentWeight > 0 {
			protein := round1(2.0 * p.CurrentWeight)
			res.MacroAdjustment.Protein = &protein
			res.Strategies = append(res.Strategies, domain.StrategyProteinBoost)
		}
	}
	if days >= TierRefeed {
		res.Refeed = &domain.Refeed{
			Weekday:       time.Saturday,
			ExtraCalories: refeedCalories,
			ExtraCarbs:    round1(refeedCalories * 0.8 / 4),
		}
		res.Strategies = append(res.Strategies, domain.StrategyRefeed)
	}

	res.ActivityChanges = []string{
		"Add 2 cardio sessions of 30 minutes per week",
		"Raise the daily step target to 10,000",
	}
	res.Strategies = append(res.Strategies, domain.StrategyCardio)
	res.Rationale = rationale(v, res)
}

func planGain(res *domain.AdaptationResult, v domain.PlateauVerdict, p domain.UserProfile) {
	res.CalorieAdjustment = 150
	res.Strategies = append(res.Strategies, domain.StrategySurplus150)

	if v.PlateauDays >= TierEscalate {
		res.CalorieAdjustment = 250
		res.Strategies = append(res.Strategies, domain.StrategySurplus250)
		if p.CurrentWeight > 0 {
			carbs := round1(5.0 * p.CurrentWeight)
			res.MacroAdjustment.Carbs = &carbs
			res.Strategies = append(res.Strategies, domain.StrategyCarbBoost)
		}
	}

	res.ActivityChanges = []string{
		"Increase training volume by one working set per exercise",
		"Add one extra rest day per week",
	}
	res.Strategies = append(res.Strategies, domain.StrategyTrainingVolume)
	res.Rationale = rationale(v, res)
}

func planMaintain(res *domain.AdaptationResult, v domain.PlateauVerdict) {
	res.ActivityChanges = []string{
		"Vary the training stimulus: try a new sport or workout format this week",
	}
	res.Strategies = append(res.Strategies, domain.StrategyTrainingVariety)
	res.Rationale = rationale(v, res)
}

func cyclingWeek(base, highDelta, lowDelta int) []domain.CycleDay {
	week := make([]domain.CycleDay, 0, 7)
	for d := time.Monday; ; d = (d + 1) % 7 {
		day := domain.CycleDay{Weekday: d, Kind: domain.DayLow, Calories: base + lowDelta}
		if cyclingHighDays[d] {
			day.Kind = domain.DayHigh
			day.Calories = base + highDelta
		}
		week = append(week, day)
		if d == time.Sunday {
			break
		}
	}
	return week
}

func baselineCalories(p domain.UserProfile) int {
	if p.Baseline.Calories > 0 {
		return p.Baseline.Calories
	}
	return p.Targets.Calories
}

func rationale(v domain.PlateauVerdict, res *domain.AdaptationResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Weight has stayed within %.1f kg for %d days.", v.WeightRange, v.PlateauDays)
	switch {
	case res.CalorieAdjustment < 0:
		fmt.Fprintf(&b, " Daily calories lowered by %d kcal from baseline.", -res.CalorieAdjustment)
	case res.CalorieAdjustment > 0:
		fmt.Fprintf(&b, " Daily calories raised by %d kcal over baseline.", res.CalorieAdjustment)
	}
	if p := res.MacroAdjustment.Protein; p != nil {
		fmt.Fprintf(&b, " Protein set to %.0f g.", *p)
	}
	if c := res.MacroAdjustment.Carbs; c != nil {
		fmt.Fprintf(&b, " Carbs set to %.0f g.", *c)
	}
	if res.Cycling != nil {
		b.WriteString(" Calorie cycling: 2 high days, 5 low days.")
	}
	if res.Refeed != nil {
		fmt.Fprintf(&b, " Weekly refeed: +%d kcal, mostly carbs.", res.Refeed.ExtraCalories)
	}
	return b.String()
}

// DietBreakSuggested reports whether a lose_weight user should take a break at
// maintenance calories: either more than 10% of the starting weight was lost
// over the trailing 90 days, or a plateau of at least TierRefeed days is
// currently detected.
func DietBreakSuggested(profile domain.UserProfile, checkins []domain.CheckIn, asOf time.Time) bool {
	if profile.Goal != domain.GoalLoseWeight {
		return false
	}
	samples := domain.WeightSamples(checkins)

	from := asOf.Add(-dietBreakLookback)
	var first, last *domain.WeightSample
	for i := range samples {
		s := &samples[i]
		if s.Date.Before(from) || s.Date.After(asOf) {
			continue
		}
		if first == nil || s.Date.Before(first.Date) {
			first = s
		}
		if last == nil || !s.Date.Before(last.Date) {
			last = s
		}
	}
	if first != nil && first.Weight > 0 && first.Weight-last.Weight > dietBreakLossFrac*first.Weight {
		return true
	}

	v := Detect(samples, asOf)
	return v.IsPlateau && v.PlateauDays >= TierRefeed
}

func round1(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
