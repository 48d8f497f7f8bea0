package domain

import "time"

// PlateauVerdict is the result of plateau detection. It is derived on every
// call and never cached.
type PlateauVerdict struct {
	IsPlateau   bool
	PlateauDays int
	WeightRange float64 // max-min of the evaluated window, kg
}

// MacroOverride replaces individual macro targets; nil fields are untouched.
type MacroOverride struct {
	Protein *float64
	Fats    *float64
	Carbs   *float64
}

// IsZero reports whether no macro is overridden.
func (m MacroOverride) IsZero() bool {
	return m.Protein == nil && m.Fats == nil && m.Carbs == nil
}

// DayKind labels a day in a calorie-cycling week.
type DayKind string

const (
	DayHigh DayKind = "high"
	DayLow  DayKind = "low"
)

// CycleDay is one day of a calorie-cycling schedule.
type CycleDay struct {
	Weekday  time.Weekday
	Kind     DayKind
	Calories int
}

// Refeed is a weekly high-carbohydrate day.
type Refeed struct {
	Weekday       time.Weekday
	ExtraCalories int
	ExtraCarbs    float64 // g
}

// Strategy names of applied tactics.
const (
	StrategyDeficit100       = "calorie_deficit_100"
	StrategyCalorieCycling   = "calorie_cycling"
	StrategyDeficit200       = "calorie_deficit_200"
	StrategyProteinBoost     = "protein_boost"
	StrategyRefeed           = "weekly_refeed"
	StrategySurplus150       = "calorie_surplus_150"
	StrategySurplus250       = "calorie_surplus_250"
	StrategyCarbBoost        = "carb_boost"
	StrategyTrainingVariety  = "training_variation"
	StrategyCardio           = "extra_cardio"
	StrategyTrainingVolume   = "training_volume"
	StrategyDietBreakAdvised = "diet_break"
)

// AdaptationResult is a planned correction for a plateau.
type AdaptationResult struct {
	Goal              Goal
	CalorieAdjustment int
	MacroAdjustment   MacroOverride
	ActivityChanges   []string
	Strategies        []string
	Cycling           []CycleDay // nil when not attached
	Refeed            *Refeed    // nil when not attached
	DietBreak         bool
	Rationale         string
}

// Apply returns the targets produced by applying r to baseline. The result
// depends only on baseline and r, so applying the same result twice is a no-op.
func (r AdaptationResult) Apply(baseline Targets) Targets {
	out := baseline
	out.Calories = baseline.Calories + r.CalorieAdjustment
	if r.MacroAdjustment.Protein != nil {
		out.Protein = *r.MacroAdjustment.Protein
	}
	if r.MacroAdjustment.Fats != nil {
		out.Fats = *r.MacroAdjustment.Fats
	}
	if r.MacroAdjustment.Carbs != nil {
		out.Carbs = *r.MacroAdjustment.Carbs
	}
	return out
}

// AdaptationEvent surfaces an applied adaptation to observers.
type AdaptationEvent struct {
	ID        string
	UserID    int64
	ChatID    int64
	Verdict   PlateauVerdict
	Result    AdaptationResult
	Before    Targets
	After     Targets
	AppliedAt time.Time
}
