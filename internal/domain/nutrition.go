package domain

import "math"

// Gender used by the BMR formula.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// ActivityLevel scales BMR to total daily expenditure.
type ActivityLevel string

const (
	ActivitySedentary  ActivityLevel = "sedentary"
	ActivityLight      ActivityLevel = "light"
	ActivityModerate   ActivityLevel = "moderate"
	ActivityActive     ActivityLevel = "active"
	ActivityVeryActive ActivityLevel = "very_active"
)

var activityMultipliers = map[ActivityLevel]float64{
	ActivitySedentary:  1.2,
	ActivityLight:      1.375,
	ActivityModerate:   1.55,
	ActivityActive:     1.725,
	ActivityVeryActive: 1.9,
}

// Body holds the anthropometrics targets are computed from.
type Body struct {
	Gender   Gender
	Age      int
	HeightCM float64
	Activity ActivityLevel
}

// Complete reports whether targets can be computed from b.
func (b Body) Complete() bool {
	_, ok := activityMultipliers[b.Activity]
	return ok && b.Age > 0 && b.HeightCM > 0 && b.Gender != ""
}

// CalculateTargets computes daily calories and macros with the Mifflin-St Jeor
// equation and a goal-specific energy split.
func CalculateTargets(b Body, weightKg float64, goal Goal) Targets {
	bmr := 10*weightKg + 6.25*b.HeightCM - 5*float64(b.Age)
	if b.Gender == GenderMale {
		bmr += 5
	} else {
		bmr -= 161
	}
	mult, ok := activityMultipliers[b.Activity]
	if !ok {
		mult = activityMultipliers[ActivitySedentary]
	}
	tdee := bmr * mult

	var calories int
	var protein, fats, carbs float64
	switch goal {
	case GoalLoseWeight:
		calories = int(tdee * 0.75)
		protein, fats, carbs = 0.35, 0.25, 0.40
	case GoalGainMuscle:
		calories = int(tdee * 1.15)
		protein, fats, carbs = 0.30, 0.25, 0.45
	default:
		calories = int(tdee)
		protein, fats, carbs = 0.30, 0.30, 0.40
	}

	t := Targets{
		Calories: calories,
		Protein:  round1(float64(calories) * protein / 4),
		Fats:     round1(float64(calories) * fats / 9),
		Carbs:    round1(float64(calories) * carbs / 4),
	}
	t.Protein = math.Max(t.Protein, weightKg*1.2)
	t.Fats = math.Max(t.Fats, weightKg*0.8)
	return t
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
