package telegram

import (
	"fmt"
	"strings"

	"github.com/ykvlv/coach-bot/internal/domain"
)

// Reminder texts by kind and tone. Hydration texts take the litres drunk
// and the litres remaining.
var reminderTexts = map[domain.ReminderKind]map[domain.ReminderStyle]string{
	domain.KindMorning: {
		domain.StyleFriendly:     "☀️ Good morning! Step on the scale and log your weight when you get a moment.",
		domain.StyleMotivational: "💪 New day, new progress! Log your morning weight and keep the streak going.",
		domain.StyleStrict:       "⚖️ Morning weigh-in is due. Log your weight now.",
	},
	domain.KindEvening: {
		domain.StyleFriendly:     "🌙 Evening check-in: how many steps did you take today?",
		domain.StyleMotivational: "🏃 You moved today, make it count! Log your steps.",
		domain.StyleStrict:       "👟 Today's steps are not logged. Log them before bed.",
	},
	domain.KindHydration: {
		domain.StyleFriendly:     "💧 Time for some water! %.1f L so far, %.1f L to go.",
		domain.StyleMotivational: "💧 Hydration fuels progress! %.1f L down, %.1f L left.",
		domain.StyleStrict:       "💧 Drink water now. %.1f L logged, %.1f L remaining.",
	},
}

// ReminderText renders r. Unknown tones fall back to friendly.
func ReminderText(r domain.Reminder) string {
	byTone, ok := reminderTexts[r.Kind]
	if !ok {
		return ""
	}
	text, ok := byTone[r.Tone]
	if !ok {
		text = byTone[domain.StyleFriendly]
	}
	if r.Kind != domain.KindHydration {
		return text
	}
	goal := r.WaterGoal
	if goal <= 0 {
		goal = 2000
	}
	left := goal - r.WaterML
	if left < 0 {
		left = 0
	}
	return fmt.Sprintf(text, float64(r.WaterML)/1000, float64(left)/1000)
}

// AdaptationText explains an applied adaptation to the user.
func AdaptationText(ev domain.AdaptationEvent) string {
	var b strings.Builder
	if ev.Verdict.IsPlateau {
		fmt.Fprintf(&b, "📊 Your weight has held within %.1f kg for %d days, so your plan was adjusted.\n\n",
			ev.Verdict.WeightRange, ev.Verdict.PlateauDays)
	} else {
		b.WriteString("📊 Your plan was updated.\n\n")
	}
	fmt.Fprintf(&b, "Calories: %d → %d kcal\n", ev.Before.Calories, ev.After.Calories)
	fmt.Fprintf(&b, "Protein: %.0f g · Fats: %.0f g · Carbs: %.0f g\n",
		ev.After.Protein, ev.After.Fats, ev.After.Carbs)

	if ev.Result.Rationale != "" {
		b.WriteString("\n")
		b.WriteString(ev.Result.Rationale)
		b.WriteString("\n")
	}
	if len(ev.Result.ActivityChanges) > 0 {
		b.WriteString("\nActivity:\n")
		for _, a := range ev.Result.ActivityChanges {
			b.WriteString("• ")
			b.WriteString(a)
			b.WriteString("\n")
		}
	}
	if ev.Result.DietBreak {
		b.WriteString("\n🌿 Consider a 1–2 week diet break at maintenance calories.\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
