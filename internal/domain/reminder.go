package domain

import "time"

// ReminderKind identifies a nudge type.
type ReminderKind string

const (
	KindMorning   ReminderKind = "morning"
	KindEvening   ReminderKind = "evening"
	KindHydration ReminderKind = "hydration"
)

// Kinds lists every reminder kind.
var Kinds = []ReminderKind{KindMorning, KindEvening, KindHydration}

// Reminder is a (user, kind, tone, payload) decision handed to the dispatcher.
type Reminder struct {
	UserID    int64
	ChatID    int64
	Kind      ReminderKind
	Tone      ReminderStyle
	LocalTime time.Time
	WaterML   int // hydration only
	WaterGoal int // hydration only
}
