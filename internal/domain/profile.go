package domain

import "time"

// Goal is the user's body-composition goal.
type Goal string

const (
	GoalLoseWeight Goal = "lose_weight"
	GoalGainMuscle Goal = "gain_muscle"
	GoalMaintain   Goal = "maintain"
)

// ReminderStyle is the tone used for reminder texts.
type ReminderStyle string

const (
	StyleFriendly     ReminderStyle = "friendly"
	StyleMotivational ReminderStyle = "motivational"
	StyleStrict       ReminderStyle = "strict"
)

// Next returns the following style in the escalation cycle
// friendly -> motivational -> strict -> friendly.
func (s ReminderStyle) Next() ReminderStyle {
	switch s {
	case StyleFriendly:
		return StyleMotivational
	case StyleMotivational:
		return StyleStrict
	default:
		return StyleFriendly
	}
}

// Valid reports whether s is one of the known styles.
func (s ReminderStyle) Valid() bool {
	return s == StyleFriendly || s == StyleMotivational || s == StyleStrict
}

// Targets are daily nutrition targets.
type Targets struct {
	Calories int
	Protein  float64 // g
	Fats     float64 // g
	Carbs    float64 // g
}

// IsZero reports whether no target has been set.
func (t Targets) IsZero() bool {
	return t.Calories == 0 && t.Protein == 0 && t.Fats == 0 && t.Carbs == 0
}

// ReminderSettings are the user's explicit reminder preferences.
type ReminderSettings struct {
	MorningTime    string // "HH:MM", empty means not set
	EveningTime    string // "HH:MM", empty means not set
	WaterReminders bool
	AllDisabled    bool
}

// UserProfile holds goal, targets and reminder configuration of one user.
type UserProfile struct {
	UserID        int64
	ChatID        int64
	Active        bool
	Goal          Goal
	Body          Body
	CurrentWeight float64 // kg
	TargetWeight  float64 // kg
	Targets       Targets // live targets, possibly adjusted for a plateau
	Baseline      Targets // pre-plateau targets adjustments are computed from
	Timezone      string  // "UTC+3" or IANA name; empty means not set
	Reminders     ReminderSettings
	ReminderStyle ReminderStyle // empty means not set
	Version       int64         // optimistic concurrency token
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
