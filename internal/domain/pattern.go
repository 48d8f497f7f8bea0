package domain

import "time"

// UserPattern is a behavioural summary learned from recent check-ins.
// Values are replaced whole and never mutated in place.
type UserPattern struct {
	UserID                 int64
	InferredOffset         int  // hours east of UTC
	MorningM               *int // minutes since local midnight
	EveningM               *int // minutes since local midnight
	Consistency            float64
	SleepAverage           float64
	SkipDays               [7]bool // indexed by time.Weekday
	PreferredReminderStyle ReminderStyle
	Samples                int
	ComputedAt             time.Time
}

// Skips reports whether the weekday is a habitual skip day.
func (p *UserPattern) Skips(d time.Weekday) bool {
	return p != nil && p.SkipDays[d]
}

// Location returns the fixed zone for the inferred offset.
func (p *UserPattern) Location() *time.Location {
	return OffsetLocation(time.Duration(p.InferredOffset) * time.Hour)
}
