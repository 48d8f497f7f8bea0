package domain

import "time"

// Mood is the self-reported mood of a check-in.
type Mood string

const (
	MoodGood   Mood = "good"
	MoodNormal Mood = "normal"
	MoodBad    Mood = "bad"
)

// CheckIn is one user's metrics for one local calendar day.
// Every metric is optional; nil means "not recorded yet".
type CheckIn struct {
	UserID     int64
	Date       time.Time  // local calendar day, stored as midnight UTC of that date
	Weight     *float64   // kg
	SleepHours *float64   // 0..24
	Mood       Mood       // empty when unset
	Steps      *int       // >= 0
	WaterML    *int       // >= 0
	Notes      string     //
	WeightAt   *time.Time // UTC instant the weight was logged
	StepsAt    *time.Time // UTC instant the steps were logged
	CreatedAt  time.Time  // UTC
	UpdatedAt  time.Time  // UTC
}

// HasWeight reports whether the morning weight has been recorded.
func (c *CheckIn) HasWeight() bool { return c != nil && c.Weight != nil }

// HasSteps reports whether the evening steps have been recorded.
func (c *CheckIn) HasSteps() bool { return c != nil && c.Steps != nil }

// Water returns the recorded water intake or 0.
func (c *CheckIn) Water() int {
	if c == nil || c.WaterML == nil {
		return 0
	}
	return *c.WaterML
}

// WeightSample is a single dated weight reading.
type WeightSample struct {
	Date   time.Time
	Weight float64
}

// WeightSamples extracts the weighed check-ins in the order given.
func WeightSamples(checkins []CheckIn) []WeightSample {
	out := make([]WeightSample, 0, len(checkins))
	for _, c := range checkins {
		if c.Weight == nil {
			continue
		}
		out = append(out, WeightSample{Date: c.Date, Weight: *c.Weight})
	}
	return out
}
