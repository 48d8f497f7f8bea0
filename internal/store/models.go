package store

import (
	"database/sql"
	"time"

	"github.com/ykvlv/coach-bot/internal/domain"
)

const dateLayout = "2006-01-02"

func toNullInt64(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UTC().Unix(), Valid: true}
}

func fromNullInt64(ns sql.NullInt64) *time.Time {
	if !ns.Valid {
		return nil
	}
	t := time.Unix(ns.Int64, 0).UTC()
	return &t
}

func toNullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNullFloat(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func toNullCount(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func fromNullCount(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

// boolToInt converts a boolean to 1/0 for SQLite.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type rowScanner interface {
	Scan(dest ...any) error
}

const profileColumns = `user_id, chat_id, active, goal, gender, age, height_cm, activity,
	current_weight, target_weight,
	daily_calories, daily_protein, daily_fats, daily_carbs,
	base_calories, base_protein, base_fats, base_carbs,
	timezone, morning_time, evening_time, water_reminders, all_disabled,
	reminder_style, version, created_at, updated_at`

func scanProfile(row rowScanner) (*domain.UserProfile, error) {
	var (
		p                             domain.UserProfile
		active, water, disabled       int
		goal, gender, activity, style string
		createdAt, updatedAt          int64
	)
	if err := row.Scan(
		&p.UserID, &p.ChatID, &active, &goal, &gender, &p.Body.Age, &p.Body.HeightCM, &activity,
		&p.CurrentWeight, &p.TargetWeight,
		&p.Targets.Calories, &p.Targets.Protein, &p.Targets.Fats, &p.Targets.Carbs,
		&p.Baseline.Calories, &p.Baseline.Protein, &p.Baseline.Fats, &p.Baseline.Carbs,
		&p.Timezone, &p.Reminders.MorningTime, &p.Reminders.EveningTime, &water, &disabled,
		&style, &p.Version, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	p.Active = active != 0
	p.Goal = domain.Goal(goal)
	p.Body.Gender = domain.Gender(gender)
	p.Body.Activity = domain.ActivityLevel(activity)
	p.Reminders.WaterReminders = water != 0
	p.Reminders.AllDisabled = disabled != 0
	p.ReminderStyle = domain.ReminderStyle(style)
	p.CreatedAt = time.Unix(createdAt, 0).UTC()
	p.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &p, nil
}

const checkInColumns = `user_id, date, weight, sleep_hours, mood, steps, water_ml, notes,
	weight_at, steps_at, created_at, updated_at`

func scanCheckIn(row rowScanner) (domain.CheckIn, error) {
	var (
		c                    domain.CheckIn
		date, mood           string
		weight, sleep        sql.NullFloat64
		steps, water         sql.NullInt64
		weightAt, stepsAt    sql.NullInt64
		createdAt, updatedAt int64
	)
	if err := row.Scan(&c.UserID, &date, &weight, &sleep, &mood, &steps, &water, &c.Notes,
		&weightAt, &stepsAt, &createdAt, &updatedAt); err != nil {
		return c, err
	}
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return c, err
	}
	c.Date = d
	c.Weight = fromNullFloat(weight)
	c.SleepHours = fromNullFloat(sleep)
	c.Mood = domain.Mood(mood)
	c.Steps = fromNullCount(steps)
	c.WaterML = fromNullCount(water)
	c.WeightAt = fromNullInt64(weightAt)
	c.StepsAt = fromNullInt64(stepsAt)
	c.CreatedAt = time.Unix(createdAt, 0).UTC()
	c.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return c, nil
}
