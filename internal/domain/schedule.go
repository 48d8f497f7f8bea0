package domain

import "time"

// InWindow returns true if local time (minutes since midnight) is inside active window.
// Supports wrap-around windows like 22:00–02:00 (fromM > toM).
func InWindow(localM, fromM, toM int) bool {
	if fromM == toM {
		return false // zero-length window
	}
	if fromM < toM {
		return localM >= fromM && localM < toM
	}
	// wrap: [from..1440) U [0..to)
	return localM >= fromM || localM < toM
}

// MinutesOfDay returns minutes since midnight of t in its own location.
func MinutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// SinceMidnight returns the exact offset of t from its local midnight.
func SinceMidnight(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
}

// DayOf returns the calendar date of t as midnight UTC, the form CheckIn.Date uses.
func DayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayKey formats the calendar date of t as YYYY-MM-DD.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// LocalNow converts a UTC instant to the user's location.
func LocalNow(nowUTC time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return nowUTC.In(loc)
}
