package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidClock  = errors.New("invalid clock time")
	ErrInvalidOffset = errors.New("invalid timezone")
)

var offsetRe = regexp.MustCompile(`^(?i)(?:UTC|GMT)\s*([+-])\s*(\d{1,2})(?::?(\d{2}))?$`)

// ParseClock parses "HH:MM" into minutes since midnight.
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: expected HH:MM, got %q", ErrInvalidClock, s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: invalid hour in %q", ErrInvalidClock, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: invalid minute in %q", ErrInvalidClock, s)
	}
	return h*60 + m, nil
}

// ParseUTCOffset parses "UTC", "UTC+3", "UTC-5" or "UTC+5:30".
func ParseUTCOffset(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "UTC") || strings.EqualFold(s, "GMT") {
		return 0, nil
	}
	m := offsetRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOffset, s)
	}
	h, _ := strconv.Atoi(m[2])
	mins := 0
	if m[3] != "" {
		mins, _ = strconv.Atoi(m[3])
	}
	if h > 14 || mins > 59 {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidOffset, s)
	}
	d := time.Duration(h)*time.Hour + time.Duration(mins)*time.Minute
	if m[1] == "-" {
		d = -d
	}
	return d, nil
}

// OffsetLocation returns a fixed zone named like "UTC+3".
func OffsetLocation(d time.Duration) *time.Location {
	if d == 0 {
		return time.UTC
	}
	return time.FixedZone(FormatOffset(d), int(d.Seconds()))
}

// FormatOffset renders an offset as "UTC+3" or "UTC-5:30".
func FormatOffset(d time.Duration) string {
	if d == 0 {
		return "UTC"
	}
	sign := "+"
	if d < 0 {
		sign = "-"
		d = -d
	}
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	if m == 0 {
		return fmt.Sprintf("UTC%s%d", sign, h)
	}
	return fmt.Sprintf("UTC%s%d:%02d", sign, h, m)
}

// ParseTimezone accepts the "UTC±N" form or an IANA location name.
func ParseTimezone(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidOffset)
	}
	if d, err := ParseUTCOffset(tz); err == nil {
		return OffsetLocation(d), nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOffset, tz)
	}
	return loc, nil
}

// FormatMinutes returns HH:MM for minutes since midnight (00:00..23:59).
func FormatMinutes(mins int) string {
	if mins < 0 {
		mins = 0
	}
	h := mins / 60
	m := mins % 60
	return fmt.Sprintf("%02d:%02d", h, m)
}
