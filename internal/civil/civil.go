// Package civil handles the timezone-naive calendar dates ("2006-01-02") and
// wall-clock times ("15:04") the scheduling engine works in. Dates and clock
// times are deliberately not tied to a location; combining them uses the
// server's local zone. Per-provider timezones are a known limitation.
package civil

import (
	"errors"
	"fmt"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// ErrFormat marks a date or clock string that does not parse.
var ErrFormat = errors.New("civil: malformed value")

// ParseDate validates a calendar date string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", ErrFormat, s)
	}
	return t, nil
}

// ParseClock returns minutes since midnight for an "HH:MM" string.
func ParseClock(s string) (int, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid time %q", ErrFormat, s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// AddMinutes shifts an "HH:MM" clock time forward. A result past 23:59 is an
// error; sessions can not run past midnight.
func AddMinutes(clock string, minutes int) (string, error) {
	m, err := ParseClock(clock)
	if err != nil {
		return "", err
	}
	m += minutes
	if m > 23*60+59 {
		return "", fmt.Errorf("%w: %s +%dm runs past midnight", ErrFormat, clock, minutes)
	}
	return FormatClock(m), nil
}

// Combine builds the local instant for a date plus clock time.
func Combine(date, clock string) (time.Time, error) {
	d, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	m, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), m/60, m%60, 0, 0, time.Local), nil
}

// Weekday returns the weekday of a date string (Sunday = 0).
func Weekday(date string) (time.Weekday, error) {
	d, err := ParseDate(date)
	if err != nil {
		return 0, err
	}
	return d.Weekday(), nil
}
