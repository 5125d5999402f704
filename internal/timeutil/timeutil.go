// Package timeutil converts between clock strings and minute offsets and
// resolves ISO dates to weekdays.
package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DateLayout is the ISO date format used for every date string.
	DateLayout = "2006-01-02"
	// ClockLayout is the HH:MM format used for slot strings.
	ClockLayout = "15:04"

	// MinutesPerDay is used to wrap overnight slots.
	MinutesPerDay = 24 * 60

	// DinnerCutoff is the first minute classified as dinner.
	DinnerCutoff = 17 * 60
)

// Shift is the service period a clock time belongs to.
type Shift string

const (
	Lunch  Shift = "lunch"
	Dinner Shift = "dinner"
)

// Clock returns the current time. Tests pass a fixed function.
type Clock func() time.Time

// SystemClock is the wall clock in local time.
func SystemClock() time.Time { return time.Now() }

// TimeToMinutes parses "HH:MM" into minutes since midnight.
// Empty or malformed input yields 0; callers validate beforehand.
func TimeToMinutes(clock string) int {
	if clock == "" {
		return 0
	}
	parts := strings.Split(strings.TrimSpace(clock), ":")
	if len(parts) < 2 {
		return 0
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0
	}
	return h*60 + m
}

// MinutesToTime formats minutes as zero-padded "HH:MM".
// Values past midnight are not wrapped; use % MinutesPerDay first.
func MinutesToTime(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ShiftOf classifies a clock time. Empty input is dinner.
func ShiftOf(clock string) Shift {
	if clock == "" {
		return Dinner
	}
	if TimeToMinutes(clock) < DinnerCutoff {
		return Lunch
	}
	return Dinner
}

// IsClock reports whether s is a well-formed "HH:MM" within a day.
func IsClock(s string) bool {
	_, err := time.Parse(ClockLayout, s)
	return err == nil
}

// ParseDate parses an ISO date string at midnight UTC.
func ParseDate(date string) (time.Time, error) {
	return time.Parse(DateLayout, date)
}

// Weekday resolves the weekday of an ISO date.
func Weekday(date string) (time.Weekday, bool) {
	t, err := ParseDate(date)
	if err != nil {
		return time.Sunday, false
	}
	return t.Weekday(), true
}

// DayName returns the lower-case English weekday name of an ISO date,
// or "" when the date cannot be parsed.
func DayName(date string) string {
	wd, ok := Weekday(date)
	if !ok {
		return ""
	}
	return strings.ToLower(wd.String())
}

// Today formats now as an ISO date in now's location.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

// AddDays shifts an ISO date by n calendar days. Invalid input is returned unchanged.
func AddDays(date string, n int) string {
	t, err := ParseDate(date)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, n).Format(DateLayout)
}

// MinuteOfDay returns the minutes elapsed since midnight for t.
func MinuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
