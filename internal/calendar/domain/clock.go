package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const (
	// MinutesPerDay is the length of a day in minutes
	MinutesPerDay = 24 * 60

	// DateLayout is the layout of CalendarEvent.Date
	DateLayout = "2006-01-02"
	// ClockLayout is the layout of CalendarEvent.Time
	ClockLayout = "15:04"
)

var clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// ParseClock converts a zero-padded HH:MM string into minutes after midnight
func ParseClock(s string) (int, error) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	return h*60 + mm, nil
}

// FormatClock renders minutes after midnight as HH:MM. Values past
// midnight wrap around.
func FormatClock(minutes int) string {
	minutes %= MinutesPerDay
	if minutes < 0 {
		minutes += MinutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ClockOf returns t's wall clock as HH:MM
func ClockOf(t time.Time) string {
	return t.Format(ClockLayout)
}

// DateOf returns t's calendar date as YYYY-MM-DD
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

// StartTime combines a date and a clock in loc
func StartTime(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateLayout+" "+ClockLayout, date+" "+clock, loc)
}
