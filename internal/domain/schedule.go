package domain

import (
	"fmt"
	"time"
)

// Clock abstracts "now" so date rules stay deterministic under test.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"

	// MinutesPerDay is the closing boundary for a "00:00" close time.
	MinutesPerDay = 24 * 60
)

// ParseDate parses a "YYYY-MM-DD" booking date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// ToMinutes parses "HH:MM" into minutes since midnight (0-1439).
func ToMinutes(s string) (int, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ClosingBoundaryMinutes returns the effective end-of-day minute for a close
// time. "00:00" means midnight at the end of the day and must sort after every
// same-day open time, so it maps to 1440 rather than 0.
func ClosingBoundaryMinutes(closeTime string) (int, error) {
	if closeTime == "00:00" {
		return MinutesPerDay, nil
	}
	return ToMinutes(closeTime)
}

// IsPastDate reports whether date falls strictly before now's calendar day.
func IsPastDate(date time.Time, now time.Time) bool {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return day.Before(today)
}

// WithinHorizon reports whether date is at most maxDays after now's calendar
// day, inclusive.
func WithinHorizon(date time.Time, now time.Time, maxDays int) bool {
	limit := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, maxDays)
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return !day.After(limit)
}
