package models

import (
	"fmt"
	"time"
)

// Wall-clock layouts used throughout the engine. Values carry no timezone;
// all clocks are assumed to share the deployment's local zone.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// ParseDate parses a "YYYY-MM-DD" date in the local zone. Dates are stored
// and compared as raw strings, so only the canonical zero-padded form is
// accepted.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	if t.Format(DateLayout) != s {
		return time.Time{}, fmt.Errorf("invalid date %q: must be %s", s, DateLayout)
	}
	return t, nil
}

// ParseClock parses an "HH:MM" wall-clock string into minutes since
// midnight. Clocks are stored, compared and uniqueness-checked as raw
// strings, so only the canonical zero-padded form is accepted.
func ParseClock(s string) (int, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	if t.Format(TimeLayout) != s {
		return 0, fmt.Errorf("invalid time %q: must be HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// CombineDateTime combines a date and a wall-clock time into a local instant.
func CombineDateTime(date, clock string) (time.Time, error) {
	d, err := ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	m, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return d.Add(time.Duration(m) * time.Minute), nil
}
