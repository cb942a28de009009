package contract

import (
	"fmt"
	"strings"
	"time"
)

// PeriodReference is the resolved form of a user-supplied period argument.
// At is an instant inside the requested period; Previous shifts the
// resolved period back by one, which is what "last week" style references
// want.
type PeriodReference struct {
	At       time.Time
	Previous bool
}

// ParsePeriodReference resolves a period argument into a reference instant.
// Accepted forms: "" or "current" (the period containing now), "previous"
// or "last" (one period back), or an ISO date like "2024-03-14".
func ParsePeriodReference(s string, now time.Time) (PeriodReference, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "current":
		return PeriodReference{At: now}, nil
	case "previous", "last":
		return PeriodReference{At: now, Previous: true}, nil
	}

	// Fall through to explicit dates, with or without a time component.
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if at, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return PeriodReference{At: at}, nil
		}
	}
	return PeriodReference{}, fmt.Errorf("invalid period reference '%s'. use current, previous, or an ISO date", s)
}

// ParseWeekday parses a week anchor day name. Empty input defaults to Monday.
func ParseWeekday(s string) (time.Weekday, error) {
	if s == "" {
		return time.Monday, nil
	}
	names := map[string]time.Weekday{
		"sunday":    time.Sunday,
		"monday":    time.Monday,
		"tuesday":   time.Tuesday,
		"wednesday": time.Wednesday,
		"thursday":  time.Thursday,
		"friday":    time.Friday,
		"saturday":  time.Saturday,
	}
	if d, ok := names[strings.ToLower(strings.TrimSpace(s))]; ok {
		return d, nil
	}
	return time.Monday, fmt.Errorf("invalid week-start '%s'. use a full weekday name like monday", s)
}
