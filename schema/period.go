package schema

import (
	"fmt"
	"time"
)

// Period is a half-open time interval [Start, End) at a single grain.
// Periods of the same grain for the same repo never overlap and their
// union is gap-free: every instant belongs to exactly one period.
type Period struct {
	Grain Grain     `json:"grain"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// PeriodFor returns the period of the given grain containing t.
// Weekly periods are fixed 7-day windows anchored to weekStart; monthly
// periods follow calendar months. Boundaries are computed in t's location,
// which is expected to be the source timezone.
func PeriodFor(t time.Time, grain Grain, weekStart time.Weekday) (Period, error) {
	loc := t.Location()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)

	switch grain {
	case DailyGrain:
		return Period{Grain: grain, Start: midnight, End: midnight.AddDate(0, 0, 1)}, nil

	case WeeklyGrain:
		// Roll back to the most recent weekStart day at midnight.
		back := (int(midnight.Weekday()) - int(weekStart) + 7) % 7
		start := midnight.AddDate(0, 0, -back)
		return Period{Grain: grain, Start: start, End: start.AddDate(0, 0, 7)}, nil

	case MonthlyGrain:
		start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
		return Period{Grain: grain, Start: start, End: start.AddDate(0, 1, 0)}, nil

	default:
		return Period{}, fmt.Errorf("unsupported grain: %s", grain)
	}
}

// Contains reports whether t falls inside the half-open interval [Start, End).
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// Prev returns the immediately preceding period of the same grain.
// Steps use calendar arithmetic, not fixed durations, so boundaries stay
// on local midnights across DST transitions and match PeriodFor keys.
func (p Period) Prev() Period {
	switch p.Grain {
	case MonthlyGrain:
		return Period{Grain: p.Grain, Start: p.Start.AddDate(0, -1, 0), End: p.Start}
	case WeeklyGrain:
		return Period{Grain: p.Grain, Start: p.Start.AddDate(0, 0, -7), End: p.Start}
	default:
		return Period{Grain: p.Grain, Start: p.Start.AddDate(0, 0, -1), End: p.Start}
	}
}

// Next returns the immediately following period of the same grain.
func (p Period) Next() Period {
	switch p.Grain {
	case MonthlyGrain:
		return Period{Grain: p.Grain, Start: p.End, End: p.End.AddDate(0, 1, 0)}
	case WeeklyGrain:
		return Period{Grain: p.Grain, Start: p.End, End: p.End.AddDate(0, 0, 7)}
	default:
		return Period{Grain: p.Grain, Start: p.End, End: p.End.AddDate(0, 0, 1)}
	}
}

// Key returns a stable identifier for the (grain, start) pair, used to
// namespace store writes and serialize pipeline runs.
func (p Period) Key() string {
	return fmt.Sprintf("%s|%s", p.Grain, p.Start.UTC().Format(time.RFC3339))
}

// Days returns the period length in whole days, used to normalize
// per-period counts into daily rates.
func (p Period) Days() float64 {
	return p.End.Sub(p.Start).Hours() / 24
}

// String renders the period for headers and log lines.
func (p Period) String() string {
	return fmt.Sprintf("%s [%s, %s)", p.Grain, p.Start.Format("2006-01-02"), p.End.Format("2006-01-02"))
}
