// Package recur expands recurring templates into concrete task instances.
// Pattern matching is a pure function over UTC calendar dates so it can be
// tested without touching storage.
package recur

import (
	"time"

	"github.com/sudo-sidd/neuropilot/internal/model"
)

// Matches reports whether a template's pattern fires on the given UTC
// calendar date.
func Matches(t model.RecurringTemplate, date time.Time) bool {
	date = truncateToDay(date)
	switch t.PatternType {
	case model.PatternDaily:
		return true
	case model.PatternWeekdays:
		wd := int(date.Weekday())
		for _, d := range t.PatternDays {
			if d == wd {
				return true
			}
		}
		return false
	case model.PatternEveryOtherDay:
		if t.EveryOtherSeed == nil {
			return false
		}
		seed := truncateToDay(*t.EveryOtherSeed)
		days := int(date.Sub(seed).Hours() / 24)
		return days >= 0 && days%2 == 0
	default:
		return false
	}
}

// DatesMatching returns the pattern's matching dates in
// [from, from + daysAhead], inclusive on both ends, as UTC midnights.
func DatesMatching(t model.RecurringTemplate, from time.Time, daysAhead int) []time.Time {
	var dates []time.Time
	day := truncateToDay(from)
	for i := 0; i <= daysAhead; i++ {
		if Matches(t, day) {
			dates = append(dates, day)
		}
		day = day.AddDate(0, 0, 1)
	}
	return dates
}

// truncateToDay drops the time-of-day component in UTC.
func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
