// Package recurrence computes occurrence dates for repeating tasks.
// All functions are pure: dates in, dates out, no I/O. Callers are expected
// to pass day-truncated UTC dates (see DateOf).
package recurrence

import (
	"fmt"
	"sort"
	"time"
)

// Pattern is the repeat cadence of a rule.
type Pattern string

const (
	PatternDaily   Pattern = "daily"
	PatternWeekly  Pattern = "weekly"
	PatternMonthly Pattern = "monthly"
	PatternCustom  Pattern = "custom"
)

// Unit is the base cadence of a custom rule.
type Unit string

const (
	UnitDaily   Unit = "daily"
	UnitWeekly  Unit = "weekly"
	UnitMonthly Unit = "monthly"
	UnitYearly  Unit = "yearly"
)

// Rule is a validated recurrence definition. DaysOfWeek applies to weekly
// rules (0=Sunday..6=Saturday), DayOfMonth to monthly rules, Unit to custom
// rules.
type Rule struct {
	Pattern    Pattern
	Interval   int
	DaysOfWeek []int
	DayOfMonth int
	Unit       Unit
}

// Validate checks the rule once, at template-creation time, so that the
// calculator never has to re-validate on every call.
func (r Rule) Validate() error {
	if r.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %d", r.Interval)
	}
	switch r.Pattern {
	case PatternDaily:
	case PatternWeekly:
		for _, d := range r.DaysOfWeek {
			if d < 0 || d > 6 {
				return fmt.Errorf("day of week out of range: %d", d)
			}
		}
	case PatternMonthly:
		if r.DayOfMonth != 0 && (r.DayOfMonth < 1 || r.DayOfMonth > 31) {
			return fmt.Errorf("day of month out of range: %d", r.DayOfMonth)
		}
	case PatternCustom:
		switch r.Unit {
		case UnitDaily, UnitWeekly, UnitMonthly, UnitYearly:
		default:
			return fmt.Errorf("unknown custom unit %q", r.Unit)
		}
	default:
		return fmt.Errorf("unknown pattern %q", r.Pattern)
	}
	return nil
}

// DateOf truncates a time to its UTC calendar day.
func DateOf(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// NextOccurrence returns the occurrence date following last according to the
// rule. An unknown or malformed rule yields an error; callers treat that as
// "not due".
func NextOccurrence(last time.Time, r Rule) (time.Time, error) {
	last = DateOf(last)
	switch r.Pattern {
	case PatternDaily:
		return last.AddDate(0, 0, r.Interval), nil
	case PatternWeekly:
		next := last.AddDate(0, 0, r.Interval*7)
		return snapToWeekday(next, r.DaysOfWeek), nil
	case PatternMonthly:
		return addMonths(last, r.Interval, r.DayOfMonth), nil
	case PatternCustom:
		return nextCustom(last, r)
	default:
		return time.Time{}, fmt.Errorf("unknown pattern %q", r.Pattern)
	}
}

func nextCustom(last time.Time, r Rule) (time.Time, error) {
	switch r.Unit {
	case UnitDaily:
		return last.AddDate(0, 0, r.Interval), nil
	case UnitWeekly:
		return last.AddDate(0, 0, r.Interval*7), nil
	case UnitMonthly:
		return addMonths(last, r.Interval, 0), nil
	case UnitYearly:
		return addMonths(last, r.Interval*12, 0), nil
	default:
		return time.Time{}, fmt.Errorf("unknown custom unit %q", r.Unit)
	}
}

// InitialGenerationDate computes the first date generation should occur for a
// template created today, catching up rules whose scheduled slot has already
// passed in the current period. Without this, a Monday-only task created on a
// Tuesday would silently wait until the following week.
func InitialGenerationDate(today time.Time, r Rule) (time.Time, error) {
	today = DateOf(today)
	switch r.Pattern {
	case PatternDaily:
		return today, nil
	case PatternWeekly:
		if len(r.DaysOfWeek) > 0 {
			return initialWeekly(today, r.DaysOfWeek), nil
		}
	case PatternMonthly:
		if r.DayOfMonth > 0 {
			return initialMonthly(today, r.DayOfMonth), nil
		}
	}
	return NextOccurrence(today, r)
}

// initialWeekly: a scheduled weekday earlier in the current week (or today
// itself) means the occurrence is already due, so generation happens today.
// Otherwise the first upcoming scheduled weekday wins, wrapping into next
// week if none remain.
func initialWeekly(today time.Time, days []int) time.Time {
	sorted := sortedDays(days)
	weekday := int(today.Weekday())

	for _, d := range sorted {
		if d <= weekday {
			return today
		}
	}
	// Every scheduled weekday is still ahead this week.
	return today.AddDate(0, 0, sorted[0]-weekday)
}

func initialMonthly(today time.Time, dayOfMonth int) time.Time {
	year, month, day := today.Date()
	if dayOfMonth >= day {
		return clampedDate(year, month, dayOfMonth)
	}
	next := today.AddDate(0, 0, -day+1).AddDate(0, 1, 0)
	return clampedDate(next.Year(), next.Month(), dayOfMonth)
}

// snapToWeekday moves the date forward to the smallest scheduled weekday that
// is >= its own weekday, wrapping into the following week if none remain.
func snapToWeekday(date time.Time, days []int) time.Time {
	if len(days) == 0 {
		return date
	}
	sorted := sortedDays(days)
	weekday := int(date.Weekday())
	for _, d := range sorted {
		if d >= weekday {
			return date.AddDate(0, 0, d-weekday)
		}
	}
	return date.AddDate(0, 0, 7-weekday+sorted[0])
}

// addMonths advances by whole months without Go's date normalization: day 31
// in a 30-day target month clamps to 30 instead of spilling into the next
// month. dayOfMonth == 0 keeps the source day (clamped).
func addMonths(last time.Time, months, dayOfMonth int) time.Time {
	year, month, day := last.Date()
	monthIndex := int(month) - 1 + months
	year += monthIndex / 12
	monthIndex %= 12
	if monthIndex < 0 {
		monthIndex += 12
		year--
	}
	target := time.Month(monthIndex + 1)

	if dayOfMonth > 0 {
		day = dayOfMonth
	}
	return clampedDate(year, target, day)
}

func clampedDate(year int, month time.Month, day int) time.Time {
	if max := daysInMonth(month, year); day > max {
		day = max
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// daysInMonth: first of the next month, rolled back a day.
func daysInMonth(month time.Month, year int) int {
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	lastOfMonth := firstOfMonth.AddDate(0, 1, 0).AddDate(0, 0, -1)
	return lastOfMonth.Day()
}

func sortedDays(days []int) []int {
	sorted := make([]int, len(days))
	copy(sorted, days)
	sort.Ints(sorted)
	return sorted
}
