package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRuleValidate(t *testing.T) {
	tests := []struct {
		name    string
		rule    Rule
		wantErr bool
	}{
		{"daily", Rule{Pattern: PatternDaily, Interval: 1}, false},
		{"weekly with days", Rule{Pattern: PatternWeekly, Interval: 2, DaysOfWeek: []int{1, 3, 5}}, false},
		{"monthly day 31", Rule{Pattern: PatternMonthly, Interval: 1, DayOfMonth: 31}, false},
		{"custom yearly", Rule{Pattern: PatternCustom, Interval: 1, Unit: UnitYearly}, false},
		{"zero interval", Rule{Pattern: PatternDaily, Interval: 0}, true},
		{"negative interval", Rule{Pattern: PatternDaily, Interval: -3}, true},
		{"unknown pattern", Rule{Pattern: "fortnightly", Interval: 1}, true},
		{"weekday out of range", Rule{Pattern: PatternWeekly, Interval: 1, DaysOfWeek: []int{7}}, true},
		{"day of month out of range", Rule{Pattern: PatternMonthly, Interval: 1, DayOfMonth: 32}, true},
		{"custom without unit", Rule{Pattern: PatternCustom, Interval: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNextOccurrenceDaily(t *testing.T) {
	for _, interval := range []int{1, 3, 10} {
		rule := Rule{Pattern: PatternDaily, Interval: interval}
		got, err := NextOccurrence(date(2024, time.May, 10), rule)
		require.NoError(t, err)
		assert.Equal(t, date(2024, time.May, 10+interval), got)
	}
}

func TestNextOccurrenceWeekly(t *testing.T) {
	monday := date(2024, time.May, 6)
	require.Equal(t, time.Monday, monday.Weekday())

	t.Run("no weekday set", func(t *testing.T) {
		got, err := NextOccurrence(monday, Rule{Pattern: PatternWeekly, Interval: 2})
		require.NoError(t, err)
		assert.Equal(t, monday.AddDate(0, 0, 14), got)
	})

	t.Run("computed day in set stays put", func(t *testing.T) {
		rule := Rule{Pattern: PatternWeekly, Interval: 1, DaysOfWeek: []int{1, 3, 5}}
		got, err := NextOccurrence(monday, rule)
		require.NoError(t, err)
		// Monday + 7 lands on a Monday, which is scheduled.
		assert.Equal(t, date(2024, time.May, 13), got)
	})

	t.Run("snaps forward within week", func(t *testing.T) {
		rule := Rule{Pattern: PatternWeekly, Interval: 1, DaysOfWeek: []int{3, 5}}
		got, err := NextOccurrence(monday, rule)
		require.NoError(t, err)
		// Monday + 7 snaps to the Wednesday of that week.
		assert.Equal(t, date(2024, time.May, 15), got)
	})

	t.Run("wraps to following week", func(t *testing.T) {
		saturday := date(2024, time.May, 11)
		require.Equal(t, time.Saturday, saturday.Weekday())
		rule := Rule{Pattern: PatternWeekly, Interval: 1, DaysOfWeek: []int{2}}
		got, err := NextOccurrence(saturday, rule)
		require.NoError(t, err)
		// Saturday + 7 is a Saturday; Tuesday has passed, so wrap.
		assert.Equal(t, time.Tuesday, got.Weekday())
		assert.Equal(t, date(2024, time.May, 21), got)
	})
}

func TestNextOccurrenceMonthlyClamps(t *testing.T) {
	rule := Rule{Pattern: PatternMonthly, Interval: 1, DayOfMonth: 31}

	got, err := NextOccurrence(date(2024, time.March, 31), rule)
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.April, 30), got, "day 31 clamps to 30 in April")

	got, err = NextOccurrence(date(2024, time.January, 31), rule)
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.February, 29), got, "2024 is a leap year")

	got, err = NextOccurrence(date(2023, time.January, 31), rule)
	require.NoError(t, err)
	assert.Equal(t, date(2023, time.February, 28), got)
}

func TestNextOccurrenceMonthlyKeepsSourceDay(t *testing.T) {
	rule := Rule{Pattern: PatternMonthly, Interval: 2}
	got, err := NextOccurrence(date(2024, time.May, 15), rule)
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.July, 15), got)
}

func TestNextOccurrenceMonthlyYearRollover(t *testing.T) {
	rule := Rule{Pattern: PatternMonthly, Interval: 3, DayOfMonth: 15}
	got, err := NextOccurrence(date(2024, time.November, 15), rule)
	require.NoError(t, err)
	assert.Equal(t, date(2025, time.February, 15), got)
}

func TestNextOccurrenceCustom(t *testing.T) {
	start := date(2024, time.May, 10)
	tests := []struct {
		unit     Unit
		interval int
		want     time.Time
	}{
		{UnitDaily, 4, date(2024, time.May, 14)},
		{UnitWeekly, 2, date(2024, time.May, 24)},
		{UnitMonthly, 1, date(2024, time.June, 10)},
		{UnitYearly, 1, date(2025, time.May, 10)},
	}
	for _, tt := range tests {
		t.Run(string(tt.unit), func(t *testing.T) {
			rule := Rule{Pattern: PatternCustom, Interval: tt.interval, Unit: tt.unit}
			got, err := NextOccurrence(start, rule)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextOccurrenceUnknownPattern(t *testing.T) {
	_, err := NextOccurrence(date(2024, time.May, 10), Rule{Pattern: "fortnightly", Interval: 1})
	assert.Error(t, err)

	_, err = NextOccurrence(date(2024, time.May, 10), Rule{Pattern: PatternCustom, Interval: 1, Unit: "decades"})
	assert.Error(t, err)
}

func TestInitialGenerationDate(t *testing.T) {
	tuesday := date(2024, time.May, 7)
	require.Equal(t, time.Tuesday, tuesday.Weekday())

	t.Run("daily is due immediately", func(t *testing.T) {
		got, err := InitialGenerationDate(tuesday, Rule{Pattern: PatternDaily, Interval: 1})
		require.NoError(t, err)
		assert.Equal(t, tuesday, got)
	})

	t.Run("weekly with passed weekday catches up today", func(t *testing.T) {
		rule := Rule{Pattern: PatternWeekly, Interval: 1, DaysOfWeek: []int{1, 3, 5}}
		got, err := InitialGenerationDate(tuesday, rule)
		require.NoError(t, err)
		// Monday already passed this week, so the occurrence is due now
		// rather than on the upcoming Wednesday or the following Monday.
		assert.Equal(t, tuesday, got)
	})

	t.Run("weekly with only future weekdays waits", func(t *testing.T) {
		rule := Rule{Pattern: PatternWeekly, Interval: 1, DaysOfWeek: []int{3, 5}}
		got, err := InitialGenerationDate(tuesday, rule)
		require.NoError(t, err)
		assert.Equal(t, date(2024, time.May, 8), got, "upcoming Wednesday")
	})

	t.Run("weekly scheduled today is due today", func(t *testing.T) {
		rule := Rule{Pattern: PatternWeekly, Interval: 1, DaysOfWeek: []int{2}}
		got, err := InitialGenerationDate(tuesday, rule)
		require.NoError(t, err)
		assert.Equal(t, tuesday, got)
	})

	t.Run("monthly day ahead stays this month", func(t *testing.T) {
		rule := Rule{Pattern: PatternMonthly, Interval: 1, DayOfMonth: 15}
		got, err := InitialGenerationDate(date(2024, time.May, 10), rule)
		require.NoError(t, err)
		assert.Equal(t, date(2024, time.May, 15), got)
	})

	t.Run("monthly day today stays today", func(t *testing.T) {
		rule := Rule{Pattern: PatternMonthly, Interval: 1, DayOfMonth: 10}
		got, err := InitialGenerationDate(date(2024, time.May, 10), rule)
		require.NoError(t, err)
		assert.Equal(t, date(2024, time.May, 10), got)
	})

	t.Run("monthly passed day moves to next month", func(t *testing.T) {
		rule := Rule{Pattern: PatternMonthly, Interval: 1, DayOfMonth: 5}
		got, err := InitialGenerationDate(date(2024, time.May, 10), rule)
		require.NoError(t, err)
		assert.Equal(t, date(2024, time.June, 5), got)
	})

	t.Run("monthly clamp in target month", func(t *testing.T) {
		rule := Rule{Pattern: PatternMonthly, Interval: 1, DayOfMonth: 31}
		got, err := InitialGenerationDate(date(2024, time.June, 10), rule)
		require.NoError(t, err)
		assert.Equal(t, date(2024, time.June, 30), got)
	})

	t.Run("fallback delegates to next occurrence", func(t *testing.T) {
		rule := Rule{Pattern: PatternCustom, Interval: 1, Unit: UnitYearly}
		got, err := InitialGenerationDate(date(2024, time.May, 10), rule)
		require.NoError(t, err)
		assert.Equal(t, date(2025, time.May, 10), got)
	})
}

func TestDateOf(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	ts := time.Date(2024, time.May, 10, 2, 30, 0, 0, loc) // 2024-05-09 21:30 UTC
	assert.Equal(t, date(2024, time.May, 9), DateOf(ts))
}
