package model

import (
	"strconv"
	"strings"
	"time"

	"taskplanner/internal/recurrence"
)

// Task is a single record in the planner. The same table holds both
// recurring templates (IsRecurring=true, ParentTemplateID=nil) and the
// concrete instances generated from them (IsRecurring=false,
// ParentTemplateID set).
type Task struct {
	ID          uint  `gorm:"primaryKey"`
	UserID      uint  `gorm:"index"`
	CategoryID  *uint `gorm:"index"`
	Title       string
	Description string
	StartDate   *time.Time `gorm:"index"`
	Deadline    *time.Time
	IsCompleted bool `gorm:"default:false"`
	CompletedAt *time.Time

	// Instance fields. OccurrenceDate is the structural dedup key: the store
	// rejects a second instance of the same template for the same occurrence.
	ParentTemplateID *uint      `gorm:"index;index:idx_template_occurrence,unique"`
	OccurrenceDate   *time.Time `gorm:"index:idx_template_occurrence,unique"`

	// Template fields.
	IsRecurring      bool   `gorm:"default:false"`
	Pattern          string // daily, weekly, monthly, custom
	RecurInterval    int
	RecurDaysOfWeek  string // comma-separated 0-6, weekly only
	RecurDayOfMonth  int
	RecurUnit        string // custom only: daily, weekly, monthly, yearly
	RecurrenceStart  *time.Time
	RecurrenceEnd    *time.Time
	MaxOccurrences   int
	GeneratedCount   int
	RecurrenceEnded  bool       `gorm:"default:false"`
	NextGenerationAt *time.Time `gorm:"index"`
	LastGeneratedAt  *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsTemplate reports whether the task is a top-level recurring template.
func (t *Task) IsTemplate() bool {
	return t.IsRecurring && t.ParentTemplateID == nil
}

// Rule assembles the stored recurrence columns into a calculator rule.
// Returns an error for malformed rows so that one bad template cannot poison
// a whole generation pass.
func (t *Task) Rule() (recurrence.Rule, error) {
	rule := recurrence.Rule{
		Pattern:    recurrence.Pattern(t.Pattern),
		Interval:   t.RecurInterval,
		DayOfMonth: t.RecurDayOfMonth,
		Unit:       recurrence.Unit(t.RecurUnit),
	}
	days, err := parseDaysOfWeek(t.RecurDaysOfWeek)
	if err != nil {
		return recurrence.Rule{}, err
	}
	rule.DaysOfWeek = days
	if err := rule.Validate(); err != nil {
		return recurrence.Rule{}, err
	}
	return rule, nil
}

// SetDaysOfWeek stores a weekday set in the column encoding.
func (t *Task) SetDaysOfWeek(days []int) {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(d)
	}
	t.RecurDaysOfWeek = strings.Join(parts, ",")
}

func parseDaysOfWeek(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	days := make([]int, 0, len(parts))
	for _, p := range parts {
		d, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, nil
}
