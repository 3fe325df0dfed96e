package model

import "time"

// Job names known to the scheduler.
const (
	JobRecurringGeneration  = "recurring-generation"
	JobCompletedTaskCleanup = "completed-task-cleanup"
	JobStartDateNotify      = "start-date-notify"
)

// JobState is the durable once-per-day bookkeeping for one named background
// job. LastRunDate is truncated to the UTC day; a job whose LastRunDate is
// already today must not run again.
type JobState struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"uniqueIndex"`
	LastRunDate *time.Time
	IsRunning   bool `gorm:"default:false"`
	LastRunID   string
	LastError   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
