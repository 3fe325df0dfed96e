package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"taskplanner/internal/model"
)

// JobStateRepository persists once-per-day bookkeeping for named background
// jobs. The day claim is a single conditional write so that concurrent
// processes cannot both start the same job for the same calendar day.
type JobStateRepository struct {
	db *gorm.DB
}

func NewJobStateRepository(db *gorm.DB) *JobStateRepository {
	return &JobStateRepository{db: db}
}

// Get returns the state for a job, or nil if the job has never run.
func (r *JobStateRepository) Get(ctx context.Context, name string) (*model.JobState, error) {
	var state model.JobState
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&state).Error
	switch {
	case err == nil:
		return &state, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil
	default:
		return nil, fmt.Errorf("get job state %q: %w", name, err)
	}
}

func (r *JobStateRepository) List(ctx context.Context) ([]model.JobState, error) {
	var states []model.JobState
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&states).Error; err != nil {
		return nil, fmt.Errorf("list job states: %w", err)
	}
	return states, nil
}

// ClaimDay transitions a job from Idle to Running for the given UTC day.
// Exactly one of any number of concurrent callers wins: the claim is a
// conditional UPDATE whose affected-row count decides the winner, and the
// unique index on name arbitrates the first-ever run.
func (r *JobStateRepository) ClaimDay(ctx context.Context, name string, day time.Time, runID string) (bool, error) {
	db := r.db.WithContext(ctx)

	res := db.Model(&model.JobState{}).
		Where("name = ? AND is_running = ?", name, false).
		Where("last_run_date IS NULL OR last_run_date < ?", day).
		Updates(map[string]interface{}{
			"is_running":  true,
			"last_run_id": runID,
		})
	if res.Error != nil {
		return false, fmt.Errorf("claim job %q: %w", name, res.Error)
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	// No row updated: either the job already ran (or is running) today, or
	// the row does not exist yet. Try to create it; the unique name index
	// turns a racing double-create into a loss, not a double run.
	existing, err := r.Get(ctx, name)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	state := model.JobState{Name: name, IsRunning: true, LastRunID: runID}
	if err := db.Create(&state).Error; err != nil {
		if after, getErr := r.Get(ctx, name); getErr == nil && after != nil {
			return false, nil
		}
		return false, fmt.Errorf("create job state %q: %w", name, err)
	}
	return true, nil
}

// Finish records the end of a pass: Running -> Idle, the run date stamped,
// and the error summary set or cleared.
func (r *JobStateRepository) Finish(ctx context.Context, name string, runDate time.Time, lastError string) error {
	res := r.db.WithContext(ctx).Model(&model.JobState{}).
		Where("name = ?", name).
		Updates(map[string]interface{}{
			"is_running":    false,
			"last_run_date": runDate,
			"last_error":    lastError,
		})
	if res.Error != nil {
		return fmt.Errorf("finish job %q: %w", name, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("finish job %q: no state row", name)
	}
	return nil
}

// ReleaseStale clears IsRunning on jobs whose pass started longer ago than
// maxAge. Covers a process that died mid-pass and left the flag set.
func (r *JobStateRepository) ReleaseStale(ctx context.Context, now time.Time, maxAge time.Duration) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.JobState{}).
		Where("is_running = ? AND updated_at < ?", true, now.Add(-maxAge)).
		Update("is_running", false)
	if res.Error != nil {
		return 0, fmt.Errorf("release stale jobs: %w", res.Error)
	}
	return res.RowsAffected, nil
}
