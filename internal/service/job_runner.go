package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"taskplanner/internal/metrics"
	"taskplanner/internal/recurrence"
	"taskplanner/internal/repository"
)

// maxLastErrorLen bounds the error summary persisted in job state.
const maxLastErrorLen = 512

// JobFunc is a daily job payload. The summary is stored in logs; a non-nil
// error ends up truncated in the job state's LastError.
type JobFunc func(ctx context.Context) (summary string, err error)

// JobRunner executes named daily jobs at most once per UTC calendar day,
// surviving process restarts through the durable JobState row. The day claim
// is atomic, so two processes firing the same logical day cannot both run.
type JobRunner struct {
	states  *repository.JobStateRepository
	timeout time.Duration
	log     *slog.Logger
	now     func() time.Time
}

func NewJobRunner(states *repository.JobStateRepository, timeout time.Duration, log *slog.Logger) *JobRunner {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &JobRunner{
		states:  states,
		timeout: timeout,
		log:     log,
		now:     time.Now,
	}
}

// RunDaily fires the named job through the once-per-day guard. It returns
// whether the payload ran; payload errors are recorded in job state and
// logged, never propagated. The returned error covers bookkeeping failures
// only.
func (r *JobRunner) RunDaily(ctx context.Context, name string, fn JobFunc) (bool, error) {
	now := r.now().UTC()
	day := recurrence.DateOf(now)
	log := r.log.With("job", name)

	// Cheap pre-check; the authoritative decision is the atomic claim below.
	state, err := r.states.Get(ctx, name)
	if err != nil {
		return false, err
	}
	if state != nil && state.LastRunDate != nil && !state.LastRunDate.Before(day) {
		log.Debug("job already ran today, skipping", "last_run", state.LastRunDate.Format("2006-01-02"))
		metrics.JobRuns.WithLabelValues(name, metrics.ResultSkipped).Inc()
		return false, nil
	}

	runID := uuid.NewString()
	claimed, err := r.states.ClaimDay(ctx, name, day, runID)
	if err != nil {
		return false, err
	}
	if !claimed {
		log.Debug("job claimed elsewhere, skipping", "run_id", runID)
		metrics.JobRuns.WithLabelValues(name, metrics.ResultSkipped).Inc()
		return false, nil
	}

	log.Info("job started", "run_id", runID)
	summary, jobErr := r.invoke(ctx, fn)

	var lastError string
	if jobErr != nil {
		lastError = truncate(jobErr.Error(), maxLastErrorLen)
		metrics.JobRuns.WithLabelValues(name, metrics.ResultFailed).Inc()
		log.Error("job failed", "run_id", runID, "error", jobErr)
	} else {
		metrics.JobRuns.WithLabelValues(name, metrics.ResultCompleted).Inc()
		log.Info("job finished", "run_id", runID, "summary", summary)
	}

	// The work is done either way; losing the bookkeeping write only risks a
	// repeat run tomorrow, which generation tolerates. Detached context so a
	// shutdown mid-pass still clears IsRunning.
	finishCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := r.states.Finish(finishCtx, name, day, lastError); err != nil {
		log.Warn("failed to record job state", "run_id", runID, "error", err)
		return true, err
	}
	return true, nil
}

// invoke runs the payload with a bounded deadline and containment for both
// errors and panics.
func (r *JobRunner) invoke(ctx context.Context, fn JobFunc) (summary string, err error) {
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("job panicked: %v", p)
		}
	}()
	return fn(runCtx)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
