package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"taskplanner/internal/metrics"
	"taskplanner/internal/repository"
)

// CleanupService removes completed one-off tasks older than the retention
// window. Runs as the completed-task-cleanup daily job.
type CleanupService struct {
	tasks     *repository.TaskRepository
	retention time.Duration
	log       *slog.Logger
}

func NewCleanupService(tasks *repository.TaskRepository, retentionDays int, log *slog.Logger) *CleanupService {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	return &CleanupService{
		tasks:     tasks,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		log:       log,
	}
}

// CleanupCompleted deletes completed tasks finished before the retention
// cutoff and returns a human-readable summary.
func (s *CleanupService) CleanupCompleted(ctx context.Context, now time.Time) (string, error) {
	cutoff := now.Add(-s.retention)
	removed, err := s.tasks.DeleteCompletedBefore(ctx, cutoff)
	if err != nil {
		return "", err
	}
	if removed > 0 {
		metrics.TasksCleaned.Add(float64(removed))
		s.log.Info("completed tasks cleaned up", "removed", removed, "cutoff", cutoff.Format("2006-01-02"))
	}
	return fmt.Sprintf("removed %d completed task(s) older than %s", removed, cutoff.Format("2006-01-02")), nil
}
