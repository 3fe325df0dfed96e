package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"taskplanner/internal/metrics"
	"taskplanner/internal/model"
	"taskplanner/internal/service"
)

// staleRunningAge: a job stuck in IsRunning longer than this is assumed to
// belong to a dead process and gets released on startup.
const staleRunningAge = time.Hour

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the background scheduler daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	if released, err := a.stateRepo.ReleaseStale(ctx, time.Now().UTC(), staleRunningAge); err != nil {
		a.log.Warn("failed to release stale job states", "error", err)
	} else if released > 0 {
		a.log.Warn("released stale running jobs", "count", released)
	}

	jobs := []struct {
		name   string
		timeAt string
		fn     service.JobFunc
	}{
		{model.JobRecurringGeneration, a.cfg.GenerationTime, func(ctx context.Context) (string, error) {
			report, err := a.generation.GenerateAll(ctx, time.Now().UTC())
			if err != nil {
				return "", err
			}
			if !report.Success() {
				return report.Message, errors.New(report.Message)
			}
			return report.Message, nil
		}},
		{model.JobCompletedTaskCleanup, a.cfg.CleanupTime, func(ctx context.Context) (string, error) {
			return a.cleanup.CleanupCompleted(ctx, time.Now().UTC())
		}},
		{model.JobStartDateNotify, a.cfg.NotifyTime, func(ctx context.Context) (string, error) {
			return a.reminder.NotifyStartingToday(ctx, time.Now().UTC())
		}},
	}

	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}
	scheduler := service.NewSchedulerService(loc)
	for _, j := range jobs {
		job := j
		if _, err := scheduler.ScheduleDaily(job.timeAt, func() {
			if _, err := a.runner.RunDaily(ctx, job.name, job.fn); err != nil {
				a.log.Error("job bookkeeping failed", "job", job.name, "error", err)
			}
		}); err != nil {
			return err
		}
	}

	if a.cfg.MetricsAddr != "" {
		go serveMetrics(a, a.cfg.MetricsAddr)
	}

	scheduler.Start()
	defer scheduler.Stop()
	a.log.Info("scheduler started",
		"generation_at", a.cfg.GenerationTime,
		"cleanup_at", a.cfg.CleanupTime,
		"notify_at", a.cfg.NotifyTime,
		"timezone", a.cfg.Timezone)

	// A freshly deployed process fires every job once immediately so the day
	// is not lost when startup happens after the scheduled hour. The
	// once-per-day guard keeps this from double-running.
	for _, j := range jobs {
		if _, err := a.runner.RunDaily(ctx, j.name, j.fn); err != nil {
			a.log.Error("startup job run failed", "job", j.name, "error", err)
		}
	}

	<-ctx.Done()
	a.log.Info("shutting down")
	return nil
}

func serveMetrics(a *app, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	a.log.Info("metrics listener started", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		a.log.Error("metrics listener failed", "error", err)
	}
}
