// Package metrics exposes Prometheus instrumentation for the background
// jobs. Counters are registered on the default registry; Handler serves them
// for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Job run results.
const (
	ResultCompleted = "completed"
	ResultSkipped   = "skipped"
	ResultFailed    = "failed"
)

var (
	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskplanner_job_runs_total",
		Help: "Daily job firings by job name and result.",
	}, []string{"job", "result"})

	InstancesGenerated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskplanner_instances_generated_total",
		Help: "Task instances materialized from recurring templates.",
	})

	GenerationErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskplanner_generation_errors_total",
		Help: "Per-template failures during generation passes.",
	})

	DuplicatesRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskplanner_duplicates_removed_total",
		Help: "Redundant instances deleted by the duplicate reconciler.",
	})

	TasksCleaned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "taskplanner_completed_tasks_cleaned_total",
		Help: "Old completed tasks removed by the cleanup job.",
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
