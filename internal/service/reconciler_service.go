package service

import (
	"context"
	"fmt"
	"log/slog"

	"taskplanner/internal/metrics"
	"taskplanner/internal/model"
	"taskplanner/internal/repository"
)

// TemplateDuplicates reports the reconciliation outcome for one template.
type TemplateDuplicates struct {
	TemplateID uint
	Removed    int
}

// ReconcileReport aggregates an on-demand duplicate cleanup pass.
type ReconcileReport struct {
	TemplatesScanned int
	Removed          int
	PerTemplate      []TemplateDuplicates
	Errors           []string
}

func (r ReconcileReport) Success() bool { return len(r.Errors) == 0 }

// ReconcilerService repairs redundant instances left behind by generation
// passes racing on the same due template. For each template, instances are
// grouped by occurrence key and only the earliest-created member of a group
// survives.
type ReconcilerService struct {
	tasks *repository.TaskRepository
	log   *slog.Logger
}

func NewReconcilerService(tasks *repository.TaskRepository, log *slog.Logger) *ReconcilerService {
	return &ReconcilerService{tasks: tasks, log: log}
}

// CleanupDuplicates reconciles one template, or every template when
// templateID is nil. Per-template failures are collected, not fatal.
func (s *ReconcilerService) CleanupDuplicates(ctx context.Context, templateID *uint) (ReconcileReport, error) {
	var report ReconcileReport

	var templates []model.Task
	if templateID != nil {
		tmpl, err := s.tasks.FindTemplateByID(ctx, *templateID)
		if err != nil {
			return report, fmt.Errorf("find template %d: %w", *templateID, err)
		}
		templates = []model.Task{*tmpl}
	} else {
		all, err := s.tasks.ListTemplates(ctx)
		if err != nil {
			return report, err
		}
		templates = all
	}

	for i := range templates {
		tmpl := &templates[i]
		removed, err := s.reconcileTemplate(ctx, tmpl.ID)
		report.TemplatesScanned++
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("template %d: %v", tmpl.ID, err))
			continue
		}
		if removed > 0 {
			report.Removed += removed
			report.PerTemplate = append(report.PerTemplate, TemplateDuplicates{TemplateID: tmpl.ID, Removed: removed})
		}
	}

	if report.Removed > 0 {
		metrics.DuplicatesRemoved.Add(float64(report.Removed))
		s.log.Info("duplicate instances removed", "count", report.Removed, "templates", len(report.PerTemplate))
	}
	return report, nil
}

func (s *ReconcilerService) reconcileTemplate(ctx context.Context, templateID uint) (int, error) {
	instances, err := s.tasks.FindInstancesByTemplate(ctx, templateID)
	if err != nil {
		return 0, err
	}

	// Instances come back ordered by creation time, so the first member of
	// each group is the keeper.
	seen := make(map[string]bool, len(instances))
	removed := 0
	for i := range instances {
		inst := &instances[i]
		key := occurrenceKey(inst)
		if !seen[key] {
			seen[key] = true
			continue
		}
		if err := s.tasks.DeleteInstance(ctx, inst.ID); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// occurrenceKey prefers the structural occurrence date; rows written before
// that field existed fall back to the date-suffixed title.
func occurrenceKey(inst *model.Task) string {
	if inst.OccurrenceDate != nil {
		return inst.OccurrenceDate.UTC().Format("2006-01-02")
	}
	return "title:" + inst.Title
}
