package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"taskplanner/internal/metrics"
	"taskplanner/internal/model"
	"taskplanner/internal/recurrence"
	"taskplanner/internal/repository"
)

// ErrTemplateNotFound distinguishes a missing template from a generation
// failure when a single template is triggered by id.
var ErrTemplateNotFound = errors.New("template not found")

// GenerationReport summarizes one generation pass. A pass with per-template
// errors is still a completed pass; only a store-level query failure aborts.
type GenerationReport struct {
	Generated int
	Errors    []string
	Message   string
}

func (r GenerationReport) Success() bool { return len(r.Errors) == 0 }

// GenerationService materializes task instances from due recurring
// templates and advances their schedules.
type GenerationService struct {
	tasks *repository.TaskRepository
	log   *slog.Logger
}

func NewGenerationService(tasks *repository.TaskRepository, log *slog.Logger) *GenerationService {
	return &GenerationService{tasks: tasks, log: log}
}

// DueTemplates returns every template due at the given moment.
func (s *GenerationService) DueTemplates(ctx context.Context, now time.Time) ([]model.Task, error) {
	return s.tasks.FindDueTemplates(ctx, now)
}

// CountPending reports how many templates are due without side effects.
func (s *GenerationService) CountPending(ctx context.Context, now time.Time) (int64, error) {
	return s.tasks.CountDueTemplates(ctx, now)
}

// GenerateAll processes every due template independently. One template's
// failure is recorded and does not stop the rest; the returned error is
// non-nil only when the due scan itself fails.
func (s *GenerationService) GenerateAll(ctx context.Context, now time.Time) (GenerationReport, error) {
	var report GenerationReport

	if ended, err := s.tasks.MarkExpiredTemplates(ctx, now); err != nil {
		s.log.Warn("failed to finalize expired templates", "error", err)
	} else if ended > 0 {
		s.log.Info("finalized expired templates", "count", ended)
	}

	templates, err := s.tasks.FindDueTemplates(ctx, now)
	if err != nil {
		return report, err
	}

	for i := range templates {
		tmpl := &templates[i]
		if err := s.generateOne(ctx, tmpl, now); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("template %d: %v", tmpl.ID, err))
			metrics.GenerationErrors.Inc()
			s.log.Warn("template generation failed", "template_id", tmpl.ID, "error", err)
			continue
		}
		report.Generated++
		metrics.InstancesGenerated.Inc()
	}

	report.Message = fmt.Sprintf("generated %d instance(s) from %d due template(s), %d error(s)",
		report.Generated, len(templates), len(report.Errors))
	return report, nil
}

// GenerateForTemplate generates one instance for a single template if and
// only if it is currently due. Returns whether generation occurred.
func (s *GenerationService) GenerateForTemplate(ctx context.Context, templateID uint, now time.Time) (bool, error) {
	tmpl, err := s.tasks.FindTemplateByID(ctx, templateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, fmt.Errorf("%w: id %d", ErrTemplateNotFound, templateID)
		}
		return false, fmt.Errorf("find template %d: %w", templateID, err)
	}

	if !isDue(tmpl, now) {
		return false, nil
	}

	if err := s.generateOne(ctx, tmpl, now); err != nil {
		return false, err
	}
	metrics.InstancesGenerated.Inc()
	return true, nil
}

func isDue(tmpl *model.Task, now time.Time) bool {
	if !tmpl.IsTemplate() || tmpl.RecurrenceEnded || tmpl.NextGenerationAt == nil {
		return false
	}
	if tmpl.NextGenerationAt.After(now) {
		return false
	}
	if tmpl.RecurrenceEnd != nil && tmpl.RecurrenceEnd.Before(recurrence.DateOf(now)) {
		return false
	}
	return true
}

// generateOne creates the instance for the template's current occurrence and
// advances the schedule, ending the recurrence when the end date or the
// occurrence cap is reached.
func (s *GenerationService) generateOne(ctx context.Context, tmpl *model.Task, now time.Time) error {
	rule, err := tmpl.Rule()
	if err != nil {
		return fmt.Errorf("recurrence rule: %w", err)
	}

	occurrence := recurrence.DateOf(now)
	if tmpl.NextGenerationAt != nil {
		occurrence = recurrence.DateOf(*tmpl.NextGenerationAt)
	}

	instance := model.Task{
		UserID:           tmpl.UserID,
		CategoryID:       tmpl.CategoryID,
		Title:            fmt.Sprintf("%s (%s)", tmpl.Title, occurrence.Format("2006-01-02")),
		Description:      tmpl.Description,
		StartDate:        &occurrence,
		Deadline:         tmpl.Deadline,
		ParentTemplateID: &tmpl.ID,
		OccurrenceDate:   &occurrence,
	}
	if err := s.tasks.Create(ctx, &instance); err != nil {
		return err
	}

	generatedAt := now
	tmpl.LastGeneratedAt = &generatedAt
	tmpl.GeneratedCount++

	next, err := recurrence.NextOccurrence(now, rule)
	switch {
	case err != nil:
		// Rule parsed above, so this should not happen; stop the schedule
		// rather than looping on a broken template.
		tmpl.NextGenerationAt = nil
		tmpl.RecurrenceEnded = true
	case tmpl.RecurrenceEnd != nil && next.After(*tmpl.RecurrenceEnd),
		tmpl.MaxOccurrences > 0 && tmpl.GeneratedCount >= tmpl.MaxOccurrences:
		tmpl.NextGenerationAt = nil
		tmpl.RecurrenceEnded = true
	default:
		tmpl.NextGenerationAt = &next
	}

	if err := s.tasks.Save(ctx, tmpl); err != nil {
		return fmt.Errorf("advance schedule: %w", err)
	}

	s.log.Debug("instance generated",
		"template_id", tmpl.ID,
		"instance_id", instance.ID,
		"occurrence", occurrence.Format("2006-01-02"),
		"ended", tmpl.RecurrenceEnded)
	return nil
}
