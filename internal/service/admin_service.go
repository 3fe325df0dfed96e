package service

import (
	"context"
	"fmt"
	"time"

	"taskplanner/internal/model"
	"taskplanner/internal/recurrence"
	"taskplanner/internal/repository"
)

// Action selects an administrative operation on the recurring-task engine.
type Action string

const (
	ActionGenerateAll         Action = "generate-all"
	ActionGenerateForTemplate Action = "generate-for-template"
	ActionCountPending        Action = "count-pending"
	ActionListStatus          Action = "list-status"
	ActionResetSchedule       Action = "reset-schedule"
	ActionCleanupDuplicates   Action = "cleanup-duplicates"
)

// Actions lists every supported selector, for CLI help and validation.
func Actions() []Action {
	return []Action{
		ActionGenerateAll,
		ActionGenerateForTemplate,
		ActionCountPending,
		ActionListStatus,
		ActionResetSchedule,
		ActionCleanupDuplicates,
	}
}

// JobStatus is a read-only view of one scheduler job's state.
type JobStatus struct {
	Name        string
	LastRunDate *time.Time
	IsRunning   bool
	LastError   string
}

// TemplateStatus is a read-only view of one template's schedule.
type TemplateStatus struct {
	TemplateID       uint
	Title            string
	NextGenerationAt *time.Time
	LastGeneratedAt  *time.Time
	Ended            bool
}

// ActionResult is the structured outcome of an admin action. Partial
// failures land in Errors; the hard-error path is reserved for the store
// being unreachable.
type ActionResult struct {
	Action       Action
	Success      bool
	Message      string
	Generated    int
	PendingCount int64
	Removed      int
	Errors       []string
	Jobs         []JobStatus
	Templates    []TemplateStatus
}

// EngineStatus is the lightweight health view of the engine.
type EngineStatus struct {
	PendingCount int64
	Ready        bool
}

// AdminService dispatches operational/debugging actions against the engine,
// bypassing the timers but sharing the executors' due-checks.
type AdminService struct {
	gen    *GenerationService
	rec    *ReconcilerService
	tasks  *repository.TaskRepository
	states *repository.JobStateRepository
}

func NewAdminService(gen *GenerationService, rec *ReconcilerService, tasks *repository.TaskRepository, states *repository.JobStateRepository) *AdminService {
	return &AdminService{gen: gen, rec: rec, tasks: tasks, states: states}
}

// Do runs one action. templateID is required by generate-for-template and
// optional for reset-schedule and cleanup-duplicates (nil means all).
func (s *AdminService) Do(ctx context.Context, action Action, templateID *uint, now time.Time) (ActionResult, error) {
	result := ActionResult{Action: action}

	switch action {
	case ActionGenerateAll:
		report, err := s.gen.GenerateAll(ctx, now)
		if err != nil {
			return result, err
		}
		result.Generated = report.Generated
		result.Errors = report.Errors
		result.Message = report.Message
		result.Success = report.Success()

	case ActionGenerateForTemplate:
		if templateID == nil {
			return result, fmt.Errorf("%s requires a template id", action)
		}
		generated, err := s.gen.GenerateForTemplate(ctx, *templateID, now)
		if err != nil {
			return result, err
		}
		if generated {
			result.Generated = 1
			result.Message = fmt.Sprintf("generated instance for template %d", *templateID)
		} else {
			result.Message = fmt.Sprintf("template %d is not due", *templateID)
		}
		result.Success = true

	case ActionCountPending:
		count, err := s.gen.CountPending(ctx, now)
		if err != nil {
			return result, err
		}
		result.PendingCount = count
		result.Message = fmt.Sprintf("%d template(s) pending generation", count)
		result.Success = true

	case ActionListStatus:
		if err := s.listStatus(ctx, &result); err != nil {
			return result, err
		}
		result.Success = true

	case ActionResetSchedule:
		if err := s.resetSchedule(ctx, templateID, now, &result); err != nil {
			return result, err
		}
		result.Success = len(result.Errors) == 0

	case ActionCleanupDuplicates:
		report, err := s.rec.CleanupDuplicates(ctx, templateID)
		if err != nil {
			return result, err
		}
		result.Removed = report.Removed
		result.Errors = report.Errors
		result.Message = fmt.Sprintf("removed %d duplicate instance(s) across %d template(s)",
			report.Removed, report.TemplatesScanned)
		result.Success = report.Success()

	default:
		return result, fmt.Errorf("unknown action %q", action)
	}

	return result, nil
}

// Status reports the engine's health: pending work plus readiness.
func (s *AdminService) Status(ctx context.Context, now time.Time) (EngineStatus, error) {
	count, err := s.gen.CountPending(ctx, now)
	if err != nil {
		return EngineStatus{}, err
	}
	return EngineStatus{PendingCount: count, Ready: true}, nil
}

func (s *AdminService) listStatus(ctx context.Context, result *ActionResult) error {
	states, err := s.states.List(ctx)
	if err != nil {
		return err
	}
	for _, st := range states {
		result.Jobs = append(result.Jobs, JobStatus{
			Name:        st.Name,
			LastRunDate: st.LastRunDate,
			IsRunning:   st.IsRunning,
			LastError:   st.LastError,
		})
	}

	templates, err := s.tasks.ListTemplates(ctx)
	if err != nil {
		return err
	}
	for _, tmpl := range templates {
		result.Templates = append(result.Templates, TemplateStatus{
			TemplateID:       tmpl.ID,
			Title:            tmpl.Title,
			NextGenerationAt: tmpl.NextGenerationAt,
			LastGeneratedAt:  tmpl.LastGeneratedAt,
			Ended:            tmpl.RecurrenceEnded,
		})
	}
	result.Message = fmt.Sprintf("%d job(s), %d template(s)", len(result.Jobs), len(result.Templates))
	return nil
}

// resetSchedule recomputes NextGenerationAt from the rule's catch-up date,
// for one template or all of them. Templates past their end date stay ended.
func (s *AdminService) resetSchedule(ctx context.Context, templateID *uint, now time.Time, result *ActionResult) error {
	var templates []model.Task
	if templateID != nil {
		tmpl, err := s.tasks.FindTemplateByID(ctx, *templateID)
		if err != nil {
			return fmt.Errorf("find template %d: %w", *templateID, err)
		}
		templates = []model.Task{*tmpl}
	} else {
		all, err := s.tasks.ListTemplates(ctx)
		if err != nil {
			return err
		}
		templates = all
	}

	reset := 0
	today := recurrence.DateOf(now)
	for i := range templates {
		tmpl := &templates[i]

		if tmpl.RecurrenceEnd != nil && tmpl.RecurrenceEnd.Before(today) {
			if !tmpl.RecurrenceEnded {
				tmpl.RecurrenceEnded = true
				tmpl.NextGenerationAt = nil
				if err := s.tasks.Save(ctx, tmpl); err != nil {
					result.Errors = append(result.Errors, fmt.Sprintf("template %d: %v", tmpl.ID, err))
				}
			}
			continue
		}

		rule, err := tmpl.Rule()
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("template %d: %v", tmpl.ID, err))
			continue
		}
		next, err := recurrence.InitialGenerationDate(today, rule)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("template %d: %v", tmpl.ID, err))
			continue
		}
		tmpl.NextGenerationAt = &next
		tmpl.RecurrenceEnded = false
		if err := s.tasks.Save(ctx, tmpl); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("template %d: %v", tmpl.ID, err))
			continue
		}
		reset++
	}

	result.Message = fmt.Sprintf("reset schedule for %d template(s), %d error(s)", reset, len(result.Errors))
	return nil
}
