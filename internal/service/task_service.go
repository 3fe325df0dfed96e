package service

import (
	"context"
	"fmt"
	"time"

	"taskplanner/internal/model"
	"taskplanner/internal/recurrence"
	"taskplanner/internal/repository"
)

// TaskInput represents data required to create a task or a recurring
// template.
type TaskInput struct {
	Title       string
	Description string
	Category    string
	StartDate   *time.Time
	Deadline    *time.Time

	IsRecurring     bool
	Pattern         recurrence.Pattern
	Interval        int
	DaysOfWeek      []int
	DayOfMonth      int
	Unit            recurrence.Unit
	RecurrenceStart *time.Time
	RecurrenceEnd   *time.Time
	MaxOccurrences  int
}

// TaskService wraps task-related business logic: the minimal task-record
// surface the engine's collaborators use.
type TaskService struct {
	taskRepo     *repository.TaskRepository
	categoryRepo *repository.CategoryRepository
}

func NewTaskService(taskRepo *repository.TaskRepository, categoryRepo *repository.CategoryRepository) *TaskService {
	return &TaskService{taskRepo: taskRepo, categoryRepo: categoryRepo}
}

// CreateTask stores a task. Recurring templates get their rule validated
// once here and their first generation date seeded with catch-up logic, so a
// template created after its natural slot is immediately due instead of
// silently skipping a cycle.
func (s *TaskService) CreateTask(ctx context.Context, user *model.User, input TaskInput) (*model.Task, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("title is required")
	}

	var categoryID *uint
	if input.Category != "" {
		category, err := s.categoryRepo.GetOrCreate(ctx, user.ID, input.Category)
		if err != nil {
			return nil, err
		}
		if category != nil {
			categoryID = &category.ID
		}
	}

	task := model.Task{
		UserID:      user.ID,
		CategoryID:  categoryID,
		Title:       input.Title,
		Description: input.Description,
		StartDate:   input.StartDate,
		Deadline:    input.Deadline,
		IsRecurring: input.IsRecurring,
	}

	if input.IsRecurring {
		rule := recurrence.Rule{
			Pattern:    input.Pattern,
			Interval:   input.Interval,
			DaysOfWeek: input.DaysOfWeek,
			DayOfMonth: input.DayOfMonth,
			Unit:       input.Unit,
		}
		if err := rule.Validate(); err != nil {
			return nil, fmt.Errorf("recurrence rule: %w", err)
		}

		task.Pattern = string(rule.Pattern)
		task.RecurInterval = rule.Interval
		task.RecurDayOfMonth = rule.DayOfMonth
		task.RecurUnit = string(rule.Unit)
		task.SetDaysOfWeek(rule.DaysOfWeek)
		task.RecurrenceStart = input.RecurrenceStart
		task.RecurrenceEnd = input.RecurrenceEnd
		task.MaxOccurrences = input.MaxOccurrences

		first, err := recurrence.InitialGenerationDate(time.Now().UTC(), rule)
		if err != nil {
			return nil, fmt.Errorf("initial generation date: %w", err)
		}
		task.NextGenerationAt = &first
	}

	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}

	return &task, nil
}

func (s *TaskService) GetTask(ctx context.Context, taskID uint) (*model.Task, error) {
	return s.taskRepo.FindByID(ctx, taskID)
}

// CompleteTask marks a task as done. Templates are not completable; their
// instances are.
func (s *TaskService) CompleteTask(ctx context.Context, taskID uint, completedAt time.Time) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.IsTemplate() {
		return nil, fmt.Errorf("task %d is a recurring template", taskID)
	}
	if err := s.taskRepo.MarkCompleted(ctx, task, completedAt); err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask removes a task completely (one-time, instance or template).
func (s *TaskService) DeleteTask(ctx context.Context, userID, taskID uint) error {
	return s.taskRepo.Delete(ctx, userID, taskID)
}
