package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"taskplanner/internal/model"
)

// TaskRepository handles CRUD for tasks, templates and generated instances.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) Save(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).First(&task, taskID).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// FindTemplateByID looks up a top-level recurring template.
func (r *TaskRepository) FindTemplateByID(ctx context.Context, templateID uint) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_recurring = ? AND parent_template_id IS NULL", templateID, true).
		First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// dueTemplateScope filters for templates that are due at the given moment:
// recurring, top-level, not ended, scheduled, and not past their end date.
func dueTemplateScope(db *gorm.DB, now time.Time) *gorm.DB {
	dayStart := time.Date(now.UTC().Year(), now.UTC().Month(), now.UTC().Day(), 0, 0, 0, 0, time.UTC)
	return db.
		Where("is_recurring = ? AND parent_template_id IS NULL AND recurrence_ended = ?", true, false).
		Where("next_generation_at IS NOT NULL AND next_generation_at <= ?", now).
		Where("recurrence_end IS NULL OR recurrence_end >= ?", dayStart)
}

func (r *TaskRepository) FindDueTemplates(ctx context.Context, now time.Time) ([]model.Task, error) {
	var templates []model.Task
	if err := dueTemplateScope(r.db.WithContext(ctx), now).
		Order("next_generation_at ASC, id ASC").
		Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("find due templates: %w", err)
	}
	return templates, nil
}

func (r *TaskRepository) CountDueTemplates(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	if err := dueTemplateScope(r.db.WithContext(ctx).Model(&model.Task{}), now).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count due templates: %w", err)
	}
	return count, nil
}

func (r *TaskRepository) ListTemplates(ctx context.Context) ([]model.Task, error) {
	var templates []model.Task
	if err := r.db.WithContext(ctx).
		Where("is_recurring = ? AND parent_template_id IS NULL", true).
		Order("id ASC").
		Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

// MarkExpiredTemplates finalizes templates whose end date has passed:
// Active -> Ended, with no further generation scheduled.
func (r *TaskRepository) MarkExpiredTemplates(ctx context.Context, now time.Time) (int64, error) {
	dayStart := time.Date(now.UTC().Year(), now.UTC().Month(), now.UTC().Day(), 0, 0, 0, 0, time.UTC)
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("is_recurring = ? AND parent_template_id IS NULL AND recurrence_ended = ?", true, false).
		Where("recurrence_end IS NOT NULL AND recurrence_end < ?", dayStart).
		Updates(map[string]interface{}{
			"recurrence_ended":   true,
			"next_generation_at": nil,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("mark expired templates: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *TaskRepository) FindInstancesByTemplate(ctx context.Context, templateID uint) ([]model.Task, error) {
	var instances []model.Task
	if err := r.db.WithContext(ctx).
		Where("parent_template_id = ?", templateID).
		Order("created_at ASC, id ASC").
		Find(&instances).Error; err != nil {
		return nil, fmt.Errorf("find instances: %w", err)
	}
	return instances, nil
}

func (r *TaskRepository) DeleteInstance(ctx context.Context, instanceID uint) error {
	if err := r.db.WithContext(ctx).
		Where("id = ? AND parent_template_id IS NOT NULL", instanceID).
		Delete(&model.Task{}).Error; err != nil {
		return fmt.Errorf("delete instance: %w", err)
	}
	return nil
}

// DeleteCompletedBefore removes completed one-off tasks whose completion is
// older than the cutoff. Templates are never touched.
func (r *TaskRepository) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("is_completed = ? AND is_recurring = ?", true, false).
		Where("completed_at IS NOT NULL AND completed_at < ?", cutoff).
		Delete(&model.Task{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete completed tasks: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// FindStartingOn returns open tasks whose start date falls on the given UTC
// day, for the start-date notification job.
func (r *TaskRepository) FindStartingOn(ctx context.Context, day time.Time) ([]model.Task, error) {
	dayStart := time.Date(day.UTC().Year(), day.UTC().Month(), day.UTC().Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("is_completed = ? AND is_recurring = ?", false, false).
		Where("start_date >= ? AND start_date < ?", dayStart, dayEnd).
		Order("user_id ASC, id ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("find tasks starting on %s: %w", dayStart.Format("2006-01-02"), err)
	}
	return tasks, nil
}

func (r *TaskRepository) Delete(ctx context.Context, userID, taskID uint) error {
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).
		Delete(&model.Task{}).Error; err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

func (r *TaskRepository) MarkCompleted(ctx context.Context, task *model.Task, completedAt time.Time) error {
	task.IsCompleted = true
	task.CompletedAt = &completedAt
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	return nil
}
