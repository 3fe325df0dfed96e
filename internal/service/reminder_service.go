package service

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"taskplanner/internal/model"
	"taskplanner/internal/notify"
	"taskplanner/internal/recurrence"
	"taskplanner/internal/repository"
)

// ReminderService sends each user a summary of the tasks starting today.
// Delivery goes through the notify.Notifier boundary; a Noop notifier makes
// the job a cheap no-op.
type ReminderService struct {
	tasks    *repository.TaskRepository
	users    *repository.UserRepository
	notifier notify.Notifier
	log      *slog.Logger
}

func NewReminderService(tasks *repository.TaskRepository, users *repository.UserRepository, notifier notify.Notifier, log *slog.Logger) *ReminderService {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	return &ReminderService{tasks: tasks, users: users, notifier: notifier, log: log}
}

// NotifyStartingToday finds open tasks whose start date is the current UTC
// day and sends one message per owning user. A failed delivery to one user
// does not block the rest.
func (s *ReminderService) NotifyStartingToday(ctx context.Context, now time.Time) (string, error) {
	day := recurrence.DateOf(now)
	starting, err := s.tasks.FindStartingOn(ctx, day)
	if err != nil {
		return "", err
	}
	if len(starting) == 0 {
		return "no tasks starting today", nil
	}

	byUser := make(map[uint][]model.Task)
	for _, task := range starting {
		byUser[task.UserID] = append(byUser[task.UserID], task)
	}

	notified := 0
	var failures []string
	for userID, tasks := range byUser {
		user, err := s.users.FindByID(ctx, userID)
		if err != nil {
			failures = append(failures, fmt.Sprintf("user %d: %v", userID, err))
			continue
		}
		text := buildStartSummary(tasks, day)
		if err := s.notifier.Send(ctx, user.TelegramID, text); err != nil {
			failures = append(failures, fmt.Sprintf("user %d: %v", userID, err))
			s.log.Warn("start-date notification failed", "user_id", userID, "error", err)
			continue
		}
		notified++
	}

	summary := fmt.Sprintf("notified %d user(s) about %d task(s)", notified, len(starting))
	if len(failures) > 0 {
		summary = fmt.Sprintf("%s; %d delivery failure(s): %s", summary, len(failures), strings.Join(failures, "; "))
	}
	return summary, nil
}

func buildStartSummary(tasks []model.Task, day time.Time) string {
	var builder strings.Builder
	builder.WriteString("<b>Starting today</b>\n")
	builder.WriteString(fmt.Sprintf("%s\n\n", day.Format("02.01.2006")))
	for _, task := range tasks {
		builder.WriteString(fmt.Sprintf("• %s", html.EscapeString(strings.TrimSpace(task.Title))))
		if task.Description != "" {
			builder.WriteString(fmt.Sprintf("\n  %s", html.EscapeString(strings.TrimSpace(task.Description))))
		}
		builder.WriteByte('\n')
	}
	return strings.TrimSpace(builder.String())
}
