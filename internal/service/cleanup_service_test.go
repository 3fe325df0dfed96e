package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskplanner/internal/model"
	"taskplanner/internal/repository"
)

func TestCleanupCompleted(t *testing.T) {
	db := newTestDB(t)
	tasks := repository.NewTaskRepository(db)
	svc := NewCleanupService(tasks, 30, testLogger())
	ctx := context.Background()
	now := day(2024, time.May, 10)

	addCompleted := func(title string, age int) {
		completedAt := now.AddDate(0, 0, -age)
		task := &model.Task{UserID: 1, Title: title, IsCompleted: true, CompletedAt: &completedAt}
		require.NoError(t, tasks.Create(ctx, task))
	}
	addCompleted("ancient", 60)
	addCompleted("last week", 7)
	open := &model.Task{UserID: 1, Title: "still open"}
	require.NoError(t, tasks.Create(ctx, open))

	summary, err := svc.CleanupCompleted(ctx, now)
	require.NoError(t, err)
	assert.Contains(t, summary, "removed 1")

	_, err = tasks.FindByID(ctx, open.ID)
	assert.NoError(t, err)
}

func TestCleanupCompletedDefaultsRetention(t *testing.T) {
	svc := NewCleanupService(repository.NewTaskRepository(newTestDB(t)), 0, testLogger())
	assert.Equal(t, 30*24*time.Hour, svc.retention)
}
