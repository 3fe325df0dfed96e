package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"taskplanner/internal/model"
	"taskplanner/internal/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Category{}, &model.Task{}, &model.JobState{}))
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func createTemplate(t *testing.T, repo *repository.TaskRepository, tmpl model.Task) *model.Task {
	t.Helper()
	if tmpl.UserID == 0 {
		tmpl.UserID = 1
	}
	tmpl.IsRecurring = true
	require.NoError(t, repo.Create(context.Background(), &tmpl))
	return &tmpl
}
