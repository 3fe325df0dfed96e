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

func TestCleanupDuplicatesKeepsEarliest(t *testing.T) {
	db := newTestDB(t)
	tasks := repository.NewTaskRepository(db)
	rec := NewReconcilerService(tasks, testLogger())
	ctx := context.Background()

	tmpl := createTemplate(t, tasks, model.Task{
		Title:         "standup notes",
		Pattern:       "daily",
		RecurInterval: 1,
	})

	// Three instances for the same occurrence, as left behind by racing
	// generation passes. No structural occurrence date on purpose: these are
	// legacy rows deduplicated by title.
	base := time.Date(2024, time.May, 9, 8, 0, 0, 0, time.UTC)
	var keeper uint
	for i := 0; i < 3; i++ {
		inst := &model.Task{
			UserID:           1,
			Title:            "standup notes (2024-05-09)",
			ParentTemplateID: &tmpl.ID,
			CreatedAt:        base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, tasks.Create(ctx, inst))
		if i == 0 {
			keeper = inst.ID
		}
	}

	report, err := rec.CleanupDuplicates(ctx, &tmpl.ID)
	require.NoError(t, err)
	assert.True(t, report.Success())
	assert.Equal(t, 2, report.Removed)
	require.Len(t, report.PerTemplate, 1)
	assert.Equal(t, tmpl.ID, report.PerTemplate[0].TemplateID)
	assert.Equal(t, 2, report.PerTemplate[0].Removed)

	remaining, err := tasks.FindInstancesByTemplate(ctx, tmpl.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, keeper, remaining[0].ID, "the earliest-created instance survives")

	// The template row itself is untouched.
	_, err = tasks.FindTemplateByID(ctx, tmpl.ID)
	assert.NoError(t, err)
}

func TestCleanupDuplicatesDistinctOccurrencesSurvive(t *testing.T) {
	db := newTestDB(t)
	tasks := repository.NewTaskRepository(db)
	rec := NewReconcilerService(tasks, testLogger())
	ctx := context.Background()

	tmpl := createTemplate(t, tasks, model.Task{
		Title:         "weekly review",
		Pattern:       "weekly",
		RecurInterval: 1,
	})

	for _, d := range []int{6, 13, 20} {
		occ := day(2024, time.May, d)
		inst := &model.Task{
			UserID:           1,
			Title:            "weekly review (" + occ.Format("2006-01-02") + ")",
			ParentTemplateID: &tmpl.ID,
			OccurrenceDate:   &occ,
		}
		require.NoError(t, tasks.Create(ctx, inst))
	}

	report, err := rec.CleanupDuplicates(ctx, &tmpl.ID)
	require.NoError(t, err)
	assert.Zero(t, report.Removed)

	remaining, err := tasks.FindInstancesByTemplate(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Len(t, remaining, 3)
}

func TestCleanupDuplicatesAllTemplates(t *testing.T) {
	db := newTestDB(t)
	tasks := repository.NewTaskRepository(db)
	rec := NewReconcilerService(tasks, testLogger())
	ctx := context.Background()

	for _, title := range []string{"alpha", "beta"} {
		tmpl := createTemplate(t, tasks, model.Task{
			Title:         title,
			Pattern:       "daily",
			RecurInterval: 1,
		})
		for i := 0; i < 2; i++ {
			inst := &model.Task{
				UserID:           1,
				Title:            title + " (2024-05-09)",
				ParentTemplateID: &tmpl.ID,
				CreatedAt:        time.Date(2024, time.May, 9, 8, i, 0, 0, time.UTC),
			}
			require.NoError(t, tasks.Create(ctx, inst))
		}
	}

	report, err := rec.CleanupDuplicates(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, report.TemplatesScanned)
	assert.Equal(t, 2, report.Removed)
}
