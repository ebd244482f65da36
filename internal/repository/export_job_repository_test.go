package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/foi-request-api/internal/models"
)

func TestMemoryExportJobRepositoryLifecycle(t *testing.T) {
	repo := NewMemoryExportJobRepository()
	ctx := context.Background()

	job := &models.ExportJob{Format: models.ExportFormatCSV, CreatedBy: "staff-1"}
	require.NoError(t, repo.Create(ctx, job))
	require.NotEmpty(t, job.ID)
	assert.Equal(t, models.ExportStatusQueued, job.Status)

	finished := models.ExportStatusFinished
	progress := 100
	url := "/api/v1/exports/download/token"
	doneAt := time.Date(2024, 11, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Update(ctx, job.ID, UpdateExportJobParams{
		Status:     &finished,
		Progress:   &progress,
		ResultURL:  &url,
		FinishedAt: &doneAt,
	}))

	got, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, finished, got.Status)
	assert.Equal(t, 100, got.Progress)
	require.NotNil(t, got.ResultURL)
	assert.Equal(t, url, *got.ResultURL)

	expired, err := repo.ListFinishedBefore(ctx, doneAt.Add(time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, expired, 1)

	fresh, err := repo.ListFinishedBefore(ctx, doneAt, 10)
	require.NoError(t, err)
	assert.Empty(t, fresh)

	require.NoError(t, repo.Delete(ctx, job.ID))
	_, err = repo.GetByID(ctx, job.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestMemoryExportJobRepositoryClearsErrorMessage(t *testing.T) {
	repo := NewMemoryExportJobRepository()
	ctx := context.Background()
	job := &models.ExportJob{Format: models.ExportFormatPDF}
	require.NoError(t, repo.Create(ctx, job))

	msg := "render failed"
	require.NoError(t, repo.Update(ctx, job.ID, UpdateExportJobParams{ErrorMessage: &msg}))
	got, _ := repo.GetByID(ctx, job.ID)
	require.NotNil(t, got.ErrorMessage)

	empty := ""
	require.NoError(t, repo.Update(ctx, job.ID, UpdateExportJobParams{ErrorMessage: &empty}))
	got, _ = repo.GetByID(ctx, job.ID)
	assert.Nil(t, got.ErrorMessage)

	assert.ErrorIs(t, repo.Update(ctx, "missing", UpdateExportJobParams{}), sql.ErrNoRows)
}
