package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RubachokBoss/study-helper/internal/models"
)

func TestMemoryExportRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryExportRepository()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	records := []models.ExportRecord{
		{ID: "1", DocumentID: "doc-1", Type: models.ExportAnalysis, Filename: "a.pdf", Size: 10, CreatedAt: base},
		{ID: "2", DocumentID: "doc-1", Type: models.ExportQuiz, Filename: "q.pdf", Size: 20, CreatedAt: base.Add(time.Minute)},
		{ID: "3", DocumentID: "doc-2", Type: models.ExportSummary, Filename: "s.pdf", Size: 30, CreatedAt: base},
	}
	for i := range records {
		require.NoError(t, repo.Create(ctx, &records[i]))
	}

	list, err := repo.ListByDocument(ctx, "doc-1", 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "q.pdf", list[0].Filename, "newest first")
	assert.Equal(t, "a.pdf", list[1].Filename)

	limited, err := repo.ListByDocument(ctx, "doc-1", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	require.NoError(t, repo.UpdateLocation(ctx, "q.pdf", "s3://bucket/q.pdf"))
	rec, err := repo.GetByFilename(ctx, "q.pdf")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "s3://bucket/q.pdf", rec.Location)
	assert.Equal(t, models.ExportQuiz, rec.Type)

	missing, err := repo.GetByFilename(ctx, "nope.pdf")
	require.NoError(t, err)
	assert.Nil(t, missing)

	names, err := repo.ListFilenames(ctx, []string{"doc-2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"s.pdf"}, names)

	all, err := repo.ListFilenames(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	deleted, err := repo.DeleteByFilename(ctx, "a.pdf")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.DeleteByFilename(ctx, "a.pdf")
	require.NoError(t, err)
	assert.False(t, deleted)

	list, err = repo.ListByDocument(ctx, "doc-1", 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMemoryExportRepository_EmptyDocument(t *testing.T) {
	repo := NewMemoryExportRepository()

	list, err := repo.ListByDocument(context.Background(), "unknown", 10)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
	assert.NoError(t, repo.Ping(context.Background()))
}
