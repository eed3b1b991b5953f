package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/RubachokBoss/study-helper/internal/models"
)

// MemoryExportRepository is the history store used when no database is
// configured. Records live for the lifetime of the process.
type MemoryExportRepository struct {
	mu      sync.RWMutex
	records []models.ExportRecord
}

func NewMemoryExportRepository() *MemoryExportRepository {
	return &MemoryExportRepository{}
}

func (r *MemoryExportRepository) Create(_ context.Context, record *models.ExportRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = append(r.records, *record)
	return nil
}

func (r *MemoryExportRepository) UpdateLocation(_ context.Context, filename, location string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.records {
		if r.records[i].Filename == filename {
			r.records[i].Location = location
		}
	}
	return nil
}

func (r *MemoryExportRepository) GetByFilename(_ context.Context, filename string) (*models.ExportRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *models.ExportRecord
	for i := range r.records {
		rec := r.records[i]
		if rec.Filename != filename {
			continue
		}
		if found == nil || rec.CreatedAt.After(found.CreatedAt) {
			found = &rec
		}
	}
	return found, nil
}

func (r *MemoryExportRepository) ListByDocument(_ context.Context, documentID string, limit int) ([]models.ExportRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.ExportRecord, 0)
	for _, rec := range r.records {
		if rec.DocumentID == documentID {
			out = append(out, rec)
		}
	}

	slices.SortStableFunc(out, func(a, b models.ExportRecord) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryExportRepository) DeleteByFilename(_ context.Context, filename string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	before := len(r.records)
	r.records = slices.DeleteFunc(r.records, func(rec models.ExportRecord) bool {
		return rec.Filename == filename
	})
	return len(r.records) < before, nil
}

func (r *MemoryExportRepository) ListFilenames(_ context.Context, documentIDs []string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for _, rec := range r.records {
		if len(documentIDs) == 0 || slices.Contains(documentIDs, rec.DocumentID) {
			names = append(names, rec.Filename)
		}
	}
	return names, nil
}

func (r *MemoryExportRepository) Ping(context.Context) error {
	return nil
}
