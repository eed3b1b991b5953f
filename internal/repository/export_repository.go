package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/study-helper/internal/models"
)

// ExportHistoryRepository keeps the local export history. Lookups that find
// nothing return a nil record and a nil error.
type ExportHistoryRepository interface {
	Create(ctx context.Context, record *models.ExportRecord) error
	UpdateLocation(ctx context.Context, filename, location string) error
	GetByFilename(ctx context.Context, filename string) (*models.ExportRecord, error)
	ListByDocument(ctx context.Context, documentID string, limit int) ([]models.ExportRecord, error)
	DeleteByFilename(ctx context.Context, filename string) (bool, error)
	ListFilenames(ctx context.Context, documentIDs []string) ([]string, error)
	Ping(ctx context.Context) error
}

type exportRepository struct {
	*PostgresRepository
}

func NewExportRepository(db *sql.DB, logger zerolog.Logger) ExportHistoryRepository {
	return &exportRepository{
		PostgresRepository: NewPostgresRepository(db, "export_history", logger),
	}
}

func (r *exportRepository) Create(ctx context.Context, record *models.ExportRecord) error {
	query := `
		INSERT INTO export_history (
			id, document_id, export_type, filename, size, location, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.DocumentID,
		string(record.Type),
		record.Filename,
		record.Size,
		record.Location,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert export record: %w", err)
	}

	r.logger.Debug().
		Str("document_id", record.DocumentID).
		Str("filename", record.Filename).
		Msg("Export recorded")

	return nil
}

func (r *exportRepository) UpdateLocation(ctx context.Context, filename, location string) error {
	query := `UPDATE export_history SET location = $1 WHERE filename = $2`

	if _, err := r.db.ExecContext(ctx, query, location, filename); err != nil {
		return fmt.Errorf("failed to update export location: %w", err)
	}
	return nil
}

func (r *exportRepository) GetByFilename(ctx context.Context, filename string) (*models.ExportRecord, error) {
	query := `
		SELECT id, document_id, export_type, filename, size, location, created_at
		FROM export_history
		WHERE filename = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var rec models.ExportRecord
	var exportType string
	err := r.db.QueryRowContext(ctx, query, filename).Scan(
		&rec.ID,
		&rec.DocumentID,
		&exportType,
		&rec.Filename,
		&rec.Size,
		&rec.Location,
		&rec.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get export record: %w", err)
	}

	rec.Type = models.ExportType(exportType)
	return &rec, nil
}

func (r *exportRepository) ListByDocument(ctx context.Context, documentID string, limit int) ([]models.ExportRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, document_id, export_type, filename, size, location, created_at
		FROM export_history
		WHERE document_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, documentID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list export records: %w", err)
	}
	defer rows.Close()

	records := make([]models.ExportRecord, 0)
	for rows.Next() {
		var rec models.ExportRecord
		var exportType string
		if err := rows.Scan(
			&rec.ID,
			&rec.DocumentID,
			&exportType,
			&rec.Filename,
			&rec.Size,
			&rec.Location,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan export record: %w", err)
		}
		rec.Type = models.ExportType(exportType)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate export records: %w", err)
	}

	return records, nil
}

func (r *exportRepository) DeleteByFilename(ctx context.Context, filename string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM export_history WHERE filename = $1`, filename)
	if err != nil {
		return false, fmt.Errorf("failed to delete export record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}

// ListFilenames returns every archived filename belonging to the given
// documents. An empty id list matches all rows.
func (r *exportRepository) ListFilenames(ctx context.Context, documentIDs []string) ([]string, error) {
	query := `SELECT filename FROM export_history`
	args := []interface{}{}
	if len(documentIDs) > 0 {
		query += ` WHERE document_id = ANY($1)`
		args = append(args, pq.Array(documentIDs))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list export filenames: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan export filename: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
