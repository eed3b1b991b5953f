package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
)

const pingTimeout = 5 * time.Second

// ErrSchemaMissing means the database is reachable but the migrations that
// create the repository table have not been applied.
var ErrSchemaMissing = errors.New("table not found, run migrations first")

// PostgresRepository holds the connection shared by table repositories and
// the table each one owns.
type PostgresRepository struct {
	db     *sql.DB
	table  string
	logger zerolog.Logger
}

func NewPostgresRepository(db *sql.DB, table string, logger zerolog.Logger) *PostgresRepository {
	return &PostgresRepository{
		db:     db,
		table:  table,
		logger: logger.With().Str("table", table).Logger(),
	}
}

// Ping checks the connection and that the owned table exists.
func (r *PostgresRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	var regclass sql.NullString
	if err := r.db.QueryRowContext(ctx, `SELECT to_regclass($1)::text`, r.table).Scan(&regclass); err != nil {
		return fmt.Errorf("failed to look up table %s: %w", r.table, err)
	}
	if !regclass.Valid {
		return fmt.Errorf("%s: %w", r.table, ErrSchemaMissing)
	}

	r.logger.Debug().Msg("Repository table ready")
	return nil
}
