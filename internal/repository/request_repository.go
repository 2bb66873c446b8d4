package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/basel-ax/genrelay/internal/domain"
)

// RequestRepository defines the interface for the generation request ledger
type RequestRepository interface {
	Record(ctx context.Context, rec domain.RequestRecord) error
}

// PostgresRequestRepository implements RequestRepository for PostgreSQL
type PostgresRequestRepository struct {
	db *sql.DB
}

// NewPostgresRequestRepository creates a new PostgreSQL request repository
func NewPostgresRequestRepository(db *sql.DB) *PostgresRequestRepository {
	return &PostgresRequestRepository{db: db}
}

// EnsureSchema creates the ledger table when it does not exist yet
func (r *PostgresRequestRepository) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS generation_requests (
			id           BIGSERIAL PRIMARY KEY,
			request_id   TEXT NOT NULL,
			endpoint     TEXT NOT NULL,
			mime_type    TEXT NOT NULL DEFAULT '',
			upload_bytes BIGINT NOT NULL DEFAULT 0,
			status       TEXT NOT NULL,
			latency_ms   BIGINT NOT NULL,
			error        TEXT NOT NULL DEFAULT '',
			created_at   TIMESTAMPTZ NOT NULL
		)
	`

	_, err := r.db.ExecContext(ctx, query)
	return err
}

// Record appends one generation call to the ledger
func (r *PostgresRequestRepository) Record(ctx context.Context, rec domain.RequestRecord) error {
	query := `
		INSERT INTO generation_requests
			(request_id, endpoint, mime_type, upload_bytes, status, latency_ms, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query,
		rec.RequestID,
		rec.Endpoint,
		rec.MIMEType,
		rec.UploadBytes,
		rec.Status,
		rec.Latency.Milliseconds(),
		rec.Error,
		createdAt,
	)
	return err
}

// NopRequestRepository discards every record; used when no database is configured
type NopRequestRepository struct{}

// Record implements RequestRepository
func (NopRequestRepository) Record(context.Context, domain.RequestRecord) error {
	return nil
}
