// Package history records render jobs in Postgres. Recording is optional:
// without a DATABASE_URL the service runs with the no-op recorder.
package history

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"gitreel/internal/pkg/logger"
)

// Recorder receives render job lifecycle events. Implementations must not
// fail the render: recording errors are logged and swallowed.
type Recorder interface {
	Started(ctx context.Context, jobID, login string)
	Completed(ctx context.Context, jobID string, sizeBytes int64, took time.Duration)
	Failed(ctx context.Context, jobID string, reason string)
}

// NopRecorder discards all events.
type NopRecorder struct{}

func (NopRecorder) Started(context.Context, string, string) {}

func (NopRecorder) Completed(context.Context, string, int64, time.Duration) {}

func (NopRecorder) Failed(context.Context, string, string) {}

// PostgresRecorder persists render history rows via pgx.
type PostgresRecorder struct {
	db  *pgxpool.Pool
	log *logger.Logger
}

// NewPostgresRecorder connects to Postgres and ensures the history table
// exists.
func NewPostgresRecorder(ctx context.Context, databaseURL string, log *logger.Logger) (*PostgresRecorder, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS render_history (
			job_id       TEXT PRIMARY KEY,
			login        TEXT NOT NULL,
			status       TEXT NOT NULL,
			size_bytes   BIGINT,
			duration_ms  BIGINT,
			reason       TEXT,
			started_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
			finished_at  TIMESTAMPTZ
		)
	`)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresRecorder{db: pool, log: log.WithComponent("history")}, nil
}

// Close releases the connection pool.
func (r *PostgresRecorder) Close() {
	r.db.Close()
}

func (r *PostgresRecorder) Started(ctx context.Context, jobID, login string) {
	_, err := r.db.Exec(ctx, `
		INSERT INTO render_history (job_id, login, status)
		VALUES ($1, $2, 'started')
	`, jobID, login)
	if err != nil {
		r.log.FromContext(ctx).Warn("failed to record job start", "job_id", jobID, "error", err.Error())
	}
}

func (r *PostgresRecorder) Completed(ctx context.Context, jobID string, sizeBytes int64, took time.Duration) {
	_, err := r.db.Exec(ctx, `
		UPDATE render_history
		SET status='completed', size_bytes=$2, duration_ms=$3, finished_at=now()
		WHERE job_id=$1
	`, jobID, sizeBytes, took.Milliseconds())
	if err != nil {
		r.log.FromContext(ctx).Warn("failed to record job completion", "job_id", jobID, "error", err.Error())
	}
}

func (r *PostgresRecorder) Failed(ctx context.Context, jobID string, reason string) {
	_, err := r.db.Exec(ctx, `
		UPDATE render_history
		SET status='failed', reason=$2, finished_at=now()
		WHERE job_id=$1
	`, jobID, reason)
	if err != nil {
		r.log.FromContext(ctx).Warn("failed to record job failure", "job_id", jobID, "error", err.Error())
	}
}
