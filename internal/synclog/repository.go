// Package synclog records an append-only audit row per poll cycle. The log
// is observability data; nothing in the pipeline reads it for control flow.
package synclog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pitchside/pitchside/internal/models"
)

// Repository implements sync log persistence.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Append writes one audit row.
func (r *Repository) Append(ctx context.Context, entry models.SyncLogEntry) error {
	const query = `
		INSERT INTO sync_log (id, provider, endpoint, status, records_count, error_message, created_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, NOW())
	`

	_, err := r.pool.Exec(ctx, query,
		entry.Provider, entry.Endpoint, entry.Status, entry.RecordsCount, entry.ErrorMessage)
	if err != nil {
		return fmt.Errorf("failed to append sync log entry: %w", err)
	}
	return nil
}

// ListRecent returns the latest entries for a provider, newest first.
func (r *Repository) ListRecent(ctx context.Context, provider string, limit int) ([]models.SyncLogEntry, error) {
	const query = `
		SELECT id, provider, endpoint, status, records_count, error_message, created_at
		FROM sync_log
		WHERE provider = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, provider, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync log entries: %w", err)
	}
	defer rows.Close()

	var out []models.SyncLogEntry
	for rows.Next() {
		var entry models.SyncLogEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.Provider,
			&entry.Endpoint,
			&entry.Status,
			&entry.RecordsCount,
			&entry.ErrorMessage,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sync log entry: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync log entries: %w", err)
	}
	return out, nil
}
