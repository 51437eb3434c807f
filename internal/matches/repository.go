// Package matches is the state store for canonical Match records: the
// single source of truth for a fixture's last known state. All writes are
// upserts keyed on the provider's external id.
package matches

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pitchside/pitchside/internal/models"
)

var ErrMatchNotFound = errors.New("match not found")

// Repository implements match persistence.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const matchColumns = `id, external_id, competition_id, home_team_id, away_team_id, format, status,
	venue, start_time, toss_winner_id, toss_decision, winner_id, result,
	current_score, current_overs, last_polled_at, created_at, updated_at`

func scanMatch(row pgx.Row) (*models.Match, error) {
	var m models.Match
	err := row.Scan(
		&m.ID,
		&m.ExternalID,
		&m.CompetitionID,
		&m.HomeTeamID,
		&m.AwayTeamID,
		&m.Format,
		&m.Status,
		&m.Venue,
		&m.StartTime,
		&m.TossWinnerID,
		&m.TossDecision,
		&m.WinnerID,
		&m.Result,
		&m.CurrentScore,
		&m.CurrentOvers,
		&m.LastPolledAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetByExternalID returns the last persisted state of a match, or
// ErrMatchNotFound on first observation.
func (r *Repository) GetByExternalID(ctx context.Context, externalID string) (*models.Match, error) {
	const query = `SELECT ` + matchColumns + ` FROM matches WHERE external_id = $1`

	m, err := scanMatch(r.pool.QueryRow(ctx, query, externalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match by external id: %w", err)
	}
	return m, nil
}

// Upsert writes the new state of a match keyed on external id and returns
// the stored row. Concurrent writers converge on the same row; the id and
// created_at of an existing row are preserved.
func (r *Repository) Upsert(ctx context.Context, m models.Match) (*models.Match, error) {
	const query = `
		INSERT INTO matches (id, external_id, competition_id, home_team_id, away_team_id,
			format, status, venue, start_time, toss_winner_id, toss_decision,
			winner_id, result, current_score, current_overs, last_polled_at, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW(), NOW())
		ON CONFLICT (external_id) DO UPDATE SET
			competition_id = EXCLUDED.competition_id,
			home_team_id   = EXCLUDED.home_team_id,
			away_team_id   = EXCLUDED.away_team_id,
			format         = EXCLUDED.format,
			status         = EXCLUDED.status,
			venue          = EXCLUDED.venue,
			start_time     = EXCLUDED.start_time,
			toss_winner_id = EXCLUDED.toss_winner_id,
			toss_decision  = EXCLUDED.toss_decision,
			winner_id      = EXCLUDED.winner_id,
			result         = EXCLUDED.result,
			current_score  = EXCLUDED.current_score,
			current_overs  = EXCLUDED.current_overs,
			last_polled_at = NOW(),
			updated_at     = NOW()
		RETURNING ` + matchColumns

	stored, err := scanMatch(r.pool.QueryRow(ctx, query,
		m.ExternalID, m.CompetitionID, m.HomeTeamID, m.AwayTeamID,
		m.Format, m.Status, m.Venue, m.StartTime, m.TossWinnerID, m.TossDecision,
		m.WinnerID, m.Result, m.CurrentScore, m.CurrentOvers))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert match %s: %w", m.ExternalID, err)
	}
	return stored, nil
}

// ListByStatus returns matches currently in the given status.
func (r *Repository) ListByStatus(ctx context.Context, status models.MatchStatus) ([]models.Match, error) {
	const query = `SELECT ` + matchColumns + ` FROM matches WHERE status = $1 ORDER BY start_time`

	rows, err := r.pool.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches by status: %w", err)
	}
	defer rows.Close()

	var out []models.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matches: %w", err)
	}
	return out, nil
}
