// Package refdata resolves canonical Team and Competition records from
// snapshot stubs, keyed on the provider's external id.
package refdata

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pitchside/pitchside/internal/models"
)

var (
	ErrTeamNotFound        = errors.New("team not found")
	ErrCompetitionNotFound = errors.New("competition not found")
)

// Repository implements team and competition persistence.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const teamColumns = `id, external_id, name, short_name, logo_url, is_national, created_at, updated_at`

func scanTeam(row pgx.Row) (*models.Team, error) {
	var team models.Team
	err := row.Scan(
		&team.ID,
		&team.ExternalID,
		&team.Name,
		&team.ShortName,
		&team.LogoURL,
		&team.IsNational,
		&team.CreatedAt,
		&team.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &team, nil
}

// UpsertTeam creates the team for the stub's external id or refreshes its
// mutable display fields. The external id is never changed on conflict.
func (r *Repository) UpsertTeam(ctx context.Context, stub models.TeamStub) (*models.Team, error) {
	const query = `
		INSERT INTO teams (id, external_id, name, short_name, logo_url, is_national, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (external_id) DO UPDATE SET
			name        = EXCLUDED.name,
			short_name  = COALESCE(EXCLUDED.short_name, teams.short_name),
			logo_url    = COALESCE(EXCLUDED.logo_url, teams.logo_url),
			is_national = EXCLUDED.is_national,
			updated_at  = NOW()
		RETURNING ` + teamColumns

	team, err := scanTeam(r.pool.QueryRow(ctx, query,
		stub.ExternalID, stub.Name, stub.ShortName, stub.LogoURL, stub.IsNational))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert team %s: %w", stub.ExternalID, err)
	}
	return team, nil
}

// GetTeamByExternalID retrieves a team by its provider id.
func (r *Repository) GetTeamByExternalID(ctx context.Context, externalID string) (*models.Team, error) {
	const query = `SELECT ` + teamColumns + ` FROM teams WHERE external_id = $1`

	team, err := scanTeam(r.pool.QueryRow(ctx, query, externalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team by external id: %w", err)
	}
	return team, nil
}

const competitionColumns = `id, external_id, name, type, created_at, updated_at`

func scanCompetition(row pgx.Row) (*models.Competition, error) {
	var comp models.Competition
	err := row.Scan(
		&comp.ID,
		&comp.ExternalID,
		&comp.Name,
		&comp.Type,
		&comp.CreatedAt,
		&comp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &comp, nil
}

// UpsertCompetition creates or refreshes a competition keyed on external id.
func (r *Repository) UpsertCompetition(ctx context.Context, stub models.CompetitionStub) (*models.Competition, error) {
	const query = `
		INSERT INTO competitions (id, external_id, name, type, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, $2, $3, NOW(), NOW())
		ON CONFLICT (external_id) DO UPDATE SET
			name       = EXCLUDED.name,
			type       = EXCLUDED.type,
			updated_at = NOW()
		RETURNING ` + competitionColumns

	comp, err := scanCompetition(r.pool.QueryRow(ctx, query, stub.ExternalID, stub.Name, stub.Type))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert competition %s: %w", stub.ExternalID, err)
	}
	return comp, nil
}

// GetCompetitionByExternalID retrieves a competition by its provider id.
func (r *Repository) GetCompetitionByExternalID(ctx context.Context, externalID string) (*models.Competition, error) {
	const query = `SELECT ` + competitionColumns + ` FROM competitions WHERE external_id = $1`

	comp, err := scanCompetition(r.pool.QueryRow(ctx, query, externalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCompetitionNotFound
		}
		return nil, fmt.Errorf("failed to get competition by external id: %w", err)
	}
	return comp, nil
}
