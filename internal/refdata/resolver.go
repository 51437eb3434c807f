package refdata

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/pitchside/pitchside/internal/models"
)

// Store defines what the resolver needs from the repository layer.
type Store interface {
	UpsertTeam(ctx context.Context, stub models.TeamStub) (*models.Team, error)
	UpsertCompetition(ctx context.Context, stub models.CompetitionStub) (*models.Competition, error)
}

// Resolved carries the canonical records referenced by one snapshot.
type Resolved struct {
	Home        *models.Team
	Away        *models.Team
	Competition *models.Competition
}

// SyncResult summarizes a reference-data sync run.
type SyncResult struct {
	TotalProcessed int     `json:"total_processed"`
	Synced         int     `json:"synced"`
	Errors         []error `json:"errors,omitempty"`
}

// Resolver idempotently ensures canonical Team/Competition rows exist for
// snapshot stubs. It must run before the match upsert so foreign keys are
// valid; storage errors propagate so a failing item is retried on the next
// cycle rather than silently dropped.
type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve ensures both teams and the competition of a snapshot exist and
// returns the canonical records. Matches without a series fall into the
// sentinel competition.
func (r *Resolver) Resolve(ctx context.Context, snap models.MatchSnapshot) (Resolved, error) {
	home, err := r.store.UpsertTeam(ctx, snap.HomeTeam)
	if err != nil {
		return Resolved{}, fmt.Errorf("resolve home team: %w", err)
	}

	away, err := r.store.UpsertTeam(ctx, snap.AwayTeam)
	if err != nil {
		return Resolved{}, fmt.Errorf("resolve away team: %w", err)
	}

	stub := snap.Competition
	if stub == nil {
		stub = &models.CompetitionStub{
			ExternalID: models.DefaultCompetitionExternalID,
			Name:       "Other Matches",
			Type:       models.CompetitionDomestic,
		}
	}
	comp, err := r.store.UpsertCompetition(ctx, *stub)
	if err != nil {
		return Resolved{}, fmt.Errorf("resolve competition: %w", err)
	}

	return Resolved{Home: home, Away: away, Competition: comp}, nil
}

// SyncCompetitions refreshes competition display data from a provider
// listing, isolating per-item failures.
func (r *Resolver) SyncCompetitions(ctx context.Context, stubs []models.CompetitionStub) SyncResult {
	result := SyncResult{TotalProcessed: len(stubs)}
	for _, stub := range stubs {
		if _, err := r.store.UpsertCompetition(ctx, stub); err != nil {
			log.Error().Err(err).Str("external_id", stub.ExternalID).Msg("failed to sync competition")
			result.Errors = append(result.Errors, err)
			continue
		}
		result.Synced++
	}
	return result
}
