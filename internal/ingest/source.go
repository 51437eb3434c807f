package ingest

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/pitchside/pitchside/clients"
	"github.com/pitchside/pitchside/clients/cricketdata"
	"github.com/pitchside/pitchside/internal/models"
)

// Source adapts the cricketdata client to the poller's SnapshotSource
// contract, normalizing every payload on the way out. Structurally
// malformed records are logged and skipped so one bad record cannot abort
// an otherwise valid batch.
type Source struct {
	client *cricketdata.Client
}

func NewSource(client *cricketdata.Client) *Source {
	return &Source{client: client}
}

func (s *Source) Provider() string {
	return string(clients.ExternalSourceCricketData)
}

func (s *Source) normalizeAll(raws []cricketdata.RawMatch) []models.MatchSnapshot {
	snaps := make([]models.MatchSnapshot, 0, len(raws))
	for _, raw := range raws {
		snap, err := Normalize(raw)
		if err != nil {
			log.Warn().Err(err).Str("match_id", raw.ID).Msg("skipping malformed match payload")
			continue
		}
		snaps = append(snaps, snap)
	}
	return snaps
}

// FetchLive returns normalized snapshots of all currently live matches.
func (s *Source) FetchLive(ctx context.Context) ([]models.MatchSnapshot, error) {
	raws, err := s.client.GetCurrentMatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch live matches: %w", err)
	}
	return s.normalizeAll(raws), nil
}

// FetchUpcoming returns normalized snapshots of matches starting within
// the given number of days.
func (s *Source) FetchUpcoming(ctx context.Context, withinDays int) ([]models.MatchSnapshot, error) {
	raws, err := s.client.GetUpcomingMatches(ctx, withinDays)
	if err != nil {
		return nil, fmt.Errorf("fetch upcoming matches: %w", err)
	}
	return s.normalizeAll(raws), nil
}

// FetchCompetitions returns the provider's series listing as competition
// stubs, for the daily reference sync.
func (s *Source) FetchCompetitions(ctx context.Context) ([]models.CompetitionStub, error) {
	raws, err := s.client.GetSeries(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch series: %w", err)
	}

	stubs := make([]models.CompetitionStub, 0, len(raws))
	for _, raw := range raws {
		stub, err := NormalizeSeries(raw)
		if err != nil {
			log.Warn().Err(err).Msg("skipping malformed series payload")
			continue
		}
		stubs = append(stubs, stub)
	}
	return stubs, nil
}
