// Package poller drives one poll cycle: fetch snapshots, resolve
// references, upsert match state, diff against the previously persisted
// state, and hand detected events to the fan-out engine.
package poller

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pitchside/pitchside/internal/detector"
	"github.com/pitchside/pitchside/internal/matches"
	"github.com/pitchside/pitchside/internal/models"
	"github.com/pitchside/pitchside/internal/pkg/cache"
	"github.com/pitchside/pitchside/internal/pkg/lock"
	"github.com/pitchside/pitchside/internal/refdata"
)

// SnapshotSource is the provider capability contract. Exactly one concrete
// implementation is selected at startup.
type SnapshotSource interface {
	Provider() string
	FetchLive(ctx context.Context) ([]models.MatchSnapshot, error)
	FetchUpcoming(ctx context.Context, withinDays int) ([]models.MatchSnapshot, error)
	FetchCompetitions(ctx context.Context) ([]models.CompetitionStub, error)
}

// MatchStore defines what the poller needs from match persistence.
type MatchStore interface {
	GetByExternalID(ctx context.Context, externalID string) (*models.Match, error)
	Upsert(ctx context.Context, m models.Match) (*models.Match, error)
}

// Resolver defines what the poller needs from reference resolution.
type Resolver interface {
	Resolve(ctx context.Context, snap models.MatchSnapshot) (refdata.Resolved, error)
	SyncCompetitions(ctx context.Context, stubs []models.CompetitionStub) refdata.SyncResult
}

// EventSink receives detected domain events.
type EventSink interface {
	Fanout(ctx context.Context, event models.DomainEvent) (int, error)
}

// SyncLog records the per-cycle audit entry.
type SyncLog interface {
	Append(ctx context.Context, entry models.SyncLogEntry) error
}

// CycleResult summarizes one poll cycle, in the shape of a sync report:
// per-item failures are collected here instead of aborting the batch.
type CycleResult struct {
	TotalProcessed int     `json:"total_processed"`
	Created        int     `json:"created"`
	Updated        int     `json:"updated"`
	Skipped        int     `json:"skipped"`
	Events         int     `json:"events"`
	Notifications  int     `json:"notifications"`
	Errors         []error `json:"errors,omitempty"`
}

// Config tunes the poller.
type Config struct {
	UpcomingWindowDays   int
	NotificationsEnabled bool
}

// Poller owns the poll→detect→notify sequence. The keyed lock serializes
// the read-diff-write per match so an overlapping slow cycle cannot race a
// fresh one into duplicate events.
type Poller struct {
	source   SnapshotSource
	store    MatchStore
	resolver Resolver
	sink     EventSink
	syncLog  SyncLog
	cache    *cache.SnapshotCache
	locks    *lock.KeyedLock
	config   Config
}

func New(source SnapshotSource, store MatchStore, resolver Resolver, sink EventSink, syncLog SyncLog, snapshots *cache.SnapshotCache, cfg Config) *Poller {
	if cfg.UpcomingWindowDays <= 0 {
		cfg.UpcomingWindowDays = 7
	}
	return &Poller{
		source:   source,
		store:    store,
		resolver: resolver,
		sink:     sink,
		syncLog:  syncLog,
		cache:    snapshots,
		locks:    lock.NewKeyedLock(),
		config:   cfg,
	}
}

// PollLive runs one live-match cycle.
func (p *Poller) PollLive(ctx context.Context) (CycleResult, error) {
	return p.poll(ctx, "currentMatches", func(ctx context.Context) ([]models.MatchSnapshot, error) {
		return p.source.FetchLive(ctx)
	})
}

// PollUpcoming runs one upcoming-match cycle.
func (p *Poller) PollUpcoming(ctx context.Context) (CycleResult, error) {
	return p.poll(ctx, "matches", func(ctx context.Context) ([]models.MatchSnapshot, error) {
		return p.source.FetchUpcoming(ctx, p.config.UpcomingWindowDays)
	})
}

func (p *Poller) poll(ctx context.Context, endpoint string, fetch func(context.Context) ([]models.MatchSnapshot, error)) (CycleResult, error) {
	var result CycleResult

	snaps, err := fetch(ctx)
	if err != nil {
		p.logCycle(ctx, endpoint, models.SyncError, nil, err)
		return result, fmt.Errorf("poll %s: %w", endpoint, err)
	}

	for _, snap := range snaps {
		result.TotalProcessed++
		if err := p.processSnapshot(ctx, snap, &result); err != nil {
			// One bad match never aborts the batch.
			log.Error().Err(err).
				Str("external_id", snap.ExternalID).
				Msg("failed to process match snapshot")
			result.Errors = append(result.Errors, fmt.Errorf("match %s: %w", snap.ExternalID, err))
		}
	}

	count := result.TotalProcessed
	// A degraded cycle still counts as success (the batch completed), but
	// the audit entry carries the per-match failure summary.
	var partial error
	if n := len(result.Errors); n > 0 {
		partial = fmt.Errorf("%d of %d matches failed, first: %s", n, result.TotalProcessed, result.Errors[0])
	}
	p.logCycle(ctx, endpoint, models.SyncSuccess, &count, partial)

	log.Info().
		Str("endpoint", endpoint).
		Int("processed", result.TotalProcessed).
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Int("events", result.Events).
		Int("errors", len(result.Errors)).
		Msg("poll cycle complete")

	return result, nil
}

func (p *Poller) processSnapshot(ctx context.Context, snap models.MatchSnapshot, result *CycleResult) error {
	hash := cache.Hash(snap)
	if p.cache.Unchanged(ctx, snap.ExternalID, hash) {
		result.Skipped++
		return nil
	}

	err := p.locks.WithLock(snap.ExternalID, func() error {
		resolved, err := p.resolver.Resolve(ctx, snap)
		if err != nil {
			return err
		}

		prev, err := p.store.GetByExternalID(ctx, snap.ExternalID)
		if err != nil {
			if !errors.Is(err, matches.ErrMatchNotFound) {
				return err
			}
			prev = nil
		}

		next, err := p.store.Upsert(ctx, buildMatch(snap, resolved))
		if err != nil {
			return err
		}
		if prev == nil {
			result.Created++
		} else {
			result.Updated++
		}

		events := detector.Detect(detector.Input{
			Prev: prev,
			Next: *next,
			Home: *resolved.Home,
			Away: *resolved.Away,
		})
		result.Events += len(events)

		if !p.config.NotificationsEnabled {
			return nil
		}
		for _, event := range events {
			created, err := p.sink.Fanout(ctx, event)
			if err != nil {
				return fmt.Errorf("fan out %s: %w", event.Type, err)
			}
			result.Notifications += created
		}
		return nil
	})
	if err != nil {
		return err
	}

	p.cache.Remember(ctx, snap.ExternalID, hash)
	return nil
}

// buildMatch maps a resolved snapshot onto the canonical match shape.
func buildMatch(snap models.MatchSnapshot, resolved refdata.Resolved) models.Match {
	m := models.Match{
		ExternalID:    snap.ExternalID,
		CompetitionID: resolved.Competition.ID,
		HomeTeamID:    resolved.Home.ID,
		AwayTeamID:    resolved.Away.ID,
		Format:        snap.Format,
		Status:        snap.Status,
		Venue:         snap.Venue,
		StartTime:     snap.StartTime,
		TossDecision:  snap.TossDecision,
		Result:        snap.Result,
		CurrentScore:  snap.CurrentScore,
		CurrentOvers:  snap.CurrentOvers,
	}
	m.TossWinnerID = teamIDFor(snap.TossWinnerExternal, resolved)
	m.WinnerID = teamIDFor(snap.WinnerExternal, resolved)
	return m
}

func teamIDFor(externalID *string, resolved refdata.Resolved) *uuid.UUID {
	if externalID == nil {
		return nil
	}
	switch *externalID {
	case resolved.Home.ExternalID:
		id := resolved.Home.ID
		return &id
	case resolved.Away.ExternalID:
		id := resolved.Away.ID
		return &id
	}
	// Provider named a side not playing this match; treat as unset.
	return nil
}

// SyncReferenceData refreshes competition reference data from the
// provider's series listing.
func (p *Poller) SyncReferenceData(ctx context.Context) (refdata.SyncResult, error) {
	stubs, err := p.source.FetchCompetitions(ctx)
	if err != nil {
		p.logCycle(ctx, "series", models.SyncError, nil, err)
		return refdata.SyncResult{}, fmt.Errorf("sync reference data: %w", err)
	}

	result := p.resolver.SyncCompetitions(ctx, stubs)
	count := result.Synced
	p.logCycle(ctx, "series", models.SyncSuccess, &count, nil)
	return result, nil
}

func (p *Poller) logCycle(ctx context.Context, endpoint string, status models.SyncStatus, count *int, cause error) {
	entry := models.SyncLogEntry{
		Provider:     p.source.Provider(),
		Endpoint:     endpoint,
		Status:       status,
		RecordsCount: count,
	}
	if cause != nil {
		msg := cause.Error()
		entry.ErrorMessage = &msg
	}
	if err := p.syncLog.Append(ctx, entry); err != nil {
		// Audit only; never fail a cycle over it.
		log.Warn().Err(err).Msg("failed to append sync log entry")
	}
}
