// Package notifications materializes domain events into per-user,
// per-channel notification records and drains the email ones to a sender.
package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pitchside/pitchside/internal/models"
)

// AudienceStore defines the read-only account data the engine needs.
type AudienceStore interface {
	ListUserIDsFavoritingTeams(ctx context.Context, teamIDs []uuid.UUID) ([]uuid.UUID, error)
	ListPreferences(ctx context.Context, userIDs []uuid.UUID, typ models.NotificationType) ([]models.NotificationPreference, error)
}

// NotificationStore defines the write side.
type NotificationStore interface {
	CreateBatch(ctx context.Context, notifications []models.Notification) (int, error)
}

// FanoutChannels are the channels the engine materializes records for.
// PUSH stays in the enum for the account surface but has no delivery
// mechanism here.
var FanoutChannels = []models.Channel{models.ChannelInApp, models.ChannelEmail}

// Engine resolves the audience of a domain event and persists one
// notification per (user, enabled channel). Fan-out is idempotent at the
// (match, type, user, channel) granularity: the store skips rows that
// already exist, so re-running a detected event never double-notifies.
type Engine struct {
	audience AudienceStore
	store    NotificationStore
}

func NewEngine(audience AudienceStore, store NotificationStore) *Engine {
	return &Engine{audience: audience, store: store}
}

// Fanout materializes an event and returns the number of records created.
func (e *Engine) Fanout(ctx context.Context, event models.DomainEvent) (int, error) {
	userIDs, err := e.audience.ListUserIDsFavoritingTeams(ctx, event.TeamIDs)
	if err != nil {
		return 0, fmt.Errorf("resolve audience: %w", err)
	}
	if len(userIDs) == 0 {
		return 0, nil
	}

	prefs, err := e.audience.ListPreferences(ctx, userIDs, event.Type)
	if err != nil {
		return 0, fmt.Errorf("load preferences: %w", err)
	}
	index := buildPreferenceIndex(prefs)

	var records []models.Notification
	for _, userID := range userIDs {
		for _, channel := range FanoutChannels {
			if !index.enabled(userID, channel, event.TeamIDs) {
				continue
			}
			records = append(records, models.Notification{
				UserID:  userID,
				MatchID: event.MatchID,
				Type:    event.Type,
				Channel: channel,
				Title:   event.Title,
				Body:    event.Body,
				Data:    models.NotificationData{MatchID: event.MatchID},
			})
		}
	}
	if len(records) == 0 {
		return 0, nil
	}

	created, err := e.store.CreateBatch(ctx, records)
	if err != nil {
		return 0, fmt.Errorf("persist notifications: %w", err)
	}

	log.Info().
		Str("match_id", event.MatchID.String()).
		Str("type", string(event.Type)).
		Int("audience", len(userIDs)).
		Int("created", created).
		Msg("fanned out domain event")

	return created, nil
}

type prefKey struct {
	userID  uuid.UUID
	channel models.Channel
}

// preferenceIndex resolves whether a (user, channel) pair is enabled for
// an event. Team-scoped rows override the user's global row; with no row
// at all the channel defaults to enabled.
type preferenceIndex struct {
	global map[prefKey]bool
	teams  map[prefKey]map[uuid.UUID]bool
}

func buildPreferenceIndex(prefs []models.NotificationPreference) preferenceIndex {
	index := preferenceIndex{
		global: make(map[prefKey]bool),
		teams:  make(map[prefKey]map[uuid.UUID]bool),
	}
	for _, pref := range prefs {
		key := prefKey{userID: pref.UserID, channel: pref.Channel}
		if pref.TeamID == nil {
			index.global[key] = pref.Enabled
			continue
		}
		if index.teams[key] == nil {
			index.teams[key] = make(map[uuid.UUID]bool)
		}
		index.teams[key][*pref.TeamID] = pref.Enabled
	}
	return index
}

func (idx preferenceIndex) enabled(userID uuid.UUID, channel models.Channel, teamIDs []uuid.UUID) bool {
	key := prefKey{userID: userID, channel: channel}

	if scoped, ok := idx.teams[key]; ok {
		found := false
		for _, teamID := range teamIDs {
			if enabled, ok := scoped[teamID]; ok {
				if enabled {
					return true
				}
				found = true
			}
		}
		// All applicable team-scoped rows disabled.
		if found {
			return false
		}
	}

	if enabled, ok := idx.global[key]; ok {
		return enabled
	}
	return true
}
