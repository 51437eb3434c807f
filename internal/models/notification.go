package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationType identifies the kind of match event a notification is about.
type NotificationType string

const (
	NotifyMatchStart   NotificationType = "MATCH_START"
	NotifyTossResult   NotificationType = "TOSS_RESULT"
	NotifyPlayingXI    NotificationType = "PLAYING_XI"
	NotifyMatchResult  NotificationType = "MATCH_RESULT"
	NotifyInningsBreak NotificationType = "INNINGS_BREAK"
	NotifyMilestone    NotificationType = "MILESTONE"
)

// Channel is the delivery channel of a notification.
type Channel string

const (
	ChannelInApp Channel = "IN_APP"
	ChannelEmail Channel = "EMAIL"
	ChannelPush  Channel = "PUSH"
)

// NotificationData is the structured payload attached to a notification.
type NotificationData struct {
	MatchID uuid.UUID `json:"match_id"`
}

// Notification is a materialized, per-user, per-channel instance of a
// domain event. The fan-out engine creates it exactly once per
// (user, type, channel, match); the delivery worker owns the SentAt
// mutation and the user owns Read.
type Notification struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	MatchID   uuid.UUID        `json:"match_id"`
	Type      NotificationType `json:"type"`
	Channel   Channel          `json:"channel"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Data      NotificationData `json:"data"`
	Read      bool             `json:"read"`
	SentAt    *time.Time       `json:"sent_at,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// FavoriteTeam is a (user, team) membership expressing subscription
// interest. It is written by the account surface and read-only here.
type FavoriteTeam struct {
	UserID    uuid.UUID `json:"user_id"`
	TeamID    uuid.UUID `json:"team_id"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationPreference is a per (user, type, channel) opt-in/out switch,
// optionally scoped to one team. TeamID nil means the row is the user's
// global default for that type and channel. Absence of any row means
// enabled.
type NotificationPreference struct {
	UserID  uuid.UUID        `json:"user_id"`
	Type    NotificationType `json:"type"`
	Channel Channel          `json:"channel"`
	TeamID  *uuid.UUID       `json:"team_id,omitempty"`
	Enabled bool             `json:"enabled"`
}
