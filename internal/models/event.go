package models

import "github.com/google/uuid"

// DomainEvent is a notification-worthy state change detected for one match.
// TeamIDs lists the competing sides; the fan-out engine resolves the
// audience from users favoriting any of them.
type DomainEvent struct {
	MatchID uuid.UUID        `json:"match_id"`
	Type    NotificationType `json:"type"`
	Title   string           `json:"title"`
	Body    string           `json:"body"`
	TeamIDs []uuid.UUID      `json:"team_ids"`
}
