package models

import (
	"time"

	"github.com/google/uuid"
)

// CompetitionType classifies a tournament or series.
type CompetitionType string

const (
	CompetitionInternational CompetitionType = "INTERNATIONAL"
	CompetitionDomestic      CompetitionType = "DOMESTIC"
	CompetitionFranchise     CompetitionType = "FRANCHISE"
)

// DefaultCompetitionExternalID keys the sentinel competition that holds
// matches the provider does not attribute to any series. Every match has
// exactly one competition, possibly this one.
const DefaultCompetitionExternalID = "unclassified"

// Competition is a tournament or series grouping of matches.
type Competition struct {
	ID         uuid.UUID       `json:"id"`
	ExternalID string          `json:"external_id"`
	Name       string          `json:"name"`
	Type       CompetitionType `json:"type"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
