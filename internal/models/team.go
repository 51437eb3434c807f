package models

import (
	"time"

	"github.com/google/uuid"
)

// Team represents a canonical side, national or franchise. Teams are
// created lazily from snapshot data and refreshed whenever richer display
// data arrives; they are never deleted.
type Team struct {
	ID         uuid.UUID `json:"id"`
	ExternalID string    `json:"external_id"`
	Name       string    `json:"name"`
	ShortName  *string   `json:"short_name,omitempty"`
	LogoURL    *string   `json:"logo_url,omitempty"`
	IsNational bool      `json:"is_national"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
