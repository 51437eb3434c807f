package models

import (
	"time"

	"github.com/google/uuid"
)

// SyncStatus is the outcome of one poll cycle.
type SyncStatus string

const (
	SyncSuccess SyncStatus = "success"
	SyncError   SyncStatus = "error"
)

// SyncLogEntry is an append-only audit record of one poll cycle. It is
// observability data, never control flow.
type SyncLogEntry struct {
	ID           uuid.UUID  `json:"id"`
	Provider     string     `json:"provider"`
	Endpoint     string     `json:"endpoint"`
	Status       SyncStatus `json:"status"`
	RecordsCount *int       `json:"records_count,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
