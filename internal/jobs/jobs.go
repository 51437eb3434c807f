// Package jobs provides the durable job queue backing the recurring
// pipeline work: polling, delivery drains, and reference sync. Jobs flow
// through JetStream so a crashed worker never loses a scheduled cycle.
package jobs

import (
	"time"

	"github.com/google/uuid"
)

// Type names a kind of recurring work.
type Type string

const (
	TypePollLive             Type = "poll.live"
	TypePollUpcoming         Type = "poll.upcoming"
	TypeDeliverNotifications Type = "deliver.notifications"
	TypeSyncReferenceData    Type = "sync.reference"
)

// Job is the queue payload. The ID doubles as the JetStream message ID so
// the duplicate window suppresses double-enqueues.
type Job struct {
	ID         uuid.UUID `json:"id"`
	Type       Type      `json:"type"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewJob creates a job of the given type.
func NewJob(t Type) Job {
	return Job{
		ID:         uuid.New(),
		Type:       t,
		EnqueuedAt: time.Now().UTC(),
	}
}

// Subject returns the JetStream subject for a job type.
func (t Type) Subject() string {
	return "jobs." + string(t)
}
