package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchside/pitchside/internal/models"
)

// fakeDeliveryStore keeps notifications in memory ordered by creation.
type fakeDeliveryStore struct {
	notifications []models.Notification
}

func (f *fakeDeliveryStore) add(channel models.Channel) uuid.UUID {
	id := uuid.New()
	f.notifications = append(f.notifications, models.Notification{
		ID:      id,
		UserID:  uuid.New(),
		MatchID: matchID,
		Type:    models.NotifyMatchStart,
		Channel: channel,
		Title:   "India vs Australia",
		Body:    "started",
	})
	return id
}

func (f *fakeDeliveryStore) FetchUnsent(_ context.Context, channel models.Channel, limit int) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range f.notifications {
		if n.Channel == channel && n.SentAt == nil {
			out = append(out, n)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeDeliveryStore) MarkSent(_ context.Context, id uuid.UUID, sentAt time.Time) error {
	for i := range f.notifications {
		if f.notifications[i].ID == id {
			t := sentAt
			f.notifications[i].SentAt = &t
			return nil
		}
	}
	return ErrNotificationNotFound
}

// flakySender fails for ids in failFor and records every attempt.
type flakySender struct {
	failFor  map[uuid.UUID]bool
	attempts map[uuid.UUID]int
}

func newFlakySender() *flakySender {
	return &flakySender{failFor: make(map[uuid.UUID]bool), attempts: make(map[uuid.UUID]int)}
}

func (s *flakySender) Send(_ context.Context, n models.Notification) error {
	s.attempts[n.ID]++
	if s.failFor[n.ID] {
		return errors.New("smtp unavailable")
	}
	return nil
}

func TestDrainOnceMarksSent(t *testing.T) {
	store := &fakeDeliveryStore{}
	id := store.add(models.ChannelEmail)
	sender := newFlakySender()
	clock := clockwork.NewFakeClock()

	worker := NewDeliveryWorker(store, sender, clock, DefaultDeliveryConfig())
	result, err := worker.DrainOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Sent)
	assert.Zero(t, result.Failed)
	require.NotNil(t, store.notifications[0].SentAt)
	assert.True(t, store.notifications[0].SentAt.Equal(clock.Now()))
	assert.Equal(t, 1, sender.attempts[id])
}

func TestDrainOnceLeavesFailuresPending(t *testing.T) {
	store := &fakeDeliveryStore{}
	okID := store.add(models.ChannelEmail)
	badID := store.add(models.ChannelEmail)
	sender := newFlakySender()
	sender.failFor[badID] = true

	worker := NewDeliveryWorker(store, sender, clockwork.NewFakeClock(), DefaultDeliveryConfig())

	result, err := worker.DrainOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 1, result.Failed)

	// The failed row is retried on the next drain; the sent one is not.
	sender.failFor[badID] = false
	result, err = worker.DrainOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
	assert.Zero(t, result.Failed)
	assert.Equal(t, 1, sender.attempts[okID])
	assert.Equal(t, 2, sender.attempts[badID])

	// Everything delivered: subsequent drains are no-ops.
	result, err = worker.DrainOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Sent)
	assert.Zero(t, result.Failed)
}

func TestDrainOnceIgnoresInAppNotifications(t *testing.T) {
	store := &fakeDeliveryStore{}
	store.add(models.ChannelInApp)
	sender := newFlakySender()

	worker := NewDeliveryWorker(store, sender, clockwork.NewFakeClock(), DefaultDeliveryConfig())
	result, err := worker.DrainOnce(context.Background())
	require.NoError(t, err)

	assert.Zero(t, result.Sent)
	assert.Empty(t, sender.attempts)
	assert.Nil(t, store.notifications[0].SentAt)
}

func TestDrainOnceRespectsBatchSize(t *testing.T) {
	store := &fakeDeliveryStore{}
	for i := 0; i < 5; i++ {
		store.add(models.ChannelEmail)
	}
	sender := newFlakySender()

	worker := NewDeliveryWorker(store, sender, clockwork.NewFakeClock(), DeliveryConfig{BatchSize: 2})

	result, err := worker.DrainOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Sent)

	result, err = worker.DrainOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Sent)

	result, err = worker.DrainOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
}
