package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/pitchside/pitchside/internal/models"
)

// DeliveryStore defines what the worker needs from persistence.
type DeliveryStore interface {
	FetchUnsent(ctx context.Context, channel models.Channel, limit int) ([]models.Notification, error)
	MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error
}

// Sender dispatches one notification through a channel-specific mechanism.
type Sender interface {
	Send(ctx context.Context, n models.Notification) error
}

// DeliveryConfig tunes the drain worker.
type DeliveryConfig struct {
	BatchSize int
}

func DefaultDeliveryConfig() DeliveryConfig {
	return DeliveryConfig{BatchSize: 50}
}

// DrainResult summarizes one drain invocation.
type DrainResult struct {
	Sent   int
	Failed int
}

// DeliveryWorker drains undelivered EMAIL notifications. A failed send
// leaves sent_at null so the row is retried on the next drain; retry is
// unbounded because re-sending a late notification is acceptable and the
// send is idempotent from the user's perspective. IN_APP rows need no
// delivery step at all.
type DeliveryWorker struct {
	store  DeliveryStore
	sender Sender
	clock  clockwork.Clock
	config DeliveryConfig
}

func NewDeliveryWorker(store DeliveryStore, sender Sender, clock clockwork.Clock, cfg DeliveryConfig) *DeliveryWorker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultDeliveryConfig().BatchSize
	}
	return &DeliveryWorker{store: store, sender: sender, clock: clock, config: cfg}
}

// DrainOnce sends one bounded batch. Send failures are logged per row and
// never abort the batch; only a store failure is returned.
func (w *DeliveryWorker) DrainOnce(ctx context.Context) (DrainResult, error) {
	var result DrainResult

	pending, err := w.store.FetchUnsent(ctx, models.ChannelEmail, w.config.BatchSize)
	if err != nil {
		return result, fmt.Errorf("fetch unsent notifications: %w", err)
	}
	if len(pending) == 0 {
		return result, nil
	}

	for _, n := range pending {
		if err := w.sender.Send(ctx, n); err != nil {
			log.Error().Err(err).
				Str("notification_id", n.ID.String()).
				Str("user_id", n.UserID.String()).
				Msg("failed to send notification, will retry on next drain")
			result.Failed++
			continue
		}

		if err := w.store.MarkSent(ctx, n.ID, w.clock.Now()); err != nil {
			// The email went out but the row stays pending; the next drain
			// re-sends, which at-least-once delivery permits.
			log.Error().Err(err).
				Str("notification_id", n.ID.String()).
				Msg("sent but failed to mark notification delivered")
			result.Failed++
			continue
		}
		result.Sent++
	}

	log.Debug().Int("sent", result.Sent).Int("failed", result.Failed).Msg("notification drain complete")
	return result, nil
}
