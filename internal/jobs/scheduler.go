package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Enqueuer is the publish side the scheduler needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, job Job) error
}

// SchedulerConfig holds one cadence per recurring job. Each cadence is
// independent: live polling runs in seconds, upcoming discovery in minutes,
// and reference sync once a day.
type SchedulerConfig struct {
	LiveInterval     time.Duration
	UpcomingInterval time.Duration
	DeliveryInterval time.Duration
	ReferenceSyncAt  string // "HH:MM", UTC
}

func (c *SchedulerConfig) applyDefaults() {
	if c.LiveInterval <= 0 {
		c.LiveInterval = 30 * time.Second
	}
	if c.UpcomingInterval <= 0 {
		c.UpcomingInterval = 15 * time.Minute
	}
	if c.DeliveryInterval <= 0 {
		c.DeliveryInterval = 20 * time.Second
	}
	if c.ReferenceSyncAt == "" {
		c.ReferenceSyncAt = "04:00"
	}
}

// Scheduler enqueues recurring jobs on their configured cadences. It holds
// no pipeline logic; the worker pool does the actual work, so a slow cycle
// never delays the next tick.
type Scheduler struct {
	queue  Enqueuer
	clock  clockwork.Clock
	config SchedulerConfig
}

func NewScheduler(queue Enqueuer, clock clockwork.Clock, cfg SchedulerConfig) *Scheduler {
	cfg.applyDefaults()
	return &Scheduler{queue: queue, clock: clock, config: cfg}
}

// Run ticks until ctx is cancelled. Upcoming discovery and reference sync
// also fire once at startup so a fresh deploy does not wait a full interval
// for its first catalog.
func (s *Scheduler) Run(ctx context.Context) error {
	syncAt, err := parseTimeOfDay(s.config.ReferenceSyncAt)
	if err != nil {
		return fmt.Errorf("invalid reference_sync_at: %w", err)
	}

	log.Info().
		Dur("live_interval", s.config.LiveInterval).
		Dur("upcoming_interval", s.config.UpcomingInterval).
		Dur("delivery_interval", s.config.DeliveryInterval).
		Str("reference_sync_at", s.config.ReferenceSyncAt).
		Msg("scheduler started")

	s.enqueue(ctx, TypePollUpcoming)
	s.enqueue(ctx, TypeSyncReferenceData)

	liveTicker := s.clock.NewTicker(s.config.LiveInterval)
	defer liveTicker.Stop()
	upcomingTicker := s.clock.NewTicker(s.config.UpcomingInterval)
	defer upcomingTicker.Stop()
	deliveryTicker := s.clock.NewTicker(s.config.DeliveryInterval)
	defer deliveryTicker.Stop()

	syncTimer := s.clock.NewTimer(untilNext(s.clock.Now(), syncAt))
	defer syncTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("scheduler shutting down")
			return nil
		case <-liveTicker.Chan():
			s.enqueue(ctx, TypePollLive)
		case <-upcomingTicker.Chan():
			s.enqueue(ctx, TypePollUpcoming)
		case <-deliveryTicker.Chan():
			s.enqueue(ctx, TypeDeliverNotifications)
		case <-syncTimer.Chan():
			s.enqueue(ctx, TypeSyncReferenceData)
			syncTimer.Reset(untilNext(s.clock.Now(), syncAt))
		}
	}
}

func (s *Scheduler) enqueue(ctx context.Context, t Type) {
	if err := s.queue.Enqueue(ctx, NewJob(t)); err != nil {
		// The next tick retries; a missed cycle is not fatal.
		log.Error().Err(err).Str("job_type", string(t)).Msg("failed to enqueue job")
	}
}

type timeOfDay struct {
	hour, minute int
}

func parseTimeOfDay(s string) (timeOfDay, error) {
	var tod timeOfDay
	if _, err := fmt.Sscanf(s, "%d:%d", &tod.hour, &tod.minute); err != nil {
		return tod, fmt.Errorf("want HH:MM, got %q", s)
	}
	if tod.hour < 0 || tod.hour > 23 || tod.minute < 0 || tod.minute > 59 {
		return tod, fmt.Errorf("out of range: %q", s)
	}
	return tod, nil
}

// untilNext returns the duration from now until the next UTC occurrence of
// the given time of day.
func untilNext(now time.Time, at timeOfDay) time.Duration {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), at.hour, at.minute, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}
