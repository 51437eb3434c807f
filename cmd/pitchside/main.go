package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pitchside/pitchside/clients"
	"github.com/pitchside/pitchside/clients/cricketdata"
	"github.com/pitchside/pitchside/internal/config"
	"github.com/pitchside/pitchside/internal/ingest"
	"github.com/pitchside/pitchside/internal/jobs"
	"github.com/pitchside/pitchside/internal/matches"
	"github.com/pitchside/pitchside/internal/notifications"
	"github.com/pitchside/pitchside/internal/pkg/cache"
	"github.com/pitchside/pitchside/internal/pkg/db"
	"github.com/pitchside/pitchside/internal/poller"
	"github.com/pitchside/pitchside/internal/refdata"
	"github.com/pitchside/pitchside/internal/synclog"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(logLevel())

	cfg, err := config.Load("config")
	if err != nil {
		// Refuse to start on incomplete config.
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	queue, err := jobs.NewQueue(ctx, jobs.DefaultQueueConfig(cfg.NATS.URL))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up job queue")
	}
	defer queue.Close()

	// The snapshot cache is an optimization; run without it if redis is down.
	var snapshots *cache.SnapshotCache
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis unavailable, snapshot short-circuit disabled")
	} else {
		snapshots = cache.NewSnapshotCache(redisClient, cfg.Redis.SnapshotTTL)
	}
	defer redisClient.Close()

	source, err := newSnapshotSource(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to select snapshot provider")
	}

	refRepo := refdata.NewRepository(pool)
	matchRepo := matches.NewRepository(pool)
	syncRepo := synclog.NewRepository(pool)
	notifRepo := notifications.NewRepository(pool)

	resolver := refdata.NewResolver(refRepo)
	engine := notifications.NewEngine(notifRepo, notifRepo)

	p := poller.New(source, matchRepo, resolver, engine, syncRepo, snapshots, poller.Config{
		UpcomingWindowDays:   cfg.Provider.UpcomingWindowDays,
		NotificationsEnabled: cfg.Notifications.Enabled,
	})

	emailSender := notifications.NewEmailSender(cfg.Email.ResendAPIKey, cfg.Email.From, notifRepo)
	delivery := notifications.NewDeliveryWorker(notifRepo, emailSender, clockwork.NewRealClock(),
		notifications.DeliveryConfig{BatchSize: cfg.Delivery.BatchSize})

	runner := jobs.NewRunner(queue, cfg.Workers.Count)
	runner.Handle(jobs.TypePollLive, func(ctx context.Context, _ jobs.Job) error {
		_, err := p.PollLive(ctx)
		return err
	})
	runner.Handle(jobs.TypePollUpcoming, func(ctx context.Context, _ jobs.Job) error {
		_, err := p.PollUpcoming(ctx)
		return err
	})
	runner.Handle(jobs.TypeDeliverNotifications, func(ctx context.Context, _ jobs.Job) error {
		_, err := delivery.DrainOnce(ctx)
		return err
	})
	runner.Handle(jobs.TypeSyncReferenceData, func(ctx context.Context, _ jobs.Job) error {
		_, err := p.SyncReferenceData(ctx)
		return err
	})

	runnerDone := make(chan struct{})
	go func() {
		defer close(runnerDone)
		if err := runner.Run(ctx); err != nil {
			log.Error().Err(err).Msg("job runner failed")
			cancel()
		}
	}()

	if cfg.Scheduler.Enabled {
		scheduler := jobs.NewScheduler(queue, clockwork.NewRealClock(), jobs.SchedulerConfig{
			LiveInterval:     cfg.Scheduler.LiveInterval,
			UpcomingInterval: cfg.Scheduler.UpcomingInterval,
			DeliveryInterval: cfg.Scheduler.DeliveryInterval,
			ReferenceSyncAt:  cfg.Scheduler.ReferenceSyncAt,
		})
		go func() {
			if err := scheduler.Run(ctx); err != nil {
				log.Error().Err(err).Msg("scheduler failed")
				cancel()
			}
		}()
	} else {
		log.Info().Msg("scheduler disabled, expecting externally enqueued jobs")
	}

	log.Info().
		Str("provider", source.Provider()).
		Int("workers", cfg.Workers.Count).
		Bool("notifications", cfg.Notifications.Enabled).
		Msg("pitchside started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case <-ctx.Done():
	}

	cancel()
	// Wait for in-flight jobs to ack before connections close.
	select {
	case <-runnerDone:
	case <-time.After(10 * time.Second):
		log.Warn().Msg("timed out waiting for job runner to stop")
	}
	log.Info().Msg("pitchside shutdown complete")
}

// newSnapshotSource selects the configured provider from the registry.
func newSnapshotSource(cfg *config.Config) (poller.SnapshotSource, error) {
	source := clients.ExternalSource(cfg.Provider.Source)
	registered, ok := clients.GetExternalSources()[source]
	if !ok {
		return nil, fmt.Errorf("unknown snapshot provider %q", cfg.Provider.Source)
	}
	if !registered.Active {
		return nil, fmt.Errorf("snapshot provider %q is not active", cfg.Provider.Source)
	}

	switch source {
	case clients.ExternalSourceCricketData:
		return ingest.NewSource(cricketdata.NewClient(cfg.Provider.BaseURL, cfg.Provider.APIKey)), nil
	default:
		return nil, fmt.Errorf("snapshot provider %q has no client implementation", cfg.Provider.Source)
	}
}

func logLevel() zerolog.Level {
	if lvl, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && lvl != zerolog.NoLevel {
		return lvl
	}
	return zerolog.InfoLevel
}
