package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

const (
	streamName    = "PITCHSIDE_JOBS"
	subjectPrefix = "jobs"
	consumerName  = "pitchside-workers"

	natsMaxReconnects = -1 // infinite
	natsReconnectWait = 2 * time.Second

	consumerMaxDeliver    = 3
	consumerAckWait       = 2 * time.Minute
	consumerMaxAckPending = 64
)

// QueueConfig tunes the job stream.
type QueueConfig struct {
	URL             string
	MaxAge          time.Duration
	DuplicateWindow time.Duration
}

func DefaultQueueConfig(url string) QueueConfig {
	return QueueConfig{
		URL:             url,
		MaxAge:          24 * time.Hour,
		DuplicateWindow: 2 * time.Minute,
	}
}

// Queue owns the NATS connection and the job stream. It is both the
// publish side (used by the scheduler) and the consume side (used by the
// worker pool).
type Queue struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	config QueueConfig
}

// NewQueue connects to NATS, ensures the job stream exists, and clears any
// stale consumer registration left behind by a previous process so redelivery
// state starts clean.
func NewQueue(ctx context.Context, cfg QueueConfig) (*Queue, error) {
	opts := []nats.Option{
		nats.MaxReconnects(natsMaxReconnects),
		nats.ReconnectWait(natsReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	q := &Queue{nc: nc, js: js, config: cfg}

	if err := q.ensureStream(ctx); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream: %w", err)
	}
	if err := q.resetConsumer(ctx); err != nil {
		nc.Close()
		return nil, fmt.Errorf("reset consumer: %w", err)
	}

	return q, nil
}

func (q *Queue) ensureStream(ctx context.Context) error {
	sc := jetstream.StreamConfig{
		Name:        streamName,
		Description: "Recurring pipeline jobs",
		Subjects:    []string{subjectPrefix + ".>"},
		Retention:   jetstream.WorkQueuePolicy,
		MaxAge:      q.config.MaxAge,
		Storage:     jetstream.FileStorage,
		Duplicates:  q.config.DuplicateWindow,
	}

	stream, err := q.js.Stream(ctx, streamName)
	if err != nil {
		if _, err = q.js.CreateStream(ctx, sc); err != nil {
			return fmt.Errorf("create stream: %w", err)
		}
		log.Info().Str("stream", streamName).Msg("created JetStream stream")
		return nil
	}

	info, err := stream.Info(ctx)
	if err != nil {
		return fmt.Errorf("get stream info: %w", err)
	}
	if info.Config.MaxAge != sc.MaxAge || info.Config.Duplicates != sc.Duplicates {
		if _, err = q.js.UpdateStream(ctx, sc); err != nil {
			return fmt.Errorf("update stream: %w", err)
		}
		log.Info().Str("stream", streamName).Msg("updated JetStream stream")
	}
	return nil
}

// resetConsumer drops any existing durable consumer and recreates it. A
// stale registration from a crashed process would otherwise keep its
// redelivery bookkeeping across restarts.
func (q *Queue) resetConsumer(ctx context.Context) error {
	stream, err := q.js.Stream(ctx, streamName)
	if err != nil {
		return fmt.Errorf("get stream: %w", err)
	}

	if err := stream.DeleteConsumer(ctx, consumerName); err != nil {
		if !errors.Is(err, jetstream.ErrConsumerNotFound) {
			return fmt.Errorf("delete stale consumer: %w", err)
		}
	} else {
		log.Info().Str("consumer", consumerName).Msg("cleared stale consumer registration")
	}

	_, err = stream.CreateConsumer(ctx, jetstream.ConsumerConfig{
		Name:          consumerName,
		Durable:       consumerName,
		Description:   "Pipeline job worker pool",
		FilterSubject: subjectPrefix + ".>",
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    consumerMaxDeliver,
		BackOff:       []time.Duration{5 * time.Second, 30 * time.Second},
		AckWait:       consumerAckWait,
		MaxAckPending: consumerMaxAckPending,
		ReplayPolicy:  jetstream.ReplayInstantPolicy,
	})
	if err != nil {
		return fmt.Errorf("create consumer: %w", err)
	}
	log.Info().Str("consumer", consumerName).Msg("created JetStream consumer")
	return nil
}

// Enqueue publishes a job. The job ID is the message ID, so retried
// publishes inside the duplicate window collapse to one delivery.
func (q *Queue) Enqueue(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}

	ack, err := q.js.PublishMsg(ctx, &nats.Msg{
		Subject: job.Type.Subject(),
		Data:    data,
		Header: nats.Header{
			"Job-Type": []string{string(job.Type)},
			"Job-ID":   []string{job.ID.String()},
		},
	},
		jetstream.WithMsgID(job.ID.String()),
		jetstream.WithExpectStream(streamName),
	)
	if err != nil {
		return fmt.Errorf("publish job: %w", err)
	}

	log.Debug().
		Str("job_type", string(job.Type)).
		Str("job_id", job.ID.String()).
		Uint64("sequence", ack.Sequence).
		Msg("enqueued job")
	return nil
}

func (q *Queue) consumer(ctx context.Context) (jetstream.Consumer, error) {
	stream, err := q.js.Stream(ctx, streamName)
	if err != nil {
		return nil, fmt.Errorf("get stream: %w", err)
	}
	return stream.Consumer(ctx, consumerName)
}

// Close gracefully closes the NATS connection.
func (q *Queue) Close() error {
	if q.nc != nil {
		q.nc.Close()
	}
	return nil
}
