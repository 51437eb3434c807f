package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

const jobChannelBufferSize = 32

// HandlerFunc executes one job. A returned error leaves the message
// unacked so JetStream redelivers it, up to the consumer's MaxDeliver.
type HandlerFunc func(ctx context.Context, job Job) error

// Runner consumes the job stream with a fixed worker pool and routes each
// job to the handler registered for its type.
type Runner struct {
	queue      *Queue
	numWorkers int
	instanceID string

	handlersMu sync.RWMutex
	handlers   map[Type]HandlerFunc
}

func NewRunner(queue *Queue, numWorkers int) *Runner {
	if numWorkers <= 0 {
		numWorkers = 5
	}
	return &Runner{
		queue:      queue,
		numWorkers: numWorkers,
		instanceID: uuid.New().String()[:8],
		handlers:   make(map[Type]HandlerFunc),
	}
}

// Handle registers the handler for a job type.
func (r *Runner) Handle(t Type, fn HandlerFunc) {
	r.handlersMu.Lock()
	defer r.handlersMu.Unlock()
	r.handlers[t] = fn
}

// Run consumes jobs until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	consumer, err := r.queue.consumer(ctx)
	if err != nil {
		return fmt.Errorf("get consumer: %w", err)
	}

	log.Info().
		Str("instance", r.instanceID).
		Int("workers", r.numWorkers).
		Msg("job runner started")

	jobCh := make(chan jetstream.Msg, jobChannelBufferSize)

	consumeCtx, err := consumer.Consume(func(msg jetstream.Msg) {
		select {
		case jobCh <- msg:
		case <-ctx.Done():
			msg.Nak()
		}
	})
	if err != nil {
		return fmt.Errorf("start JetStream consumer: %w", err)
	}
	defer consumeCtx.Stop()

	var wg sync.WaitGroup
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	for i := 0; i < r.numWorkers; i++ {
		wg.Add(1)
		go r.worker(workerCtx, &wg, i, jobCh)
	}

	<-ctx.Done()
	log.Info().Str("instance", r.instanceID).Msg("job runner shutdown requested")

	cancelWorkers()
	wg.Wait()
	log.Info().Str("instance", r.instanceID).Msg("all workers shut down")
	return nil
}

func (r *Runner) worker(ctx context.Context, wg *sync.WaitGroup, workerID int, jobCh <-chan jetstream.Msg) {
	defer wg.Done()

	log.Info().
		Str("instance", r.instanceID).
		Int("worker_id", workerID).
		Msg("worker started")

	for {
		select {
		case <-ctx.Done():
			log.Info().
				Str("instance", r.instanceID).
				Int("worker_id", workerID).
				Msg("worker shutting down")
			return
		case msg, ok := <-jobCh:
			if !ok {
				return
			}
			if err := r.processMessage(ctx, msg); err != nil {
				log.Error().
					Err(err).
					Str("subject", msg.Subject()).
					Int("worker_id", workerID).
					Msg("job failed")
				msg.Nak()
			} else {
				msg.Ack()
			}
		}
	}
}

func (r *Runner) processMessage(ctx context.Context, msg jetstream.Msg) error {
	var job Job
	if err := json.Unmarshal(msg.Data(), &job); err != nil {
		return fmt.Errorf("unmarshal job: %w", err)
	}

	r.handlersMu.RLock()
	handler, ok := r.handlers[job.Type]
	r.handlersMu.RUnlock()
	if !ok {
		// Unknown types are acked and dropped; redelivering them forever
		// would wedge the work queue.
		log.Warn().Str("job_type", string(job.Type)).Msg("no handler for job type")
		return nil
	}

	log.Debug().
		Str("job_type", string(job.Type)).
		Str("job_id", job.ID.String()).
		Msg("processing job")

	return handler(ctx, job)
}
