// Package worker delivers queued lineup notifications.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/kickoff/internal/domain/dedupe"
	"github.com/okian/kickoff/internal/domain/model"
	"github.com/okian/kickoff/internal/domain/notify"
	"github.com/okian/kickoff/pkg/logger"
	"github.com/okian/kickoff/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 2
	defaultAttempts         = 3
	defaultBackoff          = 50 * time.Millisecond
)

// Message is what workers read off the queue.
type Message = model.Notification

// Queue defines how workers receive messages.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Message
}

// Worker delivers messages until the queue drains or it is stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker without waiting for the queue to drain.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for notification delivery.
type InMemoryWorker struct {
	queue    Queue
	notifier notify.Notifier
	deduper  dedupe.Deduper
	name     string

	attempts int
	backoff  time.Duration

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
// A nil deduper disables duplicate suppression.
func NewInMemoryWorker(q Queue, n notify.Notifier, d dedupe.Deduper, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		notifier: n,
		deduper:  d,
		name:     "worker",
		attempts: defaultAttempts,
		backoff:  defaultBackoff,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	messages := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			if err := w.process(ctx, msg); err != nil {
				w.logger.Error(ctx, "notification delivery failed", logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker and waits for the current message to finish.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

// process delivers one message at most once per dedupe key. A key whose
// delivery ultimately fails is released so a later retry can deliver it.
func (w *InMemoryWorker) process(ctx context.Context, msg Message) error { //nolint:gocritic // hugeParam: value semantics through the channel
	start := time.Now()
	defer func() {
		metrics.RecordQueueDequeue()
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	key := msg.DedupeKey()
	if w.deduper != nil && w.deduper.SeenAndRecord(ctx, key) {
		metrics.RecordNotificationDuplicate()
		w.logger.Debug(ctx, "duplicate notification skipped", logger.String("key", key))
		return nil
	}

	var err error
	for attempt := 1; attempt <= w.attempts; attempt++ {
		if err = w.notifier.Notify(ctx, msg); err == nil {
			metrics.RecordNotificationSent()
			return nil
		}
		if attempt == w.attempts || !w.sleep(ctx, w.backoff*time.Duration(attempt)) {
			break
		}
	}

	if w.deduper != nil {
		w.deduper.Unrecord(ctx, key)
	}
	metrics.RecordNotificationFailed()
	metrics.RecordWorkerError()
	metrics.RecordErrorByComponent("worker", "notify_error")
	return fmt.Errorf("notify %s: %w", key, err)
}

// sleep waits d unless the worker is stopped first.
func (w *InMemoryWorker) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	case <-w.shutdown:
		return false
	}
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a worker pool. opts apply to every worker; names are
// assigned per worker.
func NewPool(workerCount int, q Queue, n notify.Notifier, d dedupe.Deduper, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		workerOpts := append(append([]Option{}, opts...), WithName("worker-"+strconv.Itoa(i)))
		pool.workers[i] = NewInMemoryWorker(q, n, d, workerOpts...)
	}
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
}

// Shutdown closes the queue, lets workers drain what is buffered, and
// stops any worker still running when ctx expires.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	defer metrics.UpdateWorkerActiveCount(0)

	for i, w := range p.workers {
		select {
		case <-w.Done():
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker drain timed out", logger.Int("worker_id", i))
			return p.abort()
		}
	}
	return nil
}

// abort stops every worker without draining.
func (p *Pool) abort() error {
	var wg sync.WaitGroup
	for _, w := range p.workers {
		w.shutdownOnce.Do(func() { close(w.shutdown) })
		wg.Add(1)
		go func(w *InMemoryWorker) {
			defer wg.Done()
			<-w.Done()
		}(w)
	}
	wg.Wait()
	return fmt.Errorf("worker pool: %w", context.DeadlineExceeded)
}
