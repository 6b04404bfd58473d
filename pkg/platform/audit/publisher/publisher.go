// Package publisher fans audit events out to a Store, synchronously or through
// a bounded async buffer. Operations events are sampled; compliance events
// never are.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	audit "rtbconsent/pkg/platform/audit"
	"rtbconsent/pkg/platform/audit/publishers/ops"
	"rtbconsent/pkg/platform/audit/worker"
)

// ErrBufferFull is returned by Emit when the async buffer cannot take more events.
var ErrBufferFull = errors.New("audit buffer full")

// ErrClosed is returned by Emit after Close.
var ErrClosed = errors.New("audit publisher closed")

const (
	defaultAppendTimeout = 5 * time.Second
	defaultDrainTimeout  = 10 * time.Second
)

// Publisher emits audit events to a store.
type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	sampler *ops.Sampler
	breaker *ops.CircuitBreaker
	metrics *ops.Metrics
	now     func() time.Time

	appendTimeout time.Duration
	drainTimeout  time.Duration

	bufferSize int
	inbox      chan audit.Event
	done       chan struct{}
	stopWorker context.CancelFunc

	mu     sync.RWMutex
	closed bool
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithAsyncBuffer makes Emit non-blocking, queueing up to size events for a
// background worker. size <= 0 keeps synchronous mode.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.bufferSize = size
	}
}

// WithAppendTimeout bounds each store append. Defaults to 5s.
func WithAppendTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.appendTimeout = d
		}
	}
}

// WithDrainTimeout bounds how long Close waits for queued events before
// abandoning them. Defaults to 10s.
func WithDrainTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.drainTimeout = d
		}
	}
}

// WithSampler samples operations events.
func WithSampler(s *ops.Sampler) Option {
	return func(p *Publisher) {
		p.sampler = s
	}
}

// WithCircuitBreaker skips appends while the store keeps failing.
func WithCircuitBreaker(cb *ops.CircuitBreaker) Option {
	return func(p *Publisher) {
		p.breaker = cb
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *ops.Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithLogger sets a logger for persistence failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher creates a publisher over store.
func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:         store,
		now:           time.Now,
		appendTimeout: defaultAppendTimeout,
		drainTimeout:  defaultDrainTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufferSize > 0 {
		p.inbox = make(chan audit.Event, p.bufferSize)
		p.done = make(chan struct{})
		ctx, cancel := context.WithCancel(context.Background())
		p.stopWorker = cancel
		w := worker.NewWorker(storeFunc(p.persist), p.inbox, p.abandon)
		go func() {
			defer close(p.done)
			w.Run(ctx)
		}()
	}
	return p
}

// Emit records event. A zero Timestamp is set to now and an empty Category is
// derived from the action. In async mode Emit never blocks: a full buffer
// returns ErrBufferFull, or ctx.Err() if ctx is already done.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now()
	}
	if event.Category == "" {
		event.Category = event.Action.Category()
	}
	if event.Category == audit.CategoryOperations && p.sampler != nil && !p.sampler.ShouldSample(string(event.Action)) {
		p.metrics.IncSampled()
		return nil
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}

	if p.inbox == nil {
		return p.persist(ctx, event)
	}

	select {
	case p.inbox <- event:
		p.metrics.IncTracked()
		return nil
	default:
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	p.metrics.IncDropped()
	return ErrBufferFull
}

func (p *Publisher) persist(ctx context.Context, event audit.Event) error {
	if p.breaker != nil && !p.breaker.Allow() {
		p.metrics.IncCircuitBreakerDropped()
		return nil
	}
	appendCtx, cancel := context.WithTimeout(ctx, p.appendTimeout)
	defer cancel()
	err := p.store.Append(appendCtx, event)
	// The store is only blamed when the caller was still waiting.
	if p.breaker != nil && ctx.Err() == nil {
		if err != nil {
			p.breaker.RecordFailure()
		} else {
			p.breaker.RecordSuccess()
		}
		p.metrics.SetCircuitBreakerState(p.breaker.IsOpen())
	}
	if err != nil {
		p.metrics.IncPersistFailures()
		if p.logger != nil {
			p.logger.WarnContext(ctx, "failed to persist audit event",
				"request_id", event.RequestID,
				"action", string(event.Action),
				"error", err,
			)
		}
		return err
	}
	if p.inbox == nil {
		p.metrics.IncTracked()
	}
	return nil
}

// abandon accounts for events the worker skipped after the drain deadline.
// Store failures are already counted by persist.
func (p *Publisher) abandon(event audit.Event, err error) {
	if !errors.Is(err, context.Canceled) {
		return
	}
	p.metrics.IncDropped()
	if p.logger != nil {
		p.logger.Warn("audit event abandoned at shutdown",
			"request_id", event.RequestID,
			"action", string(event.Action),
		)
	}
}

// Close stops accepting events and, in async mode, waits for the queue to
// drain. After the drain timeout the in-flight append is cancelled and the
// rest of the queue is dropped. Safe to call more than once.
func (p *Publisher) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	if p.inbox != nil {
		close(p.inbox)
	}
	p.mu.Unlock()

	if p.done == nil {
		return
	}
	defer p.stopWorker()
	timer := time.NewTimer(p.drainTimeout)
	defer timer.Stop()
	select {
	case <-p.done:
	case <-timer.C:
		p.stopWorker()
		<-p.done
	}
}

// storeFunc adapts persist to audit.Store for the worker.
type storeFunc func(ctx context.Context, event audit.Event) error

func (f storeFunc) Append(ctx context.Context, event audit.Event) error { return f(ctx, event) }
