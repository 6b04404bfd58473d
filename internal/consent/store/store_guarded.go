package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"rtbconsent/internal/consent/models"
	"rtbconsent/pkg/platform/circuit"
	"rtbconsent/pkg/platform/sentinel"
)

// Source is implemented by RedisSource and InMemorySource.
type Source interface {
	Lookup(ctx context.Context, deviceID string) (models.Snapshot, error)
}

const defaultProbeInterval = time.Second

// GuardedSource wraps a Source with a circuit breaker. Once the backend has
// failed often enough it is left alone: one probe lookup per probe interval
// reaches it and every other lookup fails fast. Probe results are discarded
// until the backend has answered successfully several times in a row, so a
// flapping backend does not make consecutive requests for one device
// alternate between stored and empty consent.
type GuardedSource struct {
	inner         Source
	breaker       *circuit.Breaker
	logger        *slog.Logger
	probeInterval time.Duration
	now           func() time.Time

	mu        sync.Mutex
	nextProbe time.Time
}

// GuardedOption configures a GuardedSource.
type GuardedOption func(*GuardedSource)

// WithProbeInterval sets how often an open circuit lets a lookup through to
// the backend. Defaults to one second.
func WithProbeInterval(d time.Duration) GuardedOption {
	return func(s *GuardedSource) {
		if d > 0 {
			s.probeInterval = d
		}
	}
}

// NewGuardedSource wraps inner. A nil logger disables state change logs.
func NewGuardedSource(inner Source, breaker *circuit.Breaker, logger *slog.Logger, opts ...GuardedOption) *GuardedSource {
	s := &GuardedSource{
		inner:         inner,
		breaker:       breaker,
		logger:        logger,
		probeInterval: defaultProbeInterval,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup delegates to the wrapped source. Not-found answers count as
// successes. While the circuit is open every lookup reports
// sentinel.ErrUnavailable, and only probes touch the backend.
func (s *GuardedSource) Lookup(ctx context.Context, deviceID string) (models.Snapshot, error) {
	if s.breaker.IsOpen() && !s.takeProbe() {
		return models.Snapshot{}, s.openErr()
	}

	snap, err := s.inner.Lookup(ctx, deviceID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		if ctx.Err() != nil {
			// The caller gave up; that says nothing about the backend.
			return models.Snapshot{}, err
		}
		_, change := s.breaker.RecordFailure()
		if change.Opened {
			s.deferProbe()
			s.log(ctx, "consent source circuit opened", err)
		}
		return models.Snapshot{}, err
	}

	usePrimary, change := s.breaker.RecordSuccess()
	if change.Closed {
		s.log(ctx, "consent source circuit closed", nil)
	}
	if !usePrimary {
		return models.Snapshot{}, s.openErr()
	}
	return snap, err
}

// takeProbe reports whether this lookup is the probe for the current interval.
func (s *GuardedSource) takeProbe() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if now.Before(s.nextProbe) {
		return false
	}
	s.nextProbe = now.Add(s.probeInterval)
	return true
}

func (s *GuardedSource) deferProbe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextProbe = s.now().Add(s.probeInterval)
}

func (s *GuardedSource) openErr() error {
	return fmt.Errorf("%w: %s circuit open", sentinel.ErrUnavailable, s.breaker.Name())
}

func (s *GuardedSource) log(ctx context.Context, msg string, err error) {
	if s.logger == nil {
		return
	}
	if err != nil {
		s.logger.WarnContext(ctx, msg, "breaker", s.breaker.Name(), "error", err)
		return
	}
	s.logger.InfoContext(ctx, msg, "breaker", s.breaker.Name())
}
