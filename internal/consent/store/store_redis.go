package store

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"rtbconsent/internal/consent/models"
	"rtbconsent/pkg/platform/sentinel"
)

var (
	lookupDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rtbconsent_consent_lookup_duration_ms",
		Help:    "Latency of consent snapshot lookups against Redis in milliseconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50},
	})
)

const (
	// Redis key prefix for per-device consent hashes. Hash fields are IAB CMP
	// storage keys (IABTCF_TCString, IABUSPrivacy_String, ...).
	consentKeyPrefix = "consent:"
)

// RedisSource reads consent snapshots written by an upstream CMP sync job.
// It never writes.
type RedisSource struct {
	client *redis.Client
}

// RedisSourceOption configures a RedisSource instance.
type RedisSourceOption func(*RedisSource)

// NewRedisSource constructs a Redis-backed consent source.
func NewRedisSource(client *redis.Client, opts ...RedisSourceOption) *RedisSource {
	s := &RedisSource{client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Lookup returns the snapshot stored for deviceID.
//
// Errors: sentinel.ErrNotFound when no hash exists for the device;
// sentinel.ErrUnavailable wrapping the client error on any Redis failure.
func (s *RedisSource) Lookup(ctx context.Context, deviceID string) (models.Snapshot, error) {
	start := time.Now()
	defer func() {
		lookupDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	if deviceID == "" {
		return models.Snapshot{}, sentinel.ErrNotFound
	}

	// HGETALL on a missing key returns an empty map, not redis.Nil.
	kv, err := s.client.HGetAll(ctx, consentKeyPrefix+deviceID).Result()
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("%w: hgetall consent: %w", sentinel.ErrUnavailable, err)
	}
	if len(kv) == 0 {
		return models.Snapshot{}, sentinel.ErrNotFound
	}
	return models.FromStorageKeys(kv), nil
}

// Key returns the Redis key holding deviceID's consent hash.
func Key(deviceID string) string {
	return consentKeyPrefix + deviceID
}
