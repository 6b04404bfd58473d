package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"rtbconsent/pkg/domain"
	"rtbconsent/pkg/platform/strings"
)

// Config is the full service configuration, read once at startup.
type Config struct {
	Server  Server
	Log     Log
	Consent Consent
	Redis   RedisConfig
	Kafka   KafkaConfig
	Audit   Audit
	Bid     Bid
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string
	RequestTimeout time.Duration
}

// Log selects the slog handler.
type Log struct {
	Level  string // debug, info, warn, error
	Format string // json, text
}

// Consent configures enrichment.
type Consent struct {
	Frameworks domain.Capabilities
	LegacyExt  bool
}

// RedisConfig configures the read-only consent source. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the audit sink. No brokers means audit events stay in memory.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// Audit configures the enrichment audit publisher.
type Audit struct {
	SampleRate    float64
	AsyncBuffer   int
	AppendTimeout time.Duration
}

// Bid holds defaults applied to every outgoing bid request.
type Bid struct {
	TMaxMillis int64
}

// FromEnv builds a Config from environment variables so main stays lean.
// Unset variables take their defaults; set but unparseable ones are errors.
func FromEnv() (Config, error) {
	var errs []error
	cfg := Config{
		Server: Server{
			Addr:           envString("RTBCONSENT_ADDR", ":8080"),
			RequestTimeout: envDuration("REQUEST_TIMEOUT", 2*time.Second, &errs),
		},
		Log: Log{
			Level:  envString("LOG_LEVEL", "info"),
			Format: envString("LOG_FORMAT", "json"),
		},
		Consent: Consent{
			LegacyExt: envBool("CONSENT_LEGACY_EXT", false, &errs),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10, &errs),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2, &errs),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 2*time.Second, &errs),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 50*time.Millisecond, &errs),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 50*time.Millisecond, &errs),
		},
		Kafka: KafkaConfig{
			Brokers:    strings.SplitList(os.Getenv("KAFKA_BROKERS"), ","),
			AuditTopic: envString("KAFKA_AUDIT_TOPIC", "rtbconsent.enrichment-audit"),
		},
		Audit: Audit{
			SampleRate:    envFloat("AUDIT_OPS_SAMPLE_RATE", 1.0, &errs),
			AsyncBuffer:   envInt("AUDIT_ASYNC_BUFFER", 1024, &errs),
			AppendTimeout: envDuration("AUDIT_APPEND_TIMEOUT", 5*time.Second, &errs),
		},
		Bid: Bid{
			TMaxMillis: int64(envInt("BID_TMAX_MS", 500, &errs)),
		},
	}

	cfg.Consent.Frameworks = domain.AllCapabilities()
	if raw, ok := os.LookupEnv("CONSENT_FRAMEWORKS"); ok {
		caps, err := domain.ParseCapabilities(strings.DedupeAndTrimLower(strings.SplitList(raw, ",")))
		if err != nil {
			errs = append(errs, fmt.Errorf("CONSENT_FRAMEWORKS: %w", err))
		}
		cfg.Consent.Frameworks = caps
	}

	if cfg.Audit.SampleRate < 0 || cfg.Audit.SampleRate > 1 {
		errs = append(errs, fmt.Errorf("AUDIT_OPS_SAMPLE_RATE must be within [0,1], got %v", cfg.Audit.SampleRate))
	}

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func envFloat(key string, def float64, errs *[]error) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return f
}

func envBool(key string, def bool, errs *[]error) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func envDuration(key string, def time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}
