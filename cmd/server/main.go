package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	auctionhandler "rtbconsent/internal/auction/handler"
	auctionmetrics "rtbconsent/internal/auction/metrics"
	auctionservice "rtbconsent/internal/auction/service"
	consentmetrics "rtbconsent/internal/consent/metrics"
	consentstore "rtbconsent/internal/consent/store"
	"rtbconsent/internal/platform/config"
	"rtbconsent/internal/platform/httpserver"
	"rtbconsent/internal/platform/logger"
	"rtbconsent/internal/platform/metrics"
	"rtbconsent/internal/platform/redis"
	httptransport "rtbconsent/internal/transport/http"
	audit "rtbconsent/pkg/platform/audit"
	"rtbconsent/pkg/platform/audit/publisher"
	"rtbconsent/pkg/platform/audit/publishers/ops"
	auditkafka "rtbconsent/pkg/platform/audit/store/kafka"
	auditmemory "rtbconsent/pkg/platform/audit/store/memory"
	"rtbconsent/pkg/platform/circuit"
)

const shutdownTimeout = 10 * time.Second

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal packages.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("consent frameworks enabled", "frameworks", cfg.Consent.Frameworks.List())

	health := map[string]httptransport.HealthCheck{}
	serviceOpts := []auctionservice.Option{
		auctionservice.WithLogger(log),
		auctionservice.WithMetrics(auctionmetrics.New()),
		auctionservice.WithConsentMetrics(consentmetrics.New()),
		auctionservice.WithFrameworks(cfg.Consent.Frameworks),
		auctionservice.WithLegacyExt(cfg.Consent.LegacyExt),
		auctionservice.WithTMax(cfg.Bid.TMaxMillis),
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		source := consentstore.NewGuardedSource(
			consentstore.NewRedisSource(redisClient.Client),
			circuit.New("consent-redis"),
			log,
		)
		serviceOpts = append(serviceOpts, auctionservice.WithConsentSource(source))
		health["redis"] = redisClient.Health
		log.Info("stored consent lookups enabled", "backend", "redis")
	} else {
		log.Info("stored consent lookups disabled, REDIS_URL not set")
	}

	auditStore, closeAuditStore, err := newAuditStore(cfg.Kafka, log)
	if err != nil {
		return err
	}
	defer closeAuditStore()

	pub := publisher.NewPublisher(auditStore,
		publisher.WithAsyncBuffer(cfg.Audit.AsyncBuffer),
		publisher.WithAppendTimeout(cfg.Audit.AppendTimeout),
		publisher.WithDrainTimeout(shutdownTimeout),
		publisher.WithSampler(ops.NewSampler(cfg.Audit.SampleRate)),
		publisher.WithCircuitBreaker(ops.NewCircuitBreaker(5, 30*time.Second)),
		publisher.WithMetrics(ops.NewMetrics()),
		publisher.WithLogger(log),
	)
	// Drains queued events, bounded by shutdownTimeout, before the store is closed.
	defer pub.Close()
	serviceOpts = append(serviceOpts, auctionservice.WithAuditPublisher(pub))

	auction := auctionhandler.New(auctionservice.New(serviceOpts...), log)
	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:         log,
		Metrics:        metrics.New(),
		RequestTimeout: cfg.Server.RequestTimeout,
		MetricsHandler: promhttp.Handler(),
		Health:         health,
		Modules:        []httptransport.Registrar{auction},
	})
	srv := httpserver.New(cfg.Server.Addr, router, cfg.Server.RequestTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting rtbconsent", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newAuditStore picks Kafka when brokers are configured and memory otherwise.
func newAuditStore(cfg config.KafkaConfig, log *slog.Logger) (audit.Store, func(), error) {
	if len(cfg.Brokers) == 0 {
		log.Info("audit events kept in memory, KAFKA_BROKERS not set")
		return auditmemory.NewInMemoryStore(), func() {}, nil
	}
	store, err := auditkafka.New(cfg.Brokers, cfg.AuditTopic)
	if err != nil {
		return nil, nil, err
	}
	log.Info("audit events published to kafka", "topic", cfg.AuditTopic)
	return store, store.Close, nil
}
