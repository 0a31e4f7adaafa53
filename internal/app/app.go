package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/event"
	handler "github.com/utafrali/storefront/internal/handler/http"
	"github.com/utafrali/storefront/internal/repository"
	"github.com/utafrali/storefront/internal/repository/cache"
	"github.com/utafrali/storefront/internal/repository/resilient"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/pkg/database"
	"github.com/utafrali/storefront/pkg/health"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/middleware"
	"github.com/utafrali/storefront/pkg/tracing"
)

const idempotencyKeyPrefix = "catalog:event:"

// App wires together all dependencies and runs the catalog service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	storage        *Storage
	redis          *redis.Client
	consumers      []*pkgkafka.Consumer
	dlq            *pkgkafka.DLQProducer
	limiter        *middleware.RateLimiter
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	a := &App{cfg: cfg, logger: logger, tracerShutdown: tracerShutdown}

	storage, err := OpenStorage(ctx, cfg, cfg.StorageBackend, cfg.AutoMigrate, logger)
	if err != nil {
		_ = a.Shutdown()
		return nil, err
	}
	a.storage = storage
	if err := storage.RegisterMetrics(prometheus.DefaultRegisterer, cfg.ServiceName); err != nil {
		logger.Warn("register pool metrics", slog.String("error", err.Error()))
	}
	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(cfg.SlowQueryThreshold(), logger)
	}

	if cfg.RedisEnabled() {
		client, err := database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			// Counts are served uncached without Redis.
			logger.Warn("redis unavailable, count cache disabled",
				slog.String("addr", cfg.Redis().Addr()),
				slog.String("error", err.Error()),
			)
		} else {
			a.redis = client
			logger.Info("connected to Redis", slog.String("addr", cfg.Redis().Addr()))
		}
	}

	// Decorators wrap outward: store, breaker, count cache.
	var repo repository.ProductRepository = storage.Repo
	if cfg.BreakerEnabled && cfg.StorageBackend != config.BackendMemory {
		bc := cfg.Breaker()
		repo = resilient.New(repo, bc, logger)
		logger.Info("circuit breaker initialized",
			slog.String("name", bc.Name),
			slog.Float64("failure_ratio", bc.FailureRatio),
			slog.Uint64("min_requests", uint64(bc.MinRequests)),
			slog.Duration("open_timeout", bc.Timeout),
		)
	}
	if a.redis != nil {
		repo = cache.New(repo, a.redis, cfg.CountCacheTTL, logger)
	}

	catalogService := service.NewCatalogService(repo, logger)

	if cfg.ProjectorEnabled {
		a.startProjector(catalogService)
	}

	healthHandler := health.NewHandler()
	healthHandler.SetTimeout(2 * time.Second)
	healthHandler.RegisterCritical(cfg.StorageBackend, storage.Ping)
	if a.redis != nil {
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return a.redis.Ping(ctx).Err()
		})
	}
	if cfg.ProjectorEnabled {
		healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
			return pkgkafka.PingBrokers(ctx, cfg.KafkaBrokers)
		})
	}

	if cfg.RateLimitRPS > 0 {
		a.limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 3*time.Minute)
	}

	router := handler.NewRouter(catalogService, healthHandler, handler.RouterConfig{
		ServiceName:               cfg.ServiceName,
		PageSize:                  cfg.PageSize,
		CORS:                      cfg.CORS(),
		RateLimiter:               a.limiter,
		CacheMaxAge:               cfg.CacheMaxAge,
		CacheStaleWhileRevalidate: cfg.CacheStaleWhileRevalidate,
		RequestTimeout:            cfg.RequestTimeout,
		PprofEnabled:              cfg.PprofEnabled,
		PprofAllowedCIDRs:         cfg.PprofAllowedCIDRs,
	}, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// startProjector creates one consumer per product topic. Events already seen
// are skipped through Redis when it is connected, else an in-process store.
func (a *App) startProjector(writer event.ProductWriter) {
	var store pkgkafka.IdempotencyStore
	if a.redis != nil {
		store = pkgkafka.NewRedisIdempotencyStore(a.redis, idempotencyKeyPrefix, a.cfg.IdempotencyTTL)
	} else {
		store = pkgkafka.NewMemoryIdempotencyStore(a.cfg.IdempotencyTTL)
	}

	projector := event.NewProjector(writer, a.logger)
	handle := pkgkafka.IdempotentHandler(store, projector.Handle, a.logger)
	a.dlq = pkgkafka.NewDLQProducer(a.cfg.KafkaBrokers, a.logger)

	for _, topic := range projector.Topics() {
		consumerCfg := pkgkafka.ConsumerConfig{
			Brokers:  a.cfg.KafkaBrokers,
			GroupID:  a.cfg.KafkaGroupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6, // 10 MB
		}
		a.consumers = append(a.consumers, pkgkafka.NewConsumer(consumerCfg, handle, a.logger,
			pkgkafka.WithDeadLetter(a.dlq),
			pkgkafka.WithRetryBackoff(500*time.Millisecond),
		))
	}
	a.logger.Info("kafka consumers initialized",
		slog.Any("brokers", a.cfg.KafkaBrokers),
		slog.String("group_id", a.cfg.KafkaGroupID),
		slog.Int("topic_count", len(a.consumers)),
	)
}

// Run starts the HTTP server and Kafka consumers, blocking until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1+len(a.consumers))

	if a.limiter != nil {
		go a.limiter.Run(ctx)
	}

	for _, c := range a.consumers {
		go func() {
			if err := c.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
			slog.String("storage", a.cfg.StorageBackend),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-errCh:
	}

	return errors.Join(runErr, a.Shutdown())
}

// Shutdown gracefully stops all components in order: HTTP server, Kafka
// consumers and the dead-letter producer, tracer, Redis, storage.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	if a.httpServer != nil {
		httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer httpCancel()
		if err := a.httpServer.Shutdown(httpCtx); err != nil {
			a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	for _, c := range a.consumers {
		if err := c.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			a.logger.Error("dlq producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.storage != nil {
		a.storage.Close()
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
