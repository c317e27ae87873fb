package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tripseat/internal/api"
	"tripseat/internal/config"
	"tripseat/internal/database"
	"tripseat/internal/domain"
	"tripseat/internal/events"
	"tripseat/internal/logging"
	"tripseat/internal/metrics"
	"tripseat/internal/repository"
	"tripseat/internal/service"
	"tripseat/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	locker := initLocker(cfg, redisClient, &logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eventBus := events.NewEventBus()
	eventLogger := logger.With().Str("component", "events").Logger()
	eventBus.SubscribeAll(events.LogHandler(&eventLogger))
	startEventRelay(ctx, cfg, redisClient, eventBus, &logger)

	bookingService := service.NewBookingService(db, db, db, locker, eventBus, cfg.Booking, &logger)
	tripService := service.NewTripService(db, db, 0, &logger)
	userService := service.NewUserService(db, &logger)

	httpServer := api.NewHTTPServer(cfg.API, api.Deps{
		Bookings: bookingService,
		Trips:    tripService,
		Users:    userService,
		DB:       db,
	}, &logger)

	startMetrics(ctx, cfg, &logger)

	backupService := database.NewBackupService(db, cfg.Database.Path, cfg.Backup, &logger)
	go backupService.Start(ctx)

	return startServer(ctx, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, using in-process trip locks")
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// initLocker prefers a Redis lock shared across replicas and falls back to an
// in-process lock when Redis is absent or down.
func initLocker(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) domain.TripLocker {
	ttl := time.Duration(cfg.Booking.LockTTLSeconds) * time.Second
	wait := time.Duration(cfg.Booking.LockWaitSeconds) * time.Second

	memory := repository.NewMemoryTripLocker(wait)
	if redisClient == nil {
		return memory
	}
	return repository.NewFailoverTripLocker(repository.NewRedisTripLocker(redisClient, ttl, wait), memory, logger)
}

func startEventRelay(ctx context.Context, cfg *config.Config, redisClient *redis.Client, bus *events.EventBus, logger *zerolog.Logger) {
	if !cfg.Events.RelayEnabled {
		return
	}
	if redisClient == nil {
		logger.Warn().Msg("event relay enabled but redis is unavailable, events stay in-process")
		return
	}

	relayLogger := logger.With().Str("component", "event-relay").Logger()
	relay := worker.NewEventRelay(redisClient, cfg.Events.QueueKey, worker.RetryPolicy{MaxRetries: cfg.Events.MaxRetries}, &relayLogger)
	bus.SubscribeAll(relay.Handle)
	go relay.Start(ctx)
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	metrics.Register()
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServer(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
