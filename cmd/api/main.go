package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"hostelbook/internal/api"
	"hostelbook/internal/clock"
	"hostelbook/internal/config"
	"hostelbook/internal/database"
	"hostelbook/internal/events"
	"hostelbook/internal/export"
	"hostelbook/internal/logging"
	"hostelbook/internal/metrics"
	"hostelbook/internal/models"
	"hostelbook/internal/repository"
	"hostelbook/internal/service"
	"hostelbook/internal/slots"
	"hostelbook/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
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

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	resources, err := loadResources(cfg, &logger)
	if err != nil {
		return err
	}

	db, err := initDatabase(cfg, resources, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if !cfg.API.Enabled {
		logger.Warn().Msg("API is disabled in config, but starting API application. Check your config.")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(ctx, cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	statusCache := initStatusCache(cfg, redisClient, &logger)

	notifier := worker.NewLogNotifier(&logger)
	notifyWorker := worker.NewNotifyWorker(db, notifier, redisClient, worker.DefaultRetryPolicy(), &logger)
	go notifyWorker.Start(ctx)

	eventBus := events.NewEventBus()

	clk := clock.System()
	policy := slots.Policy{
		SlotMinutes: cfg.Booking.SlotMinutes,
		SlotCount:   cfg.Booking.SlotCount,
		ClosingHour: cfg.Booking.ClosingHour,
	}

	bookingService := service.NewBookingService(db, eventBus, notifyWorker, statusCache, clk, policy, cfg.Booking.MinimumUsableMinutes, &logger)
	statusService := service.NewStatusService(db, statusCache, clk, policy, &logger)
	waitlistService := service.NewWaitlistService(db, eventBus, statusCache, clk, &logger)
	exporter := export.NewExporter(db, &logger)

	httpServer := api.NewHTTPServer(cfg.API, bookingService, statusService, waitlistService, exporter, &logger)

	startMetrics(ctx, cfg, &logger)

	return startServers(ctx, httpServer, cfg, &logger)
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

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для базы данных")
		return err
	}
	if cfg.Exports.Path != "" {
		if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
			logger.Error().Err(err).Msg("Ошибка создания директории для экспорта")
			return err
		}
	}
	return nil
}

func loadResources(cfg *config.Config, logger *zerolog.Logger) ([]models.Resource, error) {
	resourcesPath := os.Getenv("RESOURCES_PATH")
	if resourcesPath == "" {
		resourcesPath = cfg.Resources.File
	}
	data, err := os.ReadFile(resourcesPath)
	if err != nil {
		logger.Error().Err(err).Str("resources_path", resourcesPath).Msg("read resources")
		return nil, err
	}

	var seed struct {
		Resources []models.Resource `yaml:"resources"`
	}
	if err := yaml.Unmarshal(data, &seed); err != nil {
		logger.Error().Err(err).Str("resources_path", resourcesPath).Msg("parse resources")
		return nil, err
	}

	if err := config.ValidateResources(seed.Resources); err != nil {
		logger.Error().Err(err).Msg("resources validation failed")
		return nil, err
	}

	return seed.Resources, nil
}

func initDatabase(cfg *config.Config, resources []models.Resource, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}

	if err := db.UpsertResources(context.Background(), resources); err != nil {
		logger.Error().Err(err).Msg("Ошибка синхронизации ресурсов")
		db.Close()
		return nil, err
	}
	return db, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

func initStatusCache(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) *repository.FailoverStatusCache {
	ttl := time.Duration(cfg.Booking.StatusCacheTTLSeconds) * time.Second
	primary := repository.NewRedisStatusCache(redisClient, ttl)
	fallback := repository.NewMemoryStatusCache(ttl)
	return repository.NewFailoverStatusCache(primary, fallback, logger)
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServers(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
