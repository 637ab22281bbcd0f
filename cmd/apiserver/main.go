// Command apiserver runs the areascope HTTP API: aggregation over study areas,
// health probes, and the Prometheus scrape endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/areascope/areascope/internal/application/aggregation"
	"github.com/areascope/areascope/internal/config"
	"github.com/areascope/areascope/internal/infrastructure/database/memory"
	"github.com/areascope/areascope/internal/infrastructure/database/postgres"
	"github.com/areascope/areascope/internal/infrastructure/database/postgres/repositories"
	"github.com/areascope/areascope/internal/infrastructure/database/redis"
	"github.com/areascope/areascope/internal/infrastructure/messaging/kafka"
	"github.com/areascope/areascope/internal/infrastructure/monitoring/logging"
	"github.com/areascope/areascope/internal/infrastructure/monitoring/prometheus"
	apphttp "github.com/areascope/areascope/internal/interfaces/http"
	"github.com/areascope/areascope/internal/interfaces/http/handlers"
	"github.com/areascope/areascope/internal/interfaces/http/middleware"
)

// version is stamped via -ldflags at build time.
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to config file; empty reads AREASCOPE_* environment variables")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "apiserver:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.Info("starting areascope apiserver", logging.String("version", version))

	// File-based deployments get log-level hot reload; other settings need a
	// restart.
	if configPath != "" {
		config.Watch(configPath, func(newCfg *config.Config) {
			if ls, ok := logger.(logging.LevelSetter); ok {
				ls.SetLevel(newCfg.Log.Level)
			}
			logger.Info("configuration reloaded", logging.String("log_level", newCfg.Log.Level))
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Migrations.Auto {
		if err := postgres.RunMigrations(postgres.DSN(cfg.Postgres), cfg.Migrations.Path); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("schema migrations applied")
	}

	conn, err := postgres.NewConnection(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer conn.Close()
	repo := repositories.NewRecordRepository(conn.Pool(), logger)

	// Metrics are optional; a nil bundle leaves every recorder a no-op.
	var (
		appMetrics     *prometheus.AppMetrics
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled {
		collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, logger)
		if err != nil {
			return fmt.Errorf("init metrics: %w", err)
		}
		appMetrics = prometheus.NewAppMetrics(collector)
		metricsHandler = collector.Handler()
	}

	healthChecks := map[string]handlers.HealthCheck{
		"postgres": conn.HealthCheck,
	}

	// Result cache: Redis when configured, otherwise in-process LRU.
	var (
		cache     aggregation.ResultCache
		cacheKind = "memory"
	)
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(&cfg.Redis.Config, logger)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close()
		redisCache := redis.NewCache(client, logger,
			redis.WithPrefix(cfg.Cache.KeyPrefix),
			redis.WithDefaultTTL(cfg.Cache.ResultTTL),
		)
		healthChecks["redis"] = redisCache.Ping
		cache = redisCache
		cacheKind = "redis"
	} else {
		cache = memory.NewCache(cfg.Cache.MemoryMaxEntries, cfg.Cache.ResultTTL)
	}

	var orchestratorOpts []aggregation.Option
	cachedOpts := []aggregation.CachedOption{
		aggregation.WithResultTTL(cfg.Cache.ResultTTL),
	}
	if appMetrics != nil {
		orchestratorOpts = append(orchestratorOpts, aggregation.WithMetrics(prometheus.NewAggregationRecorder(appMetrics)))
		cachedOpts = append(cachedOpts, aggregation.WithCacheMetrics(prometheus.NewCacheRecorder(appMetrics, cacheKind)))
	}

	if cfg.Kafka.Enabled && len(cfg.Kafka.Producer.Brokers) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka.Producer, "areascope-apiserver", logger)
		if err != nil {
			return fmt.Errorf("init kafka producer: %w", err)
		}
		defer producer.Close()
		cachedOpts = append(cachedOpts, aggregation.WithComputationNotifier(kafka.NewComputationNotifier(producer)))
	}

	aggregator := aggregation.NewCachedAggregator(
		repo,
		aggregation.NewOrchestrator(logger, orchestratorOpts...),
		cache,
		logger,
		cachedOpts...,
	)

	// The invalidation consumer usually runs in the worker; embedding it here
	// covers single-process deployments.
	consumerDone := make(chan error, 1)
	if cfg.Kafka.Enabled && len(cfg.Kafka.Consumer.Brokers) > 0 {
		consumer := kafka.NewConsumer(cfg.Kafka.Consumer, aggregator, logger)
		defer consumer.Close()
		go func() { consumerDone <- consumer.Run(ctx) }()
	} else {
		close(consumerDone)
	}

	router := apphttp.NewRouter(apphttp.RouterConfig{
		Logger:         logger,
		Aggregation:    handlers.NewAggregationHandler(aggregator, logger),
		Health:         handlers.NewHealthHandler(healthChecks, healthStatusOrNil(appMetrics), version, logger),
		MetricsHandler: metricsHandler,
		HTTPMetrics:    httpMetricsOrNil(appMetrics),
		CORSOrigins:    cfg.Server.CORSOrigins,
	})

	server := apphttp.NewServer(apphttp.ServerOptions{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, router, logger)

	serverDone := make(chan error, 1)
	go func() { serverDone <- server.Start() }()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverDone:
		return err
	}

	if err := server.Stop(context.Background()); err != nil {
		return fmt.Errorf("stop server: %w", err)
	}
	if err := <-consumerDone; err != nil {
		logger.Warn("consumer exited with error", logging.Err(err))
	}
	logger.Info("areascope apiserver stopped")
	return nil
}

// httpMetricsOrNil avoids a typed-nil interface when metrics are disabled.
func httpMetricsOrNil(m *prometheus.AppMetrics) middleware.HTTPMetrics {
	if m == nil {
		return nil
	}
	return m
}

func healthStatusOrNil(m *prometheus.AppMetrics) handlers.HealthStatus {
	if m == nil {
		return nil
	}
	return m
}
