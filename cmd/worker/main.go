// Command worker consumes dataset-updated events and drops the cached
// aggregation results of reloaded datasets.  It runs alongside the apiserver
// when cache invalidation should not share the API process.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/areascope/areascope/internal/application/aggregation"
	"github.com/areascope/areascope/internal/config"
	"github.com/areascope/areascope/internal/infrastructure/database/redis"
	"github.com/areascope/areascope/internal/infrastructure/messaging/kafka"
	"github.com/areascope/areascope/internal/infrastructure/monitoring/logging"
)

var version = "dev"

// prefixInvalidator drops every cached result of a dataset by key prefix.
type prefixInvalidator struct {
	cache *redis.Cache
}

func (p *prefixInvalidator) InvalidateDataset(ctx context.Context, datasetID string) error {
	return p.cache.DeleteByPrefix(ctx, aggregation.DatasetKeyPrefix(datasetID))
}

func main() {
	configPath := flag.String("config", "", "path to config file; empty reads AREASCOPE_* environment variables")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "worker:", err)
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
	if !cfg.Kafka.Enabled || len(cfg.Kafka.Consumer.Brokers) == 0 {
		return fmt.Errorf("worker requires kafka.enabled with consumer brokers")
	}
	if !cfg.Redis.Enabled {
		return fmt.Errorf("worker requires redis: an in-process cache cannot be invalidated remotely")
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.Info("starting areascope worker", logging.String("version", version))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := redis.NewClient(&cfg.Redis.Config, logger)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer client.Close()
	cache := redis.NewCache(client, logger, redis.WithPrefix(cfg.Cache.KeyPrefix))

	consumer := kafka.NewConsumer(cfg.Kafka.Consumer, &prefixInvalidator{cache: cache}, logger)
	defer consumer.Close()

	if err := consumer.Run(ctx); err != nil {
		return fmt.Errorf("consumer: %w", err)
	}
	logger.Info("areascope worker stopped")
	return nil
}
