// Package config provides configuration loading, defaults, and validation for
// the areascope service.
package config

import (
	"fmt"
	"time"

	"github.com/areascope/areascope/internal/infrastructure/database/postgres"
	"github.com/areascope/areascope/internal/infrastructure/database/redis"
	"github.com/areascope/areascope/internal/infrastructure/messaging/kafka"
	"github.com/areascope/areascope/internal/infrastructure/monitoring/logging"
)

// Config is the root configuration tree.
type Config struct {
	Server     ServerConfig      `mapstructure:"server"`
	Log        logging.LogConfig `mapstructure:"log"`
	Postgres   postgres.Config   `mapstructure:"postgres"`
	Redis      RedisConfig       `mapstructure:"redis"`
	Cache      CacheConfig       `mapstructure:"cache"`
	Kafka      KafkaConfig       `mapstructure:"kafka"`
	Metrics    MetricsConfig     `mapstructure:"metrics"`
	Migrations MigrationsConfig  `mapstructure:"migrations"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// RedisConfig wraps the client settings with an enable switch; with Redis
// disabled the service falls back to the in-process cache.
type RedisConfig struct {
	Enabled bool `mapstructure:"enabled"`
	redis.Config `mapstructure:",squash"`
}

// CacheConfig tunes the aggregation result cache.
type CacheConfig struct {
	ResultTTL        time.Duration `mapstructure:"result_ttl"`
	MemoryMaxEntries int           `mapstructure:"memory_max_entries"`
	KeyPrefix        string        `mapstructure:"key_prefix"`
}

// KafkaConfig wires the event bus; disabled deployments skip invalidation
// events and rely on version-bound keys plus TTL.
type KafkaConfig struct {
	Enabled  bool                 `mapstructure:"enabled"`
	Producer kafka.ProducerConfig `mapstructure:"producer"`
	Consumer kafka.ConsumerConfig `mapstructure:"consumer"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// MigrationsConfig controls startup schema migration.
type MigrationsConfig struct {
	Auto bool   `mapstructure:"auto"`
	Path string `mapstructure:"path"`
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in (0, 65535], got %d", c.Server.Port)
	}
	if c.Postgres.Host == "" {
		return fmt.Errorf("postgres.host is required")
	}
	if c.Postgres.Database == "" {
		return fmt.Errorf("postgres.database is required")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" && len(c.Redis.ClusterAddrs) == 0 && len(c.Redis.SentinelAddrs) == 0 {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Consumer.Brokers) == 0 && len(c.Kafka.Producer.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required when kafka is enabled")
	}
	if c.Cache.ResultTTL < 0 {
		return fmt.Errorf("cache.result_ttl must not be negative")
	}
	return nil
}
