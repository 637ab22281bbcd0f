package config

import "time"

// ApplyDefaults fills unset fields with sane single-node defaults.  Connection
// pool and client timeouts have their own defaults inside the infrastructure
// constructors; only service-level settings live here.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}

	if cfg.Postgres.Host == "" {
		cfg.Postgres.Host = "localhost"
	}
	if cfg.Postgres.Port == 0 {
		cfg.Postgres.Port = 5432
	}
	if cfg.Postgres.Database == "" {
		cfg.Postgres.Database = "areascope"
	}
	if cfg.Postgres.Username == "" {
		cfg.Postgres.Username = "areascope"
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}

	if cfg.Cache.ResultTTL == 0 {
		cfg.Cache.ResultTTL = 5 * time.Minute
	}
	if cfg.Cache.MemoryMaxEntries == 0 {
		cfg.Cache.MemoryMaxEntries = 4096
	}
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = "areascope:"
	}

	if cfg.Kafka.Consumer.GroupID == "" {
		cfg.Kafka.Consumer.GroupID = "areascope"
	}

	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "areascope"
	}

	if cfg.Migrations.Path == "" {
		cfg.Migrations.Path = "file://migrations"
	}
}
