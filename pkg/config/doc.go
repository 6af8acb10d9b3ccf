// Package config loads application configuration from environment
// variables into typed structs.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11:
// values come from the process environment (optionally seeded from one
// or more .env files), are parsed into any struct with `env` field
// tags, and each configuration type is cached so it is parsed at most
// once per process.
//
// # Usage
//
//	type QueueConfig struct {
//	    MaxConcurrency int           `env:"NOTIFY_QUEUE_CONCURRENCY" envDefault:"4"`
//	    SendTimeout    time.Duration `env:"NOTIFY_QUEUE_SEND_TIMEOUT" envDefault:"30s"`
//	}
//
//	var cfg QueueConfig
//	if err := config.Load(&cfg); err != nil {
//	    log.Fatalf("parsing env: %v", err)
//	}
//
// Subsequent calls to Load for the same type are served from the cache.
// Use LoadEnv to read specific .env files before parsing, and
// ResetCache in tests when the environment changes between cases.
package config
