package redis

import "time"

// Config describes how to reach the Redis server. ConnectionURL uses
// the standard form "redis://:password@localhost:6379/0". The NOTIFY_
// prefix keeps these variables from colliding with other services
// sharing the environment.
type Config struct {
	ConnectionURL  string        `env:"NOTIFY_REDIS_URL,required" envDefault:"redis://localhost:6379/0"`
	RetryAttempts  int           `env:"NOTIFY_REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"NOTIFY_REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"NOTIFY_REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
}
