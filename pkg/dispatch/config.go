package dispatch

import (
	"time"

	"github.com/dmitrymomot/notifykit/pkg/config"
	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/retry"
)

// RetryPolicy bounds how a channel retries failed attempts.
type RetryPolicy struct {
	MaxRetries        int           `env:"NOTIFY_RETRY_MAX" envDefault:"3"`
	InitialDelay      time.Duration `env:"NOTIFY_RETRY_INITIAL_DELAY" envDefault:"30s"`
	BackoffMultiplier float64       `env:"NOTIFY_RETRY_MULTIPLIER" envDefault:"2"`
	MaxDelay          time.Duration `env:"NOTIFY_RETRY_MAX_DELAY" envDefault:"1h"`
}

// Backoff builds the channel's backoff strategy from the policy. No
// jitter: per-channel delays stay deterministic so operators can
// predict retry timing from the config alone.
func (p RetryPolicy) Backoff() retry.BackoffStrategy {
	return retry.ExponentialBackoff{
		InitialInterval: p.InitialDelay,
		MaxInterval:     p.MaxDelay,
		Multiplier:      p.BackoffMultiplier,
	}
}

// QueueConfig tunes one channel's queue and worker pool.
type QueueConfig struct {
	MaxConcurrency int           `env:"NOTIFY_QUEUE_CONCURRENCY" envDefault:"4"`
	MaxQueueDepth  int           `env:"NOTIFY_QUEUE_DEPTH" envDefault:"10000"`
	SendTimeout    time.Duration `env:"NOTIFY_QUEUE_SEND_TIMEOUT" envDefault:"30s"`
	PullInterval   time.Duration `env:"NOTIFY_QUEUE_PULL_INTERVAL" envDefault:"1s"`
	LockTimeout    time.Duration `env:"NOTIFY_QUEUE_LOCK_TIMEOUT" envDefault:"5m"`
	Retry          RetryPolicy
}

// DefaultQueueConfig returns the tuning applied to channels without an
// explicit config.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		MaxConcurrency: 4,
		MaxQueueDepth:  10000,
		SendTimeout:    30 * time.Second,
		PullInterval:   time.Second,
		LockTimeout:    5 * time.Minute,
		Retry: RetryPolicy{
			MaxRetries:        3,
			InitialDelay:      30 * time.Second,
			BackoffMultiplier: 2,
			MaxDelay:          time.Hour,
		},
	}
}

// LoadQueueConfig parses channel tuning from the environment using the
// NOTIFY_QUEUE_* and NOTIFY_RETRY_* variables.
func LoadQueueConfig() (QueueConfig, error) {
	var cfg QueueConfig
	if err := config.Load(&cfg); err != nil {
		return QueueConfig{}, err
	}
	return cfg, nil
}

// Configs holds per-channel queue tuning.
type Configs map[notification.Channel]QueueConfig

// For returns the channel's config, falling back to defaults.
func (c Configs) For(ch notification.Channel) QueueConfig {
	if cfg, ok := c[ch]; ok {
		return cfg
	}
	return DefaultQueueConfig()
}
