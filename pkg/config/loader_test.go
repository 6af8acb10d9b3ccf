package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/config"
)

type queueEnvConfig struct {
	Concurrency  int           `env:"TEST_NOTIFY_CONCURRENCY" envDefault:"4"`
	SendTimeout  time.Duration `env:"TEST_NOTIFY_SEND_TIMEOUT" envDefault:"30s"`
	PullInterval time.Duration `env:"TEST_NOTIFY_PULL_INTERVAL" envDefault:"1s"`
}

type retryEnvConfig struct {
	MaxRetries int     `env:"TEST_NOTIFY_MAX_RETRIES" envDefault:"3"`
	Multiplier float64 `env:"TEST_NOTIFY_BACKOFF_MULT" envDefault:"2"`
}

type requiredEnvConfig struct {
	APIToken string `env:"TEST_NOTIFY_API_TOKEN,required"`
}

type channelsEnvConfig struct {
	Enabled []string `env:"TEST_NOTIFY_CHANNELS" envSeparator:","`
}

func TestLoad_Defaults(t *testing.T) {
	config.ResetCache()

	var cfg queueEnvConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.SendTimeout)
	assert.Equal(t, time.Second, cfg.PullInterval)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("TEST_NOTIFY_MAX_RETRIES", "7")
	t.Setenv("TEST_NOTIFY_BACKOFF_MULT", "1.5")
	config.ResetCache()

	var cfg retryEnvConfig
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, 7, cfg.MaxRetries)
	assert.Equal(t, 1.5, cfg.Multiplier)
}

func TestLoad_CachesPerType(t *testing.T) {
	t.Setenv("TEST_NOTIFY_MAX_RETRIES", "5")
	config.ResetCache()

	var first retryEnvConfig
	require.NoError(t, config.Load(&first))
	require.Equal(t, 5, first.MaxRetries)

	// A later env change is invisible until the cache is reset.
	t.Setenv("TEST_NOTIFY_MAX_RETRIES", "9")

	var second retryEnvConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, 5, second.MaxRetries)

	config.ResetCache()

	var third retryEnvConfig
	require.NoError(t, config.Load(&third))
	assert.Equal(t, 9, third.MaxRetries)
}

func TestLoad_RequiredMissing(t *testing.T) {
	config.ResetCache()

	var cfg requiredEnvConfig
	err := config.Load(&cfg)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}

func TestLoad_SeparatedList(t *testing.T) {
	t.Setenv("TEST_NOTIFY_CHANNELS", "email,sms,push")
	config.ResetCache()

	var cfg channelsEnvConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, []string{"email", "sms", "push"}, cfg.Enabled)
}

func TestLoad_NilPointer(t *testing.T) {
	config.ResetCache()

	err := config.Load[queueEnvConfig](nil)
	assert.ErrorIs(t, err, config.ErrNilPointer)
}

func TestMustLoad_PanicsOnFailure(t *testing.T) {
	config.ResetCache()

	assert.Panics(t, func() {
		var cfg requiredEnvConfig
		config.MustLoad(&cfg)
	})
}

func TestLoadEnv_MissingFile(t *testing.T) {
	err := config.LoadEnv("testdata/does-not-exist.env")
	assert.ErrorIs(t, err, config.ErrEnvFileNotLoaded)
}
