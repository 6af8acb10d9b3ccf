package retry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/notifykit/pkg/redis"
	"github.com/dmitrymomot/notifykit/pkg/retry"
)

func TestNewRedisDeadLetter_RequiresClient(t *testing.T) {
	t.Parallel()

	_, err := retry.NewRedisDeadLetter(nil, "")
	assert.ErrorIs(t, err, retry.ErrDeadLetterNil)
}

func TestNewRedisDeadLetterFromConfig_InvalidURL(t *testing.T) {
	t.Parallel()

	_, err := retry.NewRedisDeadLetterFromConfig(context.Background(), redis.Config{
		ConnectionURL:  "not-a-redis-url",
		RetryAttempts:  1,
		RetryInterval:  time.Millisecond,
		ConnectTimeout: time.Second,
	}, "")
	assert.ErrorIs(t, err, redis.ErrFailedToParseRedisConnString)
}
