package retry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/redis"
)

// RedisDeadLetter stores exhausted units in one Redis list per channel
// so they survive restarts and can be inspected with standard tooling.
type RedisDeadLetter struct {
	client    goredis.UniversalClient
	keyPrefix string
}

// NewRedisDeadLetter creates a dead-letter store on the given Redis
// client. Keys are "<prefix>:<channel>"; the default prefix is
// "notify:dlq".
func NewRedisDeadLetter(client goredis.UniversalClient, keyPrefix string) (*RedisDeadLetter, error) {
	if client == nil {
		return nil, ErrDeadLetterNil
	}
	if keyPrefix == "" {
		keyPrefix = "notify:dlq"
	}
	return &RedisDeadLetter{client: client, keyPrefix: keyPrefix}, nil
}

// NewRedisDeadLetterFromConfig connects to Redis using the env-driven
// config and builds a dead-letter store on the connection.
func NewRedisDeadLetterFromConfig(ctx context.Context, cfg redis.Config, keyPrefix string) (*RedisDeadLetter, error) {
	client, err := redis.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("retry: connect dead-letter store: %w", err)
	}
	return NewRedisDeadLetter(client, keyPrefix)
}

func (s *RedisDeadLetter) key(channel notification.Channel) string {
	return fmt.Sprintf("%s:%s", s.keyPrefix, channel)
}

func (s *RedisDeadLetter) Add(ctx context.Context, entry DeadLetterEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("retry: marshal dead-letter entry: %w", err)
	}
	if err := s.client.RPush(ctx, s.key(entry.Unit.Channel), payload).Err(); err != nil {
		return fmt.Errorf("retry: push dead-letter entry: %w", err)
	}
	return nil
}

func (s *RedisDeadLetter) List(ctx context.Context, channel notification.Channel, limit int) ([]DeadLetterEntry, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	raw, err := s.client.LRange(ctx, s.key(channel), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("retry: list dead-letter entries: %w", err)
	}

	entries := make([]DeadLetterEntry, 0, len(raw))
	for _, item := range raw {
		var entry DeadLetterEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("retry: decode dead-letter entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *RedisDeadLetter) Take(ctx context.Context, channel notification.Channel, unitID uuid.UUID) (DeadLetterEntry, error) {
	key := s.key(channel)

	raw, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return DeadLetterEntry{}, fmt.Errorf("retry: scan dead-letter entries: %w", err)
	}

	for _, item := range raw {
		var entry DeadLetterEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return DeadLetterEntry{}, fmt.Errorf("retry: decode dead-letter entry: %w", err)
		}
		if entry.Unit.ID != unitID {
			continue
		}
		if err := s.client.LRem(ctx, key, 1, item).Err(); err != nil {
			return DeadLetterEntry{}, fmt.Errorf("retry: remove dead-letter entry: %w", err)
		}
		return entry, nil
	}
	return DeadLetterEntry{}, ErrEntryNotFound
}
