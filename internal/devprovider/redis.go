package devprovider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const codePrefix = "authcode:"

// RedisStore implements Store using Redis, so several provider instances can
// share issued codes
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis-backed store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// CheckHealth verifies Redis connectivity
func (s *RedisStore) CheckHealth(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// SaveCode stores grant under code until it expires
func (s *RedisStore) SaveCode(ctx context.Context, code string, grant *Grant) error {
	ttl := time.Until(grant.ExpiresAt)
	if ttl <= 0 {
		return errors.New("code has already expired")
	}

	data, err := json.Marshal(grant)
	if err != nil {
		return fmt.Errorf("marshaling grant: %w", err)
	}

	if err := s.client.Set(ctx, codePrefix+code, data, ttl).Err(); err != nil {
		return fmt.Errorf("saving authorization code: %w", err)
	}
	return nil
}

// TakeCode atomically reads and deletes the grant for code
func (s *RedisStore) TakeCode(ctx context.Context, code string) (*Grant, error) {
	data, err := s.client.GetDel(ctx, codePrefix+code).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCodeNotFound
		}
		return nil, fmt.Errorf("taking authorization code: %w", err)
	}

	var grant Grant
	if err := json.Unmarshal(data, &grant); err != nil {
		return nil, fmt.Errorf("unmarshaling grant: %w", err)
	}
	return &grant, nil
}
