package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisRedirectStore keeps redirect state in Redis so the process that
// receives the callback does not have to be the one that started the redirect
type RedisRedirectStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, redisURL, password string, db int) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	if password != "" {
		opts.Password = password
	}
	if db >= 0 {
		opts.DB = db
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// NewRedisRedirectStore creates a store under the given key prefix
func NewRedisRedirectStore(client *redis.Client, prefix string, ttl time.Duration) *RedisRedirectStore {
	return &RedisRedirectStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Client returns the underlying redis client
func (s *RedisRedirectStore) Client() *redis.Client {
	return s.client
}

func (s *RedisRedirectStore) pendingKey(state string) string {
	return s.prefix + "pending:" + state
}

func (s *RedisRedirectStore) resultKey() string {
	return s.prefix + "result"
}

func (s *RedisRedirectStore) SavePending(ctx context.Context, pending PendingRedirect) error {
	data, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("failed to marshal pending redirect: %w", err)
	}
	if err := s.client.Set(ctx, s.pendingKey(pending.State), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *RedisRedirectStore) Complete(ctx context.Context, params CallbackParams) error {
	data, err := s.client.GetDel(ctx, s.pendingKey(params.State)).Bytes()
	if err == redis.Nil {
		return ErrUnknownState
	} else if err != nil {
		return fmt.Errorf("redis getdel failed: %w", err)
	}

	var pending PendingRedirect
	if err := json.Unmarshal(data, &pending); err != nil {
		return fmt.Errorf("failed to unmarshal pending redirect: %w", err)
	}

	result, err := json.Marshal(completedFrom(pending, params))
	if err != nil {
		return fmt.Errorf("failed to marshal redirect result: %w", err)
	}
	if err := s.client.Set(ctx, s.resultKey(), result, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *RedisRedirectStore) Take(ctx context.Context) (*CompletedRedirect, error) {
	data, err := s.client.GetDel(ctx, s.resultKey()).Bytes()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("redis getdel failed: %w", err)
	}

	var result CompletedRedirect
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal redirect result: %w", err)
	}
	return &result, nil
}

func (s *RedisRedirectStore) Clear(ctx context.Context) error {
	keys := []string{s.resultKey()}

	iter := s.client.Scan(ctx, 0, s.prefix+"pending:*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan failed: %w", err)
	}

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del failed: %w", err)
	}
	return nil
}
