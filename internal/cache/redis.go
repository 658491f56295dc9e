package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spigell/roomeo/internal/matching"
)

const DefaultTTL = 15 * time.Minute

type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis wraps an existing client. A non-positive ttl falls back to DefaultTTL.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{client: client, ttl: ttl}
}

// Dial connects to addr and checks the connection with PING.
func Dial(ctx context.Context, addr, password string, db int, ttl time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}

	return NewRedis(client, ttl), nil
}

func (r *Redis) Get(ctx context.Context, key string) (matching.Result, bool, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return matching.Result{}, false, nil
	}
	if err != nil {
		return matching.Result{}, false, err
	}

	var result matching.Result
	if err := json.Unmarshal(val, &result); err != nil {
		return matching.Result{}, false, fmt.Errorf("decode cached result: %w", err)
	}
	return result, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, result matching.Result) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, data, r.ttl).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
