package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"quipcup/models"
)

// RedisRemote stores the document under one key and publishes every write
// on a channel, which doubles as the change feed.
type RedisRemote struct {
	client  *redis.Client
	key     string
	channel string
}

func NewRedisRemote(client *redis.Client) *RedisRemote {
	return &RedisRemote{
		client:  client,
		key:     models.StorageKey,
		channel: UpdatesChannel(models.StorageKey),
	}
}

func UpdatesChannel(key string) string {
	return key + ":updates"
}

func (r *RedisRemote) Channel() string {
	return r.channel
}

func (r *RedisRemote) Client() *redis.Client {
	return r.client
}

func (r *RedisRemote) Read(ctx context.Context) ([]byte, error) {
	val, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", r.key, err)
	}
	return Unwrap(val), nil
}

func (r *RedisRemote) Write(ctx context.Context, raw []byte) error {
	payload, err := Wrap(raw)
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key, payload, 0)
		pipe.Publish(ctx, r.channel, payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis write %s: %w", r.key, err)
	}
	return nil
}
