package syncer

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"quipcup/store"
)

// RedisSource follows the channel RedisRemote publishes every write on.
// Pub/sub keeps no history, so each open also reads the stored document.
type RedisSource struct {
	remote  *store.RedisRemote
	client  *redis.Client
	channel string
}

func NewRedisSource(remote *store.RedisRemote) *RedisSource {
	return &RedisSource{remote: remote, client: remote.Client(), channel: remote.Channel()}
}

func (s *RedisSource) Name() string { return "redis" }

func (s *RedisSource) Latest(ctx context.Context) ([]byte, error) {
	return s.remote.Read(ctx)
}

func (s *RedisSource) Open(ctx context.Context) (Stream, error) {
	ps := s.client.Subscribe(ctx, s.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", s.channel, err)
	}
	return &redisStream{ps: ps}, nil
}

type redisStream struct {
	ps *redis.PubSub
}

func (r *redisStream) Recv(ctx context.Context) ([]byte, error) {
	msg, err := r.ps.ReceiveMessage(ctx)
	if err != nil {
		return nil, err
	}
	return store.Unwrap([]byte(msg.Payload)), nil
}

func (r *redisStream) Ping(ctx context.Context) error {
	return r.ps.Ping(ctx)
}

func (r *redisStream) Close() error {
	return r.ps.Close()
}
