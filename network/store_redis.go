package network

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/vitwit/kycsbt/types"
	"github.com/vitwit/kycsbt/utils"
)

// RedisStore keeps the selection as one JSON value in Redis.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore stores under "<prefix>:network-storage", or just the
// namespace when prefix is empty.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	key := types.StorageNamespace
	if prefix != "" {
		key = prefix + ":" + key
	}
	return &RedisStore{client: client, key: key}
}

// DialRedis parses url and pings the server.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func (r *RedisStore) Key() string {
	return r.key
}

func (r *RedisStore) Load(ctx context.Context) (types.NetworkConfig, bool, error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return types.NetworkConfig{}, false, nil
	}
	if err != nil {
		return types.NetworkConfig{}, false, err
	}

	cfg, err := utils.ParseNetworkConfig(raw)
	if err != nil {
		return types.NetworkConfig{}, false, fmt.Errorf("decode %s: %w", r.key, err)
	}
	return *cfg, true, nil
}

func (r *RedisStore) Save(ctx context.Context, cfg types.NetworkConfig) error {
	raw, err := utils.SerializeNetworkConfig(cfg)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key, raw, 0).Err()
}
