package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisCache keeps entries as plain string values, optionally under a namespace.
type RedisCache struct {
	client    *redis.Client
	namespace string
}

var _ ListCache = (*RedisCache)(nil)

// NewRedisCache accepts either a redis:// URL or a bare host[:port].
func NewRedisCache(addr, namespace string) (*RedisCache, error) {
	if addr == "" {
		return nil, errors.New("redis address is required")
	}
	opts, err := redis.ParseURL(addr)
	if err != nil {
		if !strings.Contains(addr, ":") {
			addr = addr + ":6379"
		}
		opts = &redis.Options{
			Addr:         addr,
			MinIdleConns: 1,
			MaxRetries:   3,
			DialTimeout:  10 * time.Second,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
			PoolSize:     10,
		}
	}
	return newRedisCache(redis.NewClient(opts), namespace), nil
}

func newRedisCache(client *redis.Client, namespace string) *RedisCache {
	if namespace != "" && !strings.HasSuffix(namespace, ":") {
		namespace += ":"
	}
	return &RedisCache{client: client, namespace: namespace}
}

func (rc *RedisCache) key(k string) string {
	return rc.namespace + k
}

func (rc *RedisCache) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	value, err := rc.client.Get(ctx, rc.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return io.NopCloser(strings.NewReader(value)), nil
}

func (rc *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := rc.client.Exists(ctx, rc.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", key, err)
	}
	return n > 0, nil
}

func (rc *RedisCache) Put(ctx context.Context, key, value string, opts PutOptions) error {
	if opts.Condition == PutIfNoneMatch {
		ok, err := rc.client.SetNX(ctx, rc.key(key), value, 0).Result()
		if err != nil {
			return fmt.Errorf("redis setnx %s: %w", key, err)
		}
		if !ok {
			return ErrAlreadyExists
		}
		return nil
	}
	if err := rc.client.Set(ctx, rc.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (rc *RedisCache) List(ctx context.Context, prefix string, _ string) ([]string, error) {
	full := rc.key(prefix)
	var keys []string
	iter := rc.client.Scan(ctx, 0, full+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), full))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan %s: %w", prefix, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Ready pings the server so /ready fails while redis is unreachable.
func (rc *RedisCache) Ready(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

func (rc *RedisCache) Close() error {
	return rc.client.Close()
}
