package redisinfra

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect opens a Redis client and verifies it with PING.
func Connect(addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	slog.Info("connected to redis", "addr", addr)
	return rdb, nil
}

// Cache is a namespaced key/value and set cache over Redis.
type Cache struct {
	rdb    redis.Cmdable
	prefix string
}

func NewCache(rdb redis.Cmdable, prefix string) *Cache {
	return &Cache{rdb: rdb, prefix: prefix}
}

func (c *Cache) key(k string) string { return c.prefix + ":" + k }

// Get returns the cached value and whether it was present.
func (c *Cache) Get(ctx context.Context, k string) (string, bool, error) {
	v, err := c.rdb.Get(ctx, c.key(k)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (c *Cache) Set(ctx context.Context, k, v string, ttl time.Duration) error {
	return c.rdb.Set(ctx, c.key(k), v, ttl).Err()
}

func (c *Cache) Delete(ctx context.Context, k string) error {
	return c.rdb.Del(ctx, c.key(k)).Err()
}

func (c *Cache) SetAdd(ctx context.Context, k, member string) error {
	return c.rdb.SAdd(ctx, c.key(k), member).Err()
}

func (c *Cache) SetRemove(ctx context.Context, k, member string) error {
	return c.rdb.SRem(ctx, c.key(k), member).Err()
}

// SetReplace overwrites the set stored at k with members and applies ttl.
func (c *Cache) SetReplace(ctx context.Context, k string, members []string, ttl time.Duration) error {
	full := c.key(k)
	_, err := c.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, full)
		if len(members) > 0 {
			args := make([]interface{}, len(members))
			for i, m := range members {
				args[i] = m
			}
			p.SAdd(ctx, full, args...)
			p.Expire(ctx, full, ttl)
		}
		return nil
	})
	return err
}

// SetMembers returns the members and whether the set exists at all.
func (c *Cache) SetMembers(ctx context.Context, k string) ([]string, bool, error) {
	full := c.key(k)
	n, err := c.rdb.Exists(ctx, full).Result()
	if err != nil {
		return nil, false, err
	}
	if n == 0 {
		return nil, false, nil
	}
	members, err := c.rdb.SMembers(ctx, full).Result()
	if err != nil {
		return nil, false, err
	}
	return members, true, nil
}
