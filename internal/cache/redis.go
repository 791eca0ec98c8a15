package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/social-graph/internal/config"
)

// CountTTL is how long a cached unread counter lives without being read.
const CountTTL = time.Hour

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	if c == nil {
		return nil
	}
	return c.Client.Close()
}

// KeyForUnreadNotifications is the counter key for a recipient's unread notifications.
func KeyForUnreadNotifications(accountID uint64) string {
	return fmt.Sprintf("notifications:unread:%d", accountID)
}

// KeyForUnreadMessages is the counter key for a receiver's unread messages.
func KeyForUnreadMessages(accountID uint64) string {
	return fmt.Sprintf("messages:unread:%d", accountID)
}

// GetCount reads a cached counter.
//
// Behavior:
//   - hit → (n, true, nil) and the TTL is refreshed since the account is active.
//   - miss or a nil cache → (0, false, nil).
//   - an unparsable value is treated as a miss.
func (c *RedisCache) GetCount(ctx context.Context, key string) (int64, bool, error) {
	if c == nil {
		return 0, false, nil
	}
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	_ = c.Client.Expire(ctx, key, CountTTL).Err()
	return n, true, nil
}

// SetCount stores a counter with a fresh TTL.
func (c *RedisCache) SetCount(ctx context.Context, key string, n int64) error {
	if c == nil {
		return nil
	}
	return c.Client.Set(ctx, key, n, CountTTL).Err()
}

// Version returns the invalidation generation of a counter key. Read it
// before counting in the DB and hand it to SetCountIfVersion.
// A key that was never invalidated is at version 0.
func (c *RedisCache) Version(ctx context.Context, key string) (int64, error) {
	if c == nil {
		return 0, nil
	}
	v, err := c.Client.Get(ctx, versionKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// SetCountIfVersion stores n only if key has not been invalidated since
// version was read. Reports whether the value was written.
//
// A reader that counted before a writer's commit would otherwise cache the
// old count for a full TTL after the writer's Invalidate.
func (c *RedisCache) SetCountIfVersion(ctx context.Context, key string, n, version int64) (bool, error) {
	if c == nil {
		return false, nil
	}
	vk := versionKey(key)

	written := false
	err := c.Client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, vk).Int64()
		if errors.Is(err, redis.Nil) {
			current = 0
		} else if err != nil {
			return err
		}
		if current != version {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, n, CountTTL)
			return nil
		})
		if err == nil {
			written = true
		}
		return err
	}, vk)
	if errors.Is(err, redis.TxFailedErr) {
		// version moved between the check and the write
		return false, nil
	}
	return written, err
}

// Invalidate drops cached counters and bumps their versions, so fills
// computed before this call are discarded. The next read recounts from the DB.
func (c *RedisCache) Invalidate(ctx context.Context, keys ...string) error {
	if c == nil || len(keys) == 0 {
		return nil
	}
	_, err := c.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range keys {
			pipe.Incr(ctx, versionKey(k))
			pipe.Expire(ctx, versionKey(k), CountTTL)
		}
		pipe.Del(ctx, keys...)
		return nil
	})
	return err
}

func versionKey(key string) string {
	return key + ":version"
}
