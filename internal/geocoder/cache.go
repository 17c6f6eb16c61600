package geocoder

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// SharedCache：跨进程的查询结果缓存
// 约束：实现需可并发调用；未命中返回 (nil, false, nil)，错误只影响缓存不影响查询
type SharedCache interface {
	Get(ctx context.Context, key string) ([]Place, bool, error)
	Set(ctx context.Context, key string, places []Place, ttl time.Duration) error
}

// RedisCache：以 JSON 保存结果的 Redis 缓存
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache：键统一加前缀，避免与同库其它数据冲突
func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]Place, bool, error) {
	b, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var places []Place
	if err := json.Unmarshal(b, &places); err != nil {
		return nil, false, err
	}
	return places, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, places []Place, ttl time.Duration) error {
	b, err := json.Marshal(places)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, b, ttl).Err()
}
