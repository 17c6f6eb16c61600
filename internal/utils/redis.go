// 包 utils：Postgres / Redis 连接与环境变量读取
package utils

import (
	"os"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"geocoding/internal/logger"
)

// RedisEnabled：REDIS_ENABLE 为 1/true/yes 时启用共享缓存
func RedisEnabled() bool {
	switch strings.ToLower(os.Getenv("REDIS_ENABLE")) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// OpenRedisFromEnv：从环境变量打开 Redis 客户端，支持 REDIS_DB 选择
// 约束：REDIS_DB 解析失败或为负时回退到 0；未启用时返回 nil
func OpenRedisFromEnv() *redis.Client {
	if !RedisEnabled() {
		return nil
	}
	addr := envOr("REDIS_HOST", "127.0.0.1") + ":" + envOr("REDIS_PORT", "6379")
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			db = n
		}
	}
	logger.L().Debug("redis_env", "addr", addr, "db", db)
	return redis.NewClient(&redis.Options{Addr: addr, Password: os.Getenv("REDIS_PASS"), DB: db})
}
