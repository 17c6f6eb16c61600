package utils

import (
	"context"
	"database/sql"
	"os"
	"strconv"
	"time"

	_ "github.com/lib/pq"

	"geocoding/internal/logger"
)

// BuildPostgresDSNFromEnv：由 PG_* 环境变量拼出连接串，未设置的项取默认值
func BuildPostgresDSNFromEnv() string {
	host := envOr("PG_HOST", "localhost")
	port := envOr("PG_PORT", "5432")
	user := envOr("PG_USER", "postgres")
	pass := os.Getenv("PG_PASSWORD")
	db := envOr("PG_DB", "geocoding")
	ssl := envOr("PG_SSLMODE", "disable")
	dsn := "postgres://" + user
	if pass != "" {
		dsn += ":" + pass
	}
	dsn += "@" + host + ":" + port + "/" + db + "?sslmode=" + ssl
	return dsn
}

// 文档注释：按环境变量打开并探活 Postgres
// 约束：PG_MAX_OPEN_CONNS / PG_MAX_IDLE_CONNS 解析失败时使用默认值；探活超时 5 秒
func OpenPostgresFromEnv(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open("postgres", BuildPostgresDSNFromEnv())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(EnvInt("PG_MAX_OPEN_CONNS", 10))
	db.SetMaxIdleConns(EnvInt("PG_MAX_IDLE_CONNS", 5))
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}
	logger.L().Debug("postgres_open", "host", envOr("PG_HOST", "localhost"), "db", envOr("PG_DB", "geocoding"))
	return db, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// EnvInt：读取整数环境变量，未设置或解析失败时返回 def
func EnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// EnvString：读取字符串环境变量，未设置时返回 def
func EnvString(key, def string) string { return envOr(key, def) }
