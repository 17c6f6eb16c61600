package migrate

import (
	"context"
	"database/sql"

	"geocoding/internal/logger"
)

// Statements：建表语句，按顺序执行
// 约束：全部使用 IF NOT EXISTS，可重复执行；坐标以纳度整数存储，与树文件一致
var Statements = []string{
	`CREATE TABLE IF NOT EXISTS _geo_named_points (
		id BIGSERIAL PRIMARY KEY,
		lon_e9 BIGINT NOT NULL,
		lat_e9 BIGINT NOT NULL,
		name TEXT,
		name_en TEXT,
		place TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_geo_named_points_place ON _geo_named_points(place)`,
}

// execer：*sql.DB 与 *sql.Tx 共有的执行方法
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// 背景：首次导入前自动创建点表，便于直接用 psql \copy 灌入数据
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	return ensure(ctx, db)
}

func ensure(ctx context.Context, db execer) error {
	for i, s := range Statements {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
