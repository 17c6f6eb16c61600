package source

import (
	"context"
	"database/sql"
	"fmt"

	"geocoding/internal/logger"
)

const selectNamedPoints = `SELECT lon_e9, lat_e9, name, name_en, place FROM _geo_named_points ORDER BY id`

// rowScanner：*sql.Rows 中用到的部分
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// 文档注释：从 _geo_named_points 表读取全部点
// 约束：坐标列为纳度整数；name / name_en / place 允许为 NULL，按缺失标签处理
func LoadPostgres(ctx context.Context, db *sql.DB) (*Subsets, error) {
	rows, err := db.QueryContext(ctx, selectNamedPoints)
	if err != nil {
		return nil, fmt.Errorf("query _geo_named_points: %w", err)
	}
	defer rows.Close()
	s, err := scanNamedPoints(rows)
	if err != nil {
		return nil, err
	}
	logger.L().Info("source_postgres_done", "points", s.Len())
	return s, nil
}

func scanNamedPoints(rows rowScanner) (*Subsets, error) {
	s := &Subsets{}
	for rows.Next() {
		var lon, lat int64
		var name, nameEn, place sql.NullString
		if err := rows.Scan(&lon, &lat, &name, &nameEn, &place); err != nil {
			return nil, fmt.Errorf("scan _geo_named_points: %w", err)
		}
		tags := make(map[string]string, 3)
		if name.Valid {
			tags["name"] = name.String
		}
		if nameEn.Valid {
			tags["name:en"] = nameEn.String
		}
		if place.Valid {
			tags["place"] = place.String
		}
		s.AddTagged([2]int64{lon, lat}, tags)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read _geo_named_points: %w", err)
	}
	return s, nil
}
