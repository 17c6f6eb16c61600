package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"geocoding/internal/container"
	"geocoding/internal/kdtree"
	"geocoding/internal/logger"
	"geocoding/internal/metrics"
	"geocoding/internal/migrate"
	"geocoding/internal/source"
	"geocoding/internal/utils"
)

type convertOptions struct {
	format string
	level  int
}

func newConvertCmd(root *rootOptions) *cobra.Command {
	opts := &convertOptions{}
	cmd := &cobra.Command{
		Use:   "convert [file]",
		Short: "Convert named points into countries, settlements and other tree files",
		Long: `Convert named points into three compressed tree files in --data-dir:
countries.rgc.zst, settlements.rgc.zst and other.rgc.zst.

Input formats:
  json      array of {"lon", "lat", "tags": {"name", "name:en", "place"}}
  geonames  tab separated geonames export, optionally .zst compressed
  postgres  the _geo_named_points table (PG_* environment variables)`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var file string
			if len(args) == 1 {
				file = args[0]
			}
			return runConvert(cmd.Context(), root.dataDir, file, opts)
		},
	}
	cmd.Flags().StringVar(&opts.format, "format", "auto", "input format: auto, json, geonames or postgres")
	cmd.Flags().IntVar(&opts.level, "compression-level", utils.EnvInt("RGC_COMPRESSION_LEVEL", container.DefaultLevel), "zstd compression level")
	return cmd
}

func detectFormat(format, file string) (string, error) {
	if format != "auto" {
		return format, nil
	}
	switch {
	case file == "":
		return "", fmt.Errorf("input file required unless --format postgres")
	case strings.HasSuffix(file, ".json"):
		return "json", nil
	default:
		return "geonames", nil
	}
}

func loadSubsets(ctx context.Context, format, file string) (*source.Subsets, error) {
	switch format {
	case "json":
		return source.LoadJSON(file)
	case "geonames":
		return source.LoadGeonames(file)
	case "postgres":
		db, err := utils.OpenPostgresFromEnv(ctx)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()
		if err := migrate.EnsureSchema(ctx, db); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		return source.LoadPostgres(ctx, db)
	}
	return nil, fmt.Errorf("unknown format %q", format)
}

// 文档注释：导入、排序后并发构建并写出三个子集
// 约束：每个子集独立构建与落盘；任一失败则取消尚未落盘的子集并返回该错误，已写出的文件保留
func runConvert(ctx context.Context, dir, file string, opts *convertOptions) error {
	format, err := detectFormat(opts.format, file)
	if err != nil {
		return err
	}
	start := time.Now()
	subsets, err := loadSubsets(ctx, format, file)
	if err != nil {
		return err
	}
	subsets.Sort()
	logger.L().Info("convert_import_done", "format", format, "points", subsets.Len(), "ms", time.Since(start).Milliseconds())

	eg, ctx := errgroup.WithContext(ctx)
	for _, kind := range source.Kinds {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			points := subsets.Points(kind)
			n := len(points)
			t0 := time.Now()
			tree, err := kdtree.Build(points)
			if err != nil {
				return fmt.Errorf("build %s: %w", kind, err)
			}
			metrics.BuildDurationMs.WithLabelValues(kind.String()).Observe(float64(time.Since(t0).Milliseconds()))
			metrics.BuildPointsTotal.WithLabelValues(kind.String()).Add(float64(n))
			logger.L().Info("kdtree_build_done", "subset", kind.String(), "points", n, "ms", time.Since(t0).Milliseconds())
			if err := ctx.Err(); err != nil {
				return err
			}
			return container.Save(filepath.Join(dir, kind.String()+container.Ext), tree, opts.level)
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	logger.L().Info("convert_done", "dir", dir, "ms", time.Since(start).Milliseconds())
	return nil
}
