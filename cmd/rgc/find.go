package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"geocoding/internal/container"
	"geocoding/internal/geocoder"
	"geocoding/internal/ipgeo"
	"geocoding/internal/logger"
	"geocoding/internal/rgc"
	"geocoding/internal/source"
	"geocoding/internal/utils"
)

type findOptions struct {
	file     string
	subset   string
	radius   string
	limit    int
	metric   string
	coordSys string
	ip       string
	geoip    string
}

func newFindCmd(root *rootOptions) *cobra.Command {
	opts := &findOptions{}
	cmd := &cobra.Command{
		Use:   "find [--] <longitude> <latitude>",
		Short: "Find the nearest named points",
		Long: `Find the nearest named points to a location, nearest first.

The location is given in degrees, or resolved from --ip with a GeoIP2 City
database. Put "--" before negative coordinates:

  rgc find --subset settlements -- -77.0366 38.8976
  rgc find --radius "50 km" --limit 3 --ip 81.2.69.142`,
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.ip != "" {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(cmd.Context(), cmd.OutOrStdout(), root.dataDir, args, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "tree file; defaults to <data-dir>/<subset>.rgc.zst")
	cmd.Flags().StringVarP(&opts.subset, "subset", "s", source.KindSettlement.String(), "countries, settlements or other")
	cmd.Flags().StringVarP(&opts.radius, "radius", "r", "10 km", "search radius, in metres for the earth metric")
	cmd.Flags().IntVarP(&opts.limit, "limit", "l", 10, "maximum number of points")
	cmd.Flags().StringVar(&opts.metric, "metric", "earth", "earth, orthogonal or euclidean")
	cmd.Flags().StringVar(&opts.coordSys, "coord-sys", "wgs84", "coordinate system of the query: wgs84, gcj02 or bd09")
	cmd.Flags().StringVar(&opts.ip, "ip", "", "locate this IP address instead of taking coordinates")
	cmd.Flags().StringVar(&opts.geoip, "geoip", utils.EnvString("GEOIP_PATH", "data/GeoLite2-City.mmdb"), "GeoIP2 City database for --ip")
	return cmd
}

// 文档注释：解析半径，如 "10 km"、"500m"、"1.5km"、"1G"
// 约束：单位只能是米（可省略）；结果四舍五入为整数，负数报错
func parseRadius(s string) (uint64, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(s), "m")
	v, unit, err := humanize.ParseSI(strings.TrimSpace(trimmed))
	if err != nil {
		return 0, fmt.Errorf("radius %q: %w", s, err)
	}
	if unit != "" {
		return 0, fmt.Errorf("radius %q: unknown unit %q", s, unit)
	}
	if v < 0 || math.IsNaN(v) || v >= math.MaxUint64 {
		return 0, fmt.Errorf("radius %q out of range", s)
	}
	return uint64(math.Round(v)), nil
}

func queryLocation(args []string, opts *findOptions) (float64, float64, error) {
	if opts.ip != "" {
		loc, err := ipgeo.Open(opts.geoip)
		if err != nil {
			return 0, 0, err
		}
		defer loc.Close()
		l, err := loc.Locate(opts.ip)
		if err != nil {
			return 0, 0, err
		}
		return l.Lon, l.Lat, nil
	}
	lon, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("longitude: %w", err)
	}
	lat, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("latitude: %w", err)
	}
	return lon, lat, nil
}

func runFind(ctx context.Context, out io.Writer, dir string, args []string, opts *findOptions) error {
	kind, ok := source.ParseKind(opts.subset)
	if !ok {
		return fmt.Errorf("unknown subset %q", opts.subset)
	}
	radius, err := parseRadius(opts.radius)
	if err != nil {
		return err
	}
	coordSys, err := geocoder.ParseCoordSys(opts.coordSys)
	if err != nil {
		return err
	}
	lon, lat, err := queryLocation(args, opts)
	if err != nil {
		return err
	}
	file := opts.file
	if file == "" {
		file = filepath.Join(dir, kind.String()+container.Ext)
	}
	start := time.Now()
	tree, err := container.Load(file)
	if err != nil {
		return err
	}
	gopts := geocoder.OptionsFromEnv()
	if client := utils.OpenRedisFromEnv(); client != nil {
		defer client.Close()
		gopts.Shared = geocoder.NewRedisCache(client, "rgc:")
	}
	g := geocoder.New(map[source.Kind]*rgc.NamesTree{kind: tree}, gopts)
	logger.L().Info("find_open_done", "file", file, "ms", time.Since(start).Milliseconds())

	places, err := g.Query(ctx, geocoder.Request{
		Lon:      lon,
		Lat:      lat,
		CoordSys: coordSys,
		Subset:   kind,
		Metric:   opts.metric,
		Radius:   radius,
		Limit:    opts.limit,
	})
	if err != nil {
		return err
	}
	for _, p := range places {
		fmt.Fprintf(out, "%.9f %.9f %s\n", p.Lon, p.Lat, p.Name)
	}
	return nil
}
