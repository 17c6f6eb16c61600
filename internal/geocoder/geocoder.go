// 包 geocoder：反向地理编码的查询入口
// 背景：持有按类别加载的只读树，统一处理坐标系转换、距离函数选择与两级结果缓存
// 约束：树加载后不再修改，Query 可被多个 goroutine 并发调用
package geocoder

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"

	"geocoding/internal/container"
	"geocoding/internal/distance"
	"geocoding/internal/kdtree"
	"geocoding/internal/logger"
	"geocoding/internal/metrics"
	"geocoding/internal/rgc"
	"geocoding/internal/source"
	"geocoding/internal/utils"
)

// 缓存键的 geohash 精度：12 位约 3.7cm × 1.9cm
const keyPrecision = 12

var ErrSubsetNotLoaded = errors.New("geocoder: subset not loaded")

// Place：一条查询结果，坐标为 WGS-84 度
type Place struct {
	Lon      float64 `json:"lon"`
	Lat      float64 `json:"lat"`
	Name     string  `json:"name"`
	Distance uint64  `json:"distance"`
}

// Request：查询参数
// Radius 的单位随距离函数而定：earth 为米，orthogonal 为纳度，euclidean 为纳度平方
type Request struct {
	Lon      float64
	Lat      float64
	CoordSys CoordSys
	Subset   source.Kind
	Metric   string
	Radius   uint64
	Limit    int
}

// Options：缓存参数；CacheSize<=0 关闭进程内缓存，Shared 为 nil 关闭共享缓存
type Options struct {
	CacheSize int
	CacheTTL  time.Duration
	Shared    SharedCache
}

// OptionsFromEnv：读取 RGC_CACHE_SIZE / RGC_CACHE_TTL_S
func OptionsFromEnv() Options {
	return Options{
		CacheSize: utils.EnvInt("RGC_CACHE_SIZE", 4096),
		CacheTTL:  time.Duration(utils.EnvInt("RGC_CACHE_TTL_S", 3600)) * time.Second,
	}
}

type Geocoder struct {
	trees  map[source.Kind]*rgc.NamesTree
	lru    *expirable.LRU[string, []Place]
	shared SharedCache
	ttl    time.Duration
}

// New：以已加载的树构建查询器
func New(trees map[source.Kind]*rgc.NamesTree, opts Options) *Geocoder {
	g := &Geocoder{trees: trees, shared: opts.Shared, ttl: opts.CacheTTL}
	if opts.CacheSize > 0 {
		g.lru = expirable.NewLRU[string, []Place](opts.CacheSize, nil, opts.CacheTTL)
	}
	return g
}

// 文档注释：从目录并发加载各类别的树文件（<dir>/<kind>.rgc.zst）
// 约束：任一文件失败则整体失败，尚未开始的加载随之取消
func Open(ctx context.Context, dir string, kinds []source.Kind, opts Options) (*Geocoder, error) {
	var mu sync.Mutex
	trees := make(map[source.Kind]*rgc.NamesTree, len(kinds))
	eg, ctx := errgroup.WithContext(ctx)
	for _, k := range kinds {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := container.Load(filepath.Join(dir, k.String()+container.Ext))
			if err != nil {
				return err
			}
			mu.Lock()
			trees[k] = t
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return New(trees, opts), nil
}

// Tree：某类别的树，未加载时返回 nil
func (g *Geocoder) Tree(kind source.Kind) *rgc.NamesTree { return g.trees[kind] }

func cacheKey(req Request, lon, lat float64) string {
	return req.Subset.String() + "|" + req.Metric + "|" + strconv.FormatUint(req.Radius, 10) + "|" +
		strconv.Itoa(req.Limit) + "|" + geohash(lon, lat, keyPrecision)
}

// 文档注释：按请求查询最近的命名点
// 做法：坐标转 WGS-84 → 进程内缓存 → 共享缓存 → 树搜索，搜索结果回填两级缓存
// 返回：按距离升序的结果；没有点在半径内时返回空切片而非错误。结果可能来自缓存，调用方不得修改
func (g *Geocoder) Query(ctx context.Context, req Request) ([]Place, error) {
	t, ok := g.trees[req.Subset]
	if !ok {
		return nil, fmt.Errorf("%s: %w", req.Subset, ErrSubsetNotLoaded)
	}
	dist, err := distance.ByName(req.Metric)
	if err != nil {
		return nil, err
	}
	if req.Limit <= 0 {
		return []Place{}, nil
	}
	lon, lat := req.CoordSys.ToWGS84(req.Lon, req.Lat)
	key := cacheKey(req, lon, lat)
	if places, ok := g.cached(ctx, key); ok {
		return places, nil
	}

	start := time.Now()
	found := kdtree.Search(t, distance.Nano(lon, lat), req.Radius, req.Limit, dist)
	ms := float64(time.Since(start).Microseconds()) / 1000
	metrics.SearchDurationMs.WithLabelValues(req.Subset.String()).Observe(ms)
	metrics.SearchResults.Observe(float64(len(found)))
	if len(found) == 0 {
		metrics.EmptyResultsTotal.Inc()
	}
	places := make([]Place, len(found))
	for i, n := range found {
		places[i] = Place{
			Lon:      float64(n.Location[0]) * 1e-9,
			Lat:      float64(n.Location[1]) * 1e-9,
			Name:     *n.Value,
			Distance: n.Distance,
		}
	}
	logger.L().Debug("geocoder_query", "subset", req.Subset.String(), "lon", lon, "lat", lat, "results", len(places), "ms", ms)
	g.store(ctx, key, places)
	return places, nil
}

func (g *Geocoder) cached(ctx context.Context, key string) ([]Place, bool) {
	if g.lru != nil {
		if v, ok := g.lru.Get(key); ok {
			metrics.CacheHitsTotal.WithLabelValues("lru").Inc()
			return v, true
		}
		metrics.CacheMissesTotal.WithLabelValues("lru").Inc()
	}
	if g.shared == nil {
		return nil, false
	}
	v, ok, err := g.shared.Get(ctx, key)
	if err != nil {
		logger.L().Warn("geocoder_shared_cache_error", "op", "get", "err", err)
		return nil, false
	}
	if !ok {
		metrics.CacheMissesTotal.WithLabelValues("shared").Inc()
		return nil, false
	}
	metrics.CacheHitsTotal.WithLabelValues("shared").Inc()
	if g.lru != nil {
		g.lru.Add(key, v)
	}
	return v, true
}

func (g *Geocoder) store(ctx context.Context, key string, places []Place) {
	if g.lru != nil {
		g.lru.Add(key, places)
	}
	if g.shared != nil {
		if err := g.shared.Set(ctx, key, places, g.ttl); err != nil {
			logger.L().Warn("geocoder_shared_cache_error", "op", "set", "err", err)
		}
	}
}
