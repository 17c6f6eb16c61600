package metrics

import (
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

var (
	BuildDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rgc_build_duration_ms",
		Help:    "Tree construction duration in milliseconds",
		Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000, 20000, 60000},
	}, []string{"subset"})
	BuildPointsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rgc_build_points_total",
		Help: "Total points indexed by tree construction",
	}, []string{"subset"})
	SearchDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rgc_search_duration_ms",
		Help:    "Nearest neighbour search duration in milliseconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50, 100},
	}, []string{"subset"})
	SearchResults = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "rgc_search_results",
		Help:    "Number of neighbours returned per search",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
	})
	EmptyResultsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rgc_empty_results_total",
		Help: "Total number of searches with no neighbour in range",
	})
	EncodeDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "rgc_encode_duration_ms",
		Help:    "Tree encoding duration in milliseconds",
		Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000, 20000},
	})
	DecodeDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "rgc_decode_duration_ms",
		Help:    "Tree decoding duration in milliseconds",
		Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000, 20000},
	})
	DecodeFailTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rgc_decode_fail_total",
		Help: "Tree decoding failures by reason",
	}, []string{"reason"})
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rgc_cache_hits_total",
		Help: "Total query cache hits",
	}, []string{"layer"})
	CacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rgc_cache_misses_total",
		Help: "Total query cache misses",
	}, []string{"layer"})
)

func init() {
	prometheus.MustRegister(BuildDurationMs)
	prometheus.MustRegister(BuildPointsTotal)
	prometheus.MustRegister(SearchDurationMs)
	prometheus.MustRegister(SearchResults)
	prometheus.MustRegister(EmptyResultsTotal)
	prometheus.MustRegister(EncodeDurationMs)
	prometheus.MustRegister(DecodeDurationMs)
	prometheus.MustRegister(DecodeFailTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
}

// 文档注释：把默认注册表中的指标逐条写入日志
// 背景：命令行工具没有 /metrics 监听端口，进程退出前以日志形式输出一次快照
// 约束：只输出本包前缀（rgc_）的指标，Go 运行时等默认采集器忽略
func Dump(l *slog.Logger) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		name := mf.GetName()
		if !strings.HasPrefix(name, "rgc_") {
			continue
		}
		for _, m := range mf.GetMetric() {
			attrs := []any{"name", name}
			for _, lp := range m.GetLabel() {
				attrs = append(attrs, lp.GetName(), lp.GetValue())
			}
			attrs = append(attrs, sampleAttrs(mf.GetType(), m)...)
			l.Info("metric", attrs...)
		}
	}
	return nil
}

func sampleAttrs(t dto.MetricType, m *dto.Metric) []any {
	switch t {
	case dto.MetricType_COUNTER:
		return []any{"value", m.GetCounter().GetValue()}
	case dto.MetricType_GAUGE:
		return []any{"value", m.GetGauge().GetValue()}
	case dto.MetricType_HISTOGRAM:
		h := m.GetHistogram()
		return []any{"count", h.GetSampleCount(), "sum", h.GetSampleSum()}
	default:
		return nil
	}
}
