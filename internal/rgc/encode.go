package rgc

import (
	"fmt"
	"io"
	"math"
	"slices"
	"strings"
	"time"

	"geocoding/internal/codec"
	"geocoding/internal/logger"
	"geocoding/internal/metrics"
)

// 文档注释：把树写入 w
// 做法：按节点顺序收集坐标、子节点引用与分词结果，建立排序去重的字典后按固定顺序写出
// 约束：w 的写入错误原样包装返回；已写出的部分不回滚；名称超过 MaxNameBytes 时不写任何字节
func Encode(w io.Writer, t *NamesTree) error {
	start := time.Now()
	nodes := t.Nodes()
	n := len(nodes)
	lons := make([]int64, n)
	lats := make([]int64, n)
	lesser := make([]uint32, n)
	greater := make([]uint32, n)
	wordCounts := make([]uint32, n)
	split := make([][]string, n)
	var dict []string
	total := 0
	for i := range nodes {
		nd := &nodes[i]
		lons[i] = nd.Location[0]
		lats[i] = nd.Location[1]
		lesser[i] = nd.Lesser
		greater[i] = nd.Greater
		if len(nd.Value) > MaxNameBytes {
			return fmt.Errorf("node %d name of %d bytes: %w", i+1, len(nd.Value), ErrNameTooLong)
		}
		words := strings.Split(nd.Value, " ")
		split[i] = words
		wordCounts[i] = uint32(len(words))
		total += len(words)
		dict = append(dict, words...)
	}
	if uint64(total) > math.MaxUint32 {
		return fmt.Errorf("%d word references: %w", total, ErrTooManyWords)
	}
	slices.Sort(dict)
	dict = slices.Compact(dict)
	index := make(map[string]uint32, len(dict))
	lengths := make([]uint32, len(dict))
	size := 0
	for i, word := range dict {
		index[word] = uint32(i)
		lengths[i] = uint32(len(word))
		size += len(word)
	}
	wordBytes := make([]byte, 0, size)
	for _, word := range dict {
		wordBytes = append(wordBytes, word...)
	}
	refs := make([]uint32, 0, total)
	for _, words := range split {
		for _, word := range words {
			refs = append(refs, index[word])
		}
	}

	cw := codec.NewWriter(w)
	steps := []struct {
		field string
		write func() error
	}{
		{"count", func() error { return cw.WriteU32(uint32(n)) }},
		{"longitudes", func() error { return cw.WriteSignMagnitude(lons) }},
		{"latitudes", func() error { return cw.WriteSignMagnitude(lats) }},
		{"lesser", func() error { return cw.WriteMagnitudeMonotonic(lesser) }},
		{"greater", func() error { return cw.WriteMagnitudeMonotonic(greater) }},
		{"word counts", func() error { return cw.WriteMagnitude(wordCounts) }},
		{"dictionary size", func() error { return cw.WriteU32(uint32(len(dict))) }},
		{"word lengths", func() error { return cw.WriteMagnitude(lengths) }},
		{"word bytes", func() error { return cw.WriteBytes(wordBytes) }},
		{"reference count", func() error { return cw.WriteU32(uint32(len(refs))) }},
		{"word refs", func() error { return cw.WriteMagnitude(refs) }},
	}
	for _, s := range steps {
		if err := s.write(); err != nil {
			return fmt.Errorf("write %s: %w", s.field, err)
		}
	}
	ms := float64(time.Since(start).Microseconds()) / 1000
	metrics.EncodeDurationMs.Observe(ms)
	logger.L().Debug("rgc_encode_done", "nodes", n, "words", len(dict), "refs", len(refs), "ms", ms)
	return nil
}
