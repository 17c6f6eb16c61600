package rgc

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"geocoding/internal/codec"
	"geocoding/internal/kdtree"
	"geocoding/internal/logger"
	"geocoding/internal/metrics"
)

// 每次最多读入的词字节数，声明的长度再大也不会一次性分配
const wordChunk = 64 << 10

// 文档注释：从 r 读出 Encode 写入的树
// 约束：子节点引用经过结构校验后才交给调用方，损坏的数据不会导致越界或死循环
// 返回：截断返回 io.ErrUnexpectedEOF；宽度/符号错误返回 codec 的哨兵错误；
// 词表与引用错误返回 ErrInvalidUTF8 / ErrInvalidDictionary / ErrInvalidWordRef / ErrNameTooLong；
// 结构错误返回 ErrInvalidTree
func Decode(r io.Reader) (*NamesTree, error) {
	start := time.Now()
	t, err := decode(codec.NewReader(r))
	if err != nil {
		reason := failReason(err)
		metrics.DecodeFailTotal.WithLabelValues(reason).Inc()
		logger.L().Warn("rgc_decode_error", "reason", reason, "err", err)
		return nil, err
	}
	ms := float64(time.Since(start).Microseconds()) / 1000
	metrics.DecodeDurationMs.Observe(ms)
	logger.L().Debug("rgc_decode_done", "nodes", t.Len(), "ms", ms)
	return t, nil
}

func failReason(err error) string {
	switch {
	case errors.Is(err, io.ErrUnexpectedEOF):
		return "truncated"
	case errors.Is(err, codec.ErrInvalidWidth):
		return "width"
	case errors.Is(err, codec.ErrInvalidSign):
		return "sign"
	case errors.Is(err, ErrInvalidUTF8):
		return "utf8"
	case errors.Is(err, ErrInvalidWordRef):
		return "word_ref"
	case errors.Is(err, ErrInvalidDictionary):
		return "dictionary"
	case errors.Is(err, ErrNameTooLong):
		return "name_length"
	case errors.Is(err, ErrInvalidTree):
		return "tree"
	default:
		return "io"
	}
}

func decode(cr *codec.Reader) (*NamesTree, error) {
	count, err := cr.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("read count: %w", err)
	}
	n := int(count)
	lons, err := cr.ReadSignMagnitude(n)
	if err != nil {
		return nil, fmt.Errorf("read longitudes: %w", err)
	}
	lats, err := cr.ReadSignMagnitude(n)
	if err != nil {
		return nil, fmt.Errorf("read latitudes: %w", err)
	}
	lesser, err := cr.ReadMagnitudeMonotonic(n)
	if err != nil {
		return nil, fmt.Errorf("read lesser: %w", err)
	}
	greater, err := cr.ReadMagnitudeMonotonic(n)
	if err != nil {
		return nil, fmt.Errorf("read greater: %w", err)
	}
	wordCounts, err := cr.ReadMagnitude(n)
	if err != nil {
		return nil, fmt.Errorf("read word counts: %w", err)
	}
	dict, err := readDictionary(cr)
	if err != nil {
		return nil, err
	}
	refCount, err := cr.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("read reference count: %w", err)
	}
	var declared uint64
	for i, c := range wordCounts {
		// w 个词至少需要 w-1 个分隔空格
		if uint64(c) > MaxNameBytes+1 {
			return nil, fmt.Errorf("node %d declares %d words: %w", i+1, c, ErrNameTooLong)
		}
		declared += uint64(c)
	}
	if declared != uint64(refCount) {
		return nil, fmt.Errorf("word counts sum to %d, reference count is %d: %w", declared, refCount, ErrInvalidWordRef)
	}

	nodes := make([]kdtree.Node[int64, string], n)
	for i := range nodes {
		nodes[i] = kdtree.Node[int64, string]{
			Location: [2]int64{lons[i], lats[i]},
			Lesser:   lesser[i],
			Greater:  greater[i],
		}
	}
	if err := readNames(cr, nodes, wordCounts, dict, int(refCount)); err != nil {
		return nil, err
	}
	t, err := kdtree.FromNodes(nodes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidTree, err)
	}
	return t, nil
}

// 文档注释：逐个读取词引用并拼出各节点名称
// 约束：引用不落成数组；名称超过 MaxNameBytes 即中止，宽度 0 的引用序列也无法撑大内存
func readNames(cr *codec.Reader, nodes []kdtree.Node[int64, string], wordCounts []uint32, dict []string, refCount int) error {
	var sb strings.Builder
	node, word := 0, 0
	finish := func() {
		nodes[node].Value = sb.String()
		sb.Reset()
		node++
		word = 0
	}
	// 跳过没有词的节点，名称保持为空
	skipEmpty := func() {
		for node < len(nodes) && wordCounts[node] == 0 {
			node++
		}
	}
	skipEmpty()
	err := cr.EachMagnitude(refCount, func(_ int, ref uint32) error {
		if int(ref) >= len(dict) {
			return fmt.Errorf("node %d references word %d of %d: %w", node+1, ref, len(dict), ErrInvalidWordRef)
		}
		if word > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(dict[ref])
		if sb.Len() > MaxNameBytes {
			return fmt.Errorf("node %d name exceeds %d bytes: %w", node+1, MaxNameBytes, ErrNameTooLong)
		}
		word++
		if word == int(wordCounts[node]) {
			finish()
			skipEmpty()
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("read word refs: %w", err)
	}
	return nil
}

// 文档注释：读取字典
// 约束：词按字节序严格递增，因此至多一个空词且只能在首位；宽度 0 的长度序列
// 在第二个元素处即被拒绝，声明的大小不会导致大块分配
func readDictionary(cr *codec.Reader) ([]string, error) {
	size, err := cr.ReadU32()
	if err != nil {
		return nil, fmt.Errorf("read dictionary size: %w", err)
	}
	lengths := make([]uint32, 0, min(int(size), wordChunk))
	err = cr.EachMagnitude(int(size), func(i int, l uint32) error {
		if l == 0 && i > 0 {
			return fmt.Errorf("empty word at index %d: %w", i, ErrInvalidDictionary)
		}
		lengths = append(lengths, l)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read word lengths: %w", err)
	}
	var total uint64
	for _, l := range lengths {
		total += uint64(l)
	}
	var data []byte
	for remaining := total; remaining > 0; {
		m := min(remaining, wordChunk)
		off := len(data)
		data = append(data, make([]byte, m)...)
		if err := cr.ReadBytes(data[off:]); err != nil {
			return nil, fmt.Errorf("read word bytes: %w", err)
		}
		remaining -= m
	}
	dict := make([]string, len(lengths))
	off := 0
	for i, l := range lengths {
		word := data[off : off+int(l)]
		if !utf8.Valid(word) {
			return nil, fmt.Errorf("word %d %q: %w", i, word, ErrInvalidUTF8)
		}
		dict[i] = string(word)
		if i > 0 && dict[i-1] >= dict[i] {
			return nil, fmt.Errorf("word %d %q after %q: %w", i, dict[i], dict[i-1], ErrInvalidDictionary)
		}
		off += int(l)
	}
	return dict, nil
}
