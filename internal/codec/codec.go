// 包 codec：rgc 树格式使用的定宽整数序列编码
// 每个序列先写一个宽度字节，序列内所有值共用该宽度，宽度取自最大的值（或差值）：
//
//	sign magnitude       []int64   delta, width 1..8, magnitudes then one sign byte per value
//	magnitude monotonic  []uint32  delta, width 0..4, width 0: all zero
//	magnitude            []uint32  no delta, width 0..4, width 0: all zero
//
// 多字节字段均为小端。空序列什么都不写（连宽度字节也没有），读取方须事先知道元素个数。
package codec

import (
	"errors"
	"math/bits"
)

var (
	ErrInvalidWidth = errors.New("codec: invalid width byte")
	ErrInvalidSign  = errors.New("codec: invalid sign byte")
)

const (
	maxWidth64 = 8
	maxWidth32 = 4

	signPositive = 0
	signNegative = 1

	// 单次读取上限；损坏的元素个数不会在数据耗尽前触发大块分配
	chunkBytes = 64 << 10
)

// 容纳 v 所需字节数，v == 0 时为 0
func byteWidth(v uint64) int {
	return (bits.Len64(v) + 7) / 8
}

func appendLE(dst []byte, v uint64, width int) []byte {
	for i := 0; i < width; i++ {
		dst = append(dst, byte(v))
		v >>= 8
	}
	return dst
}

func readLE(src []byte) uint64 {
	var v uint64
	for i := len(src) - 1; i >= 0; i-- {
		v = v<<8 | uint64(src[i])
	}
	return v
}

// |d| 的无符号形式；math.MinInt64 对应 1<<63
func magnitude(d int64) uint64 {
	if d < 0 {
		return uint64(-d)
	}
	return uint64(d)
}
