// 包 distance：二维整数坐标之间的距离度量，供 kdtree 查询注入使用
// 约束：所有度量均为纯函数；kdtree 的剪枝依赖沿各轴单调（坐标差越大距离不减）。
// Orthogonal 与 EuclideanSquared 严格满足；Earth 在查询半径远小于半球时满足
package distance

import (
	"fmt"
	"math/bits"
	"strings"
)

// Func：距离函数签名，坐标为 (经度, 纬度) 纳度或任意整数平面坐标
type Func func(a, b [2]int64) uint64

// Orthogonal：切比雪夫距离，各轴绝对差的最大值
func Orthogonal(a, b [2]int64) uint64 {
	return max(absDiff(a[0], b[0]), absDiff(a[1], b[1]))
}

// EuclideanSquared：欧氏距离平方，逐步饱和以避免 64 位溢出
func EuclideanSquared(a, b [2]int64) uint64 {
	return saturatingAdd(squaredDiff(a[0], b[0]), squaredDiff(a[1], b[1]))
}

func squaredDiff(a, b int64) uint64 {
	d := absDiff(a, b)
	return saturatingMul(d, d)
}

// absDiff：无符号绝对差，math.MinInt64 与 math.MaxInt64 之间也不会溢出
func absDiff(a, b int64) uint64 {
	if a > b {
		return uint64(a) - uint64(b)
	}
	return uint64(b) - uint64(a)
}

func saturatingAdd(a, b uint64) uint64 {
	s, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return ^uint64(0)
	}
	return s
}

func saturatingMul(a, b uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return ^uint64(0)
	}
	return lo
}

// ByName：按名称解析距离函数，用于命令行 --metric
func ByName(name string) (Func, error) {
	switch strings.ToLower(name) {
	case "", "earth", "geodesic":
		return Earth, nil
	case "orthogonal", "chebyshev":
		return Orthogonal, nil
	case "euclidean", "euclidean2", "squared":
		return EuclideanSquared, nil
	}
	return nil, fmt.Errorf("unknown metric %q", name)
}
