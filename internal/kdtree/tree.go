// 包 kdtree：静态二维 k-d 树（数组 + 1 起始槽位索引）
// 约束：构建后只读；节点按广度优先发现顺序存放，槽位 1 为根，0 表示无子节点；
// 分割轴按深度在 0（经度）/1（纬度）之间交替。
package kdtree

import (
	"cmp"
	"errors"
	"fmt"
	"iter"
	"math"
)

// Empty：无子节点哨兵
const Empty uint32 = 0

var (
	ErrTooManyPoints = errors.New("kdtree: too many points")
	ErrInvalidChild  = errors.New("kdtree: invalid child reference")
)

// Point：构建输入，位置 + 附加值
type Point[C cmp.Ordered, V any] struct {
	Location [2]C
	Value    V
}

// Node：树节点；Lesser/Greater 为 1 起始槽位，Empty 表示缺失
type Node[C cmp.Ordered, V any] struct {
	Location [2]C
	Value    V
	Lesser   uint32
	Greater  uint32
}

// Tree：节点数组即全部状态，可被多个 goroutine 并发只读访问
type Tree[C cmp.Ordered, V any] struct {
	nodes []Node[C, V]
}

type buildItem[C cmp.Ordered, V any] struct {
	axis   int
	slot   uint32
	points []Point[C, V]
}

// 文档注释：从点集构建树
// 做法：层序迭代；每个待处理子切片按当前轴原地选择下中位数（len/2）作为节点，
// 左右两半非空时从单一计数器按入队顺序分配槽位，保证数组紧凑且布局确定。
// 约束：values 从 points 中移出（原位置被置零）；points 的顺序会被打乱。
// 返回：点数不小于 2^32-1 时返回 ErrTooManyPoints，不产生任何部分结构。
func Build[C cmp.Ordered, V any](points []Point[C, V]) (*Tree[C, V], error) {
	if uint64(len(points)) >= math.MaxUint32 {
		return nil, fmt.Errorf("%d points: %w", len(points), ErrTooManyPoints)
	}
	nodes := make([]Node[C, V], len(points))
	if len(points) == 0 {
		return &Tree[C, V]{nodes: nodes}, nil
	}
	next := uint32(1)
	alloc := func() uint32 {
		s := next
		next++
		return s
	}
	var q fifo[buildItem[C, V]]
	q.push(buildItem[C, V]{axis: 0, slot: alloc(), points: points})
	for {
		it, ok := q.pop()
		if !ok {
			break
		}
		childAxis := 1 - it.axis
		if len(it.points) == 1 {
			nodes[it.slot-1] = Node[C, V]{
				Location: it.points[0].Location,
				Value:    take(&it.points[0].Value),
			}
			continue
		}
		mid := len(it.points) / 2
		selectNth(it.points, mid, it.axis)
		lesser, greater := it.points[:mid], it.points[mid+1:]
		n := Node[C, V]{
			Location: it.points[mid].Location,
			Value:    take(&it.points[mid].Value),
		}
		if len(lesser) > 0 {
			n.Lesser = alloc()
			q.push(buildItem[C, V]{axis: childAxis, slot: n.Lesser, points: lesser})
		}
		if len(greater) > 0 {
			n.Greater = alloc()
			q.push(buildItem[C, V]{axis: childAxis, slot: n.Greater, points: greater})
		}
		nodes[it.slot-1] = n
	}
	return &Tree[C, V]{nodes: nodes}, nil
}

func take[V any](p *V) V {
	v := *p
	var zero V
	*p = zero
	return v
}

// 原地 nth 元素选择：三路划分，重复坐标不会退化为平方复杂度
// 结束时 a[:n] 在该轴上 <= a[n]，a[n+1:] >= a[n]
func selectNth[C cmp.Ordered, V any](a []Point[C, V], n, axis int) {
	lo, hi := 0, len(a)
	for hi-lo > 1 {
		pivot := medianOfThree(a[lo].Location[axis], a[lo+(hi-lo)/2].Location[axis], a[hi-1].Location[axis])
		lt, gt := partition3(a, lo, hi, pivot, axis)
		switch {
		case n < lt:
			hi = lt
		case n >= gt:
			lo = gt
		default:
			return
		}
	}
}

// partition3：a[lo:lt] < pivot，a[lt:gt] == pivot，a[gt:hi] > pivot
func partition3[C cmp.Ordered, V any](a []Point[C, V], lo, hi int, pivot C, axis int) (int, int) {
	lt, i, gt := lo, lo, hi
	for i < gt {
		switch cmp.Compare(a[i].Location[axis], pivot) {
		case -1:
			a[lt], a[i] = a[i], a[lt]
			lt++
			i++
		case 1:
			gt--
			a[i], a[gt] = a[gt], a[i]
		default:
			i++
		}
	}
	return lt, gt
}

func medianOfThree[C cmp.Ordered](a, b, c C) C {
	if cmp.Less(b, a) {
		a, b = b, a
	}
	if cmp.Less(c, b) {
		b = c
		if cmp.Less(b, a) {
			b = a
		}
	}
	return b
}

// Len：节点数
func (t *Tree[C, V]) Len() int { return len(t.nodes) }

// Nodes：节点数组的只读视图（序列化用），调用方不得修改
func (t *Tree[C, V]) Nodes() []Node[C, V] { return t.nodes }

// All：按数组（广度优先）顺序遍历位置与值；每次调用都是独立的新遍历
func (t *Tree[C, V]) All() iter.Seq2[[2]C, V] {
	return func(yield func([2]C, V) bool) {
		for i := range t.nodes {
			if !yield(t.nodes[i].Location, t.nodes[i].Value) {
				return
			}
		}
	}
}

// FromNodes：接管已解码的节点数组，先做结构校验
func FromNodes[C cmp.Ordered, V any](nodes []Node[C, V]) (*Tree[C, V], error) {
	if err := Validate(nodes); err != nil {
		return nil, err
	}
	return &Tree[C, V]{nodes: nodes}, nil
}
