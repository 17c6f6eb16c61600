package kdtree

import (
	"cmp"
	"slices"
	"sort"
)

// Neighbor：查询结果，Location/Value 指向树内数据，不做拷贝
type Neighbor[C cmp.Ordered, V any, D cmp.Ordered] struct {
	Distance D
	Location *[2]C
	Value    *V
}

type searchItem struct {
	axis int
	slot uint32
}

// 文档注释：有界 k 近邻查询
// 做法：以显式队列广度优先遍历；距离不超过当前上界的节点按距离二分插入结果缓冲，
// 缓冲满 k 个后上界收紧到第 k 个（最差）距离；超出上界的节点总是继续查询点所在一侧，
// 另一侧仅当查询点到分割线投影点的距离仍在上界内时才访问。
// 约束：dist 必须沿每个轴单调，否则剪枝可能漏掉候选。
// 返回：按距离升序、长度不超过 k 的结果；k<=0 或空树返回空。
func Search[C cmp.Ordered, V any, D cmp.Ordered](t *Tree[C, V], query [2]C, maxDistance D, k int, dist func(a, b [2]C) D) []Neighbor[C, V, D] {
	if k <= 0 || t == nil || len(t.nodes) == 0 {
		return nil
	}
	out := make([]Neighbor[C, V, D], 0, min(k, len(t.nodes)))
	bound := maxDistance
	var q fifo[searchItem]
	q.push(searchItem{axis: 0, slot: 1})
	for {
		it, ok := q.pop()
		if !ok {
			break
		}
		n := &t.nodes[it.slot-1]
		d := dist(n.Location, query)
		var lesser, greater bool
		if d <= bound {
			i := sort.Search(len(out), func(i int) bool { return out[i].Distance > d })
			if i < k {
				if len(out) == k {
					out = out[:k-1]
				}
				out = slices.Insert(out, i, Neighbor[C, V, D]{Distance: d, Location: &n.Location, Value: &n.Value})
			}
			if len(out) == k {
				bound = out[k-1].Distance
			}
			lesser, greater = true, true
		} else {
			split := n.Location[it.axis]
			nearLesser := query[it.axis] < split
			lesser, greater = nearLesser, !nearLesser
			proj := query
			proj[it.axis] = split
			if dist(proj, query) <= bound {
				lesser, greater = true, true
			}
		}
		childAxis := 1 - it.axis
		if lesser && n.Lesser != Empty {
			q.push(searchItem{axis: childAxis, slot: n.Lesser})
		}
		if greater && n.Greater != Empty {
			q.push(searchItem{axis: childAxis, slot: n.Greater})
		}
	}
	return out
}
