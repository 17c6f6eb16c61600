package kdtree

import (
	"cmp"
	"fmt"
	"math"
)

// 文档注释：校验节点数组的子节点引用
// 约束：每个引用都在数组内且位于父节点之后，除根以外每个节点恰有一个父节点；
// 满足时数组是以槽位 1 为根、无环的单棵树，Search 依赖这一点。
// 返回：不满足时返回包装的 ErrInvalidChild
func Validate[C cmp.Ordered, V any](nodes []Node[C, V]) error {
	n := len(nodes)
	if uint64(n) >= math.MaxUint32 {
		return fmt.Errorf("%d nodes: %w", n, ErrTooManyPoints)
	}
	if n == 0 {
		return nil
	}
	parent := make([]bool, n+1)
	linked := 0
	for i := range nodes {
		slot := uint32(i + 1)
		for _, child := range [2]uint32{nodes[i].Lesser, nodes[i].Greater} {
			if child == Empty {
				continue
			}
			if child > uint32(n) {
				return fmt.Errorf("node %d references slot %d of %d: %w", slot, child, n, ErrInvalidChild)
			}
			if child <= slot {
				return fmt.Errorf("node %d references earlier slot %d: %w", slot, child, ErrInvalidChild)
			}
			if parent[child] {
				return fmt.Errorf("slot %d has two parents: %w", child, ErrInvalidChild)
			}
			parent[child] = true
			linked++
		}
	}
	if linked != n-1 {
		return fmt.Errorf("%d of %d nodes unreachable: %w", n-1-linked, n, ErrInvalidChild)
	}
	return nil
}
