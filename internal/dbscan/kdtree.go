package dbscan

import (
	"math/bits"
	"slices"
	"sync"
)

// minParallelBuild is the smallest subtree handed to its own goroutine.
// Smaller subtrees build faster inline than the goroutine costs.
const minParallelBuild = 2048

// KDTree is a balanced KD-tree over a dataset. Each node holds one point;
// the split axis cycles with depth and the split value is the median of the
// subtree along that axis. The tree is read-only once built, so concurrent
// queries are safe.
type KDTree struct {
	ds   *Dataset
	root *kdNode
}

type kdNode struct {
	idx         int     // dataset index of the median point
	axis        int     // split axis
	split       float64 // coordinate of idx along axis
	left, right *kdNode // left holds keys below the median, right above
}

// NewKDTree builds a KD-tree over ds. Up to workers goroutines build
// disjoint subtrees concurrently; workers <= 1 builds on the caller's
// goroutine.
func NewKDTree(ds *Dataset, workers int) *KDTree {
	t := &KDTree{ds: ds}
	n := ds.Len()
	if n == 0 {
		return t
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	t.root = t.build(order, 0, forkDepth(workers))
	return t
}

// forkDepth is the number of tree levels that may fork a goroutine so that
// at most workers goroutines build at once.
func forkDepth(workers int) int {
	if workers <= 1 {
		return 0
	}
	return bits.Len(uint(workers - 1))
}

// build arranges order (a subtree's dataset indices) around its median and
// recurses. Sibling subtrees own disjoint sub-slices of order.
func (t *KDTree) build(order []int, depth, forks int) *kdNode {
	if len(order) == 0 {
		return nil
	}

	axis := depth % t.ds.Dim()
	mid := len(order) / 2
	t.selectNth(order, mid, axis)

	node := &kdNode{
		idx:   order[mid],
		axis:  axis,
		split: t.ds.at(order[mid])[axis],
	}

	if forks > 0 && len(order) >= minParallelBuild {
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			node.left = t.build(order[:mid], depth+1, forks-1)
		}()
		node.right = t.build(order[mid+1:], depth+1, forks-1)
		wg.Wait()
		return node
	}

	node.left = t.build(order[:mid], depth+1, 0)
	node.right = t.build(order[mid+1:], depth+1, 0)
	return node
}

// less orders dataset indices by coordinate along axis, breaking ties by
// index so that the order is total and the build is reproducible.
func (t *KDTree) less(a, b, axis int) bool {
	va, vb := t.ds.at(a)[axis], t.ds.at(b)[axis]
	if va != vb {
		return va < vb
	}
	return a < b
}

// selectNth partially orders order so that order[k] holds the element of
// rank k, everything before it ranks lower and everything after ranks
// higher. Quickselect with a median-of-three pivot; average O(n).
func (t *KDTree) selectNth(order []int, k, axis int) {
	lo, hi := 0, len(order)-1
	for hi > lo {
		m := lo + (hi-lo)/2
		if t.less(order[m], order[lo], axis) {
			order[m], order[lo] = order[lo], order[m]
		}
		if t.less(order[hi], order[lo], axis) {
			order[hi], order[lo] = order[lo], order[hi]
		}
		if t.less(order[m], order[hi], axis) {
			order[m], order[hi] = order[hi], order[m]
		}

		pivot := order[hi]
		store := lo
		for i := lo; i < hi; i++ {
			if t.less(order[i], pivot, axis) {
				order[i], order[store] = order[store], order[i]
				store++
			}
		}
		order[store], order[hi] = order[hi], order[store]

		switch {
		case k == store:
			return
		case k < store:
			hi = store - 1
		default:
			lo = store + 1
		}
	}
}

// Len returns the number of indexed points.
func (t *KDTree) Len() int {
	return t.ds.Len()
}

// RangeQuery walks the tree, skipping a far subtree whenever the squared
// distance from the query to the split plane already exceeds epsilon².
// Every point in the far subtree lies at least that far along the split
// axis, so the skip never drops a neighbour.
func (t *KDTree) RangeQuery(idx int, epsilon float64) []int {
	q := t.ds.at(idx)
	neighbors := t.search(t.root, q, epsilon*epsilon, []int{})
	slices.Sort(neighbors)
	return neighbors
}

func (t *KDTree) search(n *kdNode, q []float64, eps2 float64, out []int) []int {
	for n != nil {
		if squaredDistance(q, t.ds.at(n.idx)) <= eps2 {
			out = append(out, n.idx)
		}

		diff := q[n.axis] - n.split
		near, far := n.left, n.right
		if diff > 0 {
			near, far = n.right, n.left
		}
		if diff*diff <= eps2 {
			out = t.search(far, q, eps2, out)
		}
		n = near
	}
	return out
}

// Depth returns the height of the tree (0 when empty).
func (t *KDTree) Depth() int {
	var walk func(n *kdNode) int
	walk = func(n *kdNode) int {
		if n == nil {
			return 0
		}
		return 1 + max(walk(n.left), walk(n.right))
	}
	return walk(t.root)
}

// Verify at compile time that *KDTree implements NeighborFinder.
var _ NeighborFinder = (*KDTree)(nil)
