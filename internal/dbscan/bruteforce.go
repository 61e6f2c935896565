package dbscan

// BruteForce answers radius queries by scanning the whole dataset.
type BruteForce struct {
	ds *Dataset
}

// NewBruteForce returns an exhaustive finder over ds.
func NewBruteForce(ds *Dataset) *BruteForce {
	return &BruteForce{ds: ds}
}

// Len returns the number of indexed points.
func (b *BruteForce) Len() int {
	return b.ds.Len()
}

// RangeQuery scans all points; results are naturally in ascending order.
func (b *BruteForce) RangeQuery(idx int, epsilon float64) []int {
	q := b.ds.at(idx)
	eps2 := epsilon * epsilon

	neighbors := []int{}
	for j := 0; j < b.ds.Len(); j++ {
		if squaredDistance(q, b.ds.at(j)) <= eps2 {
			neighbors = append(neighbors, j)
		}
	}
	return neighbors
}

// Verify at compile time that *BruteForce implements NeighborFinder.
var _ NeighborFinder = (*BruteForce)(nil)
