package dbscan

import (
	"math/rand/v2"
	"testing"
)

// scenarioPoints is the 12-point reference dataset: two tight groups near
// (1,1)-(3,3) and (20,20)-(22,22), a group at (40..43), and stragglers at
// (10,10) and (100,100).
func scenarioPoints() [][]float64 {
	return [][]float64{
		{1, 1},
		{2, 2},
		{10, 10},
		{43, 43},
		{21, 21},
		{3, 3},
		{22, 22},
		{40, 40},
		{41, 41},
		{20, 20},
		{42, 42},
		{100, 100},
	}
}

func mustDataset(t testing.TB, points [][]float64) *Dataset {
	t.Helper()
	ds, err := NewDataset(points)
	if err != nil {
		t.Fatalf("NewDataset: %v", err)
	}
	return ds
}

// gridPoints draws integer coordinates from a small range so that duplicate
// points and distances exactly equal to an integer epsilon are common.
func gridPoints(r *rand.Rand, n, dim, span int) [][]float64 {
	points := make([][]float64, n)
	for i := range points {
		p := make([]float64, dim)
		for axis := range p {
			p[axis] = float64(r.IntN(span))
		}
		points[i] = p
	}
	return points
}

// blobPoints draws points from gaussian blobs around random centres in the
// unit cube, scaled by spread.
func blobPoints(r *rand.Rand, n, dim, blobs int, spread float64) [][]float64 {
	centres := make([][]float64, blobs)
	for k := range centres {
		c := make([]float64, dim)
		for axis := range c {
			c[axis] = r.Float64()
		}
		centres[k] = c
	}

	points := make([][]float64, n)
	for i := range points {
		c := centres[r.IntN(blobs)]
		p := make([]float64, dim)
		for axis := range p {
			p[axis] = c[axis] + r.NormFloat64()*spread
		}
		points[i] = p
	}
	return points
}
