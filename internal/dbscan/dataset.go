package dbscan

import (
	"fmt"
	"math"
	"slices"
)

// Dataset is an ordered, immutable set of points sharing one dimensionality.
// Coordinates are stored row-major in a single slice; point i occupies
// coords[i*dim : (i+1)*dim].
type Dataset struct {
	dim    int
	n      int
	coords []float64
}

// NewDataset copies points into a Dataset after validating that every point
// has the same, non-zero number of finite coordinates. A nil or empty input
// yields an empty dataset.
func NewDataset(points [][]float64) (*Dataset, error) {
	if len(points) == 0 {
		return &Dataset{}, nil
	}

	dim := len(points[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: point 0 has no coordinates", ErrDimensionMismatch)
	}

	coords := make([]float64, 0, len(points)*dim)
	for i, p := range points {
		if len(p) != dim {
			return nil, fmt.Errorf("%w: point %d has %d coordinates, dataset has %d",
				ErrDimensionMismatch, i, len(p), dim)
		}
		for axis, v := range p {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: point %d axis %d is %v", ErrNonFiniteCoordinate, i, axis, v)
			}
		}
		coords = append(coords, p...)
	}

	return &Dataset{dim: dim, n: len(points), coords: coords}, nil
}

// Len returns the number of points.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return d.n
}

// Dim returns the coordinate count shared by every point (0 when empty).
func (d *Dataset) Dim() int {
	if d == nil {
		return 0
	}
	return d.dim
}

// Point returns a copy of the coordinates of point i.
func (d *Dataset) Point(i int) []float64 {
	return slices.Clone(d.at(i))
}

// Points returns a copy of every point in input order.
func (d *Dataset) Points() [][]float64 {
	out := make([][]float64, d.Len())
	for i := range out {
		out[i] = d.Point(i)
	}
	return out
}

// at returns a read-only view of point i. Callers inside the package must
// not write through it.
func (d *Dataset) at(i int) []float64 {
	off := i * d.dim
	return d.coords[off : off+d.dim : off+d.dim]
}

// squaredDistance is the single metric used by every neighbour finder. Both
// finders must call it so that inclusion decisions agree bit for bit.
func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}
