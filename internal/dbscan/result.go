package dbscan

import (
	"fmt"
	"strings"
)

// Shape selects how a Result is presented to callers.
type Shape string

const (
	// ShapeFlat reports one label per point plus the cluster count.
	ShapeFlat Shape = "flat"
	// ShapePartitioned reports the noise points and each cluster's points.
	ShapePartitioned Shape = "partitioned"
)

// ParseShape maps a selector string onto a Shape.
func ParseShape(s string) (Shape, error) {
	switch Shape(strings.ToLower(strings.TrimSpace(s))) {
	case ShapeFlat:
		return ShapeFlat, nil
	case ShapePartitioned:
		return ShapePartitioned, nil
	}
	return "", fmt.Errorf("%w: unknown output shape %q (want %q or %q)",
		ErrInvalidParameter, s, ShapeFlat, ShapePartitioned)
}

// Flat is the label-per-point output shape.
type Flat struct {
	Labels   []int `json:"labels"`
	Clusters int   `json:"clusters"`
}

// Partitioned groups the input points by final label. Point order within
// each group follows input order; Clusters[k] holds cluster id k+1.
type Partitioned struct {
	Noise    [][]float64   `json:"Noise"`
	Clusters [][][]float64 `json:"Clusters"`
}

// Flat returns the label-per-point shape. The label slice is copied.
func (r *Result) Flat() Flat {
	labels := make([]int, len(r.Labels))
	copy(labels, r.Labels)
	return Flat{Labels: labels, Clusters: r.Clusters}
}

// Partition groups the points of ds by label. ds must be the dataset the
// result was computed over.
func (r *Result) Partition(ds *Dataset) (Partitioned, error) {
	if ds.Len() != len(r.Labels) {
		return Partitioned{}, fmt.Errorf("%w: result has %d labels, dataset has %d points",
			ErrInvalidParameter, len(r.Labels), ds.Len())
	}

	out := Partitioned{
		Noise:    [][]float64{},
		Clusters: make([][][]float64, r.Clusters),
	}
	for k := range out.Clusters {
		out.Clusters[k] = [][]float64{}
	}

	for i, label := range r.Labels {
		switch {
		case label == Noise:
			out.Noise = append(out.Noise, ds.Point(i))
		case label >= 1 && label <= r.Clusters:
			out.Clusters[label-1] = append(out.Clusters[label-1], ds.Point(i))
		default:
			return Partitioned{}, fmt.Errorf("label %d of point %d outside [1, %d]", label, i, r.Clusters)
		}
	}
	return out, nil
}

// NoiseCount returns the number of points labelled Noise.
func (r *Result) NoiseCount() int {
	count := 0
	for _, label := range r.Labels {
		if label == Noise {
			count++
		}
	}
	return count
}

// Sizes returns the member count of each cluster; Sizes()[k] is cluster k+1.
func (r *Result) Sizes() []int {
	sizes := make([]int, r.Clusters)
	for _, label := range r.Labels {
		if label >= 1 && label <= r.Clusters {
			sizes[label-1]++
		}
	}
	return sizes
}
