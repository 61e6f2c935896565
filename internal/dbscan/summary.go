package dbscan

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ClusterSummary describes the extent of one cluster.
type ClusterSummary struct {
	ClusterID int       `json:"cluster_id"`
	Size      int       `json:"size"`
	Centroid  []float64 `json:"centroid"`
	Min       []float64 `json:"min"`
	Max       []float64 `json:"max"`
	Radius    float64   `json:"radius"` // Largest member distance from the centroid
}

// Summary aggregates a Result for reporting. It is not part of either output
// shape; callers attach it alongside.
type Summary struct {
	Points     int              `json:"points"`
	Dim        int              `json:"dim"`
	NoiseCount int              `json:"noise_count"`
	NoiseRatio float64          `json:"noise_ratio"`
	Clusters   []ClusterSummary `json:"clusters"`
}

// Summarize computes per-cluster statistics for r over ds.
func Summarize(ds *Dataset, r *Result) (Summary, error) {
	if ds.Len() != len(r.Labels) {
		return Summary{}, fmt.Errorf("%w: result has %d labels, dataset has %d points",
			ErrInvalidParameter, len(r.Labels), ds.Len())
	}

	dim := ds.Dim()
	s := Summary{
		Points:     ds.Len(),
		Dim:        dim,
		NoiseCount: r.NoiseCount(),
		Clusters:   make([]ClusterSummary, 0, r.Clusters),
	}
	if s.Points > 0 {
		s.NoiseRatio = float64(s.NoiseCount) / float64(s.Points)
	}

	// columns[k][axis] holds the axis coordinates of cluster k+1's members.
	columns := make([][][]float64, r.Clusters)
	members := make([][]int, r.Clusters)
	for k := range columns {
		columns[k] = make([][]float64, dim)
	}
	for i, label := range r.Labels {
		if label < 1 || label > r.Clusters {
			continue
		}
		k := label - 1
		members[k] = append(members[k], i)
		for axis, v := range ds.at(i) {
			columns[k][axis] = append(columns[k][axis], v)
		}
	}

	for k := range columns {
		if len(members[k]) == 0 {
			continue
		}
		cs := ClusterSummary{
			ClusterID: k + 1,
			Size:      len(members[k]),
			Centroid:  make([]float64, dim),
			Min:       make([]float64, dim),
			Max:       make([]float64, dim),
		}
		for axis, col := range columns[k] {
			cs.Centroid[axis] = stat.Mean(col, nil)
			cs.Min[axis] = floats.Min(col)
			cs.Max[axis] = floats.Max(col)
		}
		for _, i := range members[k] {
			if d := floats.Distance(ds.at(i), cs.Centroid, 2); d > cs.Radius {
				cs.Radius = d
			}
		}
		s.Clusters = append(s.Clusters, cs)
	}

	return s, nil
}
