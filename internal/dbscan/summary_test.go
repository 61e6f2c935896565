package dbscan

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	ds := mustDataset(t, scenarioCPoints())
	res, err := Cluster(ds, Params{Epsilon: 5, MinPoints: 3}, NewBruteForce(ds))
	require.NoError(t, err)

	s, err := Summarize(ds, res)
	require.NoError(t, err)

	assert.Equal(t, 8, s.Points)
	assert.Equal(t, 2, s.Dim)
	assert.Equal(t, 2, s.NoiseCount)
	assert.InDelta(t, 0.25, s.NoiseRatio, 1e-12)
	require.Len(t, s.Clusters, 2)

	first := s.Clusters[0]
	assert.Equal(t, 1, first.ClusterID)
	assert.Equal(t, 3, first.Size)
	assert.InDeltaSlice(t, []float64{1, 1}, first.Centroid, 1e-12)
	assert.Equal(t, []float64{0, 0}, first.Min)
	assert.Equal(t, []float64{2, 2}, first.Max)
	assert.InDelta(t, math.Sqrt2, first.Radius, 1e-12)

	second := s.Clusters[1]
	assert.Equal(t, 2, second.ClusterID)
	assert.InDeltaSlice(t, []float64{31, 31}, second.Centroid, 1e-12)
}

func TestSummarize_EmptyAndMismatch(t *testing.T) {
	empty := mustDataset(t, nil)
	s, err := Summarize(empty, &Result{Labels: []int{}})
	require.NoError(t, err)
	assert.Equal(t, 0, s.Points)
	assert.Zero(t, s.NoiseRatio)
	assert.Empty(t, s.Clusters)

	_, err = Summarize(empty, &Result{Labels: []int{1}, Clusters: 1})
	assert.ErrorIs(t, err, ErrInvalidParameter)
}
