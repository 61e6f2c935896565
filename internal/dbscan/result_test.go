package dbscan

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scenarioCPoints holds two groups of three plus two isolated points.
func scenarioCPoints() [][]float64 {
	return [][]float64{
		{0, 0},
		{1, 1},
		{50, 50},
		{2, 2},
		{30, 30},
		{31, 31},
		{100, 100},
		{32, 32},
	}
}

func TestPartition_ScenarioC(t *testing.T) {
	ds := mustDataset(t, scenarioCPoints())
	for _, algo := range Algorithms {
		finder, err := NewFinder(algo, ds, 1)
		require.NoError(t, err)
		res, err := Cluster(ds, Params{Epsilon: 5, MinPoints: 3}, finder)
		require.NoError(t, err)

		got, err := res.Partition(ds)
		require.NoError(t, err)

		want := Partitioned{
			Noise: [][]float64{{50, 50}, {100, 100}},
			Clusters: [][][]float64{
				{{0, 0}, {1, 1}, {2, 2}},
				{{30, 30}, {31, 31}, {32, 32}},
			},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%s partition mismatch (-want +got):\n%s", algo, diff)
		}
	}
}

func TestPartition_JSONShape(t *testing.T) {
	ds := mustDataset(t, [][]float64{{0}, {9}})
	res := &Result{Labels: []int{1, -1}, Clusters: 1}

	p, err := res.Partition(ds)
	require.NoError(t, err)
	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Noise":[[9]],"Clusters":[[[0]]]}`, string(b))

	empty := &Result{Labels: []int{}, Clusters: 0}
	p, err = empty.Partition(mustDataset(t, nil))
	require.NoError(t, err)
	b, err = json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Noise":[],"Clusters":[]}`, string(b))
}

func TestPartition_Errors(t *testing.T) {
	ds := mustDataset(t, [][]float64{{0}, {1}})

	_, err := (&Result{Labels: []int{1}, Clusters: 1}).Partition(ds)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = (&Result{Labels: []int{1, 0}, Clusters: 1}).Partition(ds)
	assert.Error(t, err)
}

func TestFlat(t *testing.T) {
	res := &Result{Labels: []int{1, -1, 2}, Clusters: 2}
	flat := res.Flat()
	assert.Equal(t, Flat{Labels: []int{1, -1, 2}, Clusters: 2}, flat)

	flat.Labels[0] = 7
	assert.Equal(t, 1, res.Labels[0], "Flat must copy labels")

	b, err := json.Marshal(res.Flat())
	require.NoError(t, err)
	assert.JSONEq(t, `{"labels":[1,-1,2],"clusters":2}`, string(b))

	b, err = json.Marshal((&Result{Labels: []int{}}).Flat())
	require.NoError(t, err)
	assert.JSONEq(t, `{"labels":[],"clusters":0}`, string(b))
}

func TestResultCounts(t *testing.T) {
	res := &Result{Labels: []int{1, -1, 2, 2, -1, 1, 2}, Clusters: 2}
	assert.Equal(t, 2, res.NoiseCount())
	assert.Equal(t, []int{2, 3}, res.Sizes())
}

func TestParseShape(t *testing.T) {
	for in, want := range map[string]Shape{
		"flat":        ShapeFlat,
		"Partitioned": ShapePartitioned,
	} {
		got, err := ParseShape(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseShape("grouped")
	assert.ErrorIs(t, err, ErrInvalidParameter)
}
