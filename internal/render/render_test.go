package render

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"
)

var (
	testPoints = [][]float64{{0, 0}, {1, 1}, {50, 50}, {2, 2}, {30, 30}, {31, 31}, {100, 100}, {32, 32}}
	testLabels = []int{1, 1, -1, 1, 2, 2, -1, 2}
)

func TestSplit(t *testing.T) {
	groups, stride, err := Chart{}.split(testPoints, testLabels)
	require.NoError(t, err)
	assert.Equal(t, 1, stride)
	require.Len(t, groups, 3)

	assert.Equal(t, "cluster 1", groups[0].name)
	assert.Equal(t, []xy{{0, 0}, {1, 1}, {2, 2}}, groups[0].pts)
	assert.Equal(t, "cluster 2", groups[1].name)
	assert.Equal(t, []xy{{30, 30}, {31, 31}, {32, 32}}, groups[1].pts)
	assert.Equal(t, "noise", groups[2].name)
	assert.Equal(t, []xy{{50, 50}, {100, 100}}, groups[2].pts)
}

func TestSplit_OneDimensionUsesIndex(t *testing.T) {
	groups, _, err := Chart{}.split([][]float64{{5}, {7}}, []int{1, -1})
	require.NoError(t, err)
	assert.Equal(t, []xy{{0, 5}}, groups[0].pts)
	assert.Equal(t, []xy{{1, 7}}, groups[1].pts)
}

func TestSplit_Thinning(t *testing.T) {
	points := make([][]float64, 10)
	labels := make([]int, 10)
	for i := range points {
		points[i] = []float64{float64(i), 0}
		labels[i] = 1
	}

	groups, stride, err := Chart{MaxPoints: 4}.split(points, labels)
	require.NoError(t, err)
	assert.Equal(t, 3, stride)
	assert.Equal(t, []xy{{0, 0}, {3, 0}, {6, 0}, {9, 0}}, groups[0].pts)
}

func TestSplit_Errors(t *testing.T) {
	_, _, err := Chart{}.split(testPoints, testLabels[:3])
	assert.Error(t, err)

	_, _, err = Chart{}.split([][]float64{{0, 0}}, []int{0})
	assert.Error(t, err, "unassigned label must be rejected")
}

func TestHTML(t *testing.T) {
	var buf bytes.Buffer
	err := Chart{Title: "scenario C"}.HTML(&buf, testPoints, testLabels)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "scenario C")
	assert.Contains(t, out, "cluster 1")
	assert.Contains(t, out, "cluster 2")
	assert.Contains(t, out, "noise")
	assert.True(t, strings.Contains(out, "<html") || strings.Contains(out, "<!DOCTYPE"), "expected an HTML document")
}

func TestHTML_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Chart{Title: "empty"}.HTML(&buf, nil, nil))
	assert.Contains(t, buf.String(), "empty")
}

func TestPNG(t *testing.T) {
	var buf bytes.Buffer
	err := Chart{Title: "scenario C"}.PNG(&buf, testPoints, testLabels, 4*vg.Inch, 3*vg.Inch)
	require.NoError(t, err)

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Greater(t, img.Bounds().Dx(), 0)
	assert.Greater(t, img.Bounds().Dy(), 0)
}

func TestPNG_MismatchedLabels(t *testing.T) {
	var buf bytes.Buffer
	err := Chart{}.PNG(&buf, testPoints, nil, 4*vg.Inch, 3*vg.Inch)
	assert.Error(t, err)
	assert.Zero(t, buf.Len())
}

func TestPalette(t *testing.T) {
	colors := palette(3)
	require.Len(t, colors, 3)
	assert.NotEqual(t, colors[0], colors[1])
	assert.NotEqual(t, colors[1], colors[2])
	assert.Equal(t, "#d92626", hexColor(colors[0]))
}
