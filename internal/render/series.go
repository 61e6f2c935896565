// Package render draws clustering results as scatter charts: interactive
// HTML through go-echarts and static PNG through gonum/plot.
//
// Points are projected onto their first two coordinates. One-dimensional
// data is plotted against the point index. Each cluster becomes its own
// series and noise points form a final "noise" series.
package render

import (
	"fmt"
	"image/color"
	"math"

	"github.com/banshee-data/dbscan/internal/dbscan"
)

// DefaultMaxPoints caps the points drawn when Chart.MaxPoints is unset.
const DefaultMaxPoints = 20000

// Chart holds the presentation settings shared by HTML and PNG.
type Chart struct {
	Title     string
	Subtitle  string
	MaxPoints int // points beyond this are thinned with a fixed stride
}

type xy struct{ x, y float64 }

type series struct {
	name  string
	label int // cluster id, or dbscan.Noise
	pts   []xy
}

// split groups points by label into plotted series, clusters first in
// ascending id and noise last. It returns the stride used for thinning.
func (c Chart) split(points [][]float64, labels []int) ([]series, int, error) {
	if len(points) != len(labels) {
		return nil, 0, fmt.Errorf("have %d points but %d labels", len(points), len(labels))
	}

	maxPoints := c.MaxPoints
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}
	stride := 1
	if len(points) > maxPoints {
		stride = int(math.Ceil(float64(len(points)) / float64(maxPoints)))
	}

	clusters := 0
	for _, l := range labels {
		if l > clusters {
			clusters = l
		}
	}
	out := make([]series, clusters+1)
	for k := 0; k < clusters; k++ {
		out[k] = series{name: fmt.Sprintf("cluster %d", k+1), label: k + 1}
	}
	out[clusters] = series{name: "noise", label: dbscan.Noise}

	for i := 0; i < len(points); i += stride {
		p := points[i]
		var pt xy
		switch len(p) {
		case 0:
			continue
		case 1:
			pt = xy{x: float64(i), y: p[0]}
		default:
			pt = xy{x: p[0], y: p[1]}
		}
		switch l := labels[i]; {
		case l == dbscan.Noise:
			out[clusters].pts = append(out[clusters].pts, pt)
		case l >= 1:
			out[l-1].pts = append(out[l-1].pts, pt)
		default:
			return nil, 0, fmt.Errorf("point %d has invalid label %d", i, l)
		}
	}
	return out, stride, nil
}

func axisNames(points [][]float64) (string, string) {
	if len(points) > 0 && len(points[0]) == 1 {
		return "index", "x0"
	}
	return "x0", "x1"
}

var noiseColor = color.RGBA{R: 150, G: 150, B: 150, A: 255}

// palette returns n evenly spaced hues.
func palette(n int) []color.RGBA {
	colors := make([]color.RGBA, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL (all in [0,1]) to 8-bit RGB.
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64
	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}
	return uint8(math.Round(rf * 255)), uint8(math.Round(gf * 255)), uint8(math.Round(bf * 255))
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t++
	}
	if t > 1 {
		t--
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
