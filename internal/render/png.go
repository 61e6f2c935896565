package render

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// PNG writes a static scatter image of the given size.
func (c Chart) PNG(w io.Writer, points [][]float64, labels []int, width, height vg.Length) error {
	groups, _, err := c.split(points, labels)
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = c.Title
	p.X.Label.Text, p.Y.Label.Text = axisNames(points)
	p.Legend.Top = true

	colors := palette(len(groups) - 1)
	for i, g := range groups {
		if len(g.pts) == 0 {
			continue
		}
		xys := make(plotter.XYs, len(g.pts))
		for j, pt := range g.pts {
			xys[j] = plotter.XY{X: pt.x, Y: pt.y}
		}
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return fmt.Errorf("series %s: %w", g.name, err)
		}
		if i < len(colors) {
			s.GlyphStyle.Color = colors[i]
			s.GlyphStyle.Radius = vg.Points(2)
			s.GlyphStyle.Shape = draw.CircleGlyph{}
		} else {
			s.GlyphStyle.Color = noiseColor
			s.GlyphStyle.Radius = vg.Points(1.5)
			s.GlyphStyle.Shape = draw.CrossGlyph{}
		}
		p.Add(s)
		p.Legend.Add(g.name, s)
	}

	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
