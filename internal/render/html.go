package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// HTML writes an interactive scatter page for points coloured by labels.
func (c Chart) HTML(w io.Writer, points [][]float64, labels []int) error {
	groups, stride, err := c.split(points, labels)
	if err != nil {
		return err
	}

	subtitle := c.Subtitle
	if subtitle == "" {
		subtitle = fmt.Sprintf("points=%d clusters=%d stride=%d", len(points), len(groups)-1, stride)
	}
	xName, yName := axisNames(points)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: c.Title, Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: c.Title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Type: "scroll", Top: "bottom"}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Scale: opts.Bool(true), Name: xName, NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Scale: opts.Bool(true), Name: yName, NameLocation: "middle", NameGap: 30}),
	)

	colors := palette(len(groups) - 1)
	for i, g := range groups {
		data := make([]opts.ScatterData, 0, len(g.pts))
		for _, p := range g.pts {
			data = append(data, opts.ScatterData{Value: []interface{}{p.x, p.y}})
		}
		col, size := noiseColor, 4
		if i < len(colors) {
			col, size = colors[i], 6
		}
		scatter.AddSeries(g.name, data,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: size}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: hexColor(col)}),
		)
	}

	return scatter.Render(w)
}
