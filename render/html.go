package render

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// WriteHTML renders one interactive line chart per channel, with a mean
// series and ±1 SD bounds for every group.
func WriteHTML(w io.Writer, title string, curves []Curve) error {
	if len(curves) == 0 {
		return fmt.Errorf("no curves to render")
	}

	var channels []string
	byChannel := make(map[string][]Curve)
	for _, c := range curves {
		if _, ok := byChannel[c.Channel]; !ok {
			channels = append(channels, c.Channel)
		}
		byChannel[c.Channel] = append(byChannel[c.Channel], c)
	}

	page := components.NewPage()
	page.PageTitle = title
	for _, ch := range channels {
		group := byChannel[ch]
		line := charts.NewLine()
		line.SetGlobalOptions(
			charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1100px", Height: "480px"}),
			charts.WithTitleOpts(opts.Title{Title: ch, Subtitle: fmt.Sprintf("groups=%d", len(group))}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
			charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
			charts.WithXAxisOpts(opts.XAxis{Name: phaseLabel, NameLocation: "middle", NameGap: 25}),
			charts.WithYAxisOpts(opts.YAxis{Name: ch}),
		)

		labels := phaseAxis(group)
		line.SetXAxis(labels)

		for _, c := range group {
			name := c.Group.Label()
			mean := gapSeries(len(labels))
			upper := gapSeries(len(labels))
			lower := gapSeries(len(labels))
			for i := range c.Mean {
				x := c.gridIndex(i)
				mean[x] = opts.LineData{Value: c.Mean[i]}
				upper[x] = opts.LineData{Value: c.Mean[i] + c.SD[i]}
				lower[x] = opts.LineData{Value: c.Mean[i] - c.SD[i]}
			}
			line.AddSeries(name, mean)
			line.AddSeries(name+" +SD", upper, charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed"}))
			line.AddSeries(name+" -SD", lower, charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed"}))
		}
		page.AddCharts(line)
	}
	return page.Render(w)
}

// WriteHTMLFile creates path and renders the report into it.
func WriteHTMLFile(path, title string, curves []Curve) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteHTML(f, title, curves); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// gridIndex is the phase grid position of cell i.
func (c Curve) gridIndex(i int) int {
	if len(c.PhaseIndex) == len(c.Mean) {
		return c.PhaseIndex[i]
	}
	return i
}

// phaseAxis labels every grid position any curve of the chart covers.
func phaseAxis(group []Curve) []string {
	n := 0
	for _, c := range group {
		for i := range c.Mean {
			if x := c.gridIndex(i) + 1; x > n {
				n = x
			}
		}
	}
	labels := make([]string, n)
	for _, c := range group {
		for i, p := range c.Phase {
			if x := c.gridIndex(i); labels[x] == "" {
				labels[x] = strconv.FormatFloat(p, 'f', -1, 64)
			}
		}
	}
	return labels
}

// gapSeries returns n points that echarts draws as gaps until filled.
func gapSeries(n int) []opts.LineData {
	out := make([]opts.LineData, n)
	for i := range out {
		out[i] = opts.LineData{Value: "-"}
	}
	return out
}
