// Package render draws phase-normalized cycles and their statistics as PNG
// charts and an HTML report.
package render

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	gaitcycle "github.com/lucasjlepore/gait-analyzer"
)

const phaseLabel = "Gait cycle (%)"

var (
	meanColor  = color.RGBA{R: 0, G: 128, B: 0, A: 255}
	cycleColor = color.RGBA{R: 150, G: 150, B: 150, A: 160}
	bandColor  = color.RGBA{R: 31, G: 119, B: 180, A: 70}
	lineColor  = color.RGBA{R: 31, G: 119, B: 180, A: 255}
)

var palette = []color.Color{
	color.RGBA{R: 31, G: 119, B: 180, A: 255},
	color.RGBA{R: 255, G: 127, B: 14, A: 255},
	color.RGBA{R: 44, G: 160, B: 44, A: 255},
	color.RGBA{R: 214, G: 39, B: 40, A: 255},
	color.RGBA{R: 148, G: 103, B: 189, A: 255},
	color.RGBA{R: 140, G: 86, B: 75, A: 255},
	color.RGBA{R: 227, G: 119, B: 194, A: 255},
	color.RGBA{R: 127, G: 127, B: 127, A: 255},
	color.RGBA{R: 188, G: 189, B: 34, A: 255},
	color.RGBA{R: 23, G: 190, B: 207, A: 255},
}

// Curve is one channel's statistics for one group, ordered by phase.
type Curve struct {
	Group   gaitcycle.GroupKey
	Channel string
	// PhaseIndex holds the grid position of each cell; cells with no
	// contributing sample are absent.
	PhaseIndex []int
	Phase      []float64
	Mean       []float64
	SD         []float64
	Count      []int
}

// Curves regroups aggregate statistics into one curve per (group, channel),
// keeping the order in which they appear.
func Curves(stats []gaitcycle.AggregateStat) []Curve {
	index := make(map[string]int)
	var out []Curve
	for _, s := range stats {
		k := s.Group.String() + "\x1f" + s.Channel
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, Curve{Group: s.Group, Channel: s.Channel})
		}
		c := &out[i]
		c.PhaseIndex = append(c.PhaseIndex, s.PhaseIndex)
		c.Phase = append(c.Phase, s.Phase)
		c.Mean = append(c.Mean, s.Mean)
		c.SD = append(c.SD, s.SD)
		c.Count = append(c.Count, s.Count)
	}
	return out
}

// MeanSDPlot saves the mean curve with a shaded ±1 SD band.
func MeanSDPlot(path string, c Curve) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s: %s (mean ± SD)", c.Channel, c.Group.Label())
	p.X.Label.Text = phaseLabel
	p.Y.Label.Text = c.Channel

	band := make(plotter.XYs, 0, 2*len(c.Phase))
	for i := range c.Phase {
		band = append(band, plotter.XY{X: c.Phase[i], Y: c.Mean[i] + c.SD[i]})
	}
	for i := len(c.Phase) - 1; i >= 0; i-- {
		band = append(band, plotter.XY{X: c.Phase[i], Y: c.Mean[i] - c.SD[i]})
	}
	poly, err := plotter.NewPolygon(band)
	if err != nil {
		return err
	}
	poly.Color = bandColor
	poly.LineStyle.Width = 0
	p.Add(poly)

	mean, err := plotter.NewLine(points(c.Phase, c.Mean))
	if err != nil {
		return err
	}
	mean.Color = lineColor
	mean.Width = vg.Points(1.5)
	p.Add(mean)
	p.Legend.Add("mean", mean)
	p.Legend.Add("± 1 SD", poly)
	p.Legend.Top = true

	return save(p, path)
}

// ComparisonPlot saves the mean curves of several groups for one channel.
func ComparisonPlot(path, channel string, curves []Curve) error {
	if len(curves) == 0 {
		return fmt.Errorf("no curves to compare for %s", channel)
	}
	p := plot.New()
	labels := make([]string, len(curves))
	for i, c := range curves {
		labels[i] = c.Group.Label()
	}
	p.Title.Text = fmt.Sprintf("%s: %s", channel, strings.Join(labels, " vs "))
	p.X.Label.Text = phaseLabel
	p.Y.Label.Text = channel

	for i, c := range curves {
		line, err := plotter.NewLine(points(c.Phase, c.Mean))
		if err != nil {
			return err
		}
		line.Color = palette[i%len(palette)]
		line.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(labels[i], line)
	}
	p.Legend.Top = true

	return save(p, path)
}

// CyclesPlot saves every cycle of one channel as a thin line with their mean
// on top. NaN samples are left out of each line.
func CyclesPlot(path, channel, title string, cycles []gaitcycle.NormalizedCycle) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = phaseLabel
	p.Y.Label.Text = channel

	var phase []float64
	var sum []float64
	var count []int
	drawn := 0
	for _, c := range cycles {
		v, ok := c.Value(channel)
		if !ok {
			continue
		}
		if phase == nil {
			phase = c.Phase
			sum = make([]float64, len(phase))
			count = make([]int, len(phase))
		}
		xys := points(c.Phase, v)
		if len(xys) == 0 {
			continue
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return err
		}
		line.Color = cycleColor
		line.Width = vg.Points(0.5)
		p.Add(line)
		if drawn == 0 {
			p.Legend.Add("cycles", line)
		}
		drawn++
		if len(v) == len(sum) {
			for i, x := range v {
				if !math.IsNaN(x) {
					sum[i] += x
					count[i]++
				}
			}
		}
	}
	if drawn == 0 {
		return fmt.Errorf("no cycles carry channel %s", channel)
	}

	mean := make([]float64, len(sum))
	for i := range sum {
		mean[i] = math.NaN()
		if count[i] > 0 {
			mean[i] = sum[i] / float64(count[i])
		}
	}
	meanLine, err := plotter.NewLine(points(phase, mean))
	if err != nil {
		return err
	}
	meanLine.Color = meanColor
	meanLine.Width = vg.Points(2)
	p.Add(meanLine)
	p.Legend.Add("mean", meanLine)
	p.Legend.Top = true

	return save(p, path)
}

func points(x, y []float64) plotter.XYs {
	out := make(plotter.XYs, 0, len(x))
	for i := range x {
		if i >= len(y) || math.IsNaN(y[i]) || math.IsInf(y[i], 0) {
			continue
		}
		out = append(out, plotter.XY{X: x[i], Y: y[i]})
	}
	return out
}

func save(p *plot.Plot, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return p.Save(14*vg.Inch, 6*vg.Inch, path)
}

// FileSafe replaces characters that do not belong in a file name.
func FileSafe(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
