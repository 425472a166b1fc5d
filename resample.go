package gaitcycle

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
)

// DefaultPhasePoints gives a 0..100 grid in 1% steps.
const DefaultPhasePoints = 101

// Domain selects how raw samples are placed on the unit interval.
type Domain string

const (
	// DomainAuto uses index fractions when sampling is uniform, elapsed time otherwise.
	DomainAuto Domain = "auto"
	// DomainTime uses (t - t0) / (tLast - t0).
	DomainTime Domain = "time"
	// DomainIndex uses j / (M - 1).
	DomainIndex Domain = "index"
)

// uniformTolerance is the relative spread of sample intervals still treated as uniform.
const uniformTolerance = 1e-6

// ParseDomain maps a config string to a Domain.
func ParseDomain(s string) (Domain, error) {
	switch Domain(s) {
	case "", DomainAuto:
		return DomainAuto, nil
	case DomainTime, DomainIndex:
		return Domain(s), nil
	default:
		return "", fmt.Errorf("unknown resample domain %q (expected auto|time|index)", s)
	}
}

// ResampleOptions controls the phase grid.
type ResampleOptions struct {
	Points int
	Domain Domain
}

// NormalizedCycle is one cycle on the fixed phase grid.
type NormalizedCycle struct {
	Number    int
	Tags      Tags
	RawLength int
	Domain    Domain
	Phase     []float64
	Channels  []string
	Values    map[string][]float64
}

// Value returns the resampled values of a channel.
func (nc NormalizedCycle) Value(channel string) ([]float64, bool) {
	v, ok := nc.Values[channel]
	return v, ok
}

// PhaseGrid returns n evenly spaced phase labels from 0 to 100 inclusive.
func PhaseGrid(n int) []float64 {
	return span(n, 0, 100)
}

// span is floats.Span with the last element pinned to u.
func span(n int, l, u float64) []float64 {
	s := floats.Span(make([]float64, n), l, u)
	s[n-1] = u
	return s
}

// Resample maps the cycle onto opts.Points evenly spaced phases with
// piecewise-linear interpolation. Targets outside the source domain take the
// nearest endpoint value. Output depends only on the inputs.
func Resample(c Cycle, channels []string, opts ResampleOptions) (NormalizedCycle, error) {
	n := opts.Points
	if n == 0 {
		n = DefaultPhasePoints
	}
	if n < 2 {
		return NormalizedCycle{}, fmt.Errorf("phase grid needs at least 2 points, got %d", n)
	}
	series := c.Series()
	if series == nil || series.Len() < 2 {
		return NormalizedCycle{}, fmt.Errorf("cycle %d has fewer than 2 samples", c.Number)
	}
	if len(channels) == 0 {
		channels = series.ChannelNames()
	}
	if err := series.Require(channels...); err != nil {
		return NormalizedCycle{}, err
	}

	domain := opts.Domain
	if domain == "" {
		domain = DomainAuto
	}
	xs, keep, used := sourceDomain(series.Time(), domain)

	target := span(n, 0, 1)
	out := NormalizedCycle{
		Number:    c.Number,
		Tags:      c.Tags.Clone(),
		RawLength: c.RawLength,
		Domain:    used,
		Phase:     PhaseGrid(n),
		Channels:  append([]string(nil), channels...),
		Values:    make(map[string][]float64, len(channels)),
	}
	for _, name := range channels {
		raw, _ := series.Channel(name)
		ys := make([]float64, len(xs))
		for j, idx := range keep {
			ys[j] = raw[idx]
		}
		var pl interp.PiecewiseLinear
		if err := pl.Fit(xs, ys); err != nil {
			return NormalizedCycle{}, fmt.Errorf("fit %q in cycle %d: %w", name, c.Number, err)
		}
		vals := make([]float64, n)
		for i, x := range target {
			vals[i] = pl.Predict(x)
		}
		out.Values[name] = vals
	}
	return out, nil
}

// sourceDomain places samples on [0,1] and returns the kept sample indices
// and the domain actually used. Repeated timestamps keep the first sample of
// each run.
func sourceDomain(t []float64, domain Domain) ([]float64, []int, Domain) {
	m := len(t)
	if domain == DomainAuto {
		if uniformSpacing(t) {
			domain = DomainIndex
		} else {
			domain = DomainTime
		}
	}
	if domain == DomainTime {
		keep := make([]int, 0, m)
		for j := range t {
			if len(keep) > 0 && t[j] <= t[keep[len(keep)-1]] {
				continue
			}
			keep = append(keep, j)
		}
		if len(keep) >= 2 {
			t0 := t[keep[0]]
			dur := t[keep[len(keep)-1]] - t0
			xs := make([]float64, len(keep))
			for j, idx := range keep {
				xs[j] = (t[idx] - t0) / dur
			}
			return xs, keep, DomainTime
		}
	}
	keep := make([]int, m)
	for j := range keep {
		keep[j] = j
	}
	return span(m, 0, 1), keep, DomainIndex
}

func uniformSpacing(t []float64) bool {
	if len(t) < 3 {
		return true
	}
	mean := (t[len(t)-1] - t[0]) / float64(len(t)-1)
	if mean <= 0 {
		return false
	}
	for j := 1; j < len(t); j++ {
		if math.Abs((t[j]-t[j-1])-mean) > uniformTolerance*mean {
			return false
		}
	}
	return true
}
