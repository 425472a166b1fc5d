package gaitcycle

import (
	"math"
	"sort"
	"strings"
)

// CycleExtrema is the peak, minimum and range of one channel within one cycle.
type CycleExtrema struct {
	Number    int     `json:"cycle"`
	Tags      Tags    `json:"tags"`
	Channel   string  `json:"channel"`
	Peak      float64 `json:"peak"`
	PeakPhase float64 `json:"peak_phase"`
	Min       float64 `json:"min"`
	MinPhase  float64 `json:"min_phase"`
	ROM       float64 `json:"rom"`
}

// Extrema returns per-channel extrema of a normalized cycle. Channels with no
// finite samples are skipped.
func Extrema(nc NormalizedCycle, channels []string) []CycleExtrema {
	if len(channels) == 0 {
		channels = nc.Channels
	}
	out := make([]CycleExtrema, 0, len(channels))
	for _, ch := range channels {
		v, ok := nc.Values[ch]
		if !ok {
			continue
		}
		hi, lo := -1, -1
		for i, x := range v {
			if math.IsNaN(x) {
				continue
			}
			if hi < 0 || x > v[hi] {
				hi = i
			}
			if lo < 0 || x < v[lo] {
				lo = i
			}
		}
		if hi < 0 {
			continue
		}
		out = append(out, CycleExtrema{
			Number:    nc.Number,
			Tags:      nc.Tags,
			Channel:   ch,
			Peak:      v[hi],
			PeakPhase: nc.Phase[hi],
			Min:       v[lo],
			MinPhase:  nc.Phase[lo],
			ROM:       v[hi] - v[lo],
		})
	}
	return out
}

// ExtremaSummary is the across-cycle mean and SD of the per-cycle extrema.
type ExtremaSummary struct {
	Group   GroupKey `json:"group"`
	Channel string   `json:"channel"`
	Cycles  int      `json:"cycles"`

	PeakMean float64 `json:"peak_mean"`
	PeakSD   float64 `json:"peak_sd"`
	MinMean  float64 `json:"min_mean"`
	MinSD    float64 `json:"min_sd"`
	ROMMean  float64 `json:"rom_mean"`
	ROMSD    float64 `json:"rom_sd"`
}

// SummarizeExtrema groups cycles like Aggregate and summarises their extrema.
func SummarizeExtrema(cycles []NormalizedCycle, groupBy []string, channels []string) []ExtremaSummary {
	if len(channels) == 0 {
		channels = channelUnion(cycles)
	}
	type acc struct {
		key            GroupKey
		peak, min, rom map[string][]float64
	}
	groups := make(map[string]*acc)
	for _, c := range cycles {
		k := groupKeyFor(c.Tags, groupBy)
		id := strings.Join(k.Values, "\x1f")
		a, ok := groups[id]
		if !ok {
			a = &acc{key: k, peak: map[string][]float64{}, min: map[string][]float64{}, rom: map[string][]float64{}}
			groups[id] = a
		}
		for _, e := range Extrema(c, channels) {
			a.peak[e.Channel] = append(a.peak[e.Channel], e.Peak)
			a.min[e.Channel] = append(a.min[e.Channel], e.Min)
			a.rom[e.Channel] = append(a.rom[e.Channel], e.ROM)
		}
	}
	ordered := make([]*acc, 0, len(groups))
	for _, a := range groups {
		ordered = append(ordered, a)
	}
	sort.Slice(ordered, func(i, j int) bool { return lessKey(ordered[i].key, ordered[j].key) })

	var out []ExtremaSummary
	for _, a := range ordered {
		for _, ch := range channels {
			if len(a.peak[ch]) == 0 {
				continue
			}
			s := ExtremaSummary{Group: a.key, Channel: ch, Cycles: len(a.peak[ch])}
			s.PeakMean, s.PeakSD = meanSD(a.peak[ch])
			s.MinMean, s.MinSD = meanSD(a.min[ch])
			s.ROMMean, s.ROMSD = meanSD(a.rom[ch])
			out = append(out, s)
		}
	}
	return out
}
