package gaitcycle

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// GroupKey identifies one aggregation group by the values of the grouping tags.
type GroupKey struct {
	Names  []string `json:"names"`
	Values []string `json:"values"`
}

// String renders the key as "subject=S135,trial=T01"; the empty key is "all".
func (k GroupKey) String() string {
	if len(k.Names) == 0 {
		return "all"
	}
	parts := make([]string, len(k.Names))
	for i, n := range k.Names {
		parts[i] = n + "=" + k.Values[i]
	}
	return strings.Join(parts, ",")
}

// Label joins the values only, for file names and chart legends.
func (k GroupKey) Label() string {
	if len(k.Values) == 0 {
		return "all"
	}
	return strings.Join(k.Values, "_")
}

func groupKeyFor(tags Tags, groupBy []string) GroupKey {
	k := GroupKey{Names: groupBy, Values: make([]string, len(groupBy))}
	for i, n := range groupBy {
		k.Values[i] = tags[n]
	}
	return k
}

func lessKey(a, b GroupKey) bool {
	for i := range a.Values {
		if a.Values[i] != b.Values[i] {
			return a.Values[i] < b.Values[i]
		}
	}
	return false
}

// AggregateStat holds the statistics of one (group, channel, phase) cell.
type AggregateStat struct {
	Group      GroupKey
	Channel    string
	PhaseIndex int
	Phase      float64
	Mean       float64
	// SD is the sample standard deviation, 0 when Count is 1.
	SD    float64
	Count int
}

// Aggregate computes per-phase mean, SD and count for each channel within
// each group of cycles. NaN samples do not contribute. Cells without
// contributors are omitted. Output is ordered by group, then by the order of
// channels, then by phase.
func Aggregate(cycles []NormalizedCycle, groupBy []string, channels []string) ([]AggregateStat, error) {
	if len(cycles) == 0 {
		return nil, nil
	}
	phase := cycles[0].Phase
	for _, c := range cycles[1:] {
		if !samePhase(phase, c.Phase) {
			return nil, fmt.Errorf("cycle %d (%s) uses a %d-point phase grid, expected %d", c.Number, c.Tags, len(c.Phase), len(phase))
		}
	}
	if len(channels) == 0 {
		channels = channelUnion(cycles)
	}

	groups := make(map[string][]NormalizedCycle)
	keys := make(map[string]GroupKey)
	for _, c := range cycles {
		k := groupKeyFor(c.Tags, groupBy)
		id := strings.Join(k.Values, "\x1f")
		if _, ok := keys[id]; !ok {
			keys[id] = k
		}
		groups[id] = append(groups[id], c)
	}
	ordered := make([]string, 0, len(keys))
	for id := range keys {
		ordered = append(ordered, id)
	}
	sort.Slice(ordered, func(i, j int) bool { return lessKey(keys[ordered[i]], keys[ordered[j]]) })

	var out []AggregateStat
	column := make([]float64, 0, len(cycles))
	for _, id := range ordered {
		key, members := keys[id], groups[id]
		for _, ch := range channels {
			for p := range phase {
				column = column[:0]
				for _, c := range members {
					v, ok := c.Values[ch]
					if !ok || math.IsNaN(v[p]) {
						continue
					}
					column = append(column, v[p])
				}
				if len(column) == 0 {
					continue
				}
				mean, sd := meanSD(column)
				out = append(out, AggregateStat{
					Group:      key,
					Channel:    ch,
					PhaseIndex: p,
					Phase:      phase[p],
					Mean:       mean,
					SD:         sd,
					Count:      len(column),
				})
			}
		}
	}
	return out, nil
}

// meanSD returns the mean and sample standard deviation, with SD 0 for one value.
func meanSD(x []float64) (float64, float64) {
	if len(x) == 1 {
		return x[0], 0
	}
	return stat.MeanStdDev(x, nil)
}

func samePhase(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func channelUnion(cycles []NormalizedCycle) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, c := range cycles {
		for _, ch := range c.Channels {
			if _, ok := seen[ch]; ok {
				continue
			}
			seen[ch] = struct{}{}
			out = append(out, ch)
		}
	}
	return out
}
