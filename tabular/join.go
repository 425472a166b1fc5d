package tabular

import (
	"fmt"

	gaitcycle "github.com/lucasjlepore/gait-analyzer"
)

// Join strategies for combining several input files of one trial.
const (
	JoinRows = "rows"
	JoinTime = "time"
)

// JoinResult is a merged series plus the channels that were dropped because
// an earlier part already provided them.
type JoinResult struct {
	Series     *gaitcycle.TimeSeries
	Duplicates []string
	// Unmatched counts, per part, the samples left out of the merged series.
	Unmatched []int
}

// DroppedRows is the largest per-part count of samples left out by the join.
func (r *JoinResult) DroppedRows() int {
	n := 0
	for _, u := range r.Unmatched {
		if u > n {
			n = u
		}
	}
	return n
}

// Join merges parts with the named strategy.
func Join(strategy string, parts ...*gaitcycle.TimeSeries) (*JoinResult, error) {
	switch strategy {
	case JoinRows, "":
		return JoinByRow(parts...)
	case JoinTime:
		return JoinOnTime(parts...)
	default:
		return nil, fmt.Errorf("unknown join strategy %q", strategy)
	}
}

// JoinByRow places the channels of every part side by side, sample by
// sample. All parts must have the same number of samples; the time array of
// the first part is kept.
func JoinByRow(parts ...*gaitcycle.TimeSeries) (*JoinResult, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("nothing to join")
	}
	n := parts[0].Len()
	for i, p := range parts[1:] {
		if p.Len() != n {
			return nil, &gaitcycle.SeriesLengthMismatchError{
				What:  fmt.Sprintf("input 1 vs input %d", i+2),
				Left:  n,
				Right: p.Len(),
			}
		}
	}

	res := &JoinResult{Unmatched: make([]int, len(parts))}
	var names []string
	var cols [][]float64
	seen := make(map[string]bool)
	for _, p := range parts {
		for _, name := range p.ChannelNames() {
			if seen[name] {
				res.Duplicates = append(res.Duplicates, name)
				continue
			}
			seen[name] = true
			col, _ := p.Channel(name)
			names = append(names, name)
			cols = append(cols, col)
		}
	}
	ts, err := gaitcycle.NewTimeSeries(parts[0].Time(), names, cols)
	if err != nil {
		return nil, err
	}
	res.Series = ts
	return res, nil
}

// JoinOnTime keeps only the time values present in every part (inner join on
// exact time). Within a run of repeated time values, samples pair up in
// order and surplus samples are dropped.
func JoinOnTime(parts ...*gaitcycle.TimeSeries) (*JoinResult, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("nothing to join")
	}
	// rows[k][j] is the sample index in part j of output row k.
	rows := make([][]int, parts[0].Len())
	for i := range rows {
		rows[i] = []int{i}
	}
	for _, p := range parts[1:] {
		rows = matchTime(parts[0].Time(), rows, p.Time())
	}

	res := &JoinResult{Unmatched: make([]int, len(parts))}
	for j, p := range parts {
		res.Unmatched[j] = p.Len() - len(rows)
	}
	time := make([]float64, len(rows))
	t0 := parts[0].Time()
	for k, r := range rows {
		time[k] = t0[r[0]]
	}
	var names []string
	var cols [][]float64
	seen := make(map[string]bool)
	for j, p := range parts {
		for _, name := range p.ChannelNames() {
			if seen[name] {
				res.Duplicates = append(res.Duplicates, name)
				continue
			}
			seen[name] = true
			src, _ := p.Channel(name)
			col := make([]float64, len(rows))
			for k, r := range rows {
				col[k] = src[r[j]]
			}
			names = append(names, name)
			cols = append(cols, col)
		}
	}
	ts, err := gaitcycle.NewTimeSeries(time, names, cols)
	if err != nil {
		return nil, err
	}
	res.Series = ts
	return res, nil
}

// matchTime walks two non-decreasing time arrays and extends each surviving
// row with the matching sample index of the right-hand part.
func matchTime(left []float64, rows [][]int, right []float64) [][]int {
	out := make([][]int, 0, len(rows))
	i, j := 0, 0
	for i < len(rows) && j < len(right) {
		lt := left[rows[i][0]]
		switch {
		case lt < right[j]:
			i++
		case lt > right[j]:
			j++
		default:
			out = append(out, append(append([]int(nil), rows[i]...), j))
			i++
			j++
		}
	}
	return out
}
