package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	gaitcycle "github.com/lucasjlepore/gait-analyzer"
)

// CycleTagColumns returns the sorted union of tag names across cycles.
func CycleTagColumns(cycles []gaitcycle.NormalizedCycle) []string {
	set := make(map[string]struct{})
	for _, c := range cycles {
		for k := range c.Tags {
			set[k] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// CycleChannels returns every channel in order of first appearance.
func CycleChannels(cycles []gaitcycle.NormalizedCycle) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range cycles {
		for _, ch := range c.Channels {
			if !seen[ch] {
				seen[ch] = true
				out = append(out, ch)
			}
		}
	}
	return out
}

// WriteCyclesCSV writes the per-cycle table: tag columns, cycle, phase, then
// one column per channel. Nil tagColumns or channels use every one present.
func WriteCyclesCSV(w io.Writer, cycles []gaitcycle.NormalizedCycle, tagColumns, channels []string) error {
	if tagColumns == nil {
		tagColumns = CycleTagColumns(cycles)
	}
	if channels == nil {
		channels = CycleChannels(cycles)
	}

	cw := csv.NewWriter(w)
	header := append(append([]string(nil), tagColumns...), "cycle", "phase")
	header = append(header, channels...)
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for _, c := range cycles {
		for i, k := range tagColumns {
			row[i] = c.Tags[k]
		}
		base := len(tagColumns)
		row[base] = strconv.Itoa(c.Number)
		for p, phase := range c.Phase {
			row[base+1] = formatFloat(phase)
			for j, ch := range channels {
				row[base+2+j] = ""
				if v, ok := c.Value(ch); ok {
					row[base+2+j] = formatFloat(v[p])
				}
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCyclesCSVFile creates path and writes the per-cycle table.
func WriteCyclesCSVFile(path string, cycles []gaitcycle.NormalizedCycle, tagColumns, channels []string) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteCyclesCSV(w, cycles, tagColumns, channels)
	})
}

// ReadCyclesCSV parses a per-cycle table. Columns before "cycle" are tags and
// columns after "phase" are channels. Consecutive rows with the same tags and
// cycle number form one cycle.
func ReadCyclesCSV(r io.Reader) ([]gaitcycle.NormalizedCycle, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty csv")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cycleIdx, phaseIdx := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case "cycle":
			cycleIdx = i
		case "phase":
			phaseIdx = i
		}
	}
	if cycleIdx < 0 || phaseIdx != cycleIdx+1 {
		return nil, fmt.Errorf("per-cycle table needs adjacent cycle and phase columns")
	}
	tagNames := header[:cycleIdx]
	channels := header[phaseIdx+1:]

	var out []gaitcycle.NormalizedCycle
	var cur *gaitcycle.NormalizedCycle
	var curKey string
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		line++

		number, err := strconv.Atoi(rec[cycleIdx])
		if err != nil {
			return nil, fmt.Errorf("row %d: cycle %q: %w", line, rec[cycleIdx], err)
		}
		phase, err := strconv.ParseFloat(rec[phaseIdx], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: phase %q: %w", line, rec[phaseIdx], err)
		}
		key := strings.Join(rec[:phaseIdx], "\x1f")
		if cur == nil || key != curKey {
			tags := make(gaitcycle.Tags, len(tagNames))
			for i, name := range tagNames {
				tags[name] = rec[i]
			}
			out = append(out, gaitcycle.NormalizedCycle{
				Number:   number,
				Tags:     tags,
				Channels: append([]string(nil), channels...),
				Values:   make(map[string][]float64, len(channels)),
			})
			cur = &out[len(out)-1]
			curKey = key
		}
		cur.Phase = append(cur.Phase, phase)
		for j, ch := range channels {
			v, ok := parseCell(rec[phaseIdx+1+j])
			if !ok {
				return nil, fmt.Errorf("row %d: %s value %q is not numeric", line, ch, rec[phaseIdx+1+j])
			}
			cur.Values[ch] = append(cur.Values[ch], v)
		}
	}
	for i := range out {
		out[i].RawLength = len(out[i].Phase)
	}
	return out, nil
}

// ReadCyclesCSVFile opens path and parses it with ReadCyclesCSV.
func ReadCyclesCSVFile(path string) ([]gaitcycle.NormalizedCycle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return ReadCyclesCSV(f)
}

// WriteStatsCSV writes the aggregate table: group columns, phase, n_cycles,
// then mean_, sd_ and n_ columns per channel. n_cycles is the largest
// per-channel count at that phase.
func WriteStatsCSV(w io.Writer, stats []gaitcycle.AggregateStat, channels []string) error {
	if channels == nil {
		seen := make(map[string]bool)
		for _, s := range stats {
			if !seen[s.Channel] {
				seen[s.Channel] = true
				channels = append(channels, s.Channel)
			}
		}
	}
	var groupNames []string
	if len(stats) > 0 {
		groupNames = stats[0].Group.Names
	}
	chIndex := make(map[string]int, len(channels))
	for i, ch := range channels {
		chIndex[ch] = i
	}

	type rowKey struct {
		group string
		phase int
	}
	type wideRow struct {
		group gaitcycle.GroupKey
		phase float64
		cells []*gaitcycle.AggregateStat
	}
	rows := make(map[rowKey]*wideRow)
	var order []rowKey
	for i := range stats {
		s := &stats[i]
		j, ok := chIndex[s.Channel]
		if !ok {
			continue
		}
		k := rowKey{group: s.Group.String(), phase: s.PhaseIndex}
		r, ok := rows[k]
		if !ok {
			r = &wideRow{group: s.Group, phase: s.Phase, cells: make([]*gaitcycle.AggregateStat, len(channels))}
			rows[k] = r
			order = append(order, k)
		}
		r.cells[j] = s
	}
	groupRank := make(map[string]int)
	for _, k := range order {
		if _, ok := groupRank[k.group]; !ok {
			groupRank[k.group] = len(groupRank)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := groupRank[order[a].group], groupRank[order[b].group]
		if ra != rb {
			return ra < rb
		}
		return order[a].phase < order[b].phase
	})

	cw := csv.NewWriter(w)
	header := append(append([]string(nil), groupNames...), "phase", "n_cycles")
	for _, ch := range channels {
		header = append(header, "mean_"+ch, "sd_"+ch, "n_"+ch)
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, k := range order {
		r := rows[k]
		row := append([]string(nil), r.group.Values...)
		maxN := 0
		for _, c := range r.cells {
			if c != nil && c.Count > maxN {
				maxN = c.Count
			}
		}
		row = append(row, formatFloat(r.phase), strconv.Itoa(maxN))
		for _, c := range r.cells {
			if c == nil {
				row = append(row, "", "", "0")
				continue
			}
			row = append(row, formatFloat(c.Mean), formatFloat(c.SD), strconv.Itoa(c.Count))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteStatsCSVFile creates path and writes the aggregate table.
func WriteStatsCSVFile(path string, stats []gaitcycle.AggregateStat, channels []string) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteStatsCSV(w, stats, channels)
	})
}
