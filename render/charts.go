package render

import (
	"fmt"
	"path/filepath"

	gaitcycle "github.com/lucasjlepore/gait-analyzer"
)

// Chart file name patterns.
const (
	meanSDPattern     = "%s_%s_mean_sd.png"
	comparisonPattern = "%s_comparison.png"
	cyclesPattern     = "%s_%s_cycles.png"
)

// WritePNGs draws, for every channel: a mean ± SD chart and an all-cycles
// chart per group, plus a comparison chart when there are several groups.
// It returns the paths written, in order.
func WritePNGs(dir string, cycles []gaitcycle.NormalizedCycle, stats []gaitcycle.AggregateStat, groupBy []string) ([]string, error) {
	curves := Curves(stats)
	var written []string

	var channels []string
	byChannel := make(map[string][]Curve)
	for _, c := range curves {
		if _, ok := byChannel[c.Channel]; !ok {
			channels = append(channels, c.Channel)
		}
		byChannel[c.Channel] = append(byChannel[c.Channel], c)
	}

	for _, ch := range channels {
		for _, c := range byChannel[ch] {
			label := FileSafe(c.Group.Label())
			path := filepath.Join(dir, fmt.Sprintf(meanSDPattern, FileSafe(ch), label))
			if err := MeanSDPlot(path, c); err != nil {
				return written, fmt.Errorf("plot %s: %w", path, err)
			}
			written = append(written, path)

			members := cyclesIn(cycles, c.Group, groupBy)
			path = filepath.Join(dir, fmt.Sprintf(cyclesPattern, FileSafe(ch), label))
			title := fmt.Sprintf("%s: %s (%d cycles)", ch, c.Group.Label(), len(members))
			if err := CyclesPlot(path, ch, title, members); err != nil {
				return written, fmt.Errorf("plot %s: %w", path, err)
			}
			written = append(written, path)
		}
		if len(byChannel[ch]) > 1 {
			path := filepath.Join(dir, fmt.Sprintf(comparisonPattern, FileSafe(ch)))
			if err := ComparisonPlot(path, ch, byChannel[ch]); err != nil {
				return written, fmt.Errorf("plot %s: %w", path, err)
			}
			written = append(written, path)
		}
	}
	return written, nil
}

func cyclesIn(cycles []gaitcycle.NormalizedCycle, key gaitcycle.GroupKey, groupBy []string) []gaitcycle.NormalizedCycle {
	var out []gaitcycle.NormalizedCycle
	for _, c := range cycles {
		match := true
		for i, name := range groupBy {
			if i >= len(key.Values) || c.Tags[name] != key.Values[i] {
				match = false
				break
			}
		}
		if match {
			out = append(out, c)
		}
	}
	return out
}
