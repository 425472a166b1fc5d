package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	gaitcycle "github.com/lucasjlepore/gait-analyzer"
	"github.com/lucasjlepore/gait-analyzer/tabular"
)

type loadedTrial struct {
	series      *gaitcycle.TimeSeries
	ignored     []string
	duplicates  []string
	droppedRows int // most samples any input lost in the join
}

// loadInputs reads every input of a trial and joins them into one series.
// Relative paths resolve against baseDir.
func loadInputs(inputs []string, baseDir, timeColumn, join string) (*loadedTrial, error) {
	out := &loadedTrial{}
	parts := make([]*gaitcycle.TimeSeries, 0, len(inputs))
	for _, in := range inputs {
		path := in
		if !filepath.IsAbs(path) && baseDir != "" {
			path = filepath.Join(baseDir, path)
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".fit":
			ts, err := tabular.ReadFITFile(path)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			parts = append(parts, ts)
		default:
			res, err := tabular.ReadCSVFile(path, timeColumn)
			if err != nil {
				return nil, err
			}
			out.ignored = append(out.ignored, res.Ignored...)
			parts = append(parts, res.Series)
		}
	}
	if len(parts) == 1 {
		out.series = parts[0]
		return out, nil
	}

	joined, err := tabular.Join(join, parts...)
	if err != nil {
		return nil, fmt.Errorf("join inputs: %w", err)
	}
	out.series = joined.Series
	out.duplicates = joined.Duplicates
	out.droppedRows = joined.DroppedRows()
	return out, nil
}
