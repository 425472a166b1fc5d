// Package tabular reads and writes the table formats exchanged with motion
// capture exports and downstream analysis: CSV, FIT activity files and
// OpenSim .mot storage.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	gaitcycle "github.com/lucasjlepore/gait-analyzer"
)

// DefaultTimeColumn is the time column name written by the NONAN exports.
const DefaultTimeColumn = "time"

// ReadResult is a parsed CSV table.
type ReadResult struct {
	Series *gaitcycle.TimeSeries
	// Ignored lists columns dropped because a cell was not numeric.
	Ignored []string
}

// ReadCSVFile opens path and parses it with ReadCSV.
func ReadCSVFile(path, timeColumn string) (*ReadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	res, err := ReadCSV(f, timeColumn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

// ReadCSV parses a header row followed by numeric rows. Empty cells read as
// NaN. A column holding any other non-numeric cell is dropped and reported in
// Ignored. The time column is required and must be numeric.
func ReadCSV(r io.Reader, timeColumn string) (*ReadResult, error) {
	if timeColumn == "" {
		timeColumn = DefaultTimeColumn
	}
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty csv")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	names := make([]string, len(header))
	timeIdx := -1
	for i, h := range header {
		names[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if names[i] == timeColumn && timeIdx < 0 {
			timeIdx = i
		}
	}
	if timeIdx < 0 {
		return nil, &gaitcycle.MissingChannelError{Channels: []string{timeColumn}}
	}

	columns := make([][]float64, len(names))
	numeric := make([]bool, len(names))
	for i := range numeric {
		numeric[i] = true
	}

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
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if len(rec) != len(names) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", line, len(rec), len(names))
		}
		for i, cell := range rec {
			if !numeric[i] {
				continue
			}
			v, ok := parseCell(cell)
			if !ok {
				if i == timeIdx {
					return nil, fmt.Errorf("row %d: time %q is not numeric", line, cell)
				}
				numeric[i] = false
				columns[i] = nil
				continue
			}
			columns[i] = append(columns[i], v)
		}
	}

	res := &ReadResult{}
	var keepNames []string
	var keep [][]float64
	seen := map[string]bool{timeColumn: true}
	for i, name := range names {
		if i == timeIdx {
			continue
		}
		if !numeric[i] {
			res.Ignored = append(res.Ignored, name)
			continue
		}
		if name == "" || seen[name] {
			res.Ignored = append(res.Ignored, name)
			continue
		}
		seen[name] = true
		keepNames = append(keepNames, name)
		keep = append(keep, columns[i])
	}

	timeCol := columns[timeIdx]
	if timeCol == nil {
		timeCol = []float64{}
	}
	for i := range keep {
		if keep[i] == nil {
			keep[i] = []float64{}
		}
	}
	ts, err := gaitcycle.NewTimeSeries(timeCol, keepNames, keep)
	if err != nil {
		return nil, err
	}
	res.Series = ts
	return res, nil
}

func parseCell(cell string) (float64, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" || strings.EqualFold(cell, "nan") {
		return math.NaN(), true
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// WriteSeriesCSV writes time followed by every channel in column order.
// Values use the shortest representation that reads back to the same float64,
// so the output can be joined on time with the series it came from.
func WriteSeriesCSV(w io.Writer, ts *gaitcycle.TimeSeries, timeColumn string) error {
	if timeColumn == "" {
		timeColumn = DefaultTimeColumn
	}
	names := ts.ChannelNames()
	cols := make([][]float64, len(names))
	for i, n := range names {
		cols[i], _ = ts.Channel(n)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{timeColumn}, names...)); err != nil {
		return err
	}
	row := make([]string, len(names)+1)
	for i, t := range ts.Time() {
		row[0] = formatExact(t)
		for j := range cols {
			row[j+1] = formatExact(cols[j][i])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSeriesCSVFile creates path and writes the series to it.
func WriteSeriesCSVFile(path string, ts *gaitcycle.TimeSeries, timeColumn string) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteSeriesCSV(w, ts, timeColumn)
	})
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func formatExact(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
