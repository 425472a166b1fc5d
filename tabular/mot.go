package tabular

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	gaitcycle "github.com/lucasjlepore/gait-analyzer"
)

// ColumnMapping renames one export column to a model coordinate.
type ColumnMapping struct {
	Source     string
	Coordinate string
}

// Gait2392Columns maps NONAN joint-angle columns (degrees) to Gait2392 coordinates.
var Gait2392Columns = []ColumnMapping{
	{"Hip Flexion LT (deg)", "hip_flexion_l"},
	{"Hip Abduction LT (deg)", "hip_adduction_l"},
	{"Hip Rotation Ext LT (deg)", "hip_rotation_l"},
	{"Knee Flexion LT (deg)", "knee_angle_l"},
	{"Ankle Dorsiflexion LT (deg)", "ankle_angle_l"},

	{"Hip Flexion RT (deg)", "hip_flexion_r"},
	{"Hip Abduction RT (deg)", "hip_adduction_r"},
	{"Hip Rotation Ext RT (deg)", "hip_rotation_r"},
	{"Knee Flexion RT (deg)", "knee_angle_r"},
	{"Ankle Dorsiflexion RT (deg)", "ankle_angle_r"},
}

// MapColumns returns time plus the mapped columns that exist, renamed to
// their coordinates in mapping order. Missing source columns are listed.
func MapColumns(ts *gaitcycle.TimeSeries, mapping []ColumnMapping) (*gaitcycle.TimeSeries, []string, error) {
	var names []string
	var cols [][]float64
	var missing []string
	for _, m := range mapping {
		col, err := ts.Channel(m.Source)
		if err != nil {
			missing = append(missing, m.Source)
			continue
		}
		names = append(names, m.Coordinate)
		cols = append(cols, col)
	}
	out, err := gaitcycle.NewTimeSeries(ts.Time(), names, cols)
	if err != nil {
		return nil, nil, err
	}
	return out, missing, nil
}

// WriteMot writes an OpenSim storage file: a short header, a tab separated
// column row, then one row per sample with six decimals.
func WriteMot(w io.Writer, name string, ts *gaitcycle.TimeSeries) error {
	if ts.Len() == 0 {
		return fmt.Errorf("cannot write an empty .mot file")
	}
	names := ts.ChannelNames()
	cols := make([][]float64, len(names))
	for i, n := range names {
		cols[i], _ = ts.Channel(n)
	}
	time := ts.Time()

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "name %s\n", name)
	fmt.Fprintf(bw, "datarows %d\n", ts.Len())
	fmt.Fprintf(bw, "datacolumns %d\n", len(names)+1)
	fmt.Fprintf(bw, "range %.6f %.6f\n", time[0], time[len(time)-1])
	fmt.Fprintln(bw, "endheader")
	fmt.Fprintln(bw, strings.Join(append([]string{"time"}, names...), "\t"))

	fields := make([]string, len(names)+1)
	for i, t := range time {
		fields[0] = fmt.Sprintf("%.6f", t)
		for j := range cols {
			fields[j+1] = fmt.Sprintf("%.6f", cols[j][i])
		}
		fmt.Fprintln(bw, strings.Join(fields, "\t"))
	}
	return bw.Flush()
}

// WriteMotFile writes ts to path, naming the storage after the file.
func WriteMotFile(path string, ts *gaitcycle.TimeSeries) error {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return writeFile(path, func(w io.Writer) error {
		return WriteMot(w, name, ts)
	})
}
