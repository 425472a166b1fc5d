package musclemodel

import (
	"fmt"
	"math"

	gaitcycle "github.com/lucasjlepore/gait-analyzer"
	"github.com/lucasjlepore/gait-analyzer/tabular"
)

// LengthSuffix is appended to muscle names to form output channels.
const LengthSuffix = "_length"

// DefaultMuscles are the Gait2392 muscles reported by default.
var DefaultMuscles = []string{
	"med_gas_r",
	"soleus_r",
	"tib_ant_r",
	"vas_lat_r",
	"rect_fem_r",
	"glut_med1_r",
}

// LengthResult carries computed lengths and the angle columns that were absent.
type LengthResult struct {
	Series  *gaitcycle.TimeSeries
	Missing []string
}

// ComputeLengths poses the model at every sample of angles (degrees, named by
// mapping sources) and reads each muscle's length. Coordinates without a
// source column keep the model's values.
func ComputeLengths(model Model, angles *gaitcycle.TimeSeries, mapping []tabular.ColumnMapping, muscles []string) (*LengthResult, error) {
	if len(muscles) == 0 {
		muscles = DefaultMuscles
	}

	type source struct {
		coordinate string
		values     []float64
	}
	var sources []source
	res := &LengthResult{}
	for _, m := range mapping {
		col, err := angles.Channel(m.Source)
		if err != nil {
			res.Missing = append(res.Missing, m.Source)
			continue
		}
		sources = append(sources, source{coordinate: m.Coordinate, values: col})
	}

	n := angles.Len()
	out := make([][]float64, len(muscles))
	for j := range out {
		out[j] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for _, s := range sources {
			if err := model.SetCoordinate(s.coordinate, s.values[i]*math.Pi/180); err != nil {
				return nil, fmt.Errorf("sample %d: %w", i, err)
			}
		}
		if err := model.RealizePosition(); err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		for j, name := range muscles {
			l, err := model.MuscleLength(name)
			if err != nil {
				return nil, fmt.Errorf("sample %d: %w", i, err)
			}
			out[j][i] = l
		}
	}

	names := make([]string, len(muscles))
	for j, name := range muscles {
		names[j] = name + LengthSuffix
	}
	ts, err := gaitcycle.NewTimeSeries(angles.Time(), names, out)
	if err != nil {
		return nil, err
	}
	res.Series = ts
	return res, nil
}
