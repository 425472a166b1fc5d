// Package musclemodel computes muscle-tendon lengths from joint angles
// through a musculoskeletal model.
package musclemodel

import (
	"fmt"
	"math"
	"sort"

	"github.com/spf13/viper"
)

// Model is the boundary to a musculoskeletal model. Coordinates are set in
// radians, the pose is realized, then muscle lengths are read.
type Model interface {
	SetCoordinate(name string, radians float64) error
	RealizePosition() error
	MuscleLength(name string) (float64, error)
}

// MuscleSpec describes one muscle of a LinearModel.
type MuscleSpec struct {
	RestLength float64            `mapstructure:"rest_length"`
	MomentArms map[string]float64 `mapstructure:"moment_arms"`
}

// LinearModel approximates each muscle-tendon length as
// rest_length + sum(moment_arm[c] * q[c]) over its coordinates.
type LinearModel struct {
	Name        string                `mapstructure:"name"`
	Coordinates map[string]float64    `mapstructure:"coordinates"`
	Muscles     map[string]MuscleSpec `mapstructure:"muscles"`

	q       map[string]float64
	lengths map[string]float64
}

// LoadLinearModel reads a LinearModel from a YAML (or any viper-supported) file.
func LoadLinearModel(path string) (*LinearModel, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}
	var raw LinearModel
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("unmarshal model %s: %w", path, err)
	}
	m, err := NewLinearModel(raw.Name, raw.Coordinates, raw.Muscles)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	return m, nil
}

// NewLinearModel builds a model from default coordinate values and muscles.
func NewLinearModel(name string, coordinates map[string]float64, muscles map[string]MuscleSpec) (*LinearModel, error) {
	m := &LinearModel{Name: name, Coordinates: coordinates, Muscles: muscles}
	if err := m.init(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *LinearModel) init() error {
	if len(m.Muscles) == 0 {
		return fmt.Errorf("model defines no muscles")
	}
	if m.Coordinates == nil {
		m.Coordinates = make(map[string]float64)
	}
	for name, spec := range m.Muscles {
		for c := range spec.MomentArms {
			if _, ok := m.Coordinates[c]; !ok {
				// Coordinates only referenced by a moment arm default to 0 rad.
				m.Coordinates[c] = 0
			}
		}
		if spec.RestLength <= 0 {
			return fmt.Errorf("muscle %s: rest_length must be positive", name)
		}
	}
	m.q = make(map[string]float64, len(m.Coordinates))
	for c, v := range m.Coordinates {
		m.q[c] = v
	}
	return m.RealizePosition()
}

// CoordinateNames returns the model's coordinates, sorted.
func (m *LinearModel) CoordinateNames() []string {
	out := make([]string, 0, len(m.Coordinates))
	for c := range m.Coordinates {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// MuscleNames returns the model's muscles, sorted.
func (m *LinearModel) MuscleNames() []string {
	out := make([]string, 0, len(m.Muscles))
	for name := range m.Muscles {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// SetCoordinate sets one coordinate value for the next RealizePosition.
func (m *LinearModel) SetCoordinate(name string, radians float64) error {
	if _, ok := m.q[name]; !ok {
		return fmt.Errorf("unknown coordinate %q", name)
	}
	m.q[name] = radians
	return nil
}

// RealizePosition recomputes every muscle length from the current coordinates.
func (m *LinearModel) RealizePosition() error {
	if m.lengths == nil {
		m.lengths = make(map[string]float64, len(m.Muscles))
	}
	for name, spec := range m.Muscles {
		l := spec.RestLength
		for c, arm := range spec.MomentArms {
			l += arm * m.q[c]
		}
		if math.IsInf(l, 0) {
			return fmt.Errorf("muscle %s: length overflow", name)
		}
		m.lengths[name] = l
	}
	return nil
}

// MuscleLength returns the length from the last RealizePosition.
func (m *LinearModel) MuscleLength(name string) (float64, error) {
	l, ok := m.lengths[name]
	if !ok {
		return 0, fmt.Errorf("unknown muscle %q", name)
	}
	return l, nil
}
