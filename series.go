package gaitcycle

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// TimeSeries is a columnar table of samples: one time array plus named channels
// of equal length. It is not modified after construction.
type TimeSeries struct {
	time     []float64
	channels map[string][]float64
	order    []string
}

// NewTimeSeries validates and wraps columnar data. Channel names must be unique,
// every column must match the time array's length, and time must be non-decreasing.
func NewTimeSeries(time []float64, names []string, columns [][]float64) (*TimeSeries, error) {
	if len(names) != len(columns) {
		return nil, fmt.Errorf("%d channel names for %d columns", len(names), len(columns))
	}
	for i, t := range time {
		if math.IsNaN(t) {
			return nil, fmt.Errorf("time is NaN at sample %d", i)
		}
		if i > 0 && t < time[i-1] {
			return nil, fmt.Errorf("time decreases at sample %d (%g after %g)", i, t, time[i-1])
		}
	}
	ts := &TimeSeries{
		time:     time,
		channels: make(map[string][]float64, len(names)),
		order:    make([]string, 0, len(names)),
	}
	for i, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("channel %d has an empty name", i)
		}
		if _, dup := ts.channels[name]; dup {
			return nil, fmt.Errorf("duplicate channel %q", name)
		}
		if len(columns[i]) != len(time) {
			return nil, &SeriesLengthMismatchError{What: "time vs " + name, Left: len(time), Right: len(columns[i])}
		}
		ts.channels[name] = columns[i]
		ts.order = append(ts.order, name)
	}
	return ts, nil
}

// Len returns the number of samples.
func (ts *TimeSeries) Len() int { return len(ts.time) }

// Time returns the time array. Callers must not modify it.
func (ts *TimeSeries) Time() []float64 { return ts.time }

// ChannelNames returns channel names in column order.
func (ts *TimeSeries) ChannelNames() []string {
	return append([]string(nil), ts.order...)
}

// HasChannel reports whether the named channel exists.
func (ts *TimeSeries) HasChannel(name string) bool {
	_, ok := ts.channels[name]
	return ok
}

// Channel returns the named channel or a *MissingChannelError.
func (ts *TimeSeries) Channel(name string) ([]float64, error) {
	v, ok := ts.channels[name]
	if !ok {
		return nil, &MissingChannelError{Channels: []string{name}}
	}
	return v, nil
}

// Require returns a *MissingChannelError naming every absent channel, or nil.
func (ts *TimeSeries) Require(names ...string) error {
	var missing []string
	for _, n := range names {
		if !ts.HasChannel(n) {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return &MissingChannelError{Channels: missing}
	}
	return nil
}

// Slice returns the samples in [start, end) as a new series sharing storage.
func (ts *TimeSeries) Slice(start, end int) (*TimeSeries, error) {
	if start < 0 || end > ts.Len() || start > end {
		return nil, fmt.Errorf("slice [%d,%d) out of range for %d samples", start, end, ts.Len())
	}
	out := &TimeSeries{
		time:     ts.time[start:end:end],
		channels: make(map[string][]float64, len(ts.channels)),
		order:    ts.order,
	}
	for name, v := range ts.channels {
		out.channels[name] = v[start:end:end]
	}
	return out, nil
}

// Tags are opaque subject/trial identifiers carried through the pipeline.
type Tags map[string]string

// Clone returns an independent copy.
func (t Tags) Clone() Tags {
	out := make(Tags, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Keys returns tag names sorted lexicographically.
func (t Tags) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String renders tags as "k=v,k=v" in key order.
func (t Tags) String() string {
	keys := t.Keys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + t[k]
	}
	return strings.Join(parts, ",")
}
