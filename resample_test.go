package gaitcycle

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cycleOf(t *testing.T, time []float64, values []float64) Cycle {
	t.Helper()
	ts := mustSeries(t, time, []string{"v"}, values)
	return Cycle{Number: 1, RawLength: ts.Len(), series: ts, Tags: Tags{"subject": "S1"}}
}

func TestResampleIdentityOnMatchingGrid(t *testing.T) {
	values := make([]float64, 101)
	for i := range values {
		values[i] = math.Sin(float64(i) / 7)
	}
	c := cycleOf(t, uniformTime(101, 0.01), values)

	for _, d := range []Domain{DomainAuto, DomainIndex} {
		nc, err := Resample(c, []string{"v"}, ResampleOptions{Points: 101, Domain: d})
		require.NoError(t, err)
		if diff := cmp.Diff(values, nc.Values["v"]); diff != "" {
			t.Fatalf("domain %s: resampled values differ (-want +got):\n%s", d, diff)
		}
		assert.Equal(t, DomainIndex, nc.Domain)
	}
}

func TestResamplePreservesEndpoints(t *testing.T) {
	for _, m := range []int{2, 3, 17, 64, 250} {
		values := make([]float64, m)
		for i := range values {
			values[i] = 3 + math.Cos(float64(i))*float64(i%5)
		}
		c := cycleOf(t, uniformTime(m, 0.008), values)
		nc, err := Resample(c, nil, ResampleOptions{Points: 101})
		require.NoError(t, err)

		got := nc.Values["v"]
		require.Len(t, got, 101)
		assert.Equal(t, 0.0, nc.Phase[0])
		assert.Equal(t, 100.0, nc.Phase[100])
		assert.Equal(t, values[0], got[0], "m=%d first", m)
		assert.Equal(t, values[m-1], got[100], "m=%d last", m)
	}
}

func TestResampleNonUniformUsesElapsedTime(t *testing.T) {
	// Linear in time, sampled irregularly: time fractions recover the line exactly.
	time := []float64{0, 0.1, 0.15, 0.5, 0.55, 1.0}
	values := make([]float64, len(time))
	for i, tt := range time {
		values[i] = 10 * tt
	}
	c := cycleOf(t, time, values)

	nc, err := Resample(c, []string{"v"}, ResampleOptions{Points: 11})
	require.NoError(t, err)
	assert.Equal(t, DomainTime, nc.Domain)
	for i, v := range nc.Values["v"] {
		assert.InDelta(t, float64(i), v, 1e-9)
	}

	byIndex, err := Resample(c, []string{"v"}, ResampleOptions{Points: 11, Domain: DomainIndex})
	require.NoError(t, err)
	assert.NotEqual(t, nc.Values["v"], byIndex.Values["v"])
}

func TestResampleIgnoresRepeatedTimestamps(t *testing.T) {
	time := []float64{0, 0.25, 0.25, 0.5, 0.75, 1.0}
	values := []float64{0, 1, 99, 2, 3, 4}
	c := cycleOf(t, time, values)

	nc, err := Resample(c, []string{"v"}, ResampleOptions{Points: 5, Domain: DomainTime})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 3, 4}, nc.Values["v"])
}

func TestResampleZeroDurationFallsBackToIndex(t *testing.T) {
	c := cycleOf(t, []float64{2, 2, 2}, []float64{1, 2, 3})
	nc, err := Resample(c, []string{"v"}, ResampleOptions{Points: 5, Domain: DomainTime})
	require.NoError(t, err)
	assert.Equal(t, DomainIndex, nc.Domain)
	assert.Equal(t, []float64{1, 1.5, 2, 2.5, 3}, nc.Values["v"])
}

func TestResampleDeterministic(t *testing.T) {
	values := []float64{0.3, 0.7, 0.1, 0.9, 0.4, 0.2, 0.8}
	c := cycleOf(t, []float64{0, 0.011, 0.019, 0.032, 0.041, 0.05, 0.063}, values)

	a, err := Resample(c, nil, ResampleOptions{Points: 101})
	require.NoError(t, err)
	b, err := Resample(c, nil, ResampleOptions{Points: 101})
	require.NoError(t, err)
	for i := range a.Values["v"] {
		if math.Float64bits(a.Values["v"][i]) != math.Float64bits(b.Values["v"][i]) {
			t.Fatalf("value %d differs between calls: %v vs %v", i, a.Values["v"][i], b.Values["v"][i])
		}
	}
	assert.Equal(t, a.Phase, b.Phase)
}

func TestResampleErrors(t *testing.T) {
	c := cycleOf(t, uniformTime(5, 1), ramp(5))

	_, err := Resample(c, []string{"missing"}, ResampleOptions{Points: 11})
	require.ErrorIs(t, err, ErrMissingChannel)

	_, err = Resample(c, nil, ResampleOptions{Points: 1})
	require.Error(t, err)

	_, err = ParseDomain("phase")
	require.Error(t, err)
}
