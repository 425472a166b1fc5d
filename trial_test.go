package gaitcycle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessTrialOptionalChannels(t *testing.T) {
	n := 120
	heel := heelTrajectory(n, 0)
	ts := mustSeries(t, uniformTime(n, 0.01),
		[]string{DefaultTrajectoryChannel, "knee_angle_r", "soleus_r_length"},
		heel, ramp(n), ramp(n))

	opts := DefaultOptions()
	opts.Channels = []string{"soleus_r_length"}
	opts.OptionalChannels = []string{"knee_angle_r", "hip_flexion_r"}

	res, err := ProcessTrial(ts, Tags{"subject": "S146"}, opts)
	require.NoError(t, err)
	assert.Equal(t, StrategyLocalMinimum, res.Detector)
	assert.Equal(t, []int{10, 110}, eventIndices(res.Events))
	assert.Equal(t, []string{"soleus_r_length", "knee_angle_r"}, res.Channels)
	assert.Equal(t, []string{"hip_flexion_r"}, res.SkippedChannels)
	require.Len(t, res.Cycles, 1)
	assert.Equal(t, 10.0, res.Cycles[0].Values["soleus_r_length"][0])
	assert.Equal(t, 109.0, res.Cycles[0].Values["soleus_r_length"][100])
}

func TestProcessTrialMissingRequiredChannel(t *testing.T) {
	ts := mustSeries(t, uniformTime(40, 0.01), []string{DefaultContactChannel}, contactBlocks())
	opts := DefaultOptions()
	opts.Channels = []string{"med_gas_r_length"}

	_, err := ProcessTrial(ts, nil, opts)
	require.ErrorIs(t, err, ErrMissingChannel)
	assert.Contains(t, err.Error(), "med_gas_r_length")
}

func TestProcessTrialSingleEventProducesNothing(t *testing.T) {
	c := make([]float64, 50)
	for i := 20; i < 50; i++ {
		c[i] = 1
	}
	ts := mustSeries(t, uniformTime(50, 0.01), []string{DefaultContactChannel, "m"}, c, ramp(50))
	opts := DefaultOptions()
	opts.Channels = []string{"m"}

	res, err := ProcessTrial(ts, nil, opts)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, ErrInsufficientEvents))
}

func TestNewTimeSeriesValidation(t *testing.T) {
	_, err := NewTimeSeries([]float64{0, 1, 2}, []string{"a"}, [][]float64{{1, 2}})
	require.ErrorIs(t, err, ErrSeriesLengthMismatch)
	var lm *SeriesLengthMismatchError
	require.ErrorAs(t, err, &lm)
	assert.Equal(t, 3, lm.Left)
	assert.Equal(t, 2, lm.Right)

	_, err = NewTimeSeries([]float64{0, 2, 1}, []string{"a"}, [][]float64{{1, 2, 3}})
	require.Error(t, err)

	_, err = NewTimeSeries([]float64{0, 1}, []string{"a", "a"}, [][]float64{{1, 2}, {3, 4}})
	require.Error(t, err)

	ts, err := NewTimeSeries([]float64{0, 1, 1, 2}, []string{"a"}, [][]float64{{1, 2, 3, 4}})
	require.NoError(t, err, "ties are allowed")
	assert.Equal(t, 4, ts.Len())
}
