package tabular

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapColumnsReportsMissing(t *testing.T) {
	ts := series(t, []float64{0, 0.01},
		[]string{"Knee Flexion RT (deg)", "Hip Flexion RT (deg)", "Contact RT"},
		[]float64{10, 11}, []float64{20, 21}, []float64{0, 1})

	mapped, missing, err := MapColumns(ts, Gait2392Columns)
	require.NoError(t, err)
	assert.Equal(t, []string{"hip_flexion_r", "knee_angle_r"}, mapped.ChannelNames())
	assert.Len(t, missing, 8)
	assert.Contains(t, missing, "Ankle Dorsiflexion RT (deg)")
}

func TestWriteMot(t *testing.T) {
	ts := series(t, []float64{0, 0.01}, []string{"knee_angle_r"}, []float64{10, 11.5})

	var buf bytes.Buffer
	require.NoError(t, WriteMot(&buf, "S135_T01", ts))

	want := strings.Join([]string{
		"name S135_T01",
		"datarows 2",
		"datacolumns 2",
		"range 0.000000 0.010000",
		"endheader",
		"time\tknee_angle_r",
		"0.000000\t10.000000",
		"0.010000\t11.500000",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestWriteMotFileNamesStorage(t *testing.T) {
	ts := series(t, []float64{0}, []string{"a"}, []float64{1})
	path := filepath.Join(t.TempDir(), "walk_01.mot")
	require.NoError(t, WriteMotFile(path, ts))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "name walk_01\n"))
}
