package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasjlepore/gait-analyzer/internal/config"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, zerolog.DebugLevel).With("trial", "S135/T01")

	log.Warn("cycle dropped", "candidate", 3, "err", errors.New("too short"))

	entry := decodeLine(t, &buf)
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "cycle dropped", entry["message"])
	assert.Equal(t, "S135/T01", entry["trial"])
	assert.Equal(t, float64(3), entry["candidate"])
	assert.Equal(t, "too short", entry["err"])
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, zerolog.WarnLevel)

	log.Debug("hidden")
	log.Info("hidden")
	assert.Zero(t, buf.Len())

	log.Error("shown")
	assert.NotZero(t, buf.Len())
}

func TestWithDoesNotLeakFields(t *testing.T) {
	var buf bytes.Buffer
	parent := NewWithWriter(&buf, zerolog.InfoLevel)
	_ = parent.With("subject", "S1")

	parent.Info("plain")
	entry := decodeLine(t, &buf)
	_, ok := entry["subject"]
	assert.False(t, ok)
}

func TestPackageLevelHelpersUseGlobal(t *testing.T) {
	prev := Global()
	defer SetGlobal(prev)

	var buf bytes.Buffer
	SetGlobal(NewWithWriter(&buf, zerolog.InfoLevel))

	Warn("column not found", "column", "Hip Flexion RT (deg)")
	entry := decodeLine(t, &buf)
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "Hip Flexion RT (deg)", entry["column"])

	buf.Reset()
	Error("batch failed", "error", errors.New("no cycles"))
	entry = decodeLine(t, &buf)
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "no cycles", entry["error"])

	buf.Reset()
	Info("batch complete", "cycles", 8)
	entry = decodeLine(t, &buf)
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, float64(8), entry["cycles"])
}

func TestNewFromConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "gait.log")
	log, closer, err := NewFromConfig(config.LoggingConfig{Level: "debug", Format: "json", OutputPath: path})
	require.NoError(t, err)

	log.Debug("written", "k", "v")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"written"`)
}
