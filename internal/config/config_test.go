package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gaitcycle "github.com/lucasjlepore/gait-analyzer"
)

func TestConfigValidation(t *testing.T) {
	withTrial := func(tc TrialConfig) *Config {
		cfg := DefaultConfig()
		cfg.Trials = []TrialConfig{tc}
		return cfg
	}
	mutate := func(f func(*Config)) *Config {
		cfg := DefaultConfig()
		f(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name:    "default config should be valid",
			config:  DefaultConfig(),
			wantErr: false,
		},
		{
			name:    "trial with inputs",
			config:  withTrial(TrialConfig{Subject: "S135", Trial: "T01", Inputs: []string{"a.csv"}}),
			wantErr: false,
		},
		{
			name:    "trial without inputs",
			config:  withTrial(TrialConfig{Subject: "S135"}),
			wantErr: true,
		},
		{
			name:    "trial without identifiers",
			config:  withTrial(TrialConfig{Inputs: []string{"a.csv"}}),
			wantErr: true,
		},
		{
			name:    "trial with unknown join",
			config:  withTrial(TrialConfig{Subject: "S1", Inputs: []string{"a.csv"}, Join: "outer"}),
			wantErr: true,
		},
		{
			name:    "phase points below two",
			config:  mutate(func(c *Config) { c.PhasePoints = 1 }),
			wantErr: true,
		},
		{
			name:    "unknown detection mode",
			config:  mutate(func(c *Config) { c.Detection.Mode = "peaks" }),
			wantErr: true,
		},
		{
			name: "local minimum mode needs no contact channel",
			config: mutate(func(c *Config) {
				c.Detection.Mode = gaitcycle.StrategyLocalMinimum
				c.Detection.Threshold.Channel = ""
			}),
			wantErr: false,
		},
		{
			name:    "negative min distance",
			config:  mutate(func(c *Config) { c.Detection.LocalMinimum.MinDistance = -1 }),
			wantErr: true,
		},
		{
			name:    "min raw length below two",
			config:  mutate(func(c *Config) { c.Segmentation.MinRawLength = 1 }),
			wantErr: true,
		},
		{
			name:    "unknown resample domain",
			config:  mutate(func(c *Config) { c.Resample.Domain = "phase" }),
			wantErr: true,
		},
		{
			name:    "zero workers",
			config:  mutate(func(c *Config) { c.Workers = 0 }),
			wantErr: true,
		},
		{
			name:    "unknown output format",
			config:  mutate(func(c *Config) { c.Output.Format = "xlsx" }),
			wantErr: true,
		},
		{
			name:    "invalid logging level",
			config:  mutate(func(c *Config) { c.Logging.Level = "invalid" }),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gait.yaml")
	content := `
trials:
  - subject: S135
    trial: T01
    tags:
      side: right
    inputs: [s135_angles.csv, s135_lengths.csv]
  - subject: S146
    inputs: [s146.csv]
    join: time
channels: [med_gas_r_length, soleus_r_length]
detection:
  mode: local_minimum
  local_minimum:
    min_distance: 60
segmentation:
  max_cycles: 2
workers: 3
output:
  dir: out
  format: parquet
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Len(t, cfg.Trials, 2)
	assert.Equal(t, "S135/T01", cfg.Trials[0].ID())
	assert.Equal(t, gaitcycle.Tags{"subject": "S135", "trial": "T01", "side": "right"}, cfg.Trials[0].TagSet())
	assert.Equal(t, "time", cfg.Trials[1].Join)
	assert.Equal(t, []string{"med_gas_r_length", "soleus_r_length"}, cfg.Channels)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "parquet", cfg.Output.Format)
	assert.Equal(t, path, cfg.Source)
	assert.Equal(t, dir, cfg.BaseDir())

	// Unset keys keep their defaults.
	assert.Equal(t, gaitcycle.DefaultTrajectoryChannel, cfg.Detection.LocalMinimum.Channel)
	assert.Equal(t, gaitcycle.DefaultPhasePoints, cfg.PhasePoints)
	assert.Equal(t, "time", cfg.Input.TimeColumn)

	opts := cfg.EngineOptions()
	assert.Equal(t, gaitcycle.StrategyLocalMinimum, opts.Detection.Mode)
	assert.Equal(t, 60, opts.Detection.LocalMinimum.MinDistance)
	assert.Equal(t, 2, opts.Segment.MaxCycles)
	assert.Equal(t, gaitcycle.DomainAuto, opts.Resample.Domain)
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gait.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  dir: from_file\n"), 0o644))
	t.Setenv("GAIT_OUTPUT_DIR", "from_env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from_env", cfg.Output.Dir)
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gait.yaml")
	require.NoError(t, os.WriteFile(path, []byte("phase_points: 1\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "phase_points")

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.PhasePoints != 101 {
		t.Errorf("expected 101 phase points, got %d", cfg.PhasePoints)
	}
	if cfg.Detection.Threshold.Level != 0.5 {
		t.Errorf("expected contact threshold 0.5, got %v", cfg.Detection.Threshold.Level)
	}
	if cfg.Segmentation.MinRawLength != 10 {
		t.Errorf("expected min raw length 10, got %d", cfg.Segmentation.MinRawLength)
	}
	if cfg.Input.Join != "rows" {
		t.Errorf("expected rows join, got %s", cfg.Input.Join)
	}
}

func TestShippedExampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "gait.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	require.Len(t, cfg.Trials, 2)
	assert.Equal(t, "S135/T01", cfg.Trials[0].ID())
	assert.Equal(t, "time", cfg.Trials[0].Join)
	assert.Equal(t, "barefoot", cfg.Trials[1].TagSet()["condition"])
	assert.Equal(t, DefaultMuscleChannels, cfg.OptionalChannels)
	assert.Equal(t, 4, cfg.Workers)
}
