package config

import (
	"fmt"
	"path/filepath"
	"strings"

	gaitcycle "github.com/lucasjlepore/gait-analyzer"
)

// Config represents the batch configuration
type Config struct {
	Trials           []TrialConfig      `mapstructure:"trials" json:"trials"`
	Input            InputConfig        `mapstructure:"input" json:"input"`
	Channels         []string           `mapstructure:"channels" json:"channels"`
	OptionalChannels []string           `mapstructure:"optional_channels" json:"optional_channels"`
	GroupBy          []string           `mapstructure:"group_by" json:"group_by"`
	PhasePoints      int                `mapstructure:"phase_points" json:"phase_points"`
	Detection        DetectionConfig    `mapstructure:"detection" json:"detection"`
	Segmentation     SegmentationConfig `mapstructure:"segmentation" json:"segmentation"`
	Resample         ResampleConfig     `mapstructure:"resample" json:"resample"`
	Workers          int                `mapstructure:"workers" json:"workers"`
	Output           OutputConfig       `mapstructure:"output" json:"output"`
	Logging          LoggingConfig      `mapstructure:"logging" json:"logging"`

	// Source is the file the config was read from, empty for defaults.
	Source string `mapstructure:"-" json:"-"`
}

// BaseDir is the directory relative trial inputs resolve against: the
// config file's directory, or the working directory when none was read.
func (c *Config) BaseDir() string {
	if c.Source == "" {
		return ""
	}
	return filepath.Dir(c.Source)
}

// TrialConfig describes one trial: its identifiers and the files holding its channels
type TrialConfig struct {
	Subject string            `mapstructure:"subject" json:"subject"`
	Trial   string            `mapstructure:"trial" json:"trial"`
	Tags    map[string]string `mapstructure:"tags" json:"tags"`
	Inputs  []string          `mapstructure:"inputs" json:"inputs"`
	Join    string            `mapstructure:"join" json:"join"` // rows, time; empty uses input.join
}

// InputConfig represents input parsing configuration
type InputConfig struct {
	TimeColumn string `mapstructure:"time_column" json:"time_column"`
	Join       string `mapstructure:"join" json:"join"` // rows, time
}

// DetectionConfig represents heel-strike detection configuration
type DetectionConfig struct {
	Mode         string             `mapstructure:"mode" json:"mode"` // auto, threshold, local_minimum
	Threshold    ThresholdConfig    `mapstructure:"threshold" json:"threshold"`
	LocalMinimum LocalMinimumConfig `mapstructure:"local_minimum" json:"local_minimum"`
}

// ThresholdConfig represents contact-channel rising-edge detection
type ThresholdConfig struct {
	Channel     string  `mapstructure:"channel" json:"channel"`
	Level       float64 `mapstructure:"level" json:"level"`
	MinDistance int     `mapstructure:"min_distance" json:"min_distance"`
}

// LocalMinimumConfig represents heel-trajectory minimum detection
type LocalMinimumConfig struct {
	Channel     string `mapstructure:"channel" json:"channel"`
	MinDistance int    `mapstructure:"min_distance" json:"min_distance"`
}

// SegmentationConfig represents cycle filtering configuration
type SegmentationConfig struct {
	MinRawLength int `mapstructure:"min_raw_length" json:"min_raw_length"`
	MaxCycles    int `mapstructure:"max_cycles" json:"max_cycles"`
}

// ResampleConfig represents phase normalization configuration
type ResampleConfig struct {
	Domain string `mapstructure:"domain" json:"domain"` // auto, time, index
}

// OutputConfig represents output configuration
type OutputConfig struct {
	Dir       string `mapstructure:"dir" json:"dir"`
	Format    string `mapstructure:"format" json:"format"` // csv, parquet, sqlite
	Overwrite bool   `mapstructure:"overwrite" json:"overwrite"`
	Plots     bool   `mapstructure:"plots" json:"plots"`
	HTML      bool   `mapstructure:"html" json:"html"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level" json:"level"`             // debug, info, warn, error
	Format     string `mapstructure:"format" json:"format"`           // json, console
	OutputPath string `mapstructure:"output_path" json:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format" json:"time_format"` // RFC3339, Unix, Kitchen
}

// ID returns the trial identifier used in logs and manifests.
func (t TrialConfig) ID() string {
	switch {
	case t.Subject != "" && t.Trial != "":
		return t.Subject + "/" + t.Trial
	case t.Trial != "":
		return t.Trial
	default:
		return t.Subject
	}
}

// TagSet returns the trial's tags including subject and trial.
func (t TrialConfig) TagSet() gaitcycle.Tags {
	tags := make(gaitcycle.Tags, len(t.Tags)+2)
	for k, v := range t.Tags {
		tags[k] = v
	}
	if t.Subject != "" {
		tags["subject"] = t.Subject
	}
	if t.Trial != "" {
		tags["trial"] = t.Trial
	}
	return tags
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Input.Validate(); err != nil {
		return fmt.Errorf("input config: %w", err)
	}
	for i, t := range c.Trials {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("trial %d: %w", i, err)
		}
	}
	if c.PhasePoints < 2 {
		return fmt.Errorf("phase_points must be at least 2")
	}
	if err := c.Detection.Validate(); err != nil {
		return fmt.Errorf("detection config: %w", err)
	}
	if c.Segmentation.MinRawLength < 2 {
		return fmt.Errorf("segmentation.min_raw_length must be at least 2")
	}
	if c.Segmentation.MaxCycles < 0 {
		return fmt.Errorf("segmentation.max_cycles cannot be negative")
	}
	if _, err := gaitcycle.ParseDomain(c.Resample.Domain); err != nil {
		return fmt.Errorf("resample config: %w", err)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("output config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	return nil
}

// Validate validates input configuration
func (c *InputConfig) Validate() error {
	if strings.TrimSpace(c.TimeColumn) == "" {
		return fmt.Errorf("time_column is required")
	}
	return validateJoin(c.Join)
}

// Validate validates one trial entry
func (t *TrialConfig) Validate() error {
	if t.Subject == "" && t.Trial == "" {
		return fmt.Errorf("subject or trial is required")
	}
	if len(t.Inputs) == 0 {
		return fmt.Errorf("%s: at least one input file is required", t.ID())
	}
	if t.Join != "" {
		return validateJoin(t.Join)
	}
	return nil
}

func validateJoin(join string) error {
	switch join {
	case "rows", "time":
		return nil
	default:
		return fmt.Errorf("invalid join: %q (expected rows|time)", join)
	}
}

// Validate validates detection configuration
func (c *DetectionConfig) Validate() error {
	switch c.Mode {
	case gaitcycle.ModeAuto, gaitcycle.StrategyThreshold, gaitcycle.StrategyLocalMinimum:
	default:
		return fmt.Errorf("invalid mode: %s", c.Mode)
	}
	if c.Threshold.MinDistance < 0 || c.LocalMinimum.MinDistance < 0 {
		return fmt.Errorf("min_distance cannot be negative")
	}
	if c.Mode != gaitcycle.StrategyLocalMinimum && c.Threshold.Channel == "" {
		return fmt.Errorf("threshold.channel is required")
	}
	if c.Mode != gaitcycle.StrategyThreshold && c.LocalMinimum.Channel == "" {
		return fmt.Errorf("local_minimum.channel is required")
	}
	return nil
}

// Validate validates output configuration
func (c *OutputConfig) Validate() error {
	if c.Dir == "" {
		return fmt.Errorf("dir is required")
	}
	switch c.Format {
	case "csv", "parquet", "sqlite":
		return nil
	default:
		return fmt.Errorf("invalid format: %s (expected csv|parquet|sqlite)", c.Format)
	}
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Level] {
		return fmt.Errorf("invalid level: %s", c.Level)
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}
	if !validFormats[c.Format] {
		return fmt.Errorf("invalid format: %s", c.Format)
	}
	return nil
}

// EngineOptions converts the configuration into per-trial processing options.
func (c *Config) EngineOptions() gaitcycle.Options {
	domain, _ := gaitcycle.ParseDomain(c.Resample.Domain)
	return gaitcycle.Options{
		Detection: gaitcycle.DetectionOptions{
			Mode: c.Detection.Mode,
			Threshold: gaitcycle.DetectorConfig{
				Channel:     c.Detection.Threshold.Channel,
				Threshold:   c.Detection.Threshold.Level,
				MinDistance: c.Detection.Threshold.MinDistance,
			},
			LocalMinimum: gaitcycle.DetectorConfig{
				Channel:     c.Detection.LocalMinimum.Channel,
				MinDistance: c.Detection.LocalMinimum.MinDistance,
			},
		},
		Segment: gaitcycle.SegmentOptions{
			MinRawLength: c.Segmentation.MinRawLength,
			MaxCycles:    c.Segmentation.MaxCycles,
		},
		Resample: gaitcycle.ResampleOptions{
			Points: c.PhasePoints,
			Domain: domain,
		},
		Channels:         append([]string(nil), c.Channels...),
		OptionalChannels: append([]string(nil), c.OptionalChannels...),
	}
}
