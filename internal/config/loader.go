package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	gaitcycle "github.com/lucasjlepore/gait-analyzer"
)

// DefaultMuscleChannels are the Gait2392 muscle-tendon lengths processed when no channels are configured.
var DefaultMuscleChannels = []string{
	"med_gas_r_length",
	"soleus_r_length",
	"tib_ant_r_length",
	"vas_lat_r_length",
	"rect_fem_r_length",
	"glut_med1_r_length",
}

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("gait")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	setDefaults(v)

	// GAIT_OUTPUT_DIR overrides output.dir
	v.SetEnvPrefix("GAIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := parseConfig(v)
	if err != nil {
		return nil, err
	}
	cfg.Source = v.ConfigFileUsed()
	return cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("input.time_column", "time")
	v.SetDefault("input.join", "rows")

	v.SetDefault("optional_channels", DefaultMuscleChannels)
	v.SetDefault("group_by", []string{"subject"})
	v.SetDefault("phase_points", gaitcycle.DefaultPhasePoints)

	v.SetDefault("detection.mode", gaitcycle.ModeAuto)
	v.SetDefault("detection.threshold.channel", gaitcycle.DefaultContactChannel)
	v.SetDefault("detection.threshold.level", gaitcycle.DefaultContactThreshold)
	v.SetDefault("detection.threshold.min_distance", 0)
	v.SetDefault("detection.local_minimum.channel", gaitcycle.DefaultTrajectoryChannel)
	v.SetDefault("detection.local_minimum.min_distance", gaitcycle.DefaultMinimumDistance)

	v.SetDefault("segmentation.min_raw_length", gaitcycle.DefaultMinRawLength)
	v.SetDefault("segmentation.max_cycles", 0)

	v.SetDefault("resample.domain", string(gaitcycle.DomainAuto))

	v.SetDefault("workers", 1)

	v.SetDefault("output.dir", "./gait_output")
	v.SetDefault("output.format", "csv")
	v.SetDefault("output.overwrite", false)
	v.SetDefault("output.plots", true)
	v.SetDefault("output.html", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output_path", "stderr")
	v.SetDefault("logging.time_format", "RFC3339")
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			TimeColumn: "time",
			Join:       "rows",
		},
		OptionalChannels: append([]string(nil), DefaultMuscleChannels...),
		GroupBy:          []string{"subject"},
		PhasePoints:      gaitcycle.DefaultPhasePoints,
		Detection: DetectionConfig{
			Mode: gaitcycle.ModeAuto,
			Threshold: ThresholdConfig{
				Channel: gaitcycle.DefaultContactChannel,
				Level:   gaitcycle.DefaultContactThreshold,
			},
			LocalMinimum: LocalMinimumConfig{
				Channel:     gaitcycle.DefaultTrajectoryChannel,
				MinDistance: gaitcycle.DefaultMinimumDistance,
			},
		},
		Segmentation: SegmentationConfig{
			MinRawLength: gaitcycle.DefaultMinRawLength,
		},
		Resample: ResampleConfig{
			Domain: string(gaitcycle.DomainAuto),
		},
		Workers: 1,
		Output: OutputConfig{
			Dir:    "./gait_output",
			Format: "csv",
			Plots:  true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stderr",
			TimeFormat: "RFC3339",
		},
	}
}
