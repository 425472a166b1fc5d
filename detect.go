package gaitcycle

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Strategy and mode names accepted by SelectDetector.
const (
	ModeAuto             = "auto"
	StrategyThreshold    = "threshold"
	StrategyLocalMinimum = "local_minimum"
)

// Default channels and parameters for the NONAN/MyoMotion exports.
const (
	DefaultContactChannel    = "Contact RT"
	DefaultTrajectoryChannel = "Noraxon MyoMotion-Trajectories-Heel RT-y (mm)"
	DefaultContactThreshold  = 0.5
	DefaultMinimumDistance   = 50
)

// Event marks a cycle boundary at a sample index.
type Event struct {
	Index int     `json:"index"`
	Time  float64 `json:"time"`
}

// DetectorConfig is the per-strategy parameter set.
type DetectorConfig struct {
	Channel string
	// Threshold is the rising-edge level. Ignored by local-minimum detection.
	Threshold float64
	// MinDistance is the minimum sample gap between accepted events; 0 disables it.
	MinDistance int
}

// EventDetector finds cycle boundary events in one channel of a series.
type EventDetector interface {
	// Name returns the strategy name
	Name() string

	// Detect returns events ordered by index. Fewer than two events is an
	// *InsufficientEventsError.
	Detect(series *TimeSeries, cfg DetectorConfig) ([]Event, error)
}

var (
	detectorMu       sync.RWMutex
	detectorRegistry = make(map[string]EventDetector)
)

// DefaultAutoOrder is the ModeAuto preference: contact channel first, then
// heel trajectory.
var DefaultAutoOrder = []string{StrategyThreshold, StrategyLocalMinimum}

// RegisterDetector adds a detector to the registry
func RegisterDetector(name string, detector EventDetector) {
	detectorMu.Lock()
	defer detectorMu.Unlock()
	detectorRegistry[name] = detector
}

// GetDetector returns a detector by name
func GetDetector(name string) (EventDetector, error) {
	detectorMu.RLock()
	defer detectorMu.RUnlock()
	if detector, ok := detectorRegistry[name]; ok {
		return detector, nil
	}
	return nil, fmt.Errorf("unknown detection strategy: %s", name)
}

// ListDetectors returns the registered strategy names, sorted.
func ListDetectors() []string {
	detectorMu.RLock()
	defer detectorMu.RUnlock()
	names := make([]string, 0, len(detectorRegistry))
	for name := range detectorRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DetectionOptions selects a strategy and carries the parameters for each.
type DetectionOptions struct {
	Mode         string
	Threshold    DetectorConfig
	LocalMinimum DetectorConfig
	// Custom holds parameters for strategies registered outside this package.
	Custom map[string]DetectorConfig
	// AutoOrder overrides DefaultAutoOrder when non-empty.
	AutoOrder []string
}

// DefaultDetectionOptions matches the defaults of the NONAN processing scripts.
func DefaultDetectionOptions() DetectionOptions {
	return DetectionOptions{
		Mode: ModeAuto,
		Threshold: DetectorConfig{
			Channel:   DefaultContactChannel,
			Threshold: DefaultContactThreshold,
		},
		LocalMinimum: DetectorConfig{
			Channel:     DefaultTrajectoryChannel,
			MinDistance: DefaultMinimumDistance,
		},
	}
}

func (o DetectionOptions) configFor(name string) DetectorConfig {
	switch name {
	case StrategyThreshold:
		return o.Threshold
	case StrategyLocalMinimum:
		return o.LocalMinimum
	default:
		return o.Custom[name]
	}
}

// Detection is the outcome of running the selected strategy.
type Detection struct {
	Strategy string
	Config   DetectorConfig
	Events   []Event
}

// SelectDetector resolves the strategy for a series. In ModeAuto the first
// strategy in the auto order whose channel the series carries wins.
func SelectDetector(series *TimeSeries, opts DetectionOptions) (EventDetector, DetectorConfig, error) {
	mode := strings.ToLower(strings.TrimSpace(opts.Mode))
	if mode == "" {
		mode = ModeAuto
	}
	if mode != ModeAuto {
		det, err := GetDetector(mode)
		if err != nil {
			return nil, DetectorConfig{}, err
		}
		cfg := opts.configFor(mode)
		if err := series.Require(cfg.Channel); err != nil {
			return nil, DetectorConfig{}, err
		}
		return det, cfg, nil
	}

	order := opts.AutoOrder
	if len(order) == 0 {
		order = DefaultAutoOrder
	}
	tried := make([]string, 0, len(order))
	for _, name := range order {
		cfg := opts.configFor(name)
		if cfg.Channel == "" {
			continue
		}
		if series.HasChannel(cfg.Channel) {
			det, err := GetDetector(name)
			if err != nil {
				return nil, DetectorConfig{}, err
			}
			return det, cfg, nil
		}
		tried = append(tried, cfg.Channel)
	}
	return nil, DetectorConfig{}, &MissingChannelError{Channels: tried}
}

// Detect selects a strategy for the series and runs it.
func Detect(series *TimeSeries, opts DetectionOptions) (*Detection, error) {
	det, cfg, err := SelectDetector(series, opts)
	if err != nil {
		return nil, err
	}
	events, err := det.Detect(series, cfg)
	if err != nil {
		return nil, err
	}
	return &Detection{Strategy: det.Name(), Config: cfg, Events: events}, nil
}

func checkEventCount(name string, cfg DetectorConfig, events []Event) ([]Event, error) {
	if len(events) < 2 {
		return nil, &InsufficientEventsError{Detector: name, Channel: cfg.Channel, Found: len(events)}
	}
	return events, nil
}

// debounced reports whether index i is far enough from the last accepted event.
func debounced(events []Event, i, minDistance int) bool {
	if minDistance <= 0 || len(events) == 0 {
		return true
	}
	return i-events[len(events)-1].Index >= minDistance
}
