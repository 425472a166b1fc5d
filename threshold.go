package gaitcycle

func init() {
	RegisterDetector(StrategyThreshold, &ThresholdDetector{})
}

// ThresholdDetector fires on rising edges of a contact-like channel: sample i
// is an event when v[i-1] < Threshold and v[i] >= Threshold.
type ThresholdDetector struct{}

// Name returns the strategy name
func (d *ThresholdDetector) Name() string {
	return StrategyThreshold
}

// Detect scans the configured channel for rising edges.
func (d *ThresholdDetector) Detect(series *TimeSeries, cfg DetectorConfig) ([]Event, error) {
	v, err := series.Channel(cfg.Channel)
	if err != nil {
		return nil, err
	}
	t := series.Time()

	var events []Event
	for i := 1; i < len(v); i++ {
		if !(v[i-1] < cfg.Threshold && v[i] >= cfg.Threshold) {
			continue
		}
		if !debounced(events, i, cfg.MinDistance) {
			continue
		}
		events = append(events, Event{Index: i, Time: t[i]})
	}
	return checkEventCount(d.Name(), cfg, events)
}
