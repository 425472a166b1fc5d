package gaitcycle

func init() {
	RegisterDetector(StrategyLocalMinimum, &LocalMinimumDetector{})
}

// LocalMinimumDetector picks strict local minima of a vertical trajectory
// channel. The first and last samples are never candidates and a plateau has
// no interior minimum. A candidate closer than MinDistance samples to the
// previously accepted event is skipped.
type LocalMinimumDetector struct{}

// Name returns the strategy name
func (d *LocalMinimumDetector) Name() string {
	return StrategyLocalMinimum
}

// Detect scans the configured channel for debounced local minima.
func (d *LocalMinimumDetector) Detect(series *TimeSeries, cfg DetectorConfig) ([]Event, error) {
	y, err := series.Channel(cfg.Channel)
	if err != nil {
		return nil, err
	}
	t := series.Time()

	var events []Event
	for i := 1; i < len(y)-1; i++ {
		if !(y[i] < y[i-1] && y[i] < y[i+1]) {
			continue
		}
		if !debounced(events, i, cfg.MinDistance) {
			continue
		}
		events = append(events, Event{Index: i, Time: t[i]})
	}
	return checkEventCount(d.Name(), cfg, events)
}
