package gaitcycle

import "fmt"

// Options configures processing of one trial.
type Options struct {
	Detection DetectionOptions
	Segment   SegmentOptions
	Resample  ResampleOptions
	// Channels must all be present; a missing one fails the trial.
	Channels []string
	// OptionalChannels are resampled when present and skipped otherwise.
	OptionalChannels []string
}

// DefaultOptions returns the defaults used by the batch and single-trial tools.
func DefaultOptions() Options {
	return Options{
		Detection: DefaultDetectionOptions(),
		Segment:   SegmentOptions{MinRawLength: DefaultMinRawLength},
		Resample:  ResampleOptions{Points: DefaultPhasePoints, Domain: DomainAuto},
	}
}

// TrialResult is everything produced for one trial.
type TrialResult struct {
	Tags            Tags
	Detector        string
	DetectorChannel string
	Events          []Event
	Cycles          []NormalizedCycle
	Dropped         []DroppedCycle
	Truncated       int
	// Channels are the channels actually resampled, in output order.
	Channels        []string
	SkippedChannels []string
}

// ProcessTrial runs detection, segmentation and resampling for one series.
// Any error is fatal for the trial only.
func ProcessTrial(series *TimeSeries, tags Tags, opts Options) (*TrialResult, error) {
	if err := series.Require(opts.Channels...); err != nil {
		return nil, err
	}
	channels := append([]string(nil), opts.Channels...)
	var skipped []string
	for _, ch := range opts.OptionalChannels {
		if series.HasChannel(ch) {
			channels = append(channels, ch)
		} else {
			skipped = append(skipped, ch)
		}
	}
	if len(channels) == 0 {
		return nil, fmt.Errorf("no tracked channels available (%d optional skipped)", len(skipped))
	}

	det, err := Detect(series, opts.Detection)
	if err != nil {
		return nil, fmt.Errorf("detect events: %w", err)
	}
	seg, err := Segment(series, det.Events, opts.Segment, tags)
	if err != nil {
		return nil, fmt.Errorf("segment cycles: %w", err)
	}

	res := &TrialResult{
		Tags:            tags.Clone(),
		Detector:        det.Strategy,
		DetectorChannel: det.Config.Channel,
		Events:          det.Events,
		Dropped:         seg.Dropped,
		Truncated:       seg.Truncated,
		Channels:        channels,
		SkippedChannels: skipped,
		Cycles:          make([]NormalizedCycle, 0, len(seg.Cycles)),
	}
	for _, c := range seg.Cycles {
		nc, err := Resample(c, channels, opts.Resample)
		if err != nil {
			return nil, fmt.Errorf("resample cycle %d: %w", c.Number, err)
		}
		res.Cycles = append(res.Cycles, nc)
	}
	return res, nil
}
