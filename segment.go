package gaitcycle

import "fmt"

// DefaultMinRawLength rejects instrumentation artefacts shorter than ten samples.
const DefaultMinRawLength = 10

// Cycle is the slice of a series between two consecutive events. It covers
// samples [Start.Index, End.Index); the End sample belongs to the next cycle.
type Cycle struct {
	// Number is the 1-based position among the cycles kept for one trial.
	Number    int
	Start     Event
	End       Event
	RawLength int
	Tags      Tags

	series *TimeSeries
}

// Series returns the samples of the cycle.
func (c Cycle) Series() *TimeSeries { return c.series }

// DroppedCycle records a candidate rejected by the minimum-length filter.
type DroppedCycle struct {
	// Candidate is the 1-based position of the event pair before filtering.
	Candidate int   `json:"candidate"`
	Start     Event `json:"start"`
	End       Event `json:"end"`
	RawLength int   `json:"raw_length"`
}

// SegmentOptions controls cycle filtering.
type SegmentOptions struct {
	MinRawLength int
	// MaxCycles keeps only the first N valid cycles; 0 keeps all.
	MaxCycles int
}

// Segmentation is the output of Segment.
type Segmentation struct {
	Cycles     []Cycle
	Dropped    []DroppedCycle
	Candidates int
	// Truncated counts valid cycles discarded by MaxCycles.
	Truncated int
}

// Segment cuts a series into cycles, one per consecutive event pair. Cycles
// shorter than MinRawLength are dropped and recorded; numbering of the kept
// cycles has no gaps. Every candidate being dropped is a *NoValidCyclesError.
func Segment(series *TimeSeries, events []Event, opts SegmentOptions, tags Tags) (*Segmentation, error) {
	if len(events) < 2 {
		return nil, &InsufficientEventsError{Detector: "segment", Found: len(events)}
	}
	minLen := opts.MinRawLength
	if minLen < 2 {
		minLen = 2
	}
	for k, e := range events {
		if e.Index < 0 || e.Index >= series.Len() {
			return nil, fmt.Errorf("event %d index %d out of range for %d samples", k, e.Index, series.Len())
		}
		if k > 0 && e.Index <= events[k-1].Index {
			return nil, fmt.Errorf("events not strictly increasing at %d (%d after %d)", k, e.Index, events[k-1].Index)
		}
	}

	seg := &Segmentation{Candidates: len(events) - 1}
	for k := 0; k+1 < len(events); k++ {
		start, end := events[k], events[k+1]
		rawLen := end.Index - start.Index
		if rawLen < minLen {
			seg.Dropped = append(seg.Dropped, DroppedCycle{Candidate: k + 1, Start: start, End: end, RawLength: rawLen})
			continue
		}
		if opts.MaxCycles > 0 && len(seg.Cycles) >= opts.MaxCycles {
			seg.Truncated++
			continue
		}
		part, err := series.Slice(start.Index, end.Index)
		if err != nil {
			return nil, err
		}
		seg.Cycles = append(seg.Cycles, Cycle{
			Number:    len(seg.Cycles) + 1,
			Start:     start,
			End:       end,
			RawLength: rawLen,
			Tags:      tags.Clone(),
			series:    part,
		})
	}
	if len(seg.Cycles) == 0 {
		return nil, &NoValidCyclesError{Candidates: seg.Candidates, MinRawLength: minLen}
	}
	return seg, nil
}
