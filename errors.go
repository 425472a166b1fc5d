package gaitcycle

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingChannel is matched by *MissingChannelError.
	ErrMissingChannel = errors.New("missing channel")
	// ErrSeriesLengthMismatch is matched by *SeriesLengthMismatchError.
	ErrSeriesLengthMismatch = errors.New("series length mismatch")
	// ErrInsufficientEvents is matched by *InsufficientEventsError.
	ErrInsufficientEvents = errors.New("insufficient events")
	// ErrNoValidCycles is matched by *NoValidCyclesError.
	ErrNoValidCycles = errors.New("no valid cycles")
	// ErrEmptyAggregate marks a group with no contributors. Aggregate never
	// returns it; empty groups are omitted instead.
	ErrEmptyAggregate = errors.New("empty aggregate")
)

// MissingChannelError reports one or more required channels absent from a series.
type MissingChannelError struct {
	Channels []string
}

func (e *MissingChannelError) Error() string {
	if len(e.Channels) == 1 {
		return fmt.Sprintf("missing channel %q", e.Channels[0])
	}
	quoted := make([]string, len(e.Channels))
	for i, c := range e.Channels {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	return "missing channels " + strings.Join(quoted, ", ")
}

func (e *MissingChannelError) Is(target error) bool { return target == ErrMissingChannel }

// SeriesLengthMismatchError reports two sample-synchronised sequences of different length.
type SeriesLengthMismatchError struct {
	What  string
	Left  int
	Right int
}

func (e *SeriesLengthMismatchError) Error() string {
	if e.What == "" {
		return fmt.Sprintf("series length mismatch: %d vs %d", e.Left, e.Right)
	}
	return fmt.Sprintf("series length mismatch (%s): %d vs %d", e.What, e.Left, e.Right)
}

func (e *SeriesLengthMismatchError) Is(target error) bool { return target == ErrSeriesLengthMismatch }

// InsufficientEventsError is returned when a detector finds fewer than two events.
type InsufficientEventsError struct {
	Detector string
	Channel  string
	Found    int
}

func (e *InsufficientEventsError) Error() string {
	return fmt.Sprintf("insufficient events: %s detector on %q found %d (need at least 2)", e.Detector, e.Channel, e.Found)
}

func (e *InsufficientEventsError) Is(target error) bool { return target == ErrInsufficientEvents }

// NoValidCyclesError is returned when the minimum-length filter rejects every candidate cycle.
type NoValidCyclesError struct {
	Candidates   int
	MinRawLength int
}

func (e *NoValidCyclesError) Error() string {
	return fmt.Sprintf("no valid cycles: all %d candidates shorter than %d samples", e.Candidates, e.MinRawLength)
}

func (e *NoValidCyclesError) Is(target error) bool { return target == ErrNoValidCycles }
