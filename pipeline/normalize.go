package pipeline

import (
	"fmt"

	gaitcycle "github.com/lucasjlepore/gait-analyzer"
	"github.com/lucasjlepore/gait-analyzer/internal/config"
	"github.com/lucasjlepore/gait-analyzer/internal/logging"
	"github.com/lucasjlepore/gait-analyzer/tabular"
)

// NormalizeOptions configures a single-trial normalization.
type NormalizeOptions struct {
	TimeColumn string
	// Engine defaults to DefaultNormalizeEngine when zero.
	Engine *gaitcycle.Options
	Logger *logging.Logger
}

// NormalizeResult summarises a single-trial normalization.
type NormalizeResult struct {
	Samples       int
	// UnmatchedRows is the most samples either input lost in the time join.
	UnmatchedRows int
	Events        int
	Cycles        int
	Channels      []string
	Skipped       []string
	Dropped       []gaitcycle.DroppedCycle
}

// DefaultNormalizeEngine detects right heel strikes on the contact channel
// and keeps the first two cycles of at least ten samples.
func DefaultNormalizeEngine() gaitcycle.Options {
	opts := gaitcycle.DefaultOptions()
	opts.Detection.Mode = gaitcycle.StrategyThreshold
	opts.Segment.MinRawLength = gaitcycle.DefaultMinRawLength
	opts.Segment.MaxCycles = 2
	opts.OptionalChannels = append([]string(nil), config.DefaultMuscleChannels...)
	return opts
}

// Normalize joins a motion-capture export with its muscle-length table on
// time, cuts it into cycles and writes the per-cycle table to outPath.
func Normalize(originalPath, musclePath, outPath string, opts NormalizeOptions) (*NormalizeResult, error) {
	log := opts.Logger
	if log == nil {
		log = logging.Global()
	}
	timeCol := opts.TimeColumn
	if timeCol == "" {
		timeCol = tabular.DefaultTimeColumn
	}
	engine := DefaultNormalizeEngine()
	if opts.Engine != nil {
		engine = *opts.Engine
	}

	loaded, err := loadInputs([]string{originalPath, musclePath}, "", timeCol, tabular.JoinTime)
	if err != nil {
		return nil, err
	}
	log.Info("inputs merged", "samples", loaded.series.Len(), "channels", len(loaded.series.ChannelNames()))
	if loaded.droppedRows > 0 {
		log.Warn("samples without a matching time were dropped", "rows", loaded.droppedRows)
	}

	tr, err := gaitcycle.ProcessTrial(loaded.series, nil, engine)
	if err != nil {
		return nil, err
	}
	if len(tr.SkippedChannels) > 0 {
		log.Warn("muscle channels missing", "channels", tr.SkippedChannels)
	}
	for _, d := range tr.Dropped {
		log.Warn("cycle dropped", "candidate", d.Candidate, "raw_length", d.RawLength)
	}

	if err := tabular.WriteCyclesCSVFile(outPath, tr.Cycles, nil, tr.Channels); err != nil {
		return nil, fmt.Errorf("write %s: %w", outPath, err)
	}
	log.Info("cycles written", "path", outPath, "cycles", len(tr.Cycles), "events", len(tr.Events))

	return &NormalizeResult{
		Samples:       loaded.series.Len(),
		UnmatchedRows: loaded.droppedRows,
		Events:        len(tr.Events),
		Cycles:        len(tr.Cycles),
		Channels:      tr.Channels,
		Skipped:       tr.SkippedChannels,
		Dropped:       tr.Dropped,
	}, nil
}
