package pipeline

import (
	"time"

	gaitcycle "github.com/lucasjlepore/gait-analyzer"
	"github.com/lucasjlepore/gait-analyzer/internal/config"
	"github.com/lucasjlepore/gait-analyzer/internal/logging"
)

// Options configures a batch run.
type Options struct {
	Config *config.Config
	// OutDir overrides Config.Output.Dir when set.
	OutDir string
	Logger *logging.Logger
}

// Trial status values.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// TrialOutcome records what happened to one configured trial.
type TrialOutcome struct {
	ID              string                   `json:"id"`
	Tags            map[string]string        `json:"tags"`
	Inputs          []string                 `json:"inputs"`
	Status          string                   `json:"status"`
	Error           string                   `json:"error,omitempty"`
	Samples         int                      `json:"samples,omitempty"`
	UnmatchedRows   int                      `json:"unmatched_rows,omitempty"`
	Detector        string                   `json:"detector,omitempty"`
	DetectorChannel string                   `json:"detector_channel,omitempty"`
	Events          []gaitcycle.Event        `json:"events,omitempty"`
	Cycles          int                      `json:"cycles"`
	Dropped         []gaitcycle.DroppedCycle `json:"dropped,omitempty"`
	Truncated       int                      `json:"truncated,omitempty"`
	Channels        []string                 `json:"channels,omitempty"`
	SkippedChannels []string                 `json:"skipped_channels,omitempty"`
	IgnoredColumns  []string                 `json:"ignored_columns,omitempty"`
	DuplicateColumn []string                 `json:"duplicate_columns,omitempty"`
	DurationMS      int64                    `json:"duration_ms"`
}

// Result returns generated output paths and per-trial outcomes.
type Result struct {
	RunID        string         `json:"run_id"`
	OutputDir    string         `json:"output_dir"`
	ManifestPath string         `json:"manifest_path"`
	SummaryPath  string         `json:"summary_path"`
	CyclesPath   string         `json:"cycles_path,omitempty"`
	StatsPath    string         `json:"stats_path,omitempty"`
	ExtremaPath  string         `json:"extrema_path"`
	DatabasePath string         `json:"database_path,omitempty"`
	HTMLPath     string         `json:"html_path,omitempty"`
	Charts       []string       `json:"charts,omitempty"`
	Trials       []TrialOutcome `json:"trials"`
	Cycles       int            `json:"cycles"`
	StatCells    int            `json:"stat_cells"`
}

// Failed returns the number of trials that did not produce cycles.
func (r *Result) Failed() int {
	n := 0
	for _, t := range r.Trials {
		if t.Status == StatusFailed {
			n++
		}
	}
	return n
}

// Manifest is written as manifest.json next to the outputs.
type Manifest struct {
	RunID     string         `json:"run_id"`
	CreatedAt time.Time      `json:"created_at"`
	Config    *config.Config `json:"config"`
	Trials    []TrialOutcome `json:"trials"`
	Outputs   ManifestFiles  `json:"outputs"`
}

// ManifestFiles lists artifacts relative to the output directory.
type ManifestFiles struct {
	Cycles   string   `json:"cycles,omitempty"`
	Stats    string   `json:"stats,omitempty"`
	Extrema  string   `json:"extrema"`
	Database string   `json:"database,omitempty"`
	HTML     string   `json:"html,omitempty"`
	Summary  string   `json:"summary"`
	Charts   []string `json:"charts,omitempty"`
}

// ExtremaFile is written as extrema.json.
type ExtremaFile struct {
	GroupBy []string                   `json:"group_by"`
	Cycles  []gaitcycle.CycleExtrema   `json:"cycles"`
	Summary []gaitcycle.ExtremaSummary `json:"summary"`
}
