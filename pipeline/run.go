package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	gaitcycle "github.com/lucasjlepore/gait-analyzer"
	"github.com/lucasjlepore/gait-analyzer/internal/config"
	"github.com/lucasjlepore/gait-analyzer/internal/logging"
	"github.com/lucasjlepore/gait-analyzer/render"
	"github.com/lucasjlepore/gait-analyzer/store"
	"github.com/lucasjlepore/gait-analyzer/tabular"
)

// trialRun is the private result slot of one trial.
type trialRun struct {
	outcome TrialOutcome
	cycles  []gaitcycle.NormalizedCycle
	err     error
}

// RunBatch processes every configured trial, aggregates the surviving cycles
// and writes all artifacts. A failing trial is recorded and skipped; the
// batch fails only when no trial produced cycles.
func RunBatch(ctx context.Context, opts Options) (*Result, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if len(cfg.Trials) == 0 {
		return nil, fmt.Errorf("no trials configured")
	}
	outDir := cfg.Output.Dir
	if strings.TrimSpace(opts.OutDir) != "" {
		outDir = opts.OutDir
	}
	if strings.TrimSpace(outDir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	log := opts.Logger
	if log == nil {
		log = logging.Global()
	}
	if err := ensureOutputDir(outDir, cfg.Output.Overwrite); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log = log.With("run_id", runID)
	started := time.Now()
	log.Info("batch started", "trials", len(cfg.Trials), "workers", cfg.Workers, "output_dir", outDir)

	runs := runTrials(ctx, cfg, log)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch cancelled: %w", err)
	}

	res := &Result{RunID: runID, OutputDir: outDir}
	var cycles []gaitcycle.NormalizedCycle
	var firstErr error
	for _, r := range runs {
		res.Trials = append(res.Trials, r.outcome)
		if r.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("trial %s: %w", r.outcome.ID, r.err)
			}
			continue
		}
		cycles = append(cycles, r.cycles...)
	}
	if len(cycles) == 0 {
		return res, fmt.Errorf("no trial produced cycles: %w", firstErr)
	}
	res.Cycles = len(cycles)

	channels := tabular.CycleChannels(cycles)
	stats, err := gaitcycle.Aggregate(cycles, cfg.GroupBy, channels)
	if err != nil {
		return res, fmt.Errorf("aggregate: %w", err)
	}
	res.StatCells = len(stats)

	if err := writeOutputs(ctx, res, cfg, cycles, stats, channels, started); err != nil {
		return res, err
	}
	log.Info("batch finished",
		"cycles", res.Cycles,
		"failed_trials", res.Failed(),
		"elapsed_ms", time.Since(started).Milliseconds())
	return res, nil
}

// runTrials processes trials on a bounded pool. Each worker writes only its
// own slot; cancellation is checked before a trial starts.
func runTrials(ctx context.Context, cfg *config.Config, log *logging.Logger) []trialRun {
	runs := make([]trialRun, len(cfg.Trials))
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(cfg.Trials) {
		workers = len(cfg.Trials)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				runs[i] = processTrial(cfg, cfg.Trials[i], log)
			}
		}()
	}
	for i := range cfg.Trials {
		if ctx.Err() != nil {
			break
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return runs
}

func processTrial(cfg *config.Config, tc config.TrialConfig, log *logging.Logger) trialRun {
	started := time.Now()
	tags := tc.TagSet()
	log = log.With("trial", tc.ID(), "subject", tc.Subject)
	out := trialRun{outcome: TrialOutcome{
		ID:     tc.ID(),
		Tags:   tags,
		Inputs: tc.Inputs,
		Status: StatusFailed,
	}}
	fail := func(err error) trialRun {
		out.err = err
		out.outcome.Error = err.Error()
		out.outcome.DurationMS = time.Since(started).Milliseconds()
		log.Error("trial failed", "error", err)
		return out
	}

	join := tc.Join
	if join == "" {
		join = cfg.Input.Join
	}
	loaded, err := loadInputs(tc.Inputs, cfg.BaseDir(), cfg.Input.TimeColumn, join)
	if err != nil {
		return fail(fmt.Errorf("load inputs: %w", err))
	}
	out.outcome.Samples = loaded.series.Len()
	out.outcome.IgnoredColumns = loaded.ignored
	out.outcome.DuplicateColumn = loaded.duplicates
	out.outcome.UnmatchedRows = loaded.droppedRows
	if len(loaded.duplicates) > 0 {
		log.Warn("duplicate columns ignored", "columns", loaded.duplicates)
	}
	if loaded.droppedRows > 0 {
		log.Warn("samples without a matching time were dropped", "rows", loaded.droppedRows)
	}

	tr, err := gaitcycle.ProcessTrial(loaded.series, tags, cfg.EngineOptions())
	if err != nil {
		return fail(err)
	}
	for _, d := range tr.Dropped {
		log.Warn("cycle dropped", "candidate", d.Candidate, "raw_length", d.RawLength)
	}
	if len(tr.SkippedChannels) > 0 {
		log.Warn("optional channels missing", "channels", tr.SkippedChannels)
	}
	for _, c := range tr.Cycles {
		log.Debug("cycle normalized", "number", c.Number, "raw_length", c.RawLength, "domain", c.Domain)
	}

	out.cycles = tr.Cycles
	out.outcome.Status = StatusOK
	out.outcome.Detector = tr.Detector
	out.outcome.DetectorChannel = tr.DetectorChannel
	out.outcome.Events = tr.Events
	out.outcome.Cycles = len(tr.Cycles)
	out.outcome.Dropped = tr.Dropped
	out.outcome.Truncated = tr.Truncated
	out.outcome.Channels = tr.Channels
	out.outcome.SkippedChannels = tr.SkippedChannels
	out.outcome.DurationMS = time.Since(started).Milliseconds()
	log.Info("trial processed", "detector", tr.Detector, "events", len(tr.Events), "cycles", len(tr.Cycles))
	return out
}

func writeOutputs(ctx context.Context, res *Result, cfg *config.Config, cycles []gaitcycle.NormalizedCycle, stats []gaitcycle.AggregateStat, channels []string, started time.Time) error {
	dir := res.OutputDir
	files := ManifestFiles{}

	switch cfg.Output.Format {
	case "csv":
		res.CyclesPath = filepath.Join(dir, "cycles.csv")
		if err := tabular.WriteCyclesCSVFile(res.CyclesPath, cycles, nil, channels); err != nil {
			return fmt.Errorf("write cycles.csv: %w", err)
		}
		res.StatsPath = filepath.Join(dir, "stats.csv")
		if err := tabular.WriteStatsCSVFile(res.StatsPath, stats, channels); err != nil {
			return fmt.Errorf("write stats.csv: %w", err)
		}
	case "parquet":
		res.CyclesPath = filepath.Join(dir, "cycles.parquet")
		if err := writeCyclesParquet(res.CyclesPath, cycles); err != nil {
			return fmt.Errorf("write cycles.parquet: %w", err)
		}
		res.StatsPath = filepath.Join(dir, "stats.parquet")
		if err := writeStatsParquet(res.StatsPath, stats); err != nil {
			return fmt.Errorf("write stats.parquet: %w", err)
		}
	case "sqlite":
		res.DatabasePath = filepath.Join(dir, "gait.db")
		db, err := store.Open(res.DatabasePath)
		if err != nil {
			return err
		}
		run := store.Run{ID: res.RunID, CreatedAt: started, Trials: len(res.Trials), FailedTrials: res.Failed()}
		err = db.WriteRun(ctx, run, cycles, stats)
		if cerr := db.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("write gait.db: %w", err)
		}
	default:
		return fmt.Errorf("unsupported format %q (expected csv|parquet|sqlite)", cfg.Output.Format)
	}
	files.Cycles = relPath(dir, res.CyclesPath)
	files.Stats = relPath(dir, res.StatsPath)
	files.Database = relPath(dir, res.DatabasePath)

	extrema := ExtremaFile{
		GroupBy: cfg.GroupBy,
		Summary: gaitcycle.SummarizeExtrema(cycles, cfg.GroupBy, channels),
	}
	for _, c := range cycles {
		extrema.Cycles = append(extrema.Cycles, gaitcycle.Extrema(c, channels)...)
	}
	res.ExtremaPath = filepath.Join(dir, "extrema.json")
	if err := writeJSON(res.ExtremaPath, extrema); err != nil {
		return fmt.Errorf("write extrema.json: %w", err)
	}
	files.Extrema = relPath(dir, res.ExtremaPath)

	if cfg.Output.Plots {
		charts, err := render.WritePNGs(filepath.Join(dir, "charts"), cycles, stats, cfg.GroupBy)
		if err != nil {
			return fmt.Errorf("write charts: %w", err)
		}
		res.Charts = charts
		for _, c := range charts {
			files.Charts = append(files.Charts, relPath(dir, c))
		}
	}
	if cfg.Output.HTML {
		res.HTMLPath = filepath.Join(dir, "stats.html")
		if err := render.WriteHTMLFile(res.HTMLPath, "Gait cycle statistics", render.Curves(stats)); err != nil {
			return fmt.Errorf("write stats.html: %w", err)
		}
		files.HTML = relPath(dir, res.HTMLPath)
	}

	res.SummaryPath = filepath.Join(dir, "summary.md")
	summary := BuildSummary(res, extrema.Summary)
	if err := os.WriteFile(res.SummaryPath, []byte(summary), 0o644); err != nil {
		return fmt.Errorf("write summary.md: %w", err)
	}
	files.Summary = relPath(dir, res.SummaryPath)

	res.ManifestPath = filepath.Join(dir, "manifest.json")
	manifest := Manifest{
		RunID:     res.RunID,
		CreatedAt: started.UTC(),
		Config:    cfg,
		Trials:    res.Trials,
		Outputs:   files,
	}
	if err := writeJSON(res.ManifestPath, manifest); err != nil {
		return fmt.Errorf("write manifest.json: %w", err)
	}
	return nil
}

func ensureOutputDir(path string, overwrite bool) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Errorf("read output directory: %w", err)
	}
	if len(entries) > 0 && !overwrite {
		return fmt.Errorf("output directory is not empty: %s (set output.overwrite to allow)", path)
	}
	return nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func relPath(dir, path string) string {
	if path == "" {
		return ""
	}
	if rel, err := filepath.Rel(dir, path); err == nil {
		return rel
	}
	return path
}
