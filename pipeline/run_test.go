package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"

	gaitcycle "github.com/lucasjlepore/gait-analyzer"
	"github.com/lucasjlepore/gait-analyzer/internal/config"
	"github.com/lucasjlepore/gait-analyzer/internal/logging"
	"github.com/lucasjlepore/gait-analyzer/store"
	"github.com/lucasjlepore/gait-analyzer/tabular"
)

// writeWalk writes n samples at 100 Hz with a contact block every 20 samples,
// giving heel strikes at 5, 25, 45, 65 and 85 when n is 100.
func writeWalk(t *testing.T, path string, withContact bool, muscles ...string) {
	t.Helper()
	var b strings.Builder
	b.WriteString("time")
	if withContact {
		b.WriteString(",Contact RT")
	}
	for _, m := range muscles {
		b.WriteString("," + m)
	}
	b.WriteString("\n")
	for i := 0; i < 100; i++ {
		fmt.Fprintf(&b, "%.2f", float64(i)*0.01)
		if withContact {
			contact := 0
			if p := i % 20; p >= 5 && p <= 12 {
				contact = 1
			}
			fmt.Fprintf(&b, ",%d", contact)
		}
		for j := range muscles {
			fmt.Fprintf(&b, ",%d", 100+j+i%20)
		}
		b.WriteString("\n")
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func batchConfig(t *testing.T, format string) *config.Config {
	t.Helper()
	in := t.TempDir()
	good1 := filepath.Join(in, "s1.csv")
	good2 := filepath.Join(in, "s2.csv")
	bad := filepath.Join(in, "s3.csv")
	writeWalk(t, good1, true, "med_gas_r_length")
	writeWalk(t, good2, true, "med_gas_r_length")
	writeWalk(t, bad, false, "med_gas_r_length")

	cfg := config.DefaultConfig()
	cfg.Trials = []config.TrialConfig{
		{Subject: "S1", Trial: "T01", Inputs: []string{good1}},
		{Subject: "S3", Trial: "T01", Inputs: []string{bad}},
		{Subject: "S2", Trial: "T01", Inputs: []string{good2}},
	}
	cfg.Channels = []string{"med_gas_r_length"}
	cfg.OptionalChannels = nil
	cfg.Workers = 2
	cfg.Output.Dir = filepath.Join(t.TempDir(), "out")
	cfg.Output.Format = format
	cfg.Output.Plots = false
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config invalid: %v", err)
	}
	return cfg
}

func TestRunBatchCSV(t *testing.T) {
	cfg := batchConfig(t, "csv")
	cfg.Output.Plots = true
	cfg.Output.HTML = true

	res, err := RunBatch(context.Background(), Options{Config: cfg, Logger: logging.NewNop()})
	if err != nil {
		t.Fatalf("RunBatch() error: %v", err)
	}
	if res.Cycles != 8 {
		t.Fatalf("expected 8 cycles, got %d", res.Cycles)
	}
	if res.Failed() != 1 {
		t.Fatalf("expected 1 failed trial, got %d", res.Failed())
	}
	if res.StatCells != 2*101 {
		t.Fatalf("expected %d stat cells, got %d", 2*101, res.StatCells)
	}

	for _, p := range []string{res.CyclesPath, res.StatsPath, res.ExtremaPath, res.SummaryPath, res.HTMLPath, res.ManifestPath} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("missing artifact %s: %v", p, err)
		}
	}
	if len(res.Charts) != 5 {
		t.Fatalf("expected 5 charts, got %d: %v", len(res.Charts), res.Charts)
	}

	f, err := os.Open(res.CyclesPath)
	if err != nil {
		t.Fatalf("open cycles: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read cycles csv: %v", err)
	}
	if got := strings.Join(rows[0], ","); got != "subject,trial,cycle,phase,med_gas_r_length" {
		t.Fatalf("unexpected header %q", got)
	}
	if len(rows) != 1+8*101 {
		t.Fatalf("expected %d rows, got %d", 1+8*101, len(rows))
	}
	if rows[1][0] != "S1" || rows[len(rows)-1][0] != "S2" {
		t.Fatalf("cycles not in trial order: first %v last %v", rows[1], rows[len(rows)-1])
	}

	data, err := os.ReadFile(res.ManifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if m.RunID != res.RunID || len(m.Trials) != 3 {
		t.Fatalf("unexpected manifest: run %q trials %d", m.RunID, len(m.Trials))
	}
	failed := m.Trials[1]
	if failed.ID != "S3/T01" || failed.Status != StatusFailed || failed.Error == "" {
		t.Fatalf("failed trial not recorded: %+v", failed)
	}
	if m.Trials[0].Detector != "threshold" || len(m.Trials[0].Events) != 5 {
		t.Fatalf("unexpected detection for S1: %+v", m.Trials[0])
	}
	if m.Outputs.Cycles != "cycles.csv" || m.Outputs.HTML != "stats.html" {
		t.Fatalf("unexpected outputs: %+v", m.Outputs)
	}

	summary, err := os.ReadFile(res.SummaryPath)
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	if !strings.Contains(string(summary), "| S3/T01 | failed |") {
		t.Fatalf("summary misses failed trial:\n%s", summary)
	}

	// Existing output is protected unless overwrite is set.
	if _, err := RunBatch(context.Background(), Options{Config: cfg, Logger: logging.NewNop()}); err == nil {
		t.Fatalf("expected error for non-empty output directory")
	}
	cfg.Output.Overwrite = true
	if _, err := RunBatch(context.Background(), Options{Config: cfg, Logger: logging.NewNop()}); err != nil {
		t.Fatalf("RunBatch() with overwrite error: %v", err)
	}
}

func TestRunBatchParquet(t *testing.T) {
	cfg := batchConfig(t, "parquet")
	res, err := RunBatch(context.Background(), Options{Config: cfg, Logger: logging.NewNop()})
	if err != nil {
		t.Fatalf("RunBatch() error: %v", err)
	}

	if got := parquetRows(t, res.CyclesPath, new(cycleParquetRow)); got != 8*101 {
		t.Fatalf("expected %d cycle rows, got %d", 8*101, got)
	}
	if got := parquetRows(t, res.StatsPath, new(statParquetRow)); got != 2*101 {
		t.Fatalf("expected %d stat rows, got %d", 2*101, got)
	}
}

func parquetRows(t *testing.T, path string, schema any) int64 {
	t.Helper()
	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer fr.Close()
	pr, err := reader.NewParquetReader(fr, schema, 1)
	if err != nil {
		t.Fatalf("parquet reader %s: %v", path, err)
	}
	defer pr.ReadStop()
	return pr.GetNumRows()
}

func TestRunBatchSQLite(t *testing.T) {
	cfg := batchConfig(t, "sqlite")
	res, err := RunBatch(context.Background(), Options{Config: cfg, Logger: logging.NewNop()})
	if err != nil {
		t.Fatalf("RunBatch() error: %v", err)
	}

	db, err := store.Open(res.DatabasePath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	n, err := db.CountCycleSamples(context.Background(), res.RunID)
	if err != nil {
		t.Fatalf("count samples: %v", err)
	}
	if n != 8*101 {
		t.Fatalf("expected %d samples, got %d", 8*101, n)
	}
	rows, err := db.Stats(context.Background(), res.RunID, "med_gas_r_length")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if len(rows) != 2*101 {
		t.Fatalf("expected %d stat rows, got %d", 2*101, len(rows))
	}
}

func TestRunBatchAllTrialsFail(t *testing.T) {
	cfg := batchConfig(t, "csv")
	cfg.Trials = cfg.Trials[1:2]

	res, err := RunBatch(context.Background(), Options{Config: cfg, Logger: logging.NewNop()})
	if err == nil {
		t.Fatalf("expected error when every trial fails")
	}
	if !strings.Contains(err.Error(), "S3/T01") {
		t.Fatalf("error should name the failed trial: %v", err)
	}
	if res == nil || res.Failed() != 1 {
		t.Fatalf("expected the failure to be recorded, got %+v", res)
	}
}

func TestRunBatchCancelled(t *testing.T) {
	cfg := batchConfig(t, "csv")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := RunBatch(ctx, Options{Config: cfg, Logger: logging.NewNop()}); err == nil {
		t.Fatalf("expected cancellation error")
	}
}

func TestNormalize(t *testing.T) {
	dir := t.TempDir()
	orig := filepath.Join(dir, "orig.csv")
	musc := filepath.Join(dir, "muscles.csv")
	out := filepath.Join(dir, "cycles.csv")
	writeWalk(t, orig, true)
	writeWalk(t, musc, false, "med_gas_r_length", "soleus_r_length")

	res, err := Normalize(orig, musc, out, NormalizeOptions{Logger: logging.NewNop()})
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if res.Events != 5 || res.Cycles != 2 {
		t.Fatalf("expected 5 events and 2 cycles, got %d and %d", res.Events, res.Cycles)
	}
	if len(res.Skipped) != 4 {
		t.Fatalf("expected 4 skipped muscles, got %v", res.Skipped)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[0] != "cycle,phase,med_gas_r_length,soleus_r_length" {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if len(lines) != 1+2*101 {
		t.Fatalf("expected %d lines, got %d", 1+2*101, len(lines))
	}
	if !strings.HasPrefix(lines[1], "1,0.000000,") || !strings.HasPrefix(lines[len(lines)-1], "2,100.000000,") {
		t.Fatalf("unexpected cycle rows: %q ... %q", lines[1], lines[len(lines)-1])
	}
}

func TestNormalizeMissingContact(t *testing.T) {
	dir := t.TempDir()
	orig := filepath.Join(dir, "orig.csv")
	musc := filepath.Join(dir, "muscles.csv")
	writeWalk(t, orig, false, "knee")
	writeWalk(t, musc, false, "med_gas_r_length")

	if _, err := Normalize(orig, musc, filepath.Join(dir, "out.csv"), NormalizeOptions{Logger: logging.NewNop()}); err == nil {
		t.Fatalf("expected error without a contact channel")
	}
}

// writeWalk120 writes n samples at 120 Hz with full-precision times and a
// contact block every 24 samples, and returns the sample times.
func writeWalk120(t *testing.T, path string, n int) []float64 {
	t.Helper()
	times := make([]float64, n)
	var b strings.Builder
	b.WriteString("time,Contact RT\n")
	for i := range times {
		times[i] = float64(i) / 120
		contact := 0
		if p := i % 24; p >= 6 && p <= 14 {
			contact = 1
		}
		fmt.Fprintf(&b, "%s,%d\n", strconv.FormatFloat(times[i], 'g', -1, 64), contact)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return times
}

func writeMuscleTable(t *testing.T, path string, times []float64) {
	t.Helper()
	lengths := make([]float64, len(times))
	for i := range lengths {
		lengths[i] = 0.4 + 0.01*float64(i%24)
	}
	ts, err := gaitcycle.NewTimeSeries(times, []string{"med_gas_r_length"}, [][]float64{lengths})
	if err != nil {
		t.Fatalf("NewTimeSeries() error: %v", err)
	}
	if err := tabular.WriteSeriesCSVFile(path, ts, tabular.DefaultTimeColumn); err != nil {
		t.Fatalf("WriteSeriesCSVFile() error: %v", err)
	}
}

func TestNormalize120HzTimeJoin(t *testing.T) {
	dir := t.TempDir()
	orig := filepath.Join(dir, "orig.csv")
	musc := filepath.Join(dir, "muscles.csv")
	times := writeWalk120(t, orig, 240)
	writeMuscleTable(t, musc, times)

	res, err := Normalize(orig, musc, filepath.Join(dir, "cycles.csv"), NormalizeOptions{Logger: logging.NewNop()})
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if res.Samples != 240 {
		t.Fatalf("expected all 240 samples merged, got %d", res.Samples)
	}
	if res.UnmatchedRows != 0 {
		t.Fatalf("expected no unmatched rows, got %d", res.UnmatchedRows)
	}
	if res.Events != 10 || res.Cycles != 2 {
		t.Fatalf("expected 10 events and 2 cycles, got %d and %d", res.Events, res.Cycles)
	}
}

func TestNormalizeReportsUnmatchedRows(t *testing.T) {
	dir := t.TempDir()
	orig := filepath.Join(dir, "orig.csv")
	musc := filepath.Join(dir, "muscles.csv")
	times := writeWalk120(t, orig, 240)
	writeMuscleTable(t, musc, times[:200])

	res, err := Normalize(orig, musc, filepath.Join(dir, "cycles.csv"), NormalizeOptions{Logger: logging.NewNop()})
	if err != nil {
		t.Fatalf("Normalize() error: %v", err)
	}
	if res.Samples != 200 {
		t.Fatalf("expected 200 merged samples, got %d", res.Samples)
	}
	if res.UnmatchedRows != 40 {
		t.Fatalf("expected 40 unmatched rows, got %d", res.UnmatchedRows)
	}
}

func TestRunBatchResolvesInputsAgainstConfigDir(t *testing.T) {
	dir := t.TempDir()
	writeWalk(t, filepath.Join(dir, "s1.csv"), true, "med_gas_r_length")
	outDir := filepath.Join(t.TempDir(), "out")
	content := fmt.Sprintf(`
trials:
  - subject: S1
    trial: T01
    inputs: [s1.csv]
channels: [med_gas_r_length]
output:
  dir: %q
  plots: false
`, outDir)
	cfgPath := filepath.Join(dir, "gait.yaml")
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	res, err := RunBatch(context.Background(), Options{Config: cfg, Logger: logging.NewNop()})
	if err != nil {
		t.Fatalf("RunBatch() error: %v", err)
	}
	if res.Failed() != 0 {
		t.Fatalf("expected no failed trials, got %+v", res.Trials)
	}
	if res.Cycles != 4 {
		t.Fatalf("expected 4 cycles, got %d", res.Cycles)
	}
}
