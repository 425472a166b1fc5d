package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/lucasjlepore/gait-analyzer/internal/config"
	"github.com/lucasjlepore/gait-analyzer/internal/logging"
	"github.com/lucasjlepore/gait-analyzer/pipeline"
)

func main() {
	var (
		cfgPath   = flag.String("config", "", "Path to batch config YAML (default: ./gait.yaml or ./configs/gait.yaml)")
		outDir    = flag.String("out", "", "Output directory, overrides output.dir")
		overwrite = flag.Bool("overwrite", false, "Allow writing into non-empty output directories")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --config gait.yaml [--out outdir] [--overwrite]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() > 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gait_batch failed: %v\n", err)
		os.Exit(1)
	}
	if *overwrite {
		cfg.Output.Overwrite = true
	}

	logger, closer, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gait_batch failed: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()
	logging.SetGlobal(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := pipeline.RunBatch(ctx, pipeline.Options{
		Config: cfg,
		OutDir: *outDir,
		Logger: logger,
	})
	if err != nil {
		logging.Error("batch failed", "error", err)
		fmt.Fprintf(os.Stderr, "gait_batch failed: %v\n", err)
		closer.Close()
		os.Exit(1)
	}
	logging.Info("batch complete", "run_id", result.RunID, "trials", len(result.Trials), "failed", result.Failed(), "cycles", result.Cycles)

	fmt.Printf("gait_batch complete\n")
	fmt.Printf("Run id:          %s\n", result.RunID)
	fmt.Printf("Output dir:      %s\n", result.OutputDir)
	fmt.Printf("trials:          %d (%d failed)\n", len(result.Trials), result.Failed())
	fmt.Printf("cycles:          %d\n", result.Cycles)
	if result.CyclesPath != "" {
		fmt.Printf("cycles table:    %s\n", result.CyclesPath)
		fmt.Printf("stats table:     %s\n", result.StatsPath)
	}
	if result.DatabasePath != "" {
		fmt.Printf("database:        %s\n", result.DatabasePath)
	}
	fmt.Printf("extrema.json:    %s\n", result.ExtremaPath)
	fmt.Printf("summary.md:      %s\n", result.SummaryPath)
	fmt.Printf("manifest.json:   %s\n", result.ManifestPath)
	if result.HTMLPath != "" {
		fmt.Printf("stats.html:      %s\n", result.HTMLPath)
	}
	if len(result.Charts) > 0 {
		fmt.Printf("charts:          %d in %s\n", len(result.Charts), filepath.Dir(result.Charts[0]))
	}
	for _, t := range result.Trials {
		if t.Status == pipeline.StatusFailed {
			fmt.Printf("failed trial:    %s: %s\n", t.ID, t.Error)
		}
	}
}
