package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lucasjlepore/gait-analyzer/internal/logging"
	"github.com/lucasjlepore/gait-analyzer/pipeline"
)

func main() {
	var (
		maxCycles = flag.Int("max-cycles", 2, "Keep at most this many cycles; 0 keeps all")
		minLength = flag.Int("min-length", 10, "Drop cycles with fewer raw samples")
		level     = flag.Float64("threshold", 0.5, "Contact RT level marking a heel strike")
		timeCol   = flag.String("time-column", "time", "Name of the shared time column")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <original_csv> <muscle_lengths_csv> <output_csv>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 3 || *maxCycles < 0 || *minLength < 2 {
		flag.Usage()
		os.Exit(2)
	}

	engine := pipeline.DefaultNormalizeEngine()
	engine.Segment.MaxCycles = *maxCycles
	engine.Segment.MinRawLength = *minLength
	engine.Detection.Threshold.Threshold = *level

	res, err := pipeline.Normalize(flag.Arg(0), flag.Arg(1), flag.Arg(2), pipeline.NormalizeOptions{
		TimeColumn: *timeCol,
		Engine:     &engine,
		Logger:     logging.Global(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "gait_normalize failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("gait_normalize complete\n")
	fmt.Printf("merged samples:  %d\n", res.Samples)
	fmt.Printf("heel strikes:    %d\n", res.Events)
	fmt.Printf("cycles written:  %d\n", res.Cycles)
	fmt.Printf("channels:        %v\n", res.Channels)
	fmt.Printf("output:          %s\n", flag.Arg(2))
	if res.UnmatchedRows > 0 {
		fmt.Printf("warning:         %d samples had no matching time and were dropped\n", res.UnmatchedRows)
	}
	for _, ch := range res.Skipped {
		fmt.Printf("warning:         channel %s not found\n", ch)
	}
}
