package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasjlepore/gait-analyzer/internal/logging"
	"github.com/lucasjlepore/gait-analyzer/musclemodel"
	"github.com/lucasjlepore/gait-analyzer/tabular"
)

func main() {
	var (
		muscles = flag.String("muscles", strings.Join(musclemodel.DefaultMuscles, ","), "Comma separated muscles to report")
		timeCol = flag.String("time-column", tabular.DefaultTimeColumn, "Name of the time column")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <model.yaml> <input_csv> <output_csv>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 3 {
		flag.Usage()
		os.Exit(2)
	}
	modelPath, in, out := flag.Arg(0), flag.Arg(1), flag.Arg(2)

	model, err := musclemodel.LoadLinearModel(modelPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "muscle_lengths failed: %v\n", err)
		os.Exit(1)
	}
	read, err := tabular.ReadCSVFile(in, *timeCol)
	if err != nil {
		fmt.Fprintf(os.Stderr, "muscle_lengths failed: %v\n", err)
		os.Exit(1)
	}

	var names []string
	for _, m := range strings.Split(*muscles, ",") {
		if m = strings.TrimSpace(m); m != "" {
			names = append(names, m)
		}
	}
	res, err := musclemodel.ComputeLengths(model, read.Series, tabular.Gait2392Columns, names)
	if err != nil {
		fmt.Fprintf(os.Stderr, "muscle_lengths failed: %v\n", err)
		os.Exit(1)
	}
	for _, m := range res.Missing {
		logging.Warn("angle column not found, coordinate keeps model default", "column", m)
	}
	if err := tabular.WriteSeriesCSVFile(out, res.Series, *timeCol); err != nil {
		fmt.Fprintf(os.Stderr, "muscle_lengths failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("muscle_lengths complete\n")
	fmt.Printf("model:           %s\n", model.Name)
	fmt.Printf("frames:          %d\n", res.Series.Len())
	fmt.Printf("muscles:         %s\n", strings.Join(res.Series.ChannelNames(), ", "))
	fmt.Printf("output:          %s\n", out)
}
