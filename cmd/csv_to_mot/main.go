package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lucasjlepore/gait-analyzer/internal/logging"
	"github.com/lucasjlepore/gait-analyzer/tabular"
)

func main() {
	timeCol := flag.String("time-column", tabular.DefaultTimeColumn, "Name of the time column")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <input_csv> <output_mot>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	in, out := flag.Arg(0), flag.Arg(1)

	read, err := tabular.ReadCSVFile(in, *timeCol)
	if err != nil {
		fmt.Fprintf(os.Stderr, "csv_to_mot failed: %v\n", err)
		os.Exit(1)
	}
	mapped, missing, err := tabular.MapColumns(read.Series, tabular.Gait2392Columns)
	if err != nil {
		fmt.Fprintf(os.Stderr, "csv_to_mot failed: %v\n", err)
		os.Exit(1)
	}
	for _, m := range missing {
		logging.Warn("column not found in CSV", "column", m)
	}
	if err := tabular.WriteMotFile(out, mapped); err != nil {
		fmt.Fprintf(os.Stderr, "csv_to_mot failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("csv_to_mot complete\n")
	fmt.Printf("rows:            %d\n", mapped.Len())
	fmt.Printf("coordinates:     %d\n", len(mapped.ChannelNames()))
	fmt.Printf("output:          %s\n", out)
}
