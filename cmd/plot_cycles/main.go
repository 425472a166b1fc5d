package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	gaitcycle "github.com/lucasjlepore/gait-analyzer"
	"github.com/lucasjlepore/gait-analyzer/render"
	"github.com/lucasjlepore/gait-analyzer/tabular"
)

func main() {
	html := flag.Bool("html", false, "Also write an interactive stats.html")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [--html] <normcycles_csv> <out_dir>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 2 {
		flag.Usage()
		os.Exit(2)
	}
	in, outDir := flag.Arg(0), flag.Arg(1)

	cycles, err := tabular.ReadCyclesCSVFile(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "plot_cycles failed: %v\n", err)
		os.Exit(1)
	}
	channels := tabular.CycleChannels(cycles)
	stats, err := gaitcycle.Aggregate(cycles, nil, channels)
	if err != nil {
		fmt.Fprintf(os.Stderr, "plot_cycles failed: %v\n", err)
		os.Exit(1)
	}
	charts, err := render.WritePNGs(outDir, cycles, stats, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "plot_cycles failed: %v\n", err)
		os.Exit(1)
	}
	if *html {
		path := filepath.Join(outDir, "stats.html")
		if err := render.WriteHTMLFile(path, "Gait cycles", render.Curves(stats)); err != nil {
			fmt.Fprintf(os.Stderr, "plot_cycles failed: %v\n", err)
			os.Exit(1)
		}
		charts = append(charts, path)
	}

	fmt.Printf("plot_cycles complete\n")
	fmt.Printf("cycles:          %d\n", len(cycles))
	for _, c := range cycles {
		for _, e := range gaitcycle.Extrema(c, channels) {
			fmt.Printf("cycle %d %-20s peak %.4f @ %.0f%%  min %.4f @ %.0f%%  ROM %.4f\n",
				e.Number, e.Channel, e.Peak, e.PeakPhase, e.Min, e.MinPhase, e.ROM)
		}
	}
	for _, p := range charts {
		fmt.Printf("chart:           %s\n", p)
	}
}
