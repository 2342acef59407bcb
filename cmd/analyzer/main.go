package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/signalsfoundry/adaptive-wifi-sim/internal/analysis"
)

func main() {
	inPath := flag.String("in", "result/ftm_metrics.csv", "metrics CSV to analyze")
	reportPath := flag.String("report", "", "also write the report to this file (empty = stdout only)")
	flag.Parse()

	f, err := os.Open(*inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analyzer: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	rows, err := analysis.ParseMetrics(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analyzer: %v\n", err)
		os.Exit(1)
	}

	rep := analysis.Analyze(rows)
	text := analysis.RenderText(rep, rep.Recommendations())
	fmt.Print(text)

	if *reportPath != "" {
		if err := os.WriteFile(*reportPath, []byte(text), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "analyzer: write report: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nReport written to %s\n", *reportPath)
	}
}
