package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/signalsfoundry/adaptive-wifi-sim/core"
	"github.com/signalsfoundry/adaptive-wifi-sim/internal/logging"
	"github.com/signalsfoundry/adaptive-wifi-sim/internal/observability"
	"github.com/signalsfoundry/adaptive-wifi-sim/internal/recorder"
	"github.com/signalsfoundry/adaptive-wifi-sim/timectrl"
)

func main() {
	scenarioPath := flag.String("scenario", "", "path to a JSON scenario (empty = built-in reference scenario)")
	outPath := flag.String("out", "result/ftm_metrics.csv", "metrics CSV output path")
	accelerated := flag.Bool("accelerated", true, "run in accelerated mode (vs real-time)")
	metricsAddr := flag.String("metrics-addr", "", "listen address for the Prometheus /metrics endpoint (empty = disabled)")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "tracing init failed", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdown, log)

	scenario := core.DefaultScenario()
	if *scenarioPath != "" {
		f, err := os.Open(*scenarioPath)
		if err != nil {
			log.Error(ctx, "open scenario failed", logging.String("error", err.Error()))
			os.Exit(1)
		}
		scenario, err = core.LoadScenario(f)
		f.Close()
		if err != nil {
			log.Error(ctx, "load scenario failed", logging.String("error", err.Error()))
			os.Exit(1)
		}
	}

	kb, err := scenario.BuildKnowledgeBase()
	if err != nil {
		log.Error(ctx, "build knowledge base failed", logging.String("error", err.Error()))
		os.Exit(1)
	}
	mobility := core.NewMobilityService(kb, scenario.Nodes)
	source := core.NewSimulatedFlowSource(kb, scenario.PathLoss, scenario.Traffic)

	if dir := filepath.Dir(*outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Error(ctx, "create output directory failed", logging.String("error", err.Error()))
			os.Exit(1)
		}
	}
	outFile, err := os.Create(*outPath)
	if err != nil {
		log.Error(ctx, "create output file failed", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer outFile.Close()
	w := bufio.NewWriter(outFile)
	defer w.Flush()

	rec, err := recorder.NewCSVRecorder(w, scenario.Control.TickInterval)
	if err != nil {
		log.Error(ctx, "create recorder failed", logging.String("error", err.Error()))
		os.Exit(1)
	}

	controller := core.NewAdaptiveController(kb, source, rec, scenario.Control, log)
	controller.SetPathLoss(scenario.PathLoss)
	controller.SetPolicy(scenario.Policy)
	controller.SetActuator(scenario.Actuator)
	controller.SetTracer(otel.Tracer("simulator"))

	if *metricsAddr != "" {
		collector, err := observability.NewControlLoopCollector(nil)
		if err != nil {
			log.Error(ctx, "metrics setup failed", logging.String("error", err.Error()))
			os.Exit(1)
		}
		controller.SetMetrics(collector)

		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		go func() {
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				log.Warn(ctx, "metrics endpoint stopped", logging.String("error", err.Error()))
			}
		}()
		log.Info(ctx, "serving metrics", logging.String("addr", *metricsAddr))
	}

	mode := timectrl.RealTime
	if *accelerated {
		mode = timectrl.Accelerated
	}
	start := time.Now().UTC()
	tc := timectrl.NewTimeController(start, scenario.Control.TickInterval, mode)

	var tickErr error
	tc.AddListener(func(simTime time.Time) {
		elapsed := simTime.Sub(start)
		mobility.UpdatePositions(elapsed)
		source.Advance(elapsed)
		if err := controller.Tick(ctx, elapsed); err != nil {
			if tickErr == nil {
				tickErr = err
			}
			log.Error(ctx, "tick failed", logging.String("error", err.Error()))
		}
	})

	horizon := scenario.Control.ObservationEnd + scenario.Control.TickInterval
	log.Info(ctx, "starting simulation",
		logging.String("horizon", horizon.String()),
		logging.String("tick", scenario.Control.TickInterval.String()),
		logging.Int("links", len(scenario.Links)),
	)
	if err := tc.Run(ctx, horizon); err != nil {
		log.Error(ctx, "simulation aborted", logging.String("error", err.Error()))
		os.Exit(1)
	}
	if tickErr != nil {
		os.Exit(1)
	}

	printSummary(rec.Summaries())
	fmt.Printf("\nMetrics written to %s\n", *outPath)
}

func printSummary(summaries []recorder.LinkSummary) {
	fmt.Println("\n=== Adaptive WiFi Performance Summary ===")
	fmt.Printf("%-15s%-22s%-10s%-10s%-15s%-12s\n",
		"Flow", "Avg Throughput(Mbps)", "PDR(%)", "Loss(%)", "Avg Delay(ms)", "p95 Delay(ms)")
	for _, s := range summaries {
		fmt.Printf("%-15s%-22.3f%-10.2f%-10.2f%-15.3f%-12.3f\n",
			s.Link, s.AvgThroughputMbps, s.PDRPercent, s.LossPercent, s.AvgDelayMs, s.DelayP95Ms)
	}
}
