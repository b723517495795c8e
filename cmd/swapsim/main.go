// Command swapsim loads a scenario of tokens, pools, holdings and a route,
// evaluates the route with the swap engine and prints the result as JSON.
package main

import (
	"flag"
	"io"
	"log/slog"
	"os"

	"github.com/defistate/defistate-swap-go/cmd/swapsim/config"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	configPath := flag.String("config", "scenario.yaml", "Path to the scenario file (.yaml, .toml or .json).")
	verbose := flag.Bool("v", false, "Log engine swaps at debug level.")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	// stdout carries the report, logs go to stderr
	rootLogger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	rootLogger.Info("loading scenario", "path", *configPath)
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		rootLogger.Error("Failed to load scenario", "error", err)
		os.Exit(1)
	}

	if err := run(cfg, rootLogger, prometheus.DefaultRegisterer, os.Stdout); err != nil {
		rootLogger.Error("Run failed", "mode", cfg.Mode, "error", err)
		os.Exit(1)
	}
}

// run builds the scenario, evaluates its route and writes the report to w. A
// report is written for a failed run whenever the scenario itself was valid.
func run(cfg *config.Scenario, logger *slog.Logger, reg prometheus.Registerer, w io.Writer) error {
	sim, err := newSimulator(cfg, logger, reg)
	if err != nil {
		return err
	}

	path, runErr := sim.run()
	report, err := sim.report(path, runErr)
	if err != nil {
		return err
	}
	if err := writeReport(w, report); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}

	logger.Info("route evaluated", "mode", cfg.Mode, "hops", path.Len(), "amount_out", report.AmountOut.Raw)
	return nil
}
