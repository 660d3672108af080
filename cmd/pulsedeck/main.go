// Command pulsedeck compiles a deck file, steps it to completion, and
// writes the recorded probe trace as a table (and optionally a PNG plot).
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/pulsepower/pulsedeck/deck"
	"github.com/pulsepower/pulsedeck/solver"
	"github.com/pulsepower/pulsedeck/trace"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "pulsedeck:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("pulsedeck", flag.ContinueOnError)
	deckPath := fs.String("deck", "", "path to the input deck file (required)")
	outPath := fs.String("out", "", "path to write the trace table (default: stdout)")
	plotPath := fs.String("plot", "", "optional path to write a PNG trace plot")
	theta := fs.Float64("theta", solver.Theta, "theta-method weight")
	verbose := fs.Bool("v", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *deckPath == "" {
		return fmt.Errorf("-deck is required")
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	f, err := os.Open(*deckPath)
	if err != nil {
		return err
	}
	defer f.Close()

	circuit, err := deck.CompileWithOptions(f, deck.Options{Logger: logger})
	if err != nil {
		return fmt.Errorf("compile %s: %w", *deckPath, err)
	}
	for _, d := range circuit.Diagnostics {
		logger.Warn(d)
	}

	s := solver.New(circuit, solver.Options{Theta: *theta, Logger: logger})

	labels := make([]string, len(circuit.Probes))
	for i, p := range circuit.Probes {
		labels[i] = p.Label
	}
	rec := trace.NewRecorder(s, labels)
	if err := rec.Run(context.Background(), circuit.TEnd); err != nil {
		return err
	}

	out := os.Stdout
	if *outPath != "" {
		w, err := os.Create(*outPath)
		if err != nil {
			return err
		}
		defer w.Close()
		out = w
	}
	if err := trace.WriteTable(out, rec.Labels(), rec.Samples()); err != nil {
		return err
	}

	if *plotPath != "" {
		if err := trace.PlotPNG(*plotPath, rec.Labels(), rec.Samples(), 0, 0); err != nil {
			return fmt.Errorf("write plot: %w", err)
		}
	}
	return nil
}
