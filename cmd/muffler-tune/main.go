package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/cwbudde/algo-muffler/internal/logging"
	"github.com/cwbudde/algo-muffler/internal/paramflags"
	"github.com/cwbudde/algo-muffler/optimize"
	"github.com/cwbudde/algo-muffler/preset"
)

func main() {
	cfg := optimize.DefaultConfig()
	pf := paramflags.Register(flag.CommandLine)

	minDiameter := flag.Float64("min-diameter", cfg.ChamberDiameter.Min*1e3, "Smallest chamber diameter in mm")
	maxDiameter := flag.Float64("max-diameter", cfg.ChamberDiameter.Max*1e3, "Largest chamber diameter in mm")
	minLength := flag.Float64("min-length", cfg.ChamberLength.Min*1e3, "Shortest chamber length in mm")
	maxLength := flag.Float64("max-length", cfg.ChamberLength.Max*1e3, "Longest chamber length in mm")
	flag.IntVar(&cfg.Harmonics, "harmonics", cfg.Harmonics, "Number of pump harmonics to suppress")
	flag.Float64Var(&cfg.BandHz, "band", cfg.BandHz, "Half width in Hz of the band scored around each harmonic")
	flag.IntVar(&cfg.BandPoints, "band-points", cfg.BandPoints, "Frequencies evaluated per band")
	flag.StringVar(&cfg.Variant, "mayfly-variant", cfg.Variant, "Mayfly variant: ma|desma|olce|eobbma|gsasma|mpma|aoblmoa")
	flag.IntVar(&cfg.Population, "mayfly-pop", cfg.Population, "Male and female population size")
	flag.IntVar(&cfg.Iterations, "iterations", cfg.Iterations, "Mayfly iterations")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed")
	output := flag.String("output", "", "Write the tuned parameters as a preset JSON file (optional)")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	logger, err := logging.New(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	cfg.Logger = logger

	cfg.Base, err = pf.Params()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid parameters: %v\n", err)
		os.Exit(1)
	}
	cfg.ChamberDiameter = optimize.Range{Min: *minDiameter * 1e-3, Max: *maxDiameter * 1e-3}
	cfg.ChamberLength = optimize.Range{Min: *minLength * 1e-3, Max: *maxLength * 1e-3}
	cfg.Variant = strings.ToLower(cfg.Variant)

	res, err := optimize.TuneChamber(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tune: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Evaluations: %d\n", res.Evaluations)
	fmt.Printf("Baseline: chamber %.1f mm x %.1f mm, transmitted %.2f dB\n",
		cfg.Base.ChamberDiameter*1e3, cfg.Base.ChamberLength*1e3, res.BaselineScore)
	fmt.Printf("Tuned:    chamber %.1f mm x %.1f mm, transmitted %.2f dB (%.2f dB quieter)\n",
		res.Params.ChamberDiameter*1e3, res.Params.ChamberLength*1e3, res.Score, res.Improvement())

	if *output != "" {
		if err := preset.SaveJSON(*output, res.Params); err != nil {
			fmt.Fprintf(os.Stderr, "write %s: %v\n", *output, err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", *output)
	}
}
