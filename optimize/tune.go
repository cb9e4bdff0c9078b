// Package optimize tunes the expansion chamber geometry so the muffler
// transmits as little of the pump's harmonic content as possible.
package optimize

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"

	"github.com/cwbudde/algo-approx"
	"github.com/cwbudde/mayfly"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-muffler/muffler"
)

const ln10 = 2.302585092994045684017991454684

// Range is a closed search interval in metres.
type Range struct {
	Min, Max float64
}

func (r Range) valid() bool {
	return r.Min > 0 && r.Max > r.Min
}

func (r Range) at(x float64) float64 {
	return r.Min + clamp01(x)*(r.Max-r.Min)
}

// Config controls a chamber tuning run.
type Config struct {
	// Base supplies the pipes, the pump and the temperature. Its chamber
	// geometry is the starting point the result is compared against.
	Base muffler.Params

	ChamberDiameter Range
	ChamberLength   Range

	// Harmonics is how many multiples of the pump fundamental are scored.
	Harmonics int
	// BandHz is the half width of the band averaged around each harmonic,
	// which keeps the score from rewarding knife-edge resonances.
	BandHz float64
	// BandPoints is the number of frequencies evaluated per band.
	BandPoints int

	Variant    string
	Population int
	Iterations int
	Seed       int64

	Logger *zap.Logger
}

// DefaultConfig searches the chamber over 10-100 mm diameter and
// 10-300 mm length for the first five harmonics of the default pump.
func DefaultConfig() Config {
	return Config{
		Base:            muffler.DefaultParams(),
		ChamberDiameter: Range{Min: 0.010, Max: 0.100},
		ChamberLength:   Range{Min: 0.010, Max: 0.300},
		Harmonics:       5,
		BandHz:          10,
		BandPoints:      5,
		Variant:         "desma",
		Population:      12,
		Iterations:      40,
		Seed:            1,
	}
}

func (c *Config) Validate() error {
	if err := c.Base.Validate(); err != nil {
		return err
	}
	if !c.ChamberDiameter.valid() {
		return fmt.Errorf("invalid chamber diameter range %+v", c.ChamberDiameter)
	}
	if !c.ChamberLength.valid() {
		return fmt.Errorf("invalid chamber length range %+v", c.ChamberLength)
	}
	if c.Harmonics < 1 {
		return fmt.Errorf("harmonics must be >= 1")
	}
	if c.BandHz < 0 {
		return fmt.Errorf("band must be >= 0")
	}
	if c.BandPoints < 1 {
		return fmt.Errorf("band points must be >= 1")
	}
	if _, ok := mayflyVariants[c.Variant]; !ok {
		return fmt.Errorf("unsupported mayfly variant %q", c.Variant)
	}
	if c.Population < 2 {
		return fmt.Errorf("population must be >= 2")
	}
	if c.Iterations < 1 {
		return fmt.Errorf("iterations must be >= 1")
	}
	return nil
}

// Result is the outcome of a tuning run. Scores are the mean transmitted
// level in dB across the scored harmonic bands; lower is quieter.
type Result struct {
	Params        muffler.Params
	Score         float64
	BaselineScore float64
	Evaluations   int
}

// Improvement returns how many dB quieter the tuned chamber is.
func (r Result) Improvement() float64 {
	return r.BaselineScore - r.Score
}

// Score returns the mean transmitted level in dB of p over bands around the
// first harmonics multiples of the pump fundamental.
func Score(p muffler.Params, harmonics int, bandHz float64, bandPoints int) float64 {
	m := muffler.FromParams(p)
	c, rho := p.Air()
	f0 := float64(p.NumValves) * p.RPM / 60

	var sum float64
	var n int
	for k := 1; k <= harmonics; k++ {
		fc := float64(k) * f0
		for j := 0; j < bandPoints; j++ {
			f := fc
			if bandPoints > 1 {
				f = fc - bandHz + 2*bandHz*float64(j)/float64(bandPoints-1)
			}
			if f <= 0 {
				continue
			}
			h := cmplx.Abs(m.PressureTransfer(2*math.Pi*f, c, rho))
			sum += h * h
			n++
		}
	}
	if n == 0 {
		return 0
	}
	mean := sum / float64(n)
	if mean < 1e-24 {
		mean = 1e-24
	}
	return 10 * approx.FastLog(mean) / ln10
}

// TuneChamber searches chamber diameter and length with the Mayfly
// optimiser. It never returns a result worse than the base geometry.
func TuneChamber(cfg Config) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	score := func(p muffler.Params) float64 {
		return Score(p, cfg.Harmonics, cfg.BandHz, cfg.BandPoints)
	}

	baseline := score(cfg.Base)
	best := Result{Params: cfg.Base, Score: baseline, BaselineScore: baseline}

	mcfg, err := newMayflyConfig(cfg.Variant, cfg.Population, 2, cfg.Iterations)
	if err != nil {
		return Result{}, err
	}
	mcfg.Rand = rand.New(rand.NewSource(cfg.Seed))
	mcfg.ObjectiveFunc = func(pos []float64) float64 {
		p := cfg.Base
		p.ChamberDiameter = cfg.ChamberDiameter.at(at(pos, 0))
		p.ChamberLength = cfg.ChamberLength.at(at(pos, 1))
		s := score(p)
		best.Evaluations++
		if s < best.Score {
			best.Params = p
			best.Score = s
			log.Debug("improved",
				zap.Int("eval", best.Evaluations),
				zap.Float64("score_db", s),
				zap.Float64("chamber_diameter_m", p.ChamberDiameter),
				zap.Float64("chamber_length_m", p.ChamberLength))
		}
		return s
	}

	if _, err := runMayfly(mcfg); err != nil {
		return best, err
	}
	log.Info("tuning finished",
		zap.Int("evaluations", best.Evaluations),
		zap.Float64("baseline_db", best.BaselineScore),
		zap.Float64("best_db", best.Score))
	return best, nil
}

// mayflyVariants maps the -mayfly-variant names to their constructors. The
// empty name selects DESMA.
var mayflyVariants = map[string]func() *mayfly.Config{
	"":        mayfly.NewDESMAConfig,
	"ma":      mayfly.NewDefaultConfig,
	"desma":   mayfly.NewDESMAConfig,
	"olce":    mayfly.NewOLCEConfig,
	"eobbma":  mayfly.NewEOBBMAConfig,
	"gsasma":  mayfly.NewGSASMAConfig,
	"mpma":    mayfly.NewMPMAConfig,
	"aoblmoa": mayfly.NewAOBLMOAConfig,
}

// newMayflyConfig sizes a variant's config for a search over the unit cube.
// The variant must have passed Config.Validate.
func newMayflyConfig(variant string, pop int, dims int, iters int) (*mayfly.Config, error) {
	newCfg, ok := mayflyVariants[variant]
	if !ok {
		return nil, fmt.Errorf("unsupported variant %q", variant)
	}
	cfg := newCfg()
	cfg.ProblemSize = dims
	cfg.LowerBound = 0.0
	cfg.UpperBound = 1.0
	cfg.MaxIterations = iters
	cfg.NPop = pop
	cfg.NPopF = pop
	cfg.NC = 2 * pop
	cfg.NM = max(1, int(math.Round(0.05*float64(pop))))
	return cfg, nil
}

var errMayflyPanic = errors.New("mayfly panic")

func runMayfly(cfg *mayfly.Config) (_ *mayfly.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errMayflyPanic, r)
		}
	}()
	return mayfly.Optimize(cfg)
}

func at(pos []float64, i int) float64 {
	if i < len(pos) {
		return pos[i]
	}
	return 0.5
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
