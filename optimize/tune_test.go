package optimize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-muffler/muffler"
)

func TestScoreOfStraightPipeIsTransparent(t *testing.T) {
	p := muffler.DefaultParams()
	p.ChamberDiameter = p.InletDiameter
	assert.InDelta(t, 0, Score(p, 5, 10, 5), 0.05)
}

func TestScoreRewardsExpansion(t *testing.T) {
	narrow := muffler.DefaultParams()
	narrow.ChamberDiameter = 0.012
	wide := muffler.DefaultParams()
	wide.ChamberDiameter = 0.08
	assert.Less(t, Score(wide, 5, 10, 5), Score(narrow, 5, 10, 5))
}

func TestTuneChamberImprovesOnStraightPipe(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Base.ChamberDiameter = cfg.Base.InletDiameter
	cfg.Population = 8
	cfg.Iterations = 10

	res, err := TuneChamber(cfg)
	require.NoError(t, err)
	assert.Positive(t, res.Evaluations)
	assert.Greater(t, res.Improvement(), 10.0)
	assert.GreaterOrEqual(t, res.Params.ChamberDiameter, cfg.ChamberDiameter.Min)
	assert.LessOrEqual(t, res.Params.ChamberDiameter, cfg.ChamberDiameter.Max)
	assert.GreaterOrEqual(t, res.Params.ChamberLength, cfg.ChamberLength.Min)
	assert.LessOrEqual(t, res.Params.ChamberLength, cfg.ChamberLength.Max)
	assert.Equal(t, cfg.Base.RPM, res.Params.RPM)
	assert.False(t, math.IsNaN(res.Score))
}

func TestTuneChamberNeverWorseThanBase(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Population = 6
	cfg.Iterations = 2
	res, err := TuneChamber(cfg)
	require.NoError(t, err)
	assert.LessOrEqual(t, res.Score, res.BaselineScore)
}

func TestTuneChamberRejectsInvalidConfig(t *testing.T) {
	cases := map[string]func(c *Config){
		"bad base":      func(c *Config) { c.Base.RPM = 0 },
		"empty range":   func(c *Config) { c.ChamberLength = Range{Min: 0.1, Max: 0.1} },
		"no harmonics":  func(c *Config) { c.Harmonics = 0 },
		"tiny swarm":    func(c *Config) { c.Population = 1 },
		"no iterations": func(c *Config) { c.Iterations = 0 },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(&cfg)
		_, err := TuneChamber(cfg)
		assert.Error(t, err, name)
	}

	cfg := DefaultConfig()
	cfg.Variant = "simplex"
	assert.ErrorContains(t, cfg.Validate(), "unsupported mayfly variant")
	_, err := TuneChamber(cfg)
	assert.ErrorContains(t, err, "unsupported mayfly variant")
}

func TestValidateAcceptsEveryMayflyVariant(t *testing.T) {
	for name := range mayflyVariants {
		cfg := DefaultConfig()
		cfg.Variant = name
		require.NoError(t, cfg.Validate(), "variant %q", name)
		mcfg, err := newMayflyConfig(name, cfg.Population, 2, cfg.Iterations)
		require.NoError(t, err, "variant %q", name)
		assert.Equal(t, 2, mcfg.ProblemSize)
		assert.Equal(t, 2*cfg.Population, mcfg.NC)
	}
}
