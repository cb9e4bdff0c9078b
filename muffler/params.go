package muffler

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-muffler/acoustic"
)

// ErrInvalidParams is wrapped by every validation failure of Params.
var ErrInvalidParams = errors.New("muffler: invalid params")

// Params is the full parameter set of a simulation run: the geometry of a
// single expansion chamber muffler (all lengths in metres), the pump that
// excites it and the air temperature.
type Params struct {
	InletDiameter   float64
	InletLength     float64
	ChamberDiameter float64
	ChamberLength   float64
	OutletDiameter  float64
	OutletLength    float64

	RPM       float64
	NumValves int
	// DutyCycle is the fraction of a revolution each valve is open, in [0,1].
	DutyCycle float64

	// Temperature is the air temperature in °C.
	Temperature float64
}

// DefaultParams returns a small pump muffler: 6 mm pipes, a 40x80 mm chamber
// and a three-valve pump at 3000 rpm in 20 °C air.
func DefaultParams() Params {
	return Params{
		InletDiameter:   0.006,
		InletLength:     0.030,
		ChamberDiameter: 0.040,
		ChamberLength:   0.080,
		OutletDiameter:  0.006,
		OutletLength:    0.030,
		RPM:             3000,
		NumValves:       3,
		DutyCycle:       0.5,
		Temperature:     20,
	}
}

// Validate reports the first parameter that cannot produce a finite response.
func (p Params) Validate() error {
	geometry := []struct {
		name string
		v    float64
	}{
		{"inlet diameter", p.InletDiameter},
		{"inlet length", p.InletLength},
		{"chamber diameter", p.ChamberDiameter},
		{"chamber length", p.ChamberLength},
		{"outlet diameter", p.OutletDiameter},
		{"outlet length", p.OutletLength},
	}
	for _, g := range geometry {
		if !isFinite(g.v) || g.v <= 0 {
			return fmt.Errorf("%w: %s must be > 0, got %g", ErrInvalidParams, g.name, g.v)
		}
	}
	if !isFinite(p.RPM) || p.RPM <= 0 {
		return fmt.Errorf("%w: rpm must be > 0, got %g", ErrInvalidParams, p.RPM)
	}
	if p.NumValves < 1 {
		return fmt.Errorf("%w: num valves must be >= 1, got %d", ErrInvalidParams, p.NumValves)
	}
	if !isFinite(p.DutyCycle) || p.DutyCycle < 0 || p.DutyCycle > 1 {
		return fmt.Errorf("%w: duty cycle must be in [0,1], got %g", ErrInvalidParams, p.DutyCycle)
	}
	if !isFinite(p.Temperature) || p.Temperature <= -acoustic.ZeroCelsius {
		return fmt.Errorf("%w: temperature must be above absolute zero, got %g", ErrInvalidParams, p.Temperature)
	}
	return nil
}

// Air returns the speed of sound and density at the params temperature.
func (p Params) Air() (c, rho float64) {
	return acoustic.SpeedOfSoundAndDensity(p.Temperature)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
