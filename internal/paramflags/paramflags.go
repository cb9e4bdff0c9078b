// Package paramflags binds muffler parameters to command line flags. Flags
// that are set explicitly override values loaded from a preset file.
package paramflags

import (
	"flag"

	"github.com/cwbudde/algo-muffler/muffler"
	"github.com/cwbudde/algo-muffler/preset"
)

// Flags holds the registered flag values. Lengths are in millimetres.
type Flags struct {
	fs *flag.FlagSet

	Preset string

	InletDiameterMM   float64
	InletLengthMM     float64
	ChamberDiameterMM float64
	ChamberLengthMM   float64
	OutletDiameterMM  float64
	OutletLengthMM    float64

	RPM         float64
	NumValves   int
	DutyCycle   float64
	Temperature float64
}

// Register adds the parameter flags to fs with the default params as
// defaults.
func Register(fs *flag.FlagSet) *Flags {
	d := muffler.DefaultParams()
	f := &Flags{fs: fs}
	fs.StringVar(&f.Preset, "preset", "", "Preset JSON file (optional)")
	fs.Float64Var(&f.InletDiameterMM, "inlet-diameter", d.InletDiameter*1e3, "Inlet pipe diameter in mm")
	fs.Float64Var(&f.InletLengthMM, "inlet-length", d.InletLength*1e3, "Inlet pipe length in mm")
	fs.Float64Var(&f.ChamberDiameterMM, "chamber-diameter", d.ChamberDiameter*1e3, "Expansion chamber diameter in mm")
	fs.Float64Var(&f.ChamberLengthMM, "chamber-length", d.ChamberLength*1e3, "Expansion chamber length in mm")
	fs.Float64Var(&f.OutletDiameterMM, "outlet-diameter", d.OutletDiameter*1e3, "Outlet pipe diameter in mm")
	fs.Float64Var(&f.OutletLengthMM, "outlet-length", d.OutletLength*1e3, "Outlet pipe length in mm")
	fs.Float64Var(&f.RPM, "rpm", d.RPM, "Pump speed in revolutions per minute")
	fs.IntVar(&f.NumValves, "valves", d.NumValves, "Number of pump valves")
	fs.Float64Var(&f.DutyCycle, "duty", d.DutyCycle, "Valve duty cycle (0-1)")
	fs.Float64Var(&f.Temperature, "temperature", d.Temperature, "Air temperature in °C")
	return f
}

// Params loads the preset, if any, applies explicitly set flags on top and
// validates the result.
func (f *Flags) Params() (muffler.Params, error) {
	p := muffler.DefaultParams()
	if f.Preset != "" {
		var err error
		p, err = preset.LoadJSON(f.Preset)
		if err != nil {
			return p, err
		}
	}

	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "inlet-diameter":
			p.InletDiameter = f.InletDiameterMM * 1e-3
		case "inlet-length":
			p.InletLength = f.InletLengthMM * 1e-3
		case "chamber-diameter":
			p.ChamberDiameter = f.ChamberDiameterMM * 1e-3
		case "chamber-length":
			p.ChamberLength = f.ChamberLengthMM * 1e-3
		case "outlet-diameter":
			p.OutletDiameter = f.OutletDiameterMM * 1e-3
		case "outlet-length":
			p.OutletLength = f.OutletLengthMM * 1e-3
		case "rpm":
			p.RPM = f.RPM
		case "valves":
			p.NumValves = f.NumValves
		case "duty":
			p.DutyCycle = f.DutyCycle
		case "temperature":
			p.Temperature = f.Temperature
		}
	})
	return p, p.Validate()
}
