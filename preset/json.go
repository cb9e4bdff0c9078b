package preset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-muffler/muffler"
)

// File is the JSON schema for muffler presets. Lengths are in millimetres.
// Absent fields keep their default.
type File struct {
	InletDiameterMM   *float64 `json:"inlet_diameter_mm,omitempty"`
	InletLengthMM     *float64 `json:"inlet_length_mm,omitempty"`
	ChamberDiameterMM *float64 `json:"chamber_diameter_mm,omitempty"`
	ChamberLengthMM   *float64 `json:"chamber_length_mm,omitempty"`
	OutletDiameterMM  *float64 `json:"outlet_diameter_mm,omitempty"`
	OutletLengthMM    *float64 `json:"outlet_length_mm,omitempty"`

	Pump *PumpSetting `json:"pump,omitempty"`

	TemperatureC *float64 `json:"temperature_c,omitempty"`
}

// PumpSetting is a partial pump override entry in a preset file.
type PumpSetting struct {
	RPM       *float64 `json:"rpm,omitempty"`
	NumValves *int     `json:"num_valves,omitempty"`
	DutyCycle *float64 `json:"duty_cycle,omitempty"`
}

const mm = 1e-3

// LoadJSON loads a preset JSON file and applies it on top of the default
// params.
func LoadJSON(path string) (muffler.Params, error) {
	p := muffler.DefaultParams()
	b, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return p, fmt.Errorf("parse preset %s: %w", path, err)
	}

	if err := ApplyFile(&p, &f); err != nil {
		return p, fmt.Errorf("preset %s: %w", path, err)
	}
	return p, nil
}

// ApplyFile applies a parsed preset file onto an existing params value and
// validates the result.
func ApplyFile(dst *muffler.Params, f *File) error {
	if dst == nil {
		return errors.New("nil destination params")
	}
	if f == nil {
		return nil
	}

	lengths := []struct {
		name string
		src  *float64
		dst  *float64
	}{
		{"inlet_diameter_mm", f.InletDiameterMM, &dst.InletDiameter},
		{"inlet_length_mm", f.InletLengthMM, &dst.InletLength},
		{"chamber_diameter_mm", f.ChamberDiameterMM, &dst.ChamberDiameter},
		{"chamber_length_mm", f.ChamberLengthMM, &dst.ChamberLength},
		{"outlet_diameter_mm", f.OutletDiameterMM, &dst.OutletDiameter},
		{"outlet_length_mm", f.OutletLengthMM, &dst.OutletLength},
	}
	for _, l := range lengths {
		if l.src == nil {
			continue
		}
		if *l.src <= 0 {
			return fmt.Errorf("%s must be > 0", l.name)
		}
		*l.dst = *l.src * mm
	}

	if f.Pump != nil {
		if f.Pump.RPM != nil {
			if *f.Pump.RPM <= 0 {
				return fmt.Errorf("pump.rpm must be > 0")
			}
			dst.RPM = *f.Pump.RPM
		}
		if f.Pump.NumValves != nil {
			if *f.Pump.NumValves < 1 {
				return fmt.Errorf("pump.num_valves must be >= 1")
			}
			dst.NumValves = *f.Pump.NumValves
		}
		if f.Pump.DutyCycle != nil {
			if *f.Pump.DutyCycle < 0 || *f.Pump.DutyCycle > 1 {
				return fmt.Errorf("pump.duty_cycle must be in [0,1]")
			}
			dst.DutyCycle = *f.Pump.DutyCycle
		}
	}

	if f.TemperatureC != nil {
		dst.Temperature = *f.TemperatureC
	}
	return dst.Validate()
}

// FromParams returns a fully populated preset file for p.
func FromParams(p muffler.Params) *File {
	v := func(x float64) *float64 { return &x }
	n := p.NumValves
	return &File{
		InletDiameterMM:   v(p.InletDiameter / mm),
		InletLengthMM:     v(p.InletLength / mm),
		ChamberDiameterMM: v(p.ChamberDiameter / mm),
		ChamberLengthMM:   v(p.ChamberLength / mm),
		OutletDiameterMM:  v(p.OutletDiameter / mm),
		OutletLengthMM:    v(p.OutletLength / mm),
		Pump: &PumpSetting{
			RPM:       v(p.RPM),
			NumValves: &n,
			DutyCycle: v(p.DutyCycle),
		},
		TemperatureC: v(p.Temperature),
	}
}

// SaveJSON writes p as an indented preset file.
func SaveJSON(path string, p muffler.Params) error {
	b, err := json.MarshalIndent(FromParams(p), "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
