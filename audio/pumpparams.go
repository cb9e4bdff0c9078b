package audio

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/cwbudde/algo-dsp/dsp/core"
)

// ErrInvalidPumpParams is returned by SetPumpParams for parameters the pump
// cannot run with.
var ErrInvalidPumpParams = errors.New("audio: invalid pump parameters")

// PumpParams is a snapshot of the live pump controls.
type PumpParams struct {
	RPM       float64
	NumValves int
	DutyCycle float64
}

// DefaultPumpParams matches the default simulation pump.
func DefaultPumpParams() PumpParams {
	return PumpParams{RPM: 3000, NumValves: 3, DutyCycle: 0.5}
}

// normalized checks pp and clamps the duty cycle to [0,1].
func (pp PumpParams) normalized() (PumpParams, error) {
	switch {
	case math.IsNaN(pp.RPM) || math.IsInf(pp.RPM, 0) || pp.RPM <= 0:
		return pp, fmt.Errorf("%w: rpm %v", ErrInvalidPumpParams, pp.RPM)
	case pp.NumValves < 1:
		return pp, fmt.Errorf("%w: %d valves", ErrInvalidPumpParams, pp.NumValves)
	case math.IsNaN(pp.DutyCycle):
		return pp, fmt.Errorf("%w: duty cycle is NaN", ErrInvalidPumpParams)
	}
	pp.DutyCycle = core.Clamp(pp.DutyCycle, 0, 1)
	return pp, nil
}

// PumpParamsHandle shares PumpParams between the control side and the
// producer.
type PumpParamsHandle struct {
	mu sync.Mutex
	p  PumpParams
}

// NewPumpParamsHandle returns a handle holding p.
func NewPumpParamsHandle(p PumpParams) *PumpParamsHandle {
	return &PumpParamsHandle{p: p}
}

// Store replaces the parameters.
func (h *PumpParamsHandle) Store(p PumpParams) {
	h.mu.Lock()
	h.p = p
	h.mu.Unlock()
}

// Load returns the current parameters.
func (h *PumpParamsHandle) Load() PumpParams {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.p
}
