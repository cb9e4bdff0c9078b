// Package sim runs the full simulation: build the muffler from parameters,
// sweep its frequency response and synthesise the impulse response.
package sim

import (
	"github.com/cwbudde/algo-muffler/muffler"
	"github.com/cwbudde/algo-muffler/response"
)

const (
	// SampleRate is the rate the frequency sweep and impulse response use.
	SampleRate = 44100
	// FFTSize sets the sweep resolution; the impulse response has FFTSize/2 taps.
	FFTSize = 4096
)

// Result holds everything a run produces. Frequencies, TransmissionLoss and
// TransferFunction have FFTSize/2+1 entries; ImpulseResponse has FFTSize/2.
type Result struct {
	Frequencies      []float64
	TransmissionLoss []float64
	TransferFunction []complex128
	ImpulseResponse  []float64
	SampleRate       int
}

// Compute validates p and runs the simulation at SampleRate and FFTSize.
func Compute(p muffler.Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	c, rho := p.Air()
	m := muffler.FromParams(p)
	freqs, tl, h := response.Sweep(m, FFTSize, SampleRate, c, rho)
	return &Result{
		Frequencies:      freqs,
		TransmissionLoss: tl,
		TransferFunction: h,
		ImpulseResponse:  response.ImpulseResponse(h, FFTSize),
		SampleRate:       SampleRate,
	}, nil
}
