package response

import (
	"fmt"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-dsp/dsp/window"
)

// ImpulseResponse converts a one-sided transfer function of fftSize/2+1 bins
// into a real impulse response of fftSize/2 samples. The imaginary parts of
// the DC and Nyquist bins are discarded, the Hermitian spectrum is inverse
// transformed (normalised by 1/fftSize) and the first half is tapered with a
// periodic Hann window 0.5·(1-cos(2πi/L)).
//
// It panics if len(h) != fftSize/2+1.
func ImpulseResponse(h []complex128, fftSize int) []float64 {
	bins := fftSize/2 + 1
	if fftSize < 2 || len(h) != bins {
		panic(fmt.Sprintf("response: transfer function has %d bins, want fftSize/2+1 = %d", len(h), bins))
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		panic(fmt.Sprintf("response: fft plan for size %d: %v", fftSize, err))
	}

	spec := make([]complex128, fftSize)
	copy(spec, h)
	spec[0] = complex(real(h[0]), 0)
	nyq := fftSize / 2
	spec[nyq] = complex(real(h[nyq]), 0)
	for k := 1; k < nyq; k++ {
		spec[fftSize-k] = cmplx.Conj(spec[k])
	}

	timeBuf := make([]complex128, fftSize)
	if err := plan.Inverse(timeBuf, spec); err != nil {
		panic(fmt.Sprintf("response: inverse fft: %v", err))
	}

	irLen := fftSize / 2
	win := window.Generate(window.TypeHann, irLen, window.WithPeriodic())
	ir := make([]float64, irLen)
	for i := range ir {
		ir[i] = real(timeBuf[i]) * win[i]
	}
	return ir
}
