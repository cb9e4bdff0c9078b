// Package response turns an acoustic chain into a sampled frequency response
// and the impulse response used for real-time convolution.
package response

import (
	"math"

	"github.com/cwbudde/algo-muffler/muffler"
)

// MinFrequency is the lowest frequency evaluated by Sweep. Bins below it are
// reported as fully transparent.
const MinFrequency = 1.0

// Sweep evaluates m at the fftSize/2+1 bin centres i·sampleRate/fftSize.
// It returns the bin frequencies, the transmission loss in dB and the complex
// pressure transfer function. Bins below MinFrequency carry TL 0 and H 1.
func Sweep(m *muffler.Muffler, fftSize int, sampleRate, c, rho float64) (freqs, tl []float64, h []complex128) {
	n := fftSize/2 + 1
	freqs = make([]float64, n)
	tl = make([]float64, n)
	h = make([]complex128, n)

	df := sampleRate / float64(fftSize)
	for i := 0; i < n; i++ {
		f := float64(i) * df
		freqs[i] = f
		if f < MinFrequency {
			h[i] = 1
			continue
		}
		omega := 2 * math.Pi * f
		total := m.TotalTransferMatrix(omega, c, rho)
		tl[i] = total.TransmissionLoss(m.ZSource, m.ZLoad)
		h[i] = total.PressureTransfer(m.ZSource, m.ZLoad)
	}
	return freqs, tl, h
}
