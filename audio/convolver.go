package audio

import (
	dspconv "github.com/cwbudde/algo-dsp/dsp/conv"
)

// Convolver is a streaming overlap-add convolver with a hot-swappable
// impulse response. It uses direct time-domain convolution per block, so the
// output of a block is available without added latency.
//
// The overlap tail is kept in time alignment with the output stream. When
// the impulse response shrinks mid-stream the old tail can outlive the new
// convolution; the unconsumed part stays at its position and keeps being
// summed in, so no tail energy is dropped.
type Convolver struct {
	ir      *IRHandle
	overlap []float64

	full []float64
}

// NewConvolver returns a convolver on a private unit impulse, i.e. a
// pass-through.
func NewConvolver() *Convolver {
	return NewConvolverWithHandle(NewIRHandle([]float64{1}))
}

// NewConvolverWithHandle returns a convolver reading its impulse response
// from h on every block.
func NewConvolverWithHandle(h *IRHandle) *Convolver {
	return &Convolver{ir: h}
}

// Handle returns the impulse response slot this convolver reads from.
func (c *Convolver) Handle() *IRHandle {
	return c.ir
}

// OverlapLen returns the number of pending tail samples.
func (c *Convolver) OverlapLen() int {
	return len(c.overlap)
}

// Reset clears the overlap tail.
func (c *Convolver) Reset() {
	c.overlap = c.overlap[:0]
}

// Process convolves one block and returns exactly len(input) samples. An
// empty impulse response yields silence and leaves the tail untouched.
func (c *Convolver) Process(input []float64) []float64 {
	out := make([]float64, len(input))
	ir := c.ir.Load()
	if len(ir) == 0 || len(input) == 0 {
		return out
	}

	convLen := len(input) + len(ir) - 1
	fullLen := convLen
	if len(c.overlap) > fullLen {
		fullLen = len(c.overlap)
	}
	if cap(c.full) < fullLen {
		c.full = make([]float64, fullLen)
	}
	full := c.full[:fullLen]
	dspconv.DirectTo(full[:convLen], input, ir)
	for i := convLen; i < fullLen; i++ {
		full[i] = 0
	}
	for i, v := range c.overlap {
		full[i] += v
	}

	n := copy(out, full)
	c.overlap = append(c.overlap[:0], full[n:]...)
	return out
}
