package audio

import "sync"

// IRHandle is a shared, hot-swappable impulse response slot. A single handle
// is read by the producer's Convolver and written by whoever recomputes the
// response.
type IRHandle struct {
	mu sync.Mutex
	ir []float64
}

// NewIRHandle returns a handle holding a copy of ir.
func NewIRHandle(ir []float64) *IRHandle {
	h := &IRHandle{}
	h.Store(ir)
	return h
}

// Store replaces the impulse response with a copy of ir.
func (h *IRHandle) Store(ir []float64) {
	next := append([]float64(nil), ir...)
	h.mu.Lock()
	h.ir = next
	h.mu.Unlock()
}

// Load returns the current impulse response. The returned slice is never
// written again and must not be modified by the caller.
func (h *IRHandle) Load() []float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.ir
}

// Len returns the current impulse response length.
func (h *IRHandle) Len() int {
	return len(h.Load())
}
