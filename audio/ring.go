package audio

import "sync"

// ringBuffer is a bounded FIFO of mono samples shared by the producer and the
// device callback.
type ringBuffer struct {
	mu    sync.Mutex
	buf   []float64
	head  int
	count int
}

func newRingBuffer(capacity int) *ringBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &ringBuffer{buf: make([]float64, capacity)}
}

func (r *ringBuffer) Cap() int {
	return len(r.buf)
}

func (r *ringBuffer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Push appends as many samples as fit and returns how many were stored.
func (r *ringBuffer) Push(samples []float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	free := len(r.buf) - r.count
	n := len(samples)
	if n > free {
		n = free
	}
	tail := (r.head + r.count) % len(r.buf)
	for i := 0; i < n; i++ {
		r.buf[tail] = samples[i]
		tail++
		if tail == len(r.buf) {
			tail = 0
		}
	}
	r.count += n
	return n
}

// PopInto moves up to len(dst) samples from the head into dst and returns how
// many were moved.
func (r *ringBuffer) PopInto(dst []float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(dst)
	if n > r.count {
		n = r.count
	}
	for i := 0; i < n; i++ {
		dst[i] = r.buf[r.head]
		r.head++
		if r.head == len(r.buf) {
			r.head = 0
		}
	}
	r.count -= n
	return n
}

func (r *ringBuffer) Clear() {
	r.mu.Lock()
	r.head = 0
	r.count = 0
	r.mu.Unlock()
}
