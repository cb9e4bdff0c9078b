// Package audio streams the pump excitation through a hot-swappable
// impulse response to an output device.
package audio

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-muffler/pump"
)

const (
	// DefaultBlockSize is the number of samples the producer renders per step.
	DefaultBlockSize = 512
	// HighWaterBlocks is the ring occupancy, in blocks, at which the producer
	// backs off.
	HighWaterBlocks = 8
	// DefaultVolume is the output gain of a new pipeline.
	DefaultVolume = 0.5
	// DefaultSampleRate is reported before the first Play.
	DefaultSampleRate = 44100

	producerBackoff = 5 * time.Millisecond
	ringSeconds     = 0.1
)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for lifecycle and hot-swap events.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithBlockSize overrides the producer block size.
func WithBlockSize(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.blockSize = n
		}
	}
}

// WithPumpParams sets the initial pump parameters. Invalid parameters are
// ignored.
func WithPumpParams(pp PumpParams) Option {
	return func(p *Pipeline) {
		if n, err := pp.normalized(); err == nil {
			p.pump.Store(n)
		}
	}
}

// Pipeline owns the playback session: a producer goroutine that renders pump
// blocks through a Convolver into a bounded ring, and a device stream whose
// callback drains the ring. The impulse response, pump parameters and volume
// can be changed while playing.
type Pipeline struct {
	dev       Device
	logger    *zap.Logger
	blockSize int

	ir     *IRHandle
	pump   *PumpParamsHandle
	volume atomic.Uint64

	mu         sync.Mutex
	playing    atomic.Bool
	running    atomic.Bool
	stream     Stream
	ring       *ringBuffer
	wg         sync.WaitGroup
	sampleRate atomic.Int64
}

// NewPipeline returns a stopped pipeline that plays on dev. The impulse
// response starts as a unit impulse.
func NewPipeline(dev Device, opts ...Option) *Pipeline {
	p := &Pipeline{
		dev:       dev,
		logger:    zap.NewNop(),
		blockSize: DefaultBlockSize,
		ir:        NewIRHandle([]float64{1}),
		pump:      NewPumpParamsHandle(DefaultPumpParams()),
	}
	p.volume.Store(math.Float64bits(DefaultVolume))
	p.sampleRate.Store(DefaultSampleRate)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IsPlaying reports whether a session is active.
func (p *Pipeline) IsPlaying() bool {
	return p.playing.Load()
}

// SampleRate returns the rate of the current or last session.
func (p *Pipeline) SampleRate() int {
	return int(p.sampleRate.Load())
}

// BlockSize returns the producer block size.
func (p *Pipeline) BlockSize() int {
	return p.blockSize
}

// IRHandle returns the shared impulse response slot.
func (p *Pipeline) IRHandle() *IRHandle {
	return p.ir
}

// SwapIR replaces the impulse response. Responses containing NaN or Inf are
// rejected and the previous one stays active.
func (p *Pipeline) SwapIR(ir []float64) error {
	for i, v := range ir {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			p.logger.Warn("rejected impulse response, keeping previous",
				zap.Int("index", i), zap.Float64("value", v), zap.Int("length", len(ir)))
			return fmt.Errorf("%w: sample %d is %v", ErrNonFiniteIR, i, v)
		}
	}
	p.ir.Store(ir)
	p.logger.Debug("impulse response swapped", zap.Int("length", len(ir)))
	return nil
}

// SetPumpParams changes the pump without restarting the stream. The duty
// cycle is clamped to [0,1]. A non-finite or non-positive RPM, a NaN duty
// cycle or fewer than one valve is rejected and the previous parameters stay
// active.
func (p *Pipeline) SetPumpParams(rpm float64, numValves int, dutyCycle float64) error {
	pp, err := PumpParams{RPM: rpm, NumValves: numValves, DutyCycle: dutyCycle}.normalized()
	if err != nil {
		p.logger.Warn("rejected pump parameters, keeping previous",
			zap.Float64("rpm", rpm), zap.Int("valves", numValves),
			zap.Float64("duty", dutyCycle), zap.Error(err))
		return err
	}
	p.pump.Store(pp)
	return nil
}

// PumpParams returns the current pump parameters.
func (p *Pipeline) PumpParams() PumpParams {
	return p.pump.Load()
}

// SetVolume sets the output gain, clamped to [0,1].
func (p *Pipeline) SetVolume(v float64) {
	if math.IsNaN(v) {
		v = 0
	}
	p.volume.Store(math.Float64bits(core.Clamp(v, 0, 1)))
}

// Volume returns the output gain.
func (p *Pipeline) Volume() float64 {
	return math.Float64frombits(p.volume.Load())
}

// Play opens a stream on the device and starts the producer. It is a no-op
// while already playing. On error the pipeline is left stopped.
func (p *Pipeline) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing.Load() {
		return nil
	}

	cfg, err := p.dev.DefaultConfig()
	if err != nil {
		return fmt.Errorf("%w: default config: %v", ErrDevice, err)
	}
	if cfg.SampleRate <= 0 || cfg.Channels <= 0 {
		return fmt.Errorf("%w: invalid stream config %+v", ErrDevice, cfg)
	}
	p.sampleRate.Store(int64(cfg.SampleRate))

	ringCap := int(math.Ceil(ringSeconds * float64(cfg.SampleRate)))
	if minCap := (HighWaterBlocks + 1) * p.blockSize; ringCap < minCap {
		ringCap = minCap
	}
	p.ring = newRingBuffer(ringCap)

	p.running.Store(true)
	p.wg.Add(1)
	go p.produce(float64(cfg.SampleRate))

	r, err := newRenderer(p.ring, cfg, &p.volume)
	if err != nil {
		p.stopProducer()
		p.logger.Error("cannot play", zap.Stringer("format", cfg.Format), zap.Error(err))
		return err
	}
	stream, err := p.dev.OpenStream(cfg, r)
	if err != nil {
		p.stopProducer()
		return fmt.Errorf("%w: open stream: %v", ErrDevice, err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		p.stopProducer()
		return fmt.Errorf("%w: start stream: %v", ErrDevice, err)
	}

	p.stream = stream
	p.playing.Store(true)
	p.logger.Info("playback started",
		zap.Int("sample_rate", cfg.SampleRate),
		zap.Int("channels", cfg.Channels),
		zap.Stringer("format", cfg.Format),
		zap.Int("block_size", p.blockSize),
		zap.Int("ring_capacity", ringCap))
	return nil
}

// Stop halts the stream and waits for the producer to exit. It is safe to
// call repeatedly and on a pipeline that never played.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing.Load() {
		return
	}
	p.running.Store(false)
	if p.stream != nil {
		if err := p.stream.Close(); err != nil {
			p.logger.Warn("closing stream", zap.Error(err))
		}
		p.stream = nil
	}
	p.wg.Wait()
	p.playing.Store(false)
	p.logger.Info("playback stopped")
}

// Close stops playback. It implements io.Closer for teardown paths.
func (p *Pipeline) Close() error {
	p.Stop()
	return nil
}

func (p *Pipeline) stopProducer() {
	p.running.Store(false)
	p.wg.Wait()
}

// produce runs on its own goroutine for one session. The Convolver and pump
// Source are private to it; only the IR and pump parameter handles are
// shared.
func (p *Pipeline) produce(sampleRate float64) {
	defer p.wg.Done()

	conv := NewConvolverWithHandle(p.ir)
	pp := p.pump.Load()
	src := pump.NewSource(pp.RPM, pp.NumValves, pp.DutyCycle, sampleRate)
	block := make([]float64, p.blockSize)
	highWater := HighWaterBlocks * p.blockSize

	for p.running.Load() {
		pp = p.pump.Load()
		src.SetParams(pp.RPM, pp.NumValves, pp.DutyCycle)

		if p.ring.Len() >= highWater {
			time.Sleep(producerBackoff)
			continue
		}

		src.GenerateTo(block)
		p.ring.Push(conv.Process(block))
	}
}

// renderer is the device-side reader: it drains the ring, applies the volume
// and encodes each mono sample into every channel of a frame.
type renderer struct {
	ring       *ringBuffer
	volume     *atomic.Uint64
	channels   int
	sampleSize int
	encode     encoder
	scratch    []float64
}

func newRenderer(ring *ringBuffer, cfg StreamConfig, volume *atomic.Uint64) (*renderer, error) {
	enc, err := newEncoder(cfg.Format)
	if err != nil {
		return nil, err
	}
	return &renderer{
		ring:       ring,
		volume:     volume,
		channels:   cfg.Channels,
		sampleSize: cfg.Format.BytesPerSample(),
		encode:     enc,
	}, nil
}

// Read fills p with whole frames. Missing samples are rendered as silence.
func (r *renderer) Read(p []byte) (int, error) {
	frameSize := r.channels * r.sampleSize
	frames := len(p) / frameSize
	if frames == 0 {
		return 0, nil
	}
	if cap(r.scratch) < frames {
		r.scratch = make([]float64, frames)
	}
	buf := r.scratch[:frames]
	n := r.ring.PopInto(buf)
	for i := n; i < frames; i++ {
		buf[i] = 0
	}

	vol := math.Float64frombits(r.volume.Load())
	off := 0
	for _, s := range buf {
		s *= vol
		for ch := 0; ch < r.channels; ch++ {
			r.encode(p[off:off+r.sampleSize], s)
			off += r.sampleSize
		}
	}
	return off, nil
}
