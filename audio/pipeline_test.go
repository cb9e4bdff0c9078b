package audio

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cwbudde/algo-muffler/pump"
)

type fakeStream struct {
	mu      sync.Mutex
	started bool
	closed  int
}

func (s *fakeStream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = true
	return nil
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

type fakeDevice struct {
	cfg     StreamConfig
	cfgErr  error
	openErr error

	mu      sync.Mutex
	opened  int
	src     io.Reader
	streams []*fakeStream
}

func newFakeDevice(format SampleFormat, channels int) *fakeDevice {
	return &fakeDevice{cfg: StreamConfig{SampleRate: 44100, Channels: channels, Format: format}}
}

func (d *fakeDevice) DefaultConfig() (StreamConfig, error) {
	return d.cfg, d.cfgErr
}

func (d *fakeDevice) OpenStream(cfg StreamConfig, src io.Reader) (Stream, error) {
	if d.openErr != nil {
		return nil, d.openErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opened++
	d.src = src
	s := &fakeStream{}
	d.streams = append(d.streams, s)
	return s, nil
}

func waitForFill(t *testing.T, p *Pipeline) {
	t.Helper()
	require.Eventually(t, func() bool {
		return p.ring.Len() >= HighWaterBlocks*p.BlockSize()
	}, 2*time.Second, time.Millisecond)
}

func decodeFloat32Frames(b []byte, channels int) [][]float32 {
	frames := len(b) / (4 * channels)
	out := make([][]float32, frames)
	for i := range out {
		out[i] = make([]float32, channels)
		for ch := 0; ch < channels; ch++ {
			off := (i*channels + ch) * 4
			out[i][ch] = math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
		}
	}
	return out
}

func TestPipelinePlayStreamsPumpThroughDelta(t *testing.T) {
	dev := newFakeDevice(FormatFloat32LE, 2)
	p := NewPipeline(dev)
	p.SetVolume(1)

	require.NoError(t, p.Play())
	defer p.Stop()
	assert.True(t, p.IsPlaying())
	waitForFill(t, p)

	buf := make([]byte, 1024*2*4)
	n, err := dev.src.Read(buf)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)

	want := pump.NewSource(3000, 3, 0.5, 44100).Generate(1024)
	for i, frame := range decodeFloat32Frames(buf, 2) {
		assert.Equal(t, frame[0], frame[1], "frame %d channels differ", i)
		assert.InDelta(t, want[i], float64(frame[0]), 1e-6, "frame %d", i)
	}
}

func TestPipelineVolumeScalesOutput(t *testing.T) {
	dev := newFakeDevice(FormatFloat32LE, 1)
	p := NewPipeline(dev)
	p.SetVolume(0.25)
	require.NoError(t, p.Play())
	defer p.Stop()
	waitForFill(t, p)

	buf := make([]byte, 512*4)
	_, err := dev.src.Read(buf)
	require.NoError(t, err)
	want := pump.NewSource(3000, 3, 0.5, 44100).Generate(512)
	for i, frame := range decodeFloat32Frames(buf, 1) {
		assert.InDelta(t, 0.25*want[i], float64(frame[0]), 1e-6)
	}
}

func TestPipelineUnderrunIsSilence(t *testing.T) {
	vol := new(atomic.Uint64)
	vol.Store(math.Float64bits(1))
	r, err := newRenderer(newRingBuffer(16), StreamConfig{SampleRate: 8000, Channels: 2, Format: FormatInt16LE}, vol)
	require.NoError(t, err)
	buf := make([]byte, 8*2*2)
	for i := range buf {
		buf[i] = 0xAA
	}
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, make([]byte, len(buf)), buf)
}

func TestPipelinePlayIsIdempotent(t *testing.T) {
	dev := newFakeDevice(FormatFloat32LE, 2)
	p := NewPipeline(dev)
	require.NoError(t, p.Play())
	require.NoError(t, p.Play())
	assert.Equal(t, 1, dev.opened)
	p.Stop()
}

func TestPipelineStopIsIdempotent(t *testing.T) {
	dev := newFakeDevice(FormatInt16LE, 2)
	p := NewPipeline(dev)
	p.Stop()

	require.NoError(t, p.Play())
	p.Stop()
	p.Stop()
	require.NoError(t, p.Close())

	assert.False(t, p.IsPlaying())
	require.Len(t, dev.streams, 1)
	assert.Equal(t, 1, dev.streams[0].closed)

	require.NoError(t, p.Play(), "pipeline should restart after stop")
	assert.True(t, p.IsPlaying())
	p.Stop()
	assert.Equal(t, 2, dev.opened)
}

func TestPipelineUnsupportedFormat(t *testing.T) {
	dev := newFakeDevice(FormatUnknown, 2)
	p := NewPipeline(dev)
	err := p.Play()
	require.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.False(t, p.IsPlaying())
	assert.Zero(t, dev.opened)
	assert.False(t, p.running.Load())
}

func TestPipelineDeviceErrors(t *testing.T) {
	dev := newFakeDevice(FormatFloat32LE, 2)
	dev.cfgErr = errors.New("no device")
	p := NewPipeline(dev)
	require.ErrorIs(t, p.Play(), ErrDevice)
	assert.False(t, p.IsPlaying())

	dev.cfgErr = nil
	dev.openErr = errors.New("busy")
	require.ErrorIs(t, p.Play(), ErrDevice)
	assert.False(t, p.IsPlaying())
	assert.False(t, p.running.Load())
}

func TestPipelineSwapIRRejectsNonFinite(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	p := NewPipeline(newFakeDevice(FormatFloat32LE, 2), WithLogger(zap.New(core)))

	require.NoError(t, p.SwapIR([]float64{0.5, 0.25}))
	err := p.SwapIR([]float64{0.1, math.NaN()})
	require.ErrorIs(t, err, ErrNonFiniteIR)
	require.ErrorIs(t, p.SwapIR([]float64{math.Inf(1)}), ErrNonFiniteIR)

	assert.Equal(t, []float64{0.5, 0.25}, p.IRHandle().Load())
	assert.Equal(t, 2, logs.Len())
}

func TestPipelineSwapIRCopiesInput(t *testing.T) {
	p := NewPipeline(newFakeDevice(FormatFloat32LE, 2))
	ir := []float64{1, 2, 3}
	require.NoError(t, p.SwapIR(ir))
	ir[0] = 99
	assert.Equal(t, []float64{1, 2, 3}, p.IRHandle().Load())
}

func TestPipelineSetVolumeClamps(t *testing.T) {
	p := NewPipeline(newFakeDevice(FormatFloat32LE, 2))
	assert.Equal(t, DefaultVolume, p.Volume())
	p.SetVolume(1.7)
	assert.Equal(t, 1.0, p.Volume())
	p.SetVolume(-0.2)
	assert.Equal(t, 0.0, p.Volume())
	p.SetVolume(0.3)
	assert.Equal(t, 0.3, p.Volume())
}

func TestPipelineSetPumpParams(t *testing.T) {
	p := NewPipeline(newFakeDevice(FormatFloat32LE, 2), WithBlockSize(256))
	assert.Equal(t, DefaultPumpParams(), p.PumpParams())
	require.NoError(t, p.SetPumpParams(4500, 2, 0.3))
	assert.Equal(t, PumpParams{RPM: 4500, NumValves: 2, DutyCycle: 0.3}, p.PumpParams())
	assert.Equal(t, 256, p.BlockSize())

	require.NoError(t, p.SetPumpParams(4500, 2, 1.4))
	assert.Equal(t, 1.0, p.PumpParams().DutyCycle)
	require.NoError(t, p.SetPumpParams(4500, 2, -0.1))
	assert.Equal(t, 0.0, p.PumpParams().DutyCycle)
}

func TestPipelineSetPumpParamsRejectsInvalid(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	p := NewPipeline(newFakeDevice(FormatFloat32LE, 2), WithLogger(zap.New(core)))
	require.NoError(t, p.SetPumpParams(4500, 2, 0.3))
	valid := p.PumpParams()

	cases := []PumpParams{
		{RPM: math.NaN(), NumValves: 3, DutyCycle: 0.5},
		{RPM: math.Inf(1), NumValves: 3, DutyCycle: 0.5},
		{RPM: -3000, NumValves: 3, DutyCycle: 0.5},
		{RPM: 0, NumValves: 3, DutyCycle: 0.5},
		{RPM: 3000, NumValves: 0, DutyCycle: 0.5},
		{RPM: 3000, NumValves: 3, DutyCycle: math.NaN()},
	}
	for _, c := range cases {
		err := p.SetPumpParams(c.RPM, c.NumValves, c.DutyCycle)
		require.ErrorIs(t, err, ErrInvalidPumpParams, "%+v", c)
		assert.Equal(t, valid, p.PumpParams())
	}
	assert.Equal(t, len(cases), logs.Len())
}

func TestPipelineKeepsPlayingAfterRejectedPumpParams(t *testing.T) {
	dev := newFakeDevice(FormatFloat32LE, 1)
	p := NewPipeline(dev)
	p.SetVolume(1)
	require.ErrorIs(t, p.SetPumpParams(math.NaN(), 3, 0.5), ErrInvalidPumpParams)
	require.NoError(t, p.Play())
	defer p.Stop()
	require.ErrorIs(t, p.SetPumpParams(-3000, 3, 0.5), ErrInvalidPumpParams)
	require.NoError(t, p.SetPumpParams(3000, 3, 0.5))

	p.ring.Clear()
	waitForFill(t, p)
	buf := make([]byte, 512*4)
	_, err := dev.src.Read(buf)
	require.NoError(t, err)
	nonzero := 0
	for _, frame := range decodeFloat32Frames(buf, 1) {
		v := float64(frame[0])
		require.False(t, math.IsNaN(v))
		require.GreaterOrEqual(t, v, 0.0)
		if v > 0 {
			nonzero++
		}
	}
	assert.NotZero(t, nonzero)
}

func TestPipelineRingCapacity(t *testing.T) {
	dev := newFakeDevice(FormatFloat32LE, 2)
	p := NewPipeline(dev)
	require.NoError(t, p.Play())
	defer p.Stop()
	assert.Equal(t, (HighWaterBlocks+1)*DefaultBlockSize, p.ring.Cap())

	dev2 := newFakeDevice(FormatFloat32LE, 2)
	dev2.cfg.SampleRate = 96000
	p2 := NewPipeline(dev2)
	require.NoError(t, p2.Play())
	defer p2.Stop()
	assert.Equal(t, 9600, p2.ring.Cap())
	assert.Equal(t, 96000, p2.SampleRate())
}
