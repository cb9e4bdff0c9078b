// Package otodevice provides an audio.Device backed by ebitengine/oto.
package otodevice

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/cwbudde/algo-muffler/audio"
)

// DefaultBufferSize is the oto driver buffer length.
const DefaultBufferSize = 40 * time.Millisecond

// oto allows a single context per process.
var (
	ctxMu  sync.Mutex
	ctx    *oto.Context
	ctxCfg audio.StreamConfig
)

// Device plays through the process-wide oto context.
type Device struct {
	cfg        audio.StreamConfig
	bufferSize time.Duration
}

// New returns a device with the given stream configuration. Only
// FormatFloat32LE, FormatInt16LE and FormatUint8 map onto oto.
func New(sampleRate, channels int, format audio.SampleFormat) *Device {
	return &Device{
		cfg:        audio.StreamConfig{SampleRate: sampleRate, Channels: channels, Format: format},
		bufferSize: DefaultBufferSize,
	}
}

// NewDefault returns a stereo float32 device at 44.1 kHz.
func NewDefault() *Device {
	return New(44100, 2, audio.FormatFloat32LE)
}

// DefaultConfig implements audio.Device.
func (d *Device) DefaultConfig() (audio.StreamConfig, error) {
	return d.cfg, nil
}

// OpenStream implements audio.Device. The oto context is created on first
// use and must keep the same configuration for the lifetime of the process.
func (d *Device) OpenStream(cfg audio.StreamConfig, src io.Reader) (audio.Stream, error) {
	c, err := d.context(cfg)
	if err != nil {
		return nil, err
	}
	return &stream{player: c.NewPlayer(src)}, nil
}

func (d *Device) context(cfg audio.StreamConfig) (*oto.Context, error) {
	ctxMu.Lock()
	defer ctxMu.Unlock()
	if ctx != nil {
		if cfg != ctxCfg {
			return nil, fmt.Errorf("oto context already running as %+v, cannot reopen as %+v", ctxCfg, cfg)
		}
		return ctx, nil
	}

	format, err := otoFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	c, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: cfg.Channels,
		Format:       format,
		BufferSize:   d.bufferSize,
	})
	if err != nil {
		return nil, err
	}
	<-ready
	ctx = c
	ctxCfg = cfg
	return ctx, nil
}

func otoFormat(f audio.SampleFormat) (oto.Format, error) {
	switch f {
	case audio.FormatFloat32LE:
		return oto.FormatFloat32LE, nil
	case audio.FormatInt16LE:
		return oto.FormatSignedInt16LE, nil
	case audio.FormatUint8:
		return oto.FormatUnsignedInt8, nil
	default:
		return 0, fmt.Errorf("%w: oto cannot play %s", audio.ErrUnsupportedFormat, f)
	}
}

type stream struct {
	mu     sync.Mutex
	player *oto.Player
}

func (s *stream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player == nil {
		return fmt.Errorf("stream closed")
	}
	s.player.Play()
	return s.player.Err()
}

func (s *stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.player == nil {
		return nil
	}
	s.player.Pause()
	s.player.Close()
	s.player = nil
	return nil
}
