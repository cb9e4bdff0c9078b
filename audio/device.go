package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/core"
)

var (
	// ErrDevice wraps failures reported by an output device.
	ErrDevice = errors.New("audio: device error")
	// ErrUnsupportedFormat is returned when the device asks for a sample
	// format the pipeline cannot encode.
	ErrUnsupportedFormat = errors.New("audio: unsupported sample format")
	// ErrNonFiniteIR is returned by SwapIR for impulse responses containing
	// NaN or Inf.
	ErrNonFiniteIR = errors.New("audio: impulse response contains non-finite values")
)

// SampleFormat is the native sample representation of an output stream.
type SampleFormat int

const (
	FormatUnknown SampleFormat = iota
	FormatFloat32LE
	FormatInt16LE
	FormatUint16LE
	FormatUint8
)

func (f SampleFormat) String() string {
	switch f {
	case FormatFloat32LE:
		return "f32le"
	case FormatInt16LE:
		return "s16le"
	case FormatUint16LE:
		return "u16le"
	case FormatUint8:
		return "u8"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// BytesPerSample returns the encoded size of one sample, or 0 for formats the
// pipeline does not support.
func (f SampleFormat) BytesPerSample() int {
	switch f {
	case FormatFloat32LE:
		return 4
	case FormatInt16LE, FormatUint16LE:
		return 2
	case FormatUint8:
		return 1
	default:
		return 0
	}
}

// StreamConfig describes an output stream.
type StreamConfig struct {
	SampleRate int
	Channels   int
	Format     SampleFormat
}

// Device is an audio output the pipeline can open streams on.
type Device interface {
	// DefaultConfig returns the device's native stream configuration.
	DefaultConfig() (StreamConfig, error)
	// OpenStream prepares a stream that pulls interleaved PCM bytes in
	// cfg.Format from src whenever the device needs data.
	OpenStream(cfg StreamConfig, src io.Reader) (Stream, error)
}

// Stream is an open output stream. Closing it halts the pull callback.
type Stream interface {
	Start() error
	Close() error
}

// encoder writes one sample in [-1,1] into b.
type encoder func(b []byte, s float64)

func newEncoder(f SampleFormat) (encoder, error) {
	switch f {
	case FormatFloat32LE:
		return encodeFloat32LE, nil
	case FormatInt16LE:
		return encodeInt16LE, nil
	case FormatUint16LE:
		return encodeUint16LE, nil
	case FormatUint8:
		return encodeUint8, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
}

func encodeFloat32LE(b []byte, s float64) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(float32(s)))
}

func encodeInt16LE(b []byte, s float64) {
	v := math.Round(core.Clamp(s, -1, 1) * math.MaxInt16)
	binary.LittleEndian.PutUint16(b, uint16(int16(v)))
}

func encodeUint16LE(b []byte, s float64) {
	v := math.Round((core.Clamp(s, -1, 1)*0.5 + 0.5) * math.MaxUint16)
	binary.LittleEndian.PutUint16(b, uint16(v))
}

func encodeUint8(b []byte, s float64) {
	b[0] = uint8(math.Round((core.Clamp(s, -1, 1)*0.5 + 0.5) * math.MaxUint8))
}
