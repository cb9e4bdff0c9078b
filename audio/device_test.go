package audio

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeInt16ScalesAndClamps(t *testing.T) {
	b := make([]byte, 2)
	cases := map[float64]int16{1: 32767, -1: -32767, 0: 0, 0.5: 16384, 2: 32767, -3: -32767}
	for in, want := range cases {
		encodeInt16LE(b, in)
		assert.Equal(t, want, int16(binary.LittleEndian.Uint16(b)), "input %g", in)
	}
}

func TestEncodeUnsignedShiftsToUnitRange(t *testing.T) {
	b := make([]byte, 1)
	cases := map[float64]uint8{-1: 0, 1: 255, 0: 128, 5: 255}
	for in, want := range cases {
		encodeUint8(b, in)
		assert.Equal(t, want, b[0], "input %g", in)
	}

	b16 := make([]byte, 2)
	encodeUint16LE(b16, -1)
	assert.Equal(t, uint16(0), binary.LittleEndian.Uint16(b16))
	encodeUint16LE(b16, 1)
	assert.Equal(t, uint16(65535), binary.LittleEndian.Uint16(b16))
}

func TestEncodeFloat32(t *testing.T) {
	b := make([]byte, 4)
	encodeFloat32LE(b, -0.25)
	assert.Equal(t, float32(-0.25), math.Float32frombits(binary.LittleEndian.Uint32(b)))
}

func TestNewEncoderRejectsUnknownFormat(t *testing.T) {
	_, err := newEncoder(FormatUnknown)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
	for _, f := range []SampleFormat{FormatFloat32LE, FormatInt16LE, FormatUint16LE, FormatUint8} {
		_, err := newEncoder(f)
		require.NoError(t, err, f.String())
		assert.NotZero(t, f.BytesPerSample())
	}
}
