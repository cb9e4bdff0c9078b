// Package analysis measures rendered pump audio: overall level, envelope and
// the level of each pump harmonic.
package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/spectrum"
	"github.com/cwbudde/algo-dsp/dsp/window"
	"gonum.org/v1/gonum/floats"
)

var (
	ErrEmptySignal        = errors.New("analysis: empty signal")
	ErrInvalidFundamental = errors.New("analysis: fundamental must be in (0, sampleRate/2]")
)

// floorDB is reported for components below the numeric floor.
const floorDB = -240.0

// Harmonic is the measured level of one multiple of the pump fundamental.
type Harmonic struct {
	Order     int     `json:"order"`
	Frequency float64 `json:"frequency_hz"`
	Amplitude float64 `json:"amplitude"`
	LevelDB   float64 `json:"level_db"`
}

// Report summarises a rendered signal.
type Report struct {
	SampleRate int        `json:"sample_rate"`
	Frames     int        `json:"frames"`
	RMS        float64    `json:"rms"`
	Peak       float64    `json:"peak"`
	CrestDB    float64    `json:"crest_db"`
	Harmonics  []Harmonic `json:"harmonics"`
	// SettleSeconds is filled by callers that measure the run-in, see
	// SettleTime.
	SettleSeconds float64 `json:"settle_s,omitempty"`
}

// Analyze measures x and the first count harmonics of fundamental.
func Analyze(x []float64, sampleRate int, fundamental float64, count int) (Report, error) {
	r := Report{SampleRate: sampleRate, Frames: len(x)}
	if len(x) == 0 {
		return r, ErrEmptySignal
	}
	r.RMS = RMS(x)
	r.Peak = Peak(x)
	if r.RMS > 0 {
		r.CrestDB = linToDB(r.Peak / r.RMS)
	}
	h, err := HarmonicLevels(x, sampleRate, fundamental, count)
	if err != nil {
		return r, err
	}
	r.Harmonics = h
	return r, nil
}

// HarmonicLevels returns the sine amplitude of the first count harmonics of
// fundamental, measured with a Hann-windowed Goertzel filter over all of x.
// Harmonics above Nyquist are omitted.
func HarmonicLevels(x []float64, sampleRate int, fundamental float64, count int) ([]Harmonic, error) {
	if len(x) == 0 {
		return nil, ErrEmptySignal
	}
	nyquist := float64(sampleRate) / 2
	if !(fundamental > 0) || fundamental > nyquist {
		return nil, fmt.Errorf("%w: %g", ErrInvalidFundamental, fundamental)
	}

	w := window.Generate(window.TypeHann, len(x), window.WithPeriodic())
	gain := floats.Sum(w)
	xw := make([]float64, len(x))
	floats.MulTo(xw, x, w)

	out := make([]Harmonic, 0, count)
	for k := 1; k <= count; k++ {
		f := float64(k) * fundamental
		if f > nyquist {
			break
		}
		g, err := spectrum.NewGoertzel(f, float64(sampleRate))
		if err != nil {
			return nil, err
		}
		g.ProcessBlock(xw)
		amp := 2 * g.Magnitude() / gain
		out = append(out, Harmonic{
			Order:     k,
			Frequency: f,
			Amplitude: amp,
			LevelDB:   linToDB(amp),
		})
	}
	return out, nil
}

// InsertionLoss returns, per harmonic, how many dB quieter wet is than dry.
func InsertionLoss(dry, wet []float64, sampleRate int, fundamental float64, count int) ([]float64, error) {
	hd, err := HarmonicLevels(dry, sampleRate, fundamental, count)
	if err != nil {
		return nil, fmt.Errorf("dry: %w", err)
	}
	hw, err := HarmonicLevels(wet, sampleRate, fundamental, count)
	if err != nil {
		return nil, fmt.Errorf("wet: %w", err)
	}
	out := make([]float64, len(hd))
	for i := range out {
		out[i] = hd[i].LevelDB - hw[i].LevelDB
	}
	return out, nil
}

// RMS returns the root mean square of x.
func RMS(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return math.Sqrt(floats.Dot(x, x) / float64(len(x)))
}

// Peak returns the largest absolute sample.
func Peak(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return math.Max(floats.Max(x), -floats.Min(x))
}

// Envelope returns the RMS of successive frames of x, advancing by hop.
func Envelope(x []float64, frame, hop int) []float64 {
	if frame <= 0 || hop <= 0 || len(x) < frame {
		return nil
	}
	n := 1 + (len(x)-frame)/hop
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		start := i * hop
		out[i] = RMS(x[start : start+frame])
	}
	return out
}

// SettleTime returns the time in seconds after which the frame RMS of x
// stays within tolDB of its last frame. For a periodic signal frame should be
// a whole number of periods.
func SettleTime(x []float64, sampleRate, frame int, tolDB float64) (float64, error) {
	env := Envelope(x, frame, frame)
	if len(env) == 0 {
		return 0, ErrEmptySignal
	}
	final := linToDB(env[len(env)-1])
	idx := len(env) - 1
	for i := len(env) - 1; i >= 0; i-- {
		if math.Abs(linToDB(env[i])-final) > tolDB {
			break
		}
		idx = i
	}
	return float64(idx*frame) / float64(sampleRate), nil
}

func linToDB(x float64) float64 {
	if x <= 0 {
		return floorDB
	}
	return math.Max(20*math.Log10(x), floorDB)
}
