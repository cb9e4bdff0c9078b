// Package pump generates the excitation of a multi-valve reciprocating pump.
package pump

import "math"

const twoPi = 2 * math.Pi

// Source is a stateful valve-pulse generator. Each of the NumValves valves
// is phase shifted by 2π/NumValves and emits a half-sine pulse while its
// phase lies within the first DutyCycle fraction of a revolution. Output is
// non-negative and bounded by NumValves. A Source is not safe for concurrent
// use.
type Source struct {
	RPM        float64
	NumValves  int
	DutyCycle  float64
	SampleRate float64

	phase float64
}

// NewSource returns a pump starting at phase zero.
func NewSource(rpm float64, numValves int, dutyCycle, sampleRate float64) *Source {
	return &Source{
		RPM:        rpm,
		NumValves:  numValves,
		DutyCycle:  dutyCycle,
		SampleRate: sampleRate,
	}
}

// FundamentalFrequency returns the valve pulse rate NumValves·RPM/60 in Hz.
func (s *Source) FundamentalFrequency() float64 {
	return float64(s.NumValves) * s.RPM / 60
}

// SetParams changes the pump parameters. The phase is kept so a live change
// does not produce a discontinuity.
func (s *Source) SetParams(rpm float64, numValves int, dutyCycle float64) {
	s.RPM = rpm
	s.NumValves = numValves
	s.DutyCycle = dutyCycle
}

// Phase returns the current shaft angle in [0, 2π).
func (s *Source) Phase() float64 {
	return s.phase
}

// Reset rewinds the shaft to phase zero.
func (s *Source) Reset() {
	s.phase = 0
}

// Generate returns the next count samples.
func (s *Source) Generate(count int) []float64 {
	out := make([]float64, count)
	s.GenerateTo(out)
	return out
}

// GenerateTo fills dst with the next len(dst) samples. A negative RPM turns
// the shaft backwards; a non-finite step leaves the shaft where it is.
func (s *Source) GenerateTo(dst []float64) {
	step := twoPi * (s.RPM / 60) / s.SampleRate
	if math.IsNaN(step) || math.IsInf(step, 0) {
		step = 0
	}
	s.phase = wrapPhase(s.phase)
	active := s.DutyCycle * twoPi
	valves := s.NumValves

	for i := range dst {
		var v float64
		if valves > 0 && active > 0 {
			for k := 0; k < valves; k++ {
				theta := math.Mod(s.phase+twoPi*float64(k)/float64(valves), twoPi)
				if theta < active {
					v += math.Sin(math.Pi * theta / active)
				}
			}
		}
		dst[i] = v

		s.phase += step
		if s.phase < 0 || s.phase >= twoPi {
			s.phase = wrapPhase(s.phase)
		}
	}
}

// wrapPhase maps x into [0, 2π). Non-finite input maps to 0.
func wrapPhase(x float64) float64 {
	x = math.Mod(x, twoPi)
	if math.IsNaN(x) {
		return 0
	}
	if x < 0 {
		x += twoPi
	}
	if x >= twoPi {
		x = 0
	}
	return x
}
