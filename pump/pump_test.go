package pump

import (
	"math"
	"testing"
)

func TestFundamentalFrequency(t *testing.T) {
	s := NewSource(3000, 3, 0.5, 44100)
	if got := s.FundamentalFrequency(); got != 150 {
		t.Fatalf("fundamental = %g, want 150", got)
	}
}

func TestGenerateIsPeriodicPerRevolution(t *testing.T) {
	// 6000 rpm at 44.1 kHz is 441 samples per revolution.
	s := NewSource(6000, 3, 0.4, 44100)
	out := s.Generate(441 * 4)
	for i := 441; i < len(out); i++ {
		if math.Abs(out[i]-out[i-441]) > 1e-9 {
			t.Fatalf("sample %d differs from one revolution earlier: %g vs %g", i, out[i], out[i-441])
		}
	}
}

func TestGenerateBounds(t *testing.T) {
	for _, valves := range []int{1, 2, 3, 6} {
		s := NewSource(2500, valves, 0.9, 44100)
		for i, v := range s.Generate(44100) {
			if v < 0 || v > float64(valves)+1e-12 {
				t.Fatalf("valves=%d sample %d out of range: %g", valves, i, v)
			}
		}
	}
}

func TestGenerateZeroValvesIsSilent(t *testing.T) {
	s := NewSource(3000, 0, 0.5, 44100)
	for i, v := range s.Generate(1024) {
		if v != 0 {
			t.Fatalf("sample %d = %g, want 0", i, v)
		}
	}
}

func TestDutyCycleControlsActiveFraction(t *testing.T) {
	active := func(duty float64) int {
		s := NewSource(6000, 1, duty, 44100)
		n := 0
		for _, v := range s.Generate(441) {
			if v > 0 {
				n++
			}
		}
		return n
	}
	short, long := active(0.2), active(0.7)
	if short >= long {
		t.Fatalf("longer duty should be active longer: %d vs %d", short, long)
	}
	// One revolution is 441 samples; duty 0.2 covers about 88 of them.
	if short < 80 || short > 95 {
		t.Fatalf("duty 0.2 active samples = %d", short)
	}
}

func TestSetParamsKeepsPhase(t *testing.T) {
	s := NewSource(3000, 3, 0.5, 44100)
	s.Generate(100)
	before := s.Phase()
	s.SetParams(4500, 2, 0.3)
	if s.Phase() != before {
		t.Fatalf("phase changed on SetParams: %g -> %g", before, s.Phase())
	}
	if s.FundamentalFrequency() != 150 {
		t.Fatalf("fundamental after SetParams = %g", s.FundamentalFrequency())
	}
}

func TestPhaseStaysWrapped(t *testing.T) {
	s := NewSource(9000, 4, 0.5, 8000)
	for i := 0; i < 1000; i++ {
		s.Generate(7)
		if p := s.Phase(); p < 0 || p >= 2*math.Pi {
			t.Fatalf("phase out of range: %g", p)
		}
	}
}

func TestNegativeRPMKeepsPhaseAndOutputInRange(t *testing.T) {
	s := NewSource(3000, 3, 0.5, 44100)
	s.Generate(100)
	s.SetParams(-3000, 3, 0.5)
	out := s.Generate(44100)
	if p := s.Phase(); p < 0 || p >= 2*math.Pi {
		t.Fatalf("phase out of range after reverse rotation: %g", p)
	}
	for i, v := range out {
		if v < 0 || v > 3+1e-12 {
			t.Fatalf("sample %d out of range: %g", i, v)
		}
	}
}

func TestNonFiniteRPMDoesNotPoisonPhase(t *testing.T) {
	s := NewSource(3000, 3, 0.5, 44100)
	for _, rpm := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		s.SetParams(rpm, 3, 0.5)
		s.Generate(64)
		if p := s.Phase(); math.IsNaN(p) || p < 0 || p >= 2*math.Pi {
			t.Fatalf("rpm %g: phase = %g", rpm, p)
		}
	}

	s.SetParams(3000, 3, 0.5)
	nonzero := 0
	for _, v := range s.Generate(512) {
		if math.IsNaN(v) {
			t.Fatalf("NaN sample after restoring rpm")
		}
		if v > 0 {
			nonzero++
		}
	}
	if nonzero == 0 {
		t.Fatalf("pump stayed silent after restoring a valid rpm")
	}
}
