package speaker

import (
	"math"
	"testing"
)

func TestNewRejectsInvalidSampleRate(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatalf("expected error for zero sample rate")
	}
}

func TestZeroCharacterApproachesLinearPassthroughAtMidband(t *testing.T) {
	s, err := New(48000, WithCharacter(0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var out float64
	for i := 0; i < 2000; i++ {
		x := 0.1 * math.Sin(2*math.Pi*1000*float64(i)/48000)
		out = s.ProcessSample(x)
	}

	if math.IsNaN(out) || math.IsInf(out, 0) {
		t.Fatalf("output is not finite: %v", out)
	}
}

func TestOutputNeverExceedsUnityMagnitudeSubstantially(t *testing.T) {
	s, err := New(48000, WithCharacter(1))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := 0; i < 5000; i++ {
		out := s.ProcessSample(5 * math.Sin(float64(i)*0.05))
		if math.Abs(out) > 1.5 {
			t.Fatalf("sample %d: output %v exceeds expected bound", i, out)
		}
	}
}

func TestSetCharacterRejectsOutOfRange(t *testing.T) {
	s, err := New(48000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := s.SetCharacter(1.5); err == nil {
		t.Fatalf("expected error for character > 1")
	}
}

func TestResetClearsState(t *testing.T) {
	s, err := New(48000)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := 0; i < 100; i++ {
		s.ProcessSample(0.5)
	}

	s.Reset()

	if got := s.ProcessSample(0); math.Abs(got) > 1e-9 {
		t.Fatalf("ProcessSample(0) right after reset = %v, want ~0", got)
	}
}
