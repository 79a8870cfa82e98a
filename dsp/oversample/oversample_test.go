package oversample

import (
	"math"
	"testing"
)

func TestDefaultDesignMeetsStopbandSpec(t *testing.T) {
	attenDB, err := Attenuation(DefaultCoefficientCount, DefaultTransition)
	if err != nil {
		t.Fatalf("Attenuation returned error: %v", err)
	}

	if attenDB < 100 {
		t.Fatalf("attenuation = %v dB, want >= 100 dB", attenDB)
	}
}

func TestInvalidDesignParamsRejected(t *testing.T) {
	if _, err := NewUpsampler(1, 0.01); err == nil {
		t.Fatalf("expected error for coefficient count < 2")
	}

	if _, err := NewUpsampler(12, 0.6); err == nil {
		t.Fatalf("expected error for transition >= 0.5")
	}
}

func TestUpDownRoundTripPreservesDC(t *testing.T) {
	up, err := NewDefaultUpsampler()
	if err != nil {
		t.Fatalf("NewDefaultUpsampler: %v", err)
	}

	down, err := NewDefaultDownsampler()
	if err != nil {
		t.Fatalf("NewDefaultDownsampler: %v", err)
	}

	const dc = 0.75

	var lastOut float64
	for i := 0; i < 4000; i++ {
		y0, y1 := up.ProcessSample(dc)
		lastOut = down.ProcessSample(y0, y1)
	}

	if math.Abs(lastOut-dc) > 1e-3 {
		t.Fatalf("round-trip DC = %v, want ~%v", lastOut, dc)
	}
}

func TestResetClearsState(t *testing.T) {
	up, _ := NewDefaultUpsampler()

	for i := 0; i < 100; i++ {
		up.ProcessSample(1)
	}

	up.Reset()

	y0, y1 := up.ProcessSample(0)
	if y0 != 0 || y1 != 0 {
		t.Fatalf("after reset, ProcessSample(0) = (%v, %v), want (0, 0)", y0, y1)
	}
}
