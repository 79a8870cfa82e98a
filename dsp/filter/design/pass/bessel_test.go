package pass

import (
	"math"
	"testing"
)

func TestBesselHPOrder4UnityAtNyquist(t *testing.T) {
	sections := BesselHP(40, 4, 48000)
	if len(sections) != 2 {
		t.Fatalf("BesselHP(order=4) returned %d sections, want 2", len(sections))
	}

	// At Nyquist (z = -1) a well-normalized HP cascade should pass
	// close to unity gain.
	gain := 1.0
	for _, c := range sections {
		num := c.B0 - c.B1 + c.B2
		den := 1 - c.A1 + c.A2
		gain *= num / den
	}

	if math.Abs(gain-1) > 1e-6 {
		t.Fatalf("Bessel HP gain at Nyquist = %v, want ~1", gain)
	}
}

func TestBesselHPRejectsInvalidOrder(t *testing.T) {
	if got := BesselHP(100, 0, 48000); got != nil {
		t.Fatalf("expected nil for order 0, got %v", got)
	}
	if got := BesselHP(100, 11, 48000); got != nil {
		t.Fatalf("expected nil for order 11, got %v", got)
	}
}
