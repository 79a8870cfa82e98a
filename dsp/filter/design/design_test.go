package design

import (
	"math"
	"testing"
)

func TestLowpassUnityAtDC(t *testing.T) {
	c := Lowpass(1000, 0.707, 48000)

	// DC gain of a normalized biquad is (B0+B1+B2)/(1+A1+A2).
	num := c.B0 + c.B1 + c.B2
	den := 1 + c.A1 + c.A2
	if den == 0 {
		t.Fatalf("unexpected zero denominator")
	}

	if got := num / den; math.Abs(got-1) > 1e-9 {
		t.Fatalf("lowpass DC gain = %v, want 1", got)
	}
}

func TestHighpassZeroAtDC(t *testing.T) {
	c := Highpass(1000, 0.707, 48000)

	num := c.B0 + c.B1 + c.B2
	if math.Abs(num) > 1e-9 {
		t.Fatalf("highpass DC numerator sum = %v, want ~0", num)
	}
}

func TestInvalidFrequencyReturnsZeroCoefficients(t *testing.T) {
	c := Lowpass(-1, 0.707, 48000)

	if c.B0 != 0 || c.B1 != 0 || c.B2 != 0 || c.A1 != 0 || c.A2 != 0 {
		t.Fatalf("expected zero coefficients for invalid frequency, got %+v", c)
	}
}
