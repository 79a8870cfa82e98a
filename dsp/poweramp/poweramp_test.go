package poweramp

import (
	"math"
	"testing"
)

func TestZeroInputProducesZeroOutput(t *testing.T) {
	p := New()

	if got := p.ProcessSample(0); math.Abs(got) > 1e-9 {
		t.Fatalf("ProcessSample(0) = %v, want 0", got)
	}
}

func TestOutputStaysNormalizedToUnitRange(t *testing.T) {
	p := New()

	for i := 0; i < 1000; i++ {
		out := p.ProcessSample(10 * math.Sin(float64(i)*0.1))
		if out > 1.0001 || out < -1.0001 {
			t.Fatalf("sample %d: output %v outside [-1,1]", i, out)
		}
	}
}

func TestHighLevelSineClipsSymmetrically(t *testing.T) {
	p := New()

	var maxOut, minOut float64
	for i := 0; i < 2000; i++ {
		out := p.ProcessSample(1000 * math.Sin(float64(i)*0.05))
		maxOut = math.Max(maxOut, out)
		minOut = math.Min(minOut, out)
	}

	if maxOut < 0.9 || minOut > -0.9 {
		t.Fatalf("expected rail saturation near +-1, got max=%v min=%v", maxOut, minOut)
	}
}

func TestResetClearsWarmStart(t *testing.T) {
	p := New()
	p.ProcessSample(5)
	p.Reset()

	if p.prevOutput != 0 {
		t.Fatalf("prevOutput after reset = %v, want 0", p.prevOutput)
	}
}

func TestSmallSignalIsApproximatelyLinear(t *testing.T) {
	p1 := New()
	p2 := New()

	a := p1.ProcessSample(0.001)
	b := p2.ProcessSample(0.002)

	// Small-signal gain should be roughly consistent (within the
	// crossover region's floor-gain variation) for a doubled input.
	if math.Abs(b/a-2) > 0.5 {
		t.Fatalf("small-signal response not approximately linear: a=%v b=%v ratio=%v", a, b, b/a)
	}
}
