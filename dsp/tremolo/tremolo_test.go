package tremolo

import (
	"math"
	"testing"
)

func TestNewRejectsInvalidSampleRate(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatalf("expected error for zero sample rate")
	}
}

func TestResistanceStaysWithinPhysicalBounds(t *testing.T) {
	tr, err := New(48000, WithRateHz(5.63), WithDepth(1.0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	minSeen, maxSeen := math.Inf(1), math.Inf(-1)

	// A few LFO periods.
	periods := 48000 / 5.63 * 3
	n := int(periods)
	for i := 0; i < n; i++ {
		r := tr.Tick()
		minSeen = math.Min(minSeen, r)
		maxSeen = math.Max(maxSeen, r)
	}

	if minSeen < seriesBaseOhms+rMinOhms-1 {
		t.Fatalf("min resistance %v below physical floor", minSeen)
	}

	if maxSeen > seriesBaseOhms+seriesRangeOhms+rMaxOhms+1 {
		t.Fatalf("max resistance %v above physical ceiling", maxSeen)
	}

	if maxSeen <= minSeen {
		t.Fatalf("expected resistance to vary with LFO, min=%v max=%v", minSeen, maxSeen)
	}
}

func TestZeroDepthHoldsResistanceNearSeriesOnly(t *testing.T) {
	tr, err := New(48000, WithDepth(0))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var r float64
	for i := 0; i < 48000; i++ {
		r = tr.Tick()
	}

	want := seriesBaseOhms + seriesRangeOhms + rMaxOhms
	if math.Abs(r-want) > 1 {
		t.Fatalf("zero-depth resistance = %v, want ~%v", r, want)
	}
}

func TestResetRestoresInitialResistance(t *testing.T) {
	tr, err := New(48000, WithDepth(0.6))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	fresh := tr.RTotal()

	for i := 0; i < 1000; i++ {
		tr.Tick()
	}

	tr.Reset()

	if got := tr.RTotal(); math.Abs(got-fresh) > 1e-6 {
		t.Fatalf("RTotal() after reset = %v, want %v (fresh-construction value)", got, fresh)
	}
}
