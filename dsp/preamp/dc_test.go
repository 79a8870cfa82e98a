package preamp

import (
	"math"
	"testing"
)

// TestDCOperatingPointMatchesSchematic checks P3: after solving with
// zero input, the node voltages must match the schematic annotations
// (spec.md §4.2 "DC initialization") to within +-100 mV.
func TestDCOperatingPointMatchesSchematic(t *testing.T) {
	topo, err := buildTopology(testFsWork)
	if err != nil {
		t.Fatalf("buildTopology: %v", err)
	}

	v, err := solveDCOperatingPoint(topo)
	if err != nil {
		t.Fatalf("solveDCOperatingPoint: %v", err)
	}

	checks := []struct {
		name string
		node int
		want float64
	}{
		{"TR1 base", nodeTR1Base, 2.45},
		{"TR1 emitter", nodeTR1Emitter, 1.95},
		{"TR1 collector/TR2 base", nodeTR1CollectorTR2Base, 4.10},
		{"TR2 emitter", nodeTR2Emitter, 3.40},
		{"TR2 collector", nodeTR2Collector, 8.80},
	}

	for _, c := range checks {
		if math.Abs(v[c.node]-c.want) > 0.1 {
			t.Errorf("%s: v = %v, want %v +-100mV", c.name, v[c.node], c.want)
		}
	}
}

// TestDCOperatingPointResidualIsTiny checks P3's residual bound: after
// solving, G_DC*v - N_i*i_nl(N_v*v) - w must be < 1e-10 in max-norm
// (the spec's own tolerance is 1e-12 for the solver; 1e-10 leaves
// margin for floating-point accumulation in the check itself).
func TestDCOperatingPointResidualIsTiny(t *testing.T) {
	topo, err := buildTopology(testFsWork)
	if err != nil {
		t.Fatalf("buildTopology: %v", err)
	}

	v, err := solveDCOperatingPoint(topo)
	if err != nil {
		t.Fatalf("solveDCOperatingPoint: %v", err)
	}

	nv := nV()
	ni := nI()

	vbe := applyNV(nv, v)
	iNl, _ := bjtCurrentsAndConductances(vbe)

	f := residual(topo, ni, v, iNl)

	maxAbs := 0.0
	for _, r := range f {
		if a := math.Abs(r); a > maxAbs {
			maxAbs = a
		}
	}

	if maxAbs > 1e-10 {
		t.Fatalf("residual max-norm = %v, want < 1e-10", maxAbs)
	}
}

// TestDCOperatingPointIndependentOfSampleRate checks P3: the DC
// operating point must not depend on fs_work (the trapezoidal
// discretization only affects the dynamic/transient response, not the
// zero-input, zero-derivative steady state).
func TestDCOperatingPointIndependentOfSampleRate(t *testing.T) {
	rates := []float64{2 * 44100.0, 2 * 48000.0, 2 * 96000.0}

	var first [numNodes]float64

	for i, fs := range rates {
		topo, err := buildTopology(fs)
		if err != nil {
			t.Fatalf("buildTopology(%v): %v", fs, err)
		}

		v, err := solveDCOperatingPoint(topo)
		if err != nil {
			t.Fatalf("solveDCOperatingPoint(%v): %v", fs, err)
		}

		if i == 0 {
			first = v
			continue
		}

		for n := 0; n < numNodes; n++ {
			if math.Abs(v[n]-first[n]) > 1e-6 {
				t.Fatalf("fs=%v: v[%d] = %v, want %v (fs=%v)", fs, n, v[n], first[n], rates[0])
			}
		}
	}
}
