package preamp

import "fmt"

// Node indices into the 8-element node-voltage vector. Node 0 is a
// reserved slot: the entity model names eight nodes but the resistor
// and capacitor stamp tables only ever address nodes 1-7 and the
// input-coupling companion (which feeds directly into node 1, the
// TR-1 base, per its own formula). Node 0 carries no signal; it is
// tied to ground through a large resistor purely to keep the system
// matrix non-singular.
const (
	nodeReserved = iota
	nodeTR1Base
	nodeTR1CollectorTR2Base
	nodeTR1Emitter
	nodeTR2Collector
	nodeTR2Emitter
	nodeFeedback
	nodeOutput
)

// Component values, in SI units (ohms, farads, volts).
const (
	rReserved = 1e9 // ties node 0 to ground; not part of the circuit

	r2   = 2e6
	r3   = 470e3
	rE1  = 33e3
	rC1  = 150e3
	rE2a = 270.0
	rE2b = 820.0
	rC2  = 1.8e3
	r9   = 6.8e3
	r10  = 56e3

	c3  = 100e-12
	c4  = 100e-12
	cE1 = 4.7e-6
	cE2 = 22e-6

	r1In = 22e3
	cIn  = 0.022e-6

	vcc = 15.0

	bjtIs = 3.03e-14
	bjtVt = 0.026
)

// topology holds every precomputed, prepare-time-only constant needed
// by the per-sample DK solve: the inverted trapezoidal system matrix,
// the backward history matrix, the reduced 2x2 DK kernel, and the
// Sherman-Morrison auxiliaries for the time-varying LDR at node 6.
type topology struct {
	fsWork float64

	gBase matrix // conductance matrix, including g_cin and the Re2 companion; excludes the LDR
	gDC   matrix // DC-only conductance matrix: capacitors are open circuits, so g_cin and the Re2 companion are replaced with their true DC equivalents
	cMat  matrix // capacitance matrix

	aNeg matrix // 2C/T - G_base
	s    matrix // (2C/T + G_base)^-1

	kBase [2][2]float64    // N_v . S . N_i
	sNi   [numNodes][2]float64 // S . N_i, reused per-sample by the v-update shortcut

	w vector // static DC source vector

	// Sherman-Morrison auxiliaries, derived from row/column 6 of S
	// (the LDR shunts node 6 to ground).
	sFBCol [numNodes]float64
	sFBRow [numNodes]float64
	sFBFB  float64
	nvSFB  [2]float64
	sFBNi  [2]float64

	// Input-coupling (Cin-R1) companion coefficients.
	gCin float64
	cCin float64

	// Re2a/Ce2/Re2b companion coefficients (see buildRE2Companion).
	gE2 float64
	gA  float64
	gB  float64
	gC  float64
}

// nV is the 2x8 matrix picking the two base-emitter voltages:
// nV[0] = e_{TR1Base} - e_{TR1Emitter} (Vbe1)
// nV[1] = e_{TR1CollectorTR2Base} - e_{TR2Emitter} (Vbe2)
func nV() [2][numNodes]float64 {
	var m [2][numNodes]float64
	m[0][nodeTR1Base] = 1
	m[0][nodeTR1Emitter] = -1
	m[1][nodeTR1CollectorTR2Base] = 1
	m[1][nodeTR2Emitter] = -1

	return m
}

// nI is the 8x2 matrix injecting collector current (leaving the
// collector node) and emitter current (entering the emitter node) for
// each of the two BJTs.
func nI() [numNodes][2]float64 {
	var m [numNodes][2]float64
	m[nodeTR1CollectorTR2Base][0] = -1
	m[nodeTR1Emitter][0] = 1
	m[nodeTR2Collector][1] = -1
	m[nodeTR2Emitter][1] = 1

	return m
}

func buildTopology(fsWork float64) (*topology, error) {
	if fsWork <= 0 {
		return nil, fmt.Errorf("preamp: working sample rate must be > 0: %f", fsWork)
	}

	t := &topology{fsWork: fsWork}

	period := 1.0 / fsWork

	var g, c matrix

	stampGround := func(node int, r float64) {
		g[node][node] += 1 / r
	}
	stampVcc := func(node int, r float64, w *vector) {
		g[node][node] += 1 / r
		w[node] += vcc / r
	}
	stampBetween := func(a, b int, r float64) {
		gr := 1 / r
		g[a][a] += gr
		g[b][b] += gr
		g[a][b] -= gr
		g[b][a] -= gr
	}
	stampCapBetween := func(a, b int, cap float64) {
		c[a][a] += cap
		c[b][b] += cap
		c[a][b] -= cap
		c[b][a] -= cap
	}

	var w vector

	stampGround(nodeReserved, rReserved)

	stampVcc(nodeTR1Base, r2, &w)
	stampGround(nodeTR1Base, r3)
	stampGround(nodeTR1Emitter, rE1)
	stampVcc(nodeTR1CollectorTR2Base, rC1, &w)
	stampVcc(nodeTR2Collector, rC2, &w)
	stampBetween(nodeTR2Collector, nodeOutput, r9)
	stampBetween(nodeOutput, nodeFeedback, r10)

	stampCapBetween(nodeTR1CollectorTR2Base, nodeTR1Base, c3)
	stampCapBetween(nodeTR2Collector, nodeTR1CollectorTR2Base, c4)
	stampCapBetween(nodeTR1Emitter, nodeFeedback, cE1)

	gE2, gA, gB, gC := buildRE2Companion(period)
	g[nodeTR2Emitter][nodeTR2Emitter] += gE2
	t.gE2, t.gA, t.gB, t.gC = gE2, gA, gB, gC

	alpha := 2 * r1In * cIn * fsWork
	gCin := 2 * cIn * fsWork / (1 + alpha)
	cCin := (1 - alpha) / (1 + alpha)
	g[nodeTR1Base][nodeTR1Base] += gCin
	t.gCin, t.cCin = gCin, cCin

	t.gBase = g
	t.cMat = c
	t.w = w

	// At DC, every capacitor is an open circuit, so the trapezoidal
	// companion conductances stamped into g above do not belong in the
	// DC operating-point solve: Cin blocks entirely (no DC path from the
	// input into node 1), and the Re2a/Ce2/Re2b network reduces to Re2a
	// and Re2b in series rather than buildRE2Companion's admittance-sum
	// approximation of the parallel Ce2 branch.
	gDC := g
	gDC[nodeTR1Base][nodeTR1Base] -= gCin
	gE2DC := gA * gB / (gA + gB)
	gDC[nodeTR2Emitter][nodeTR2Emitter] += gE2DC - gE2
	t.gDC = gDC

	twoCOverT := c.scale(2 / period)
	a := twoCOverT.add(g)
	t.aNeg = twoCOverT.sub(g)

	s, err := a.invert()
	if err != nil {
		return nil, fmt.Errorf("preamp: failed to invert system matrix: %w", err)
	}

	t.s = s

	nv := nV()
	ni := nI()

	var sni [numNodes][2]float64
	for i := 0; i < numNodes; i++ {
		for k := 0; k < 2; k++ {
			sum := 0.0
			for j := 0; j < numNodes; j++ {
				sum += s[i][j] * ni[j][k]
			}

			sni[i][k] = sum
		}
	}

	t.sNi = sni

	for r := 0; r < 2; r++ {
		for k := 0; k < 2; k++ {
			sum := 0.0
			for i := 0; i < numNodes; i++ {
				sum += nv[r][i] * sni[i][k]
			}

			t.kBase[r][k] = sum
		}
	}

	for i := 0; i < numNodes; i++ {
		t.sFBCol[i] = s[i][nodeFeedback]
		t.sFBRow[i] = s[nodeFeedback][i]
	}

	t.sFBFB = s[nodeFeedback][nodeFeedback]

	for k := 0; k < 2; k++ {
		sumNV := 0.0
		for i := 0; i < numNodes; i++ {
			sumNV += nv[k][i] * t.sFBCol[i]
		}

		t.nvSFB[k] = sumNV

		sumNI := 0.0
		for i := 0; i < numNodes; i++ {
			sumNI += t.sFBRow[i] * ni[i][k]
		}

		t.sFBNi[k] = sumNI
	}

	return t, nil
}

// buildRE2Companion collapses the Re2a-(Ce2 || Re2b) network into a
// single equivalent conductance seen from node 5 (TR-2 emitter),
// eliminating the hidden junction between Re2a and the Ce2/Re2b
// parallel pair algebraically rather than allocating it a node. With
// gA=1/Re2a, gB=1/Re2b, gC=2*Ce2/T, the equivalent conductance is
// gA*(gB+gC)/(gA+gB+gC).
func buildRE2Companion(period float64) (gE2, gA, gB, gC float64) {
	gA = 1 / rE2a
	gB = 1 / rE2b
	gC = 2 * cE2 / period

	gE2 = gA * (gB + gC) / (gA + gB + gC)

	return gE2, gA, gB, gC
}
