// Package preamp implements the DK (Discretization-Kernel) model of
// the two-stage direct-coupled common-emitter preamp: an 8-node
// modified-nodal-analysis circuit, trapezoidally discretized, reduced
// to a 2x2 nonlinear kernel updated per-sample by Sherman-Morrison for
// the time-varying LDR feedback element. Runs at the 2x oversampled
// working rate; callers are expected to enclose it in
// dsp/oversample's Upsampler/Downsampler pair.
package preamp

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-wurlitzer/dsp/filter/biquad"
	"github.com/cwbudde/algo-wurlitzer/dsp/filter/design/pass"
)

const (
	nrMaxIterations = 6
	nrTolerance     = 1e-9

	outputHPFHz    = 40.0
	outputHPFOrder = 4
)

// Preamp is a process-wide singleton: its internal node vector and
// precomputed matrices belong exclusively to it. The only externally
// visible signal is a single scalar per oversampled sample.
type Preamp struct {
	fsWork float64
	topo   *topology

	v   vector
	vDC vector

	iNlPrev  [2]float64
	vNlPrev  [2]float64
	gLdrPrev float64

	cinRhsPrev float64
	jCin       float64

	vE2Prev   float64
	iCe2Prev  float64

	outputHPF *biquad.Chain
}

// New creates a Preamp. Call Prepare before processing any samples.
func New() *Preamp {
	return &Preamp{}
}

// Prepare (re)computes every coefficient-bearing piece of state for
// the given 2x working sample rate: the trapezoidal system matrices,
// the DK kernel, the Sherman-Morrison auxiliaries, and the DC
// operating point. Returns a non-recoverable error if the DC solve
// fails to converge.
func (p *Preamp) Prepare(fsWork float64) error {
	if fsWork <= 0 || !isFinite(fsWork) {
		return fmt.Errorf("preamp: working sample rate must be > 0: %f", fsWork)
	}

	topo, err := buildTopology(fsWork)
	if err != nil {
		return err
	}

	vDC, err := solveDCOperatingPoint(topo)
	if err != nil {
		return fmt.Errorf("preamp: prepare failed: %w", err)
	}

	p.fsWork = fsWork
	p.topo = topo
	p.vDC = vDC
	p.v = vDC

	nv := nV()
	vbe := applyNV(nv, vDC)
	iNl, _ := bjtCurrentsAndConductances(vbe)
	p.iNlPrev = iNl
	p.vNlPrev = vbe

	p.gLdrPrev = 0
	p.cinRhsPrev = 0
	p.jCin = 0
	p.vE2Prev = vDC[nodeTR2Emitter]
	p.iCe2Prev = 0

	besselSections, err := besselOutputSections(fsWork)
	if err != nil {
		return fmt.Errorf("preamp: failed to design output filter: %w", err)
	}

	p.outputHPF = biquad.NewChain(besselSections)

	return nil
}

func besselOutputSections(fsWork float64) ([]biquad.Coefficients, error) {
	sections := pass.BesselHP(outputHPFHz, outputHPFOrder, fsWork)
	if sections == nil {
		return nil, fmt.Errorf("invalid Bessel HPF design parameters")
	}

	return sections, nil
}

// Reset restores the node vector, NR warm-starts, and companion
// histories to the DC operating point, and clears the output filter
// state. Prepare must have been called first.
func (p *Preamp) Reset() {
	if p.topo == nil {
		return
	}

	p.resetToOperatingPoint()
	p.outputHPF.Reset()
}

// ProcessSample advances the circuit by one working-rate sample.
// vin is the pickup-summed input voltage; rLDR is the tremolo's
// feedback resistance in ohms for this sample.
func (p *Preamp) ProcessSample(vin, rLDR float64) float64 {
	t := p.topo

	gLDR := 0.0
	if rLDR > 0 {
		gLDR = 1 / rLDR
	}

	cinRhsNow := t.gCin*vin + p.jCin

	rhs := t.aNeg.mulVec(p.v)
	rhs[nodeTR1Base] += cinRhsNow + p.cinRhsPrev

	ni := nI()
	for i := 0; i < numNodes; i++ {
		rhs[i] += ni[i][0]*p.iNlPrev[0] + ni[i][1]*p.iNlPrev[1] + 2*t.w[i]
	}

	rhs[nodeFeedback] -= p.gLdrPrev * p.v[nodeFeedback]

	hE2 := t.gA * (t.gC*p.vE2Prev + p.iCe2Prev) / (t.gA + t.gB + t.gC)
	rhs[nodeTR2Emitter] += hE2

	vPred := t.s.mulVec(rhs)

	alphaSM := gLDR / (1 + gLDR*t.sFBFB)

	vPredFB := 0.0
	for i := 0; i < numNodes; i++ {
		vPredFB += t.sFBRow[i] * rhs[i]
	}

	for i := 0; i < numNodes; i++ {
		vPred[i] -= alphaSM * t.sFBCol[i] * vPredFB
	}

	var kEff [2][2]float64
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			kEff[i][j] = t.kBase[i][j] - alphaSM*t.nvSFB[i]*t.sFBNi[j]
		}
	}

	nv := nV()
	pVec := applyNV(nv, vPred)

	vNl := p.vNlPrev
	var iNl [2]float64

	for iter := 0; iter < nrMaxIterations; iter++ {
		vbeClamped := [2]float64{clampVbe(vNl[0]), clampVbe(vNl[1])}

		var gm [2]float64
		for k := 0; k < 2; k++ {
			expTerm := math.Exp(vbeClamped[k] / bjtVt)
			iNl[k] = bjtIs * (expTerm - 1)
			gm[k] = (bjtIs / bjtVt) * expTerm
		}

		var f [2]float64
		for k := 0; k < 2; k++ {
			f[k] = vNl[k] - pVec[k] - (kEff[k][0]*iNl[0] + kEff[k][1]*iNl[1])
		}

		maxAbs := math.Max(math.Abs(f[0]), math.Abs(f[1]))
		if maxAbs < nrTolerance {
			break
		}

		// J_F = I2 - K_eff . diag(gm)
		j00 := 1 - kEff[0][0]*gm[0]
		j01 := -kEff[0][1] * gm[1]
		j10 := -kEff[1][0] * gm[0]
		j11 := 1 - kEff[1][1]*gm[1]

		det := j00*j11 - j01*j10
		if math.Abs(det) < 1e-300 {
			break
		}

		dv0 := (f[0]*j11 - f[1]*j01) / det
		dv1 := (j00*f[1] - j10*f[0]) / det

		vNl[0] -= dv0
		vNl[1] -= dv1

		if !isFinite(vNl[0]) || !isFinite(vNl[1]) {
			p.resetToOperatingPoint()
			p.outputHPF.Reset()

			return 0
		}
	}

	var v vector
	sumK0 := t.sFBNi[0]*iNl[0] + t.sFBNi[1]*iNl[1]

	for i := 0; i < numNodes; i++ {
		contribution := t.sNi[i][0]*iNl[0] + t.sNi[i][1]*iNl[1]
		v[i] = vPred[i] + contribution - alphaSM*t.sFBCol[i]*sumK0
	}

	for i := 0; i < numNodes; i++ {
		if !isFinite(v[i]) {
			p.resetToOperatingPoint()
			p.outputHPF.Reset()

			return 0
		}
	}

	p.v = v
	p.iNlPrev = iNl
	p.vNlPrev = vNl
	p.cinRhsPrev = cinRhsNow
	p.jCin = -t.gCin*(1+t.cCin)*(vin-v[nodeTR1Base]) - t.cCin*p.jCin

	vX := vE2Junction(t, v[nodeTR2Emitter], p.vE2Prev, p.iCe2Prev)
	iCe2 := t.gC*(vX-p.vE2Prev) - p.iCe2Prev
	p.vE2Prev = vX
	p.iCe2Prev = iCe2

	p.gLdrPrev = gLDR

	outputAC := v[nodeOutput] - p.vDC[nodeOutput]

	return p.outputHPF.ProcessSample(outputAC)
}

func (p *Preamp) resetToOperatingPoint() {
	p.v = p.vDC

	nv := nV()
	vbe := applyNV(nv, p.vDC)
	iNl, _ := bjtCurrentsAndConductances(vbe)
	p.iNlPrev = iNl
	p.vNlPrev = vbe

	p.gLdrPrev = 0
	p.cinRhsPrev = 0
	p.jCin = 0
	p.vE2Prev = p.vDC[nodeTR2Emitter]
	p.iCe2Prev = 0
}

// vE2Junction solves for the hidden Re2a/Ce2/Re2b junction voltage
// given the now-known node-5 voltage, by re-deriving the relation from
// buildRE2Companion: vX = (gA*v5 + gC*vXPrev + iCe2Prev) / (gA+gB+gC).
func vE2Junction(t *topology, v5, vXPrev, iCe2Prev float64) float64 {
	return (t.gA*v5 + t.gC*vXPrev + iCe2Prev) / (t.gA + t.gB + t.gC)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
