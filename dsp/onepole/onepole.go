// Package onepole provides first-order zero-delay-feedback (ZDF)
// lowpass/highpass filters, a DC blocker built on top of the highpass,
// and an asymmetric attack/release envelope follower. These are the
// shared building blocks reused by the pickup's bass rolloff, the
// tremolo LDR smoother, the speaker's thermal-compression detector and
// the output limiter.
package onepole

import "math"

// LowPass is a trapezoidally (bilinear) discretized one-pole lowpass,
// stable at any sample rate because the cutoff is prewarped with tan().
type LowPass struct {
	g     float64 // prewarped, normalized coefficient g/(1+g)
	state float64
}

// Configure recomputes the filter coefficient for the given cutoff and
// sample rate. A non-positive cutoff disables the filter (identity).
func (f *LowPass) Configure(cutoffHz, sampleRate float64) {
	if cutoffHz <= 0 || sampleRate <= 0 {
		f.g = 0
		return
	}

	wd := math.Tan(math.Pi * cutoffHz / sampleRate)
	f.g = wd / (1 + wd)
}

// ProcessSample runs one trapezoidal-integrator step.
func (f *LowPass) ProcessSample(x float64) float64 {
	y := f.g*(x-f.state) + f.state
	f.state = 2*y - f.state

	return y
}

// Reset zeroes filter state.
func (f *LowPass) Reset() { f.state = 0 }

// State returns the internal integrator state (for diagnostics/tests).
func (f *LowPass) State() float64 { return f.state }

// HighPass is a one-pole highpass built as input minus a complementary
// LowPass, sharing the same prewarped coefficient.
type HighPass struct {
	lp LowPass
}

// Configure recomputes the filter coefficient.
func (f *HighPass) Configure(cutoffHz, sampleRate float64) {
	f.lp.Configure(cutoffHz, sampleRate)
}

// ProcessSample returns x with frequencies below the cutoff attenuated.
func (f *HighPass) ProcessSample(x float64) float64 {
	return x - f.lp.ProcessSample(x)
}

// Reset zeroes filter state.
func (f *HighPass) Reset() { f.lp.Reset() }

// State returns the internal integrator state (for diagnostics/tests).
func (f *HighPass) State() float64 { return f.lp.State() }

const dcBlockerCutoffHz = 20.0

// DCBlocker is a fixed ~20 Hz one-pole highpass that strips DC offset
// from a signal. No stage of this module's signal chain uses it.
type DCBlocker struct {
	hp HighPass
}

// Prepare recomputes the blocker's coefficient for sampleRate.
func (d *DCBlocker) Prepare(sampleRate float64) {
	d.hp.Configure(dcBlockerCutoffHz, sampleRate)
}

// ProcessSample removes DC offset from x.
func (d *DCBlocker) ProcessSample(x float64) float64 {
	return d.hp.ProcessSample(x)
}

// Reset zeroes filter state.
func (d *DCBlocker) Reset() { d.hp.Reset() }

// EnvelopeFollower is an asymmetric attack/release one-pole envelope
// detector: it slews faster upward (attack) than downward (release).
// Used for the tremolo LDR drive smoothing (distinct attack and release
// times), the speaker's thermal compression detector (the same 5 s for
// both legs) and the output limiter's gain-reduction envelope.
type EnvelopeFollower struct {
	attackCoeff  float64
	releaseCoeff float64
	state        float64
}

// Configure recomputes the attack/release coefficients from time
// constants given in seconds, at sampleRate. A non-positive time
// constant makes that leg track instantaneously.
func (e *EnvelopeFollower) Configure(attackSeconds, releaseSeconds, sampleRate float64) {
	e.attackCoeff = timeConstantCoeff(attackSeconds, sampleRate)
	e.releaseCoeff = timeConstantCoeff(releaseSeconds, sampleRate)
}

func timeConstantCoeff(tau, sampleRate float64) float64 {
	if tau <= 0 || sampleRate <= 0 {
		return 0
	}

	return math.Exp(-1.0 / (tau * sampleRate))
}

// ProcessSample advances the envelope toward target using the attack
// coefficient if target exceeds the current state, else the release
// coefficient.
func (e *EnvelopeFollower) ProcessSample(target float64) float64 {
	if target > e.state {
		e.state = target + (e.state-target)*e.attackCoeff
	} else {
		e.state = target + (e.state-target)*e.releaseCoeff
	}

	return e.state
}

// Reset zeroes the envelope state.
func (e *EnvelopeFollower) Reset() { e.state = 0 }

// State returns the current envelope value.
func (e *EnvelopeFollower) State() float64 { return e.state }
