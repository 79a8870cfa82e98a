// Package limiter implements the output stage's peak safety limiter:
// a feed-forward gain reducer above a fixed ceiling, fast on attack and
// slow on release, guarding the final fan-out against the rare sample
// that escapes the nonlinear chain above [-1, +1] (spec.md §6 "Outputs
// to collaborators... limiter-guarded beyond").
//
// This is a lighter-weight peak limiter than the teacher's
// effects.Limiter (a 100:1 compressor wrapping the full gain-computer/
// envelope-smoother stack): the output stage here only ever needs to
// clamp rare excursions, not shape program dynamics, so it is built
// directly on the asymmetric one-pole envelope already shared by the
// tremolo and speaker thermal model (dsp/onepole.EnvelopeFollower)
// rather than porting the whole compressor machinery for one job.
package limiter

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-wurlitzer/dsp/onepole"
)

const (
	defaultCeiling        = 1.0
	defaultAttackSeconds  = 0.0005
	defaultReleaseSeconds = 0.050
)

// Limiter is a feed-forward peak limiter: gain reduction is computed
// from the instantaneous overshoot above ceiling, smoothed by a fast-
// attack/slow-release envelope, and applied to the same sample (no
// lookahead, hence no added latency or buffering).
type Limiter struct {
	ceiling float64
	env     onepole.EnvelopeFollower
}

// New creates a Limiter at the given ceiling (linear, normally 1.0)
// and sample rate.
func New(ceiling, sampleRate float64) (*Limiter, error) {
	if ceiling <= 0 || !isFinite(ceiling) {
		return nil, fmt.Errorf("limiter: ceiling must be > 0: %f", ceiling)
	}

	if sampleRate <= 0 || !isFinite(sampleRate) {
		return nil, fmt.Errorf("limiter: sample rate must be > 0: %f", sampleRate)
	}

	l := &Limiter{ceiling: ceiling}
	l.env.Configure(defaultAttackSeconds, defaultReleaseSeconds, sampleRate)

	return l, nil
}

// Prepare recomputes envelope coefficients for a new sample rate.
func (l *Limiter) Prepare(sampleRate float64) error {
	if sampleRate <= 0 || !isFinite(sampleRate) {
		return fmt.Errorf("limiter: sample rate must be > 0: %f", sampleRate)
	}

	l.env.Configure(defaultAttackSeconds, defaultReleaseSeconds, sampleRate)

	return nil
}

// Reset clears envelope state.
func (l *Limiter) Reset() { l.env.Reset() }

// ProcessSample applies gain reduction, if any, to keep |x| close to
// the ceiling, and returns the limited sample.
func (l *Limiter) ProcessSample(x float64) float64 {
	overshoot := math.Abs(x) / l.ceiling

	targetReduction := 0.0
	if overshoot > 1 {
		targetReduction = 1 - 1/overshoot
	}

	// Track the reduction amount itself, not the gain: a rising
	// reduction (need to clamp harder) must use the envelope's fast
	// attack leg, and a falling reduction (recovering toward unity
	// gain) the slow release leg.
	reduction := l.env.ProcessSample(targetReduction)

	return x * (1 - reduction)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
