// Package tremolo produces the time-varying LDR resistance that
// modulates the preamp's feedback-loop gain: a sine LFO, half-wave
// rectified, smoothed by an asymmetric attack/release envelope, then
// mapped to resistance in log-space.
package tremolo

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-wurlitzer/dsp/onepole"
)

const (
	defaultRateHz = 5.63
	defaultDepth  = 0.6

	attackSeconds  = 0.003
	releaseSeconds = 0.050

	rMinOhms = 50.0
	rMaxOhms = 1.0e6
	gamma    = 1.1

	seriesBaseOhms  = 18_000.0
	seriesRangeOhms = 50_000.0
)

// Option mutates tremolo construction parameters.
type Option func(*config) error

type config struct {
	rateHz float64
	depth  float64
}

func defaultConfig() config {
	return config{rateHz: defaultRateHz, depth: defaultDepth}
}

// WithRateHz overrides the LFO rate, normally ~5.63 Hz.
func WithRateHz(rateHz float64) Option {
	return func(cfg *config) error {
		if rateHz <= 0 || !isFinite(rateHz) {
			return fmt.Errorf("tremolo: rate must be > 0: %f", rateHz)
		}

		cfg.rateHz = rateHz

		return nil
	}
}

// WithDepth overrides modulation depth in [0, 1].
func WithDepth(depth float64) Option {
	return func(cfg *config) error {
		if depth < 0 || depth > 1 || !isFinite(depth) {
			return fmt.Errorf("tremolo: depth must be in [0, 1]: %f", depth)
		}

		cfg.depth = depth

		return nil
	}
}

// Tremolo is a process-wide singleton: its LFO advances once per
// base-rate sample, and its output R_total feeds the DK preamp, which
// runs at 2x the base rate.
type Tremolo struct {
	cfg        config
	sampleRate float64

	phase   float64
	ldrEnv  onepole.EnvelopeFollower
	rTotal  float64
}

// New creates a Tremolo at sampleRate (the base rate, not the
// preamp's 2x working rate) with practical defaults and overrides.
func New(sampleRate float64, opts ...Option) (*Tremolo, error) {
	if sampleRate <= 0 || !isFinite(sampleRate) {
		return nil, fmt.Errorf("tremolo: sample rate must be > 0: %f", sampleRate)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	t := &Tremolo{cfg: cfg, sampleRate: sampleRate}
	t.ldrEnv.Configure(attackSeconds, releaseSeconds, sampleRate)
	t.rTotal = t.resistanceForState(0)

	return t, nil
}

// Prepare recomputes envelope coefficients for a new base sample rate.
func (t *Tremolo) Prepare(sampleRate float64) error {
	if sampleRate <= 0 || !isFinite(sampleRate) {
		return fmt.Errorf("tremolo: sample rate must be > 0: %f", sampleRate)
	}

	t.sampleRate = sampleRate
	t.ldrEnv.Configure(attackSeconds, releaseSeconds, sampleRate)

	return nil
}

// SetRateHz overrides the LFO rate.
func (t *Tremolo) SetRateHz(rateHz float64) error {
	if rateHz <= 0 || !isFinite(rateHz) {
		return fmt.Errorf("tremolo: rate must be > 0: %f", rateHz)
	}

	t.cfg.rateHz = rateHz

	return nil
}

// SetDepth overrides modulation depth.
func (t *Tremolo) SetDepth(depth float64) error {
	if depth < 0 || depth > 1 || !isFinite(depth) {
		return fmt.Errorf("tremolo: depth must be in [0, 1]: %f", depth)
	}

	t.cfg.depth = depth

	return nil
}

// Reset clears LFO phase and envelope state.
func (t *Tremolo) Reset() {
	t.phase = 0
	t.ldrEnv.Reset()
	t.rTotal = t.resistanceForState(0)
}

// Tick advances the LFO and envelope by one base-rate sample and
// returns the new R_total feedback resistance, in ohms.
func (t *Tremolo) Tick() float64 {
	lfo := math.Sin(t.phase)

	t.phase += 2 * math.Pi * t.cfg.rateHz / t.sampleRate
	if t.phase >= 2*math.Pi {
		t.phase -= 2 * math.Pi
	}

	ledDrive := math.Max(0, lfo) * t.cfg.depth
	ldrState := t.ldrEnv.ProcessSample(ledDrive)

	t.rTotal = t.resistanceForState(ldrState)

	return t.rTotal
}

// RTotal returns the most recently computed feedback resistance
// without advancing state.
func (t *Tremolo) RTotal() float64 { return t.rTotal }

func (t *Tremolo) resistanceForState(ldrState float64) float64 {
	logRMax := math.Log(rMaxOhms)
	logRMin := math.Log(rMinOhms)
	logR := logRMax + (logRMin-logRMax)*math.Pow(ldrState, gamma)
	rLDR := math.Exp(logR)

	rSeries := seriesBaseOhms + seriesRangeOhms*(1-t.cfg.depth)

	return rSeries + rLDR
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
