// Package pickup converts a per-voice reed displacement into a
// pickup voltage signal: a 1/(1-y) capacitive nonlinearity followed by
// the natural bass rolloff of the pickup's RC network.
package pickup

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-wurlitzer/dsp/onepole"
)

const (
	defaultMaxY         = 0.90
	defaultSensitivity  = 1.84 // volts; V_pol * C0/(C0+Cparasitic)
	defaultHPFCutoffHz  = 2312.0
	minDisplacementScale = 0.02
	maxDisplacementScale = 0.85
)

// Option mutates pickup construction parameters.
type Option func(*config) error

type config struct {
	maxY        float64
	sensitivity float64
	hpfCutoffHz float64
}

func defaultConfig() config {
	return config{
		maxY:        defaultMaxY,
		sensitivity: defaultSensitivity,
		hpfCutoffHz: defaultHPFCutoffHz,
	}
}

// WithMaxY overrides the displacement clamp, normally 0.90.
func WithMaxY(maxY float64) Option {
	return func(cfg *config) error {
		if maxY <= 0 || maxY >= 1 || !isFinite(maxY) {
			return fmt.Errorf("pickup: maxY must be in (0, 1): %f", maxY)
		}

		cfg.maxY = maxY

		return nil
	}
}

// WithSensitivity overrides the voltage scale factor, normally ~1.84V.
func WithSensitivity(sensitivity float64) Option {
	return func(cfg *config) error {
		if sensitivity <= 0 || !isFinite(sensitivity) {
			return fmt.Errorf("pickup: sensitivity must be > 0: %f", sensitivity)
		}

		cfg.sensitivity = sensitivity

		return nil
	}
}

// WithHPFCutoffHz overrides the one-pole highpass cutoff, normally
// derived from R_total=287kOhm, C_total=240pF (~2312 Hz).
func WithHPFCutoffHz(cutoffHz float64) Option {
	return func(cfg *config) error {
		if cutoffHz <= 0 || !isFinite(cutoffHz) {
			return fmt.Errorf("pickup: HPF cutoff must be > 0: %f", cutoffHz)
		}

		cfg.hpfCutoffHz = cutoffHz

		return nil
	}
}

// Pickup holds the per-voice state: HPF history and a note-dependent
// displacement scale. One instance is created per sounding voice and
// destroyed at voice death.
type Pickup struct {
	cfg            config
	sampleRate     float64
	displacement   float64
	hp             onepole.HighPass
}

// New creates a Pickup for a voice with the given note-dependent
// displacement scale (clamped to [0.02, 0.85] per the spec's stated
// range) at sampleRate.
func New(sampleRate, displacementScale float64, opts ...Option) (*Pickup, error) {
	if sampleRate <= 0 || !isFinite(sampleRate) {
		return nil, fmt.Errorf("pickup: sample rate must be > 0: %f", sampleRate)
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

	p := &Pickup{
		cfg:          cfg,
		sampleRate:   sampleRate,
		displacement: clamp(displacementScale, minDisplacementScale, maxDisplacementScale),
	}
	p.hp.Configure(cfg.hpfCutoffHz, sampleRate)

	return p, nil
}

// Prepare recomputes filter coefficients for a new sample rate.
func (p *Pickup) Prepare(sampleRate float64) error {
	if sampleRate <= 0 || !isFinite(sampleRate) {
		return fmt.Errorf("pickup: sample rate must be > 0: %f", sampleRate)
	}

	p.sampleRate = sampleRate
	p.hp.Configure(p.cfg.hpfCutoffHz, sampleRate)

	return nil
}

// Reset clears the HPF history (voice restrike).
func (p *Pickup) Reset() {
	p.hp.Reset()
}

// ProcessSample converts one reed-displacement sample into a pickup
// voltage sample.
func (p *Pickup) ProcessSample(displacement float64) float64 {
	y := clamp(displacement*p.displacement, -p.cfg.maxY, p.cfg.maxY)
	nonlinear := y / (1 - y)
	v := nonlinear * p.cfg.sensitivity

	return p.hp.ProcessSample(v)
}

// DisplacementScale returns the voice's note-dependent scale.
func (p *Pickup) DisplacementScale() float64 { return p.displacement }

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}

	if x > hi {
		return hi
	}

	return x
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
