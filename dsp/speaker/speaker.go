// Package speaker models the open-baffle cabinet's two 16 ohm oval
// drivers in parallel: a normalized Hammerstein waveshaper, a tanh
// excursion limiter, slow thermal compression, and HPF/LPF cone
// response shaping that can bypass toward a flat passthrough via the
// "Speaker Character" parameter.
package speaker

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-wurlitzer/dsp/core"
	"github.com/cwbudde/algo-wurlitzer/dsp/filter/biquad"
	"github.com/cwbudde/algo-wurlitzer/dsp/filter/design"
	"github.com/cwbudde/algo-wurlitzer/dsp/onepole"
)

const (
	defaultA2 = 0.2
	defaultA3 = 0.6

	hpfAuthenticHz = 95.0
	hpfQ           = 0.75
	lpfAuthenticHz = 5500.0
	lpfQ           = 0.7071067811865476

	hpfBypassHz = 20.0
	lpfBypassHz = 20000.0

	thermalTimeConstantSeconds = 5.0
	thermalMaxReductionDB      = 3.0
)

// Option mutates speaker construction parameters.
type Option func(*config) error

type config struct {
	a2, a3    float64
	character float64
}

func defaultConfig() config {
	return config{a2: defaultA2, a3: defaultA3, character: 1.0}
}

// WithA2 overrides the even-harmonic Hammerstein coefficient.
func WithA2(a2 float64) Option {
	return func(cfg *config) error {
		if !isFinite(a2) {
			return fmt.Errorf("speaker: a2 must be finite: %f", a2)
		}

		cfg.a2 = a2

		return nil
	}
}

// WithA3 overrides the odd-harmonic Hammerstein coefficient.
func WithA3(a3 float64) Option {
	return func(cfg *config) error {
		if !isFinite(a3) {
			return fmt.Errorf("speaker: a3 must be finite: %f", a3)
		}

		cfg.a3 = a3

		return nil
	}
}

// WithCharacter sets the initial "Speaker Character" in [0, 1]: 0 is
// linear bypass, 1 is the full authentic cabinet response.
func WithCharacter(character float64) Option {
	return func(cfg *config) error {
		if character < 0 || character > 1 || !isFinite(character) {
			return fmt.Errorf("speaker: character must be in [0, 1]: %f", character)
		}

		cfg.character = character

		return nil
	}
}

// Speaker is a process-wide singleton cabinet model.
type Speaker struct {
	cfg        config
	sampleRate float64

	hpf     *biquad.Section
	lpf     *biquad.Section
	thermal onepole.EnvelopeFollower
}

// New creates a Speaker at sampleRate with practical defaults.
func New(sampleRate float64, opts ...Option) (*Speaker, error) {
	if sampleRate <= 0 || !isFinite(sampleRate) {
		return nil, fmt.Errorf("speaker: sample rate must be > 0: %f", sampleRate)
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

	s := &Speaker{cfg: cfg, sampleRate: sampleRate}
	s.hpf = biquad.NewSection(biquad.Coefficients{})
	s.lpf = biquad.NewSection(biquad.Coefficients{})
	s.thermal.Configure(thermalTimeConstantSeconds, thermalTimeConstantSeconds, sampleRate)
	s.rebuildFilters()

	return s, nil
}

// Prepare recomputes filter coefficients for a new sample rate.
func (s *Speaker) Prepare(sampleRate float64) error {
	if sampleRate <= 0 || !isFinite(sampleRate) {
		return fmt.Errorf("speaker: sample rate must be > 0: %f", sampleRate)
	}

	s.sampleRate = sampleRate
	s.thermal.Configure(thermalTimeConstantSeconds, thermalTimeConstantSeconds, sampleRate)
	s.rebuildFilters()

	return nil
}

// SetCharacter updates the "Speaker Character" parameter and rebuilds
// the HPF/LPF cutoffs (log-interpolated between bypass and authentic).
func (s *Speaker) SetCharacter(character float64) error {
	if character < 0 || character > 1 || !isFinite(character) {
		return fmt.Errorf("speaker: character must be in [0, 1]: %f", character)
	}

	s.cfg.character = character
	s.rebuildFilters()

	return nil
}

// Reset clears filter and envelope state.
func (s *Speaker) Reset() {
	s.hpf.Reset()
	s.lpf.Reset()
	s.thermal.Reset()
}

// ProcessSample runs one sample through the waveshaper, excursion
// limiter, thermal compression, and cone-response filters.
func (s *Speaker) ProcessSample(x float64) float64 {
	character := s.cfg.character
	a2 := s.cfg.a2 * character
	a3 := s.cfg.a3 * character

	shaped := (x + a2*x*x + a3*x*x*x) / (1 + a2 + a3)
	limited := math.Tanh(shaped)

	envelope := s.thermal.ProcessSample(math.Abs(limited))
	reductionDB := thermalMaxReductionDB * envelope
	gain := core.DBToLinear(-reductionDB)

	filtered := s.hpf.ProcessSample(limited * gain)

	return s.lpf.ProcessSample(filtered)
}

func (s *Speaker) rebuildFilters() {
	character := s.cfg.character

	hpfHz := logInterpolate(hpfBypassHz, hpfAuthenticHz, character)
	lpfHz := logInterpolate(lpfBypassHz, lpfAuthenticHz, character)

	s.hpf.Coefficients = design.Highpass(hpfHz, hpfQ, s.sampleRate)
	s.lpf.Coefficients = design.Lowpass(lpfHz, lpfQ, s.sampleRate)
}

func logInterpolate(bypass, authentic, character float64) float64 {
	logBypass := math.Log(bypass)
	logAuthentic := math.Log(authentic)

	return math.Exp(logBypass + (logAuthentic-logBypass)*character)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
