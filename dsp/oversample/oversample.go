// Package oversample implements a 2x polyphase half-band IIR
// upsampler/downsampler pair built from elliptic-approximation allpass
// branches. It exists solely to enclose the DK preamp (package
// preamp), which must run at twice the base sample rate to push
// aliasing from its Newton-Raphson nonlinearity below -100 dB.
package oversample

import "fmt"

// Upsampler converts a base-rate stream to 2x rate using the noble
// identity for polyphase interpolation: the same two allpass branches
// used by Downsampler, each run once per input sample (no explicit
// zero-stuffing), produce the even- and odd-indexed output samples
// directly.
type Upsampler struct {
	branchA *allpassChain
	branchB *allpassChain
}

// NewUpsampler builds an upsampler from numberOfCoeffs allpass
// coefficients designed for the given normalized transition bandwidth.
func NewUpsampler(numberOfCoeffs int, transition float64) (*Upsampler, error) {
	coeffs, err := designAllpassCoefficients(numberOfCoeffs, transition)
	if err != nil {
		return nil, err
	}

	branchA, branchB := splitBranches(coeffs)

	return &Upsampler{
		branchA: newAllpassChain(branchA),
		branchB: newAllpassChain(branchB),
	}, nil
}

// NewDefaultUpsampler builds an upsampler using DefaultCoefficientCount
// and DefaultTransition, the values specified for the preamp enclosure.
func NewDefaultUpsampler() (*Upsampler, error) {
	return NewUpsampler(DefaultCoefficientCount, DefaultTransition)
}

// ProcessSample expands one base-rate sample into two 2x-rate samples.
func (u *Upsampler) ProcessSample(x float64) (y0, y1 float64) {
	a := u.branchA.process(x)
	b := u.branchB.process(x)

	return a, b
}

// Reset clears filter state.
func (u *Upsampler) Reset() {
	u.branchA.reset()
	u.branchB.reset()
}

// Downsampler converts a 2x-rate stream back to the base rate using
// the complementary half-band allpass-sum decomposition: even samples
// feed branch A, odd samples feed branch B (delayed by one decimated
// sample relative to A), and the pair is averaged to cancel the image
// above the new Nyquist frequency.
type Downsampler struct {
	branchA *allpassChain
	branchB *allpassChain
	prevB   float64
}

// NewDownsampler builds a downsampler from numberOfCoeffs allpass
// coefficients designed for the given normalized transition bandwidth.
func NewDownsampler(numberOfCoeffs int, transition float64) (*Downsampler, error) {
	coeffs, err := designAllpassCoefficients(numberOfCoeffs, transition)
	if err != nil {
		return nil, err
	}

	branchA, branchB := splitBranches(coeffs)

	return &Downsampler{
		branchA: newAllpassChain(branchA),
		branchB: newAllpassChain(branchB),
	}, nil
}

// NewDefaultDownsampler builds a downsampler using
// DefaultCoefficientCount and DefaultTransition.
func NewDefaultDownsampler() (*Downsampler, error) {
	return NewDownsampler(DefaultCoefficientCount, DefaultTransition)
}

// ProcessSample consumes one pair of 2x-rate samples and returns one
// base-rate sample.
func (d *Downsampler) ProcessSample(x0, x1 float64) float64 {
	a := d.branchA.process(x0)
	b := d.branchB.process(x1)

	out := 0.5 * (a + d.prevB)
	d.prevB = b

	return out
}

// Reset clears filter state.
func (d *Downsampler) Reset() {
	d.branchA.reset()
	d.branchB.reset()
	d.prevB = 0
}

// Attenuation reports the stopband attenuation, in dB, of a half-band
// design with the given coefficient count and transition bandwidth.
// Used by callers (and tests) to confirm the enclosure meets the
// spec's >=100 dB stopband requirement before wiring it in.
func Attenuation(numberOfCoeffs int, transition float64) (float64, error) {
	attenDB, err := attenuationFromOrderTBW(numberOfCoeffs, transition)
	if err != nil {
		return 0, fmt.Errorf("oversample: %w", err)
	}

	return attenDB, nil
}
