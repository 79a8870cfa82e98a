package oversample

import (
	"fmt"
	"math"
)

const (
	// DefaultCoefficientCount matches the elliptic-approximation design
	// used for the 2× oversampling wrapper around the DK preamp: 12
	// allpass coefficients give a transition band of 0.01 (normalized)
	// with stopband rejection at or above 100 dB.
	DefaultCoefficientCount = 12
	// DefaultTransition is the normalized transition bandwidth.
	DefaultTransition = 0.01
)

// designAllpassCoefficients computes the elliptic-approximation allpass
// coefficients for a minimum-phase polyphase half-band filter of the
// given order and normalized transition bandwidth. The coefficients
// alternate between the two polyphase allpass branches: even indices
// belong to branch A, odd indices to branch B.
//
// This is the same elliptic (Cauer) allpass design recursion used for
// quadrature Hilbert splitting, applied here to a magnitude-preserving
// half-band decomposition instead of a 90-degree phase split.
func designAllpassCoefficients(numberOfCoeffs int, transition float64) ([]float64, error) {
	if err := validateDesignParams(numberOfCoeffs, transition); err != nil {
		return nil, err
	}

	k, q := computeTransitionParam(transition)
	order := numberOfCoeffs*2 + 1

	coeffs := make([]float64, numberOfCoeffs)
	for i := range numberOfCoeffs {
		coeffs[i] = computeCoefficient(i, k, q, order)
	}

	return coeffs, nil
}

// attenuationFromOrderTBW reports the stopband attenuation in dB
// achieved by the given coefficient count and transition bandwidth.
func attenuationFromOrderTBW(numberOfCoeffs int, transition float64) (float64, error) {
	if err := validateDesignParams(numberOfCoeffs, transition); err != nil {
		return 0, err
	}

	_, q := computeTransitionParam(transition)
	order := numberOfCoeffs*2 + 1

	return computeAttenuation(q, order), nil
}

func validateDesignParams(numberOfCoeffs int, transition float64) error {
	if numberOfCoeffs < 2 {
		return fmt.Errorf("oversample: number of coefficients must be >= 2: %d", numberOfCoeffs)
	}

	if !isFinite(transition) || transition <= 0 || transition >= 0.5 {
		return fmt.Errorf("oversample: transition must be finite and in (0, 0.5): %g", transition)
	}

	return nil
}

func computeTransitionParam(transition float64) (k, q float64) {
	k = math.Pow(math.Tan((1-transition*2)*math.Pi*0.25), 2)
	kksqrt := math.Pow(1-k*k, 0.25)
	e := 0.5 * (1 - kksqrt) / (1 + kksqrt)
	e4 := e * e * e * e
	q = e * (1 + e4*(2+e4*(15+150*e4)))

	return k, q
}

func computeAttenuation(q float64, order int) float64 {
	v := 4 * math.Exp(float64(order)*0.5*math.Log(q))
	return -10 * math.Log10(v/(1+v))
}

func computeCoefficient(index int, k, q float64, order int) float64 {
	c := index + 1
	num := computeACCNum(q, order, c) * math.Pow(q, 0.25)
	den := computeACCDen(q, order, c) + 0.5
	ww := (num * num) / (den * den)

	r := math.Sqrt((1-ww*k)*(1-ww/k)) / (1 + ww)

	return (1 - r) / (1 + r)
}

func computeACCNum(q float64, order, c int) float64 {
	result := 0.0
	i := 0
	sign := 1.0

	for {
		term := math.Pow(q, float64(i*(i+1))) * (math.Sin(float64(i*2+1)*float64(c)*math.Pi/float64(order)) * sign)
		result += term
		sign = -sign
		i++

		if math.Abs(term) <= 1e-100 {
			break
		}
	}

	return result
}

func computeACCDen(q float64, order, c int) float64 {
	result := 0.0
	i := 1
	sign := -1.0

	for {
		term := math.Pow(q, float64(i*i)) * math.Cos(2*float64(i)*float64(c)*math.Pi/float64(order)) * sign
		result += term
		sign = -sign
		i++

		if math.Abs(term) <= 1e-100 {
			break
		}
	}

	return result
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
