package oversample

// allpassChain cascades first-order allpass sections, each of the form
// y[n] = a*(x[n] - y[n-1]) + x[n-1], operating at the decimated
// (base) rate. Two such chains, built from the even- and odd-indexed
// design coefficients, form the two polyphase branches of the
// half-band filter.
type allpassChain struct {
	coeffs []float64
	x      []float64
	y      []float64
}

func newAllpassChain(coeffs []float64) *allpassChain {
	c := append([]float64(nil), coeffs...)

	return &allpassChain{
		coeffs: c,
		x:      make([]float64, len(c)),
		y:      make([]float64, len(c)),
	}
}

func (a *allpassChain) process(input float64) float64 {
	for i, coeff := range a.coeffs {
		w := a.x[i]
		a.x[i] = input
		output := coeff*(input-a.y[i]) + w
		a.y[i] = output
		input = output
	}

	return input
}

func (a *allpassChain) reset() {
	for i := range a.x {
		a.x[i] = 0
		a.y[i] = 0
	}
}

// splitBranches partitions designed half-band coefficients into the
// two polyphase allpass branches by parity: branch A uses even
// indices, branch B uses odd indices.
func splitBranches(coeffs []float64) (branchA, branchB []float64) {
	for i, c := range coeffs {
		if i%2 == 0 {
			branchA = append(branchA, c)
		} else {
			branchB = append(branchB, c)
		}
	}

	return branchA, branchB
}
