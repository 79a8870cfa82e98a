package biquad

// Chain cascades multiple biquad sections, processed in order. Used
// for higher-order filters such as the 4th-order Bessel output HPF
// (two cascaded second-order sections).
type Chain struct {
	sections []*Section
}

// NewChain builds a Chain from the given coefficient sets, one
// Section per entry, in cascade order.
func NewChain(coeffs []Coefficients) *Chain {
	sections := make([]*Section, len(coeffs))
	for i, c := range coeffs {
		sections[i] = NewSection(c)
	}

	return &Chain{sections: sections}
}

// ProcessSample filters one sample through every section in order.
func (c *Chain) ProcessSample(x float64) float64 {
	for _, s := range c.sections {
		x = s.ProcessSample(x)
	}

	return x
}

// ProcessBlock filters buf in place through every section in order.
func (c *Chain) ProcessBlock(buf []float64) {
	for _, s := range c.sections {
		s.ProcessBlock(buf)
	}
}

// Reset clears the delay line of every section.
func (c *Chain) Reset() {
	for _, s := range c.sections {
		s.Reset()
	}
}

// Len returns the number of cascaded sections.
func (c *Chain) Len() int {
	return len(c.sections)
}
