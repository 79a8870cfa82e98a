// Package measure provides FFT-based spectral analysis helpers used only
// by this module's test suite: a one-sided magnitude spectrum, peak-bin
// search, level at a frequency, THD+N, and a dB ratio.
//
// It is a trimmed adaptation of the teacher's measure/thd package: the
// fundamental-bin detection and per-harmonic level extraction survive,
// while the Rub'n'Buzz/SINAD/window-catalog machinery is dropped since
// nothing in this module's tests exercises it.
package measure

import (
	"math"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-wurlitzer/dsp/core"
)

// Spectrum holds a one-sided (0..Nyquist) magnitude spectrum together
// with the bin spacing needed to translate frequencies to bin indices.
type Spectrum struct {
	Mag    []float64 // magnitude, not squared, bins [0..N/2]
	BinHz  float64
	FFTLen int
}

// Analyze windows (Hann), zero-pads to fftSize (next power of two
// covering len(signal) if fftSize <= 0), and returns the one-sided
// magnitude spectrum.
func Analyze(signal []float64, sampleRate float64, fftSize int) (Spectrum, error) {
	if len(signal) == 0 || sampleRate <= 0 {
		return Spectrum{}, nil
	}

	if fftSize <= 0 {
		fftSize = nextPowerOfTwo(len(signal))
	}

	windowed := make([]complex128, fftSize)
	n := len(signal)

	for i := 0; i < n && i < fftSize; i++ {
		w := hann(i, n)
		windowed[i] = complex(signal[i]*w, 0)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return Spectrum{}, err
	}

	out := make([]complex128, fftSize)
	if err := plan.Forward(out, windowed); err != nil {
		return Spectrum{}, err
	}

	binCount := fftSize/2 + 1
	mag := make([]float64, binCount)

	for i := 0; i < binCount; i++ {
		mag[i] = math.Hypot(real(out[i]), imag(out[i]))
	}

	return Spectrum{
		Mag:    mag,
		BinHz:  sampleRate / float64(fftSize),
		FFTLen: fftSize,
	}, nil
}

// LevelAt returns the magnitude of the bin nearest freqHz, searching
// +/-searchBins around the nominal bin for the local peak (to tolerate
// small frequency drift from non-integer cycle counts).
func (s Spectrum) LevelAt(freqHz float64, searchBins int) float64 {
	if s.BinHz <= 0 || len(s.Mag) == 0 {
		return 0
	}

	center := int(math.Round(freqHz / s.BinHz))

	lo := center - searchBins
	if lo < 0 {
		lo = 0
	}

	hi := center + searchBins
	if hi > len(s.Mag)-1 {
		hi = len(s.Mag) - 1
	}

	best := 0.0

	for i := lo; i <= hi; i++ {
		if s.Mag[i] > best {
			best = s.Mag[i]
		}
	}

	return best
}

// PeakBin returns the bin index of the largest magnitude in [loHz, hiHz].
func (s Spectrum) PeakBin(loHz, hiHz float64) int {
	if s.BinHz <= 0 || len(s.Mag) == 0 {
		return 0
	}

	lo := clampInt(int(math.Round(loHz/s.BinHz)), 0, len(s.Mag)-1)
	hi := clampInt(int(math.Round(hiHz/s.BinHz)), lo, len(s.Mag)-1)

	best := lo
	bestVal := s.Mag[lo]

	for i := lo + 1; i <= hi; i++ {
		if s.Mag[i] > bestVal {
			bestVal = s.Mag[i]
			best = i
		}
	}

	return best
}

// RatioDB returns 20*log10(num/den); it returns -Inf if den <= 0 and
// -300 if num <= 0.
func RatioDB(num, den float64) float64 {
	if den <= 0 {
		return math.Inf(-1)
	}

	if num <= 0 {
		return -300
	}

	return core.LinearToDB(num / den)
}

// THDN computes THD+N, in dB relative to the fundamental, for a
// spectrum given the fundamental frequency. All energy outside a
// narrow window around the fundamental (and DC) is treated as
// distortion+noise.
func THDN(s Spectrum, fundamentalHz float64, searchBins int) float64 {
	if s.BinHz <= 0 || len(s.Mag) < 2 {
		return 0
	}

	fundBin := int(math.Round(fundamentalHz / s.BinHz))

	fundEnergy := 0.0
	distEnergy := 0.0

	for i := 1; i < len(s.Mag); i++ {
		e := s.Mag[i] * s.Mag[i]
		if i >= fundBin-searchBins && i <= fundBin+searchBins {
			fundEnergy += e
		} else {
			distEnergy += e
		}
	}

	if fundEnergy <= 0 {
		return 0
	}

	return RatioDB(math.Sqrt(distEnergy), math.Sqrt(fundEnergy))
}

func hann(i, n int) float64 {
	if n <= 1 {
		return 1
	}

	return 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}

	return p
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}
