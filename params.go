package wurlitzer

import (
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-wurlitzer/dsp/core"
)

// Params holds the host-adjustable parameters of the signal chain
// (spec.md §6 "Parameter values"). Zero value is not meaningful on its
// own; use DefaultParams.
type Params struct {
	// MasterVolume is the output-stage attenuation, in [0, 1].
	MasterVolume float64
	// TremoloRateHz is the LFO rate, in [0.1, 15] Hz.
	TremoloRateHz float64
	// TremoloDepth is the modulation depth, in [0, 1].
	TremoloDepth float64
	// SpeakerCharacter blends the cabinet model from bypass (0) to
	// authentic (1).
	SpeakerCharacter float64
	// VolumePot is the preamp-to-power-amp attenuation control, in
	// [0, 1]; applied with a quadratic (audio-taper) curve.
	VolumePot float64
}

// DefaultParams returns the engine's nominal operating parameters.
func DefaultParams() Params {
	return Params{
		MasterVolume:     1.0,
		TremoloRateHz:    5.63,
		TremoloDepth:     0.6,
		SpeakerCharacter: 1.0,
		VolumePot:        1.0,
	}
}

// Clamp returns p with every field clamped to its declared range
// (spec.md §7 "Parameter out of range... clamp silently").
func (p Params) Clamp() Params {
	return Params{
		MasterVolume:     core.Clamp(p.MasterVolume, 0, 1),
		TremoloRateHz:    core.Clamp(p.TremoloRateHz, 0.1, 15),
		TremoloDepth:     core.Clamp(p.TremoloDepth, 0, 1),
		SpeakerCharacter: core.Clamp(p.SpeakerCharacter, 0, 1),
		VolumePot:        core.Clamp(p.VolumePot, 0, 1),
	}
}

// paramCell is a lock-free scalar exchange cell: the host writes with
// atomic.Store from any thread, the audio thread reads with atomic.Load
// once per block. Never a mutex on the audio path (spec.md §5).
type paramCell struct {
	bits atomic.Uint64
}

func (c *paramCell) store(v float64) {
	c.bits.Store(math.Float64bits(v))
}

func (c *paramCell) load() float64 {
	return math.Float64frombits(c.bits.Load())
}

// paramCells is the atomic backing store for Params, owned by Core.
type paramCells struct {
	masterVolume     paramCell
	tremoloRateHz    paramCell
	tremoloDepth     paramCell
	speakerCharacter paramCell
	volumePot        paramCell
}

func newParamCells(p Params) *paramCells {
	c := &paramCells{}
	c.store(p)

	return c
}

func (c *paramCells) store(p Params) {
	p = p.Clamp()
	c.masterVolume.store(p.MasterVolume)
	c.tremoloRateHz.store(p.TremoloRateHz)
	c.tremoloDepth.store(p.TremoloDepth)
	c.speakerCharacter.store(p.SpeakerCharacter)
	c.volumePot.store(p.VolumePot)
}

func (c *paramCells) load() Params {
	return Params{
		MasterVolume:     c.masterVolume.load(),
		TremoloRateHz:    c.tremoloRateHz.load(),
		TremoloDepth:     c.tremoloDepth.load(),
		SpeakerCharacter: c.speakerCharacter.load(),
		VolumePot:        c.volumePot.load(),
	}
}
