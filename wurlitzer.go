// Package wurlitzer implements the analog signal-chain core of a
// physically modeled Wurlitzer 200A electric piano: pickup, 2x
// oversampled DK preamp with tremolo-modulated feedback, power
// amplifier, speaker cabinet, and output stage, wired into a single
// process-wide Core (spec.md §1-§2, §9 "Shared process-wide state").
package wurlitzer

import (
	"fmt"
	"sync/atomic"

	wcore "github.com/cwbudde/algo-wurlitzer/dsp/core"
	"github.com/cwbudde/algo-wurlitzer/dsp/limiter"
	"github.com/cwbudde/algo-wurlitzer/dsp/oversample"
	"github.com/cwbudde/algo-wurlitzer/dsp/poweramp"
	"github.com/cwbudde/algo-wurlitzer/dsp/preamp"
	"github.com/cwbudde/algo-wurlitzer/dsp/speaker"
	"github.com/cwbudde/algo-wurlitzer/dsp/tremolo"
	"github.com/cwbudde/algo-wurlitzer/voice"
)

const outputLimiterCeiling = 1.0

// Core is the process-wide singleton instrument core: it owns the
// tremolo oscillator and the DK preamp exclusively (spec.md §9), plus
// the power amp, speaker, and output stage. Voices are created and
// destroyed by the caller and passed into ProcessVoices per block;
// Core owns no per-voice state.
//
// Core is single-threaded on the audio path: Process/ProcessVoices
// must only ever be called from one thread at a time, serialized with
// Prepare/Reset/Teardown by the caller (spec.md §5).
type Core struct {
	fsBase float64

	params *paramCells

	tremolo *tremolo.Tremolo
	up      *oversample.Upsampler
	preamp  *preamp.Preamp
	down    *oversample.Downsampler
	power   *poweramp.PowerAmp
	speaker *speaker.Speaker
	limiter *limiter.Limiter

	diagnostics atomic.Uint64
	lastGood    float64
}

// New creates a Core with the given initial parameters. Call Prepare
// before processing any samples.
func New(params Params) *Core {
	return &Core{params: newParamCells(params)}
}

// Prepare (re)initializes every component for the given base sample
// rate, including the DK preamp's DC operating-point solve. Returns a
// non-recoverable configuration error if fsBase is invalid or the DC
// solve fails to converge (spec.md §7 "Configuration error").
func (c *Core) Prepare(fsBase float64) error {
	if fsBase <= 0 {
		return fmt.Errorf("wurlitzer: base sample rate must be > 0: %f", fsBase)
	}

	trem, err := tremolo.New(fsBase)
	if err != nil {
		return fmt.Errorf("wurlitzer: tremolo init: %w", err)
	}

	up, err := oversample.NewDefaultUpsampler()
	if err != nil {
		return fmt.Errorf("wurlitzer: upsampler init: %w", err)
	}

	down, err := oversample.NewDefaultDownsampler()
	if err != nil {
		return fmt.Errorf("wurlitzer: downsampler init: %w", err)
	}

	pre := preamp.New()
	if err := pre.Prepare(2 * fsBase); err != nil {
		return fmt.Errorf("wurlitzer: preamp init: %w", err)
	}

	spk, err := speaker.New(fsBase)
	if err != nil {
		return fmt.Errorf("wurlitzer: speaker init: %w", err)
	}

	lim, err := limiter.New(outputLimiterCeiling, fsBase)
	if err != nil {
		return fmt.Errorf("wurlitzer: limiter init: %w", err)
	}

	c.fsBase = fsBase
	c.tremolo = trem
	c.up = up
	c.preamp = pre
	c.down = down
	c.power = poweramp.New()
	c.speaker = spk
	c.limiter = lim
	c.diagnostics.Store(0)
	c.lastGood = 0

	applyStartupParams(trem, spk, c.params.load())

	return nil
}

// Reset restores every component to its post-Prepare initial state
// without reallocating anything (spec.md §9 "Reset happens via an
// explicit reset() call").
func (c *Core) Reset() {
	if c.preamp == nil {
		return
	}

	c.tremolo.Reset()
	c.up.Reset()
	c.preamp.Reset()
	c.down.Reset()
	c.power.Reset()
	c.speaker.Reset()
	c.limiter.Reset()
	c.lastGood = 0
}

// Teardown releases Core's component references. The instrument can
// be restarted with another Prepare call.
func (c *Core) Teardown() {
	c.tremolo = nil
	c.up = nil
	c.preamp = nil
	c.down = nil
	c.power = nil
	c.speaker = nil
	c.limiter = nil
}

// SetParams updates the host-adjustable parameters for subsequent
// blocks via lock-free atomic exchange; safe to call from any thread
// concurrently with Process/ProcessVoices (spec.md §5 "Parameter
// reads").
func (c *Core) SetParams(p Params) {
	c.params.store(p)
}

// Params returns the parameters currently in effect.
func (c *Core) Params() Params {
	return c.params.load()
}

// Diagnostics returns the running count of degraded events since the
// last Prepare, for the host to inspect post hoc (spec.md §7): a
// non-finite preamp output pair (the preamp resets itself and returns 0
// on a non-finite node vector, so this rarely fires), a rejected tremolo
// rate/depth or speaker character value, and a non-finite final output
// sample. Preamp Newton-Raphson non-convergence is not counted.
func (c *Core) Diagnostics() uint64 {
	return c.diagnostics.Load()
}

// ProcessVoices sums the given per-voice (voice, displacement) inputs
// into the mono stream via voice.Sum, then runs the result through the
// full signal chain, filling outL/outR (spec.md §6, the "pickup runs
// core-side" convention; see DESIGN.md Open Question decisions).
// voices must have one entry per base-rate sample, i.e.
// len(voices) == len(outL) == len(outR).
func (c *Core) ProcessVoices(voices [][]voice.Input, outL, outR []float64) {
	n := len(voices)
	if len(outL) < n || len(outR) < n {
		n = min(len(outL), len(outR))
	}

	params := c.params.load()

	for i := 0; i < n; i++ {
		x := voice.Sum(voices[i])
		l, r := c.processSample(x, params)
		outL[i] = l
		outR[i] = r
	}
}

// Process runs a pre-summed mono stream through the full signal chain
// (the alternative input convention spec.md §6 allows), filling outL
// and outR. len(in) samples are processed; outL/outR must be at least
// that long.
func (c *Core) Process(in []float64, outL, outR []float64) {
	n := len(in)
	if len(outL) < n || len(outR) < n {
		n = min(len(outL), len(outR))
	}

	params := c.params.load()

	for i := 0; i < n; i++ {
		l, r := c.processSample(in[i], params)
		outL[i] = l
		outR[i] = r
	}
}

// processSample advances every component by exactly one base-rate
// sample, using the parameters loaded once for the current block, and
// returns the stereo (duplicated-mono) output.
func (c *Core) processSample(x float64, params Params) (left, right float64) {
	x = wcore.FlushDenormals(x)

	if err := c.tremolo.SetRateHz(params.TremoloRateHz); err != nil {
		c.diagnostics.Add(1)
	}

	if err := c.tremolo.SetDepth(params.TremoloDepth); err != nil {
		c.diagnostics.Add(1)
	}

	rLDR := c.tremolo.Tick()

	x0, x1 := c.up.ProcessSample(x)

	y0 := c.preamp.ProcessSample(x0, rLDR)
	y1 := c.preamp.ProcessSample(x1, rLDR)

	if !wcore.IsFinite(y0) || !wcore.IsFinite(y1) {
		c.diagnostics.Add(1)
		c.preamp.Reset()

		y0, y1 = 0, 0
	}

	preampOut := c.down.ProcessSample(y0, y1)

	volumeGain := params.VolumePot * params.VolumePot
	afterVolume := preampOut * volumeGain

	powerOut := c.power.ProcessSample(afterVolume)

	if err := c.speaker.SetCharacter(params.SpeakerCharacter); err != nil {
		c.diagnostics.Add(1)
	}

	speakerOut := c.speaker.ProcessSample(powerOut)

	out := speakerOut * params.MasterVolume
	out = c.limiter.ProcessSample(out)
	out = wcore.FlushDenormals(out)

	if !wcore.IsFinite(out) {
		c.diagnostics.Add(1)
		out = c.lastGood
	} else {
		c.lastGood = out
	}

	return out, out
}

func applyStartupParams(t *tremolo.Tremolo, s *speaker.Speaker, p Params) {
	_ = t.SetRateHz(p.TremoloRateHz)
	_ = t.SetDepth(p.TremoloDepth)
	_ = s.SetCharacter(p.SpeakerCharacter)
}
