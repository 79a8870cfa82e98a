// Package voice holds the per-voice state that is exclusively owned
// by one sounding note: the pickup's high-pass-filter history and
// note-dependent displacement scale (spec.md §3 "PickupState (per
// voice)"). A Voice is created at note-on and discarded at note-off;
// nothing outside the voice reads or writes its state.
package voice

import (
	"fmt"

	"github.com/cwbudde/algo-wurlitzer/dsp/pickup"
)

// Sample is the scalar signal type carried between every stage of the
// core's signal chain (spec.md §3 "VoiceSample"). It has no persistent
// identity and carries no metadata beyond its value.
type Sample = float64

// Voice owns one note's pickup state. Ownership is exclusive: the
// voice layer and the core's oversampled preamp never share state,
// only scalar samples pass between them.
type Voice struct {
	id     int
	pickup *pickup.Pickup
}

// New creates a Voice with the given per-voice id (for host bookkeeping
// only; the core does not interpret it) and note-dependent displacement
// scale, at the given base sample rate.
func New(id int, sampleRate, displacementScale float64, opts ...pickup.Option) (*Voice, error) {
	p, err := pickup.New(sampleRate, displacementScale, opts...)
	if err != nil {
		return nil, fmt.Errorf("voice: %w", err)
	}

	return &Voice{id: id, pickup: p}, nil
}

// ID returns the voice's host-assigned identifier.
func (v *Voice) ID() int { return v.id }

// Prepare recomputes the pickup's filter coefficients for a new
// sample rate.
func (v *Voice) Prepare(sampleRate float64) error {
	return v.pickup.Prepare(sampleRate)
}

// Reset clears the pickup's HPF history, as on a restrike of the same
// physical key before the prior note's voice fully decayed.
func (v *Voice) Reset() { v.pickup.Reset() }

// ProcessSample converts one reed-displacement sample into this
// voice's pickup-voltage contribution to the mono sum.
func (v *Voice) ProcessSample(displacement float64) Sample {
	return v.pickup.ProcessSample(displacement)
}

// DisplacementScale returns the voice's note-dependent scale.
func (v *Voice) DisplacementScale() float64 { return v.pickup.DisplacementScale() }

// Input pairs a single voice's current displacement sample with the
// voice that should process it, for Sum.
type Input struct {
	Voice        *Voice
	Displacement float64
}

// Sum runs each input through its voice's pickup and returns the
// mono sum fed into the rest of the signal chain (spec.md §2 "Voice
// sum"). A nil Voice entry contributes zero.
func Sum(inputs []Input) Sample {
	var total Sample

	for _, in := range inputs {
		if in.Voice == nil {
			continue
		}

		total += in.Voice.ProcessSample(in.Displacement)
	}

	return total
}
