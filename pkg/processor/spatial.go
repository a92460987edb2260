// Package processor implements the engine's audio_buffer-processing stages:
// Spatial (pan/volume/mute + effect chain), Measurement (histogram/FFT/WAV
// tap), DryWetMix, and Input (the per-device-channel entry point). Adapted
// in idiom from the teacher's pkg/dsp/pan/pan.go and pkg/dsp/mix/mix.go,
// generalized to the concrete signal-flow topology spec.md §4.7 describes
// rather than the teacher's generic plugin-chain abstraction.
//
// Every processor here operates on planar stereo buffers ([]float32 per
// channel, matching the teacher's process.Context.Input/Output shape) sized
// to the engine's block size; none allocate in ProcessBlock.
package processor

import (
	"github.com/nowsound/engine/pkg/dsp/pan"
	"github.com/nowsound/engine/pkg/dsp/utility"
)

// MaxOutputSample is the clipping ceiling applied at the spatial stage, to
// guarantee no device overload regardless of upstream gain staging.
const MaxOutputSample = 0.99

// Plugin is a 2-in/2-out stereo effect stage, the unit the effect chain
// strings together. The VST-shaped plugin host (pkg/pluginhost) supplies
// concrete implementations; tests use simple in-process ones.
type Plugin interface {
	ProcessBlock(in [2][]float32, out [2][]float32)
}

// ChainStage pairs one plugin instance with the dry/wet mixer that blends
// its output back with the stage's input, per spec.md §4.7.1's topology.
type ChainStage struct {
	Plugin Plugin
	DryWet *DryWetMix

	wetL, wetR []float32 // pre-allocated scratch for the plugin's wet output
}

// Chain is the spatial processor's ordered list of (plugin, drywet) stages.
// When empty, ProcessBlock is the identity — matching "when the chain is
// empty, the spatial node connects directly to the output measurement
// node."
type Chain struct {
	stages      []*ChainStage
	maxBlock    int
}

// NewChain constructs an empty chain sized for blocks up to maxBlockSize.
func NewChain(maxBlockSize int) *Chain {
	return &Chain{maxBlock: maxBlockSize}
}

// Append inserts a new stage at the tail of the chain — "when a plugin is
// inserted at the tail, the direct connection is removed and replaced by
// the new triple of connections" (spec.md §4.7.1); since stages execute
// strictly in order, appending to the slice realizes exactly that rewiring.
func (c *Chain) Append(plugin Plugin, level float64) *ChainStage {
	stage := &ChainStage{
		Plugin: plugin,
		DryWet: NewDryWetMix(level),
		wetL:   make([]float32, c.maxBlock),
		wetR:   make([]float32, c.maxBlock),
	}
	c.stages = append(c.stages, stage)
	return stage
}

// Remove deletes the stage at index i — "its connections are removed and
// the prior stage is reconnected to the following stage (or to the output
// node if it was last)", again realized for free by the stages just being
// an ordered slice.
func (c *Chain) Remove(i int) {
	c.stages = append(c.stages[:i], c.stages[i+1:]...)
}

// Stages returns the chain's stages in processing order.
func (c *Chain) Stages() []*ChainStage { return c.stages }

// ProcessBlock runs in[0:2] through every stage in order, writing the final
// result to out. in and out may alias.
func (c *Chain) ProcessBlock(in [2][]float32, out [2][]float32) {
	if len(c.stages) == 0 {
		// copy is well-defined even when in and out alias the same backing
		// array, so no aliasing check is needed here.
		copy(out[0], in[0])
		copy(out[1], in[1])
		return
	}

	n := len(in[0])
	current := in
	for _, stage := range c.stages {
		wet := [2][]float32{stage.wetL[:n], stage.wetR[:n]}
		stage.Plugin.ProcessBlock(current, wet)

		// out doubles as rolling scratch between stages: each stage mixes
		// dry (current) with wet into out, then reads out as the next
		// stage's dry input. Safe because nothing else observes out until
		// ProcessBlock returns.
		stage.DryWet.ProcessBlock(current, wet, out)
		current = out
	}
}

// Spatial pans a mono input to stereo under a constant-power law, applies
// volume and mute, clips to ±MaxOutputSample, and then runs the result
// through its owned effect chain.
type Spatial struct {
	Pan    float64 // 0..1; 0 = full left, 1 = full right, 0.5 = center
	Volume float64
	Mute   bool

	Chain *Chain

	panL, panR []float32 // scratch for the panned-but-unprocessed signal

	// panSmoother/volumeSmoother one-pole smooth Pan/Volume toward the
	// value a control-thread setter last wrote, so a mid-block change
	// never produces an audible zipper click. Grounded on the teacher's
	// pkg/dsp/utility/parameter.go SmoothParameter.
	panSmoother    *utility.SmoothParameter
	volumeSmoother *utility.SmoothParameter
	smoothersArmed bool // false until the first ProcessBlock has snapped to Pan/Volume
}

// panSmoothingSeconds is how long Pan/Volume take to reach a newly set
// target, short enough to track normal fader/pan-knob motion without
// audibly lagging it.
const panSmoothingSeconds = 0.02

// NewSpatial constructs a Spatial processor with its own effect chain,
// sized for blocks up to maxBlockSize. Its Pan/Volume smoothers step once
// per ProcessBlock, so they are tuned to the block rate
// sampleRate/maxBlockSize.
func NewSpatial(maxBlockSize int, sampleRate float64) *Spatial {
	blockRate := sampleRate / float64(maxBlockSize)
	s := &Spatial{
		Pan:            0.5,
		Volume:         1.0,
		Chain:          NewChain(maxBlockSize),
		panL:           make([]float32, maxBlockSize),
		panR:           make([]float32, maxBlockSize),
		panSmoother:    utility.NewSmoothParameter(panSmoothingSeconds, blockRate),
		volumeSmoother: utility.NewSmoothParameter(panSmoothingSeconds, blockRate),
	}
	return s
}

// ProcessBlock pans mono into stereo under a constant-power law (teacher's
// pkg/dsp/pan/pan.go MonoToStereo), applies volume/mute/clipping, and runs
// the chain, writing the final stereo signal to out. The first call snaps
// the smoothers straight to Pan/Volume rather than ramping from their
// construction-time defaults, so a caller that sets Pan/Volume before ever
// processing a block hears that value from sample one.
func (s *Spatial) ProcessBlock(mono []float32, out [2][]float32) {
	n := len(mono)

	if !s.smoothersArmed {
		s.panSmoother.SetImmediate(s.Pan)
		s.volumeSmoother.SetImmediate(s.Volume)
		s.smoothersArmed = true
	} else {
		s.panSmoother.SetTarget(s.Pan)
		s.volumeSmoother.SetTarget(s.Volume)
	}
	panValue := s.panSmoother.Process()
	vol := s.volumeSmoother.Process()

	leftGain, rightGain := pan.MonoToStereo(float32(panValue*2-1), pan.ConstantPower)

	panL, panR := s.panL[:n], s.panR[:n]

	if s.Mute {
		for i := 0; i < n; i++ {
			panL[i], panR[i] = 0, 0
		}
	} else {
		for i := 0; i < n; i++ {
			panL[i] = clip(float32(float64(mono[i]) * float64(leftGain) * vol))
			panR[i] = clip(float32(float64(mono[i]) * float64(rightGain) * vol))
		}
	}

	s.Chain.ProcessBlock([2][]float32{panL, panR}, out)
}

func clip(v float32) float32 {
	if v > MaxOutputSample {
		return MaxOutputSample
	}
	if v < -MaxOutputSample {
		return -MaxOutputSample
	}
	return v
}
