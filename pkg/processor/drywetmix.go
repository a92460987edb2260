package processor

import (
	"github.com/nowsound/engine/pkg/contract"
	"github.com/nowsound/engine/pkg/dsp/mix"
)

// DryWetMix linearly blends a dry stereo pair (channels 0,1) with a wet
// stereo pair (channels 2,3 in the original four-channel framing; expressed
// here as two separate stereo pairs since Go's type system makes that
// clearer than a literal four-channel buffer) into a two-channel output.
// Grounded on the teacher's pkg/dsp/mix/mix.go DryWetBufferTo, generalized
// from its normalized [0,1] wet parameter to the spec's level∈[0,100].
type DryWetMix struct {
	Level float64 // 0..100
}

// NewDryWetMix constructs a DryWetMix at the given level.
func NewDryWetMix(level float64) *DryWetMix {
	contract.Require(level >= 0 && level <= 100, "processor: DryWetMix level must be in [0,100]")
	return &DryWetMix{Level: level}
}

// ProcessBlock computes out = dry*(1-m) + wet*m per sample, where
// m = Level/100.
func (d *DryWetMix) ProcessBlock(dry [2][]float32, wet [2][]float32, out [2][]float32) {
	m := float32(d.Level / 100.0)
	mix.DryWetBufferTo(dry[0], wet[0], m, out[0])
	mix.DryWetBufferTo(dry[1], wet[1], m, out[1])
}
