package processor

import (
	"github.com/nowsound/engine/pkg/bufalloc"
	"github.com/nowsound/engine/pkg/clock"
	"github.com/nowsound/engine/pkg/dsp/utility"
	"github.com/nowsound/engine/pkg/histogram"
	"github.com/nowsound/engine/pkg/stream"
	"github.com/nowsound/engine/pkg/unit"
)

// Input wraps a Spatial processor with the two raw-input consumers spec.md
// §4.7 describes: a rolling pre-record buffer and a raw-input volume
// histogram. Raw samples pass through a DC blocker first (teacher's
// pkg/dsp/utility/dcblocker.go SimpleDCBlocker), since a device's input
// path can carry a DC offset that would otherwise bias the histogram and
// waste headroom in everything downstream. If Primary is set (the engine's
// AudioInput1), ProcessBlock also advances the shared clock — the single
// documented point where the audio thread touches clock state (spec.md
// §5).
type Input struct {
	Channel int
	Primary bool

	Spatial           *Spatial
	IncomingAudio     *stream.BufferedSliceStream[unit.AudioSample, float32]
	RawInputHistogram *histogram.Histogram

	clock     *clock.Clock
	dcBlocker *utility.SimpleDCBlocker
	scratch   []float32 // pre-allocated, DC-blocked copy of raw
}

// NewInput constructs an Input processor for the given device channel. If
// primary, advancing the clock on every block is this Input's
// responsibility; preRecordWindow is doubled per spec.md §4.7 to give a
// rolling trailing buffer of that size. sampleRate tunes the DC blocker's
// cutoff and the Spatial processor's parameter smoothing.
func NewInput(channel int, primary bool, c *clock.Clock, allocator *bufalloc.Allocator[float32], preRecordWindow unit.Duration[unit.AudioSample], maxBlockSize int, histogramCapacity int, sampleRate float64) *Input {
	return &Input{
		Channel:           channel,
		Primary:           primary,
		Spatial:           NewSpatial(maxBlockSize, sampleRate),
		IncomingAudio:     stream.New[unit.AudioSample, float32](0, allocator, 1, preRecordWindow*2, false),
		RawInputHistogram: histogram.New(histogramCapacity),
		clock:             c,
		dcBlocker:         utility.NewSimpleDCBlocker(sampleRate),
		scratch:           make([]float32, maxBlockSize),
	}
}

// ProcessBlock DC-blocks raw, appends the result to the rolling pre-record
// stream, updates the raw-input histogram, advances the clock if this is
// the primary input, and runs the spatial chain to produce stereo output.
func (in *Input) ProcessBlock(raw []float32, out [2][]float32) {
	clean := in.scratch[:len(raw)]
	copy(clean, raw)
	in.dcBlocker.ProcessBuffer(clean)

	in.IncomingAudio.AppendValues(clean)
	in.RawInputHistogram.AddAll(clean, true)

	if in.Primary {
		in.clock.Advance(unit.Duration[unit.AudioSample](len(raw)))
	}

	in.Spatial.ProcessBlock(clean, out)
}
