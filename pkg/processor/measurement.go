package processor

import (
	"sync"

	"github.com/nowsound/engine/pkg/analysis"
	dspanalysis "github.com/nowsound/engine/pkg/dsp/analysis"
	"github.com/nowsound/engine/pkg/histogram"
)

// correlationWindowSamples sizes the stereo-correlation meter's internal
// window; large enough to give a stable reading across several blocks at
// typical sample rates without lagging a phase-relationship change by more
// than a fraction of a second.
const correlationWindowSamples = 2048

// RecordingSink accepts interleaved stereo float32 frames for background
// persistence (pkg/wavsink implements this against go-audio/wav) and can be
// stopped. Measurement depends only on this interface, not on wavsink
// directly, so the audio-path code here never imports a package that pulls
// in file I/O.
type RecordingSink interface {
	Write(frames []float32)
	Stop()
}

// Measurement passes audio through unchanged while feeding a volume
// histogram and, optionally, a frequency tracker and a WAV recording sink.
// Adapted from spec.md §4.7's Measurement processor description; grounded
// in shape on the teacher's pkg/dsp/analysis/meters.go RMSMeter for
// "measurement taps that don't alter the signal."
type Measurement struct {
	VolumeHistogram *histogram.Histogram
	Tracker         *analysis.FrequencyTracker // nil if constructed without an FFT size

	// Correlation and Peak are always-on stereo-field meters, grounded on
	// the teacher's pkg/dsp/analysis/correlation.go CorrelationMeter and
	// pkg/dsp/analysis/meters.go PeakMeter; both are safe for the control
	// thread to poll concurrently (each guards its own state with its own
	// mutex internally).
	Correlation *dspanalysis.CorrelationMeter
	Peak        *dspanalysis.PeakMeter

	mu   sync.Mutex
	sink RecordingSink

	// Pre-allocated scratch, sized to maxBlockSize, so ProcessBlock never
	// allocates on the audio thread.
	ch0, ch1    []float64
	mono        []float64
	interleaved []float32
}

// NewMeasurement constructs a Measurement processor sized for blocks up to
// maxBlockSize. If bounds is nil, no frequency tracker is created (matching
// "if constructed with an FFT size"). sampleRate tunes the correlation and
// peak meters.
func NewMeasurement(histogramCapacity int, bounds []analysis.BinBounds, fftSize int, maxBlockSize int, sampleRate float64) *Measurement {
	m := &Measurement{
		VolumeHistogram: histogram.New(histogramCapacity),
		Correlation:     dspanalysis.NewCorrelationMeter(correlationWindowSamples, sampleRate),
		Peak:            dspanalysis.NewPeakMeter(sampleRate),
		ch0:             make([]float64, maxBlockSize),
		ch1:             make([]float64, maxBlockSize),
		mono:            make([]float64, maxBlockSize),
		interleaved:     make([]float32, maxBlockSize*2),
	}
	if bounds != nil {
		m.Tracker = analysis.NewFrequencyTracker(bounds, fftSize)
	}
	return m
}

// ProcessBlock passes in through to out unchanged, updates the volume
// histogram, the correlation/peak meters, and the optional frequency
// tracker, and — if a recording sink is active — forwards an interleaved
// copy of the block to it.
func (m *Measurement) ProcessBlock(in [2][]float32, out [2][]float32) {
	copy(out[0], in[0])
	copy(out[1], in[1])

	n := len(in[0])
	ch0, ch1 := m.ch0[:n], m.ch1[:n]
	for i := 0; i < n; i++ {
		avg := (abs32(in[0][i]) + abs32(in[1][i])) / 2
		m.VolumeHistogram.Add(avg)
		ch0[i] = float64(in[0][i])
		ch1[i] = float64(in[1][i])
	}
	m.Correlation.Process(ch0, ch1)

	mono := m.mono[:n]
	for i := 0; i < n; i++ {
		mono[i] = (ch0[i] + ch1[i]) / 2
	}
	m.Peak.Process(mono)

	if m.Tracker != nil {
		m.Tracker.Record(ch0, ch1, n)
	}

	m.mu.Lock()
	sink := m.sink
	m.mu.Unlock()
	if sink != nil {
		interleaved := m.interleaved[:n*2]
		for i := 0; i < n; i++ {
			interleaved[2*i] = in[0][i]
			interleaved[2*i+1] = in[1][i]
		}
		sink.Write(interleaved)
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// StartRecording installs sink as the active recording destination. Called
// from the control thread only.
func (m *Measurement) StartRecording(sink RecordingSink) {
	m.mu.Lock()
	m.sink = sink
	m.mu.Unlock()
}

// StopRecording clears the active sink under the mutex — so the audio
// thread immediately stops writing to it — then stops the sink outside the
// critical section, per spec.md §4.7's description of the exact ordering
// required to avoid the writer shutting down while the audio thread still
// holds a reference to it.
func (m *Measurement) StopRecording() {
	m.mu.Lock()
	sink := m.sink
	m.sink = nil
	m.mu.Unlock()

	if sink != nil {
		sink.Stop()
	}
}
