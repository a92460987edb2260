package analysis

// FrequencyTracker accumulates incoming stereo audio into a fixed-size FFT
// window (downmixing channels to mono by averaging), and republishes a
// rescaled histogram each time a window fills. Adapted from
// original_source/NowSoundLib/NowSoundFrequencyTracker.{h,cpp}.
//
// Like the original, GetLatestHistogram and Record are not mutually
// synchronized: a reader may observe a partially-updated output buffer.
// This is deliberate (spec.md §5 tolerates one-block staleness on
// cross-thread reads) rather than an oversight — locking here would block
// the audio thread that calls Record.
type FrequencyTracker struct {
	fft *FFT

	recordingBuffer []float64
	recordingSize   int

	bounds []BinBounds
	output []float32
}

// NewFrequencyTracker constructs a tracker with the given precomputed bin
// bounds and FFT window size.
func NewFrequencyTracker(bounds []BinBounds, fftSize int) *FrequencyTracker {
	return &FrequencyTracker{
		fft:             NewFFT(fftSize, BlackmanHarrisWindow),
		recordingBuffer: make([]float64, fftSize),
		bounds:          bounds,
		output:          make([]float32, len(bounds)),
	}
}

// GetLatestHistogram copies the most recently computed histogram into out,
// which must be exactly len(bounds) long.
func (t *FrequencyTracker) GetLatestHistogram(out []float32) {
	if len(out) != len(t.bounds) {
		panic("analysis: GetLatestHistogram output length must equal bin count")
	}
	copy(out, t.output)
}

// Record feeds sampleCount stereo samples (averaged to mono) into the
// tracker's FFT window, transforming and republishing the histogram each
// time the window fills.
func (t *FrequencyTracker) Record(channel0, channel1 []float64, sampleCount int) {
	inputPos := 0
	for sampleCount > 0 {
		capacity := t.fft.Size() - t.recordingSize
		toRecord := sampleCount
		if toRecord > capacity {
			toRecord = capacity
		}

		for i := 0; i < toRecord; i++ {
			t.recordingBuffer[t.recordingSize+i] = channel0[inputPos+i]/2 + channel1[inputPos+i]/2
		}

		t.recordingSize += toRecord
		if t.recordingSize == t.fft.Size() {
			t.recordingSize = 0
			t.transformBuffer()
		}

		sampleCount -= toRecord
		inputPos += toRecord
	}
}

func (t *FrequencyTracker) transformBuffer() {
	t.fft.Transform(t.recordingBuffer)
	RescaleFFT(t.bounds, t.fft.Magnitude(), t.output)
}
