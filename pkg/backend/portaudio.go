package backend

import (
	"fmt"
	"runtime"

	"github.com/gordonklaus/portaudio"
	"github.com/sirupsen/logrus"
)

// PortAudioBackend is the production Backend, opening a default stereo
// duplex stream through PortAudio. The callback PortAudio invokes runs on
// a dedicated OS thread and receives interleaved float32 buffers; this
// type de-/re-interleaves into the planar [2][]float32 shape the rest of
// the engine uses, without allocating per block.
type PortAudioBackend struct {
	log *logrus.Entry

	stream     *portaudio.Stream
	sampleRate float64
	blockSize  int

	interleavedIn, interleavedOut []float32
	planarIn, planarOut           [2][]float32

	cb Callback
}

// NewPortAudioBackend constructs an unopened backend. PortAudio itself must
// already be initialized (portaudio.Initialize) by the caller before Open.
func NewPortAudioBackend(log *logrus.Entry) *PortAudioBackend {
	return &PortAudioBackend{log: log}
}

// Open negotiates a default stereo duplex stream at the requested rate and
// block size.
func (b *PortAudioBackend) Open(requestedSampleRate float64, requestedBlockSize int, cb Callback) error {
	b.cb = cb
	b.blockSize = requestedBlockSize
	b.sampleRate = requestedSampleRate

	b.interleavedIn = make([]float32, requestedBlockSize*2)
	b.interleavedOut = make([]float32, requestedBlockSize*2)
	b.planarIn = [2][]float32{make([]float32, requestedBlockSize), make([]float32, requestedBlockSize)}
	b.planarOut = [2][]float32{make([]float32, requestedBlockSize), make([]float32, requestedBlockSize)}

	stream, err := portaudio.OpenDefaultStream(2, 2, requestedSampleRate, requestedBlockSize, b.process)
	if err != nil {
		return fmt.Errorf("backend: opening portaudio duplex stream: %w", err)
	}
	b.stream = stream

	info := stream.Info()
	b.sampleRate = info.SampleRate
	b.log.WithFields(logrus.Fields{
		"sample_rate": b.sampleRate,
		"block_size":  b.blockSize,
	}).Info("backend: opened portaudio stream")
	return nil
}

// process is PortAudio's registered callback. It must not allocate or
// block: every buffer it touches was pre-sized in Open.
func (b *PortAudioBackend) process(in, out []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	n := len(in) / 2
	for i := 0; i < n; i++ {
		b.planarIn[0][i] = in[2*i]
		b.planarIn[1][i] = in[2*i+1]
	}

	b.cb(b.planarIn, b.planarOut)

	for i := 0; i < n; i++ {
		out[2*i] = b.planarOut[0][i]
		out[2*i+1] = b.planarOut[1][i]
	}
}

// Start begins streaming.
func (b *PortAudioBackend) Start() error {
	if err := b.stream.Start(); err != nil {
		return fmt.Errorf("backend: starting portaudio stream: %w", err)
	}
	return nil
}

// Stop halts streaming.
func (b *PortAudioBackend) Stop() error {
	if err := b.stream.Stop(); err != nil {
		return fmt.Errorf("backend: stopping portaudio stream: %w", err)
	}
	return nil
}

// Close releases the stream.
func (b *PortAudioBackend) Close() error {
	if b.stream == nil {
		return nil
	}
	if err := b.stream.Close(); err != nil {
		return fmt.Errorf("backend: closing portaudio stream: %w", err)
	}
	return nil
}

// SampleRate returns the achieved sample rate.
func (b *PortAudioBackend) SampleRate() float64 { return b.sampleRate }

// BlockSize returns the requested block size (PortAudio's Go binding does
// not report an achieved frames-per-buffer distinct from the request).
func (b *PortAudioBackend) BlockSize() int { return b.blockSize }
