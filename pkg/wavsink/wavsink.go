// Package wavsink implements the background WAV-file writer spec.md §6
// names under "Persisted state": "only the optional recorded WAV file;
// standard WAV header with the graph's sample rate, 2 channels, 32 bits
// per sample; sample data written by a background thread." Grounded on
// _examples/other_examples/7d06a8e3_rayboyd-audio-engine__internal-audio-engine.go.go's
// go-audio/wav + go-audio/audio combination, adapted from that example's
// synchronous in-callback encoder.Write call to an asynchronous
// goroutine-drained channel, since spec.md §5 forbids the audio thread
// from blocking on file I/O.
package wavsink

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/sirupsen/logrus"
)

const (
	bitDepth    = 32
	numChannels = 2
	// audioFormatIEEEFloat is the WAVE_FORMAT_IEEE_FLOAT tag (3); go-audio/wav
	// only encodes via audio.IntBuffer, so float samples are carried as their
	// IEEE-754 bit pattern reinterpreted as an int32 (the standard workaround
	// for writing 32-bit float WAV data through this library).
	audioFormatIEEEFloat = 3
)

// Writer is a processor.RecordingSink backed by a background goroutine that
// drains interleaved stereo frames onto disk via a go-audio/wav.Encoder.
// Write is safe to call from the audio thread: its ring of scratch buffers
// is pre-allocated in New, so handing a block to the writer never
// allocates.
type Writer struct {
	log *logrus.Entry

	file    *os.File
	encoder *wav.Encoder

	ring    [][]float32 // pre-allocated, each sized maxFrameLen
	ringPos int
	frames  chan []float32
	done    chan error

	// scratch is reused by the writer goroutine only, never by Write.
	scratch *audio.IntBuffer
}

// New opens path and starts the background writer goroutine. sampleRate is
// the graph's achieved sample rate (spec.md §4.9 step 1). maxFrameLen must
// be at least the largest interleaved-frame length ever passed to Write
// (maxBlockSize*2 for stereo). queueDepth bounds how many blocks may be
// buffered before Write starts dropping blocks (a full queue indicates the
// writer has fallen behind, a runtime-transient failure per spec.md §7
// class 3); it also sizes the pre-allocated scratch ring, so the same
// buffer is never reused by two in-flight blocks at once.
func New(path string, sampleRate int, maxFrameLen int, queueDepth int, log *logrus.Entry) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("wavsink: creating %q: %w", path, err)
	}

	enc := wav.NewEncoder(f, sampleRate, bitDepth, numChannels, audioFormatIEEEFloat)

	ring := make([][]float32, queueDepth)
	for i := range ring {
		ring[i] = make([]float32, maxFrameLen)
	}

	w := &Writer{
		log:     log.WithField("path", path),
		file:    f,
		encoder: enc,
		ring:    ring,
		frames:  make(chan []float32, queueDepth),
		done:    make(chan error, 1),
		scratch: &audio.IntBuffer{
			Format: &audio.Format{NumChannels: numChannels, SampleRate: sampleRate},
			Data:   make([]int, maxFrameLen),
		},
	}
	go w.run()
	return w, nil
}

// Write enqueues an interleaved stereo frame for background encoding.
// Implements processor.RecordingSink. Copies frames into the next
// pre-allocated ring slot, so the caller (Measurement.ProcessBlock) may
// reuse its own scratch buffer immediately after this call returns. Drops
// the block and logs a warning if the queue is full rather than blocking
// the audio thread.
func (w *Writer) Write(frames []float32) {
	slot := w.ring[w.ringPos][:len(frames)]
	copy(slot, frames)
	w.ringPos = (w.ringPos + 1) % len(w.ring)

	select {
	case w.frames <- slot:
	default:
		w.log.Warn("wavsink: write queue full, dropping block")
	}
}

// run is the background writer goroutine: it drains frames until the
// channel is closed, then finalizes the WAV header and file.
func (w *Writer) run() {
	for frame := range w.frames {
		w.scratch.Data = w.scratch.Data[:len(frame)]
		for i, v := range frame {
			w.scratch.Data[i] = int(math.Float32bits(v))
		}
		if err := w.encoder.Write(w.scratch); err != nil {
			w.log.WithError(err).Error("wavsink: encoder write failed")
		}
	}

	err := w.encoder.Close()
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	w.done <- err
}

// Stop implements processor.RecordingSink: it closes the frame channel and
// blocks until the writer goroutine has flushed and closed the file,
// matching spec.md §5's "the control thread may block on... the WAV
// writer's flush drain at stop-recording."
func (w *Writer) Stop() {
	close(w.frames)
	if err := <-w.done; err != nil {
		w.log.WithError(err).Error("wavsink: finalizing file failed")
	}
}
