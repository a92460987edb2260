// Package backend defines the audio I/O boundary graph.Graph depends on.
// Device enumeration and audio-device initialization are explicit external
// collaborators (spec.md §1): the core only needs something that can open a
// stereo duplex stream at a requested rate/block size and deliver blocks to
// a callback. Grounded on
// _examples/other_examples/7d06a8e3_rayboyd-audio-engine__internal-audio-engine.go.go's
// gordonklaus/portaudio usage (OpenStream + a LockOSThread'd callback that
// never allocates).
package backend

// Callback receives one block of planar stereo input and must fill the
// planar stereo output in place, matching processor.Spatial/Track's own
// [2][]float32 shape so the graph can wire a Backend callback directly into
// its top-level processor chain with no reshaping.
type Callback func(in [2][]float32, out [2][]float32)

// Backend is the audio I/O boundary. Open negotiates a sample rate and
// block size with the device (the achieved values may differ from the
// request, per spec.md §4.9 step 1: "record the achieved sample rate and
// block size"); callers must read them back via SampleRate/BlockSize after
// Open succeeds.
type Backend interface {
	// Open configures the backend for stereo duplex I/O at the requested
	// sample rate and block size, registering cb as the audio callback.
	// Must be called before Start.
	Open(requestedSampleRate float64, requestedBlockSize int, cb Callback) error

	// Start begins invoking cb once per block.
	Start() error

	// Stop halts the audio callback. Safe to call Start again afterward.
	Stop() error

	// Close releases the backend's device handles. No further Open calls
	// are valid afterward.
	Close() error

	// SampleRate returns the sample rate achieved by the most recent Open.
	SampleRate() float64

	// BlockSize returns the block size achieved by the most recent Open.
	BlockSize() int
}
