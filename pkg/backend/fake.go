package backend

// Fake is an in-process Backend for tests: Open records the requested
// parameters, and Drive manually invokes the callback once per call
// instead of running a real audio thread. Used by pkg/graph's tests, which
// cannot depend on real audio hardware being present.
type Fake struct {
	sampleRate float64
	blockSize  int
	cb         Callback
	running    bool
}

// NewFake constructs an unopened Fake backend.
func NewFake() *Fake { return &Fake{} }

func (f *Fake) Open(requestedSampleRate float64, requestedBlockSize int, cb Callback) error {
	f.sampleRate = requestedSampleRate
	f.blockSize = requestedBlockSize
	f.cb = cb
	return nil
}

func (f *Fake) Start() error { f.running = true; return nil }
func (f *Fake) Stop() error  { f.running = false; return nil }
func (f *Fake) Close() error { return nil }

func (f *Fake) SampleRate() float64 { return f.sampleRate }
func (f *Fake) BlockSize() int      { return f.blockSize }

// Drive invokes the registered callback once with the given input,
// returning its output. It panics if called before Open, since no callback
// is registered yet; Start is not required.
func (f *Fake) Drive(in [2][]float32) [2][]float32 {
	out := [2][]float32{make([]float32, f.blockSize), make([]float32, f.blockSize)}
	f.cb(in, out)
	return out
}
