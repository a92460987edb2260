// Package graph implements the engine orchestrator: lifecycle state
// machine, device wiring, and the control-thread operations spec.md §6
// exposes (track/plugin/input management). Adapted from
// original_source/NowSoundLib/NowSoundGraph.{h,cpp}'s
// PrepareToChangeState/ChangeState guarded transitions and its
// Initialize/CreateRecordingTrack/TimeInfo/InputInfo method set, with the
// JUCE-specific device and node-graph plumbing replaced by the pkg/backend
// boundary and direct Go composition of processor instances.
package graph

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/nowsound/engine/pkg/analysis"
	"github.com/nowsound/engine/pkg/backend"
	"github.com/nowsound/engine/pkg/bufalloc"
	"github.com/nowsound/engine/pkg/clock"
	"github.com/nowsound/engine/pkg/contract"
	"github.com/nowsound/engine/pkg/dsp"
	"github.com/nowsound/engine/pkg/pluginhost"
	"github.com/nowsound/engine/pkg/processor"
	"github.com/nowsound/engine/pkg/track"
	"github.com/nowsound/engine/pkg/unit"
)

// State is one of the lifecycle states spec.md §4.9 names. Shut and
// InError are both terminal; nothing transitions out of either.
type State int

const (
	Uninitialized State = iota
	Initialized
	Running
	Shut
	InError
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Initialized:
		return "Initialized"
	case Running:
		return "Running"
	case Shut:
		return "Shut"
	case InError:
		return "InError"
	default:
		return "Unknown"
	}
}

// AudioInputID identifies one device input channel. 1-based; 0 is
// undefined, per spec.md §6.
type AudioInputID int32

// TrackID identifies one track. 1-based; 0 is undefined.
type TrackID int32

// Config carries the engine's tunable magic constants, the Go analogue of
// original_source's MagicConstants.h: every numeric literal used more than
// once lives here instead of scattered through call sites (SPEC_FULL.md §4
// "RecentVolumeDuration / AudioQuantumHistogramCapacity magic constants").
type Config struct {
	SampleRate        float64
	BlockSize         int
	InitialBPM        float64
	BeatsPerMeasure   int
	InputChannelCount int

	// BufferLength/BufferCount size the shared sample-buffer pool (spec.md
	// §4.9 step 3: "one-second stereo float buffers x N").
	BufferLength int
	BufferCount  int

	PreRecordWindowSamples int64
	HistogramCapacity      int

	FFTOutputBinCount     int
	FFTCentralFrequency   float64
	FFTOctaveDivisions    int
	FFTCentralBinIndex    int
	FFTSize               int
}

type inputChannel struct {
	input       *processor.Input
	measurement *processor.Measurement
}

type trackEntry struct {
	track        *track.Track
	inputChannel int
	measurement  *processor.Measurement
}

// SignalInfo is the {min, max, avg} triple spec.md §6 returns from every
// *_signal_info operation.
type SignalInfo struct {
	Min, Max, Avg float32
}

// Info is the graph-level snapshot spec.md §6's graph_info() returns.
type Info struct {
	SampleRate        float64
	ChannelCount      int
	BitsPerSample     int
	LatencySamples    int
	SamplesPerQuantum int
}

// TimeInfo is spec.md §6's time_info() snapshot.
type TimeInfo struct {
	TimeSamples     int64
	ExactBeat       float32
	BPM             float64
	BeatsPerMeasure int
	BeatInMeasure   float32
}

// Graph is the engine orchestrator. All control-thread methods acquire mu
// only for the state check/transition itself (spec.md §5: "holds the state
// mutex only for state transitions") — the bulk of track/input bookkeeping
// below is guarded separately by tracksMu since it's accessed at a much
// higher rate than state changes.
type Graph struct {
	log *logrus.Entry
	cfg Config

	mu            sync.Mutex
	changingState bool
	state         State

	backend   backend.Backend
	clock     *clock.Clock
	allocator *bufalloc.Allocator[float32]
	plugins   *pluginhost.Registry
	binBounds []analysis.BinBounds

	inputs []*inputChannel

	tracksMu    sync.Mutex
	tracks      map[TrackID]*trackEntry
	nextTrackID TrackID

	// trackSnapshot is an atomic, immutable view of g.tracks' values,
	// rebuilt by the control thread on every create/delete under tracksMu.
	// audioCallback reads it without taking tracksMu, so the audio thread
	// never contends with the control thread's track-map mutations
	// (spec.md §5: the audio thread may only take short-lived
	// per-measurement mutexes and the WAV-writer rendezvous mutex).
	trackSnapshot atomic.Pointer[[]*trackEntry]

	outputMeasurement *processor.Measurement

	// Pre-allocated per-block scratch, sized once Initialize knows the
	// achieved block size.
	mixScratch, inputOutScratch, trackOutScratch [2][]float32
}

// New constructs a Graph in the Uninitialized state.
func New(cfg Config, be backend.Backend, plugins *pluginhost.Registry, log *logrus.Entry) *Graph {
	g := &Graph{
		log:     log,
		cfg:     cfg,
		backend: be,
		plugins: plugins,
		tracks:  make(map[TrackID]*trackEntry),
	}
	empty := []*trackEntry{}
	g.trackSnapshot.Store(&empty)
	return g
}

// refreshTrackSnapshot rebuilds the atomic track-list snapshot from
// g.tracks. Callers must already hold tracksMu.
func (g *Graph) refreshTrackSnapshot() {
	snap := make([]*trackEntry, 0, len(g.tracks))
	for _, te := range g.tracks {
		snap = append(snap, te)
	}
	g.trackSnapshot.Store(&snap)
}

// State returns the graph's current lifecycle state. Safe to poll from any
// thread without additional synchronization (spec.md's original notes this
// as a machine word read).
func (g *Graph) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Graph) prepareToChangeState(expected State) {
	g.mu.Lock()
	defer g.mu.Unlock()
	contract.Require(g.state == expected, "graph: expected state %v, got %v", expected, g.state)
	contract.Require(!g.changingState, "graph: re-entrant state change")
	g.changingState = true
}

func (g *Graph) changeState(newState State) {
	g.mu.Lock()
	defer g.mu.Unlock()
	contract.Check(g.changingState, "graph: changeState called without a matching prepareToChangeState")
	g.changingState = false
	g.state = newState
}

// Initialize performs spec.md §4.9's six-step initialization sequence and
// leaves the graph Running. On backend failure the graph transitions to
// InError (spec.md §7 class 2) and the error is returned.
func (g *Graph) Initialize() error {
	g.prepareToChangeState(Uninitialized)

	if err := g.backend.Open(g.cfg.SampleRate, g.cfg.BlockSize, g.audioCallback); err != nil {
		g.mu.Lock()
		g.changingState = false
		g.state = InError
		g.mu.Unlock()
		return fmt.Errorf("graph: bringing up audio backend: %w", err)
	}

	sampleRate := g.backend.SampleRate()
	blockSize := g.backend.BlockSize()

	g.clock = clock.New(sampleRate, 2, g.cfg.InitialBPM, g.cfg.BeatsPerMeasure)
	g.allocator = bufalloc.New[float32](g.cfg.BufferLength, g.cfg.BufferCount)
	g.binBounds = analysis.MakeBinBounds(
		g.cfg.FFTCentralFrequency,
		g.cfg.FFTOctaveDivisions,
		g.cfg.FFTOutputBinCount,
		g.cfg.FFTCentralBinIndex,
		sampleRate,
		g.cfg.FFTSize,
	)

	preRecordWindow := unit.Duration[unit.AudioSample](g.cfg.PreRecordWindowSamples)
	for ch := 0; ch < g.cfg.InputChannelCount; ch++ {
		in := processor.NewInput(ch, ch == 0, g.clock, g.allocator, preRecordWindow, blockSize, g.cfg.HistogramCapacity, sampleRate)
		meas := processor.NewMeasurement(g.cfg.HistogramCapacity, g.binBounds, g.cfg.FFTSize, blockSize, sampleRate)
		g.inputs = append(g.inputs, &inputChannel{input: in, measurement: meas})
	}

	g.outputMeasurement = processor.NewMeasurement(g.cfg.HistogramCapacity, nil, 0, blockSize, sampleRate)

	g.mixScratch = [2][]float32{make([]float32, blockSize), make([]float32, blockSize)}
	g.inputOutScratch = [2][]float32{make([]float32, blockSize), make([]float32, blockSize)}
	g.trackOutScratch = [2][]float32{make([]float32, blockSize), make([]float32, blockSize)}

	g.changeState(Initialized)

	g.prepareToChangeState(Initialized)
	if err := g.backend.Start(); err != nil {
		g.mu.Lock()
		g.changingState = false
		g.state = InError
		g.mu.Unlock()
		return fmt.Errorf("graph: starting audio backend: %w", err)
	}
	g.changeState(Running)

	g.log.WithFields(logrus.Fields{
		"sample_rate": sampleRate,
		"block_size":  blockSize,
		"inputs":      len(g.inputs),
	}).Info("graph: running")
	return nil
}

// audioCallback is the per-block entry point invoked by the backend. It
// advances every input, runs every track's state machine, sums the
// looping tracks into the final mix, and taps the mix through the output
// measurement processor. Never allocates, never blocks, never logs.
func (g *Graph) audioCallback(in [2][]float32, out [2][]float32) {
	zero2(g.mixScratch)

	for ch, ic := range g.inputs {
		raw := in[ch%2]
		ic.input.ProcessBlock(raw, g.inputOutScratch)
		ic.measurement.ProcessBlock(g.inputOutScratch, g.inputOutScratch)
		addInto(g.mixScratch, g.inputOutScratch)
	}

	for _, te := range *g.trackSnapshot.Load() {
		raw := in[te.inputChannel%2]
		te.track.ProcessBlock(raw, g.trackOutScratch)
		if te.track.State() == track.Looping {
			te.measurement.ProcessBlock(g.trackOutScratch, g.trackOutScratch)
			addInto(g.mixScratch, g.trackOutScratch)
		}
	}

	g.outputMeasurement.ProcessBlock(g.mixScratch, out)
}

// zero2 and addInto wrap the teacher's pkg/dsp buffer helpers (Clear/Add)
// for planar stereo pairs; both are allocation-free, matching this
// function's audio-thread callers.
func zero2(buf [2][]float32) {
	dsp.Clear(buf[0])
	dsp.Clear(buf[1])
}

func addInto(dst, src [2][]float32) {
	dsp.Add(dst[0], src[0])
	dsp.Add(dst[1], src[1])
}

// Info returns the graph-level snapshot. Requires state >= Initialized.
func (g *Graph) Info() Info {
	contract.Require(g.State() >= Initialized, "graph: Info requires state >= Initialized")
	return Info{
		SampleRate:        g.backend.SampleRate(),
		ChannelCount:      2,
		BitsPerSample:     32,
		LatencySamples:    0,
		SamplesPerQuantum: g.backend.BlockSize(),
	}
}

// TimeInfo returns the current clock snapshot. Requires state >= Running.
func (g *Graph) TimeInfo() TimeInfo {
	contract.Require(g.State() >= Running, "graph: TimeInfo requires state >= Running")
	m := g.clock.NowMoment()
	return TimeInfo{
		TimeSamples:     m.Time.Value(),
		ExactBeat:       m.Beats().Value(),
		BPM:             g.clock.Tempo().BPM(),
		BeatsPerMeasure: g.clock.Tempo().BeatsPerMeasure(),
		BeatInMeasure:   m.FractionalBeat().Value() + float32(int64(m.Beats().Value())%int64(g.clock.Tempo().BeatsPerMeasure())),
	}
}

func (g *Graph) inputByID(id AudioInputID) *inputChannel {
	contract.Require(id >= 1 && int(id) <= len(g.inputs), "graph: invalid AudioInputID %d", id)
	return g.inputs[id-1]
}

// RawInputSignalInfo returns {min,max,avg} of the unprocessed input signal.
func (g *Graph) RawInputSignalInfo(id AudioInputID) SignalInfo {
	h := g.inputByID(id).input.RawInputHistogram
	return SignalInfo{Min: h.Min(), Max: h.Max(), Avg: h.Average()}
}

// InputSignalInfo returns {min,max,avg} of the input after its spatial
// chain (pan/volume/effects).
func (g *Graph) InputSignalInfo(id AudioInputID) SignalInfo {
	h := g.inputByID(id).measurement.VolumeHistogram
	return SignalInfo{Min: h.Min(), Max: h.Max(), Avg: h.Average()}
}

// OutputSignalInfo returns {min,max,avg} of the final mix.
func (g *Graph) OutputSignalInfo() SignalInfo {
	h := g.outputMeasurement.VolumeHistogram
	return SignalInfo{Min: h.Min(), Max: h.Max(), Avg: h.Average()}
}

// GetInputFrequencies copies the most recent frequency histogram for the
// given input into out; len(out) must equal the configured output bin
// count.
func (g *Graph) GetInputFrequencies(id AudioInputID, out []float32) {
	ic := g.inputByID(id)
	contract.Require(ic.measurement.Tracker != nil, "graph: input %d has no frequency tracker", id)
	ic.measurement.Tracker.GetLatestHistogram(out)
}

// CreateRecordingTrack allocates a new Track bound to the given input and
// begins recording immediately. Requires state == Running.
func (g *Graph) CreateRecordingTrack(inputID AudioInputID) TrackID {
	contract.Require(g.State() == Running, "graph: CreateRecordingTrack requires state == Running")
	g.inputByID(inputID) // validates inputID is in range

	g.tracksMu.Lock()
	defer g.tracksMu.Unlock()

	g.nextTrackID++
	id := g.nextTrackID
	t := track.New(g.clock, g.allocator, g.backend.BlockSize(), 0.5, g.backend.SampleRate())
	g.tracks[id] = &trackEntry{
		track:        t,
		inputChannel: int(inputID - 1),
		measurement:  processor.NewMeasurement(g.cfg.HistogramCapacity, g.binBounds, g.cfg.FFTSize, g.backend.BlockSize(), g.backend.SampleRate()),
	}
	g.refreshTrackSnapshot()
	g.log.WithFields(logrus.Fields{"track_id": id, "input_id": inputID}).Info("graph: created recording track")
	return id
}

func (g *Graph) trackByID(id TrackID) *trackEntry {
	te, ok := g.tracks[id]
	contract.Require(ok, "graph: invalid TrackID %d", id)
	return te
}

// DeleteTrack removes a track's connections and releases its buffers back
// to the allocator (spec.md §4.9 "Track deletion").
func (g *Graph) DeleteTrack(id TrackID) {
	g.tracksMu.Lock()
	defer g.tracksMu.Unlock()
	te := g.trackByID(id)
	te.track.Close()
	delete(g.tracks, id)
	g.refreshTrackSnapshot()
	g.log.WithField("track_id", id).Info("graph: deleted track")
}

// FinishRecording requests that a track stop recording and transition to
// looping once its next block lands on a beat-quantized boundary.
func (g *Graph) FinishRecording(id TrackID) {
	g.tracksMu.Lock()
	te := g.trackByID(id)
	g.tracksMu.Unlock()
	contract.Require(te.track.State() == track.Recording, "graph: FinishRecording requires track state == Recording")
	te.track.FinishRecording()
}

// TrackInfo returns the per-track snapshot for the control thread.
func (g *Graph) TrackInfo(id TrackID) track.Info {
	g.tracksMu.Lock()
	te := g.trackByID(id)
	g.tracksMu.Unlock()
	return te.track.Info()
}

// SetMute, SetPan, SetVolume adjust a track's spatial processor. Numeric
// contracts (pan in [0,1], volume >= 0) are enforced by processor.Spatial
// field semantics; callers violating them produce clipped/silent output
// rather than a panic, matching spec.md §6's "clipping is mandatory at
// stage output" rather than a hard precondition on these setters.
func (g *Graph) SetMute(id TrackID, mute bool) {
	g.tracksMu.Lock()
	te := g.trackByID(id)
	g.tracksMu.Unlock()
	te.track.Spatial.Mute = mute
}

func (g *Graph) SetPan(id TrackID, pan float64) {
	g.tracksMu.Lock()
	te := g.trackByID(id)
	g.tracksMu.Unlock()
	te.track.Spatial.Pan = pan
}

func (g *Graph) SetVolume(id TrackID, volume float64) {
	g.tracksMu.Lock()
	te := g.trackByID(id)
	g.tracksMu.Unlock()
	te.track.Spatial.Volume = volume
}

// GetTrackFrequencies copies a track's most recent frequency histogram
// into out; len(out) must equal the configured output bin count.
func (g *Graph) GetTrackFrequencies(id TrackID, out []float32) {
	g.tracksMu.Lock()
	te := g.trackByID(id)
	g.tracksMu.Unlock()
	contract.Require(te.measurement.Tracker != nil, "graph: track %d has no frequency tracker", id)
	te.measurement.Tracker.GetLatestHistogram(out)
}

// Probe identifies which effect chain add_plugin_instance/
// set_plugin_instance_drywet/delete_plugin_instance target: an input's
// chain or a track's chain (spec.md §6: "probe = input or track").
type Probe struct {
	Input AudioInputID // set if Track == 0
	Track TrackID      // set if nonzero; takes precedence over Input
}

func (g *Graph) chainForProbe(p Probe) *processor.Chain {
	if p.Track != 0 {
		g.tracksMu.Lock()
		te := g.trackByID(p.Track)
		g.tracksMu.Unlock()
		return te.track.Spatial.Chain
	}
	return g.inputByID(p.Input).input.Spatial.Chain
}

// AddPluginInstance instantiates pluginID/programID and appends it to the
// probe's effect chain at the given dry/wet level.
func (g *Graph) AddPluginInstance(p Probe, pluginID pluginhost.ID, programID pluginhost.ProgramID, dryWet0to100 float64) (pluginhost.InstanceIndex, error) {
	contract.Require(dryWet0to100 >= 0 && dryWet0to100 <= 100, "graph: drywet must be in [0,100]")
	inst, err := g.plugins.Instantiate(pluginID, programID, g.backend.SampleRate(), g.backend.BlockSize())
	if err != nil {
		return 0, err
	}
	chain := g.chainForProbe(p)
	chain.Append(inst, dryWet0to100)
	return pluginhost.InstanceIndex(len(chain.Stages()) - 1), nil
}

// SetPluginInstanceDryWet updates the dry/wet level of an already-inserted
// plugin instance.
func (g *Graph) SetPluginInstanceDryWet(p Probe, index pluginhost.InstanceIndex, dryWet0to100 float64) {
	contract.Require(dryWet0to100 >= 0 && dryWet0to100 <= 100, "graph: drywet must be in [0,100]")
	stages := g.chainForProbe(p).Stages()
	contract.Require(int(index) >= 0 && int(index) < len(stages), "graph: invalid plugin instance index %d", index)
	stages[index].DryWet.Level = dryWet0to100
}

// DeletePluginInstance removes a plugin instance from the probe's chain.
// Per spec.md §6, PluginInstanceIndex renumbers after this: every later
// index shifts down by one.
func (g *Graph) DeletePluginInstance(p Probe, index pluginhost.InstanceIndex) {
	chain := g.chainForProbe(p)
	stages := chain.Stages()
	contract.Require(int(index) >= 0 && int(index) < len(stages), "graph: invalid plugin instance index %d", index)
	if inst, ok := stages[index].Plugin.(*pluginhost.Instance); ok {
		_ = inst.Close()
	}
	chain.Remove(int(index))
}

// MessageTick is the control thread's periodic poll (spec.md §4.9): it
// drains each track's just_stopped_recording flag.
func (g *Graph) MessageTick() {
	g.tracksMu.Lock()
	defer g.tracksMu.Unlock()
	for id, te := range g.tracks {
		if te.track.JustStoppedRecording() {
			g.log.WithField("track_id", id).Info("graph: track finished recording, now looping")
		}
	}
}

// Shutdown stops and closes the audio backend and releases every track's
// buffers. Requires state == Running.
func (g *Graph) Shutdown() error {
	contract.Require(g.State() == Running, "graph: Shutdown requires state == Running")

	if err := g.backend.Stop(); err != nil {
		g.log.WithError(err).Warn("graph: error stopping backend during shutdown")
	}
	if err := g.backend.Close(); err != nil {
		g.log.WithError(err).Warn("graph: error closing backend during shutdown")
	}

	g.tracksMu.Lock()
	for _, te := range g.tracks {
		te.track.Close()
	}
	g.tracks = make(map[TrackID]*trackEntry)
	g.refreshTrackSnapshot()
	g.tracksMu.Unlock()

	g.mu.Lock()
	g.state = Shut
	g.mu.Unlock()

	g.log.Info("graph: shut down")
	return nil
}
