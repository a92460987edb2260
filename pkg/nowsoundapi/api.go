// Package nowsoundapi is the stable C-shaped external function surface
// spec.md §6 describes: a single process-wide graph instance reached
// through //export'd functions taking and filling C structs, in the shape
// of original_source/NowSoundLib/NowSoundLibTypes.h's out-parameter
// structs (NowSoundGraphInfo, NowSoundTimeInfo, NowSoundTrackInfo,
// NowSoundSignalInfo). Grounded in cgo export mechanics on the teacher's
// pkg/plugin/wrapper.go and wrapper_audio.go, which export a comparable
// flat C function surface over an in-process Go object graph.
//
// Unlike pkg/graph.Graph, which spec.md §9 "Globals" requires to carry its
// clock/allocator as explicit fields rather than process-wide singletons,
// this package's single package-level instance is the one place a global
// is correct: a C ABI has no notion of a Go receiver, so the original's
// own NowSoundGraph::Instance() pattern is preserved here, confined to
// this shim boundary only. Nothing under pkg/graph or below reaches for a
// package-level variable.
package nowsoundapi

// #include <stdint.h>
//
// typedef struct NowSoundGraphInfo {
//     double sample_rate;
//     int32_t channel_count;
//     int32_t bits_per_sample;
//     int32_t latency_samples;
//     int32_t samples_per_quantum;
// } NowSoundGraphInfo;
//
// typedef struct NowSoundTimeInfo {
//     int64_t time_samples;
//     float exact_beat;
//     double bpm;
//     int32_t beats_per_measure;
//     float beat_in_measure;
// } NowSoundTimeInfo;
//
// typedef struct NowSoundTrackInfo {
//     int32_t is_looping;
//     int64_t beat_duration;
//     float exact_duration_samples;
//     int64_t current_local_time_samples;
//     float current_local_beat;
//     double pan;
//     double volume;
//     double bpm;
//     int32_t beats_per_measure;
// } NowSoundTrackInfo;
//
// typedef struct NowSoundSignalInfo {
//     float min;
//     float max;
//     float avg;
// } NowSoundSignalInfo;
import "C"

import (
	"sync"
	"unsafe"

	"github.com/sirupsen/logrus"

	"github.com/nowsound/engine/pkg/backend"
	"github.com/nowsound/engine/pkg/graph"
	"github.com/nowsound/engine/pkg/pluginhost"
)

var (
	mu  sync.Mutex
	g   *graph.Graph
	log *logrus.Entry
)

func init() {
	l := logrus.New()
	log = logrus.NewEntry(l)
}

// NowSoundGraph_Initialize brings the graph from Uninitialized to Running
// using the real PortAudio backend, per spec.md §6's initialize() and
// §4.9's six-step sequence. Returns 0 on success, nonzero if the backend
// could not be brought up (spec.md §7 class 2).
//
//export NowSoundGraph_Initialize
func NowSoundGraph_Initialize(sampleRate C.double, blockSize C.int32_t, initialBPM C.double, beatsPerMeasure C.int32_t) C.int32_t {
	mu.Lock()
	defer mu.Unlock()

	cfg := graph.Config{
		SampleRate:             float64(sampleRate),
		BlockSize:              int(blockSize),
		InitialBPM:             float64(initialBPM),
		BeatsPerMeasure:        int(beatsPerMeasure),
		InputChannelCount:      2,
		BufferLength:           int(sampleRate), // one second, per MagicConstants
		BufferCount:            64,
		PreRecordWindowSamples: int64(sampleRate) / 2,
		HistogramCapacity:      100,
		FFTOutputBinCount:      64,
		FFTCentralFrequency:    440,
		FFTOctaveDivisions:     12,
		FFTCentralBinIndex:     32,
		FFTSize:                2048,
	}

	g = graph.New(cfg, backend.NewPortAudioBackend(log), pluginhost.NewWithBuiltins(), log)
	if err := g.Initialize(); err != nil {
		log.WithError(err).Error("nowsoundapi: Initialize failed")
		return -1
	}
	return 0
}

// NowSoundGraph_Info fills info with the graph-level snapshot. Requires a
// prior successful Initialize call.
//
//export NowSoundGraph_Info
func NowSoundGraph_Info(info *C.NowSoundGraphInfo) {
	mu.Lock()
	defer mu.Unlock()
	i := g.Info()
	info.sample_rate = C.double(i.SampleRate)
	info.channel_count = C.int32_t(i.ChannelCount)
	info.bits_per_sample = C.int32_t(i.BitsPerSample)
	info.latency_samples = C.int32_t(i.LatencySamples)
	info.samples_per_quantum = C.int32_t(i.SamplesPerQuantum)
}

// NowSoundGraph_TimeInfo fills info with the current clock snapshot.
//
//export NowSoundGraph_TimeInfo
func NowSoundGraph_TimeInfo(info *C.NowSoundTimeInfo) {
	mu.Lock()
	defer mu.Unlock()
	t := g.TimeInfo()
	info.time_samples = C.int64_t(t.TimeSamples)
	info.exact_beat = C.float(t.ExactBeat)
	info.bpm = C.double(t.BPM)
	info.beats_per_measure = C.int32_t(t.BeatsPerMeasure)
	info.beat_in_measure = C.float(t.BeatInMeasure)
}

// NowSoundGraph_CreateRecordingTrack creates a track recording from
// inputID and returns its TrackId.
//
//export NowSoundGraph_CreateRecordingTrack
func NowSoundGraph_CreateRecordingTrack(inputID C.int32_t) C.int32_t {
	mu.Lock()
	defer mu.Unlock()
	return C.int32_t(g.CreateRecordingTrack(graph.AudioInputID(inputID)))
}

// NowSoundGraph_DeleteTrack deletes trackID and releases its buffers.
//
//export NowSoundGraph_DeleteTrack
func NowSoundGraph_DeleteTrack(trackID C.int32_t) {
	mu.Lock()
	defer mu.Unlock()
	g.DeleteTrack(graph.TrackID(trackID))
}

// NowSoundTrack_FinishRecording requests trackID stop recording.
//
//export NowSoundTrack_FinishRecording
func NowSoundTrack_FinishRecording(trackID C.int32_t) {
	mu.Lock()
	defer mu.Unlock()
	g.FinishRecording(graph.TrackID(trackID))
}

// NowSoundTrack_Info fills info with trackID's current snapshot.
//
//export NowSoundTrack_Info
func NowSoundTrack_Info(trackID C.int32_t, info *C.NowSoundTrackInfo) {
	mu.Lock()
	defer mu.Unlock()
	t := g.TrackInfo(graph.TrackID(trackID))
	info.is_looping = boolToC(t.IsLooping)
	info.beat_duration = C.int64_t(t.BeatDuration)
	info.exact_duration_samples = C.float(t.ExactDurationSamples)
	info.current_local_time_samples = C.int64_t(t.CurrentLocalTimeSamples)
	info.current_local_beat = C.float(t.CurrentLocalBeat)
	info.pan = C.double(t.Pan)
	info.volume = C.double(t.Volume)
	info.bpm = C.double(t.BPM)
	info.beats_per_measure = C.int32_t(t.BeatsPerMeasure)
}

// NowSoundTrack_SetMute mutes or unmutes trackID.
//
//export NowSoundTrack_SetMute
func NowSoundTrack_SetMute(trackID C.int32_t, mute C.int32_t) {
	mu.Lock()
	defer mu.Unlock()
	g.SetMute(graph.TrackID(trackID), mute != 0)
}

// NowSoundTrack_SetPan sets trackID's stereo pan, 0 (left) .. 1 (right).
//
//export NowSoundTrack_SetPan
func NowSoundTrack_SetPan(trackID C.int32_t, pan C.double) {
	mu.Lock()
	defer mu.Unlock()
	g.SetPan(graph.TrackID(trackID), float64(pan))
}

// NowSoundTrack_SetVolume sets trackID's linear volume multiplier.
//
//export NowSoundTrack_SetVolume
func NowSoundTrack_SetVolume(trackID C.int32_t, volume C.double) {
	mu.Lock()
	defer mu.Unlock()
	g.SetVolume(graph.TrackID(trackID), float64(volume))
}

// probeFromRaw decodes the (isTrack, id) probe encoding add_plugin_instance
// and friends use in place of a tagged union, since cgo export signatures
// can't carry a Go sum type across the C boundary.
func probeFromRaw(isTrack C.int32_t, id C.int32_t) graph.Probe {
	if isTrack != 0 {
		return graph.Probe{Track: graph.TrackID(id)}
	}
	return graph.Probe{Input: graph.AudioInputID(id)}
}

// NowSoundGraph_AddPluginInstance instantiates pluginID/programID onto the
// probe's effect chain (isTrack nonzero selects a track, else an input) and
// returns its PluginInstanceIndex, or -1 on failure.
//
//export NowSoundGraph_AddPluginInstance
func NowSoundGraph_AddPluginInstance(isTrack, probeID, pluginID, programID C.int32_t, dryWet0to100 C.double) C.int32_t {
	mu.Lock()
	defer mu.Unlock()
	idx, err := g.AddPluginInstance(probeFromRaw(isTrack, probeID), pluginhost.ID(pluginID), pluginhost.ProgramID(programID), float64(dryWet0to100))
	if err != nil {
		log.WithError(err).Error("nowsoundapi: AddPluginInstance failed")
		return -1
	}
	return C.int32_t(idx)
}

// NowSoundGraph_SetPluginInstanceDryWet updates an already-inserted plugin
// instance's dry/wet level.
//
//export NowSoundGraph_SetPluginInstanceDryWet
func NowSoundGraph_SetPluginInstanceDryWet(isTrack, probeID, index C.int32_t, dryWet0to100 C.double) {
	mu.Lock()
	defer mu.Unlock()
	g.SetPluginInstanceDryWet(probeFromRaw(isTrack, probeID), pluginhost.InstanceIndex(index), float64(dryWet0to100))
}

// NowSoundGraph_DeletePluginInstance removes a plugin instance from the
// probe's chain. Per spec.md §6, later indices shift down by one.
//
//export NowSoundGraph_DeletePluginInstance
func NowSoundGraph_DeletePluginInstance(isTrack, probeID, index C.int32_t) {
	mu.Lock()
	defer mu.Unlock()
	g.DeletePluginInstance(probeFromRaw(isTrack, probeID), pluginhost.InstanceIndex(index))
}

func fillSignalInfo(out *C.NowSoundSignalInfo, s graph.SignalInfo) {
	out.min = C.float(s.Min)
	out.max = C.float(s.Max)
	out.avg = C.float(s.Avg)
}

// NowSoundGraph_RawInputSignalInfo fills info with {min,max,avg} of the
// unprocessed input signal for inputID.
//
//export NowSoundGraph_RawInputSignalInfo
func NowSoundGraph_RawInputSignalInfo(inputID C.int32_t, info *C.NowSoundSignalInfo) {
	mu.Lock()
	defer mu.Unlock()
	fillSignalInfo(info, g.RawInputSignalInfo(graph.AudioInputID(inputID)))
}

// NowSoundGraph_InputSignalInfo fills info with {min,max,avg} of inputID
// after its spatial chain.
//
//export NowSoundGraph_InputSignalInfo
func NowSoundGraph_InputSignalInfo(inputID C.int32_t, info *C.NowSoundSignalInfo) {
	mu.Lock()
	defer mu.Unlock()
	fillSignalInfo(info, g.InputSignalInfo(graph.AudioInputID(inputID)))
}

// NowSoundGraph_OutputSignalInfo fills info with {min,max,avg} of the final
// mix.
//
//export NowSoundGraph_OutputSignalInfo
func NowSoundGraph_OutputSignalInfo(info *C.NowSoundSignalInfo) {
	mu.Lock()
	defer mu.Unlock()
	fillSignalInfo(info, g.OutputSignalInfo())
}

// NowSoundGraph_GetInputFrequencies copies inputID's most recent frequency
// histogram into buf; cap must equal the configured output-bin count.
//
//export NowSoundGraph_GetInputFrequencies
func NowSoundGraph_GetInputFrequencies(inputID C.int32_t, buf *C.float, cap C.int32_t) {
	mu.Lock()
	defer mu.Unlock()
	out := make([]float32, int(cap))
	g.GetInputFrequencies(graph.AudioInputID(inputID), out)
	copyToCFloats(buf, out)
}

// NowSoundGraph_GetTrackFrequencies copies trackID's most recent frequency
// histogram into buf; cap must equal the configured output-bin count.
//
//export NowSoundGraph_GetTrackFrequencies
func NowSoundGraph_GetTrackFrequencies(trackID C.int32_t, buf *C.float, cap C.int32_t) {
	mu.Lock()
	defer mu.Unlock()
	out := make([]float32, int(cap))
	g.GetTrackFrequencies(graph.TrackID(trackID), out)
	copyToCFloats(buf, out)
}

// copyToCFloats copies src into the C array buf points at, which the
// caller must have sized to at least len(src) elements.
func copyToCFloats(buf *C.float, src []float32) {
	dst := unsafe.Slice((*float32)(unsafe.Pointer(buf)), len(src))
	copy(dst, src)
}

// NowSoundGraph_Shutdown frees all graph resources. The caller must not
// invoke any other NowSoundGraph_/NowSoundTrack_ function afterward.
//
//export NowSoundGraph_Shutdown
func NowSoundGraph_Shutdown() {
	mu.Lock()
	defer mu.Unlock()
	if err := g.Shutdown(); err != nil {
		log.WithError(err).Error("nowsoundapi: Shutdown failed")
	}
	g = nil
}

func boolToC(b bool) C.int32_t {
	if b {
		return 1
	}
	return 0
}
