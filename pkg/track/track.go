// Package track implements the per-track recording/looping state machine.
// Adapted from original_source/NowSoundLib/NowSoundTrack.{h,cpp}
// (NowSoundTrackAudioProcessor): a track starts Recording, transitions to
// FinishRecording on a control-thread request, then Looping once its final
// duration is sample-accurately truncated and the underlying stream is
// shut.
package track

import (
	"math"

	"github.com/nowsound/engine/pkg/bufalloc"
	"github.com/nowsound/engine/pkg/clock"
	"github.com/nowsound/engine/pkg/contract"
	"github.com/nowsound/engine/pkg/processor"
	"github.com/nowsound/engine/pkg/stream"
	"github.com/nowsound/engine/pkg/unit"
)

// State is one of the three states a track moves through, in order, exactly
// once: a track is never recreated to record again.
type State int

const (
	Recording State = iota
	FinishRecording
	Looping
)

// Info is the snapshot NowSoundTrack_Info() hands the control thread each
// poll, per spec.md §4.8.
type Info struct {
	IsLooping             bool
	BeatDuration          int64
	ExactDurationSamples  float32
	CurrentLocalTimeSamples int64
	CurrentLocalBeat      float32
	Pan                   float64
	Volume                float64
	BPM                   float64
	BeatsPerMeasure       int
}

// Track owns a mono recording stream and the spatial processor that plays
// it back once looping. The beat-quantization policy is 1→2→4, then +4
// thereafter (4, 8, 12, ...), matching the original's "1/2/4* quantization,
// like old times."
type Track struct {
	state State

	clock *clock.Clock
	audio *stream.BufferedSliceStream[unit.AudioSample, float32]

	beatDuration unit.Duration[unit.Beat]

	Spatial *processor.Spatial

	// playback, pre-allocated to maxBlockSize, is the Looping-state scratch
	// buffer ProcessBlock reads the track's recorded audio into before
	// handing it to Spatial — never resized after New, so the audio thread
	// never allocates here.
	playback []float32

	justStoppedRecording bool
}

// New constructs a Track beginning to record at the clock's current time.
// allocator backs the track's own mono audio stream; maxBlockSize sizes the
// Spatial processor's scratch buffers and the track's own playback scratch;
// sampleRate tunes Spatial's parameter smoothing.
func New(c *clock.Clock, allocator *bufalloc.Allocator[float32], maxBlockSize int, initialPan float64, sampleRate float64) *Track {
	t := &Track{
		state:        Recording,
		clock:        c,
		audio:        stream.New[unit.AudioSample, float32](c.Now(), allocator, 1, 0, true),
		beatDuration: unit.Duration[unit.Beat](1),
		Spatial:      processor.NewSpatial(maxBlockSize, sampleRate),
		playback:     make([]float32, maxBlockSize),
	}
	t.Spatial.Pan = initialPan
	return t
}

// State returns the track's current state.
func (t *Track) State() State { return t.state }

// BeatDuration returns the track's current quantized length, in beats.
func (t *Track) BeatDuration() unit.Duration[unit.Beat] { return t.beatDuration }

// exactDuration is (int)BeatDuration * samples-per-beat, the fractional
// sample length the track will shut its stream at once FinishRecording
// completes.
func (t *Track) exactDuration() unit.ContinuousDuration[unit.AudioSample] {
	samplesPerBeat := t.clock.Tempo().SamplesPerBeat()
	return unit.NewContinuousDuration[unit.AudioSample](float32(t.beatDuration.Value()) * samplesPerBeat.Value())
}

// FinishRecording requests the transition out of Recording. Called from the
// control thread: a single non-atomic write, coarsely synchronized with the
// audio thread's reads of state — acceptable because state transitions
// rarely and one block of staleness is harmless.
func (t *Track) FinishRecording() {
	t.state = FinishRecording
}

// JustStoppedRecording reports, and clears, the one-shot flag the control
// thread polls to know it can remove this track's input connection.
func (t *Track) JustStoppedRecording() bool {
	if t.justStoppedRecording {
		t.justStoppedRecording = false
		return true
	}
	return false
}

// ProcessBlock advances the track's state machine by one audio block. mono
// is the current input's channel 0 (only used while Recording or
// FinishRecording); out receives panned stereo once Looping.
func (t *Track) ProcessBlock(mono []float32, out [2][]float32) {
	duration := unit.Duration[unit.AudioSample](len(mono))

	switch t.state {
	case Recording:
		t.recordBlock(mono, duration)

	case FinishRecording:
		t.finishRecordingBlock(mono, duration)

	case Looping:
		sourceInterval := unit.NewInterval(t.clock.Now(), duration)
		scratch := t.playback[:len(mono)]
		t.audio.CopyTo(sourceInterval, scratch)
		t.Spatial.ProcessBlock(scratch, out)
	}
}

// recordBlock implements the Recording state: append unconditionally, then
// grow beatDuration by the quantization policy if this block pushed the
// stream's complete-beats count to or past the current beatDuration.
func (t *Track) recordBlock(mono []float32, duration unit.Duration[unit.AudioSample]) {
	newDiscreteDuration := t.audio.DiscreteDuration().Add(duration)
	completeBeats := unit.Duration[unit.Beat](int64(t.clock.Tempo().SamplesToBeats(newDiscreteDuration).Value()))

	if completeBeats >= t.beatDuration {
		switch t.beatDuration.Value() {
		case 1:
			t.beatDuration = unit.Duration[unit.Beat](2)
		case 2:
			t.beatDuration = unit.Duration[unit.Beat](4)
		default:
			t.beatDuration = t.beatDuration.Add(unit.Duration[unit.Beat](4))
		}
		contract.Check(completeBeats < t.beatDuration, "track: recorded more than one beat's worth in a single block")
	}

	t.audio.AppendValues(mono)
}

// finishRecordingBlock implements the FinishRecording state: truncate the
// append to land exactly on the quantized target length, then shut the
// stream and transition to Looping.
func (t *Track) finishRecordingBlock(mono []float32, duration unit.Duration[unit.AudioSample]) {
	exact := t.exactDuration()
	roundedUpDuration := unit.Duration[unit.AudioSample](int64(math.Ceil(float64(exact.Value()))))

	contract.Check(t.audio.DiscreteDuration() <= roundedUpDuration, "track: already recorded past the quantized target length")

	if t.audio.DiscreteDuration().Add(duration) >= roundedUpDuration {
		remainder := roundedUpDuration.Sub(t.audio.DiscreteDuration())
		t.audio.AppendValues(mono[:remainder])

		t.state = Looping
		t.justStoppedRecording = true
		t.audio.Shut(exact)
		return
	}

	t.audio.AppendValues(mono)
}

// Close returns the track's recording stream buffers to its allocator.
// Called from the control thread on track deletion (spec.md §4.9 "Track
// deletion... then clear the entry in the tracks map").
func (t *Track) Close() {
	t.audio.Close()
}

// Info returns the current per-track snapshot for the control thread.
func (t *Track) Info() Info {
	now := t.clock.Now()
	startTime := t.audio.InitialTime()
	localTime := now.Sub(startTime)
	localBeats := t.clock.Tempo().SamplesToBeats(localTime)

	var exactSamples float32
	if t.state == Looping {
		exactSamples = t.audio.ContinuousDuration().Value()
	}

	tempo := t.clock.Tempo()
	return Info{
		IsLooping:               t.state == Looping,
		BeatDuration:            t.beatDuration.Value(),
		ExactDurationSamples:    exactSamples,
		CurrentLocalTimeSamples: localTime.Value(),
		CurrentLocalBeat:        trackBeats(localBeats, t.beatDuration),
		Pan:                     t.Spatial.Pan,
		Volume:                  t.Spatial.Volume,
		BPM:                     tempo.BPM(),
		BeatsPerMeasure:         tempo.BeatsPerMeasure(),
	}
}

// trackBeats folds a continuous absolute beat count into the track's own
// beat_duration-long measure, keeping the fractional part. Grounded on the
// original's free function TrackBeats(Duration<AudioSample>, Duration<Beat>).
func trackBeats(totalBeats unit.ContinuousDuration[unit.Beat], beatDuration unit.Duration[unit.Beat]) float32 {
	nonFractional := int64(totalBeats.Value())
	fractional := totalBeats.Value() - float32(nonFractional)
	return float32(nonFractional%beatDuration.Value()) + fractional
}
