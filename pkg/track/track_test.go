package track

import (
	"testing"

	"github.com/nowsound/engine/pkg/bufalloc"
	"github.com/nowsound/engine/pkg/clock"
)

func newTestTrack(sampleRate, bpm float64) (*Track, *clock.Clock) {
	c := clock.New(sampleRate, 2, bpm, 4)
	alloc := bufalloc.New[float32](256, 4)
	return New(c, alloc, 64, 0.5, sampleRate), c
}

func TestTrackStartsRecordingWithBeatDurationOne(t *testing.T) {
	tr, _ := newTestTrack(48000, 120)
	if tr.State() != Recording {
		t.Fatalf("expected initial state Recording, got %v", tr.State())
	}
	if tr.BeatDuration().Value() != 1 {
		t.Fatalf("expected initial beat_duration 1, got %d", tr.BeatDuration().Value())
	}
}

func TestTrackQuantizationPolicyGrowsOneTwoFourThenByFour(t *testing.T) {
	// 120 BPM at 48000Hz => 24000 samples per beat.
	tr, c := newTestTrack(48000, 120)
	samplesPerBeat := int(c.Tempo().SamplesPerBeat().Value())

	block := make([]float32, samplesPerBeat)
	out := [2][]float32{make([]float32, samplesPerBeat), make([]float32, samplesPerBeat)}

	tr.ProcessBlock(block, out) // crosses 1 beat -> beatDuration grows to 2
	if tr.BeatDuration().Value() != 2 {
		t.Fatalf("expected beat_duration 2 after first beat crossed, got %d", tr.BeatDuration().Value())
	}

	tr.ProcessBlock(block, out) // crosses 2 beats -> grows to 4
	if tr.BeatDuration().Value() != 4 {
		t.Fatalf("expected beat_duration 4 after second beat crossed, got %d", tr.BeatDuration().Value())
	}

	tr.ProcessBlock(block, out)
	tr.ProcessBlock(block, out) // crosses 4 beats -> grows by 4 to 8
	if tr.BeatDuration().Value() != 8 {
		t.Fatalf("expected beat_duration 8 after reaching 4 beats, got %d", tr.BeatDuration().Value())
	}
}

func TestFinishRecordingTruncatesAndTransitionsToLooping(t *testing.T) {
	tr, c := newTestTrack(48000, 120)
	samplesPerBeat := int(c.Tempo().SamplesPerBeat().Value())

	block := make([]float32, samplesPerBeat)
	out := [2][]float32{make([]float32, samplesPerBeat), make([]float32, samplesPerBeat)}
	tr.ProcessBlock(block, out) // beat_duration now 2

	tr.FinishRecording()
	if tr.State() != FinishRecording {
		t.Fatalf("expected state FinishRecording after request, got %v", tr.State())
	}

	// Target length is 2 beats = 2*samplesPerBeat; we've recorded 1 beat so
	// far, so the next block (1 more beat) should land exactly on target.
	tr.ProcessBlock(block, out)
	if tr.State() != Looping {
		t.Fatalf("expected state Looping after reaching target length, got %v", tr.State())
	}
	if !tr.JustStoppedRecording() {
		t.Fatalf("expected just_stopped_recording to be set")
	}
	if tr.JustStoppedRecording() {
		t.Fatalf("expected just_stopped_recording to clear after being read once")
	}
}

func TestFinishRecordingTruncatesPartialOverflowBlock(t *testing.T) {
	tr, c := newTestTrack(48000, 120)
	samplesPerBeat := int(c.Tempo().SamplesPerBeat().Value())

	block := make([]float32, samplesPerBeat)
	out := [2][]float32{make([]float32, samplesPerBeat), make([]float32, samplesPerBeat)}
	tr.ProcessBlock(block, out) // beat_duration -> 2, recorded 1 beat

	tr.FinishRecording()

	// Feed a block twice the target remainder; only half of it should be
	// consumed before the track shuts its stream and switches state.
	overflow := make([]float32, samplesPerBeat*2)
	tr.ProcessBlock(overflow, out)

	if tr.State() != Looping {
		t.Fatalf("expected transition to Looping on overflowing block, got %v", tr.State())
	}
}

func TestInfoReflectsLoopingState(t *testing.T) {
	tr, c := newTestTrack(48000, 120)
	samplesPerBeat := int(c.Tempo().SamplesPerBeat().Value())
	block := make([]float32, samplesPerBeat)
	out := [2][]float32{make([]float32, samplesPerBeat), make([]float32, samplesPerBeat)}

	tr.ProcessBlock(block, out)
	tr.FinishRecording()
	tr.ProcessBlock(block, out)

	info := tr.Info()
	if !info.IsLooping {
		t.Fatalf("expected IsLooping true once Looping, got info %+v", info)
	}
	if info.BeatDuration != 2 {
		t.Fatalf("expected reported beat_duration 2, got %d", info.BeatDuration)
	}
	if info.BPM != 120 {
		t.Fatalf("expected reported BPM 120, got %v", info.BPM)
	}
}
