// Package clock provides the engine's sample-accurate musical clock, adapted
// from original_source/NowSoundLib/Clock.h (the NowSound "Clock" and
// "Moment" types) and original_source/NowSoundLib/MagicConstants.h for the
// tunable defaults. Unlike the original's process-wide singleton (a
// deliberate global flagged in spec.md §9 "Globals"), Clock here is a field
// of graph.Graph: any code needing time receives a *Clock explicitly.
package clock

import "github.com/nowsound/engine/pkg/unit"

// Tempo holds BPM and the time signature and converts between samples and
// beats. Per spec.md §1 Non-goals, tempo never changes once any track
// exists; Graph enforces that, Tempo itself just does the arithmetic.
type Tempo struct {
	bpm             float64
	beatsPerMeasure int
	sampleRate      float64
	// beatDuration is the floating-point duration of one beat, in samples;
	// mirrors Clock::_beatDuration in the original, which is non-integer
	// whenever sampleRate isn't evenly divisible by (bpm/60).
	beatDuration unit.ContinuousDuration[unit.AudioSample]
}

// NewTempo constructs a Tempo for the given BPM, time signature, and sample
// rate, precomputing beatDuration (Clock::CalculateBeatDuration).
func NewTempo(bpm float64, beatsPerMeasure int, sampleRate float64) Tempo {
	t := Tempo{bpm: bpm, beatsPerMeasure: beatsPerMeasure, sampleRate: sampleRate}
	t.recalculate()
	return t
}

func (t *Tempo) recalculate() {
	t.beatDuration = unit.NewContinuousDuration[unit.AudioSample](float32(t.sampleRate * 60.0 / t.bpm))
}

// BPM returns the current beats per minute.
func (t Tempo) BPM() float64 { return t.bpm }

// BeatsPerMeasure returns the configured time signature numerator.
func (t Tempo) BeatsPerMeasure() int { return t.beatsPerMeasure }

// BeatDuration returns the floating-point duration of one beat in samples.
func (t Tempo) BeatDuration() unit.ContinuousDuration[unit.AudioSample] { return t.beatDuration }

// SamplesPerBeat is an alias for BeatDuration, named for readability at call
// sites that compute beat-quantized sample lengths (spec.md §4.8).
func (t Tempo) SamplesPerBeat() unit.ContinuousDuration[unit.AudioSample] { return t.beatDuration }

// BeatsToSamples converts a (possibly fractional) beat duration to a
// discrete sample duration, rounding up — used by the track state machine
// to compute its quantized target length (spec.md §4.8 FinishRecording).
func (t Tempo) BeatsToSamples(beats unit.Duration[unit.Beat]) unit.Duration[unit.AudioSample] {
	samples := float64(beats.Value()) * float64(t.beatDuration.Value())
	return unit.NewContinuousDuration[unit.AudioSample](float32(samples)).RoundedUp()
}

// SamplesToBeats converts a sample count to a continuous beat count.
func (t Tempo) SamplesToBeats(samples unit.Duration[unit.AudioSample]) unit.ContinuousDuration[unit.Beat] {
	return unit.NewContinuousDuration[unit.Beat](float32(float64(samples.Value()) / float64(t.beatDuration.Value())))
}

// Clock tracks the engine's sample-accurate "now", driven exclusively by the
// audio callback thread (spec.md §4.7 Input: "If this is AudioInput1, also
// advance the global clock"). It is otherwise read-only — the single
// documented coupling point between the audio thread and clock state.
type Clock struct {
	sampleRate      float64
	channelCount    int
	tempo           Tempo
	now             unit.Time[unit.AudioSample]
}

// New constructs a Clock at time zero for the given sample rate, channel
// count, and initial tempo. Graph.Initialize constructs exactly one of
// these (step 2 of spec.md §4.9).
func New(sampleRate float64, channelCount int, bpm float64, beatsPerMeasure int) *Clock {
	return &Clock{
		sampleRate:   sampleRate,
		channelCount: channelCount,
		tempo:        NewTempo(bpm, beatsPerMeasure, sampleRate),
		now:          0,
	}
}

// SampleRate returns the clock's sample rate in Hz.
func (c *Clock) SampleRate() float64 { return c.sampleRate }

// ChannelCount returns the configured channel count.
func (c *Clock) ChannelCount() int { return c.channelCount }

// Tempo returns the clock's current tempo.
func (c *Clock) Tempo() Tempo { return c.tempo }

// Now returns the current sample-accurate time.
func (c *Clock) Now() unit.Time[unit.AudioSample] { return c.now }

// Advance moves the clock forward by one audio block's worth of samples.
// Must be called exactly once per block, from the audio callback thread
// only, via the graph's first input processor (spec.md §4.7, §5).
func (c *Clock) Advance(blockSamples unit.Duration[unit.AudioSample]) {
	c.now = c.now.Add(blockSamples)
}

// Moment captures a point in time together with enough clock context to
// derive seconds and beats from it, mirroring original_source's Moment
// struct (Clock.h) which the distilled spec.md inlines into Track.info();
// kept as a first-class type here since multiple call sites need the same
// four derived values (see SPEC_FULL.md §4).
type Moment struct {
	Time  unit.Time[unit.AudioSample]
	tempo Tempo
	rate  float64
}

// MomentAt returns the Moment for the given sample time under this clock's
// current tempo.
func (c *Clock) MomentAt(t unit.Time[unit.AudioSample]) Moment {
	return Moment{Time: t, tempo: c.tempo, rate: c.sampleRate}
}

// NowMoment returns the Moment for the clock's current time.
func (c *Clock) NowMoment() Moment {
	return c.MomentAt(c.now)
}

// Seconds returns the real-world seconds elapsed since time zero.
func (m Moment) Seconds() float64 {
	return float64(m.Time.Value()) / m.rate
}

// Beats returns the fractional beat position, i.e. how many beats (possibly
// including a fraction of one) have elapsed since time zero.
func (m Moment) Beats() unit.ContinuousDuration[unit.Beat] {
	return unit.NewContinuousDuration[unit.Beat](float32(float64(m.Time.Value()) / float64(m.tempo.beatDuration.Value())))
}

// CompleteBeats returns the integral number of whole beats elapsed.
func (m Moment) CompleteBeats() unit.Duration[unit.Beat] {
	return unit.Duration[unit.Beat](int64(m.Beats().Value()))
}

// FractionalBeat returns the fractional part of the current beat.
func (m Moment) FractionalBeat() unit.ContinuousDuration[unit.Beat] {
	beats := m.Beats()
	whole := m.CompleteBeats()
	return unit.NewContinuousDuration[unit.Beat](beats.Value() - float32(whole.Value()))
}
