// Package interval implements the three interval-mapping strategies that
// convert an absolute-time Interval into the relative sub-interval a loop's
// backing stream actually holds, adapted from
// original_source/NowSoundLib/IntervalMapper.cpp. Mapping is how looping is
// implemented at all: a Track plays by repeatedly mapping "now" (in
// absolute time) down into its recorded stream's own time base.
package interval

import (
	"math"

	"github.com/nowsound/engine/pkg/contract"
	"github.com/nowsound/engine/pkg/unit"
)

// StreamInfo is the subset of a slice stream's state an interval Mapper
// needs. pkg/stream's BufferedSliceStream satisfies this.
type StreamInfo[T any] interface {
	InitialTime() unit.Time[T]
	DiscreteDuration() unit.Duration[T]
	ContinuousDuration() unit.ContinuousDuration[T]
	DiscreteInterval() unit.Interval[T]
	IsShut() bool
}

// Mapper converts an absolute-time input Interval into the sub-interval of
// a stream's own time base that covers its start. The returned interval may
// be shorter than input's duration — when it is, the caller should call
// MapNextSubInterval again with input.Suffix(returned.Length) to obtain the
// next piece, exactly as the original's doc comment describes.
type Mapper[T any] interface {
	MapNextSubInterval(input unit.Interval[T]) unit.Interval[T]
}

// Identity maps by plain intersection against the stream's recorded extent.
// Used for streams that are not looping at all (e.g. a track still
// recording, or FrequencyTracker's unbounded frequency-space series).
type Identity[T any] struct {
	Stream StreamInfo[T]
}

// NewIdentity constructs an Identity mapper over stream.
func NewIdentity[T any](stream StreamInfo[T]) Identity[T] {
	return Identity[T]{Stream: stream}
}

// MapNextSubInterval implements Mapper.
func (m Identity[T]) MapNextSubInterval(input unit.Interval[T]) unit.Interval[T] {
	return input.Intersect(m.Stream.DiscreteInterval())
}

// SimpleLooping maps by modulo-truncating at the loop boundary, using the
// stream's discrete (integer) duration. Only valid on a shut stream — loop
// length must be fixed. This is the cheaper mapper, used when the loop's
// duration in samples divides evenly enough that integer modulo doesn't
// accumulate drift (see ExactLooping for the case that needs to avoid
// exactly this).
type SimpleLooping[T any] struct {
	Stream StreamInfo[T]
}

// NewSimpleLooping constructs a SimpleLooping mapper. Panics if the stream
// is not shut, matching the original's Debug.Assert(stream.IsShut).
func NewSimpleLooping[T any](stream StreamInfo[T]) SimpleLooping[T] {
	contract.Require(stream.IsShut(), "interval: SimpleLooping requires a shut stream")
	return SimpleLooping[T]{Stream: stream}
}

// MapNextSubInterval implements Mapper.
func (m SimpleLooping[T]) MapNextSubInterval(input unit.Interval[T]) unit.Interval[T] {
	contract.Require(input.Start >= m.Stream.InitialTime(), "interval: input.Start must be >= stream.InitialTime")

	discreteDuration := m.Stream.DiscreteDuration()
	inputDelay := input.Start.Sub(m.Stream.InitialTime())
	inputDelay = inputDelay % discreteDuration

	mappedDuration := unit.MinDuration(input.Length, discreteDuration-inputDelay)
	return unit.NewInterval(m.Stream.InitialTime().Add(inputDelay), mappedDuration)
}

// ExactLooping maps phase-locked to the stream's floating-point
// ContinuousDuration, rather than its rounded integer DiscreteDuration —
// avoiding the iterated round-off error that would otherwise accumulate
// across many loop iterations whenever a loop's natural length in samples
// isn't an integer (e.g. 127 BPM at 48kHz). Grounded on the original's
// LoopingIntervalMapper, including its worked example for
// ContinuousDuration=2.4 (see interval_test.go).
type ExactLooping[T any] struct {
	Stream StreamInfo[T]
}

// NewExactLooping constructs an ExactLooping mapper. Panics if the stream
// is not shut.
func NewExactLooping[T any](stream StreamInfo[T]) ExactLooping[T] {
	contract.Require(stream.IsShut(), "interval: ExactLooping requires a shut stream")
	return ExactLooping[T]{Stream: stream}
}

// MapNextSubInterval implements Mapper.
func (m ExactLooping[T]) MapNextSubInterval(input unit.Interval[T]) unit.Interval[T] {
	loopRelativeInitialTime := input.Start.Sub(m.Stream.InitialTime())
	continuousDuration := float64(m.Stream.ContinuousDuration().Value())

	// How many whole loop lengths into the stream's continuous (real-valued)
	// duration the input falls — computed in continuous time specifically to
	// avoid ever taking modulo of an integer approximation of the loop length.
	loopMult := float64(loopRelativeInitialTime.Value()) / continuousDuration
	loopIndex := math.Floor(loopMult)

	adjusted := unit.Duration[T](int64(float64(loopRelativeInitialTime.Value()) - loopIndex*continuousDuration))
	length := unit.Duration[T](int64(math.Ceil((loopIndex+1)*continuousDuration - float64(loopRelativeInitialTime.Value()))))
	length = unit.MinDuration(input.Length, length)

	return unit.NewInterval(m.Stream.InitialTime().Add(adjusted), length)
}
