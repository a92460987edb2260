// Package slice implements non-owning views over bufalloc buffers, adapted
// from original_source/NowSoundLib/Slice.h. A Slice never owns the memory it
// points at: it is freely copyable, and becomes dangling the moment its
// backing stream is trimmed or freed (spec.md §5 "Shared-resource policy").
//
// "Slivers" in the original terminology are the per-unit-of-duration
// elements grouped together — a stereo sample pair, say. sliverCount is how
// many V values make up one unit of T-typed duration.
package slice

import (
	"github.com/nowsound/engine/pkg/bufalloc"
	"github.com/nowsound/engine/pkg/contract"
	"github.com/nowsound/engine/pkg/unit"
)

// Slice is a contiguous run of slivers within a bufalloc buffer.
type Slice[T any, V any] struct {
	buffer      bufalloc.Buf[V]
	offset      unit.Duration[T]
	duration    unit.Duration[T]
	sliverCount int
}

// Empty returns a zero-duration Slice.
func Empty[T any, V any]() Slice[T, V] {
	return Slice[T, V]{}
}

// New constructs a Slice over buffer starting at offset for duration
// slivers, each sliverCount values wide.
func New[T any, V any](buffer bufalloc.Buf[V], offset, duration unit.Duration[T], sliverCount int) Slice[T, V] {
	contract.Require(offset >= 0, "slice: offset must be non-negative")
	contract.Require(duration >= 0, "slice: duration must be non-negative")
	contract.Require((int64(offset)+int64(duration))*int64(sliverCount) <= int64(len(buffer.Data)),
		"slice: offset+duration exceeds buffer length")
	return Slice[T, V]{buffer: buffer, offset: offset, duration: duration, sliverCount: sliverCount}
}

// FromWholeBuffer constructs a Slice spanning an entire buffer.
func FromWholeBuffer[T any, V any](buffer bufalloc.Buf[V], sliverCount int) Slice[T, V] {
	return Slice[T, V]{buffer: buffer, offset: 0, duration: unit.Duration[T](len(buffer.Data) / sliverCount), sliverCount: sliverCount}
}

// Duration returns the number of slivers contained.
func (s Slice[T, V]) Duration() unit.Duration[T] { return s.duration }

// Offset returns the index of the first sliver.
func (s Slice[T, V]) Offset() unit.Duration[T] { return s.offset }

// SliverCount returns the number of V values per sliver.
func (s Slice[T, V]) SliverCount() int { return s.sliverCount }

// IsEmpty reports whether this slice has zero duration.
func (s Slice[T, V]) IsEmpty() bool { return s.duration == 0 }

// Buffer returns the underlying non-owning buffer view.
func (s Slice[T, V]) Buffer() bufalloc.Buf[V] { return s.buffer }

// Get returns the value at the given sliver offset and intra-sliver index.
func (s Slice[T, V]) Get(offset unit.Duration[T], sliverIndex int) V {
	contract.Require(!s.IsEmpty(), "slice: cannot Get from an empty slice")
	total := s.offset + offset
	idx := int64(total)*int64(s.sliverCount) + int64(sliverIndex)
	contract.Require(idx < int64(len(s.buffer.Data)), "slice: index out of range")
	return s.buffer.Data[idx]
}

// Subslice returns the portion of this slice starting at initialOffset for
// the given duration.
func (s Slice[T, V]) Subslice(initialOffset, duration unit.Duration[T]) Slice[T, V] {
	contract.Require(initialOffset >= 0, "slice: Subslice offset must be non-negative")
	contract.Require(initialOffset+duration <= s.duration, "slice: Subslice exceeds slice bounds")
	return Slice[T, V]{buffer: s.buffer, offset: s.offset + initialOffset, duration: duration, sliverCount: s.sliverCount}
}

// SubsliceStartingAt returns the remainder of this slice from initialOffset.
func (s Slice[T, V]) SubsliceStartingAt(initialOffset unit.Duration[T]) Slice[T, V] {
	return s.Subslice(initialOffset, s.duration-initialOffset)
}

// SubsliceOfDuration returns the prefix of this slice of the given duration.
func (s Slice[T, V]) SubsliceOfDuration(duration unit.Duration[T]) Slice[T, V] {
	return s.Subslice(0, duration)
}

// CopyTo copies this slice's contents into dst, which must be at least as
// long (in slivers) as this slice.
func (s Slice[T, V]) CopyTo(dst Slice[T, V]) {
	contract.Require(dst.duration >= s.duration, "slice: CopyTo destination too short")
	contract.Require(dst.sliverCount == s.sliverCount, "slice: CopyTo sliver count mismatch")
	srcStart := int64(s.offset) * int64(s.sliverCount)
	dstStart := int64(dst.offset) * int64(dst.sliverCount)
	n := int64(s.duration) * int64(s.sliverCount)
	copy(dst.buffer.Data[dstStart:dstStart+n], s.buffer.Data[srcStart:srcStart+n])
}

// Precedes reports whether next is immediately adjacent to this slice in
// the same backing buffer, i.e. whether the two can be coalesced.
func (s Slice[T, V]) Precedes(next Slice[T, V]) bool {
	return sameBacking(s.buffer.Data, next.buffer.Data) && s.offset+s.duration == next.offset
}

// UnionWith merges this slice with an adjacent next slice. Precedes(next)
// must hold.
func (s Slice[T, V]) UnionWith(next Slice[T, V]) Slice[T, V] {
	contract.Require(s.Precedes(next), "slice: UnionWith requires adjacent slices")
	return Slice[T, V]{buffer: s.buffer, offset: s.offset, duration: s.duration + next.duration, sliverCount: s.sliverCount}
}

func sameBacking[V any](a, b []V) bool {
	if len(a) == 0 || len(b) == 0 {
		return len(a) == 0 && len(b) == 0
	}
	return &a[0] == &b[0]
}

// TimedSlice is a Slice together with the absolute time at which it begins,
// used by BufferedSliceStream to track the sequence of appended slices.
type TimedSlice[T any, V any] struct {
	initialTime unit.Time[T]
	value       Slice[T, V]
}

// NewTimedSlice constructs a TimedSlice.
func NewTimedSlice[T any, V any](startTime unit.Time[T], value Slice[T, V]) TimedSlice[T, V] {
	return TimedSlice[T, V]{initialTime: startTime, value: value}
}

// InitialTime returns the absolute time at which this slice begins.
func (ts TimedSlice[T, V]) InitialTime() unit.Time[T] { return ts.initialTime }

// Value returns the underlying Slice.
func (ts TimedSlice[T, V]) Value() Slice[T, V] { return ts.value }

// SliceInterval returns the absolute interval this slice occupies.
func (ts TimedSlice[T, V]) SliceInterval() unit.Interval[T] {
	return unit.NewInterval(ts.initialTime, ts.value.Duration())
}
