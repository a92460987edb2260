// Package stream implements BufferedSliceStream, the append-only-then-shut
// sequence of coalesced slices that backs every recorded track and analysis
// series in the engine. Adapted from
// original_source/NowSoundLib/SliceStream.h.
package stream

import (
	"sort"

	"github.com/nowsound/engine/pkg/bufalloc"
	"github.com/nowsound/engine/pkg/contract"
	"github.com/nowsound/engine/pkg/interval"
	"github.com/nowsound/engine/pkg/slice"
	"github.com/nowsound/engine/pkg/unit"
)

// BufferedSliceStream buffers a densely-sequenced run of slices, backed by
// buffers drawn from a bufalloc.Allocator. A stream starts Open (appendable,
// mapped by identity) and can be Shut exactly once, at which point it
// acquires a ContinuousDuration and switches to a looping interval mapper.
//
// Only the last entry in data may still share a backing buffer with
// remainingFree — everything before it is a sealed, fully-written slice
// (SPEC_FULL.md §5 "Shared-resource policy").
type BufferedSliceStream[T any, V any] struct {
	allocator *bufalloc.Allocator[V]
	sliverSize int

	initialTime        unit.Time[T]
	discreteDuration    unit.Duration[T]
	continuousDuration  unit.ContinuousDuration[T]
	isShut              bool

	maxBufferedDuration unit.Duration[T]
	useContinuousLoopingMapper bool

	data          []slice.TimedSlice[T, V]
	buffers       []*bufalloc.OwningBuf[V]
	remainingFree slice.Slice[T, V]

	mapper interval.Mapper[T]

	tempBuffer *bufalloc.OwningBuf[V]
}

// New constructs an open BufferedSliceStream starting at initialTime. If
// maxBufferedDuration is 0, no trimming limit is enforced. If
// useContinuousLoopingMapper is true, Shut installs an ExactLooping mapper
// (phase-locked to the floating-point duration) instead of SimpleLooping.
func New[T any, V any](
	initialTime unit.Time[T],
	allocator *bufalloc.Allocator[V],
	sliverSize int,
	maxBufferedDuration unit.Duration[T],
	useContinuousLoopingMapper bool,
) *BufferedSliceStream[T, V] {
	s := &BufferedSliceStream[T, V]{
		allocator:                  allocator,
		sliverSize:                 sliverSize,
		initialTime:                initialTime,
		maxBufferedDuration:        maxBufferedDuration,
		useContinuousLoopingMapper: useContinuousLoopingMapper,
		tempBuffer:                 &bufalloc.OwningBuf[V]{Data: make([]V, 1024)},
	}
	s.mapper = interval.NewIdentity[T](s)
	return s
}

// InitialTime implements interval.StreamInfo.
func (s *BufferedSliceStream[T, V]) InitialTime() unit.Time[T] { return s.initialTime }

// DiscreteDuration implements interval.StreamInfo.
func (s *BufferedSliceStream[T, V]) DiscreteDuration() unit.Duration[T] { return s.discreteDuration }

// ContinuousDuration implements interval.StreamInfo. Only meaningful once
// shut.
func (s *BufferedSliceStream[T, V]) ContinuousDuration() unit.ContinuousDuration[T] {
	return s.continuousDuration
}

// DiscreteInterval implements interval.StreamInfo.
func (s *BufferedSliceStream[T, V]) DiscreteInterval() unit.Interval[T] {
	return unit.NewInterval(s.initialTime, s.discreteDuration)
}

// IsShut implements interval.StreamInfo.
func (s *BufferedSliceStream[T, V]) IsShut() bool { return s.isShut }

// SliverSize returns the number of V values per sliver.
func (s *BufferedSliceStream[T, V]) SliverSize() int { return s.sliverSize }

// Shut closes the stream for further appends and installs the looping
// mapper. finalDuration must round up to exactly the discrete duration
// accumulated so far — a loop plays either floor(finalDuration) or
// ceil(finalDuration) samples per iteration, staying in phase with the
// fractional value over many iterations.
func (s *BufferedSliceStream[T, V]) Shut(finalDuration unit.ContinuousDuration[T]) {
	contract.Check(!s.isShut, "stream: already shut")
	contract.Check(int64(roundUp(finalDuration)) == int64(s.discreteDuration),
		"stream: finalDuration must round up to the discrete duration")

	s.isShut = true
	s.continuousDuration = finalDuration

	if s.useContinuousLoopingMapper {
		s.mapper = interval.NewExactLooping[T](s)
	} else {
		s.mapper = interval.NewSimpleLooping[T](s)
	}
}

func roundUp[T any](d unit.ContinuousDuration[T]) unit.Duration[T] {
	return d.RoundedUp()
}

func (s *BufferedSliceStream[T, V]) ensureFreeBuffer() {
	if !s.remainingFree.IsEmpty() {
		return
	}
	buf := s.allocator.Allocate()
	s.buffers = append(s.buffers, buf)
	s.remainingFree = slice.FromWholeBuffer[T](buf.View(), s.sliverSize)
}

// Append copies source's data into this stream's own buffers, coalescing
// with the previous slice when adjacent. Must not be shut.
func (s *BufferedSliceStream[T, V]) Append(source slice.Slice[T, V]) {
	contract.Check(!s.isShut, "stream: cannot Append to a shut stream")

	for !source.IsEmpty() {
		s.ensureFreeBuffer()

		toCopy := source
		if toCopy.Duration() > s.remainingFree.Duration() {
			toCopy = source.Subslice(0, s.remainingFree.Duration())
		}

		dest := s.remainingFree.SubsliceOfDuration(toCopy.Duration())
		toCopy.CopyTo(dest)

		dest = s.internalAppend(dest)

		source = source.SubsliceStartingAt(toCopy.Duration())

		s.trim()
	}
}

// AppendValues appends data, interpreting it as data/sliverSize slivers'
// worth of raw values, a convenience form for callers holding a flat []V
// rather than a slice.Slice (e.g. reading straight from an audio device
// callback buffer).
func (s *BufferedSliceStream[T, V]) AppendValues(data []V) {
	contract.Check(!s.isShut, "stream: cannot Append to a shut stream")
	contract.Check(len(data)%s.sliverSize == 0, "stream: data length must be a multiple of sliverSize")

	remaining := len(data) / s.sliverSize
	offset := 0
	for remaining > 0 {
		s.ensureFreeBuffer()

		n := remaining
		if unit.Duration[T](n) > s.remainingFree.Duration() {
			n = int(s.remainingFree.Duration())
		}

		dest := s.remainingFree.SubsliceOfDuration(unit.Duration[T](n))
		copyFlatInto(dest, data[offset*s.sliverSize:(offset+n)*s.sliverSize])

		dest = s.internalAppend(dest)

		offset += n
		remaining -= n

		s.trim()
	}
}

// AppendSliver composes a single sliver from strided source rows and
// appends it as one T-duration-1 slice — the shape non-audio Frame data
// arrives in, where each of height rows holds width live values packed
// into a stride-wide row (e.g. a video frame's scanlines with row
// padding). Requires sliverSize == width*height and stride >= width.
func (s *BufferedSliceStream[T, V]) AppendSliver(src []V, start, width, stride, height int) {
	contract.Check(!s.isShut, "stream: cannot Append to a shut stream")
	contract.Require(s.sliverSize == width*height, "stream: AppendSliver requires sliverSize == width*height")
	contract.Require(stride >= width, "stream: AppendSliver requires stride >= width")
	contract.Require(start >= 0, "stream: AppendSliver requires a non-negative start")
	contract.Require(start+(height-1)*stride+width <= len(src),
		"stream: AppendSliver source too short for start/width/stride/height")

	if len(s.tempBuffer.Data) < s.sliverSize {
		s.tempBuffer.Data = make([]V, s.sliverSize)
	}
	flat := s.tempBuffer.Data[:s.sliverSize]
	for row := 0; row < height; row++ {
		rowStart := start + row*stride
		copy(flat[row*width:(row+1)*width], src[rowStart:rowStart+width])
	}

	s.ensureFreeBuffer()
	dest := s.remainingFree.SubsliceOfDuration(1)
	copyFlatInto(dest, flat)

	s.internalAppend(dest)
	s.trim()
}

func copyFlatInto[T any, V any](dest slice.Slice[T, V], data []V) {
	for i := 0; i < len(data); i++ {
		dest.Buffer().Data[int64(dest.Offset())*int64(dest.SliverCount())+int64(i)] = data[i]
	}
}

// internalAppend records dest (already written into remainingFree) in data,
// coalescing with the previous entry if it's from the same buffer and
// immediately adjacent.
func (s *BufferedSliceStream[T, V]) internalAppend(dest slice.Slice[T, V]) slice.Slice[T, V] {
	if len(s.data) == 0 {
		s.data = append(s.data, slice.NewTimedSlice(s.initialTime, dest))
	} else {
		last := s.data[len(s.data)-1]
		if last.Value().Precedes(dest) {
			s.data[len(s.data)-1] = slice.NewTimedSlice(last.InitialTime(), last.Value().UnionWith(dest))
		} else {
			s.data = append(s.data, slice.NewTimedSlice(last.InitialTime().Add(last.Value().Duration()), dest))
		}
	}

	s.discreteDuration += dest.Duration()
	s.remainingFree = s.remainingFree.SubsliceStartingAt(dest.Duration())

	return dest
}

// trim discards the oldest buffered data once discreteDuration exceeds
// maxBufferedDuration, returning fully-consumed buffers to the allocator.
func (s *BufferedSliceStream[T, V]) trim() {
	if s.maxBufferedDuration == 0 || s.discreteDuration <= s.maxBufferedDuration {
		return
	}

	for s.discreteDuration > s.maxBufferedDuration {
		toTrim := s.discreteDuration - s.maxBufferedDuration
		first := s.data[0]

		if first.Value().Duration() <= toTrim {
			s.data = s.data[1:]
			s.freeBufferFor(first.Value())
			s.discreteDuration -= first.Value().Duration()
			s.initialTime = s.initialTime.Add(first.Value().Duration())
		} else {
			newFirst := slice.NewTimedSlice(
				first.InitialTime().Add(toTrim),
				first.Value().Subslice(toTrim, first.Value().Duration()-toTrim),
			)
			s.data[0] = newFirst
			s.discreteDuration -= toTrim
			s.initialTime = s.initialTime.Add(toTrim)
		}
	}
}

// freeBufferFor returns a trimmed-away slice's backing buffer to the
// allocator, but only if no remaining entry in data (or remainingFree)
// still references the same backing array.
func (s *BufferedSliceStream[T, V]) freeBufferFor(sl slice.Slice[T, V]) {
	for _, remaining := range s.data {
		if sameData(remaining.Value().Buffer().Data, sl.Buffer().Data) {
			return
		}
	}
	if sameData(s.remainingFree.Buffer().Data, sl.Buffer().Data) {
		return
	}
	for i, buf := range s.buffers {
		if sameData(buf.Data, sl.Buffer().Data) {
			s.allocator.Free(buf)
			s.buffers = append(s.buffers[:i], s.buffers[i+1:]...)
			return
		}
	}
}

func sameData[V any](a, b []V) bool {
	if len(a) == 0 || len(b) == 0 {
		return len(a) == 0 && len(b) == 0
	}
	return &a[0] == &b[0]
}

// GetNextSliceAt maps interval through this stream's mapper and returns the
// largest available slice covering the start of the mapped result. If
// interval maps to nothing (e.g. it lies entirely before InitialTime),
// returns an empty slice.
func (s *BufferedSliceStream[T, V]) GetNextSliceAt(iv unit.Interval[T]) slice.Slice[T, V] {
	mapped := s.mapper.MapNextSubInterval(iv)
	if mapped.IsEmpty() {
		return slice.Empty[T, V]()
	}

	contract.Check(mapped.Start >= s.initialTime, "stream: mapped interval starts before stream")
	contract.Check(int64(mapped.Start.Add(mapped.Length)) <= int64(s.initialTime.Add(s.discreteDuration)),
		"stream: mapped interval exceeds stream extent")

	found := s.findTimedSliceContaining(mapped.Start)
	intersection := found.SliceInterval().Intersect(mapped)
	contract.Check(!intersection.IsEmpty(), "stream: intersection with found slice must be non-empty")

	return found.Value().Subslice(intersection.Start.Sub(found.InitialTime()), intersection.Length)
}

// findTimedSliceContaining returns the entry in data whose interval covers
// t, via binary search on InitialTime (data is always sorted — each entry
// immediately follows the previous in time).
func (s *BufferedSliceStream[T, V]) findTimedSliceContaining(t unit.Time[T]) slice.TimedSlice[T, V] {
	i := sort.Search(len(s.data), func(i int) bool {
		return s.data[i].InitialTime() > t
	})
	contract.Check(i > 0, "stream: no slice precedes requested time")
	return s.data[i-1]
}

// CopyTo copies sourceInterval's worth of data into dest, which must be
// large enough (sourceInterval.Length * sliverSize values).
func (s *BufferedSliceStream[T, V]) CopyTo(sourceInterval unit.Interval[T], dest []V) {
	offset := 0
	for !sourceInterval.IsEmpty() {
		src := s.GetNextSliceAt(sourceInterval)
		n := int64(src.Duration()) * int64(src.SliverCount())
		for i := int64(0); i < n; i++ {
			dest[int64(offset)+i] = src.Buffer().Data[int64(src.Offset())*int64(src.SliverCount())+i]
		}
		offset += int(n)
		sourceInterval = sourceInterval.Suffix(src.Duration())
	}
}

// Close returns every buffer this stream owns back to the allocator,
// mirroring BufferedSliceStream's destructor.
func (s *BufferedSliceStream[T, V]) Close() {
	for _, buf := range s.buffers {
		s.allocator.Free(buf)
	}
	s.buffers = nil
	s.data = nil
	s.remainingFree = slice.Empty[T, V]()
}
