package stream

import (
	"testing"

	"github.com/nowsound/engine/pkg/bufalloc"
	"github.com/nowsound/engine/pkg/slice"
	"github.com/nowsound/engine/pkg/unit"
)

func TestAppendAndGetNextSliceAt(t *testing.T) {
	alloc := bufalloc.New[float32](16, 2)
	s := New[unit.AudioSample](0, alloc, 1, 0, false)

	src := alloc.Allocate()
	for i := range src.Data {
		src.Data[i] = float32(i)
	}
	s.Append(slice.FromWholeBuffer[unit.AudioSample](src.View(), 1))

	if s.DiscreteDuration() != 16 {
		t.Fatalf("expected discrete duration 16, got %d", s.DiscreteDuration())
	}

	got := s.GetNextSliceAt(unit.NewInterval(unit.Time[unit.AudioSample](2), unit.Duration[unit.AudioSample](5)))
	if got.Duration() != 5 {
		t.Fatalf("expected slice duration 5, got %d", got.Duration())
	}
	if got.Get(0, 0) != 2 {
		t.Errorf("expected first value 2, got %v", got.Get(0, 0))
	}
}

func TestAppendValuesAcrossMultipleBuffers(t *testing.T) {
	alloc := bufalloc.New[float32](4, 1) // tiny buffers force multiple allocations
	s := New[unit.AudioSample](0, alloc, 2, 0, false)

	// 6 stereo frames = 12 values, spans 3 buffers of 4 values (2 frames) each
	data := make([]float32, 12)
	for i := range data {
		data[i] = float32(i)
	}
	s.AppendValues(data)

	if s.DiscreteDuration() != 6 {
		t.Fatalf("expected discrete duration 6, got %d", s.DiscreteDuration())
	}

	out := make([]float32, 12)
	s.CopyTo(unit.NewInterval(unit.Time[unit.AudioSample](0), unit.Duration[unit.AudioSample](6)), out)
	for i := range data {
		if out[i] != data[i] {
			t.Fatalf("CopyTo mismatch at %d: got %v, want %v", i, out[i], data[i])
		}
	}
}

func TestShutAndLoop(t *testing.T) {
	alloc := bufalloc.New[float32](8, 1)
	s := New[unit.AudioSample](0, alloc, 1, 0, false)

	data := make([]float32, 8)
	for i := range data {
		data[i] = float32(i)
	}
	s.AppendValues(data)
	s.Shut(unit.NewContinuousDuration[unit.AudioSample](8))

	// Requesting samples starting at 10 (2 loops + 2) should wrap to offset 2.
	got := s.GetNextSliceAt(unit.NewInterval(unit.Time[unit.AudioSample](10), unit.Duration[unit.AudioSample](3)))
	if got.Get(0, 0) != 2 {
		t.Errorf("expected wrapped value 2, got %v", got.Get(0, 0))
	}
}

func TestTrimDropsOldestData(t *testing.T) {
	alloc := bufalloc.New[float32](4, 2)
	s := New[unit.AudioSample](0, alloc, 1, unit.Duration[unit.AudioSample](4), false)

	data := make([]float32, 8)
	for i := range data {
		data[i] = float32(i)
	}
	s.AppendValues(data)

	if s.DiscreteDuration() != 4 {
		t.Fatalf("expected trimmed duration 4, got %d", s.DiscreteDuration())
	}
	if s.InitialTime() != 4 {
		t.Fatalf("expected initial time advanced to 4, got %d", s.InitialTime())
	}
}

func TestAppendSliverGathersStridedRows(t *testing.T) {
	const width, height, stride = 3, 2, 5
	alloc := bufalloc.New[float32](width*height, 2)
	s := New[unit.Frame](0, alloc, width*height, 0, false)

	// Two rows of stride 5, only the first 3 values of each row are live;
	// the remaining padding must never leak into the gathered sliver.
	src := []float32{
		0, 1, 2, 99, 99,
		10, 11, 12, 99, 99,
	}
	s.AppendSliver(src, 0, width, stride, height)

	if s.DiscreteDuration() != 1 {
		t.Fatalf("expected discrete duration 1, got %d", s.DiscreteDuration())
	}

	out := make([]float32, width*height)
	s.CopyTo(unit.NewInterval(unit.Time[unit.Frame](0), unit.Duration[unit.Frame](1)), out)
	want := []float32{0, 1, 2, 10, 11, 12}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("AppendSliver gather mismatch at %d: got %v, want %v", i, out[i], want[i])
		}
	}
}

func TestAppendSliverCoalescesAdjacentSlivers(t *testing.T) {
	const width, height, stride = 2, 1, 2
	alloc := bufalloc.New[float32](8, 2)
	s := New[unit.Frame](0, alloc, width*height, 0, false)

	s.AppendSliver([]float32{1, 2}, 0, width, stride, height)
	s.AppendSliver([]float32{3, 4}, 0, width, stride, height)

	if s.DiscreteDuration() != 2 {
		t.Fatalf("expected discrete duration 2, got %d", s.DiscreteDuration())
	}
	out := make([]float32, 4)
	s.CopyTo(unit.NewInterval(unit.Time[unit.Frame](0), unit.Duration[unit.Frame](2)), out)
	want := []float32{1, 2, 3, 4}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("mismatch at %d: got %v, want %v", i, out[i], want[i])
		}
	}
}
