package slice

import (
	"testing"

	"github.com/nowsound/engine/pkg/bufalloc"
	"github.com/nowsound/engine/pkg/unit"
)

func TestSubsliceAndGet(t *testing.T) {
	a := bufalloc.New[float32](20, 1)
	buf := a.Allocate()
	for i := range buf.Data {
		buf.Data[i] = float32(i)
	}
	s := FromWholeBuffer[unit.AudioSample](buf.View(), 2) // 10 stereo slivers
	sub := s.Subslice(2, 3)
	if sub.Duration() != 3 {
		t.Fatalf("expected duration 3, got %d", sub.Duration())
	}
	if got := sub.Get(0, 0); got != 4 {
		t.Errorf("Get(0,0): got %v, want 4", got)
	}
	if got := sub.Get(0, 1); got != 5 {
		t.Errorf("Get(0,1): got %v, want 5", got)
	}
}

func TestPrecedesAndUnionWith(t *testing.T) {
	a := bufalloc.New[float32](20, 1)
	buf := a.Allocate()
	s := FromWholeBuffer[unit.AudioSample](buf.View(), 2)
	first := s.Subslice(0, 4)
	second := s.Subslice(4, 6)

	if !first.Precedes(second) {
		t.Fatal("expected first to precede second")
	}
	union := first.UnionWith(second)
	if union.Duration() != 10 {
		t.Errorf("UnionWith: expected duration 10, got %d", union.Duration())
	}
}

func TestCopyTo(t *testing.T) {
	src := bufalloc.New[float32](4, 1)
	srcBuf := src.Allocate()
	srcBuf.Data[0], srcBuf.Data[1] = 1, 2

	dst := bufalloc.New[float32](4, 1)
	dstBuf := dst.Allocate()

	srcSlice := FromWholeBuffer[unit.AudioSample](srcBuf.View(), 2)
	dstSlice := FromWholeBuffer[unit.AudioSample](dstBuf.View(), 2)
	srcSlice.CopyTo(dstSlice)

	if dstBuf.Data[0] != 1 || dstBuf.Data[1] != 2 {
		t.Errorf("CopyTo: got %v, want [1 2 ...]", dstBuf.Data)
	}
}

func TestTimedSliceInterval(t *testing.T) {
	a := bufalloc.New[float32](8, 1)
	buf := a.Allocate()
	s := FromWholeBuffer[unit.AudioSample](buf.View(), 2)
	ts := NewTimedSlice(unit.Time[unit.AudioSample](100), s)

	iv := ts.SliceInterval()
	if iv.Start != 100 || iv.Length != 4 {
		t.Errorf("SliceInterval: got {%d,%d}, want {100,4}", iv.Start, iv.Length)
	}
}
