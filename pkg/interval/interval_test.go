package interval

import (
	"testing"

	"github.com/nowsound/engine/pkg/unit"
)

// fakeStream is a minimal StreamInfo for testing the mappers in isolation.
type fakeStream struct {
	initial    unit.Time[unit.AudioSample]
	discreteD  unit.Duration[unit.AudioSample]
	continuous unit.ContinuousDuration[unit.AudioSample]
	shut       bool
}

func (f fakeStream) InitialTime() unit.Time[unit.AudioSample]       { return f.initial }
func (f fakeStream) DiscreteDuration() unit.Duration[unit.AudioSample] { return f.discreteD }
func (f fakeStream) ContinuousDuration() unit.ContinuousDuration[unit.AudioSample] {
	return f.continuous
}
func (f fakeStream) DiscreteInterval() unit.Interval[unit.AudioSample] {
	return unit.NewInterval(f.initial, f.discreteD)
}
func (f fakeStream) IsShut() bool { return f.shut }

func TestIdentityMapperIntersects(t *testing.T) {
	s := fakeStream{initial: 0, discreteD: 10, shut: false}
	m := NewIdentity[unit.AudioSample](s)

	got := m.MapNextSubInterval(unit.NewInterval(unit.Time[unit.AudioSample](5), unit.Duration[unit.AudioSample](20)))
	if got.Start != 5 || got.Length != 5 {
		t.Errorf("Identity: got {%d,%d}, want {5,5}", got.Start, got.Length)
	}
}

func TestSimpleLoopingWraps(t *testing.T) {
	s := fakeStream{initial: 0, discreteD: 10, shut: true}
	m := NewSimpleLooping[unit.AudioSample](s)

	// Input starting at 25 is 2.5 loops in; modulo 10 that's offset 5, with
	// only 5 samples left before wrapping.
	got := m.MapNextSubInterval(unit.NewInterval(unit.Time[unit.AudioSample](25), unit.Duration[unit.AudioSample](20)))
	if got.Start != 5 || got.Length != 5 {
		t.Errorf("SimpleLooping: got {%d,%d}, want {5,5}", got.Start, got.Length)
	}
}

// TestExactLoopingMatchesWorkedExample reproduces the ContinuousDuration=2.4
// table from IntervalMapper.cpp's LoopingIntervalMapper comment.
func TestExactLoopingMatchesWorkedExample(t *testing.T) {
	s := fakeStream{initial: 0, continuous: unit.NewContinuousDuration[unit.AudioSample](2.4), shut: true}
	m := NewExactLooping[unit.AudioSample](s)

	cases := []struct {
		absoluteTime int64
		wantStart    int64
		wantDuration int64
	}{
		{0, 0, 3},
		{1, 1, 2},
		{2, 2, 1},
		{3, 0, 2},
		{4, 1, 1},
		{5, 0, 3},
		{6, 1, 2},
		{7, 2, 1},
		{8, 0, 2},
		{9, 1, 1},
	}

	for _, c := range cases {
		got := m.MapNextSubInterval(unit.NewInterval(unit.Time[unit.AudioSample](c.absoluteTime), unit.Duration[unit.AudioSample](100)))
		if int64(got.Start) != c.wantStart || int64(got.Length) != c.wantDuration {
			t.Errorf("absoluteTime=%d: got {%d,%d}, want {%d,%d}",
				c.absoluteTime, got.Start, got.Length, c.wantStart, c.wantDuration)
		}
	}
}
