package processor

import (
	"math"
	"testing"

	"github.com/nowsound/engine/pkg/bufalloc"
	"github.com/nowsound/engine/pkg/clock"
	"github.com/nowsound/engine/pkg/unit"
)

func TestSpatialConstantPowerPan(t *testing.T) {
	s := NewSpatial(4, 48000)
	s.Pan = 0 // full left
	s.Volume = 1

	mono := []float32{1, 1, 1, 1}
	outL, outR := make([]float32, 4), make([]float32, 4)

	s.ProcessBlock(mono, [2][]float32{outL, outR})

	// cos(0) = 1, clipped to the MaxOutputSample ceiling.
	if math.Abs(float64(outL[0])-MaxOutputSample) > 1e-6 {
		t.Errorf("expected left channel at full pan-left to be ~%v, got %v", MaxOutputSample, outL[0])
	}
	if math.Abs(float64(outR[0])) > 1e-6 {
		t.Errorf("expected right channel at full pan-left to be ~0, got %v", outR[0])
	}
}

func TestSpatialClipping(t *testing.T) {
	s := NewSpatial(2, 48000)
	s.Pan = 0.5 // center: cos(pi/4)=sin(pi/4)=0.707
	s.Volume = 10

	mono := []float32{1, -1}
	outL, outR := make([]float32, 2), make([]float32, 2)
	s.ProcessBlock(mono, [2][]float32{outL, outR})

	if outL[0] > MaxOutputSample || outR[0] > MaxOutputSample {
		t.Errorf("expected clipping to ceiling %v, got L=%v R=%v", MaxOutputSample, outL[0], outR[0])
	}
	if outL[1] < -MaxOutputSample || outR[1] < -MaxOutputSample {
		t.Errorf("expected clipping to floor %v, got L=%v R=%v", -MaxOutputSample, outL[1], outR[1])
	}
}

func TestSpatialMute(t *testing.T) {
	s := NewSpatial(2, 48000)
	s.Mute = true
	mono := []float32{1, 1}
	outL, outR := make([]float32, 2), make([]float32, 2)
	s.ProcessBlock(mono, [2][]float32{outL, outR})
	if outL[0] != 0 || outR[0] != 0 {
		t.Errorf("expected muted output to be zero, got L=%v R=%v", outL[0], outR[0])
	}
}

func TestDryWetMixBoundaries(t *testing.T) {
	dry := [2][]float32{{1, 1}, {1, 1}}
	wet := [2][]float32{{0, 0}, {0, 0}}
	out := [2][]float32{make([]float32, 2), make([]float32, 2)}

	NewDryWetMix(0).ProcessBlock(dry, wet, out)
	if out[0][0] != 1 {
		t.Errorf("level=0: expected output to equal dry, got %v", out[0][0])
	}

	NewDryWetMix(100).ProcessBlock(dry, wet, out)
	if out[0][0] != 0 {
		t.Errorf("level=100: expected output to equal wet, got %v", out[0][0])
	}

	NewDryWetMix(50).ProcessBlock(dry, wet, out)
	if out[0][0] != 0.5 {
		t.Errorf("level=50: expected output 0.5, got %v", out[0][0])
	}
}

type passthroughPlugin struct{}

func (passthroughPlugin) ProcessBlock(in [2][]float32, out [2][]float32) {
	copy(out[0], in[0])
	copy(out[1], in[1])
}

func TestChainEmptyIsIdentity(t *testing.T) {
	c := NewChain(4)
	in := [2][]float32{{1, 2, 3, 4}, {5, 6, 7, 8}}
	out := [2][]float32{make([]float32, 4), make([]float32, 4)}
	c.ProcessBlock(in, out)
	for i := range in[0] {
		if out[0][i] != in[0][i] || out[1][i] != in[1][i] {
			t.Fatalf("expected identity pass-through at %d", i)
		}
	}
}

func TestChainWithOneStageAtFullWet(t *testing.T) {
	c := NewChain(2)
	c.Append(passthroughPlugin{}, 100)
	in := [2][]float32{{1, 2}, {3, 4}}
	out := [2][]float32{make([]float32, 2), make([]float32, 2)}
	c.ProcessBlock(in, out)
	if out[0][0] != 1 || out[1][0] != 3 {
		t.Errorf("expected passthrough plugin at full wet to equal input, got %v", out)
	}
}

func TestInputAdvancesClockOnlyWhenPrimary(t *testing.T) {
	c := clock.New(48000, 2, 120, 4)
	alloc := bufalloc.New[float32](64, 1)

	primary := NewInput(0, true, c, alloc, unit.Duration[unit.AudioSample](1000), 4, 8, 48000)
	raw := []float32{0, 0, 0, 0}
	out := [2][]float32{make([]float32, 4), make([]float32, 4)}
	primary.ProcessBlock(raw, out)
	if c.Now() != 4 {
		t.Errorf("expected primary input to advance clock by 4, got %d", c.Now())
	}

	secondary := NewInput(1, false, c, alloc, unit.Duration[unit.AudioSample](1000), 4, 8, 48000)
	secondary.ProcessBlock(raw, out)
	if c.Now() != 4 {
		t.Errorf("expected secondary input to leave clock unchanged, got %d", c.Now())
	}
}
