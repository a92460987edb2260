package pluginhost

import (
	"testing"

	"github.com/nowsound/engine/pkg/framework/bus"
	"github.com/nowsound/engine/pkg/framework/param"
	"github.com/nowsound/engine/pkg/framework/plugin"
	"github.com/nowsound/engine/pkg/framework/process"
	engineplugin "github.com/nowsound/engine/pkg/plugin"
)

// gainProcessor doubles every sample, a minimal stand-in for a real
// effect that exercises the Instance adapter's Context wiring.
type gainProcessor struct {
	params *param.Registry
	buses  *bus.Configuration
}

func (g *gainProcessor) Initialize(sampleRate float64, maxBlockSize int32) error { return nil }
func (g *gainProcessor) ProcessAudio(ctx *process.Context) {
	for ch := 0; ch < ctx.NumInputChannels(); ch++ {
		for i, v := range ctx.Input[ch] {
			ctx.Output[ch][i] = v * 2
		}
	}
}
func (g *gainProcessor) GetParameters() *param.Registry       { return g.params }
func (g *gainProcessor) GetBuses() *bus.Configuration         { return g.buses }
func (g *gainProcessor) SetActive(active bool) error          { return nil }
func (g *gainProcessor) GetLatencySamples() int32             { return 0 }
func (g *gainProcessor) GetTailSamples() int32                { return 0 }

type gainPlugin struct{}

func (gainPlugin) GetInfo() plugin.Info {
	return plugin.Info{ID: "test.gain", Name: "Test Gain", Version: "1.0.0", Vendor: "test", Category: "Fx"}
}
func (gainPlugin) CreateProcessor() engineplugin.Processor {
	return &gainProcessor{params: param.NewRegistry(), buses: bus.NewStereoConfiguration()}
}

func TestRegisterAndInstantiateDoublesSignal(t *testing.T) {
	r := New()
	id := r.Register("gain", func(ProgramID) engineplugin.Plugin { return gainPlugin{} })

	inst, err := r.Instantiate(id, 0, 48000, 4)
	if err != nil {
		t.Fatalf("Instantiate failed: %v", err)
	}

	in := [2][]float32{{1, 2, 3, 4}, {5, 6, 7, 8}}
	out := [2][]float32{make([]float32, 4), make([]float32, 4)}
	inst.ProcessBlock(in, out)

	for i := range in[0] {
		if out[0][i] != in[0][i]*2 || out[1][i] != in[1][i]*2 {
			t.Fatalf("expected doubled signal at %d, got %v", i, out)
		}
	}
}

func TestInstantiateUnknownIDFails(t *testing.T) {
	r := New()
	if _, err := r.Instantiate(999, 0, 48000, 4); err == nil {
		t.Fatalf("expected error instantiating unregistered plugin id")
	}
}

func TestCloseDeactivatesInstance(t *testing.T) {
	r := New()
	id := r.Register("gain", func(ProgramID) engineplugin.Plugin { return gainPlugin{} })
	inst, err := r.Instantiate(id, 0, 48000, 4)
	if err != nil {
		t.Fatalf("Instantiate failed: %v", err)
	}
	if err := inst.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestNewWithBuiltinsRegistersAllStockEffects(t *testing.T) {
	r := NewWithBuiltins()
	wantNames := []string{"Gain", "Compressor", "Delay", "Filter", "Reverb", "Saturation", "Chorus", "Gate"}
	got := make(map[string]bool)
	for id := ID(1); id <= ID(len(wantNames)); id++ {
		name, ok := r.Name(id)
		if !ok {
			t.Fatalf("expected plugin registered at id %d", id)
		}
		got[name] = true
	}
	for _, want := range wantNames {
		if !got[want] {
			t.Fatalf("expected NewWithBuiltins to register %q, got %v", want, got)
		}
	}
}
