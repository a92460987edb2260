package pluginhost

import (
	"math"

	"github.com/nowsound/engine/pkg/dsp/dynamics"
	"github.com/nowsound/engine/pkg/dsp/gain"
	"github.com/nowsound/engine/pkg/framework/bus"
	"github.com/nowsound/engine/pkg/framework/param"
	frameworkplugin "github.com/nowsound/engine/pkg/framework/plugin"
	"github.com/nowsound/engine/pkg/framework/process"
	engineplugin "github.com/nowsound/engine/pkg/plugin"
)

const (
	paramIDGainDB uint32 = iota + 1
	paramIDCompressorThreshold
	paramIDCompressorRatio
)

// RegisterBuiltins adds the engine's built-in effect types to r under
// fixed, well-known IDs: 1 is the gain stage, 2 is the compressor. Callers
// needing more effect types register their own factories with Register.
// NewWithBuiltins returns a Registry that already carries these two,
// matching original_source's plugin registry carrying stock effects
// (SpatialAudioProcessor.cpp's built-in track effects); a Registry from
// New stays empty until something is registered.
func RegisterBuiltins(r *Registry) (gainID ID, compressorID ID) {
	gainID = r.Register("Gain", newGainPlugin)
	compressorID = r.Register("Compressor", newCompressorPlugin)
	return gainID, compressorID
}

// builtinGainPlugin wraps pkg/dsp/gain's buffer-oriented helpers in the
// engineplugin.Plugin/Processor shape, adapted from examples/gain/main.go's
// GainPlugin/GainProcessor — the one-parameter dB-to-linear plugin shape —
// generalized to the stereo [2][]float32 buffers processor.Chain passes
// rather than examples/gain's variable-channel-count ctx.Input loop.
type builtinGainPlugin struct{}

func newGainPlugin(ProgramID) engineplugin.Plugin { return &builtinGainPlugin{} }

func (g *builtinGainPlugin) GetInfo() frameworkplugin.Info {
	return frameworkplugin.Info{
		ID:       "engine.builtin.gain",
		Name:     "Gain",
		Version:  "1.0.0",
		Vendor:   "nowsound",
		Category: "Fx",
	}
}

func (g *builtinGainPlugin) CreateProcessor() engineplugin.Processor {
	return &builtinGainProcessor{
		params: param.NewRegistry(),
		buses:  bus.NewStereoConfiguration(),
	}
}

type builtinGainProcessor struct {
	params *param.Registry
	buses  *bus.Configuration
}

func (p *builtinGainProcessor) Initialize(sampleRate float64, maxBlockSize int32) error {
	return p.params.Add(
		param.New(paramIDGainDB, "Gain").Range(-24, 24).Default(0).Unit("dB").Build(),
	)
}

func (p *builtinGainProcessor) ProcessAudio(ctx *process.Context) {
	linear := float32(gain.DbToLinear(ctx.ParamPlain(paramIDGainDB)))
	n := ctx.NumSamples()
	for ch := 0; ch < ctx.NumInputChannels() && ch < ctx.NumOutputChannels(); ch++ {
		gain.ApplyBufferTo(ctx.Input[ch][:n], linear, ctx.Output[ch][:n])
	}
}

func (p *builtinGainProcessor) GetParameters() *param.Registry   { return p.params }
func (p *builtinGainProcessor) GetBuses() *bus.Configuration     { return p.buses }
func (p *builtinGainProcessor) SetActive(active bool) error      { return nil }
func (p *builtinGainProcessor) GetLatencySamples() int32         { return 0 }
func (p *builtinGainProcessor) GetTailSamples() int32            { return 0 }

// builtinCompressorPlugin wraps pkg/dsp/dynamics.Compressor, adapted from
// examples/compressor/main.go's parameter layout, generalized to run
// through its ProcessStereo entry point against the chain's fixed stereo
// buffers instead of examples/compressor's per-channel loop.
type builtinCompressorPlugin struct{}

func newCompressorPlugin(ProgramID) engineplugin.Plugin { return &builtinCompressorPlugin{} }

func (c *builtinCompressorPlugin) GetInfo() frameworkplugin.Info {
	return frameworkplugin.Info{
		ID:       "engine.builtin.compressor",
		Name:     "Compressor",
		Version:  "1.0.0",
		Vendor:   "nowsound",
		Category: "Fx|Dynamics",
	}
}

func (c *builtinCompressorPlugin) CreateProcessor() engineplugin.Processor {
	return &builtinCompressorProcessor{
		params: param.NewRegistry(),
		buses:  bus.NewStereoConfiguration(),
	}
}

type builtinCompressorProcessor struct {
	params *param.Registry
	buses  *bus.Configuration
	comp   *dynamics.Compressor
}

func (p *builtinCompressorProcessor) Initialize(sampleRate float64, maxBlockSize int32) error {
	p.comp = dynamics.NewCompressor(sampleRate)
	return p.params.Add(
		param.New(paramIDCompressorThreshold, "Threshold").Range(-60, 0).Default(-20).Unit("dB").Build(),
		param.New(paramIDCompressorRatio, "Ratio").Range(1, 20).Default(4).Unit(":1").Build(),
	)
}

func (p *builtinCompressorProcessor) ProcessAudio(ctx *process.Context) {
	p.comp.SetThreshold(ctx.ParamPlain(paramIDCompressorThreshold))
	p.comp.SetRatio(math.Max(1, ctx.ParamPlain(paramIDCompressorRatio)))

	n := ctx.NumSamples()
	if ctx.NumInputChannels() < 2 || ctx.NumOutputChannels() < 2 {
		return
	}
	p.comp.ProcessStereo(ctx.Input[0][:n], ctx.Input[1][:n], ctx.Output[0][:n], ctx.Output[1][:n])
}

func (p *builtinCompressorProcessor) GetParameters() *param.Registry { return p.params }
func (p *builtinCompressorProcessor) GetBuses() *bus.Configuration   { return p.buses }
func (p *builtinCompressorProcessor) SetActive(active bool) error    { p.comp.Reset(); return nil }
func (p *builtinCompressorProcessor) GetLatencySamples() int32       { return 0 }
func (p *builtinCompressorProcessor) GetTailSamples() int32          { return 0 }
