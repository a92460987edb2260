package pluginhost

import (
	"github.com/nowsound/engine/pkg/dsp/delay"
	"github.com/nowsound/engine/pkg/dsp/distortion"
	"github.com/nowsound/engine/pkg/dsp/envelope"
	"github.com/nowsound/engine/pkg/dsp/filter"
	"github.com/nowsound/engine/pkg/dsp/mix"
	"github.com/nowsound/engine/pkg/dsp/modulation"
	"github.com/nowsound/engine/pkg/dsp/reverb"
	"github.com/nowsound/engine/pkg/framework/bus"
	"github.com/nowsound/engine/pkg/framework/param"
	frameworkplugin "github.com/nowsound/engine/pkg/framework/plugin"
	"github.com/nowsound/engine/pkg/framework/process"
	engineplugin "github.com/nowsound/engine/pkg/plugin"
)

const (
	paramIDDelayTimeMs uint32 = iota + 100
	paramIDDelayFeedback
	paramIDDelayMix

	paramIDFilterType
	paramIDFilterFrequency
	paramIDFilterQ

	paramIDReverbRoomSize
	paramIDReverbDamping
	paramIDReverbWidth

	paramIDSaturationDrive
	paramIDSaturationMix

	paramIDChorusRate
	paramIDChorusDepth
	paramIDChorusMix

	paramIDGateThreshold
	paramIDGateAttack
	paramIDGateRelease
)

// RegisterExtendedBuiltins adds the remaining stock effect types a spatial
// chain can insert beyond Gain/Compressor: Delay, Filter, Reverb,
// Saturation, Chorus and Gate. Each wraps one of the teacher's pkg/dsp
// effect algorithms in the same engineplugin.Plugin/Processor shape
// RegisterBuiltins uses, so they slot into processor.Chain identically.
func RegisterExtendedBuiltins(r *Registry) (delayID, filterID, reverbID, saturationID, chorusID, gateID ID) {
	delayID = r.Register("Delay", newDelayPlugin)
	filterID = r.Register("Filter", newFilterPlugin)
	reverbID = r.Register("Reverb", newReverbPlugin)
	saturationID = r.Register("Saturation", newSaturationPlugin)
	chorusID = r.Register("Chorus", newChorusPlugin)
	gateID = r.Register("Gate", newGatePlugin)
	return
}

// --- Delay ---------------------------------------------------------------

// builtinDelayPlugin wraps two pkg/dsp/delay.CombDelay lines (one per
// channel) with an explicit dry/wet mix, adapted from delay.go's own
// ProcessBuffer feedback-and-damping shape.
type builtinDelayPlugin struct{}

func newDelayPlugin(ProgramID) engineplugin.Plugin { return &builtinDelayPlugin{} }

func (d *builtinDelayPlugin) GetInfo() frameworkplugin.Info {
	return frameworkplugin.Info{ID: "engine.builtin.delay", Name: "Delay", Version: "1.0.0", Vendor: "nowsound", Category: "Fx|Delay"}
}

func (d *builtinDelayPlugin) CreateProcessor() engineplugin.Processor {
	return &builtinDelayProcessor{params: param.NewRegistry(), buses: bus.NewStereoConfiguration()}
}

// maxDelaySeconds bounds the delay line's buffer; the DelayTimeMs parameter
// is clamped well inside this.
const maxDelaySeconds = 2.0

type builtinDelayProcessor struct {
	params     *param.Registry
	buses      *bus.Configuration
	sampleRate float64
	lines      [2]*delay.CombDelay
	wet        [2][]float32
}

func (p *builtinDelayProcessor) Initialize(sampleRate float64, maxBlockSize int32) error {
	p.sampleRate = sampleRate
	p.lines[0] = delay.NewComb(maxDelaySeconds, sampleRate)
	p.lines[1] = delay.NewComb(maxDelaySeconds, sampleRate)
	p.lines[0].SetDamp(0.2)
	p.lines[1].SetDamp(0.2)
	p.wet[0] = make([]float32, maxBlockSize)
	p.wet[1] = make([]float32, maxBlockSize)
	return p.params.Add(
		param.New(paramIDDelayTimeMs, "Time").Range(1, 1800).Default(300).Unit("ms").Build(),
		param.New(paramIDDelayFeedback, "Feedback").Range(0, 0.95).Default(0.35).Build(),
		param.New(paramIDDelayMix, "Mix").Range(0, 100).Default(35).Unit("%").Build(),
	)
}

func (p *builtinDelayProcessor) ProcessAudio(ctx *process.Context) {
	if ctx.NumInputChannels() < 2 || ctx.NumOutputChannels() < 2 {
		return
	}
	feedback := float32(ctx.ParamPlain(paramIDDelayFeedback))
	delaySamples := ctx.ParamPlain(paramIDDelayTimeMs) / 1000.0 * p.sampleRate
	mixAmount := float32(ctx.ParamPlain(paramIDDelayMix) / 100.0)

	n := ctx.NumSamples()
	for ch := 0; ch < 2; ch++ {
		p.lines[ch].SetFeedback(feedback)
		wet := p.wet[ch][:n]
		copy(wet, ctx.Input[ch][:n])
		p.lines[ch].ProcessBuffer(wet, delaySamples)
		mix.DryWetBufferTo(ctx.Input[ch][:n], wet, mixAmount, ctx.Output[ch][:n])
	}
}

func (p *builtinDelayProcessor) GetParameters() *param.Registry { return p.params }
func (p *builtinDelayProcessor) GetBuses() *bus.Configuration   { return p.buses }
func (p *builtinDelayProcessor) SetActive(active bool) error {
	p.lines[0].Reset()
	p.lines[1].Reset()
	return nil
}
func (p *builtinDelayProcessor) GetLatencySamples() int32 { return 0 }
func (p *builtinDelayProcessor) GetTailSamples() int32    { return 0 }

// --- Filter ----------------------------------------------------------------

// builtinFilterPlugin wraps pkg/dsp/filter.Biquad, selecting one of its
// four most common response shapes by a discrete Type parameter.
type builtinFilterPlugin struct{}

func newFilterPlugin(ProgramID) engineplugin.Plugin { return &builtinFilterPlugin{} }

func (f *builtinFilterPlugin) GetInfo() frameworkplugin.Info {
	return frameworkplugin.Info{ID: "engine.builtin.filter", Name: "Filter", Version: "1.0.0", Vendor: "nowsound", Category: "Fx|Filter"}
}

func (f *builtinFilterPlugin) CreateProcessor() engineplugin.Processor {
	return &builtinFilterProcessor{params: param.NewRegistry(), buses: bus.NewStereoConfiguration()}
}

type builtinFilterProcessor struct {
	params     *param.Registry
	buses      *bus.Configuration
	sampleRate float64
	biquad     *filter.Biquad
}

func (p *builtinFilterProcessor) Initialize(sampleRate float64, maxBlockSize int32) error {
	p.sampleRate = sampleRate
	p.biquad = filter.NewBiquad(2)
	return p.params.Add(
		param.New(paramIDFilterType, "Type").Range(0, 3).Default(0).Steps(4).Build(),
		param.New(paramIDFilterFrequency, "Frequency").Range(20, 20000).Default(1000).Unit("Hz").Build(),
		param.New(paramIDFilterQ, "Q").Range(0.1, 10).Default(0.707).Build(),
	)
}

func (p *builtinFilterProcessor) ProcessAudio(ctx *process.Context) {
	freq := ctx.ParamPlain(paramIDFilterFrequency)
	q := ctx.ParamPlain(paramIDFilterQ)
	switch int(ctx.ParamPlain(paramIDFilterType)) {
	case 1:
		p.biquad.SetHighpass(p.sampleRate, freq, q)
	case 2:
		p.biquad.SetBandpass(p.sampleRate, freq, q)
	case 3:
		p.biquad.SetNotch(p.sampleRate, freq, q)
	default:
		p.biquad.SetLowpass(p.sampleRate, freq, q)
	}

	n := ctx.NumSamples()
	for ch := 0; ch < ctx.NumInputChannels() && ch < ctx.NumOutputChannels(); ch++ {
		copy(ctx.Output[ch][:n], ctx.Input[ch][:n])
		p.biquad.Process(ctx.Output[ch][:n], ch)
	}
}

func (p *builtinFilterProcessor) GetParameters() *param.Registry { return p.params }
func (p *builtinFilterProcessor) GetBuses() *bus.Configuration   { return p.buses }
func (p *builtinFilterProcessor) SetActive(active bool) error    { p.biquad.Reset(); return nil }
func (p *builtinFilterProcessor) GetLatencySamples() int32       { return 0 }
func (p *builtinFilterProcessor) GetTailSamples() int32          { return 0 }

// --- Reverb ------------------------------------------------------------

// builtinReverbPlugin wraps pkg/dsp/reverb.Freeverb, leaving its own
// dry/wet fully wet — the chain-level DryWetMix each ChainStage already
// carries (spec.md §4.7.1) is where a caller controls how much reverb
// signal returns to the mix.
type builtinReverbPlugin struct{}

func newReverbPlugin(ProgramID) engineplugin.Plugin { return &builtinReverbPlugin{} }

func (r *builtinReverbPlugin) GetInfo() frameworkplugin.Info {
	return frameworkplugin.Info{ID: "engine.builtin.reverb", Name: "Reverb", Version: "1.0.0", Vendor: "nowsound", Category: "Fx|Reverb"}
}

func (r *builtinReverbPlugin) CreateProcessor() engineplugin.Processor {
	return &builtinReverbProcessor{params: param.NewRegistry(), buses: bus.NewStereoConfiguration()}
}

type builtinReverbProcessor struct {
	params *param.Registry
	buses  *bus.Configuration
	fv     *reverb.Freeverb
}

func (p *builtinReverbProcessor) Initialize(sampleRate float64, maxBlockSize int32) error {
	p.fv = reverb.NewFreeverb(sampleRate)
	p.fv.SetDryLevel(0)
	p.fv.SetWetLevel(1)
	return p.params.Add(
		param.New(paramIDReverbRoomSize, "Room Size").Range(0, 1).Default(0.5).Build(),
		param.New(paramIDReverbDamping, "Damping").Range(0, 1).Default(0.5).Build(),
		param.New(paramIDReverbWidth, "Width").Range(0, 1).Default(1).Build(),
	)
}

func (p *builtinReverbProcessor) ProcessAudio(ctx *process.Context) {
	p.fv.SetRoomSize(ctx.ParamPlain(paramIDReverbRoomSize))
	p.fv.SetDamping(ctx.ParamPlain(paramIDReverbDamping))
	p.fv.SetWidth(ctx.ParamPlain(paramIDReverbWidth))

	if ctx.NumInputChannels() < 2 || ctx.NumOutputChannels() < 2 {
		return
	}
	n := ctx.NumSamples()
	inL, inR := ctx.Input[0][:n], ctx.Input[1][:n]
	outL, outR := ctx.Output[0][:n], ctx.Output[1][:n]
	for i := 0; i < n; i++ {
		outL[i], outR[i] = p.fv.ProcessStereo(inL[i], inR[i])
	}
}

func (p *builtinReverbProcessor) GetParameters() *param.Registry { return p.params }
func (p *builtinReverbProcessor) GetBuses() *bus.Configuration   { return p.buses }
func (p *builtinReverbProcessor) SetActive(active bool) error    { p.fv.Reset(); return nil }
func (p *builtinReverbProcessor) GetLatencySamples() int32       { return 0 }
func (p *builtinReverbProcessor) GetTailSamples() int32          { return 0 }

// --- Saturation ----------------------------------------------------------

// builtinSaturationPlugin wraps two pkg/dsp/distortion.TubeSaturator
// instances (it operates mono, so one per channel), converting between
// this engine's float32 buffers and the saturator's float64 samples.
type builtinSaturationPlugin struct{}

func newSaturationPlugin(ProgramID) engineplugin.Plugin { return &builtinSaturationPlugin{} }

func (s *builtinSaturationPlugin) GetInfo() frameworkplugin.Info {
	return frameworkplugin.Info{ID: "engine.builtin.saturation", Name: "Saturation", Version: "1.0.0", Vendor: "nowsound", Category: "Fx|Distortion"}
}

func (s *builtinSaturationPlugin) CreateProcessor() engineplugin.Processor {
	return &builtinSaturationProcessor{params: param.NewRegistry(), buses: bus.NewStereoConfiguration()}
}

type builtinSaturationProcessor struct {
	params                *param.Registry
	buses                 *bus.Configuration
	tubes                 [2]*distortion.TubeSaturator
	scratchIn, scratchOut [2][]float64
}

func (p *builtinSaturationProcessor) Initialize(sampleRate float64, maxBlockSize int32) error {
	p.tubes[0] = distortion.NewTubeSaturator(sampleRate)
	p.tubes[1] = distortion.NewTubeSaturator(sampleRate)
	p.scratchIn[0] = make([]float64, maxBlockSize)
	p.scratchIn[1] = make([]float64, maxBlockSize)
	p.scratchOut[0] = make([]float64, maxBlockSize)
	p.scratchOut[1] = make([]float64, maxBlockSize)
	return p.params.Add(
		param.New(paramIDSaturationDrive, "Drive").Range(0, 1).Default(0.3).Build(),
		param.New(paramIDSaturationMix, "Mix").Range(0, 1).Default(0.5).Build(),
	)
}

func (p *builtinSaturationProcessor) ProcessAudio(ctx *process.Context) {
	drive := ctx.ParamPlain(paramIDSaturationDrive)
	mixAmount := ctx.ParamPlain(paramIDSaturationMix)
	p.tubes[0].SetDrive(drive)
	p.tubes[1].SetDrive(drive)
	p.tubes[0].SetMix(mixAmount)
	p.tubes[1].SetMix(mixAmount)

	n := ctx.NumSamples()
	for ch := 0; ch < ctx.NumInputChannels() && ch < ctx.NumOutputChannels(); ch++ {
		in64, out64 := p.scratchIn[ch][:n], p.scratchOut[ch][:n]
		for i := 0; i < n; i++ {
			in64[i] = float64(ctx.Input[ch][i])
		}
		p.tubes[ch].ProcessBuffer(in64, out64)
		for i := 0; i < n; i++ {
			ctx.Output[ch][i] = float32(out64[i])
		}
	}
}

func (p *builtinSaturationProcessor) GetParameters() *param.Registry { return p.params }
func (p *builtinSaturationProcessor) GetBuses() *bus.Configuration   { return p.buses }
func (p *builtinSaturationProcessor) SetActive(active bool) error    { return nil }
func (p *builtinSaturationProcessor) GetLatencySamples() int32       { return 0 }
func (p *builtinSaturationProcessor) GetTailSamples() int32          { return 0 }

// --- Chorus ----------------------------------------------------------------

// builtinChorusPlugin wraps pkg/dsp/modulation.Chorus, which already
// operates directly on stereo float32 buffers via ProcessStereoBuffer.
type builtinChorusPlugin struct{}

func newChorusPlugin(ProgramID) engineplugin.Plugin { return &builtinChorusPlugin{} }

func (c *builtinChorusPlugin) GetInfo() frameworkplugin.Info {
	return frameworkplugin.Info{ID: "engine.builtin.chorus", Name: "Chorus", Version: "1.0.0", Vendor: "nowsound", Category: "Fx|Modulation"}
}

func (c *builtinChorusPlugin) CreateProcessor() engineplugin.Processor {
	return &builtinChorusProcessor{params: param.NewRegistry(), buses: bus.NewStereoConfiguration()}
}

type builtinChorusProcessor struct {
	params *param.Registry
	buses  *bus.Configuration
	chorus *modulation.Chorus
}

func (p *builtinChorusProcessor) Initialize(sampleRate float64, maxBlockSize int32) error {
	p.chorus = modulation.NewChorus(sampleRate)
	return p.params.Add(
		param.New(paramIDChorusRate, "Rate").Range(0.05, 5).Default(0.8).Unit("Hz").Build(),
		param.New(paramIDChorusDepth, "Depth").Range(0, 10).Default(3).Unit("ms").Build(),
		param.New(paramIDChorusMix, "Mix").Range(0, 1).Default(0.5).Build(),
	)
}

func (p *builtinChorusProcessor) ProcessAudio(ctx *process.Context) {
	p.chorus.SetRate(ctx.ParamPlain(paramIDChorusRate))
	p.chorus.SetDepth(ctx.ParamPlain(paramIDChorusDepth))
	p.chorus.SetMix(ctx.ParamPlain(paramIDChorusMix))

	if ctx.NumInputChannels() < 2 || ctx.NumOutputChannels() < 2 {
		return
	}
	n := ctx.NumSamples()
	p.chorus.ProcessStereoBuffer(ctx.Input[0][:n], ctx.Input[1][:n], ctx.Output[0][:n], ctx.Output[1][:n])
}

func (p *builtinChorusProcessor) GetParameters() *param.Registry { return p.params }
func (p *builtinChorusProcessor) GetBuses() *bus.Configuration   { return p.buses }
func (p *builtinChorusProcessor) SetActive(active bool) error    { p.chorus.Reset(); return nil }
func (p *builtinChorusProcessor) GetLatencySamples() int32       { return 0 }
func (p *builtinChorusProcessor) GetTailSamples() int32          { return 0 }

// --- Gate --------------------------------------------------------------

// builtinGatePlugin wraps pkg/dsp/envelope.Detector as a noise gate: the
// detector tracks a mono envelope across both channels, and samples below
// Threshold are muted.
type builtinGatePlugin struct{}

func newGatePlugin(ProgramID) engineplugin.Plugin { return &builtinGatePlugin{} }

func (g *builtinGatePlugin) GetInfo() frameworkplugin.Info {
	return frameworkplugin.Info{ID: "engine.builtin.gate", Name: "Gate", Version: "1.0.0", Vendor: "nowsound", Category: "Fx|Dynamics"}
}

func (g *builtinGatePlugin) CreateProcessor() engineplugin.Processor {
	return &builtinGateProcessor{params: param.NewRegistry(), buses: bus.NewStereoConfiguration()}
}

type builtinGateProcessor struct {
	params   *param.Registry
	buses    *bus.Configuration
	detector *envelope.Detector
}

func (p *builtinGateProcessor) Initialize(sampleRate float64, maxBlockSize int32) error {
	p.detector = envelope.NewDetector(sampleRate, envelope.ModePeak)
	return p.params.Add(
		param.New(paramIDGateThreshold, "Threshold").Range(-80, 0).Default(-40).Unit("dB").Build(),
		param.New(paramIDGateAttack, "Attack").Range(0.0001, 0.5).Default(0.005).Unit("s").Build(),
		param.New(paramIDGateRelease, "Release").Range(0.001, 2).Default(0.1).Unit("s").Build(),
	)
}

func (p *builtinGateProcessor) ProcessAudio(ctx *process.Context) {
	p.detector.SetTimeConstants(ctx.ParamPlain(paramIDGateAttack), ctx.ParamPlain(paramIDGateRelease))
	thresholdDB := float32(ctx.ParamPlain(paramIDGateThreshold))

	if ctx.NumInputChannels() < 2 || ctx.NumOutputChannels() < 2 {
		return
	}
	n := ctx.NumSamples()
	inL, inR := ctx.Input[0][:n], ctx.Input[1][:n]
	outL, outR := ctx.Output[0][:n], ctx.Output[1][:n]
	for i := 0; i < n; i++ {
		mono := maxAbs(inL[i], inR[i])
		p.detector.Detect(mono)
		var gainFactor float32
		if p.detector.GetEnvelopeDB() >= thresholdDB {
			gainFactor = 1
		}
		outL[i] = inL[i] * gainFactor
		outR[i] = inR[i] * gainFactor
	}
}

func maxAbs(a, b float32) float32 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	if a > b {
		return a
	}
	return b
}

func (p *builtinGateProcessor) GetParameters() *param.Registry { return p.params }
func (p *builtinGateProcessor) GetBuses() *bus.Configuration   { return p.buses }
func (p *builtinGateProcessor) SetActive(active bool) error    { p.detector.Reset(); return nil }
func (p *builtinGateProcessor) GetLatencySamples() int32 { return 0 }
func (p *builtinGateProcessor) GetTailSamples() int32    { return 0 }
