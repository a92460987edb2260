// Package pluginhost is the in-process registry of effect-plugin factories
// that a spatial processor's chain draws from when a caller asks to insert
// an effect. Loading and scanning third-party VST3 binaries is an explicit
// external-collaborator exclusion (spec.md §1, §4.7.1's "Plugin host
// (excluded)": "the core assumes a plugin registry that hands out opaque
// processor instances with a known (channel-in, channel-out) contract").
// What this package keeps from the teacher is the in-process plugin
// *shape* — the pkg/plugin.Plugin/Processor interfaces, their zero-
// allocation process.Context, and the param.Registry — adapted here to
// hand out processor.Plugin-compatible instances instead of exporting them
// through a VST3 C ABI.
package pluginhost

import (
	"fmt"
	"sync"

	"github.com/nowsound/engine/pkg/contract"
	"github.com/nowsound/engine/pkg/framework/process"
	engineplugin "github.com/nowsound/engine/pkg/plugin"
)

// ID identifies a registered plugin type. Zero is reserved for "undefined",
// matching spec.md §6's 1-based handle convention.
type ID int32

// ProgramID selects a factory preset within a plugin type. Zero is
// reserved for "undefined".
type ProgramID int32

// InstanceIndex indexes a plugin instance within one chain. Per spec.md
// §6, this is the only handle that renumbers: deleting an instance shifts
// every later index down by one.
type InstanceIndex int32

// Registry maps PluginIDs to factories, mirroring
// original_source/NowSoundLib/NowSoundLibTypes.h's PluginId/ProgramId
// enums but resolved dynamically instead of by a fixed C++ enum, since Go
// plugin types register themselves at startup rather than being compiled
// into the engine.
type Registry struct {
	mu       sync.RWMutex
	nextID   ID
	entries  map[ID]entry
}

type entry struct {
	name    string
	factory func(programID ProgramID) engineplugin.Plugin
}

// New constructs an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[ID]entry)}
}

// NewWithBuiltins constructs a registry pre-populated with the engine's
// stock effect types (RegisterBuiltins, RegisterExtendedBuiltins), the
// Registry a running engine actually wants — New alone is for tests that
// need to control exactly which IDs exist.
func NewWithBuiltins() *Registry {
	r := New()
	RegisterBuiltins(r)
	RegisterExtendedBuiltins(r)
	return r
}

// Register adds a plugin factory under a freshly assigned PluginID and
// returns it. factory must return a fresh engineplugin.Plugin for the
// given program each time it's called — one call per AddPluginInstance.
func (r *Registry) Register(name string, factory func(programID ProgramID) engineplugin.Plugin) ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := r.nextID
	r.entries[id] = entry{name: name, factory: factory}
	return id
}

// Name returns the display name a PluginID was registered under.
func (r *Registry) Name(id ID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return "", false
	}
	return e.name, true
}

// Instantiate builds a running Instance of the plugin registered under id,
// selecting programID's preset, sized for blocks up to maxBlockSize at the
// given sample rate. The returned Instance satisfies processor.Plugin and
// can be appended directly to a processor.Chain.
func (r *Registry) Instantiate(id ID, programID ProgramID, sampleRate float64, maxBlockSize int) (*Instance, error) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("pluginhost: no plugin registered under id %d", id)
	}

	p := e.factory(programID)
	proc := p.CreateProcessor()
	if err := proc.Initialize(sampleRate, int32(maxBlockSize)); err != nil {
		return nil, fmt.Errorf("pluginhost: initializing %q: %w", e.name, err)
	}
	if err := proc.SetActive(true); err != nil {
		return nil, fmt.Errorf("pluginhost: activating %q: %w", e.name, err)
	}

	return &Instance{
		name: e.name,
		proc: proc,
		ctx:  process.NewContext(maxBlockSize, proc.GetParameters()),
	}, nil
}

// Instance adapts one running engineplugin.Processor to the planar
// [2][]float32 ProcessBlock shape processor.Chain expects, by wiring the
// stereo buffers into a process.Context each block — no allocation, since
// Context's own work buffers were pre-sized at construction and Input/
// Output here are just slice-header reassignments.
type Instance struct {
	name string
	proc engineplugin.Processor
	ctx  *process.Context

	in, out [2][]float32
}

// ProcessBlock implements processor.Plugin.
func (i *Instance) ProcessBlock(in [2][]float32, out [2][]float32) {
	i.in = in
	i.out = out
	i.ctx.Input = i.in[:]
	i.ctx.Output = i.out[:]
	i.proc.ProcessAudio(i.ctx)
}

// Name returns the display name of the underlying plugin type.
func (i *Instance) Name() string { return i.name }

// LatencySamples reports the instance's reported processing latency.
func (i *Instance) LatencySamples() int32 { return i.proc.GetLatencySamples() }

// Close deactivates the underlying processor. Called when a chain deletes
// this instance (spec.md §4.7.1 "when a plugin is deleted").
func (i *Instance) Close() error {
	contract.Require(i.proc != nil, "pluginhost: Close called on an already-closed instance")
	err := i.proc.SetActive(false)
	i.proc = nil
	return err
}
