package ladspa

import (
	"errors"
	"fmt"

	"github.com/dh1tw/plughost/audio"
)

// ErrNotLoaded is returned when activating a plugin whose descriptor does
// not come from a loaded library.
var ErrNotLoaded = errors.New("plugin library not loaded")

// Instance hosts one LADSPA plugin instance as an engine node. The
// plugin itself is instantiated in Activate and destroyed in Deactivate.
type Instance struct {
	id     string
	desc   *Descriptor
	ports  []audio.Port
	native native
}

// NewInstance creates the node for desc. Control inputs start at the
// default value computed from their range hints at sampleRate.
func NewInstance(id string, desc *Descriptor, sampleRate float64) *Instance {
	inst := &Instance{id: id, desc: desc}
	inst.ports = make([]audio.Port, len(desc.Ports))
	for i, p := range desc.Ports {
		switch p.Type {
		case audio.TypeControl:
			inst.ports[i] = audio.NewControlPort(inst, p.Name, p.Direction, p.Default(sampleRate))
		default:
			inst.ports[i] = audio.NewAudioPort(inst, p.Name, p.Direction)
		}
	}
	return inst
}

// ID implements audio.Node.
func (i *Instance) ID() string { return i.id }

// Name implements audio.Node.
func (i *Instance) Name() string { return i.desc.Name }

// Ports implements audio.Node.
func (i *Instance) Ports() []audio.Port { return i.ports }

// Descriptor returns the catalog entry the instance was created from.
func (i *Instance) Descriptor() *Descriptor { return i.desc }

// Activate instantiates and activates the plugin.
func (i *Instance) Activate(sampleRate float64, blockLength int) error {
	if i.desc.native == nil {
		return fmt.Errorf("%s: %w", i.desc, ErrNotLoaded)
	}
	return i.native.activate(i, sampleRate, blockLength)
}

// Process implements audio.Node.
func (i *Instance) Process(frames int) {
	i.native.run(i, frames)
}

// Deactivate deactivates and destroys the plugin.
func (i *Instance) Deactivate() {
	i.native.release(i)
}

// Factory offers the plugins of a Registry to the plugin table.
type Factory struct {
	Registry   *Registry
	SampleRate float64
}

// Format implements plugin.Factory.
func (f *Factory) Format() string { return "ladspa" }

// Names implements plugin.Factory.
func (f *Factory) Names() []string {
	descs := f.Registry.Descriptors()
	names := make([]string, len(descs))
	for i, d := range descs {
		names[i] = d.Name
	}
	return names
}

// New implements plugin.Factory.
func (f *Factory) New(id, name string) (audio.Node, error) {
	desc, ok := f.Registry.Descriptor(name)
	if !ok {
		return nil, fmt.Errorf("unknown ladspa plugin %q", name)
	}
	return NewInstance(id, desc, f.SampleRate), nil
}
