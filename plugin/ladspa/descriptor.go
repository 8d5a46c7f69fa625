// Package ladspa discovers LADSPA plugin libraries and hosts their
// plugins as engine nodes. Everything touching the C ABI lives in the cgo
// files of this package; the catalog and its discovery logic are plain Go.
package ladspa

import (
	"fmt"
	"unsafe"

	"github.com/chewxy/math32"
	"github.com/dh1tw/plughost/audio"
)

// Properties are the LADSPA plugin property bits.
type Properties int

// LADSPA plugin properties.
const (
	Realtime      Properties = 0x1
	InplaceBroken Properties = 0x2
	HardRTCapable Properties = 0x4
)

// LADSPA port descriptor bits.
const (
	portInput   = 0x1
	portOutput  = 0x2
	portControl = 0x4
	portAudio   = 0x8
)

// HintFlags are the LADSPA port range hint bits.
type HintFlags int

// LADSPA range hints.
const (
	BoundedBelow HintFlags = 0x1
	BoundedAbove HintFlags = 0x2
	Toggled      HintFlags = 0x4
	SampleRate   HintFlags = 0x8
	Logarithmic  HintFlags = 0x10
	Integer      HintFlags = 0x20

	DefaultMask    HintFlags = 0x3C0
	DefaultNone    HintFlags = 0x0
	DefaultMinimum HintFlags = 0x40
	DefaultLow     HintFlags = 0x80
	DefaultMiddle  HintFlags = 0xC0
	DefaultHigh    HintFlags = 0x100
	DefaultMaximum HintFlags = 0x140
	Default0       HintFlags = 0x200
	Default1       HintFlags = 0x240
	Default100     HintFlags = 0x280
	Default440     HintFlags = 0x2C0
)

// Hint is the range hint of a port.
type Hint struct {
	Flags HintFlags `json:"flags"`
	Lower float32   `json:"lower"`
	Upper float32   `json:"upper"`
}

// PortInfo describes one port of a plugin.
type PortInfo struct {
	Name      string          `json:"name"`
	Direction audio.Direction `json:"direction"`
	Type      audio.PortType  `json:"type"`
	Hint      Hint            `json:"hint"`
}

// Descriptor is the catalog entry of one LADSPA plugin. It is immutable
// once discovered.
type Descriptor struct {
	ID         uint32     `json:"id"`
	Label      string     `json:"label"`
	Name       string     `json:"name"`
	Maker      string     `json:"maker"`
	Copyright  string     `json:"copyright"`
	Properties Properties `json:"properties"`
	Ports      []PortInfo `json:"ports"`
	Library    string     `json:"library"`

	// native points to the LADSPA_Descriptor inside the loaded library;
	// nil for descriptors that don't come from a shared library.
	native unsafe.Pointer
}

// Realtime reports whether the plugin has the realtime property.
func (d *Descriptor) Realtime() bool { return d.Properties&Realtime != 0 }

// InplaceBroken reports whether input and output buffers must not alias.
func (d *Descriptor) InplaceBroken() bool { return d.Properties&InplaceBroken != 0 }

// HardRTCapable reports whether the plugin is safe on a real-time thread.
func (d *Descriptor) HardRTCapable() bool { return d.Properties&HardRTCapable != 0 }

func (d *Descriptor) String() string {
	return fmt.Sprintf("%s (%d, %s)", d.Name, d.ID, d.Label)
}

// parsePort maps a LADSPA port descriptor to direction and type.
func parsePort(bits int) (audio.Direction, audio.PortType, error) {
	var dir audio.Direction
	switch bits & (portInput | portOutput) {
	case portInput:
		dir = audio.Input
	case portOutput:
		dir = audio.Output
	default:
		return 0, 0, fmt.Errorf("invalid port direction bits %#x", bits)
	}

	switch bits & (portControl | portAudio) {
	case portControl:
		return dir, audio.TypeControl, nil
	case portAudio:
		return dir, audio.TypeAudio, nil
	}
	return 0, 0, fmt.Errorf("invalid port type bits %#x", bits)
}

// Default returns the initial value of a control port at the given sample
// rate, following the default hints.
func (p PortInfo) Default(sampleRate float64) float32 {
	h := p.Hint
	lower, upper := h.Lower, h.Upper
	if h.Flags&SampleRate != 0 {
		lower *= float32(sampleRate)
		upper *= float32(sampleRate)
	}
	log := h.Flags&Logarithmic != 0

	var v float32
	switch h.Flags & DefaultMask {
	case DefaultMinimum:
		v = lower
	case DefaultLow:
		v = interpolate(lower, upper, 0.25, log)
	case DefaultMiddle:
		v = interpolate(lower, upper, 0.5, log)
	case DefaultHigh:
		v = interpolate(lower, upper, 0.75, log)
	case DefaultMaximum:
		v = upper
	case Default0:
		v = 0
	case Default1:
		v = 1
	case Default100:
		v = 100
	case Default440:
		v = 440
	default:
		if h.Flags&BoundedBelow != 0 && v < lower {
			v = lower
		}
		if h.Flags&BoundedAbove != 0 && v > upper {
			v = upper
		}
	}

	if h.Flags&Integer != 0 {
		v = math32.Round(v)
	}
	if h.Flags&Toggled != 0 {
		if v > 0 {
			v = 1
		} else {
			v = 0
		}
	}
	return v
}

func interpolate(lower, upper, f float32, log bool) float32 {
	if log && lower > 0 && upper > 0 {
		return math32.Exp(math32.Log(lower)*(1-f) + math32.Log(upper)*f)
	}
	return lower*(1-f) + upper*f
}
