package audio

import (
	"fmt"
	"math"
	"sync/atomic"
)

// Port is a typed endpoint of the signal graph.
//
// The binding of a port (the Buffer it currently reads from or writes to)
// may only be changed by Bind, and Bind may only be called from within
// a command executing on the render thread, or while no render thread is
// running.
type Port interface {
	Name() string
	Type() PortType
	Direction() Direction
	// Node returns the owning node; nil for backend ports.
	Node() Node
	// Buffer returns the currently bound buffer, nil if unbound.
	Buffer() Buffer
	// Private returns the port's own buffer, nil until attached.
	Private() Buffer
	// Attach hands the port its private buffer and binds it.
	Attach(private Buffer)
	// Detach unbinds the port and returns its private buffer so the
	// caller can release it.
	Detach() Buffer
	// Bind binds b and returns the previously bound buffer.
	Bind(b Buffer) Buffer
	String() string
}

type portInfo struct {
	name string
	dir  Direction
	node Node
}

func (p *portInfo) Name() string         { return p.name }
func (p *portInfo) Direction() Direction { return p.dir }
func (p *portInfo) Node() Node           { return p.node }

func (p *portInfo) describe(t PortType) string {
	owner := "system"
	if p.node != nil {
		owner = p.node.ID()
	}
	return fmt.Sprintf("%s:%s (%s %s)", owner, p.name, t, p.dir)
}

// AudioPort carries sample blocks.
type AudioPort struct {
	portInfo
	bound   atomic.Pointer[AudioBuffer]
	private *AudioBuffer
}

// NewAudioPort returns an unbound audio port owned by node.
func NewAudioPort(node Node, name string, dir Direction) *AudioPort {
	return &AudioPort{portInfo: portInfo{name: name, dir: dir, node: node}}
}

// Type implements Port.
func (p *AudioPort) Type() PortType { return TypeAudio }

// Buffer implements Port.
func (p *AudioPort) Buffer() Buffer {
	if b := p.bound.Load(); b != nil {
		return b
	}
	return nil
}

// AudioBuffer returns the bound buffer without the interface indirection.
func (p *AudioPort) AudioBuffer() *AudioBuffer { return p.bound.Load() }

// Private implements Port.
func (p *AudioPort) Private() Buffer {
	if p.private == nil {
		return nil
	}
	return p.private
}

// Attach implements Port.
func (p *AudioPort) Attach(private Buffer) {
	p.private = mustAudio(private)
	p.Bind(p.private)
}

// Detach implements Port.
func (p *AudioPort) Detach() Buffer {
	p.Bind(nil)
	priv := p.private
	p.private = nil
	if priv == nil {
		return nil
	}
	return priv
}

// Bind implements Port.
func (p *AudioPort) Bind(b Buffer) Buffer {
	var next *AudioBuffer
	if b != nil {
		next = mustAudio(b)
		next.ref()
	}
	prev := p.bound.Swap(next)
	if prev == nil {
		return nil
	}
	prev.unref()
	return prev
}

func (p *AudioPort) String() string { return p.describe(TypeAudio) }

// BackendPort is an audio port at the engine/hardware boundary. Capture
// ports are outputs (hardware feeds the graph), playback ports are inputs.
type BackendPort struct {
	AudioPort
}

// NewBackendPort returns a backend port. Backend ports have no owning node.
func NewBackendPort(name string, dir Direction) *BackendPort {
	return &BackendPort{AudioPort{portInfo: portInfo{name: name, dir: dir}}}
}

// Type implements Port.
func (p *BackendPort) Type() PortType { return TypeBackend }

// Node implements Port; backend ports never have an owner.
func (p *BackendPort) Node() Node { return nil }

func (p *BackendPort) String() string { return p.describe(TypeBackend) }

// ControlPort carries a single scalar.
type ControlPort struct {
	portInfo
	bound   atomic.Pointer[ControlBuffer]
	private *ControlBuffer
	shadow  atomic.Uint32
	def     float32
}

// NewControlPort returns an unbound control port owned by node. def is
// written into the private buffer when the port is attached.
func NewControlPort(node Node, name string, dir Direction, def float32) *ControlPort {
	p := &ControlPort{portInfo: portInfo{name: name, dir: dir, node: node}, def: def}
	p.shadow.Store(math.Float32bits(def))
	return p
}

// Type implements Port.
func (p *ControlPort) Type() PortType { return TypeControl }

// Default returns the value the port starts with.
func (p *ControlPort) Default() float32 { return p.def }

// Buffer implements Port.
func (p *ControlPort) Buffer() Buffer {
	if b := p.bound.Load(); b != nil {
		return b
	}
	return nil
}

// ControlBuffer returns the bound buffer without the interface
// indirection.
func (p *ControlPort) ControlBuffer() *ControlBuffer { return p.bound.Load() }

// Private implements Port.
func (p *ControlPort) Private() Buffer {
	if p.private == nil {
		return nil
	}
	return p.private
}

// Attach implements Port.
func (p *ControlPort) Attach(private Buffer) {
	p.private = mustControl(private)
	p.private.SetValue(p.def)
	p.Bind(p.private)
}

// Detach implements Port.
func (p *ControlPort) Detach() Buffer {
	p.Bind(nil)
	priv := p.private
	p.private = nil
	if priv == nil {
		return nil
	}
	return priv
}

// Bind implements Port. The value of the buffer being unbound is kept as
// shadow value; when the port falls back to its private buffer the shadow
// is carried over, so the port reads the last value it has seen.
func (p *ControlPort) Bind(b Buffer) Buffer {
	var next *ControlBuffer
	if b != nil {
		next = mustControl(b)
		next.ref()
	}
	prev := p.bound.Swap(next)
	if prev == nil {
		return nil
	}
	last := prev.Value()
	p.shadow.Store(math.Float32bits(last))
	if next != nil && next == p.private && prev != p.private {
		next.SetValue(last)
	}
	prev.unref()
	return prev
}

// Value returns the value of the bound buffer, or the shadow value when
// the port is unbound.
func (p *ControlPort) Value() float32 {
	if b := p.bound.Load(); b != nil {
		return b.Value()
	}
	return math.Float32frombits(p.shadow.Load())
}

func (p *ControlPort) String() string { return p.describe(TypeControl) }

func mustAudio(b Buffer) *AudioBuffer {
	ab, ok := b.(*AudioBuffer)
	if !ok {
		panic(fmt.Sprintf("audio: cannot bind %s buffer to audio port", b.Kind()))
	}
	return ab
}

func mustControl(b Buffer) *ControlBuffer {
	cb, ok := b.(*ControlBuffer)
	if !ok {
		panic(fmt.Sprintf("audio: cannot bind %s buffer to control port", b.Kind()))
	}
	return cb
}
