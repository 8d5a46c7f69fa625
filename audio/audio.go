package audio

// Node is implemented by everything that takes part in rendering: hosted
// plugins as well as the built-in processors. A Node exposes a fixed set
// of ports which are created together with the node and never change.
type Node interface {
	// ID returns the unique identifier assigned when the node was created.
	ID() string
	// Name returns a human readable name (typically the plugin name).
	Name() string
	// Ports returns the node's ports in their canonical order.
	Ports() []Port
	// Activate prepares the node for rendering. It is called on a
	// control goroutine before the node is handed to the render thread.
	Activate(sampleRate float64, blockLength int) error
	// Process renders frames samples. It runs on the real-time thread and
	// must neither block nor allocate.
	Process(frames int)
	// Deactivate is called on a control goroutine after the node has been
	// removed from the render thread.
	Deactivate()
}

// Direction of the signal flow on a Port, seen from its owner.
type Direction int

const (
	// Input ports consume a signal (the insert side of a Route).
	Input Direction = iota
	// Output ports produce a signal.
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// PortType is the variant of a Port.
type PortType int

const (
	// TypeAudio ports carry sample blocks.
	TypeAudio PortType = iota
	// TypeControl ports carry a single scalar per cycle.
	TypeControl
	// TypeBackend ports carry sample blocks across the engine/hardware
	// boundary. They have no owning node.
	TypeBackend
)

func (t PortType) String() string {
	switch t {
	case TypeAudio:
		return "audio"
	case TypeControl:
		return "control"
	case TypeBackend:
		return "backend"
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (t PortType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// BufferKind returns the kind of buffer a port of this type binds to.
func (t PortType) BufferKind() BufferKind {
	if t == TypeControl {
		return ControlKind
	}
	return AudioKind
}
