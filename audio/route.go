package audio

import (
	"errors"
	"fmt"
)

// ErrIncompatiblePorts is returned when two ports cannot be routed into
// each other.
var ErrIncompatiblePorts = errors.New("incompatible ports")

// Route is a directed signal path from an output port into an insert
// (input) port. Both endpoints are fixed at construction; rewiring means
// dropping the route and creating a new one. Creating a Route does not
// move any data, the engine propagates buffer bindings when the route is
// committed.
type Route struct {
	output Port
	insert Port
}

// NewRoute validates the endpoints and returns the route.
func NewRoute(output, insert Port) (*Route, error) {
	if output == nil || insert == nil {
		return nil, fmt.Errorf("%w: missing endpoint", ErrIncompatiblePorts)
	}
	if output.Direction() != Output {
		return nil, fmt.Errorf("%w: %s is not an output", ErrIncompatiblePorts, output)
	}
	if insert.Direction() != Input {
		return nil, fmt.Errorf("%w: %s is not an input", ErrIncompatiblePorts, insert)
	}
	if output.Type().BufferKind() != insert.Type().BufferKind() {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIncompatiblePorts, output, insert)
	}
	if output.Node() != nil && output.Node() == insert.Node() {
		return nil, fmt.Errorf("%w: %s feeds its own node", ErrIncompatiblePorts, output)
	}
	return &Route{output: output, insert: insert}, nil
}

// OutputPort returns the port feeding the route.
func (r *Route) OutputPort() Port { return r.output }

// InsertPort returns the port the route feeds.
func (r *Route) InsertPort() Port { return r.insert }

func (r *Route) String() string {
	return fmt.Sprintf("%s -> %s", r.output, r.insert)
}

// AudioOf returns the audio port behind p, including the audio port
// embedded in a backend port. It returns nil for control ports.
func AudioOf(p Port) *AudioPort {
	switch v := p.(type) {
	case *AudioPort:
		return v
	case *BackendPort:
		return &v.AudioPort
	}
	return nil
}
