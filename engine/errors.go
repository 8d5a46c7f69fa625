package engine

import "errors"

var (
	// ErrUnknownNode is returned for node ids not present in the graph.
	ErrUnknownNode = errors.New("unknown node")
	// ErrNodeExists is returned when a node id is added twice.
	ErrNodeExists = errors.New("node already exists")
	// ErrInvalidNodeID is returned for node ids that cannot be used in
	// port references: empty ids, ids containing ':' and the reserved
	// system owner.
	ErrInvalidNodeID = errors.New("invalid node id")
	// ErrUnknownPort is returned for port references that resolve to
	// nothing.
	ErrUnknownPort = errors.New("unknown port")
	// ErrRouteExists is returned when the same two ports are connected
	// twice.
	ErrRouteExists = errors.New("route already exists")
	// ErrUnknownRoute is returned when disconnecting ports that are not
	// connected.
	ErrUnknownRoute = errors.New("unknown route")
	// ErrCycle is returned when a route would make the graph cyclic.
	ErrCycle = errors.New("route would create a cycle")
	// ErrControlFanIn is returned when a second route into a control port
	// is requested.
	ErrControlFanIn = errors.New("control port already connected")
	// ErrPortConnected is returned when setting the value of a control
	// port that is fed by a route.
	ErrPortConnected = errors.New("port is connected")
	// ErrNotSettable is returned when setting a value on a port that is
	// not a control input.
	ErrNotSettable = errors.New("port is not a control input")
	// ErrRunning is returned when starting an engine twice.
	ErrRunning = errors.New("engine already running")
	// ErrSampleRate is returned when a backend runs at a different rate
	// than the engine.
	ErrSampleRate = errors.New("sample rate mismatch")
)
