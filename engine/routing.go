package engine

import (
	"fmt"
	"strings"

	"github.com/dh1tw/plughost/audio"
	"github.com/dh1tw/plughost/events"
)

// AddNode activates n, acquires the private buffers of its ports and
// commits it to the render thread. AddNode returns after the render thread
// has picked the node up.
func (e *Engine) AddNode(n audio.Node) error {
	id := n.ID()
	if id == "" || id == SystemNode || strings.Contains(id, ":") {
		return fmt.Errorf("%w: %q", ErrInvalidNodeID, id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.model.nodes[n.ID()]; ok {
		return fmt.Errorf("%w: %s", ErrNodeExists, n.ID())
	}

	if err := n.Activate(e.options.SampleRate, e.options.BlockLength); err != nil {
		return fmt.Errorf("activate %s: %w", n.Name(), err)
	}

	for _, p := range n.Ports() {
		p.Attach(e.provider.Acquire(p.Type().BufferKind(), 0))
	}

	e.model.seq++
	e.model.nodes[n.ID()] = &nodeEntry{node: n, seq: e.model.seq}

	pl, err := e.model.compile()
	if err != nil {
		// a node without routes cannot close a cycle
		panic(fmt.Sprintf("engine: compile after adding %s: %v", n.ID(), err))
	}
	e.Submit(&commitCmd{model: e.model, plan: pl})

	e.metrics.Nodes.Set(float64(len(e.model.nodes)))
	e.log.Info("node added", "node", n.ID(), "name", n.Name())
	e.bus.Publish(events.Event{Topic: events.NodeAdded, Node: n.ID(), Name: n.Name()})

	return nil
}

// RemoveNode drops the node with the given id together with all of its
// routes. Once the render thread has released the node, its buffers go
// back to the provider and the node is deactivated.
func (e *Engine) RemoveNode(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.model.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	n := entry.node

	var kept []*audio.Route
	var affected []audio.Port
	seen := make(map[audio.Port]bool)
	removed := 0
	for _, r := range e.model.routes {
		if r.OutputPort().Node() != n && r.InsertPort().Node() != n {
			kept = append(kept, r)
			continue
		}
		removed++
		ins := r.InsertPort()
		if ins.Node() != n && !seen[ins] {
			seen[ins] = true
			affected = append(affected, ins)
		}
	}
	e.model.routes = kept
	delete(e.model.nodes, id)

	pl, err := e.model.compile()
	if err != nil {
		panic(fmt.Sprintf("engine: compile after removing %s: %v", id, err))
	}
	e.Submit(&commitCmd{model: e.model, plan: pl, ports: affected})

	// the render thread no longer references n
	for _, p := range n.Ports() {
		if b := p.Detach(); b != nil {
			e.provider.Release(b)
		}
	}
	n.Deactivate()

	e.metrics.Nodes.Set(float64(len(e.model.nodes)))
	e.metrics.Routes.Set(float64(len(e.model.routes)))
	e.log.Info("node removed", "node", id, "routes", removed)
	e.bus.Publish(events.Event{Topic: events.NodeRemoved, Node: id, Name: n.Name(), Count: removed})

	return nil
}

// Connect routes output into insert. An insert port fed by a single route
// shares the output's buffer; with several routes it gets the sum of all
// outputs.
func (e *Engine) Connect(output, insert audio.Port) (*audio.Route, error) {
	r, err := audio.NewRoute(output, insert)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, p := range []audio.Port{output, insert} {
		if !e.model.owns(p) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownPort, PortRef(p))
		}
	}
	if _, existing := e.model.route(output, insert); existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrRouteExists, existing)
	}
	if insert.Type() == audio.TypeControl && len(e.model.sources(insert)) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrControlFanIn, PortRef(insert))
	}

	e.model.routes = append(e.model.routes, r)
	pl, err := e.model.compile()
	if err != nil {
		e.model.routes = e.model.routes[:len(e.model.routes)-1]
		return nil, fmt.Errorf("connect %s: %w", r, err)
	}
	e.Submit(&commitCmd{model: e.model, plan: pl, ports: []audio.Port{insert}})

	e.metrics.Routes.Set(float64(len(e.model.routes)))
	e.log.Debug("route added", "route", r.String())
	e.bus.Publish(events.Event{Topic: events.RouteAdded,
		Output: PortRef(output), Insert: PortRef(insert)})

	return r, nil
}

// ConnectRefs is Connect with "node:port" references.
func (e *Engine) ConnectRefs(output, insert string) (*audio.Route, error) {
	out, err := e.Port(output)
	if err != nil {
		return nil, err
	}
	ins, err := e.Port(insert)
	if err != nil {
		return nil, err
	}
	return e.Connect(out, ins)
}

// Disconnect drops r. The insert port falls back to its private buffer
// (or to the remaining route); a control port keeps the last value it
// received.
func (e *Engine) Disconnect(r *audio.Route) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := -1
	for i, rr := range e.model.routes {
		if rr == r {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRoute, r)
	}

	e.model.routes = append(e.model.routes[:idx], e.model.routes[idx+1:]...)
	pl, err := e.model.compile()
	if err != nil {
		panic(fmt.Sprintf("engine: compile after removing route %s: %v", r, err))
	}
	e.Submit(&commitCmd{model: e.model, plan: pl, ports: []audio.Port{r.InsertPort()}})

	e.metrics.Routes.Set(float64(len(e.model.routes)))
	e.log.Debug("route removed", "route", r.String())
	e.bus.Publish(events.Event{Topic: events.RouteRemoved,
		Output: PortRef(r.OutputPort()), Insert: PortRef(r.InsertPort())})

	return nil
}

// DisconnectRefs drops the route between two "node:port" references.
func (e *Engine) DisconnectRefs(output, insert string) error {
	out, err := e.Port(output)
	if err != nil {
		return err
	}
	ins, err := e.Port(insert)
	if err != nil {
		return err
	}

	e.mu.Lock()
	_, r := e.model.route(out, ins)
	e.mu.Unlock()

	if r == nil {
		return fmt.Errorf("%w: %s -> %s", ErrUnknownRoute, output, insert)
	}
	return e.Disconnect(r)
}

// SetControl changes the value of an unconnected control input. The
// value is written on the render thread at the start of a later cycle.
func (e *Engine) SetControl(p audio.Port, value float32) error {
	cp, ok := p.(*audio.ControlPort)
	if !ok || cp.Direction() != audio.Input {
		return fmt.Errorf("%w: %s", ErrNotSettable, PortRef(p))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.model.owns(cp) {
		return fmt.Errorf("%w: %s", ErrUnknownPort, PortRef(p))
	}
	if len(e.model.sources(cp)) > 0 {
		return fmt.Errorf("%w: %s", ErrPortConnected, PortRef(p))
	}

	e.Submit(&setControlCmd{port: cp, value: value})

	e.bus.Publish(events.Event{Topic: events.ControlChanged,
		Node: cp.Node().ID(), Port: cp.Name(), Value: &value})

	return nil
}

// Port resolves a "node:port" reference; backend ports live on the
// "system" node.
func (e *Engine) Port(ref string) (audio.Port, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model.lookup(ref)
}

// Node returns the node with the given id.
func (e *Engine) Node(id string) (audio.Node, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, ok := e.model.nodes[id]
	if !ok {
		return nil, false
	}
	return entry.node, true
}

// Nodes returns all nodes in the order they were added.
func (e *Engine) Nodes() []audio.Node {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model.sortedNodes()
}

// Routes returns all routes in the order they were created.
func (e *Engine) Routes() []*audio.Route {
	e.mu.Lock()
	defer e.mu.Unlock()
	res := make([]*audio.Route, len(e.model.routes))
	copy(res, e.model.routes)
	return res
}

// SystemPorts returns the capture ports followed by the playback ports.
func (e *Engine) SystemPorts() []audio.Port {
	e.mu.Lock()
	defer e.mu.Unlock()
	res := make([]audio.Port, len(e.model.system))
	for i, p := range e.model.system {
		res[i] = p
	}
	return res
}

// Order returns the ids of the nodes in render order.
func (e *Engine) Order() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	nodes, err := e.model.order()
	if err != nil {
		return nil
	}
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID()
	}
	return ids
}

// Close stops the engine and removes every node.
func (e *Engine) Close() error {
	err := e.Stop()
	for _, n := range e.Nodes() {
		if rerr := e.RemoveNode(n.ID()); rerr != nil && err == nil {
			err = rerr
		}
	}
	return err
}
