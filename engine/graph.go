package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dh1tw/plughost/audio"
)

// SystemNode is the owner name used in references to backend ports.
const SystemNode = "system"

// PortRef returns the "node:port" reference of p.
func PortRef(p audio.Port) string {
	if n := p.Node(); n != nil {
		return n.ID() + ":" + p.Name()
	}
	return SystemNode + ":" + p.Name()
}

// mixJob sums the buffers of several outputs into the private buffer of
// an insert port.
type mixJob struct {
	dst     *audio.AudioPort
	sources []*audio.AudioPort
}

func (m *mixJob) run(frames int) {
	dst := m.dst.AudioBuffer()
	dst.Clear()
	for _, src := range m.sources {
		dst.Mix(src.AudioBuffer(), frames)
	}
}

type step struct {
	node  audio.Node
	mixes []mixJob
}

// plan is the immutable render schedule handed to the render thread.
type plan struct {
	steps []step
	tail  []mixJob // fan-in into playback ports
}

type nodeEntry struct {
	node audio.Node
	seq  int
}

// model is the control side view of the graph. It is guarded by
// Engine.mu and never touched by the render thread.
type model struct {
	nodes  map[string]*nodeEntry
	seq    int
	routes []*audio.Route
	system []*audio.BackendPort
}

func newModel() *model {
	return &model{nodes: make(map[string]*nodeEntry)}
}

func (m *model) sortedNodes() []audio.Node {
	entries := make([]*nodeEntry, 0, len(m.nodes))
	for _, e := range m.nodes {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })
	res := make([]audio.Node, len(entries))
	for i, e := range entries {
		res[i] = e.node
	}
	return res
}

func (m *model) route(output, insert audio.Port) (int, *audio.Route) {
	for i, r := range m.routes {
		if r.OutputPort() == output && r.InsertPort() == insert {
			return i, r
		}
	}
	return -1, nil
}

func (m *model) sources(insert audio.Port) []audio.Port {
	var res []audio.Port
	for _, r := range m.routes {
		if r.InsertPort() == insert {
			res = append(res, r.OutputPort())
		}
	}
	return res
}

// binding returns the buffer insert has to be bound to for the current
// set of routes, and whether that buffer has to be silenced.
func (m *model) binding(insert audio.Port) (audio.Buffer, bool) {
	src := m.sources(insert)
	switch len(src) {
	case 0:
		return insert.Private(), insert.Type().BufferKind() == audio.AudioKind
	case 1:
		return src[0].Private(), false
	}
	return insert.Private(), false
}

// order sorts the nodes topologically. Ties keep insertion order.
func (m *model) order() ([]audio.Node, error) {
	nodes := m.sortedNodes()
	indeg := make(map[audio.Node]int, len(nodes))
	next := make(map[audio.Node][]audio.Node)
	for _, r := range m.routes {
		from, to := r.OutputPort().Node(), r.InsertPort().Node()
		if from == nil || to == nil {
			continue
		}
		indeg[to]++
		next[from] = append(next[from], to)
	}

	res := make([]audio.Node, 0, len(nodes))
	done := make(map[audio.Node]bool, len(nodes))
	for len(res) < len(nodes) {
		progressed := false
		for _, n := range nodes {
			if done[n] || indeg[n] > 0 {
				continue
			}
			done[n] = true
			res = append(res, n)
			for _, succ := range next[n] {
				indeg[succ]--
			}
			progressed = true
			break
		}
		if !progressed {
			return nil, ErrCycle
		}
	}
	return res, nil
}

// compile builds the render plan for the current model.
func (m *model) compile() (*plan, error) {
	nodes, err := m.order()
	if err != nil {
		return nil, err
	}

	fanIn := make(map[audio.Port][]*audio.AudioPort)
	var inserts []audio.Port
	for _, r := range m.routes {
		ins := r.InsertPort()
		out := audio.AudioOf(r.OutputPort())
		if out == nil {
			continue
		}
		if _, ok := fanIn[ins]; !ok {
			inserts = append(inserts, ins)
		}
		fanIn[ins] = append(fanIn[ins], out)
	}

	byNode := make(map[audio.Node][]mixJob)
	p := &plan{}
	for _, ins := range inserts {
		srcs := fanIn[ins]
		if len(srcs) < 2 {
			continue
		}
		job := mixJob{dst: audio.AudioOf(ins), sources: srcs}
		if n := ins.Node(); n != nil {
			byNode[n] = append(byNode[n], job)
		} else {
			p.tail = append(p.tail, job)
		}
	}

	p.steps = make([]step, len(nodes))
	for i, n := range nodes {
		p.steps[i] = step{node: n, mixes: byNode[n]}
	}

	return p, nil
}

// lookup resolves a "node:port" reference.
func (m *model) lookup(ref string) (audio.Port, error) {
	owner, name, ok := strings.Cut(ref, ":")
	if !ok {
		return nil, fmt.Errorf("%w: malformed reference %q", ErrUnknownPort, ref)
	}
	if owner == SystemNode {
		for _, p := range m.system {
			if p.Name() == name {
				return p, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrUnknownPort, ref)
	}
	e, found := m.nodes[owner]
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, owner)
	}
	for _, p := range e.node.Ports() {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownPort, ref)
}

// owns reports whether p belongs to the graph.
func (m *model) owns(p audio.Port) bool {
	if n := p.Node(); n != nil {
		e, ok := m.nodes[n.ID()]
		return ok && e.node == n
	}
	for _, sp := range m.system {
		if audio.Port(sp) == p {
			return true
		}
	}
	return false
}
