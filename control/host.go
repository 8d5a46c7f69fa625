// Package control exposes the engine's graph to the remote control
// surfaces (REST, websocket and NATS). All methods translate between the
// wire messages and engine calls; none of them touches the render thread
// directly.
package control

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dh1tw/plughost/audio"
	"github.com/dh1tw/plughost/engine"
	"github.com/dh1tw/plughost/plugin"
	"github.com/dh1tw/plughost/plugin/ladspa"
	"github.com/dh1tw/plughost/plugin/lv2"
)

var (
	// ErrNotControl is returned when reading or writing the value of a
	// port that is not a control port.
	ErrNotControl = errors.New("not a control port")
	// ErrUnknownURI is returned for ids never handed out.
	ErrUnknownURI = errors.New("unknown uri id")
	// ErrBadRequest is returned for incomplete requests.
	ErrBadRequest = errors.New("bad request")
)

// Host bundles the objects a control surface works on.
type Host struct {
	engine   *engine.Engine
	plugins  *plugin.Table
	uris     *lv2.URIRegistry
	features *lv2.FeatureSet
	ladspa   *ladspa.Registry
}

// NewHost returns a Host offering the LV2 host features fs. reg may be nil
// if LADSPA is disabled.
func NewHost(e *engine.Engine, t *plugin.Table, uris *lv2.URIRegistry, fs *lv2.FeatureSet, reg *ladspa.Registry) *Host {
	return &Host{engine: e, plugins: t, uris: uris, features: fs, ladspa: reg}
}

// Engine returns the engine's state.
func (h *Host) Engine() EngineInfo {
	info := EngineInfo{
		SampleRate:  h.engine.SampleRate(),
		BlockLength: h.engine.BlockLength(),
		Running:     h.engine.Running(),
		Order:       h.engine.Order(),
		System:      portInfos(h.engine.SystemPorts()),
		Features:    []string{},
	}
	if h.features != nil {
		info.Features = h.features.URIs()
	}
	return info
}

// Plugins returns the plugin catalog.
func (h *Host) Plugins() PluginList {
	res := PluginList{Plugins: h.plugins.Entries()}
	if h.ladspa != nil {
		for _, err := range h.ladspa.Errors() {
			res.DiscoveryErrors = append(res.DiscoveryErrors, err.Error())
		}
	}
	return res
}

// Nodes returns all nodes in the order they were added.
func (h *Host) Nodes() []NodeInfo {
	nodes := h.engine.Nodes()
	res := make([]NodeInfo, 0, len(nodes))
	for _, n := range nodes {
		res = append(res, nodeInfo(n))
	}
	return res
}

// Node returns the node with the given id.
func (h *Host) Node(id string) (NodeInfo, error) {
	n, ok := h.engine.Node(id)
	if !ok {
		return NodeInfo{}, fmt.Errorf("%w: %s", engine.ErrUnknownNode, id)
	}
	return nodeInfo(n), nil
}

// CreateNode instantiates a plugin and adds it to the graph.
func (h *Host) CreateNode(req CreateNode) (NodeInfo, error) {
	if req.Plugin == "" {
		return NodeInfo{}, fmt.Errorf("%w: plugin missing", ErrBadRequest)
	}
	n, err := h.plugins.New(req.ID, req.Plugin)
	if err != nil {
		return NodeInfo{}, err
	}
	if err := h.engine.AddNode(n); err != nil {
		return NodeInfo{}, err
	}
	return nodeInfo(n), nil
}

// RemoveNode removes a node and its routes.
func (h *Host) RemoveNode(id string) error {
	return h.engine.RemoveNode(id)
}

// Routes returns all routes.
func (h *Host) Routes() []RouteInfo {
	routes := h.engine.Routes()
	res := make([]RouteInfo, 0, len(routes))
	for _, r := range routes {
		res = append(res, RouteInfo{
			Output: engine.PortRef(r.OutputPort()),
			Insert: engine.PortRef(r.InsertPort()),
		})
	}
	return res
}

// Connect creates a route.
func (h *Host) Connect(r RouteInfo) error {
	if r.Output == "" || r.Insert == "" {
		return fmt.Errorf("%w: output and insert required", ErrBadRequest)
	}
	_, err := h.engine.ConnectRefs(r.Output, r.Insert)
	return err
}

// Disconnect drops a route.
func (h *Host) Disconnect(r RouteInfo) error {
	if r.Output == "" || r.Insert == "" {
		return fmt.Errorf("%w: output and insert required", ErrBadRequest)
	}
	return h.engine.DisconnectRefs(r.Output, r.Insert)
}

// Control returns the current value of a control port.
func (h *Host) Control(ref string) (float32, error) {
	p, err := h.engine.Port(ref)
	if err != nil {
		return 0, err
	}
	cp, ok := p.(*audio.ControlPort)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotControl, ref)
	}
	return cp.Value(), nil
}

// SetControl changes the value of an unconnected control input.
func (h *Host) SetControl(ref string, v ControlValue) error {
	if v.Value == nil {
		return fmt.Errorf("%w: value missing", ErrBadRequest)
	}
	p, err := h.engine.Port(ref)
	if err != nil {
		return err
	}
	return h.engine.SetControl(p, *v.Value)
}

// URIs returns all mapped URIs in id order.
func (h *Host) URIs() []URIInfo {
	uris := h.uris.URIs()
	res := make([]URIInfo, len(uris))
	for i, u := range uris {
		res[i] = URIInfo{ID: uint32(i + 1), URI: u}
	}
	return res
}

// MapURI returns the id of uri, assigning one if necessary.
func (h *Host) MapURI(uri string) (URIInfo, error) {
	if uri == "" {
		return URIInfo{}, fmt.Errorf("%w: uri missing", ErrBadRequest)
	}
	return URIInfo{ID: h.uris.URIToID(uri), URI: uri}, nil
}

// UnmapURI returns the uri mapped to id.
func (h *Host) UnmapURI(id uint32) (URIInfo, error) {
	uri := h.uris.IDToURI(id)
	if uri == "" {
		return URIInfo{}, fmt.Errorf("%w: %d", ErrUnknownURI, id)
	}
	return URIInfo{ID: id, URI: uri}, nil
}

// StatusCode maps the errors returned by Host to HTTP status codes.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, ErrNotControl),
		errors.Is(err, engine.ErrNotSettable),
		errors.Is(err, engine.ErrInvalidNodeID),
		errors.Is(err, audio.ErrIncompatiblePorts):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrUnknownNode),
		errors.Is(err, engine.ErrUnknownPort),
		errors.Is(err, engine.ErrUnknownRoute),
		errors.Is(err, plugin.ErrUnknownPlugin),
		errors.Is(err, ErrUnknownURI):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrNodeExists),
		errors.Is(err, engine.ErrRouteExists),
		errors.Is(err, engine.ErrCycle),
		errors.Is(err, engine.ErrControlFanIn),
		errors.Is(err, engine.ErrPortConnected):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// NewError wraps err into an Error message.
func NewError(err error) Error {
	return Error{Code: StatusCode(err), Message: err.Error()}
}

func nodeInfo(n audio.Node) NodeInfo {
	return NodeInfo{ID: n.ID(), Name: n.Name(), Ports: portInfos(n.Ports())}
}

func portInfos(ports []audio.Port) []PortInfo {
	res := make([]PortInfo, 0, len(ports))
	for _, p := range ports {
		info := PortInfo{
			Name:      p.Name(),
			Ref:       engine.PortRef(p),
			Type:      p.Type(),
			Direction: p.Direction(),
		}
		if cp, ok := p.(*audio.ControlPort); ok {
			v := cp.Value()
			info.Value = &v
		}
		res = append(res, info)
	}
	return res
}
