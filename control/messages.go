package control

import (
	"github.com/dh1tw/plughost/audio"
	"github.com/dh1tw/plughost/plugin"
)

// EngineInfo describes the engine.
type EngineInfo struct {
	SampleRate  float64    `json:"sampleRate"`
	BlockLength int        `json:"blockLength"`
	Running     bool       `json:"running"`
	Order       []string   `json:"order"`
	System      []PortInfo `json:"system"`
	Features    []string   `json:"features"`
}

// PortInfo describes a port. Value is only set for control ports.
type PortInfo struct {
	Name      string          `json:"name"`
	Ref       string          `json:"ref"`
	Type      audio.PortType  `json:"type"`
	Direction audio.Direction `json:"direction"`
	Value     *float32        `json:"value,omitempty"`
}

// NodeInfo describes a node in the graph.
type NodeInfo struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Ports []PortInfo `json:"ports"`
}

// RouteInfo describes a route by the references of its ports.
type RouteInfo struct {
	Output string `json:"output"`
	Insert string `json:"insert"`
}

// CreateNode requests a new node. An empty ID gets a generated one.
type CreateNode struct {
	ID     string `json:"id,omitempty"`
	Plugin string `json:"plugin"`
}

// ControlValue carries the value of a control port.
type ControlValue struct {
	Value *float32 `json:"value"`
}

// URIInfo is a mapped URI.
type URIInfo struct {
	ID  uint32 `json:"id"`
	URI string `json:"uri"`
}

// PluginList is the catalog of instantiable plugins.
type PluginList struct {
	Plugins []plugin.Entry `json:"plugins"`
	// DiscoveryErrors lists the LADSPA libraries that failed to load.
	DiscoveryErrors []string `json:"discoveryErrors,omitempty"`
}

// Error is the body of failed requests.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
