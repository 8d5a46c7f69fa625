// Package backend defines the contract between the engine and the audio
// hardware (or anything pretending to be audio hardware). Concrete
// backends register a Provider at startup; the engine only ever sees the
// Backend interface.
package backend

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Callback renders one block. in and out hold one slice per channel, all
// of the same length. It is invoked on the backend's real-time thread.
type Callback func(in, out [][]float32)

// Backend is implemented by audio drivers.
type Backend interface {
	Name() string
	SampleRate() float64
	BlockLength() int
	Channels() (in, out int)
	// Start begins invoking cb once per block.
	Start(cb Callback) error
	// Stop returns once cb is no longer running and won't be invoked
	// again.
	Stop() error
	Close() error
}

// Config contains the parameters a Provider creates a Backend with.
// Fields a backend doesn't understand are ignored.
type Config struct {
	SampleRate     float64
	BlockLength    int
	InputChannels  int
	OutputChannels int
	HostAPI        string
	InputDevice    string
	OutputDevice   string
	Latency        time.Duration
}

// Provider creates backends of one kind.
type Provider interface {
	DisplayName() string
	CreateBackend(cfg Config) (Backend, error)
}

var (
	mu        sync.RWMutex
	providers = make(map[string]Provider)
)

// Register makes a provider available under name. Registering the same
// name twice panics.
func Register(name string, p Provider) {
	mu.Lock()
	defer mu.Unlock()
	if _, dup := providers[name]; dup {
		panic(fmt.Sprintf("backend: provider %s registered twice", name))
	}
	providers[name] = p
}

// Lookup returns the provider registered under name.
func Lookup(name string) (Provider, bool) {
	mu.RLock()
	defer mu.RUnlock()
	p, ok := providers[name]
	return p, ok
}

// Names returns the names of all registered providers, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(providers))
	for n := range providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Create looks up the provider registered under name and creates a
// backend with cfg.
func Create(name string, cfg Config) (Backend, error) {
	p, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown backend %s", name)
	}
	return p.CreateBackend(cfg)
}
