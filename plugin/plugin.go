// Package plugin holds the table of node factories the host can
// instantiate from. Factories are registered explicitly at startup; there
// is no discovery by reflection.
package plugin

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dh1tw/plughost/audio"
	"github.com/dh1tw/plughost/utils"
	"github.com/google/uuid"
)

// ErrUnknownPlugin is returned by Table.New for names no factory offers.
var ErrUnknownPlugin = errors.New("unknown plugin")

// Factory creates nodes of one plugin format.
type Factory interface {
	// Format returns the short format name, e.g. "ladspa" or "builtin".
	Format() string
	// Names returns the names of the plugins the factory can create.
	Names() []string
	// New creates an inactive node. The engine activates it with the
	// current sample rate when the node is added to the graph.
	New(id, name string) (audio.Node, error)
}

// Entry describes one instantiable plugin.
type Entry struct {
	Format string `json:"format"`
	Name   string `json:"name"`
}

// Ref returns the "format/name" reference of e.
func (e Entry) Ref() string { return e.Format + "/" + e.Name }

// Table is the capability table of the host.
type Table struct {
	sync.RWMutex
	factories []Factory
}

// NewTable returns a table with the given factories registered.
func NewTable(factories ...Factory) *Table {
	t := &Table{}
	for _, f := range factories {
		t.Register(f)
	}
	return t
}

// Register adds f to the table. Registering a second factory for the same
// format panics.
func (t *Table) Register(f Factory) {
	t.Lock()
	defer t.Unlock()
	for _, existing := range t.factories {
		if existing.Format() == f.Format() {
			panic(fmt.Sprintf("plugin: format %s registered twice", f.Format()))
		}
	}
	t.factories = append(t.factories, f)
}

// Formats returns the registered formats in registration order.
func (t *Table) Formats() []string {
	t.RLock()
	defer t.RUnlock()
	res := make([]string, len(t.factories))
	for i, f := range t.factories {
		res[i] = f.Format()
	}
	return res
}

// Entries returns every plugin of every registered format, sorted by
// format and name.
func (t *Table) Entries() []Entry {
	t.RLock()
	defer t.RUnlock()
	var res []Entry
	for _, f := range t.factories {
		for _, n := range f.Names() {
			res = append(res, Entry{Format: f.Format(), Name: n})
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Format != res[j].Format {
			return res[i].Format < res[j].Format
		}
		return res[i].Name < res[j].Name
	})
	return res
}

// New creates a node from a "format/name" reference or a bare plugin
// name. A bare name is resolved by the first factory offering it. An
// empty id is replaced by a random one.
func (t *Table) New(id, ref string) (audio.Node, error) {
	if id == "" {
		id = uuid.NewString()
	}

	t.RLock()
	defer t.RUnlock()

	if format, name, ok := strings.Cut(ref, "/"); ok {
		for _, f := range t.factories {
			if f.Format() == format && utils.StringInSlice(name, f.Names()) {
				return f.New(id, name)
			}
		}
	}

	// plugin names may contain slashes themselves
	for _, f := range t.factories {
		if utils.StringInSlice(ref, f.Names()) {
			return f.New(id, ref)
		}
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownPlugin, ref)
}
