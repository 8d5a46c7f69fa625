package ladspa

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/dh1tw/plughost/events"
	"github.com/dh1tw/plughost/metrics"
	"github.com/dh1tw/plughost/utils"
)

// ErrNoEntryPoint is returned by the loader for shared libraries without
// a ladspa_descriptor symbol.
var ErrNoEntryPoint = errors.New("no ladspa_descriptor entry point")

// Library is a loaded plugin library.
type Library interface {
	Path() string
	// Descriptors returns every plugin the library contains.
	Descriptors() []*Descriptor
	Close() error
}

// LoaderFunc opens the shared library at path.
type LoaderFunc func(path string) (Library, error)

// DiscoveryError describes a library that could not be registered.
type DiscoveryError struct {
	Path string
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("ladspa: %s: %v", e.Path, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// libraryExtensions are the file extensions tried during discovery.
var libraryExtensions = []string{".so", ".dylib", ".dll"}

// Registry is the id keyed catalog of discovered LADSPA plugins. All
// methods are safe for concurrent use; the registry is never touched by
// the render thread.
type Registry struct {
	options Options
	log     *slog.Logger
	metrics *metrics.Discovery

	scan sync.Mutex // serializes Discover
	libs map[string]Library

	mu     sync.RWMutex
	byID   map[uint32]*Descriptor
	errors []error
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		options: Options{
			Loader: Open,
		},
		libs: make(map[string]Library),
		byID: make(map[uint32]*Descriptor),
	}

	for _, option := range opts {
		option(&r.options)
	}

	r.log = r.options.Logger
	if r.log == nil {
		r.log = slog.Default()
	}
	r.log = r.log.With("component", "ladspa")

	r.metrics = r.options.Metrics
	if r.metrics == nil {
		r.metrics = metrics.NewDiscovery(nil)
	}

	return r
}

// DefaultSearchPath returns the directories listed in $LADSPA_PATH, or the
// conventional install locations if the variable is unset.
func DefaultSearchPath() []string {
	if env := os.Getenv("LADSPA_PATH"); env != "" {
		return utils.UniqueStrings(filepath.SplitList(env))
	}

	dirs := []string{"/usr/local/lib/ladspa", "/usr/lib/ladspa"}
	home, err := os.UserHomeDir()
	if err == nil {
		dirs = append(dirs, filepath.Join(home, ".ladspa"))
	}
	if runtime.GOOS == "darwin" {
		dirs = append(dirs, "/Library/Audio/Plug-Ins/LADSPA")
		if err == nil {
			dirs = append(dirs, filepath.Join(home, "Library", "Audio", "Plug-Ins", "LADSPA"))
		}
	}
	return dirs
}

// Discover scans dirs for plugin libraries and replaces the catalog with
// what it found. Libraries that fail to load are logged and skipped. If
// two plugins share an id, the one found last wins. Discover returns the
// number of registered plugins.
func (r *Registry) Discover(dirs []string) int {
	r.scan.Lock()
	defer r.scan.Unlock()

	next := make(map[uint32]*Descriptor)
	var errs []error

	for _, dir := range utils.UniqueStrings(dirs) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				r.log.Debug("skipping missing plugin directory", "dir", dir)
				continue
			}
			errs = append(errs, r.discoveryError(dir, err))
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			ext := strings.ToLower(filepath.Ext(entry.Name()))
			if !utils.StringInSlice(ext, libraryExtensions) {
				continue
			}

			path := filepath.Join(dir, entry.Name())
			lib, err := r.open(path)
			if err != nil {
				errs = append(errs, r.discoveryError(path, err))
				continue
			}

			for _, d := range lib.Descriptors() {
				if prev, dup := next[d.ID]; dup {
					r.log.Warn("duplicate plugin id, the last one found wins",
						"id", d.ID, "kept", d.Library, "dropped", prev.Library)
				}
				next[d.ID] = d
			}
		}
	}

	r.mu.Lock()
	r.byID = next
	r.errors = errs
	r.mu.Unlock()

	r.metrics.Plugins.Set(float64(len(next)))
	r.log.Info("plugin discovery finished", "plugins", len(next), "errors", len(errs))
	r.options.Events.Publish(events.Event{Topic: events.PluginsDiscovered, Count: len(next)})

	return len(next)
}

// open returns the library at path, loading it on first use.
func (r *Registry) open(path string) (Library, error) {
	if lib, ok := r.libs[path]; ok {
		return lib, nil
	}
	lib, err := r.options.Loader(path)
	if err != nil {
		return nil, err
	}
	r.libs[path] = lib
	return lib, nil
}

func (r *Registry) discoveryError(path string, err error) error {
	r.metrics.Errors.Inc()
	r.log.Warn("skipping plugin library", "path", path, "error", err)
	return &DiscoveryError{Path: path, Err: err}
}

// Descriptor returns the plugin with the given name or label. If several
// plugins match, the one with the lowest id is returned.
func (r *Registry) Descriptor(name string) (*Descriptor, bool) {
	for _, d := range r.Descriptors() {
		if d.Name == name || d.Label == name {
			return d, true
		}
	}
	return nil, false
}

// ByID returns the plugin with the given unique id.
func (r *Registry) ByID(id uint32) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byID[id]
	return d, ok
}

// Descriptors returns all registered plugins sorted by id.
func (r *Registry) Descriptors() []*Descriptor {
	r.mu.RLock()
	res := make([]*Descriptor, 0, len(r.byID))
	for _, d := range r.byID {
		res = append(res, d)
	}
	r.mu.RUnlock()

	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// Len returns the number of registered plugins.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Errors returns the DiscoveryErrors of the last Discover call.
func (r *Registry) Errors() []error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]error(nil), r.errors...)
}

// Close unloads all libraries. Plugins instantiated from them must have
// been destroyed before.
func (r *Registry) Close() error {
	r.scan.Lock()
	defer r.scan.Unlock()

	var errs []error
	for path, lib := range r.libs {
		if err := lib.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
		}
		delete(r.libs, path)
	}

	r.mu.Lock()
	r.byID = make(map[uint32]*Descriptor)
	r.mu.Unlock()

	return errors.Join(errs...)
}
