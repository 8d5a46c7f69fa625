package lv2

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"
)

// URIs of the features implemented by the host.
const (
	URIMapURI    = "http://lv2plug.in/ns/ext/uri-map"
	URIDMapURI   = "http://lv2plug.in/ns/ext/urid#map"
	URIDUnmapURI = "http://lv2plug.in/ns/ext/urid#unmap"
)

// ErrMissingFeature is returned when a plugin requires a feature the
// host does not offer.
var ErrMissingFeature = errors.New("required feature not supported")

// Feature is a host capability offered to plugin instances.
type Feature interface {
	// URI identifies the feature.
	URI() string
	// Data returns the feature's native data. It points to C memory (or
	// is nil) and is valid between Initialize and the matching Cleanup.
	Data() unsafe.Pointer
	// Initialize is called once for every plugin instance the feature is
	// handed to, before instantiation.
	Initialize() error
	// Cleanup is called once for every plugin instance after it has been
	// destroyed.
	Cleanup()
}

// shared keeps the native data of a feature alive while at least one
// plugin instance uses it.
type shared struct {
	mu   sync.Mutex
	refs int
	data unsafe.Pointer
	free func()
}

func (s *shared) acquire(alloc func() (unsafe.Pointer, func(), error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refs == 0 {
		data, free, err := alloc()
		if err != nil {
			return err
		}
		s.data, s.free = data, free
	}
	s.refs++
	return nil
}

func (s *shared) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refs == 0 {
		return
	}
	s.refs--
	if s.refs == 0 {
		s.free()
		s.data, s.free = nil, nil
	}
}

func (s *shared) pointer() unsafe.Pointer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

// Refs returns the number of plugin instances currently using the
// feature.
func (s *shared) Refs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refs
}

// FeatureSet is the ordered set of features the host offers.
type FeatureSet struct {
	mu       sync.RWMutex
	features []Feature
}

// NewFeatureSet returns a set holding fs. Features with a URI already in
// the set are dropped.
func NewFeatureSet(fs ...Feature) *FeatureSet {
	s := &FeatureSet{}
	for _, f := range fs {
		_ = s.Add(f)
	}
	return s
}

// Add appends f unless a feature with the same URI is present.
func (s *FeatureSet) Add(f Feature) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.features {
		if existing.URI() == f.URI() {
			return fmt.Errorf("feature %s already offered", f.URI())
		}
	}
	s.features = append(s.features, f)
	return nil
}

// Get returns the feature with the given URI.
func (s *FeatureSet) Get(uri string) (Feature, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.features {
		if f.URI() == uri {
			return f, true
		}
	}
	return nil, false
}

// URIs returns the URIs of all features in order.
func (s *FeatureSet) URIs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]string, len(s.features))
	for i, f := range s.features {
		res[i] = f.URI()
	}
	return res
}

// Missing returns the URIs in required the set does not offer.
func (s *FeatureSet) Missing(required []string) []string {
	var res []string
	for _, uri := range required {
		if _, ok := s.Get(uri); !ok {
			res = append(res, uri)
		}
	}
	return res
}

// Instantiate initializes every feature for one plugin instance and
// builds the native feature array handed to the plugin. If a plugin
// requires features the set does not offer, nothing is initialized.
func (s *FeatureSet) Instantiate(required ...string) (*Binding, error) {
	if missing := s.Missing(required); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrMissingFeature, missing)
	}

	s.mu.RLock()
	features := append([]Feature(nil), s.features...)
	s.mu.RUnlock()

	for i, f := range features {
		if err := f.Initialize(); err != nil {
			for j := i - 1; j >= 0; j-- {
				features[j].Cleanup()
			}
			return nil, fmt.Errorf("initialize feature %s: %w", f.URI(), err)
		}
	}

	b := &Binding{features: features}
	b.array, b.free = newFeatureArray(features)
	return b, nil
}

// Binding is the set of features negotiated by one plugin instance.
type Binding struct {
	features []Feature
	array    unsafe.Pointer
	free     func()
	once     sync.Once
}

// Features returns the features bound to the instance.
func (b *Binding) Features() []Feature { return b.features }

// Native returns the NULL terminated LV2_Feature array to pass to the
// plugin's instantiate function. It is valid until Close.
func (b *Binding) Native() unsafe.Pointer { return b.array }

// Close cleans up every feature once and frees the native array. It must
// be called after the plugin instance has been destroyed.
func (b *Binding) Close() {
	b.once.Do(func() {
		b.free()
		b.array = nil
		for i := len(b.features) - 1; i >= 0; i-- {
			b.features[i].Cleanup()
		}
	})
}
