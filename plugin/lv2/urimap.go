package lv2

import (
	"errors"
	"log/slog"
	"unsafe"
)

var errAlloc = errors.New("unable to allocate native feature data")

// URIMap is the legacy uri-map feature. Plugins map URIs through the
// host's URIRegistry.
type URIMap struct {
	shared
	registry *URIRegistry
	log      *slog.Logger
}

// NewURIMap returns the uri-map feature backed by r.
func NewURIMap(r *URIRegistry, log *slog.Logger) *URIMap {
	if log == nil {
		log = slog.Default()
	}
	return &URIMap{registry: r, log: log.With("component", "lv2", "feature", "uri-map")}
}

// URI implements Feature.
func (m *URIMap) URI() string { return URIMapURI }

// Data implements Feature; it is the LV2_URI_Map_Feature.
func (m *URIMap) Data() unsafe.Pointer { return m.pointer() }

// Initialize implements Feature.
func (m *URIMap) Initialize() error {
	return m.acquire(func() (unsafe.Pointer, func(), error) {
		return newURIMapData(m)
	})
}

// Cleanup implements Feature.
func (m *URIMap) Cleanup() { m.release() }

// MapURI returns the id of uri. Map qualifiers are not supported; a
// non-empty one is logged and ignored.
func (m *URIMap) MapURI(mapQualifier, uri string) uint32 {
	if mapQualifier != "" {
		m.log.Warn("map qualifier not supported, ignoring it", "map", mapQualifier, "uri", uri)
	}
	return m.registry.URIToID(uri)
}

// URIDMap is the urid#map feature.
type URIDMap struct {
	shared
	registry *URIRegistry
}

// NewURIDMap returns the urid#map feature backed by r.
func NewURIDMap(r *URIRegistry) *URIDMap {
	return &URIDMap{registry: r}
}

// URI implements Feature.
func (m *URIDMap) URI() string { return URIDMapURI }

// Data implements Feature; it is the LV2_URID_Map.
func (m *URIDMap) Data() unsafe.Pointer { return m.pointer() }

// Initialize implements Feature.
func (m *URIDMap) Initialize() error {
	return m.acquire(func() (unsafe.Pointer, func(), error) {
		return newURIDMapData(m)
	})
}

// Cleanup implements Feature.
func (m *URIDMap) Cleanup() { m.release() }

// Map returns the id of uri.
func (m *URIDMap) Map(uri string) uint32 { return m.registry.URIToID(uri) }

// URIDUnmap is the urid#unmap feature.
type URIDUnmap struct {
	shared
	registry *URIRegistry
}

// NewURIDUnmap returns the urid#unmap feature backed by r.
func NewURIDUnmap(r *URIRegistry) *URIDUnmap {
	return &URIDUnmap{registry: r}
}

// URI implements Feature.
func (u *URIDUnmap) URI() string { return URIDUnmapURI }

// Data implements Feature; it is the LV2_URID_Unmap.
func (u *URIDUnmap) Data() unsafe.Pointer { return u.pointer() }

// Initialize implements Feature.
func (u *URIDUnmap) Initialize() error {
	return u.acquire(func() (unsafe.Pointer, func(), error) {
		return newURIDUnmapData(u)
	})
}

// Cleanup implements Feature.
func (u *URIDUnmap) Cleanup() { u.release() }

// Unmap returns the uri mapped to id, "" if there is none.
func (u *URIDUnmap) Unmap(id uint32) string { return u.registry.IDToURI(id) }

// DefaultFeatures returns the features the host offers every plugin, all
// sharing r.
func DefaultFeatures(r *URIRegistry, log *slog.Logger) *FeatureSet {
	return NewFeatureSet(NewURIMap(r, log), NewURIDMap(r), NewURIDUnmap(r))
}
