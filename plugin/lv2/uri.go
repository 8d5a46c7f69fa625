// Package lv2 implements the host side of LV2 feature negotiation: the
// URI to id table and the features exposing it to plugins. The C ABI is
// confined to the cgo bridge of this package.
package lv2

import "sync"

// URIRegistry maps URIs to small integers. Ids are handed out once,
// sequentially starting at 1, and never reused; 0 means unmapped. It is
// safe for concurrent use by any number of plugin instances.
type URIRegistry struct {
	mu   sync.RWMutex
	ids  map[string]uint32
	uris []string // uris[id-1]
}

// NewURIRegistry returns an empty registry.
func NewURIRegistry() *URIRegistry {
	return &URIRegistry{ids: make(map[string]uint32)}
}

// URIToID returns the id of uri, assigning the next free id on first use.
func (r *URIRegistry) URIToID(uri string) uint32 {
	r.mu.RLock()
	id, ok := r.ids[uri]
	r.mu.RUnlock()
	if ok {
		return id
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.ids[uri]; ok {
		return id
	}
	r.uris = append(r.uris, uri)
	id = uint32(len(r.uris))
	r.ids[uri] = id
	return id
}

// IDToURI returns the uri mapped to id, or "" if id was never assigned.
func (r *URIRegistry) IDToURI(id uint32) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id == 0 || int(id) > len(r.uris) {
		return ""
	}
	return r.uris[id-1]
}

// HasURI reports whether uri has been mapped.
func (r *URIRegistry) HasURI(uri string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ids[uri]
	return ok
}

// Len returns the number of mapped URIs.
func (r *URIRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.uris)
}

// URIs returns all mapped URIs in id order.
func (r *URIRegistry) URIs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.uris...)
}
