//go:build cgo

package lv2

/*
#include <stdlib.h>
#include "lv2_abi.h"
*/
import "C"

import (
	"runtime/cgo"
	"sync"
	"unsafe"
)

//export plughostURIMapURIToID
func plughostURIMapURIToID(data C.uintptr_t, mapq *C.char, uri *C.char) C.uint32_t {
	m := cgo.Handle(data).Value().(*URIMap)
	var q string
	if mapq != nil {
		q = C.GoString(mapq)
	}
	if uri == nil {
		return 0
	}
	return C.uint32_t(m.MapURI(q, C.GoString(uri)))
}

//export plughostURIDMap
func plughostURIDMap(handle C.uintptr_t, uri *C.char) C.uint32_t {
	if uri == nil {
		return 0
	}
	m := cgo.Handle(handle).Value().(*URIDMap)
	return C.uint32_t(m.Map(C.GoString(uri)))
}

//export plughostURIDUnmap
func plughostURIDUnmap(handle C.uintptr_t, id C.uint32_t) *C.char {
	return cgo.Handle(handle).Value().(*unmapCache).lookup(uint32(id))
}

// unmapCache holds the C strings handed out by urid#unmap. They stay
// valid until the feature's native data is freed.
type unmapCache struct {
	sync.Mutex
	unmap *URIDUnmap
	strs  map[uint32]*C.char
}

func (c *unmapCache) lookup(id uint32) *C.char {
	c.Lock()
	defer c.Unlock()
	if s, ok := c.strs[id]; ok {
		return s
	}
	uri := c.unmap.Unmap(id)
	if uri == "" {
		return nil
	}
	s := C.CString(uri)
	c.strs[id] = s
	return s
}

func (c *unmapCache) free() {
	c.Lock()
	defer c.Unlock()
	for id, s := range c.strs {
		C.free(unsafe.Pointer(s))
		delete(c.strs, id)
	}
}

func newURIMapData(m *URIMap) (unsafe.Pointer, func(), error) {
	h := cgo.NewHandle(m)
	p := C.plughost_uri_map_new(C.uintptr_t(h))
	if p == nil {
		h.Delete()
		return nil, nil, errAlloc
	}
	return unsafe.Pointer(p), func() {
		C.free(unsafe.Pointer(p))
		h.Delete()
	}, nil
}

func newURIDMapData(m *URIDMap) (unsafe.Pointer, func(), error) {
	h := cgo.NewHandle(m)
	p := C.plughost_urid_map_new(C.uintptr_t(h))
	if p == nil {
		h.Delete()
		return nil, nil, errAlloc
	}
	return unsafe.Pointer(p), func() {
		C.free(unsafe.Pointer(p))
		h.Delete()
	}, nil
}

func newURIDUnmapData(u *URIDUnmap) (unsafe.Pointer, func(), error) {
	cache := &unmapCache{unmap: u, strs: make(map[uint32]*C.char)}
	h := cgo.NewHandle(cache)
	p := C.plughost_urid_unmap_new(C.uintptr_t(h))
	if p == nil {
		h.Delete()
		return nil, nil, errAlloc
	}
	return unsafe.Pointer(p), func() {
		C.free(unsafe.Pointer(p))
		h.Delete()
		cache.free()
	}, nil
}

// newFeatureArray builds a NULL terminated LV2_Feature* array for fs.
func newFeatureArray(fs []Feature) (unsafe.Pointer, func()) {
	ptrSize := C.size_t(unsafe.Sizeof(uintptr(0)))
	array := C.calloc(C.size_t(len(fs)+1), ptrSize)
	entries := unsafe.Slice((**C.LV2_Feature)(array), len(fs)+1)

	for i, f := range fs {
		e := (*C.LV2_Feature)(C.malloc(C.size_t(unsafe.Sizeof(C.LV2_Feature{}))))
		e.URI = C.CString(f.URI())
		e.data = f.Data()
		entries[i] = e
	}

	return array, func() {
		for _, e := range entries {
			if e == nil {
				break
			}
			C.free(unsafe.Pointer(e.URI))
			C.free(unsafe.Pointer(e))
		}
		C.free(array)
	}
}

// readFeatureArray returns the URIs and data pointers of a native
// feature array.
func readFeatureArray(array unsafe.Pointer) ([]string, []unsafe.Pointer) {
	var uris []string
	var data []unsafe.Pointer
	for p := (**C.LV2_Feature)(array); *p != nil; p = (**C.LV2_Feature)(unsafe.Add(unsafe.Pointer(p), unsafe.Sizeof(uintptr(0)))) {
		uris = append(uris, C.GoString((*p).URI))
		data = append(data, (*p).data)
	}
	return uris, data
}

// callURIToID invokes the uri_to_id callback of a LV2_URI_Map_Feature
// the way a plugin would.
func callURIToID(feature unsafe.Pointer, mapq, uri string) uint32 {
	cmap := C.CString(mapq)
	defer C.free(unsafe.Pointer(cmap))
	curi := C.CString(uri)
	defer C.free(unsafe.Pointer(curi))
	return uint32(C.plughost_call_uri_to_id(feature, cmap, curi))
}

func callURIDMap(feature unsafe.Pointer, uri string) uint32 {
	curi := C.CString(uri)
	defer C.free(unsafe.Pointer(curi))
	return uint32(C.plughost_call_urid_map(feature, curi))
}

// callURIDUnmap returns the unmapped URI and whether the plugin got a
// non-NULL string.
func callURIDUnmap(feature unsafe.Pointer, id uint32) (string, bool) {
	s := C.plughost_call_urid_unmap(feature, C.uint32_t(id))
	if s == nil {
		return "", false
	}
	return C.GoString(s), true
}
