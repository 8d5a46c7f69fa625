//go:build !cgo

package lv2

import "unsafe"

// Without cgo features have no native data; the Go side of every
// feature keeps working.

func newURIMapData(*URIMap) (unsafe.Pointer, func(), error)       { return nil, func() {}, nil }
func newURIDMapData(*URIDMap) (unsafe.Pointer, func(), error)     { return nil, func() {}, nil }
func newURIDUnmapData(*URIDUnmap) (unsafe.Pointer, func(), error) { return nil, func() {}, nil }

func newFeatureArray([]Feature) (unsafe.Pointer, func()) { return nil, func() {} }
