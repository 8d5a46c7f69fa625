//go:build !cgo || windows

package ladspa

import "errors"

// ErrUnsupported is returned by Open on builds without dlopen support.
var ErrUnsupported = errors.New("ladspa hosting requires cgo and dlopen")

// Open always fails on this build.
func Open(string) (Library, error) { return nil, ErrUnsupported }

type native struct{}

func (native) activate(*Instance, float64, int) error { return ErrUnsupported }
func (native) run(*Instance, int)                     {}
func (native) release(*Instance)                      {}
