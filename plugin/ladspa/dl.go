//go:build cgo && !windows

package ladspa

/*
#cgo linux LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdlib.h>
#include "ladspa_abi.h"

static void *lib_open(const char *path)
{
	return dlopen(path, RTLD_NOW | RTLD_LOCAL);
}
*/
import "C"

import (
	"errors"
	"fmt"
	"unsafe"
)

// maxDescriptors guards against libraries that never return NULL.
const maxDescriptors = 4096

type dlLibrary struct {
	path   string
	handle unsafe.Pointer
	descs  []*Descriptor
}

// Open loads the shared library at path with dlopen and reads all plugin
// descriptors it exports.
func Open(path string) (Library, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	C.dlerror()
	handle := C.lib_open(cpath)
	if handle == nil {
		return nil, dlError("dlopen")
	}

	csym := C.CString("ladspa_descriptor")
	defer C.free(unsafe.Pointer(csym))

	fn := C.dlsym(handle, csym)
	if fn == nil {
		C.dlclose(handle)
		return nil, ErrNoEntryPoint
	}

	lib := &dlLibrary{path: path, handle: handle}
	for i := 0; i < maxDescriptors; i++ {
		d := C.ladspa_descriptor_at(fn, C.ulong(i))
		if d == nil {
			break
		}
		desc, err := readDescriptor(d, path)
		if err != nil {
			// a broken plugin doesn't spoil the rest of the library
			continue
		}
		lib.descs = append(lib.descs, desc)
	}

	return lib, nil
}

func (l *dlLibrary) Path() string               { return l.path }
func (l *dlLibrary) Descriptors() []*Descriptor { return l.descs }

func (l *dlLibrary) Close() error {
	if l.handle == nil {
		return nil
	}
	C.dlerror()
	if C.dlclose(l.handle) != 0 {
		return dlError("dlclose")
	}
	l.handle = nil
	return nil
}

func dlError(op string) error {
	if msg := C.dlerror(); msg != nil {
		return fmt.Errorf("%s: %s", op, C.GoString(msg))
	}
	return fmt.Errorf("%s failed", op)
}

func readDescriptor(d *C.LADSPA_Descriptor, path string) (*Descriptor, error) {
	if d.connect_port == nil || d.run == nil || d.instantiate == nil {
		return nil, errors.New("descriptor without instantiate, connect_port or run")
	}

	desc := &Descriptor{
		ID:         uint32(d.UniqueID),
		Label:      goString(d.Label),
		Name:       goString(d.Name),
		Maker:      goString(d.Maker),
		Copyright:  goString(d.Copyright),
		Properties: Properties(d.Properties),
		Library:    path,
		native:     unsafe.Pointer(d),
	}

	count := int(d.PortCount)
	if count == 0 {
		return desc, nil
	}
	if d.PortDescriptors == nil || d.PortNames == nil || d.PortRangeHints == nil {
		return nil, fmt.Errorf("plugin %d: incomplete port tables", desc.ID)
	}

	kinds := unsafe.Slice(d.PortDescriptors, count)
	names := unsafe.Slice(d.PortNames, count)
	hints := unsafe.Slice(d.PortRangeHints, count)

	desc.Ports = make([]PortInfo, count)
	for i := 0; i < count; i++ {
		dir, typ, err := parsePort(int(kinds[i]))
		if err != nil {
			return nil, fmt.Errorf("plugin %d port %d: %w", desc.ID, i, err)
		}
		desc.Ports[i] = PortInfo{
			Name:      goString(names[i]),
			Direction: dir,
			Type:      typ,
			Hint: Hint{
				Flags: HintFlags(hints[i].HintDescriptor),
				Lower: float32(hints[i].LowerBound),
				Upper: float32(hints[i].UpperBound),
			},
		}
	}

	return desc, nil
}

func goString(s *C.char) string {
	if s == nil {
		return ""
	}
	return C.GoString(s)
}
