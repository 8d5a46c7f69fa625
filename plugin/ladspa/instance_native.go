//go:build cgo && !windows

package ladspa

/*
#include <stdlib.h>
#include "ladspa_abi.h"
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/dh1tw/plughost/audio"
)

type audioIO struct {
	port *audio.AudioPort
	mem  []float32
}

type controlIO struct {
	port *audio.ControlPort
	mem  *float32
}

// native holds the C side of an Instance. Plugins are connected to C
// allocated scratch memory; engine buffers are copied in and out every
// cycle since the plugin keeps the pointers between calls.
type native struct {
	desc       *C.LADSPA_Descriptor
	handle     C.LADSPA_Handle
	mem        []unsafe.Pointer
	audioIn    []audioIO
	audioOut   []audioIO
	controlIn  []controlIO
	controlOut []controlIO
}

func (n *native) activate(inst *Instance, sampleRate float64, blockLength int) error {
	n.desc = (*C.LADSPA_Descriptor)(inst.desc.native)
	n.handle = C.ladspa_instantiate(n.desc, C.ulong(sampleRate))
	if n.handle == nil {
		return fmt.Errorf("%s: instantiate failed", inst.desc)
	}

	for idx, p := range inst.ports {
		size := 1
		if p.Type() != audio.TypeControl {
			size = blockLength
		}
		mem := C.calloc(C.size_t(size), C.size_t(unsafe.Sizeof(C.LADSPA_Data(0))))
		n.mem = append(n.mem, mem)
		C.ladspa_connect_port(n.desc, n.handle, C.ulong(idx), (*C.LADSPA_Data)(mem))

		switch port := p.(type) {
		case *audio.AudioPort:
			io := audioIO{port: port, mem: unsafe.Slice((*float32)(mem), size)}
			if port.Direction() == audio.Input {
				n.audioIn = append(n.audioIn, io)
			} else {
				n.audioOut = append(n.audioOut, io)
			}
		case *audio.ControlPort:
			io := controlIO{port: port, mem: (*float32)(mem)}
			*io.mem = port.Default()
			if port.Direction() == audio.Input {
				n.controlIn = append(n.controlIn, io)
			} else {
				n.controlOut = append(n.controlOut, io)
			}
		}
	}

	C.ladspa_activate(n.desc, n.handle)
	return nil
}

func (n *native) run(_ *Instance, frames int) {
	for _, io := range n.audioIn {
		copy(io.mem[:frames], io.port.AudioBuffer().Data()[:frames])
	}
	for _, io := range n.controlIn {
		*io.mem = io.port.Value()
	}

	C.ladspa_run(n.desc, n.handle, C.ulong(frames))

	for _, io := range n.audioOut {
		copy(io.port.AudioBuffer().Data()[:frames], io.mem[:frames])
	}
	for _, io := range n.controlOut {
		if b := io.port.ControlBuffer(); b != nil {
			b.SetValue(*io.mem)
		}
	}
}

func (n *native) release(_ *Instance) {
	if n.handle == nil {
		return
	}
	C.ladspa_deactivate(n.desc, n.handle)
	C.ladspa_cleanup(n.desc, n.handle)
	n.handle = nil

	for _, m := range n.mem {
		C.free(m)
	}
	*n = native{}
}
