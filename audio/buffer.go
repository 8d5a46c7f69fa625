package audio

import (
	"math"
	"sync/atomic"
)

// BufferKind distinguishes the buffer variants handed out by a
// BufferProvider.
type BufferKind int

const (
	// AudioKind is a block of samples sized to the engine's block length.
	AudioKind BufferKind = iota
	// ControlKind is a single scalar.
	ControlKind
)

func (k BufferKind) String() string {
	switch k {
	case AudioKind:
		return "audio"
	case ControlKind:
		return "control"
	}
	return "unknown"
}

// Buffer is the memory backing exactly one port binding at a time. Buffers
// are owned by a BufferProvider; ports only reference them.
type Buffer interface {
	Kind() BufferKind
	// Refs returns the number of ports currently bound to this buffer.
	Refs() int32

	ref()
	unref()
	retiredAt() (uint64, bool)
	retire(cycle uint64)
	revive()
}

// buffer holds the bookkeeping shared by all buffer variants.
type buffer struct {
	refs    atomic.Int32
	retired atomic.Uint64 // cycle+1 of retirement, 0 while live
}

func (b *buffer) Refs() int32 { return b.refs.Load() }

func (b *buffer) ref() { b.refs.Add(1) }

func (b *buffer) unref() {
	if b.refs.Add(-1) < 0 {
		panic("audio: buffer reference count dropped below zero")
	}
}

func (b *buffer) retiredAt() (uint64, bool) {
	r := b.retired.Load()
	if r == 0 {
		return 0, false
	}
	return r - 1, true
}

func (b *buffer) retire(cycle uint64) { b.retired.Store(cycle + 1) }

func (b *buffer) revive() { b.retired.Store(0) }

// AudioBuffer is a block of float32 samples. Its length equals the
// engine's max block length at the time it was acquired.
type AudioBuffer struct {
	buffer
	data []float32
}

func newAudioBuffer(size int) *AudioBuffer {
	return &AudioBuffer{data: make([]float32, size)}
}

// Kind implements Buffer.
func (b *AudioBuffer) Kind() BufferKind { return AudioKind }

// Data returns the sample block. The slice is only safe to touch from the
// render thread while the buffer is bound.
func (b *AudioBuffer) Data() []float32 { return b.data }

// Len returns the number of samples in the block.
func (b *AudioBuffer) Len() int { return len(b.data) }

// Clear writes silence into the whole block.
func (b *AudioBuffer) Clear() {
	for i := range b.data {
		b.data[i] = 0
	}
}

// CopyFrom copies the first frames samples of src into b.
func (b *AudioBuffer) CopyFrom(src *AudioBuffer, frames int) {
	copy(b.data[:frames], src.data[:frames])
}

// Mix adds the first frames samples of src onto b.
func (b *AudioBuffer) Mix(src *AudioBuffer, frames int) {
	d := b.data[:frames]
	s := src.data[:frames]
	for i := range d {
		d[i] += s[i]
	}
}

// ControlBuffer holds a single scalar. The value written last is kept
// (the shadow value) regardless of which port the buffer is bound to, so a
// disconnected control port still reads a deterministic value.
type ControlBuffer struct {
	buffer
	bits atomic.Uint32
}

func newControlBuffer() *ControlBuffer {
	return &ControlBuffer{}
}

// Kind implements Buffer.
func (b *ControlBuffer) Kind() BufferKind { return ControlKind }

// Value returns the shadow value.
func (b *ControlBuffer) Value() float32 {
	return math.Float32frombits(b.bits.Load())
}

// SetValue overwrites the shadow value.
func (b *ControlBuffer) SetValue(v float32) {
	b.bits.Store(math.Float32bits(v))
}
