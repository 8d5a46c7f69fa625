package audio

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// DefaultBlockLength is the max block length used when no other value has
// been configured.
const DefaultBlockLength = 1024

// reuseDistance is the number of completed render cycles a released buffer
// has to sit in the pool before it is handed out again.
const reuseDistance = 2

// ProviderStats is a snapshot of the provider's bookkeeping.
type ProviderStats struct {
	Allocated int // buffers created since construction
	InUse     int // acquired and not yet released
	Pooled    int // released, waiting for reuse
}

// BufferProvider allocates and recycles Buffers. It is the only owner of
// buffer memory; ports reference buffers but never allocate them.
//
// Acquire and Release are called from control goroutines. Advance is
// called by the render thread at the end of every cycle and is lock free.
type BufferProvider struct {
	mu          sync.Mutex
	options     Options
	blockLength int
	cycle       atomic.Uint64
	audio       []*AudioBuffer
	control     []*ControlBuffer
	stats       ProviderStats
}

// NewBufferProvider returns a provider issuing audio buffers of the
// configured block length.
func NewBufferProvider(opts ...Option) *BufferProvider {
	p := &BufferProvider{
		options: Options{
			BlockLength: DefaultBlockLength,
		},
	}

	for _, option := range opts {
		option(&p.options)
	}

	p.blockLength = p.options.BlockLength

	return p
}

// BlockLength returns the current max block length.
func (p *BufferProvider) BlockLength() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.blockLength
}

// SetBlockLength changes the size of audio buffers acquired from now on.
// Pooled buffers of a different size are dropped.
func (p *BufferProvider) SetBlockLength(n int) {
	if n <= 0 {
		panic(fmt.Sprintf("audio: invalid block length %d", n))
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blockLength = n

	kept := p.audio[:0]
	for _, b := range p.audio {
		if b.Len() == n {
			kept = append(kept, b)
		}
	}
	clear(p.audio[len(kept):])
	p.audio = kept
}

// Cycle returns the number of completed render cycles.
func (p *BufferProvider) Cycle() uint64 {
	return p.cycle.Load()
}

// Advance marks the end of a render cycle.
func (p *BufferProvider) Advance() {
	p.cycle.Add(1)
}

// Acquire returns a buffer of the requested kind. Audio buffers hold
// max(sizeHint, BlockLength()) samples. The buffer stays valid until it is
// handed back with Release.
func (p *BufferProvider) Acquire(kind BufferKind, sizeHint int) Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.cycle.Load()
	p.stats.InUse++

	switch kind {
	case AudioKind:
		size := p.blockLength
		if sizeHint > size {
			size = sizeHint
		}
		for i, b := range p.audio {
			if !reusable(b, now) || b.Len() != size {
				continue
			}
			p.audio = append(p.audio[:i], p.audio[i+1:]...)
			b.revive()
			b.Clear()
			return b
		}
		p.stats.Allocated++
		return newAudioBuffer(size)

	case ControlKind:
		for i, b := range p.control {
			if !reusable(b, now) {
				continue
			}
			p.control = append(p.control[:i], p.control[i+1:]...)
			b.revive()
			b.SetValue(0)
			return b
		}
		p.stats.Allocated++
		return newControlBuffer()
	}

	p.stats.InUse--
	panic(fmt.Sprintf("audio: unknown buffer kind %d", kind))
}

// Release hands a buffer back to the provider. Releasing a buffer that is
// still bound to a port is a programming error and panics; so does
// releasing the same buffer twice.
func (p *BufferProvider) Release(b Buffer) {
	if refs := b.Refs(); refs != 0 {
		panic(fmt.Sprintf("audio: release of %s buffer still bound to %d port(s)", b.Kind(), refs))
	}
	if _, retired := b.retiredAt(); retired {
		panic(fmt.Sprintf("audio: %s buffer released twice", b.Kind()))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	b.retire(p.cycle.Load())
	p.stats.InUse--

	switch buf := b.(type) {
	case *AudioBuffer:
		if buf.Len() < p.blockLength {
			// too small for the current block length, let it go
			return
		}
		p.audio = append(p.audio, buf)
	case *ControlBuffer:
		p.control = append(p.control, buf)
	}
}

// Stats returns a snapshot of the provider's counters.
func (p *BufferProvider) Stats() ProviderStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.stats
	s.Pooled = len(p.audio) + len(p.control)
	return s
}

func reusable(b Buffer, now uint64) bool {
	at, ok := b.retiredAt()
	return ok && now >= at+reuseDistance
}
