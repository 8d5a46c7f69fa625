package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderAcquireSizes(t *testing.T) {
	p := NewBufferProvider(BlockLength(256))

	t.Run("BlockLength", func(t *testing.T) {
		b := p.Acquire(AudioKind, 0)
		ab, ok := b.(*AudioBuffer)
		require.True(t, ok)
		assert.Equal(t, 256, ab.Len())
	})

	t.Run("LargerHint", func(t *testing.T) {
		b := p.Acquire(AudioKind, 512)
		assert.Equal(t, 512, b.(*AudioBuffer).Len())
	})

	t.Run("Control", func(t *testing.T) {
		b := p.Acquire(ControlKind, 0)
		cb, ok := b.(*ControlBuffer)
		require.True(t, ok)
		assert.Equal(t, float32(0), cb.Value())
	})

	stats := p.Stats()
	assert.Equal(t, 3, stats.Allocated)
	assert.Equal(t, 3, stats.InUse)
}

func TestProviderReleaseBoundBufferPanics(t *testing.T) {
	p := NewBufferProvider(BlockLength(64))
	port := NewAudioPort(nil, "in", Input)
	b := p.Acquire(AudioKind, 0)
	port.Attach(b)

	assert.Panics(t, func() { p.Release(b) })

	port.Detach()
	assert.NotPanics(t, func() { p.Release(b) })
	assert.Panics(t, func() { p.Release(b) }, "double release")
}

func TestProviderReuseAfterFullCycle(t *testing.T) {
	p := NewBufferProvider(BlockLength(64))

	first := p.Acquire(AudioKind, 0)
	p.Release(first)

	// released during the current cycle: must not come back yet
	second := p.Acquire(AudioKind, 0)
	assert.NotSame(t, first, second)

	p.Advance()
	third := p.Acquire(AudioKind, 0)
	assert.NotSame(t, first, third, "one cycle boundary is not a full cycle")

	p.Advance()
	fourth := p.Acquire(AudioKind, 0)
	assert.Same(t, first, fourth)
	_, retired := fourth.retiredAt()
	assert.False(t, retired)
}

func TestProviderDropsBuffersOfOldBlockLength(t *testing.T) {
	p := NewBufferProvider(BlockLength(64))
	b := p.Acquire(AudioKind, 0)
	p.SetBlockLength(128)
	p.Release(b)
	assert.Equal(t, 0, p.Stats().Pooled)

	p.Advance()
	p.Advance()
	nb := p.Acquire(AudioKind, 0)
	assert.Equal(t, 128, nb.(*AudioBuffer).Len())
}

func TestProviderSetBlockLengthPrunesPool(t *testing.T) {
	p := NewBufferProvider(BlockLength(64))
	first := p.Acquire(AudioKind, 0)
	second := p.Acquire(AudioKind, 0)
	hinted := p.Acquire(AudioKind, 128)
	p.Release(first)
	p.Release(second)
	p.Release(hinted)
	require.Equal(t, 3, p.Stats().Pooled)

	p.SetBlockLength(32)
	assert.Equal(t, 0, p.Stats().Pooled)

	p.Advance()
	p.Advance()
	b := p.Acquire(AudioKind, 0)
	assert.Equal(t, 32, b.(*AudioBuffer).Len())
	assert.NotSame(t, first, b)
	assert.Equal(t, 4, p.Stats().Allocated)
}

func TestAudioBufferMix(t *testing.T) {
	p := NewBufferProvider(BlockLength(4))
	a := p.Acquire(AudioKind, 0).(*AudioBuffer)
	b := p.Acquire(AudioKind, 0).(*AudioBuffer)
	copy(a.Data(), []float32{1, 2, 3, 4})
	copy(b.Data(), []float32{1, 1, 1, 1})

	a.Mix(b, 3)
	assert.Equal(t, []float32{2, 3, 4, 4}, a.Data())

	b.CopyFrom(a, 2)
	assert.Equal(t, []float32{2, 3, 1, 1}, b.Data())

	a.Clear()
	assert.Equal(t, []float32{0, 0, 0, 0}, a.Data())
}
