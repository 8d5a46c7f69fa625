package dummy

import (
	"testing"
	"time"

	"github.com/dh1tw/plughost/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestDummyCapturesRenderedBlocks(t *testing.T) {
	d := New(
		BlockLength(4),
		Channels(1, 2),
		History(3),
		Period(time.Millisecond),
		Source(func(ch int, buf []float32) {
			for i := range buf {
				buf[i] = float32(ch + 1)
			}
		}),
	)

	var calls int
	require.NoError(t, d.Start(func(in, out [][]float32) {
		calls++
		for i := range out[0] {
			out[0][i] = in[0][i]
			out[1][i] = float32(calls)
		}
	}))
	assert.Error(t, d.Start(func(in, out [][]float32) {}))

	require.Eventually(t, func() bool { return d.Blocks() >= 5 }, time.Second, time.Millisecond)
	require.NoError(t, d.Stop())
	require.NoError(t, d.Stop())

	blocks := d.Captured()
	require.Len(t, blocks, 3)
	for i, b := range blocks {
		require.Len(t, b, 2)
		assert.Equal(t, []float32{1, 1, 1, 1}, b[0])
		if i > 0 {
			// oldest first
			assert.Equal(t, blocks[i-1][1][0]+1, b[1][0])
		}
	}
	assert.Equal(t, float32(calls), blocks[2][1][0])
}

func TestDummySilentWithoutSource(t *testing.T) {
	d := New(BlockLength(2), Channels(2, 1), Period(time.Millisecond))

	done := make(chan struct{})
	var got [][]float32
	require.NoError(t, d.Start(func(in, out [][]float32) {
		if got == nil {
			got = [][]float32{append([]float32(nil), in[0]...), append([]float32(nil), in[1]...)}
			close(done)
		}
	}))
	<-done
	require.NoError(t, d.Close())

	assert.Equal(t, [][]float32{{0, 0}, {0, 0}}, got)
}

func TestDummyDefaultPeriod(t *testing.T) {
	d := New(SampleRate(48000), BlockLength(480))
	assert.Equal(t, 10*time.Millisecond, d.options.Period)
	in, out := d.Channels()
	assert.Equal(t, 2, in)
	assert.Equal(t, 2, out)
}

func TestProvider(t *testing.T) {
	var p backend.Provider = Provider{}
	b, err := p.CreateBackend(backend.Config{SampleRate: 44100, BlockLength: 64, InputChannels: 0, OutputChannels: 1})
	require.NoError(t, err)

	assert.Equal(t, "dummy", b.Name())
	assert.Equal(t, float64(44100), b.SampleRate())
	assert.Equal(t, 64, b.BlockLength())
	in, out := b.Channels()
	assert.Equal(t, 0, in)
	assert.Equal(t, 1, out)
}
