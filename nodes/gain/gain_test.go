package gain

import (
	"testing"

	"github.com/dh1tw/plughost/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func attach(t *testing.T, p *audio.BufferProvider, ports []audio.Port) {
	t.Helper()
	for _, port := range ports {
		port.Attach(p.Acquire(port.Type().BufferKind(), 0))
	}
}

func TestDBToLinear(t *testing.T) {
	assert.InDelta(t, 1, DBToLinear(0), 1e-6)
	assert.InDelta(t, 10, DBToLinear(20), 1e-4)
	assert.InDelta(t, 0.5012, DBToLinear(-6), 1e-3)
}

func TestGainProcess(t *testing.T) {
	p := audio.NewBufferProvider(audio.BlockLength(4))
	g := New("g1")
	attach(t, p, g.Ports())
	require.NoError(t, g.Activate(48000, 4))

	copy(g.in.AudioBuffer().Data(), []float32{0.1, 0.2, 0.3, 0.4})

	g.Process(4)
	assert.InDeltaSlice(t, []float32{0.1, 0.2, 0.3, 0.4}, g.out.AudioBuffer().Data(), 1e-6)

	g.gain.ControlBuffer().SetValue(20)
	g.Process(2)
	out := g.out.AudioBuffer().Data()
	assert.InDelta(t, 1, out[0], 1e-4)
	assert.InDelta(t, 2, out[1], 1e-4)

	g.mute.ControlBuffer().SetValue(1)
	g.Process(4)
	assert.Equal(t, []float32{0, 0, 0, 0}, g.out.AudioBuffer().Data())

	assert.Equal(t, "g1", g.ID())
	assert.Equal(t, Name, g.Name())
}
