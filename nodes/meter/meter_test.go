package meter

import (
	"testing"

	"github.com/dh1tw/plughost/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMeter(t *testing.T) *Meter {
	t.Helper()
	p := audio.NewBufferProvider(audio.BlockLength(100))
	m := New("m1")
	for _, port := range m.Ports() {
		port.Attach(p.Acquire(port.Type().BufferKind(), 0))
	}
	// 100 frames per cycle at 1 kHz, hold time of 0.25s = 250 frames
	require.NoError(t, m.Activate(1000, 100))
	m.hold.ControlBuffer().SetValue(0.25)
	return m
}

func fill(m *Meter, v float32) {
	data := m.in.AudioBuffer().Data()
	for i := range data {
		data[i] = v
	}
}

func TestRMS(t *testing.T) {
	assert.Equal(t, float32(0), rms(nil))
	assert.InDelta(t, 0.5, rms([]float32{0.5, -0.5, 0.5, -0.5}), 1e-6)
	assert.InDelta(t, 1/1.41421356, rms([]float32{1, 0}), 1e-6)
	assert.Equal(t, float32(0.9), peak([]float32{0.1, -0.9, 0.5}))
}

func TestMeterLevels(t *testing.T) {
	m := newMeter(t)
	fill(m, -0.3)
	m.Process(100)

	assert.InDelta(t, 0.3, m.rms.Value(), 1e-6)
	assert.InDelta(t, 0.3, m.peak.Value(), 1e-6)
	assert.InDelta(t, 0.3, m.Level(), 1e-6)
}

func TestMeterHold(t *testing.T) {
	m := newMeter(t)

	fill(m, 0.05)
	m.Process(100)
	assert.False(t, m.Active())

	fill(m, 0.5)
	m.Process(100)
	assert.True(t, m.Active())
	assert.Equal(t, float32(1), m.active.Value())

	// stays on during the hold time
	fill(m, 0)
	for i := 0; i < 2; i++ {
		m.Process(100)
		assert.True(t, m.Active())
	}
	m.Process(100)
	assert.False(t, m.Active())
	assert.Equal(t, float32(0), m.active.Value())
}
