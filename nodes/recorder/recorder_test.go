package recorder

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/dh1tw/plughost/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecorder(t *testing.T, opts ...Option) *Recorder {
	t.Helper()
	r := New("rec1", filepath.Join(t.TempDir(), "take.wav"), opts...)
	provider := audio.NewBufferProvider(audio.BlockLength(4))
	for _, port := range r.Ports() {
		port.Attach(provider.Acquire(port.Type().BufferKind(), 0))
	}
	return r
}

func fill(p *audio.AudioPort, samples ...float32) {
	copy(p.AudioBuffer().Data(), samples)
}

func TestRecorderPorts(t *testing.T) {
	r := newRecorder(t, Channels(1))
	var names []string
	for _, port := range r.Ports() {
		names = append(names, port.Name())
	}
	assert.Equal(t, []string{"in_1", "record"}, names)
	assert.Equal(t, Name, r.Name())
	assert.Equal(t, 12, New("x", "x.wav", BitDepth(12)).options.BitDepth)
	assert.Equal(t, 16, New("x", "x.wav", BitDepth(24)).options.BitDepth)
}

func TestRecorderWritesWav(t *testing.T) {
	r := newRecorder(t)
	require.NoError(t, r.Activate(48000, 4))

	fill(r.ins[0], 0.5, -0.5, 1, -1)
	fill(r.ins[1], 0, 0.25, 0, 0.25)
	r.Process(4)

	// paused
	r.record.ControlBuffer().SetValue(0)
	r.Process(4)

	r.record.ControlBuffer().SetValue(1)
	r.Process(2)
	r.Deactivate()

	assert.Equal(t, 6, r.Frames())
	assert.Equal(t, 0, r.Dropped())

	f, err := os.Open(r.Path())
	require.NoError(t, err)
	defer f.Close()

	d := wav.NewDecoder(f)
	require.True(t, d.IsValidFile())
	buf, err := d.FullPCMBuffer()
	require.NoError(t, err)
	assert.Equal(t, 2, int(d.NumChans))
	assert.Equal(t, 48000, int(d.SampleRate))
	assert.Equal(t, []int{
		16383, 0, -16383, 8191, 32767, 0, -32767, 8191,
		16383, 0, -16383, 8191,
	}, buf.Data)
}

func TestRecorderDeactivateWithoutActivate(t *testing.T) {
	r := newRecorder(t)
	assert.NotPanics(t, r.Deactivate)
}

func TestRecorderCreateFails(t *testing.T) {
	r := New("rec1", filepath.Join(t.TempDir(), "missing", "take.wav"))
	assert.Error(t, r.Activate(48000, 4))
}

func TestRecorderLogsCloseErrors(t *testing.T) {
	var logs bytes.Buffer
	r := newRecorder(t, Logger(slog.New(slog.NewTextHandler(&logs, nil))))
	require.NoError(t, r.Activate(48000, 4))

	// pull the file out from under the writer
	require.NoError(t, r.file.Close())
	r.Deactivate()

	assert.Contains(t, logs.String(), "unable to close wav file")
	assert.Contains(t, logs.String(), os.ErrClosed.Error())
}
