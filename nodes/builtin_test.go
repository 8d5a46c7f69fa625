package nodes

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dh1tw/plughost/audiocodec"
	"github.com/dh1tw/plughost/nodes/recorder"
	"github.com/dh1tw/plughost/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rawReader struct{}

func (rawReader) Name() string         { return "raw" }
func (rawReader) Extensions() []string { return []string{".raw"} }

func (rawReader) Decode(path string, sampleRate float64) (*audiocodec.SampleBuffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	samples := make([]float32, len(data))
	for i, b := range data {
		samples[i] = float32(b) / 255
	}
	return audiocodec.NewSampleBuffer(samples, 1, sampleRate, sampleRate)
}

func TestFactory(t *testing.T) {
	audiocodec.Register(rawReader{})
	defer audiocodec.Unregister(rawReader{})

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "beep.raw"), []byte{255, 0, 255}, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	f := &Factory{SampleDir: dir, SampleRate: 48000}
	assert.Equal(t, []string{"gain", "meter", "player:beep.raw"}, f.Names())

	table := plugin.NewTable(f)

	n, err := table.New("g", "builtin/gain")
	require.NoError(t, err)
	assert.Len(t, n.Ports(), 4)

	n, err = table.New("m", "meter")
	require.NoError(t, err)
	assert.Equal(t, "meter", n.Name())

	n, err = table.New("p", "builtin/player:beep.raw")
	require.NoError(t, err)
	assert.Equal(t, "player:beep.raw", n.Name())
	// one output plus play, loop, gain and rewind
	assert.Len(t, n.Ports(), 5)

	_, err = f.New("x", "player:notes.txt")
	assert.Error(t, err)
	_, err = table.New("x", "builtin/reverb")
	assert.ErrorIs(t, err, plugin.ErrUnknownPlugin)
}

func TestFactoryRecorder(t *testing.T) {
	dir := t.TempDir()
	f := &Factory{RecordDir: dir, SampleRate: 48000}
	assert.Equal(t, []string{"gain", "meter", "recorder"}, f.Names())

	n, err := f.New("take1", "recorder")
	require.NoError(t, err)
	rec, ok := n.(*recorder.Recorder)
	require.True(t, ok)
	assert.Equal(t, dir, filepath.Dir(rec.Path()))
	assert.True(t, strings.HasPrefix(filepath.Base(rec.Path()), "take1-"))
	assert.Equal(t, ".wav", filepath.Ext(rec.Path()))
}

func TestFactoryWithoutSamples(t *testing.T) {
	f := &Factory{SampleRate: 48000}
	assert.Equal(t, []string{"gain", "meter"}, f.Names())
	_, err := f.New("r", "recorder")
	assert.Error(t, err)

	f.SampleDir = filepath.Join(t.TempDir(), "missing")
	assert.Equal(t, []string{"gain", "meter"}, f.Names())
}
