package opus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderDefaults(t *testing.T) {
	r := NewReader()
	assert.Equal(t, "opus", r.Name())
	assert.Equal(t, []string{".opus", ".ogg"}, r.Extensions())
	assert.Equal(t, 2, r.options.Channels)

	r = NewReader(Channels(1), FramesPerBuffer(960))
	assert.Equal(t, 1, r.options.Channels)
	assert.Equal(t, 960, r.options.FramesPerBuffer)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.opus")
	require.NoError(t, os.WriteFile(path, []byte("definitely not ogg"), 0o644))

	_, err := NewReader().Decode(path, 48000)
	assert.Error(t, err)

	_, err = NewReader().Decode(filepath.Join(t.TempDir(), "missing.opus"), 48000)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
