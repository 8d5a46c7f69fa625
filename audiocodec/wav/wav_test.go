package wav

import (
	"os"
	"path/filepath"
	"testing"

	ga "github.com/go-audio/audio"
	wav "github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dh1tw/plughost/audiocodec"
)

func writeWav(t *testing.T, path string, sampleRate, channels int, data []int) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	require.NoError(t, enc.Write(&ga.IntBuffer{
		Format:         &ga.Format{SampleRate: sampleRate, NumChannels: channels},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
}

func TestDecodeStereo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	writeWav(t, path, 48000, 2, []int{16384, -16384, 0, 32767, -32768, 8192})

	buf, err := Reader{}.Decode(path, 48000)
	require.NoError(t, err)

	assert.Equal(t, float64(48000), buf.SampleRate)
	require.Len(t, buf.Channels, 2)
	assert.Equal(t, 3, buf.Frames())
	assert.InDeltaSlice(t, []float32{0.5, 0, -1}, buf.Channels[0], 1e-4)
	assert.InDeltaSlice(t, []float32{-0.5, 1, 0.25}, buf.Channels[1], 1e-4)
}

func TestDecodeInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.wav")
	require.NoError(t, os.WriteFile(path, []byte("not a wav file"), 0o644))

	_, err := Reader{}.Decode(path, 48000)
	assert.ErrorIs(t, err, ErrInvalidFile)

	_, err = Reader{}.Decode(filepath.Join(t.TempDir(), "missing.wav"), 48000)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRegistered(t *testing.T) {
	audiocodec.Register(Reader{})
	defer audiocodec.Unregister(Reader{})

	path := filepath.Join(t.TempDir(), "mono.WAV")
	writeWav(t, path, 48000, 1, []int{16384, 16384})

	buf, err := audiocodec.Decode(path, 48000)
	require.NoError(t, err)
	assert.Equal(t, 2, buf.Frames())
	assert.Contains(t, audiocodec.Extensions(), ".wave")
}
