// Package wav reads RIFF/WAVE files.
package wav

import (
	"errors"
	"fmt"
	"os"

	ga "github.com/go-audio/audio"
	wav "github.com/go-audio/wav"

	"github.com/dh1tw/plughost/audiocodec"
)

// ErrInvalidFile is returned for files without a valid wav header.
var ErrInvalidFile = errors.New("invalid wav file")

// Reader decodes integer PCM wav files.
type Reader struct{}

// Name implements audiocodec.Reader.
func (Reader) Name() string { return "wav" }

// Extensions implements audiocodec.Reader.
func (Reader) Extensions() []string { return []string{".wav", ".wave"} }

// Decode implements audiocodec.Reader. The samples are scaled to
// [-1, 1] and resampled to sampleRate.
func (Reader) Decode(path string, sampleRate float64) (*audiocodec.SampleBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFile, path)
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, err
	}

	channels := int(d.NumChans)
	max := float32(ga.IntMaxSignedValue(int(d.BitDepth)))
	if max == 0 {
		return nil, fmt.Errorf("%w: unsupported bit depth %d", ErrInvalidFile, d.BitDepth)
	}

	data := make([]float32, len(buf.Data))
	for i, s := range buf.Data {
		data[i] = float32(s) / max
	}

	return audiocodec.NewSampleBuffer(data, channels, float64(d.SampleRate), sampleRate)
}
