// Package opus reads Ogg/Opus files.
package opus

import (
	"errors"
	"io"
	"os"

	opus "gopkg.in/hraban/opus.v2"

	"github.com/dh1tw/plughost/audiocodec"
)

// Opus streams always decode at 48 kHz.
const streamRate = 48000

// Option is the type for a function option
type Option func(*Options)

// Options contains the parameters of a Reader.
type Options struct {
	Channels        int
	FramesPerBuffer int
}

// Channels sets the channel count of the files the reader decodes.
// Default: 2
func Channels(n int) Option {
	return func(args *Options) {
		args.Channels = n
	}
}

// FramesPerBuffer sets the number of frames decoded per read. Default:
// 5760 (120ms, the longest opus packet).
func FramesPerBuffer(n int) Option {
	return func(args *Options) {
		args.FramesPerBuffer = n
	}
}

// Reader decodes Ogg/Opus files.
type Reader struct {
	options Options
}

// NewReader returns an opus file reader.
func NewReader(opts ...Option) *Reader {
	r := &Reader{
		options: Options{
			Channels:        2,
			FramesPerBuffer: 5760,
		},
	}
	for _, option := range opts {
		option(&r.options)
	}
	return r
}

// Name implements audiocodec.Reader.
func (r *Reader) Name() string { return "opus" }

// Extensions implements audiocodec.Reader.
func (r *Reader) Extensions() []string { return []string{".opus", ".ogg"} }

// Decode implements audiocodec.Reader.
func (r *Reader) Decode(path string, sampleRate float64) (*audiocodec.SampleBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := r.read(f)
	if err != nil {
		return nil, err
	}

	return audiocodec.NewSampleBuffer(data, r.options.Channels, streamRate, sampleRate)
}

// read decodes the whole stream into interleaved samples.
func (r *Reader) read(src io.Reader) ([]float32, error) {
	s, err := opus.NewStream(src)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	channels := r.options.Channels
	pcm := make([]float32, r.options.FramesPerBuffer*channels)
	var data []float32

	for {
		n, err := s.ReadFloat32(pcm)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		data = append(data, pcm[:n*channels]...)
	}

	return data, nil
}
