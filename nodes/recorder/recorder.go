// Package recorder contains a node writing its inputs to a wav file.
package recorder

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"

	"github.com/dh1tw/plughost/audio"
	ga "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Name is the plugin name of recorder nodes.
const Name = "recorder"

// block is one rendered cycle, interleaved.
type block struct {
	data   []float32
	frames int
}

// Recorder writes the signal on its inputs into a wav file while its
// "record" control is set. The render thread only copies samples into
// preallocated blocks; encoding and file io happen on a separate
// goroutine.
type Recorder struct {
	id      string
	path    string
	options Options
	log     *slog.Logger

	ins    []*audio.AudioPort
	record *audio.ControlPort
	ports  []audio.Port

	free chan *block
	full chan *block
	wg   sync.WaitGroup

	file    *os.File
	encoder *wav.Encoder
	err     error

	written atomic.Int64
	dropped atomic.Int64
}

// New returns a recorder writing to path. The file is created when the
// node is activated.
func New(id, path string, opts ...Option) *Recorder {
	r := &Recorder{
		id:   id,
		path: path,
		options: Options{
			Channels: DefaultChannels,
			BitDepth: DefaultBitDepth,
			Blocks:   DefaultBlocks,
		},
	}

	for _, o := range opts {
		o(&r.options)
	}

	// make sure we only allow 12 / 16 bit Bitdepth (dynamic range)
	switch r.options.BitDepth {
	case 12, 16:
	default:
		r.options.BitDepth = 16
	}

	r.log = r.options.Logger
	if r.log == nil {
		r.log = slog.Default()
	}
	r.log = r.log.With("component", "recorder", "node", id)

	for i := 0; i < r.options.Channels; i++ {
		in := audio.NewAudioPort(r, fmt.Sprintf("in_%d", i+1), audio.Input)
		r.ins = append(r.ins, in)
		r.ports = append(r.ports, in)
	}
	r.record = audio.NewControlPort(r, "record", audio.Input, 1)
	r.ports = append(r.ports, r.record)

	return r
}

func (r *Recorder) ID() string          { return r.id }
func (r *Recorder) Name() string        { return Name }
func (r *Recorder) Ports() []audio.Port { return r.ports }

// Path returns the file the recorder writes to.
func (r *Recorder) Path() string { return r.path }

// Activate creates the wav file and starts the writer.
func (r *Recorder) Activate(sampleRate float64, blockLength int) error {
	f, err := os.Create(r.path)
	if err != nil {
		return fmt.Errorf("recorder %s: %w", r.id, err)
	}
	r.file = f
	r.encoder = wav.NewEncoder(f, int(sampleRate), r.options.BitDepth, r.options.Channels, 1)
	r.err = nil

	r.free = make(chan *block, r.options.Blocks)
	r.full = make(chan *block, r.options.Blocks)
	for i := 0; i < r.options.Blocks; i++ {
		r.free <- &block{data: make([]float32, blockLength*r.options.Channels)}
	}

	r.wg.Add(1)
	go r.write(int(sampleRate), blockLength)

	r.log.Info("recording", "path", r.path, "samplerate", sampleRate,
		"channels", r.options.Channels, "bitdepth", r.options.BitDepth)
	return nil
}

// Process implements audio.Node.
func (r *Recorder) Process(frames int) {
	if r.record.Value() < 0.5 {
		return
	}

	var b *block
	select {
	case b = <-r.free:
	default:
		r.dropped.Add(1)
		return
	}

	chs := len(r.ins)
	for ch, in := range r.ins {
		src := in.AudioBuffer().Data()
		for i := 0; i < frames; i++ {
			b.data[i*chs+ch] = src[i]
		}
	}
	b.frames = frames
	r.full <- b
}

// write encodes the blocks handed over by Process until full is closed.
func (r *Recorder) write(sampleRate, blockLength int) {
	defer r.wg.Done()

	// max size of an audio sample converted from float32 to int
	max := ga.IntMaxSignedValue(r.options.BitDepth)

	buf := &ga.IntBuffer{
		Format: &ga.Format{
			SampleRate:  sampleRate,
			NumChannels: r.options.Channels,
		},
		SourceBitDepth: r.options.BitDepth,
		Data:           make([]int, 0, blockLength*r.options.Channels),
	}

	for b := range r.full {
		buf.Data = buf.Data[:0]
		for _, s := range b.data[:b.frames*r.options.Channels] {
			f := int(s * float32(max))
			if f > max {
				f = max
			} else if f < -max {
				f = -max
			}
			buf.Data = append(buf.Data, f)
		}
		r.free <- b

		if r.err != nil {
			continue
		}
		if err := r.encoder.Write(buf); err != nil {
			r.err = err
			r.log.Error("unable to write to wav file", "path", r.path, "error", err)
			continue
		}
		r.written.Add(int64(len(buf.Data) / r.options.Channels))
	}
}

// Deactivate flushes the pending blocks and closes the file.
func (r *Recorder) Deactivate() {
	if r.full == nil {
		return
	}
	close(r.full)
	r.wg.Wait()
	r.full = nil

	if err := r.encoder.Close(); err != nil {
		r.log.Error("unable to finalize wav file", "path", r.path, "error", err)
	}
	if err := r.file.Close(); err != nil {
		r.log.Error("unable to close wav file", "path", r.path, "error", err)
	}

	if n := r.dropped.Load(); n > 0 {
		r.log.Warn("blocks dropped while recording", "path", r.path, "blocks", n)
	}
	r.log.Info("recording finished", "path", r.path, "frames", r.Frames())
}

// Frames returns the number of frames written to the file.
func (r *Recorder) Frames() int { return int(r.written.Load()) }

// Dropped returns the number of cycles which could not be recorded
// because the writer fell behind.
func (r *Recorder) Dropped() int { return int(r.dropped.Load()) }
