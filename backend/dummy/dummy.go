// Package dummy implements a backend without audio hardware. A goroutine
// ticking at the block period plays the role of the real-time thread; the
// most recently rendered output blocks are kept in a ring buffer so they
// can be inspected.
package dummy

import (
	"errors"
	"sync"
	"time"

	ringBuffer "github.com/dh1tw/golang-ring"
	"github.com/dh1tw/plughost/backend"
)

// Dummy implements backend.Backend.
type Dummy struct {
	sync.Mutex
	options Options
	ring    ringBuffer.Ring
	blocks  uint64
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// New returns a stopped dummy backend.
func New(opts ...Option) *Dummy {
	d := &Dummy{
		options: Options{
			SampleRate:     48000,
			BlockLength:    256,
			InputChannels:  2,
			OutputChannels: 2,
			History:        16,
		},
	}

	for _, option := range opts {
		option(&d.options)
	}

	if d.options.Period == 0 {
		d.options.Period = time.Duration(float64(time.Second) *
			float64(d.options.BlockLength) / d.options.SampleRate)
	}

	d.ring.SetCapacity(d.options.History)

	return d
}

// Name implements backend.Backend.
func (d *Dummy) Name() string { return "dummy" }

// SampleRate implements backend.Backend.
func (d *Dummy) SampleRate() float64 { return d.options.SampleRate }

// BlockLength implements backend.Backend.
func (d *Dummy) BlockLength() int { return d.options.BlockLength }

// Channels implements backend.Backend.
func (d *Dummy) Channels() (int, int) {
	return d.options.InputChannels, d.options.OutputChannels
}

// Start implements backend.Backend.
func (d *Dummy) Start(cb backend.Callback) error {
	d.Lock()
	defer d.Unlock()

	if d.running {
		return errors.New("dummy backend already running")
	}

	d.stop = make(chan struct{})
	d.done = make(chan struct{})
	d.running = true

	go d.run(cb, d.stop, d.done)

	return nil
}

func (d *Dummy) run(cb backend.Callback, stop, done chan struct{}) {
	defer close(done)

	in := makeChannels(d.options.InputChannels, d.options.BlockLength)
	out := makeChannels(d.options.OutputChannels, d.options.BlockLength)

	ticker := time.NewTicker(d.options.Period)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		for ch := range in {
			if d.options.Source != nil {
				d.options.Source(ch, in[ch])
				continue
			}
			for i := range in[ch] {
				in[ch][i] = 0
			}
		}

		cb(in, out)

		block := make([][]float32, len(out))
		for ch := range out {
			block[ch] = append([]float32(nil), out[ch]...)
		}

		d.Lock()
		d.ring.Enqueue(block)
		d.blocks++
		d.Unlock()
	}
}

// Stop implements backend.Backend.
func (d *Dummy) Stop() error {
	d.Lock()
	if !d.running {
		d.Unlock()
		return nil
	}
	d.running = false
	stop, done := d.stop, d.done
	d.Unlock()

	close(stop)
	<-done
	return nil
}

// Close implements backend.Backend.
func (d *Dummy) Close() error {
	return d.Stop()
}

// Blocks returns the number of blocks rendered since construction.
func (d *Dummy) Blocks() uint64 {
	d.Lock()
	defer d.Unlock()
	return d.blocks
}

// Captured returns copies of the most recently rendered output blocks,
// oldest first. Each block holds one slice per output channel.
func (d *Dummy) Captured() [][][]float32 {
	d.Lock()
	defer d.Unlock()

	values := d.ring.Values()
	res := make([][][]float32, 0, len(values))
	for _, v := range values {
		res = append(res, v.([][]float32))
	}
	return res
}

func makeChannels(n, frames int) [][]float32 {
	res := make([][]float32, n)
	for i := range res {
		res[i] = make([]float32, frames)
	}
	return res
}

// Provider creates dummy backends.
type Provider struct{}

// DisplayName implements backend.Provider.
func (Provider) DisplayName() string { return "Dummy (no audio hardware)" }

// CreateBackend implements backend.Provider.
func (Provider) CreateBackend(cfg backend.Config) (backend.Backend, error) {
	return New(
		SampleRate(cfg.SampleRate),
		BlockLength(cfg.BlockLength),
		Channels(cfg.InputChannels, cfg.OutputChannels),
	), nil
}
