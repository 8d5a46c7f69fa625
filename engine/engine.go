package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dh1tw/plughost/audio"
	"github.com/dh1tw/plughost/backend"
	"github.com/dh1tw/plughost/events"
	"github.com/dh1tw/plughost/metrics"
)

// Engine owns the processing graph, the buffer provider and the command
// queue of one running host. There is exactly one Engine per process; it
// is created at startup and handed to everything that needs to change the
// graph.
//
// Graph mutations (AddNode, Connect, ...) are performed on the control
// side model and committed to the render thread through the command
// queue. While no backend is running, commands execute synchronously on
// the submitting goroutine.
type Engine struct {
	options  Options
	log      *slog.Logger
	metrics  *metrics.Engine
	bus      *events.Bus
	queue    *CommandQueue
	provider *audio.BufferProvider

	stateMu   sync.RWMutex // running / backend
	running   bool
	backend   backend.Backend
	offlineMu sync.Mutex // serializes commands while stopped

	mu    sync.Mutex // control side graph model
	model *model

	// render thread state, written only by commands
	plan       *plan
	capture    []*audio.BackendPort
	playback   []*audio.BackendPort
	processing atomic.Bool
}

// New returns a stopped engine with its backend ports registered.
func New(opts ...Option) *Engine {
	e := &Engine{
		options: Options{
			SampleRate:     48000,
			BlockLength:    audio.DefaultBlockLength,
			InputChannels:  2,
			OutputChannels: 2,
		},
		model: newModel(),
		plan:  &plan{},
	}

	for _, option := range opts {
		option(&e.options)
	}

	e.log = e.options.Logger
	if e.log == nil {
		e.log = slog.Default()
	}
	e.metrics = e.options.Metrics
	if e.metrics == nil {
		e.metrics = metrics.NewEngine(nil)
	}
	e.bus = e.options.Events

	qopts := append([]QueueOption{QueueLogger(e.log), QueueMetrics(e.metrics)}, e.options.Queue...)
	e.queue = NewCommandQueue(qopts...)
	e.log = e.log.With("component", "engine")

	e.provider = audio.NewBufferProvider(audio.BlockLength(e.options.BlockLength))

	for i := 0; i < e.options.InputChannels; i++ {
		p := audio.NewBackendPort(fmt.Sprintf("capture_%d", i+1), audio.Output)
		p.Attach(e.provider.Acquire(audio.AudioKind, 0))
		e.capture = append(e.capture, p)
		e.model.system = append(e.model.system, p)
	}
	for i := 0; i < e.options.OutputChannels; i++ {
		p := audio.NewBackendPort(fmt.Sprintf("playback_%d", i+1), audio.Input)
		p.Attach(e.provider.Acquire(audio.AudioKind, 0))
		e.playback = append(e.playback, p)
		e.model.system = append(e.model.system, p)
	}

	return e
}

// SampleRate returns the rate nodes are activated with.
func (e *Engine) SampleRate() float64 { return e.options.SampleRate }

// BlockLength returns the max number of frames per cycle.
func (e *Engine) BlockLength() int { return e.options.BlockLength }

// Provider returns the engine's buffer provider.
func (e *Engine) Provider() *audio.BufferProvider { return e.provider }

// Queue returns the engine's command queue.
func (e *Engine) Queue() *CommandQueue { return e.queue }

// Running reports whether a backend is driving the engine.
func (e *Engine) Running() bool {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.running
}

// Start attaches b and starts rendering. The backend's callback becomes
// the render thread.
func (e *Engine) Start(b backend.Backend) error {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	if e.running {
		return ErrRunning
	}
	if b.SampleRate() != e.options.SampleRate {
		return fmt.Errorf("%w: backend %s runs at %v Hz, engine at %v Hz",
			ErrSampleRate, b.Name(), b.SampleRate(), e.options.SampleRate)
	}

	if err := b.Start(e.render); err != nil {
		return fmt.Errorf("start backend %s: %w", b.Name(), err)
	}

	e.backend = b
	e.running = true
	e.log.Info("engine started", "backend", b.Name(),
		"samplerate", e.options.SampleRate, "blocklength", e.options.BlockLength)
	e.bus.Publish(events.Event{Topic: events.EngineStarted, Name: b.Name()})

	return nil
}

// Stop waits for in-flight submissions, stops the backend and executes
// the commands still queued on the calling goroutine.
func (e *Engine) Stop() error {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	if !e.running {
		return nil
	}

	err := e.backend.Stop()
	if err != nil {
		e.log.Error("unable to stop backend", "backend", e.backend.Name(), "error", err)
	}
	e.running = false

	ctx := &Context{cycle: e.provider.Cycle(), engine: e}
	for e.queue.Len() > 0 {
		e.queue.Process(ctx)
	}

	e.log.Info("engine stopped", "backend", e.backend.Name())
	e.bus.Publish(events.Event{Topic: events.EngineStopped, Name: e.backend.Name()})
	e.backend = nil

	return err
}

// Submit hands cmd to the render thread. While the engine is stopped the
// command runs on the calling goroutine instead.
func (e *Engine) Submit(cmd Command) {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()

	if e.running {
		e.queue.Push(cmd)
		return
	}

	e.offlineMu.Lock()
	defer e.offlineMu.Unlock()
	cmd.PreExecute()
	cmd.Execute(&Context{cycle: e.provider.Cycle(), engine: e})
}

// render is the backend callback. Blocks larger than the engine's block
// length are split.
func (e *Engine) render(in, out [][]float32) {
	frames := 0
	switch {
	case len(out) > 0:
		frames = len(out[0])
	case len(in) > 0:
		frames = len(in[0])
	}

	for offset := 0; offset < frames; {
		n := frames - offset
		if n > e.options.BlockLength {
			n = e.options.BlockLength
		}

		for i, p := range e.capture {
			data := p.AudioBuffer().Data()[:n]
			if i < len(in) {
				copy(data, in[i][offset:offset+n])
				continue
			}
			for j := range data {
				data[j] = 0
			}
		}

		e.Process(n)

		for i, p := range e.playback {
			if i >= len(out) {
				break
			}
			copy(out[i][offset:offset+n], p.AudioBuffer().Data()[:n])
		}

		offset += n
	}
}

// Process runs one render cycle of frames samples: queued commands are
// executed first, then every node in topological order. It must only be
// called from the render thread; concurrent calls panic, as do calls with
// more frames than the block length.
func (e *Engine) Process(frames int) {
	if frames < 0 || frames > e.options.BlockLength {
		panic(fmt.Sprintf("engine: Process called with %d frames, block length is %d",
			frames, e.options.BlockLength))
	}
	if !e.processing.CompareAndSwap(false, true) {
		panic("engine: Process called from more than one thread")
	}
	defer e.processing.Store(false)

	start := time.Now()
	ctx := Context{cycle: e.provider.Cycle(), frames: frames, engine: e}

	e.queue.Process(&ctx)

	p := e.plan
	for i := range p.steps {
		st := &p.steps[i]
		for j := range st.mixes {
			st.mixes[j].run(frames)
		}
		st.node.Process(frames)
	}
	for j := range p.tail {
		p.tail[j].run(frames)
	}

	e.provider.Advance()
	e.metrics.Cycles.Inc()
	e.metrics.CycleDuration.Observe(time.Since(start).Seconds())
}
