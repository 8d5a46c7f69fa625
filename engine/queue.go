package engine

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dh1tw/plughost/metrics"
)

const (
	// DefaultQueueCapacity is the number of commands the queue holds
	// before producers block.
	DefaultQueueCapacity = 256
	// DefaultMaxPerCycle is the number of commands drained per render
	// cycle.
	DefaultMaxPerCycle = 32
)

// QueueOption is the type for a CommandQueue function option
type QueueOption func(*QueueOptions)

// QueueOptions contains the parameters of a CommandQueue.
type QueueOptions struct {
	Capacity    int
	MaxPerCycle int
	Logger      *slog.Logger
	Metrics     *metrics.Engine
}

// Capacity sets the fixed number of commands the queue can hold.
func Capacity(n int) QueueOption {
	return func(args *QueueOptions) {
		if n > 0 {
			args.Capacity = n
		}
	}
}

// MaxPerCycle bounds the number of commands executed by one Process call.
func MaxPerCycle(n int) QueueOption {
	return func(args *QueueOptions) {
		if n > 0 {
			args.MaxPerCycle = n
		}
	}
}

// QueueLogger sets the logger of the queue.
func QueueLogger(l *slog.Logger) QueueOption {
	return func(args *QueueOptions) {
		args.Logger = l
	}
}

// QueueMetrics sets the collectors updated by the queue.
func QueueMetrics(m *metrics.Engine) QueueOption {
	return func(args *QueueOptions) {
		args.Metrics = m
	}
}

type pending struct {
	cmd  Command
	done chan struct{}
}

// CommandQueue moves commands from any number of producer goroutines into
// the render thread. Commands execute in the order they were queued; a
// full queue blocks producers, nothing is ever dropped.
type CommandQueue struct {
	options    QueueOptions
	mu         sync.Mutex // serializes producers
	pending    chan *pending
	processing atomic.Bool
	log        *slog.Logger
	metrics    *metrics.Engine
}

// NewCommandQueue returns an empty queue.
func NewCommandQueue(opts ...QueueOption) *CommandQueue {
	q := &CommandQueue{
		options: QueueOptions{
			Capacity:    DefaultQueueCapacity,
			MaxPerCycle: DefaultMaxPerCycle,
		},
	}

	for _, option := range opts {
		option(&q.options)
	}

	q.log = q.options.Logger
	if q.log == nil {
		q.log = slog.Default()
	}
	q.log = q.log.With("component", "queue")

	q.metrics = q.options.Metrics
	if q.metrics == nil {
		q.metrics = metrics.NewEngine(nil)
	}

	q.pending = make(chan *pending, q.options.Capacity)

	return q
}

// Push runs cmd.PreExecute on the calling goroutine and queues the
// command. If the queue is full, Push waits for the render thread to make
// room. For blocking commands Push returns only after Execute has run.
func (q *CommandQueue) Push(cmd Command) {
	cmd.PreExecute()

	p := &pending{cmd: cmd}
	if cmd.Blocking() {
		p.done = make(chan struct{})
	}

	q.mu.Lock()
	select {
	case q.pending <- p:
	default:
		q.metrics.QueueSaturated.Inc()
		q.log.Debug("command queue saturated, waiting for render thread",
			"capacity", q.options.Capacity)
		q.pending <- p
	}
	q.mu.Unlock()

	if p.done != nil {
		<-p.done
	}
}

// Process executes up to MaxPerCycle queued commands in FIFO order and
// returns how many ran. It never waits for producers. Process must only be
// called by the render thread; concurrent calls panic.
func (q *CommandQueue) Process(ctx *Context) int {
	if !q.processing.CompareAndSwap(false, true) {
		panic("engine: CommandQueue.Process called from more than one thread")
	}
	defer q.processing.Store(false)

	n := 0
drain:
	for n < q.options.MaxPerCycle {
		select {
		case p := <-q.pending:
			p.cmd.Execute(ctx)
			if p.done != nil {
				close(p.done)
			}
			n++
		default:
			break drain
		}
	}

	q.metrics.CommandsExecuted.Add(float64(n))
	q.metrics.QueueDepth.Set(float64(len(q.pending)))

	return n
}

// Len returns the number of queued commands.
func (q *CommandQueue) Len() int {
	return len(q.pending)
}

// Options returns a copy of the queue's options.
func (q *CommandQueue) Options() QueueOptions {
	return q.options
}
