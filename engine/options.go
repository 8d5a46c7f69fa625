package engine

import (
	"log/slog"

	"github.com/dh1tw/plughost/events"
	"github.com/dh1tw/plughost/metrics"
)

// Option is the type for a function option
type Option func(*Options)

// Options contains the parameters for initializing an Engine.
type Options struct {
	SampleRate     float64
	BlockLength    int
	InputChannels  int
	OutputChannels int
	Queue          []QueueOption
	Logger         *slog.Logger
	Metrics        *metrics.Engine
	Events         *events.Bus
}

// SampleRate sets the rate all nodes are activated with. A backend
// must run at the same rate.
func SampleRate(sr float64) Option {
	return func(args *Options) {
		if sr > 0 {
			args.SampleRate = sr
		}
	}
}

// BlockLength sets the max amount of frames rendered per cycle.
func BlockLength(n int) Option {
	return func(args *Options) {
		if n > 0 {
			args.BlockLength = n
		}
	}
}

// Channels sets the number of capture (input) and playback (output)
// backend ports.
func Channels(in, out int) Option {
	return func(args *Options) {
		if in >= 0 {
			args.InputChannels = in
		}
		if out >= 0 {
			args.OutputChannels = out
		}
	}
}

// Queue passes options to the engine's command queue.
func Queue(opts ...QueueOption) Option {
	return func(args *Options) {
		args.Queue = append(args.Queue, opts...)
	}
}

// Logger sets the logger of the engine and its queue.
func Logger(l *slog.Logger) Option {
	return func(args *Options) {
		args.Logger = l
	}
}

// Metrics sets the prometheus collectors updated by the engine.
func Metrics(m *metrics.Engine) Option {
	return func(args *Options) {
		args.Metrics = m
	}
}

// Events sets the bus graph changes are published on.
func Events(bus *events.Bus) Option {
	return func(args *Options) {
		args.Events = bus
	}
}
