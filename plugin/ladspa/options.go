package ladspa

import (
	"log/slog"

	"github.com/dh1tw/plughost/events"
	"github.com/dh1tw/plughost/metrics"
)

// Option is the type for a function option
type Option func(*Options)

// Options contains the parameters of a Registry.
type Options struct {
	Loader  LoaderFunc
	Logger  *slog.Logger
	Metrics *metrics.Discovery
	Events  *events.Bus
}

// Loader replaces the function used to open shared libraries.
func Loader(fn LoaderFunc) Option {
	return func(args *Options) {
		args.Loader = fn
	}
}

// Logger sets the logger of the registry.
func Logger(l *slog.Logger) Option {
	return func(args *Options) {
		args.Logger = l
	}
}

// Metrics sets the discovery collectors.
func Metrics(m *metrics.Discovery) Option {
	return func(args *Options) {
		args.Metrics = m
	}
}

// Events sets the bus a PluginsDiscovered event is published on after
// every scan.
func Events(bus *events.Bus) Option {
	return func(args *Options) {
		args.Events = bus
	}
}
