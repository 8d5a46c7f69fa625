package natsctl

import (
	"log/slog"

	"github.com/dh1tw/plughost/events"
)

// Option is the type for a function option
type Option func(*Options)

// Options contains the parameters of the Server.
type Options struct {
	Name    string
	Version string
	Logger  *slog.Logger
	Events  *events.Bus
}

// Name sets the service name, e.g. "plughost.studio". It is also the
// subject the service listens on and the prefix of the event topics.
func Name(n string) Option {
	return func(args *Options) {
		args.Name = n
	}
}

// Version sets the version the service registers with.
func Version(v string) Option {
	return func(args *Options) {
		if v != "" {
			args.Version = v
		}
	}
}

// Logger sets the logger of the server.
func Logger(l *slog.Logger) Option {
	return func(args *Options) {
		args.Logger = l
	}
}

// Events sets the bus whose events are published on the broker.
func Events(bus *events.Bus) Option {
	return func(args *Options) {
		args.Events = bus
	}
}
