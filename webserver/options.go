package webserver

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dh1tw/plughost/events"
)

// Option is the type for a function option
type Option func(*Options)

// Options contains the parameters of the WebServer.
type Options struct {
	Host     string
	Port     int
	Logger   *slog.Logger
	Events   *events.Bus
	Gatherer prometheus.Gatherer
}

// Host sets the address the server listens on. Default: 127.0.0.1
func Host(h string) Option {
	return func(args *Options) {
		args.Host = h
	}
}

// Port sets the TCP port the server listens on. Default: 8080
func Port(p int) Option {
	return func(args *Options) {
		args.Port = p
	}
}

// Logger sets the logger of the server.
func Logger(l *slog.Logger) Option {
	return func(args *Options) {
		args.Logger = l
	}
}

// Events sets the bus whose events are pushed to websocket clients.
func Events(bus *events.Bus) Option {
	return func(args *Options) {
		args.Events = bus
	}
}

// Gatherer sets the prometheus registry served on /metrics. Without a
// gatherer the endpoint is not registered.
func Gatherer(g prometheus.Gatherer) Option {
	return func(args *Options) {
		args.Gatherer = g
	}
}
