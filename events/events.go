package events

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/cskr/pubsub"
)

// Event topics used on the Bus.
const (
	NodeAdded         = "nodeAdded"
	NodeRemoved       = "nodeRemoved"
	RouteAdded        = "routeAdded"
	RouteRemoved      = "routeRemoved"
	ControlChanged    = "controlChanged"
	PluginsDiscovered = "pluginsDiscovered"
	EngineStarted     = "engineStarted"
	EngineStopped     = "engineStopped"
	OsExit            = "osExit"
)

// All is the topic every event is additionally published on.
const All = "all"

// Event describes a change of the engine's state. Only the fields relevant
// for the topic are set.
type Event struct {
	Topic  string   `json:"topic"`
	Node   string   `json:"node,omitempty"`
	Name   string   `json:"name,omitempty"`
	Port   string   `json:"port,omitempty"`
	Output string   `json:"output,omitempty"`
	Insert string   `json:"insert,omitempty"`
	Value  *float32 `json:"value,omitempty"`
	Count  int      `json:"count,omitempty"`
}

// Bus is an in-process publish/subscribe hub for Events. Publishing is
// done from control goroutines only, never from the render thread.
type Bus struct {
	ps *pubsub.PubSub
}

// NewBus returns a Bus whose subscription channels hold up to capacity
// pending events.
func NewBus(capacity int) *Bus {
	return &Bus{ps: pubsub.New(capacity)}
}

// Publish delivers ev to the subscribers of its topic and of All.
func (b *Bus) Publish(ev Event) {
	if b == nil {
		return
	}
	b.ps.Pub(ev, ev.Topic)
	b.ps.Pub(ev, All)
}

// Subscribe returns a channel receiving the events of the given topics.
// Without topics, all events are delivered.
func (b *Bus) Subscribe(topics ...string) chan interface{} {
	if len(topics) == 0 {
		topics = []string{All}
	}
	return b.ps.Sub(topics...)
}

// Unsubscribe closes ch after removing it from all topics.
func (b *Bus) Unsubscribe(ch chan interface{}) {
	b.ps.Unsub(ch)
}

// Close shuts the bus down and closes all subscription channels.
func (b *Bus) Close() {
	b.ps.Shutdown()
}

// WatchSystemEvents publishes OsExit once SIGINT or SIGTERM has been
// received. It blocks until then.
func WatchSystemEvents(bus *Bus) {

	// Channel to handle OS signals
	osSignals := make(chan os.Signal, 1)

	//subscribe to os.Interrupt (CTRL-C signal)
	signal.Notify(osSignals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(osSignals)

	<-osSignals
	bus.Publish(Event{Topic: OsExit})
}
