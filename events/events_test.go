package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func receive(t *testing.T, ch chan interface{}) Event {
	t.Helper()
	select {
	case msg := <-ch:
		ev, ok := msg.(Event)
		require.True(t, ok)
		return ev
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
	return Event{}
}

func TestBusTopicAndAll(t *testing.T) {
	bus := NewBus(4)
	defer bus.Close()

	routes := bus.Subscribe(RouteAdded)
	all := bus.Subscribe()

	bus.Publish(Event{Topic: RouteAdded, Output: "a:out", Insert: "b:in"})
	bus.Publish(Event{Topic: NodeAdded, Node: "b"})

	ev := receive(t, routes)
	assert.Equal(t, "a:out", ev.Output)

	assert.Equal(t, RouteAdded, receive(t, all).Topic)
	assert.Equal(t, NodeAdded, receive(t, all).Topic)

	select {
	case msg := <-routes:
		t.Fatalf("unexpected event %v", msg)
	default:
	}
}

func TestNilBusPublish(t *testing.T) {
	var bus *Bus
	assert.NotPanics(t, func() { bus.Publish(Event{Topic: NodeAdded}) })
}
