package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/dh1tw/plughost/audio"
	"github.com/dh1tw/plughost/backend/dummy"
	"github.com/dh1tw/plughost/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type testNode struct {
	id          string
	ports       []audio.Port
	process     func(frames int)
	activated   bool
	deactivated bool
	failActive  error
}

func (n *testNode) ID() string          { return n.id }
func (n *testNode) Name() string        { return "test " + n.id }
func (n *testNode) Ports() []audio.Port { return n.ports }
func (n *testNode) Deactivate()         { n.deactivated = true }

func (n *testNode) Activate(float64, int) error {
	if n.failActive != nil {
		return n.failActive
	}
	n.activated = true
	return nil
}

func (n *testNode) Process(frames int) {
	if n.process != nil {
		n.process(frames)
	}
}

// constNode writes value into its single audio output.
func constNode(id string, value float32) (*testNode, *audio.AudioPort) {
	n := &testNode{id: id}
	out := audio.NewAudioPort(n, "out", audio.Output)
	n.ports = []audio.Port{out}
	n.process = func(frames int) {
		data := out.AudioBuffer().Data()
		for i := 0; i < frames; i++ {
			data[i] = value
		}
	}
	return n, out
}

// sinkNode records the first sample of its audio input every cycle.
func sinkNode(id string) (*testNode, *audio.AudioPort, *[]float32) {
	n := &testNode{id: id}
	in := audio.NewAudioPort(n, "in", audio.Input)
	n.ports = []audio.Port{in}
	var seen []float32
	n.process = func(int) {
		seen = append(seen, in.AudioBuffer().Data()[0])
	}
	return n, in, &seen
}

// throughNode copies its input into its output, scaled by the control
// input "gain".
func throughNode(id string) (*testNode, *audio.AudioPort, *audio.AudioPort, *audio.ControlPort) {
	n := &testNode{id: id}
	in := audio.NewAudioPort(n, "in", audio.Input)
	out := audio.NewAudioPort(n, "out", audio.Output)
	gain := audio.NewControlPort(n, "gain", audio.Input, 1)
	n.ports = []audio.Port{in, out, gain}
	n.process = func(frames int) {
		g := gain.Value()
		src, dst := in.AudioBuffer().Data(), out.AudioBuffer().Data()
		for i := 0; i < frames; i++ {
			dst[i] = src[i] * g
		}
	}
	return n, in, out, gain
}

func newTestEngine(opts ...Option) *Engine {
	return New(append([]Option{BlockLength(8), Channels(1, 1)}, opts...)...)
}

func TestEngineSystemPorts(t *testing.T) {
	e := New(BlockLength(16), Channels(2, 3))

	ports := e.SystemPorts()
	require.Len(t, ports, 5)
	assert.Equal(t, "capture_1", ports[0].Name())
	assert.Equal(t, audio.Output, ports[0].Direction())
	assert.Equal(t, "playback_3", ports[4].Name())
	assert.Equal(t, audio.Input, ports[4].Direction())
	for _, p := range ports {
		assert.Nil(t, p.Node())
		assert.Equal(t, audio.TypeBackend, p.Type())
	}

	p, err := e.Port("system:playback_2")
	require.NoError(t, err)
	assert.Same(t, ports[3], p)

	_, err = e.Port("system:nope")
	assert.ErrorIs(t, err, ErrUnknownPort)
	_, err = e.Port("nope:out")
	assert.ErrorIs(t, err, ErrUnknownNode)
	_, err = e.Port("malformed")
	assert.ErrorIs(t, err, ErrUnknownPort)
}

func TestEngineAddRemoveNode(t *testing.T) {
	e := newTestEngine()
	base := e.Provider().Stats().InUse

	n, _, _, _ := throughNode("fx")
	require.NoError(t, e.AddNode(n))
	assert.True(t, n.activated)
	assert.Equal(t, base+3, e.Provider().Stats().InUse)

	got, ok := e.Node("fx")
	require.True(t, ok)
	assert.Same(t, n, got)

	assert.ErrorIs(t, e.AddNode(n), ErrNodeExists)

	require.NoError(t, e.RemoveNode("fx"))
	assert.True(t, n.deactivated)
	assert.Equal(t, base, e.Provider().Stats().InUse)
	for _, p := range n.Ports() {
		assert.Nil(t, p.Buffer())
		assert.Nil(t, p.Private())
	}

	assert.ErrorIs(t, e.RemoveNode("fx"), ErrUnknownNode)
}

func TestEngineAddNodeActivateError(t *testing.T) {
	e := newTestEngine()
	boom := errors.New("boom")
	n := &testNode{id: "broken", failActive: boom}

	assert.ErrorIs(t, e.AddNode(n), boom)
	assert.Empty(t, e.Nodes())
}

func TestEngineAddNodeRejectsInvalidIDs(t *testing.T) {
	e := newTestEngine()

	for _, id := range []string{"", SystemNode, "a:b", ":x"} {
		n, _, _, _ := throughNode(id)
		assert.ErrorIs(t, e.AddNode(n), ErrInvalidNodeID, "id %q", id)
		assert.False(t, n.activated, "id %q", id)
	}
	assert.Empty(t, e.Nodes())

	// the backend ports stay reachable under the reserved owner
	_, err := e.Port("system:playback_1")
	assert.NoError(t, err)
}

func TestEngineSingleSourceSharesBuffer(t *testing.T) {
	e := newTestEngine()
	src, out := constNode("src", 0.5)
	sink, in, seen := sinkNode("sink")
	require.NoError(t, e.AddNode(sink))
	require.NoError(t, e.AddNode(src))

	r, err := e.Connect(out, in)
	require.NoError(t, err)
	assert.Same(t, out.Private(), in.Buffer())

	// the sink was added first but has to run after its source
	assert.Equal(t, []string{"src", "sink"}, e.Order())

	e.Process(8)
	assert.Equal(t, []float32{0.5}, *seen)

	_, err = e.Connect(out, in)
	assert.ErrorIs(t, err, ErrRouteExists)

	require.NoError(t, e.Disconnect(r))
	assert.Same(t, in.Private(), in.Buffer())
	e.Process(8)
	assert.Equal(t, []float32{0.5, 0}, *seen)

	assert.ErrorIs(t, e.Disconnect(r), ErrUnknownRoute)
}

func TestEngineFanInMixes(t *testing.T) {
	e := newTestEngine()
	a, outA := constNode("a", 0.25)
	b, outB := constNode("b", 0.5)
	sink, in, seen := sinkNode("sink")
	for _, n := range []audio.Node{a, b, sink} {
		require.NoError(t, e.AddNode(n))
	}

	rA, err := e.Connect(outA, in)
	require.NoError(t, err)
	_, err = e.Connect(outB, in)
	require.NoError(t, err)

	assert.Same(t, in.Private(), in.Buffer())
	e.Process(8)
	assert.Equal(t, []float32{0.75}, *seen)

	// one route left: back to sharing the remaining output
	require.NoError(t, e.Disconnect(rA))
	assert.Same(t, outB.Private(), in.Buffer())
	e.Process(8)
	assert.Equal(t, []float32{0.75, 0.5}, *seen)
}

func TestEngineRejectsCycles(t *testing.T) {
	e := newTestEngine()
	a, inA, outA, _ := throughNode("a")
	b, inB, outB, _ := throughNode("b")
	require.NoError(t, e.AddNode(a))
	require.NoError(t, e.AddNode(b))

	_, err := e.Connect(outA, inB)
	require.NoError(t, err)

	_, err = e.Connect(outB, inA)
	assert.ErrorIs(t, err, ErrCycle)
	assert.Len(t, e.Routes(), 1)
	assert.Same(t, inA.Private(), inA.Buffer())

	_, err = e.Connect(outA, inA)
	assert.ErrorIs(t, err, audio.ErrIncompatiblePorts)
}

func TestEngineControlRoutes(t *testing.T) {
	e := newTestEngine()

	ctl := &testNode{id: "ctl"}
	ctlOut := audio.NewControlPort(ctl, "value", audio.Output, 0)
	ctl.ports = []audio.Port{ctlOut}
	ctlOther := &testNode{id: "other"}
	otherOut := audio.NewControlPort(ctlOther, "value", audio.Output, 0)
	ctlOther.ports = []audio.Port{otherOut}

	fx, _, _, gain := throughNode("fx")
	for _, n := range []audio.Node{ctl, ctlOther, fx} {
		require.NoError(t, e.AddNode(n))
	}
	assert.Equal(t, float32(1), gain.Value())

	require.NoError(t, e.SetControl(gain, 0.3))
	assert.Equal(t, float32(0.3), gain.Value())

	r, err := e.ConnectRefs("ctl:value", "fx:gain")
	require.NoError(t, err)
	assert.Same(t, ctlOut.Private(), gain.Buffer())

	_, err = e.Connect(otherOut, gain)
	assert.ErrorIs(t, err, ErrControlFanIn)
	assert.ErrorIs(t, e.SetControl(gain, 0.1), ErrPortConnected)
	assert.ErrorIs(t, e.SetControl(ctlOut, 0.1), ErrNotSettable)

	ctlOut.ControlBuffer().SetValue(0.7)
	assert.Equal(t, float32(0.7), gain.Value())

	// the last value seen survives the disconnect
	require.NoError(t, e.Disconnect(r))
	assert.Same(t, gain.Private(), gain.Buffer())
	assert.Equal(t, float32(0.7), gain.Value())

	ctlOut.ControlBuffer().SetValue(0.9)
	assert.Equal(t, float32(0.7), gain.Value())
}

func TestEngineRemoveNodeRebindsInserts(t *testing.T) {
	e := newTestEngine()
	src, out := constNode("src", 1)
	sink, in, _ := sinkNode("sink")
	require.NoError(t, e.AddNode(src))
	require.NoError(t, e.AddNode(sink))
	_, err := e.Connect(out, in)
	require.NoError(t, err)

	require.NoError(t, e.RemoveNode("src"))
	assert.Empty(t, e.Routes())
	assert.Same(t, in.Private(), in.Buffer())
	assert.Equal(t, []string{"sink"}, e.Order())
}

func TestEngineSystemRouting(t *testing.T) {
	e := newTestEngine(Channels(1, 2))
	fx, _, _, _ := throughNode("fx")
	require.NoError(t, e.AddNode(fx))

	_, err := e.ConnectRefs("system:capture_1", "fx:in")
	require.NoError(t, err)
	_, err = e.ConnectRefs("fx:out", "system:playback_1")
	require.NoError(t, err)
	_, err = e.ConnectRefs("fx:out", "system:playback_2")
	require.NoError(t, err)
	_, err = e.ConnectRefs("system:capture_1", "system:playback_2")
	require.NoError(t, err)
	require.NoError(t, e.SetControl(fx.ports[2], 2))

	in := [][]float32{{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}}
	out := [][]float32{make([]float32, 12), make([]float32, 12)}
	e.render(in, out)

	for i := range out[0] {
		assert.Equal(t, float32(2), out[0][i])
		// fan-in: fx output plus the dry capture signal
		assert.Equal(t, float32(3), out[1][i])
	}
	assert.Equal(t, uint64(2), e.Provider().Cycle())

	require.NoError(t, e.DisconnectRefs("fx:out", "system:playback_1"))
	assert.ErrorIs(t, e.DisconnectRefs("fx:out", "system:playback_1"), ErrUnknownRoute)
}

func TestEngineConcurrentProcessPanics(t *testing.T) {
	e := newTestEngine()
	inside := make(chan struct{})
	release := make(chan struct{})
	n := &testNode{id: "slow", process: func(int) {
		close(inside)
		<-release
	}}
	require.NoError(t, e.AddNode(n))

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		e.Process(8)
	}()

	<-inside
	assert.Panics(t, func() { e.Process(8) })
	close(release)
	<-finished
}

func TestEngineProcessRejectsOversizedBlocks(t *testing.T) {
	e := newTestEngine()
	src, _ := constNode("src", 1)
	require.NoError(t, e.AddNode(src))

	assert.PanicsWithValue(t, "engine: Process called with 9 frames, block length is 8",
		func() { e.Process(9) })
	// the failed call must not leave the engine marked busy
	assert.NotPanics(t, func() { e.Process(8) })
}

func TestEngineEvents(t *testing.T) {
	bus := events.NewBus(16)
	defer bus.Close()
	ch := bus.Subscribe()

	e := newTestEngine(Events(bus))
	src, out := constNode("src", 1)
	sink, in, _ := sinkNode("sink")
	require.NoError(t, e.AddNode(src))
	require.NoError(t, e.AddNode(sink))
	_, err := e.Connect(out, in)
	require.NoError(t, err)

	want := []events.Event{
		{Topic: events.NodeAdded, Node: "src", Name: "test src"},
		{Topic: events.NodeAdded, Node: "sink", Name: "test sink"},
		{Topic: events.RouteAdded, Output: "src:out", Insert: "sink:in"},
	}
	for _, w := range want {
		select {
		case ev := <-ch:
			assert.Equal(t, w, ev)
		case <-time.After(time.Second):
			t.Fatalf("missing event %s", w.Topic)
		}
	}
}

func TestEngineRunsWithBackend(t *testing.T) {
	b := dummy.New(
		dummy.SampleRate(48000),
		dummy.BlockLength(8),
		dummy.Channels(1, 1),
		dummy.Period(time.Millisecond),
		dummy.Source(func(_ int, buf []float32) {
			for i := range buf {
				buf[i] = 0.5
			}
		}),
	)

	e := newTestEngine()
	require.NoError(t, e.Start(b))
	assert.True(t, e.Running())
	assert.ErrorIs(t, e.Start(b), ErrRunning)

	// graph changes while running go through the render thread
	fx, _, _, gain := throughNode("fx")
	require.NoError(t, e.AddNode(fx))
	_, err := e.ConnectRefs("system:capture_1", "fx:in")
	require.NoError(t, err)
	_, err = e.ConnectRefs("fx:out", "system:playback_1")
	require.NoError(t, err)
	require.NoError(t, e.SetControl(gain, 2))

	require.Eventually(t, func() bool {
		blocks := b.Captured()
		if len(blocks) == 0 {
			return false
		}
		last := blocks[len(blocks)-1]
		return last[0][0] == 1
	}, time.Second, time.Millisecond)

	require.NoError(t, e.Close())
	assert.False(t, e.Running())
	assert.True(t, fx.deactivated)
	assert.Empty(t, e.Nodes())
}

func TestEngineSampleRateMismatch(t *testing.T) {
	b := dummy.New(dummy.SampleRate(44100))
	e := newTestEngine(SampleRate(48000))

	assert.ErrorIs(t, e.Start(b), ErrSampleRate)
	assert.False(t, e.Running())
}
