package audio

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNode struct {
	id    string
	ports []Port
}

func (n *stubNode) ID() string                  { return n.id }
func (n *stubNode) Name() string                { return n.id }
func (n *stubNode) Ports() []Port               { return n.ports }
func (n *stubNode) Activate(float64, int) error { return nil }
func (n *stubNode) Process(int)                 {}
func (n *stubNode) Deactivate()                 {}

func TestControlShadowPersistsAcrossDisconnect(t *testing.T) {
	p := NewBufferProvider()
	src := &stubNode{id: "src"}
	dst := &stubNode{id: "dst"}

	out := NewControlPort(src, "out", Output, 0)
	in := NewControlPort(dst, "in", Input, 0.25)
	out.Attach(p.Acquire(ControlKind, 0))
	in.Attach(p.Acquire(ControlKind, 0))

	assert.Equal(t, float32(0.25), in.Value())

	// connect: the insert port shares the output buffer
	in.Bind(out.Buffer())
	out.ControlBuffer().SetValue(0.75)
	assert.Equal(t, float32(0.75), in.Value())

	// disconnect: fall back to the private buffer, keep the last value
	prev := in.Bind(in.Private())
	assert.Same(t, out.Buffer(), prev)
	assert.Equal(t, float32(0.75), in.Value())
	assert.Equal(t, float32(0.75), in.ControlBuffer().Value())

	// the buffer itself keeps its value, too
	assert.Equal(t, float32(0.75), out.ControlBuffer().Value())

	// a fully unbound port still reads its shadow
	priv := in.Detach()
	require.NotNil(t, priv)
	assert.Equal(t, float32(0.75), in.Value())
}

func TestPortBindReferenceCounting(t *testing.T) {
	p := NewBufferProvider(BlockLength(8))
	a := NewAudioPort(nil, "a", Output)
	b := NewAudioPort(nil, "b", Input)
	a.Attach(p.Acquire(AudioKind, 0))
	b.Attach(p.Acquire(AudioKind, 0))

	shared := a.Buffer()
	assert.Equal(t, int32(1), shared.Refs())

	b.Bind(shared)
	assert.Equal(t, int32(2), shared.Refs())
	assert.Equal(t, int32(0), b.Private().Refs())

	b.Bind(b.Private())
	assert.Equal(t, int32(1), shared.Refs())
	assert.Equal(t, int32(1), b.Private().Refs())
}

func TestBindWrongKindPanics(t *testing.T) {
	p := NewBufferProvider()
	port := NewAudioPort(nil, "a", Input)
	assert.Panics(t, func() { port.Bind(p.Acquire(ControlKind, 0)) })
}

func TestBackendPortHasNoNode(t *testing.T) {
	bp := NewBackendPort("capture_1", Output)
	assert.Nil(t, bp.Node())
	assert.Equal(t, TypeBackend, bp.Type())
	assert.Equal(t, AudioKind, bp.Type().BufferKind())
	assert.Same(t, &bp.AudioPort, AudioOf(bp))
	assert.Contains(t, bp.String(), "system:capture_1")
}

func TestNewRoute(t *testing.T) {
	n1 := &stubNode{id: "n1"}
	n2 := &stubNode{id: "n2"}
	out := NewAudioPort(n1, "out", Output)
	in := NewAudioPort(n2, "in", Input)
	ctl := NewControlPort(n2, "gain", Input, 1)
	capture := NewBackendPort("capture_1", Output)

	tests := []struct {
		name   string
		output Port
		insert Port
		ok     bool
	}{
		{"AudioToAudio", out, in, true},
		{"BackendToAudio", capture, in, true},
		{"AudioToControl", out, ctl, false},
		{"Reversed", in, out, false},
		{"SameNode", NewAudioPort(n2, "out", Output), in, false},
		{"Nil", nil, in, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, err := NewRoute(tc.output, tc.insert)
			if !tc.ok {
				assert.True(t, errors.Is(err, ErrIncompatiblePorts))
				assert.Nil(t, r)
				return
			}
			require.NoError(t, err)
			assert.Same(t, tc.output, r.OutputPort())
			assert.Same(t, tc.insert, r.InsertPort())
		})
	}
}
