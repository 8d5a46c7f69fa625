package ladspa

import (
	"testing"

	"github.com/dh1tw/plughost/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortDefault(t *testing.T) {
	tests := []struct {
		name string
		hint Hint
		sr   float64
		want float32
	}{
		{"none", Hint{}, 48000, 0},
		{"none bounded below", Hint{Flags: BoundedBelow, Lower: 2, Upper: 10}, 48000, 2},
		{"none bounded above", Hint{Flags: BoundedAbove, Lower: -10, Upper: -2}, 48000, -2},
		{"minimum", Hint{Flags: DefaultMinimum, Lower: 1, Upper: 5}, 48000, 1},
		{"maximum", Hint{Flags: DefaultMaximum, Lower: 1, Upper: 5}, 48000, 5},
		{"low", Hint{Flags: DefaultLow, Lower: 0, Upper: 4}, 48000, 1},
		{"middle", Hint{Flags: DefaultMiddle, Lower: 0, Upper: 4}, 48000, 2},
		{"high", Hint{Flags: DefaultHigh, Lower: 0, Upper: 4}, 48000, 3},
		{"middle log", Hint{Flags: DefaultMiddle | Logarithmic, Lower: 1, Upper: 100}, 48000, 10},
		{"log with zero bound is linear", Hint{Flags: DefaultMiddle | Logarithmic, Lower: 0, Upper: 10}, 48000, 5},
		{"0", Hint{Flags: Default0, Lower: -1, Upper: 1}, 48000, 0},
		{"1", Hint{Flags: Default1}, 48000, 1},
		{"100", Hint{Flags: Default100}, 48000, 100},
		{"440", Hint{Flags: Default440 | SampleRate}, 48000, 440},
		{"sample rate", Hint{Flags: DefaultMaximum | SampleRate, Lower: 0, Upper: 0.5}, 44100, 22050},
		{"integer", Hint{Flags: DefaultLow | Integer, Lower: 0, Upper: 3}, 48000, 1},
		{"toggled", Hint{Flags: DefaultMaximum | Toggled, Lower: 0, Upper: 1}, 48000, 1},
		{"toggled off", Hint{Flags: Toggled}, 48000, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := PortInfo{Type: audio.TypeControl, Hint: tc.hint}
			assert.InDelta(t, tc.want, p.Default(tc.sr), 1e-3)
		})
	}
}

func TestParsePort(t *testing.T) {
	dir, typ, err := parsePort(portInput | portAudio)
	require.NoError(t, err)
	assert.Equal(t, audio.Input, dir)
	assert.Equal(t, audio.TypeAudio, typ)

	dir, typ, err = parsePort(portOutput | portControl)
	require.NoError(t, err)
	assert.Equal(t, audio.Output, dir)
	assert.Equal(t, audio.TypeControl, typ)

	_, _, err = parsePort(portInput | portOutput | portAudio)
	assert.Error(t, err)
	_, _, err = parsePort(portInput)
	assert.Error(t, err)
}

func TestDescriptorProperties(t *testing.T) {
	d := &Descriptor{ID: 7, Label: "x", Name: "X", Properties: Realtime | HardRTCapable}
	assert.True(t, d.Realtime())
	assert.False(t, d.InplaceBroken())
	assert.True(t, d.HardRTCapable())
	assert.Equal(t, "X (7, x)", d.String())
}
