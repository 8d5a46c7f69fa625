// Package meter contains a level meter node with a voice operated switch.
package meter

import (
	"math"
	"sync/atomic"

	"github.com/chewxy/math32"

	"github.com/dh1tw/plughost/audio"
)

// Name is the plugin name of the node.
const Name = "meter"

// Meter measures the RMS and peak level of its input every cycle and
// writes them to its "rms" and "peak" control outputs. The "active"
// output switches to 1 as soon as the RMS reaches the "threshold" input
// and back to 0 once it stayed below for "hold" seconds.
type Meter struct {
	id        string
	in        *audio.AudioPort
	threshold *audio.ControlPort
	hold      *audio.ControlPort
	rms       *audio.ControlPort
	peak      *audio.ControlPort
	active    *audio.ControlPort

	sampleRate float64
	quiet      int // frames since the level fell below the threshold
	on         bool

	level atomic.Uint32
	state atomic.Bool
}

// New returns an inactive meter with a threshold of 0.1 and a hold time
// of 500ms.
func New(id string) *Meter {
	m := &Meter{id: id}
	m.in = audio.NewAudioPort(m, "in", audio.Input)
	m.threshold = audio.NewControlPort(m, "threshold", audio.Input, 0.1)
	m.hold = audio.NewControlPort(m, "hold", audio.Input, 0.5)
	m.rms = audio.NewControlPort(m, "rms", audio.Output, 0)
	m.peak = audio.NewControlPort(m, "peak", audio.Output, 0)
	m.active = audio.NewControlPort(m, "active", audio.Output, 0)
	return m
}

func (m *Meter) ID() string   { return m.id }
func (m *Meter) Name() string { return Name }

// Ports implements audio.Node.
func (m *Meter) Ports() []audio.Port {
	return []audio.Port{m.in, m.threshold, m.hold, m.rms, m.peak, m.active}
}

// Activate implements audio.Node.
func (m *Meter) Activate(sampleRate float64, _ int) error {
	m.sampleRate = sampleRate
	m.quiet = 0
	m.on = false
	m.level.Store(0)
	m.state.Store(false)
	return nil
}

// Process implements audio.Node.
func (m *Meter) Process(frames int) {
	data := m.in.AudioBuffer().Data()[:frames]
	level := rms(data)

	m.rms.ControlBuffer().SetValue(level)
	m.peak.ControlBuffer().SetValue(peak(data))
	m.level.Store(math.Float32bits(level))

	if level >= m.threshold.Value() {
		m.quiet = 0
		m.on = true
	} else if m.on {
		m.quiet += frames
		if float64(m.quiet) > float64(m.hold.Value())*m.sampleRate {
			m.on = false
		}
	}

	var v float32
	if m.on {
		v = 1
	}
	m.active.ControlBuffer().SetValue(v)
	m.state.Store(m.on)
}

// Deactivate implements audio.Node.
func (m *Meter) Deactivate() {}

// Level returns the RMS of the last rendered cycle. It may be called
// from any goroutine.
func (m *Meter) Level() float32 { return math.Float32frombits(m.level.Load()) }

// Active returns the state of the voice operated switch.
func (m *Meter) Active() bool { return m.state.Load() }

// rms calculates the root mean square of a block of samples
func rms(data []float32) float32 {
	if len(data) == 0 {
		return 0
	}

	var sum float32
	for _, el := range data {
		sum = sum + el*el
	}
	sum = sum / float32(len(data))

	return math32.Sqrt(sum)
}

func peak(data []float32) float32 {
	var max float32
	for _, el := range data {
		if a := math32.Abs(el); a > max {
			max = a
		}
	}
	return max
}
