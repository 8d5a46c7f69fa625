// Package gain contains a mono amplifier node.
package gain

import (
	"github.com/chewxy/math32"

	"github.com/dh1tw/plughost/audio"
)

// Name is the plugin name of the node.
const Name = "gain"

// Gain copies its input to its output, scaled by the "gain" control
// (in dB). The "mute" control silences the output when set to 1.
type Gain struct {
	id   string
	in   *audio.AudioPort
	out  *audio.AudioPort
	gain *audio.ControlPort
	mute *audio.ControlPort

	lastDB float32
	factor float32
}

// New returns an inactive gain node at 0 dB.
func New(id string) *Gain {
	g := &Gain{id: id, factor: 1}
	g.in = audio.NewAudioPort(g, "in", audio.Input)
	g.out = audio.NewAudioPort(g, "out", audio.Output)
	g.gain = audio.NewControlPort(g, "gain", audio.Input, 0)
	g.mute = audio.NewControlPort(g, "mute", audio.Input, 0)
	return g
}

func (g *Gain) ID() string   { return g.id }
func (g *Gain) Name() string { return Name }

// Ports implements audio.Node.
func (g *Gain) Ports() []audio.Port {
	return []audio.Port{g.in, g.out, g.gain, g.mute}
}

// Activate implements audio.Node.
func (g *Gain) Activate(float64, int) error {
	g.lastDB = 0
	g.factor = 1
	return nil
}

// Process implements audio.Node.
func (g *Gain) Process(frames int) {
	out := g.out.AudioBuffer().Data()[:frames]

	if g.mute.Value() >= 0.5 {
		for i := range out {
			out[i] = 0
		}
		return
	}

	if db := g.gain.Value(); db != g.lastDB {
		g.lastDB = db
		g.factor = DBToLinear(db)
	}

	copy(out, g.in.AudioBuffer().Data()[:frames])
	audio.AdjustVolume(g.factor, out)
}

// Deactivate implements audio.Node.
func (g *Gain) Deactivate() {}

// DBToLinear converts a level in dB to an amplitude factor.
func DBToLinear(db float32) float32 {
	return math32.Pow(10, db/20)
}
