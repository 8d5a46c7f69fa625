// Package player contains a node playing a decoded audio file.
package player

import (
	"fmt"
	"sync/atomic"

	"github.com/dh1tw/plughost/audio"
	"github.com/dh1tw/plughost/audiocodec"
)

// Name is the plugin name prefix of player nodes.
const Name = "player"

// Player plays a SampleBuffer on one audio output per channel. The
// controls "play" and "loop" are toggles; "gain" is a linear factor.
// Setting "rewind" to 1 restarts playback from the beginning.
type Player struct {
	id     string
	name   string
	buf    *audiocodec.SampleBuffer
	outs   []*audio.AudioPort
	play   *audio.ControlPort
	loop   *audio.ControlPort
	gain   *audio.ControlPort
	rewind *audio.ControlPort
	ports  []audio.Port

	pos      int
	rewound  bool
	position atomic.Int64
}

// New returns an inactive player for buf. Playback starts as soon as the
// node is added to a running engine.
func New(id, name string, buf *audiocodec.SampleBuffer) *Player {
	p := &Player{id: id, name: name, buf: buf}
	for i := range buf.Channels {
		out := audio.NewAudioPort(p, fmt.Sprintf("out_%d", i+1), audio.Output)
		p.outs = append(p.outs, out)
		p.ports = append(p.ports, out)
	}
	p.play = audio.NewControlPort(p, "play", audio.Input, 1)
	p.loop = audio.NewControlPort(p, "loop", audio.Input, 0)
	p.gain = audio.NewControlPort(p, "gain", audio.Input, 1)
	p.rewind = audio.NewControlPort(p, "rewind", audio.Input, 0)
	p.ports = append(p.ports, p.play, p.loop, p.gain, p.rewind)
	return p
}

func (p *Player) ID() string          { return p.id }
func (p *Player) Name() string        { return p.name }
func (p *Player) Ports() []audio.Port { return p.ports }

// Activate implements audio.Node. The file must have been decoded at the
// engine's sample rate.
func (p *Player) Activate(sampleRate float64, _ int) error {
	if sampleRate != p.buf.SampleRate {
		return fmt.Errorf("player %s: file decoded at %v Hz, engine runs at %v Hz",
			p.id, p.buf.SampleRate, sampleRate)
	}
	p.pos = 0
	p.position.Store(0)
	return nil
}

// Process implements audio.Node.
func (p *Player) Process(frames int) {
	if p.rewind.Value() >= 0.5 {
		if !p.rewound {
			p.pos = 0
			p.rewound = true
		}
	} else {
		p.rewound = false
	}

	total := p.buf.Frames()
	playing := p.play.Value() >= 0.5 && total > 0
	looping := p.loop.Value() >= 0.5
	gain := p.gain.Value()

	for ch, out := range p.outs {
		data := out.AudioBuffer().Data()[:frames]
		if !playing {
			clear(data)
			continue
		}
		src := p.buf.Channels[ch]
		pos := p.pos
		for i := range data {
			if pos >= total {
				if !looping {
					data[i] = 0
					continue
				}
				pos = 0
			}
			data[i] = src[pos] * gain
			pos++
		}
	}

	if playing {
		p.pos = advance(p.pos, frames, total, looping)
		p.position.Store(int64(p.pos))
	}
}

// Deactivate implements audio.Node.
func (p *Player) Deactivate() {}

// Position returns the current playback position in frames. It may be
// called from any goroutine.
func (p *Player) Position() int { return int(p.position.Load()) }

// Finished reports whether a non looping playback reached the end.
func (p *Player) Finished() bool { return p.Position() >= p.buf.Frames() }

func advance(pos, frames, total int, looping bool) int {
	if !looping {
		return min(pos+frames, total)
	}
	if pos >= total {
		pos = 0
	}
	return (pos + frames) % total
}
