package engine

import (
	"github.com/dh1tw/plughost/audio"
)

type rebind struct {
	port  audio.Port
	buf   audio.Buffer
	clear bool
}

// commitCmd installs a new render plan and refreshes the bindings of the
// ports affected by a graph change. The bindings are resolved from the
// control side model in PreExecute, while the caller still holds the
// graph lock.
type commitCmd struct {
	model   *model
	plan    *plan
	ports   []audio.Port
	rebinds []rebind
}

func (c *commitCmd) PreExecute() {
	c.rebinds = make([]rebind, 0, len(c.ports))
	for _, p := range c.ports {
		buf, clear := c.model.binding(p)
		c.rebinds = append(c.rebinds, rebind{port: p, buf: buf, clear: clear})
	}
}

func (c *commitCmd) Execute(ctx *Context) {
	for _, r := range c.rebinds {
		if r.port.Buffer() != r.buf {
			r.port.Bind(r.buf)
		}
		if r.clear {
			if ap := audio.AudioOf(r.port); ap != nil {
				ap.AudioBuffer().Clear()
			}
		}
	}
	ctx.engine.plan = c.plan
}

func (c *commitCmd) Blocking() bool { return true }

// setControlCmd writes the private buffer of a control input port.
type setControlCmd struct {
	port  *audio.ControlPort
	buf   *audio.ControlBuffer
	value float32
}

func (c *setControlCmd) PreExecute() {
	c.buf, _ = c.port.Private().(*audio.ControlBuffer)
}

func (c *setControlCmd) Execute(*Context) {
	if c.buf != nil {
		c.buf.SetValue(c.value)
	}
}

func (c *setControlCmd) Blocking() bool { return false }
