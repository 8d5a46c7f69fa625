package engine

// Command is a unit of work handed from a control goroutine to the render
// thread. It is the only legal way for non real-time code to change state
// the render thread touches.
type Command interface {
	// PreExecute runs synchronously on the pushing goroutine, before the
	// command is queued. It snapshots and validates caller state.
	PreExecute()
	// Execute runs exactly once on the render thread.
	Execute(ctx *Context)
	// Blocking reports whether the pushing goroutine waits until Execute
	// has completed.
	Blocking() bool
}

// Context is handed to Command.Execute. It is only valid for the duration
// of the call.
type Context struct {
	cycle  uint64
	frames int
	engine *Engine
}

// Cycle returns the number of render cycles completed before the current
// one.
func (c *Context) Cycle() uint64 { return c.cycle }

// Frames returns the number of frames rendered in the current cycle, 0 if
// the command runs while no render thread is active.
func (c *Context) Frames() int { return c.frames }

// Func adapts plain functions to the Command interface.
type Func struct {
	Pre   func()
	Exec  func(ctx *Context)
	Block bool
}

// PreExecute implements Command.
func (f *Func) PreExecute() {
	if f.Pre != nil {
		f.Pre()
	}
}

// Execute implements Command.
func (f *Func) Execute(ctx *Context) {
	if f.Exec != nil {
		f.Exec(ctx)
	}
}

// Blocking implements Command.
func (f *Func) Blocking() bool { return f.Block }
