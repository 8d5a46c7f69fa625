package dummy

import "time"

// Option is the type for a function option
type Option func(*Options)

// Options contains the parameters for initializing a dummy backend.
type Options struct {
	SampleRate     float64
	BlockLength    int
	InputChannels  int
	OutputChannels int
	History        int
	Period         time.Duration
	Source         func(ch int, buf []float32)
}

// SampleRate sets the rate the backend pretends to run at.
func SampleRate(sr float64) Option {
	return func(args *Options) {
		if sr > 0 {
			args.SampleRate = sr
		}
	}
}

// BlockLength sets the number of frames per callback.
func BlockLength(n int) Option {
	return func(args *Options) {
		if n > 0 {
			args.BlockLength = n
		}
	}
}

// Channels sets the number of capture and playback channels.
func Channels(in, out int) Option {
	return func(args *Options) {
		if in >= 0 {
			args.InputChannels = in
		}
		if out >= 0 {
			args.OutputChannels = out
		}
	}
}

// History sets how many rendered blocks are kept.
func History(n int) Option {
	return func(args *Options) {
		if n > 0 {
			args.History = n
		}
	}
}

// Period overrides the interval between two callbacks. By default the
// block duration at the configured sample rate is used.
func Period(d time.Duration) Option {
	return func(args *Options) {
		args.Period = d
	}
}

// Source fills the capture channels before every callback. Without a
// source the capture channels are silent.
func Source(fn func(ch int, buf []float32)) Option {
	return func(args *Options) {
		args.Source = fn
	}
}
