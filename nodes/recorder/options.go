package recorder

import "log/slog"

// Option is the type for a function option
type Option func(*Options)

const (
	DefaultChannels int = 2
	DefaultBitDepth int = 16
	DefaultBlocks   int = 64
)

// Options contains the parameters for initializing a recorder.
type Options struct {
	Channels int
	BitDepth int
	Blocks   int
	Logger   *slog.Logger
}

// Channels is a functional option to set the amount of recorded channels.
// The recorder gets one audio input per channel.
func Channels(chs int) Option {
	return func(args *Options) {
		if chs > 0 {
			args.Channels = chs
		}
	}
}

// BitDepth is a functional option to set the bit depth with which the audio
// will be written to file. Only 12 and 16 bit are supported; anything else
// falls back to 16 bit.
func BitDepth(b int) Option {
	return func(args *Options) {
		args.BitDepth = b
	}
}

// Blocks sets the number of blocks which can be in flight between the
// render thread and the file writer. When the writer falls behind, blocks
// are dropped.
func Blocks(n int) Option {
	return func(args *Options) {
		if n > 0 {
			args.Blocks = n
		}
	}
}

// Logger sets the logger of the recorder.
func Logger(l *slog.Logger) Option {
	return func(args *Options) {
		args.Logger = l
	}
}
