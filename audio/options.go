package audio

// Option is the type for a function option
type Option func(*Options)

// Options contains the parameters for initializing a BufferProvider.
type Options struct {
	BlockLength int
}

// BlockLength is a functional option which sets the max amount of frames
// the engine renders per cycle. Audio buffers are sized accordingly.
func BlockLength(n int) Option {
	return func(args *Options) {
		if n > 0 {
			args.BlockLength = n
		}
	}
}
