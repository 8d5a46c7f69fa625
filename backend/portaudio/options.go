package portaudio

import (
	"log/slog"
	"time"
)

// Option is the type for a function option
type Option func(*Options)

// Options contains the parameters for initializing a portaudio backend.
type Options struct {
	HostAPI        string
	InputDevice    string
	OutputDevice   string
	InputChannels  int
	OutputChannels int
	SampleRate     float64
	BlockLength    int
	Latency        time.Duration
	Logger         *slog.Logger
}

// HostAPI is a functional option to set the portaudio host api
// (e.g. "alsa", "jack", "coreaudio", "wasapi" or "default").
func HostAPI(name string) Option {
	return func(args *Options) {
		args.HostAPI = name
	}
}

// InputDevice is a functional option to set the capture device by name.
func InputDevice(name string) Option {
	return func(args *Options) {
		args.InputDevice = name
	}
}

// OutputDevice is a functional option to set the playback device by name.
func OutputDevice(name string) Option {
	return func(args *Options) {
		args.OutputDevice = name
	}
}

// Channels sets the number of capture and playback channels. 0 disables
// the direction.
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

// SampleRate is a functional option to set the sampling rate of the
// stream.
func SampleRate(s float64) Option {
	return func(args *Options) {
		if s > 0 {
			args.SampleRate = s
		}
	}
}

// BlockLength sets the frames per buffer of the stream.
func BlockLength(n int) Option {
	return func(args *Options) {
		if n > 0 {
			args.BlockLength = n
		}
	}
}

// Latency is a functional option to set the suggested latency of the
// devices.
func Latency(t time.Duration) Option {
	return func(args *Options) {
		args.Latency = t
	}
}

// Logger sets the logger of the backend.
func Logger(l *slog.Logger) Option {
	return func(args *Options) {
		args.Logger = l
	}
}
