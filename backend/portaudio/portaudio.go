// Package portaudio drives the engine from a portaudio duplex stream. The
// stream callback is the real-time render thread.
package portaudio

import (
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dh1tw/plughost/backend"
	pa "github.com/gordonklaus/portaudio"
)

// Backend implements backend.Backend on top of a portaudio stream. The
// caller is responsible for portaudio.Initialize / portaudio.Terminate.
type Backend struct {
	sync.Mutex
	options   Options
	log       *slog.Logger
	hostAPI   *pa.HostApiInfo
	inDevice  *pa.DeviceInfo
	outDevice *pa.DeviceInfo
	stream    *pa.Stream
	cb        backend.Callback
	xruns     atomic.Uint64
}

// New selects the host api and devices and returns a stopped backend.
func New(opts ...Option) (*Backend, error) {
	b := &Backend{
		options: Options{
			HostAPI:        "default",
			InputDevice:    "default",
			OutputDevice:   "default",
			InputChannels:  2,
			OutputChannels: 2,
			SampleRate:     48000,
			BlockLength:    256,
			Latency:        time.Millisecond * 10,
		},
	}

	for _, option := range opts {
		option(&b.options)
	}

	b.log = b.options.Logger
	if b.log == nil {
		b.log = slog.Default()
	}
	b.log = b.log.With("component", "portaudio")

	hostAPI, err := selectHostAPI(b.options.HostAPI)
	if err != nil {
		return nil, err
	}
	b.hostAPI = hostAPI

	if b.options.InputChannels > 0 {
		if b.options.InputDevice == "default" {
			b.inDevice = hostAPI.DefaultInputDevice
		} else if b.inDevice, err = getPaDevice(b.options.InputDevice, hostAPI); err != nil {
			return nil, err
		}
		if b.inDevice == nil {
			return nil, fmt.Errorf("host api %s has no input device", hostAPI.Name)
		}
	}

	if b.options.OutputChannels > 0 {
		if b.options.OutputDevice == "default" {
			b.outDevice = hostAPI.DefaultOutputDevice
		} else if b.outDevice, err = getPaDevice(b.options.OutputDevice, hostAPI); err != nil {
			return nil, err
		}
		if b.outDevice == nil {
			return nil, fmt.Errorf("host api %s has no output device", hostAPI.Name)
		}
	}

	return b, nil
}

// Name implements backend.Backend.
func (b *Backend) Name() string { return "portaudio" }

// SampleRate implements backend.Backend.
func (b *Backend) SampleRate() float64 { return b.options.SampleRate }

// BlockLength implements backend.Backend.
func (b *Backend) BlockLength() int { return b.options.BlockLength }

// Channels implements backend.Backend.
func (b *Backend) Channels() (int, int) {
	return b.options.InputChannels, b.options.OutputChannels
}

// Xruns returns the number of callbacks flagged with an input overflow or
// output underflow since the stream was started.
func (b *Backend) Xruns() uint64 { return b.xruns.Load() }

// Start opens a duplex stream and starts it. cb is called with
// non-interleaved float32 buffers.
func (b *Backend) Start(cb backend.Callback) error {
	b.Lock()
	defer b.Unlock()

	if b.stream != nil {
		return fmt.Errorf("portaudio stream already running")
	}

	streamParm := pa.StreamParameters{
		FramesPerBuffer: b.options.BlockLength,
		SampleRate:      b.options.SampleRate,
	}
	if b.inDevice != nil {
		streamParm.Input = pa.StreamDeviceParameters{
			Device:   b.inDevice,
			Channels: b.options.InputChannels,
			Latency:  b.options.Latency,
		}
	}
	if b.outDevice != nil {
		streamParm.Output = pa.StreamDeviceParameters{
			Device:   b.outDevice,
			Channels: b.options.OutputChannels,
			Latency:  b.options.Latency,
		}
	}

	b.cb = cb
	stream, err := pa.OpenStream(streamParm, b.process)
	if err != nil {
		return fmt.Errorf("unable to open audio stream on host api %s: %w",
			b.hostAPI.Name, err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("unable to start audio stream: %w", err)
	}
	b.stream = stream

	attrs := []any{"hostapi", b.hostAPI.Name,
		"samplerate", b.options.SampleRate, "blocklength", b.options.BlockLength}
	if b.inDevice != nil {
		attrs = append(attrs, "input", b.inDevice.Name)
	}
	if b.outDevice != nil {
		attrs = append(attrs, "output", b.outDevice.Name)
	}
	b.log.Info("audio stream started", attrs...)

	return nil
}

// process is the portaudio callback; it must never block.
func (b *Backend) process(in, out [][]float32, _ pa.StreamCallbackTimeInfo, flags pa.StreamCallbackFlags) {
	if flags&(pa.InputOverflow|pa.OutputUnderflow) != 0 {
		b.xruns.Add(1)
	}
	b.cb(in, out)
}

// Stop stops the stream and returns once the callback has finished.
func (b *Backend) Stop() error {
	b.Lock()
	defer b.Unlock()

	if b.stream == nil {
		return nil
	}

	err := b.stream.Stop()
	if cerr := b.stream.Close(); err == nil {
		err = cerr
	}
	b.stream = nil

	if n := b.xruns.Swap(0); n > 0 {
		b.log.Warn("audio stream had over- or underflows", "count", n)
	}

	return err
}

// Close implements backend.Backend.
func (b *Backend) Close() error {
	return b.Stop()
}

// selectHostAPI returns the requested host api. On windows "default"
// prefers WASAPI because of its lower latency.
func selectHostAPI(name string) (*pa.HostApiInfo, error) {
	if name != "default" {
		return getHostAPI(name)
	}

	if runtime.GOOS == "windows" {
		if ha, err := pa.HostApi(pa.WASAPI); err == nil {
			return ha, nil
		}
	}

	ha, err := pa.DefaultHostApi()
	if err != nil {
		return nil, fmt.Errorf("unable to determine the default host api - please provide a specific host api")
	}
	return ha, nil
}

var hostAPITypes = map[string]pa.HostApiType{
	"indevelopment":   pa.InDevelopment,
	"directsound":     pa.DirectSound,
	"mme":             pa.MME,
	"asio":            pa.ASIO,
	"soundmanager":    pa.SoundManager,
	"coreaudio":       pa.CoreAudio,
	"oss":             pa.OSS,
	"alsa":            pa.ALSA,
	"al":              pa.AL,
	"beos":            pa.BeOS,
	"wdmks":           pa.WDMkS,
	"jack":            pa.JACK,
	"wasapi":          pa.WASAPI,
	"audiosciencehpi": pa.AudioScienceHPI,
}

// getHostAPI takes the name of a supported portaudio host api and returns
// the corresponding portaudio hostApiInfo object
func getHostAPI(name string) (*pa.HostApiInfo, error) {
	hostAPIType, ok := hostAPITypes[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown host api type: %s", name)
	}

	hostAPIInfo, err := pa.HostApi(hostAPIType)
	if err != nil {
		return nil, fmt.Errorf("unable to load host api %s: %w", name, err)
	}

	return hostAPIInfo, nil
}

// getPaDevice checks if the audio device exists on the host api and
// returns it
func getPaDevice(name string, hostAPI *pa.HostApiInfo) (*pa.DeviceInfo, error) {
	for _, device := range hostAPI.Devices {
		if strings.EqualFold(device.Name, name) {
			return device, nil
		}
	}
	return nil, fmt.Errorf("unknown audio device '%s'", name)
}

// HostAPINames returns the names accepted by the HostAPI option.
func HostAPINames() []string {
	names := make([]string, 0, len(hostAPITypes)+1)
	names = append(names, "default")
	for n := range hostAPITypes {
		names = append(names, n)
	}
	sort.Strings(names[1:])
	return names
}

// Provider creates portaudio backends.
type Provider struct {
	Logger *slog.Logger
}

// DisplayName implements backend.Provider.
func (Provider) DisplayName() string { return "PortAudio" }

// CreateBackend implements backend.Provider.
func (p Provider) CreateBackend(cfg backend.Config) (backend.Backend, error) {
	opts := []Option{
		SampleRate(cfg.SampleRate),
		BlockLength(cfg.BlockLength),
		Channels(cfg.InputChannels, cfg.OutputChannels),
		Logger(p.Logger),
	}
	if cfg.HostAPI != "" {
		opts = append(opts, HostAPI(cfg.HostAPI))
	}
	if cfg.InputDevice != "" {
		opts = append(opts, InputDevice(cfg.InputDevice))
	}
	if cfg.OutputDevice != "" {
		opts = append(opts, OutputDevice(cfg.OutputDevice))
	}
	if cfg.Latency > 0 {
		opts = append(opts, Latency(cfg.Latency))
	}
	return New(opts...)
}
