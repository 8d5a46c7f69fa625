// Copyright © 2016 Tobias Wellnitz, DH1TW <Tobias.Wellnitz@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.


package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/dh1tw/plughost/audiocodec"
	"github.com/dh1tw/plughost/audiocodec/opus"
	"github.com/dh1tw/plughost/audiocodec/wav"
	"github.com/dh1tw/plughost/backend"
	"github.com/dh1tw/plughost/backend/dummy"
	pabackend "github.com/dh1tw/plughost/backend/portaudio"
	"github.com/dh1tw/plughost/control"
	"github.com/dh1tw/plughost/engine"
	"github.com/dh1tw/plughost/events"
	"github.com/dh1tw/plughost/metrics"
	"github.com/dh1tw/plughost/natsctl"
	"github.com/dh1tw/plughost/nodes"
	"github.com/dh1tw/plughost/plugin"
	"github.com/dh1tw/plughost/plugin/ladspa"
	"github.com/dh1tw/plughost/plugin/lv2"
	"github.com/dh1tw/plughost/webserver"
	"github.com/gordonklaus/portaudio"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the plugin host",
	Long: `Run the plugin host

The engine renders the processing graph through the selected audio
backend. Nodes and routes are managed through the REST API (and the
websocket event stream) and, if a NATS url is configured, through NATS
request/reply subjects.

In order to find the supported audio devices and audio host APIs
for your platform run:

$ plughost(.exe) enumerate
`,
	Run: runServe,
}

func init() {
	RootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Float64P("sample-rate", "s", 48000, "engine sample rate")
	serveCmd.Flags().IntP("block-length", "b", 256, "max frames rendered per cycle")
	serveCmd.Flags().Int("queue-capacity", engine.DefaultQueueCapacity, "commands the queue holds before producers block")
	serveCmd.Flags().Int("commands-per-cycle", engine.DefaultMaxPerCycle, "commands executed per render cycle")
	serveCmd.Flags().StringSlice("ladspa-path", nil, "LADSPA plugin directories (default $LADSPA_PATH or the system locations)")
	serveCmd.Flags().String("samples", "", "directory with audio files offered as player nodes")
	serveCmd.Flags().String("recordings", "", "directory recorder nodes write to (empty disables recorders)")
	serveCmd.Flags().String("backend", "portaudio", "audio backend (portaudio, dummy)")

	serveCmd.Flags().String("host-api", "default", "portaudio host API")
	serveCmd.Flags().StringP("input-device", "i", "default", "input device")
	serveCmd.Flags().StringP("output-device", "o", "default", "output device")
	serveCmd.Flags().Int("input-channels", 2, "capture channels")
	serveCmd.Flags().Int("output-channels", 2, "playback channels")
	serveCmd.Flags().Duration("latency", time.Millisecond*5, "suggested device latency")

	serveCmd.Flags().StringP("web-host", "w", "127.0.0.1", "host (interface) of the webserver")
	serveCmd.Flags().IntP("web-port", "k", 8080, "port of the webserver (0 disables it)")

	serveCmd.Flags().StringP("nats-url", "u", "", "NATS server url (empty disables NATS)")
	serveCmd.Flags().String("nats-subject", "plughost", "service name of the NATS interface")

	viper.BindPFlag("engine.sample-rate", serveCmd.Flags().Lookup("sample-rate"))
	viper.BindPFlag("engine.block-length", serveCmd.Flags().Lookup("block-length"))
	viper.BindPFlag("engine.queue-capacity", serveCmd.Flags().Lookup("queue-capacity"))
	viper.BindPFlag("engine.commands-per-cycle", serveCmd.Flags().Lookup("commands-per-cycle"))
	viper.BindPFlag("ladspa.path", serveCmd.Flags().Lookup("ladspa-path"))
	viper.BindPFlag("samples.dir", serveCmd.Flags().Lookup("samples"))
	viper.BindPFlag("recordings.dir", serveCmd.Flags().Lookup("recordings"))
	viper.BindPFlag("backend.name", serveCmd.Flags().Lookup("backend"))

	viper.BindPFlag("portaudio.host-api", serveCmd.Flags().Lookup("host-api"))
	viper.BindPFlag("portaudio.input-device", serveCmd.Flags().Lookup("input-device"))
	viper.BindPFlag("portaudio.output-device", serveCmd.Flags().Lookup("output-device"))
	viper.BindPFlag("portaudio.input-channels", serveCmd.Flags().Lookup("input-channels"))
	viper.BindPFlag("portaudio.output-channels", serveCmd.Flags().Lookup("output-channels"))
	viper.BindPFlag("portaudio.latency", serveCmd.Flags().Lookup("latency"))

	viper.BindPFlag("web.host", serveCmd.Flags().Lookup("web-host"))
	viper.BindPFlag("web.port", serveCmd.Flags().Lookup("web-port"))

	viper.BindPFlag("nats.url", serveCmd.Flags().Lookup("nats-url"))
	viper.BindPFlag("nats.subject", serveCmd.Flags().Lookup("nats-subject"))
}

var registerOnce sync.Once

// registerProviders makes the backends and audio file readers available.
func registerProviders(logger *slog.Logger) {
	registerOnce.Do(func() {
		backend.Register("dummy", dummy.Provider{})
		backend.Register("portaudio", pabackend.Provider{Logger: logger})
		audiocodec.Register(wav.Reader{})
		audiocodec.Register(opus.NewReader())
	})
}

func runServe(cmd *cobra.Command, args []string) {

	if err := readConfig(); err != nil {
		exit(err)
	}

	logger, err := newLogger()
	if err != nil {
		exit(err)
	}
	slog.SetDefault(logger)

	registerProviders(logger)

	// check if values from config file / pflags are valid
	if err := checkParameterValues(); err != nil {
		exit(err)
	}

	// viper settings need to be copied in local variables
	// since viper lookups allocate of each lookup a copy
	// and are quite unperformant

	sampleRate := viper.GetFloat64("engine.sample-rate")
	blockLength := viper.GetInt("engine.block-length")
	queueCapacity := viper.GetInt("engine.queue-capacity")
	commandsPerCycle := viper.GetInt("engine.commands-per-cycle")
	ladspaPath := viper.GetStringSlice("ladspa.path")
	samplesDir := viper.GetString("samples.dir")
	recordDir := viper.GetString("recordings.dir")
	backendName := viper.GetString("backend.name")

	inChannels := viper.GetInt("portaudio.input-channels")
	outChannels := viper.GetInt("portaudio.output-channels")

	webHost := viper.GetString("web.host")
	webPort := viper.GetInt("web.port")

	natsURL := viper.GetString("nats.url")
	natsSubject := viper.GetString("nats.subject")

	if len(ladspaPath) == 0 {
		ladspaPath = ladspa.DefaultSearchPath()
	}
	if samplesDir != "" {
		if samplesDir, err = filepath.Abs(samplesDir); err != nil {
			exit(err)
		}
	}

	if backendName == "portaudio" {
		if err := portaudio.Initialize(); err != nil {
			exit(fmt.Errorf("portaudio: %w", err))
		}
		defer portaudio.Terminate()
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	bus := events.NewBus(64)
	defer bus.Close()

	registry := ladspa.NewRegistry(
		ladspa.Logger(logger),
		ladspa.Metrics(metrics.NewDiscovery(promReg)),
		ladspa.Events(bus),
	)
	defer registry.Close()
	registry.Discover(ladspaPath)

	table := plugin.NewTable(
		&nodes.Factory{SampleDir: samplesDir, RecordDir: recordDir, SampleRate: sampleRate},
		&ladspa.Factory{Registry: registry, SampleRate: sampleRate},
	)

	uris := lv2.NewURIRegistry()
	features := lv2.DefaultFeatures(uris, logger)

	e := engine.New(
		engine.SampleRate(sampleRate),
		engine.BlockLength(blockLength),
		engine.Channels(inChannels, outChannels),
		engine.Queue(engine.Capacity(queueCapacity), engine.MaxPerCycle(commandsPerCycle)),
		engine.Logger(logger),
		engine.Metrics(metrics.NewEngine(promReg)),
		engine.Events(bus),
	)
	defer e.Close()

	b, err := backend.Create(backendName, backend.Config{
		SampleRate:     sampleRate,
		BlockLength:    blockLength,
		InputChannels:  inChannels,
		OutputChannels: outChannels,
		HostAPI:        viper.GetString("portaudio.host-api"),
		InputDevice:    viper.GetString("portaudio.input-device"),
		OutputDevice:   viper.GetString("portaudio.output-device"),
		Latency:        viper.GetDuration("portaudio.latency"),
	})
	if err != nil {
		exit(err)
	}
	defer b.Close()

	if err := e.Start(b); err != nil {
		exit(err)
	}
	defer e.Stop()

	host := control.NewHost(e, table, uris, features, registry)

	// webserver is optional
	var web *webserver.WebServer
	if webPort > 0 {
		web = webserver.New(host,
			webserver.Host(webHost),
			webserver.Port(webPort),
			webserver.Logger(logger),
			webserver.Events(bus),
			webserver.Gatherer(promReg),
		)
		go func() {
			if err := web.ListenAndServe(); err != nil {
				logger.Error("webserver stopped", "error", err)
				bus.Publish(events.Event{Topic: events.OsExit})
			}
		}()
	}

	// nats is optional
	if natsURL != "" {
		// start from default nats config and add the common options
		nopts := nats.GetDefaultOptions()
		nopts.Servers = []string{natsURL}
		nopts.MaxReconnect = -1
		nopts.DisconnectedErrCB = func(_ *nats.Conn, err error) {
			logger.Warn("disconnected from nats server", "error", err)
		}
		nopts.ReconnectedCB = func(c *nats.Conn) {
			logger.Info("reconnected to nats server", "url", c.ConnectedUrl())
		}

		ns := natsctl.New(host,
			natsctl.Name(natsSubject),
			natsctl.Version(version),
			natsctl.Logger(logger),
			natsctl.Events(bus),
		)
		if err := ns.Start(nopts); err != nil {
			exit(err)
		}
		defer ns.Stop()
	}

	exitCh := bus.Subscribe(events.OsExit)
	go events.WatchSystemEvents(bus)

	<-exitCh
	logger.Info("shutting down")

	if web != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := web.Shutdown(ctx); err != nil {
			logger.Error("webserver shutdown", "error", err)
		}
	}
}
