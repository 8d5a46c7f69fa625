// Package natsctl runs the control surface of the host as a go-micro
// service on NATS and publishes the engine's events on the broker.
//
// The service registers itself under its name, e.g. "plughost.studio",
// and serves the endpoints of Host ("Host.CreateNode", "Host.Connect", ...).
// Requests and replies are protobuf messages. Events are published as
// protobuf encoded structpb.Struct on "<name>.events.<topic>".
package natsctl

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	natsBroker "github.com/asim/go-micro/plugins/broker/nats/v3"
	natsReg "github.com/asim/go-micro/plugins/registry/nats/v3"
	natsTr "github.com/asim/go-micro/plugins/transport/nats/v3"
	micro "github.com/asim/go-micro/v3"
	"github.com/asim/go-micro/v3/broker"
	"github.com/asim/go-micro/v3/registry"
	"github.com/asim/go-micro/v3/server"
	"github.com/nats-io/nats.go"

	"github.com/dh1tw/plughost/control"
	"github.com/dh1tw/plughost/events"
)

// ErrServiceExists is returned by Start when another service with the same
// name is registered.
var ErrServiceExists = errors.New("service already exists")

// publisher is the part of broker.Broker used for events.
type publisher interface {
	Publish(topic string, m *broker.Message, opts ...broker.PublishOption) error
}

// Server is the NATS control surface of the host.
type Server struct {
	sync.Mutex
	options Options
	log     *slog.Logger
	handler *Host
	service micro.Service
	broker  broker.Broker
	evCh    chan interface{}
	done    chan struct{}
}

// New returns a Server for h. It does nothing before Start.
func New(h *control.Host, opts ...Option) *Server {
	s := &Server{
		options: Options{
			Name:    "plughost",
			Version: "dev",
		},
	}

	for _, option := range opts {
		option(&s.options)
	}

	s.options.Name = ValidateSubject(s.options.Name)
	s.handler = &Host{name: s.options.Name, host: h}

	s.log = s.options.Logger
	if s.log == nil {
		s.log = slog.Default()
	}
	s.log = s.log.With("component", "natsctl", "service", s.options.Name)

	return s
}

// Name returns the name the service registers with.
func (s *Server) Name() string {
	return s.options.Name
}

// Handler returns the handler serving the service's endpoints.
func (s *Server) Handler() *Host {
	return s.handler
}

// Start connects registry, broker and transport to the NATS servers of
// nopts, registers the service and starts forwarding events.
func (s *Server) Start(nopts nats.Options) error {
	s.Lock()
	defer s.Unlock()

	if s.service != nil {
		return fmt.Errorf("natsctl: already started")
	}

	name := s.options.Name

	// distinguishable connections in nats-top
	regNatsOpts, brNatsOpts, trNatsOpts := nopts, nopts, nopts
	regNatsOpts.Name = name + ":registry"
	brNatsOpts.Name = name + ":broker"
	trNatsOpts.Name = name + ":transport"

	reg := natsReg.NewRegistry(natsReg.Options(regNatsOpts), registry.Timeout(2*time.Second))
	br := natsBroker.NewBroker(natsBroker.Options(brNatsOpts))
	tr := natsTr.NewTransport(natsTr.Options(trNatsOpts))

	// the server address is the subject the transport listens on
	svr := server.NewServer(
		server.Name(name),
		server.Version(s.options.Version),
		server.Address(name),
		server.RegisterInterval(10*time.Second),
		server.Transport(tr),
		server.Registry(reg),
		server.Broker(br),
	)

	service := micro.NewService(
		micro.Name(name),
		micro.Broker(br),
		micro.Transport(tr),
		micro.Registry(reg),
		micro.Version(s.options.Version),
		micro.Server(svr),
	)

	services, err := reg.ListServices()
	if err != nil {
		return fmt.Errorf("natsctl: registry: %w", err)
	}
	for _, svc := range services {
		if svc.Name == name {
			return fmt.Errorf("natsctl: %w: %s", ErrServiceExists, name)
		}
	}

	if err := br.Connect(); err != nil {
		return fmt.Errorf("natsctl: broker: %w", err)
	}

	if err := svr.Handle(svr.NewHandler(s.handler)); err != nil {
		br.Disconnect()
		return fmt.Errorf("natsctl: handler: %w", err)
	}

	if err := svr.Start(); err != nil {
		br.Disconnect()
		return fmt.Errorf("natsctl: server: %w", err)
	}

	s.service = service
	s.broker = br
	s.startEvents(br)

	s.log.Info("control service started", "version", s.options.Version)
	return nil
}

// Stop deregisters the service and disconnects from the broker.
func (s *Server) Stop() error {
	s.Lock()
	defer s.Unlock()

	if s.service == nil {
		return nil
	}

	err := s.service.Server().Stop()
	s.stopEvents()
	if derr := s.broker.Disconnect(); err == nil {
		err = derr
	}
	s.service = nil
	s.broker = nil

	s.log.Info("control service stopped")
	return err
}

func (s *Server) startEvents(p publisher) {
	if s.options.Events == nil {
		return
	}
	s.evCh = s.options.Events.Subscribe()
	s.done = make(chan struct{})
	go s.forward(p, s.evCh, s.done)
}

// stopEvents must not be called from forward; the subscription is only
// closed while forward keeps reading.
func (s *Server) stopEvents() {
	if s.evCh == nil {
		return
	}
	s.options.Events.Unsubscribe(s.evCh)
	<-s.done
	s.evCh = nil
}

// forward publishes the bus events on the broker until ch is closed.
func (s *Server) forward(p publisher, ch chan interface{}, done chan struct{}) {
	defer close(done)
	for ev := range ch {
		e, ok := ev.(events.Event)
		if !ok {
			continue
		}
		data, err := EncodeEvent(e)
		if err != nil {
			s.log.Warn("unable to encode event", "topic", e.Topic, "error", err)
			continue
		}
		msg := &broker.Message{
			Header: map[string]string{"topic": e.Topic},
			Body:   data,
		}
		if err := p.Publish(s.EventTopic(e.Topic), msg); err != nil {
			s.log.Warn("unable to publish event", "topic", e.Topic, "error", err)
		}
	}
}

// EventTopic returns the broker topic events of topic are published on.
func (s *Server) EventTopic(topic string) string {
	return s.options.Name + ".events." + topic
}

// ValidateSubject replaces the characters nats does not allow in subject
// names.
func ValidateSubject(subject string) string {
	return strings.NewReplacer(" ", "_", "\t", "_", "*", "_", ">", "_").Replace(subject)
}
