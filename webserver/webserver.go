// Package webserver serves the REST API, the websocket event stream and
// the prometheus metrics of the host.
package webserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/dh1tw/plughost/control"
)

var upgrader = websocket.Upgrader{}

// WebServer is the HTTP control surface of the host.
type WebServer struct {
	sync.Mutex
	options    Options
	log        *slog.Logger
	host       *control.Host
	router     *mux.Router
	apiVersion string
	apiMatch   *regexp.Regexp
	server     *http.Server

	wsClients      map[*wsClient]struct{}
	addWsClient    chan *wsClient
	removeWsClient chan *wsClient
	evCh           chan interface{}
	done           chan struct{}
	wg             sync.WaitGroup
}

// New returns a WebServer working on h.
func New(h *control.Host, opts ...Option) *WebServer {
	web := &WebServer{
		options: Options{
			Host: "127.0.0.1",
			Port: 8080,
		},
		host:           h,
		router:         mux.NewRouter().StrictSlash(true),
		apiVersion:     "1.0",
		apiMatch:       regexp.MustCompile(`api\/v\d\.\d\/`),
		wsClients:      make(map[*wsClient]struct{}),
		addWsClient:    make(chan *wsClient),
		removeWsClient: make(chan *wsClient),
		done:           make(chan struct{}),
	}

	for _, option := range opts {
		option(&web.options)
	}

	web.log = web.options.Logger
	if web.log == nil {
		web.log = slog.Default()
	}
	web.log = web.log.With("component", "webserver")

	web.routes()

	if web.options.Events != nil {
		web.evCh = web.options.Events.Subscribe()
	}

	web.wg.Add(1)
	go web.hub()

	return web
}

// Handler returns the root handler of the server.
func (web *WebServer) Handler() http.Handler {
	return web.apiRedirectRouter(web.router)
}

// ListenAndServe serves until Shutdown is called.
func (web *WebServer) ListenAndServe() error {
	addr := net.JoinHostPort(web.options.Host, strconv.Itoa(web.options.Port))

	web.Lock()
	web.server = &http.Server{
		Addr:              addr,
		Handler:           web.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := web.server
	web.Unlock()

	web.log.Info("webserver listening", "address", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("webserver: %w", err)
	}
	return nil
}

// Shutdown stops the server and disconnects all websocket clients.
func (web *WebServer) Shutdown(ctx context.Context) error {
	web.Lock()
	srv := web.server
	web.Unlock()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}
	// the hub keeps reading the events until the bus has closed the
	// channel
	if web.evCh != nil {
		web.options.Events.Unsubscribe(web.evCh)
	}
	close(web.done)
	web.wg.Wait()
	return err
}

// hub keeps track of the websocket clients and forwards the engine's
// events to them.
func (web *WebServer) hub() {
	defer web.wg.Done()

	evCh := web.evCh

	for {
		select {
		case ev, ok := <-evCh:
			if !ok {
				evCh = nil
				continue
			}
			data, err := json.Marshal(ev)
			if err != nil {
				web.log.Warn("unable to encode event", "error", err)
				continue
			}
			web.broadcast(data)

		case client := <-web.addWsClient:
			web.log.Debug("websocket connected", "remote", client.ws.RemoteAddr().String())
			web.wsClients[client] = struct{}{}

		case client := <-web.removeWsClient:
			if _, ok := web.wsClients[client]; ok {
				web.log.Debug("websocket disconnected", "remote", client.ws.RemoteAddr().String())
				delete(web.wsClients, client)
				close(client.send)
			}

		case <-web.done:
			for client := range web.wsClients {
				delete(web.wsClients, client)
				close(client.send)
			}
			if evCh != nil {
				for range evCh {
				}
			}
			return
		}
	}
}

// broadcast drops messages for clients which can't keep up.
func (web *WebServer) broadcast(data []byte) {
	for client := range web.wsClients {
		select {
		case client.send <- data:
		default:
			web.log.Warn("websocket client too slow, dropping event",
				"remote", client.ws.RemoteAddr().String())
		}
	}
}

type wsClient struct {
	ws           *websocket.Conn
	send         chan []byte
	removeClient chan<- *wsClient
	done         <-chan struct{}
}

func (c *wsClient) write() {
	defer c.ws.Close()

	for message := range c.send {
		if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.ws.WriteMessage(websocket.CloseMessage, []byte{})
}

// read discards incoming messages; it only detects when the client goes
// away.
func (c *wsClient) read() {
	defer func() {
		select {
		case c.removeClient <- c:
		case <-c.done:
		}
	}()

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
	}
}
