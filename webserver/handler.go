package webserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/dh1tw/plughost/control"
)

func (web *WebServer) webSocketHdlr(w http.ResponseWriter, req *http.Request) {

	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		web.log.Warn("unable to open websocket", "remote", req.RemoteAddr, "error", err)
		return
	}

	wsClient := &wsClient{
		ws:           conn,
		send:         make(chan []byte, 16),
		removeClient: web.removeWsClient,
		done:         web.done,
	}

	select {
	case web.addWsClient <- wsClient:
	case <-web.done:
		conn.Close()
		return
	}

	go wsClient.write()
	go wsClient.read()
}

func (web *WebServer) engineHdlr(w http.ResponseWriter, req *http.Request) {
	web.encode(w, http.StatusOK, web.host.Engine())
}

func (web *WebServer) pluginsHdlr(w http.ResponseWriter, req *http.Request) {
	web.encode(w, http.StatusOK, web.host.Plugins())
}

func (web *WebServer) nodesHdlr(w http.ResponseWriter, req *http.Request) {
	web.encode(w, http.StatusOK, web.host.Nodes())
}

func (web *WebServer) createNodeHdlr(w http.ResponseWriter, req *http.Request) {
	var msg control.CreateNode
	if !web.decode(w, req, &msg) {
		return
	}
	node, err := web.host.CreateNode(msg)
	if err != nil {
		web.fail(w, err)
		return
	}
	web.encode(w, http.StatusCreated, node)
}

func (web *WebServer) nodeHdlr(w http.ResponseWriter, req *http.Request) {
	node, err := web.host.Node(mux.Vars(req)["node"])
	if err != nil {
		web.fail(w, err)
		return
	}
	web.encode(w, http.StatusOK, node)
}

func (web *WebServer) removeNodeHdlr(w http.ResponseWriter, req *http.Request) {
	if err := web.host.RemoveNode(mux.Vars(req)["node"]); err != nil {
		web.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (web *WebServer) controlHdlr(w http.ResponseWriter, req *http.Request) {
	vars := mux.Vars(req)
	ref := vars["node"] + ":" + vars["port"]

	switch req.Method {
	case "GET":
		v, err := web.host.Control(ref)
		if err != nil {
			web.fail(w, err)
			return
		}
		web.encode(w, http.StatusOK, control.ControlValue{Value: &v})

	case "PUT":
		var msg control.ControlValue
		if !web.decode(w, req, &msg) {
			return
		}
		if err := web.host.SetControl(ref, msg); err != nil {
			web.fail(w, err)
			return
		}
		web.encode(w, http.StatusOK, msg)
	}
}

func (web *WebServer) routesHdlr(w http.ResponseWriter, req *http.Request) {
	if req.Method == "GET" {
		web.encode(w, http.StatusOK, web.host.Routes())
		return
	}

	var msg control.RouteInfo
	if !web.decode(w, req, &msg) {
		return
	}

	var err error
	status := http.StatusCreated
	if req.Method == "DELETE" {
		err = web.host.Disconnect(msg)
		status = http.StatusOK
	} else {
		err = web.host.Connect(msg)
	}
	if err != nil {
		web.fail(w, err)
		return
	}
	web.encode(w, status, msg)
}

func (web *WebServer) urisHdlr(w http.ResponseWriter, req *http.Request) {
	if req.Method == "GET" {
		web.encode(w, http.StatusOK, web.host.URIs())
		return
	}

	var msg control.URIInfo
	if !web.decode(w, req, &msg) {
		return
	}
	res, err := web.host.MapURI(msg.URI)
	if err != nil {
		web.fail(w, err)
		return
	}
	web.encode(w, http.StatusOK, res)
}

func (web *WebServer) uriHdlr(w http.ResponseWriter, req *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(req)["id"], 10, 32)
	if err != nil {
		web.fail(w, fmt.Errorf("%w: %v", control.ErrBadRequest, err))
		return
	}
	res, err := web.host.UnmapURI(uint32(id))
	if err != nil {
		web.fail(w, err)
		return
	}
	web.encode(w, http.StatusOK, res)
}

func (web *WebServer) decode(w http.ResponseWriter, req *http.Request, v interface{}) bool {
	defer req.Body.Close()
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		web.fail(w, fmt.Errorf("%w: invalid JSON: %v", control.ErrBadRequest, err))
		return false
	}
	return true
}

func (web *WebServer) encode(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		web.log.Warn("unable to encode response", "error", err)
	}
}

func (web *WebServer) fail(w http.ResponseWriter, err error) {
	msg := control.NewError(err)
	if msg.Code == http.StatusInternalServerError {
		web.log.Error("request failed", "error", err)
	}
	web.encode(w, msg.Code, msg)
}
