package webserver

import "github.com/prometheus/client_golang/prometheus/promhttp"

func (web *WebServer) routes() {
	api := web.router.PathPrefix("/api/v" + web.apiVersion).Subrouter()
	api.HandleFunc("/engine", web.engineHdlr).Methods("GET")
	api.HandleFunc("/plugins", web.pluginsHdlr).Methods("GET")
	api.HandleFunc("/nodes", web.nodesHdlr).Methods("GET")
	api.HandleFunc("/nodes", web.createNodeHdlr).Methods("POST")
	api.HandleFunc("/node/{node}", web.nodeHdlr).Methods("GET")
	api.HandleFunc("/node/{node}", web.removeNodeHdlr).Methods("DELETE")
	api.HandleFunc("/node/{node}/control/{port}", web.controlHdlr).Methods("GET", "PUT")
	api.HandleFunc("/routes", web.routesHdlr).Methods("GET", "POST", "DELETE")
	api.HandleFunc("/uris", web.urisHdlr).Methods("GET", "POST")
	api.HandleFunc("/uri/{id:[0-9]+}", web.uriHdlr).Methods("GET")
	web.router.HandleFunc("/ws", web.webSocketHdlr)

	if web.options.Gatherer != nil {
		web.router.Handle("/metrics", promhttp.HandlerFor(web.options.Gatherer, promhttp.HandlerOpts{}))
	}
}
