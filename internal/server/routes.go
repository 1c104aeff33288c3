// Package server wires HTTP handlers into a mux.Router for the Roomcast
// application via routing helpers.
package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

// setupRoutes configures and returns the route table: the chat and
// ping-pong WebSocket endpoints, the view counter endpoints, health check,
// server statistics, and the built-in test page.
func (s *Server) setupRoutes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/ws/ping", s.handlePingPong).Methods(http.MethodGet)
	r.HandleFunc("/ws/room/{room}/user/{user}", s.handleChat).Methods(http.MethodGet)
	r.HandleFunc("/views", s.handleViews).Methods(http.MethodGet)
	r.HandleFunc("/views/reset", s.handleViewsReset).Methods(http.MethodPost)
	r.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/test", s.handleTestPage).Methods(http.MethodGet)

	return r
}
