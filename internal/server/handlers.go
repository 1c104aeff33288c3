// Package server exposes HTTP handlers, including WebSocket upgrades for
// chat rooms and ping-pong sessions, the view counter endpoints, health
// checks, and server statistics.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// handleChat handles chat WebSocket upgrade requests. The room id from the
// request path must parse as a non-negative integer; unknown ids are valid
// and create the room on first join. The username is taken verbatim. After
// a successful upgrade the handler runs the connection's session until the
// client disconnects.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	room, err := strconv.ParseUint(vars["room"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid room id: must be a non-negative integer.", http.StatusBadRequest)
		return
	}
	user := vars["user"]

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	s.wg.Add(1)
	defer s.wg.Done()
	s.runChatSession(conn, room, user)
}

// handlePingPong upgrades the request and plays the serve/rally protocol on
// the resulting socket.
func (s *Server) handlePingPong(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	s.wg.Add(1)
	defer s.wg.Done()
	s.runPingPongSession(conn)
}

// handleViews reports the current view counter as a JSON number.
func (s *Server) handleViews(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.views.Value())
}

// handleViewsReset zeroes the view counter and logs the value it held.
func (s *Server) handleViewsReset(w http.ResponseWriter, _ *http.Request) {
	previous := s.views.Reset()
	log.Printf("View counter reset; discarded %d views", previous)
	w.WriteHeader(http.StatusOK)
}

// handleHealth provides a simple health check endpoint that returns server status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "Roomcast server is running!")
}

// handleStats reports a point-in-time snapshot of room, subscriber, and
// view counts.
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"rooms":       s.registry.Len(),
		"subscribers": s.registry.Subscribers(),
		"views":       s.views.Value(),
	})
}

// respondJSON writes data as a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error writing JSON response: %v", err)
	}
}
