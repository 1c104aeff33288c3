// Package server owns the Server type that ties configuration, the room
// registry, and the view counter together and coordinates the lifecycle of
// live socket sessions.
package server

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/roomcast/roomcast/internal/relay"
)

// Server is the HTTP handler for the Roomcast service. All shared state is
// held explicitly on the struct and injected where needed, so multiple
// servers can run side by side (as the tests do) without interfering.
type Server struct {
	config   Config
	registry *relay.Registry
	views    *relay.ViewCounter
	origins  originPolicy
	upgrader websocket.Upgrader
	router   *mux.Router

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer creates a Server from the provided configuration. The
// configuration is sanitized first, so a zero Config yields a working
// server with defaults.
func NewServer(cfg Config) *Server {
	cfg = cfg.sanitize()

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:   cfg,
		registry: relay.NewRegistry(cfg.RelayCapacity),
		views:    relay.NewViewCounter(),
		origins:  newOriginPolicy(cfg.AllowedOrigins),
		ctx:      ctx,
		cancel:   cancel,
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	s.router = s.setupRoutes()

	return s
}

// ServeHTTP dispatches requests through the route table.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Shutdown initiates graceful shutdown of all live socket sessions: the
// root context is cancelled (which force-closes every session's socket),
// every room relay is closed, and the call then waits for session
// goroutines to finish or for the timeout to be reached.
func (s *Server) Shutdown(timeout time.Duration) error {
	log.Println("Shutting down active sessions...")

	s.cancel()
	s.registry.Shutdown()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("All sessions closed")
		return nil
	case <-time.After(timeout):
		log.Println("Session shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
