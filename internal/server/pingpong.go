// Package server implements the ping-pong diagnostic session used to probe
// round-trip liveness without joining a room.
package server

import (
	"context"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

// pingPongState tracks whether a diagnostic session has been served yet.
type pingPongState int

const (
	// awaitingServe is the initial state: pings are ignored until the
	// client sends "serve".
	awaitingServe pingPongState = iota
	// rallying means "serve" has been received and every "ping" is
	// answered with "pong".
	rallying
)

// pingPongSession answers "ping" with "pong", but only after the client
// has opened the rally with "serve". Anything else is logged and ignored;
// the session only ends when the connection does.
type pingPongSession struct {
	id    string
	conn  *websocket.Conn
	state pingPongState
}

// runPingPongSession drives a diagnostic session until the client
// disconnects or the server shuts down. The same watcher arrangement as
// chat sessions applies: cancelling the session context closes the socket,
// which unblocks the read loop.
func (s *Server) runPingPongSession(conn *websocket.Conn) {
	sess := &pingPongSession{
		id:   shortID(),
		conn: conn,
	}

	conn.SetReadLimit(s.config.MaxMessageSize)
	log.Printf("[%s] Ping-pong session opened from %s", sess.id, conn.RemoteAddr())

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		<-ctx.Done()
		closeQuietly(conn, sess.id)
	}()

	for sess.step() {
	}

	cancel()
	<-watchDone
	log.Printf("[%s] Ping-pong session ended", sess.id)
}

// step handles one inbound frame and reports whether the session should
// continue. Only a read or write failure stops the rally; unrecognized
// payloads are ignored so a sloppy client cannot end its own session.
func (p *pingPongSession) step() bool {
	msgType, raw, err := p.conn.ReadMessage()
	if err != nil {
		logReadEnd(p.id, err)
		return false
	}
	if msgType != websocket.TextMessage {
		log.Printf("[%s] Ignoring binary frame", p.id)
		return true
	}

	text := string(raw)
	switch {
	case p.state == awaitingServe && text == "serve":
		log.Printf("[%s] Serve received, rally on", p.id)
		p.state = rallying

	case p.state == rallying && text == "ping":
		if err := p.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			log.Printf("[%s] Error setting write deadline: %v", p.id, err)
			return false
		}
		if err := p.conn.WriteMessage(websocket.TextMessage, []byte("pong")); err != nil {
			if !isExpectedCloseError(err) {
				log.Printf("[%s] Error sending pong: %v", p.id, err)
			}
			return false
		}

	case p.state == awaitingServe && text == "ping":
		log.Printf("[%s] Ignoring ping before serve", p.id)

	default:
		log.Printf("[%s] Ignoring unrecognized payload %q", p.id, preview(text))
	}

	return true
}
