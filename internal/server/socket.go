// Package server defines shared socket lifecycle helpers that are reused
// across the chat and ping-pong session logic.
package server

import (
	"errors"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// writeWait bounds each individual socket write so a wedged peer surfaces
// as a transport failure instead of blocking a session forever. Idle
// connections are never timed out; the deadline applies per write only.
const writeWait = 10 * time.Second

// shortID returns the first segment of a UUID, enough to correlate the log
// lines of one session.
func shortID() string {
	return uuid.NewString()[:8]
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}

// closeQuietly closes the socket, logging only unexpected errors.
func closeQuietly(conn *websocket.Conn, id string) {
	if err := conn.Close(); err != nil && !isExpectedCloseError(err) {
		log.Printf("[%s] Error closing connection: %v", id, err)
	}
}

// logReadEnd logs the error that ended a session's read loop, keeping
// routine disconnect notifications out of the error log.
func logReadEnd(id string, err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		log.Printf("[%s] Inbound frame exceeded the socket read limit", id)
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		log.Printf("[%s] Peer disconnected: %v", id, err)
	case errors.Is(err, io.EOF), isExpectedCloseError(err):
		log.Printf("[%s] Connection closed: %v", id, err)
	default:
		log.Printf("[%s] WebSocket read error: %v", id, err)
	}
}
