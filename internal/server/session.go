// Package server implements the chat session: the paired socket tasks that
// bridge one WebSocket connection to its room's relay.
package server

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"

	"github.com/roomcast/roomcast/internal/relay"
)

// maxBodyChars is the longest message body, counted in characters, that a
// session will deliver to its subscriber. Longer bodies and empty bodies
// are dropped before the socket write and never counted as views.
const maxBodyChars = 128

// previewChars bounds how much of a dropped body makes it into the log.
const previewChars = 16

// chatSession bridges one WebSocket connection to its room's relay. The
// inbound task publishes parsed client messages under the session's bound
// username; the outbound task delivers relayed messages to the socket and
// counts each successful write as a view. The two tasks share no mutable
// state; they are tied together only by the session context.
type chatSession struct {
	id    string
	room  uint64
	user  string
	conn  *websocket.Conn
	sub   *relay.Subscription
	views *relay.ViewCounter
}

// runChatSession subscribes the connection to its room and runs the
// inbound and outbound tasks until either stops. Whichever task finishes
// first cancels the session context; the watcher goroutine then closes the
// socket, which promptly unblocks whatever read or write the other task is
// parked on. The subscription and socket are always released before the
// session returns.
func (s *Server) runChatSession(conn *websocket.Conn, room uint64, user string) {
	rl := s.registry.GetOrCreate(room)

	sub, err := rl.Subscribe()
	if err != nil {
		// Only possible once shutdown has closed the room's relay.
		log.Printf("Rejecting chat connection from %s: %v", conn.RemoteAddr(), err)
		_ = conn.Close()
		return
	}

	sess := &chatSession{
		id:    shortID(),
		room:  room,
		user:  user,
		conn:  conn,
		sub:   sub,
		views: s.views,
	}

	conn.SetReadLimit(s.config.MaxMessageSize)
	log.Printf("[%s] %q joined room %d from %s", sess.id, user, room, conn.RemoteAddr())

	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	// Closing the socket is the cancellation mechanism: it unblocks both a
	// pending read and a pending write on the connection.
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		<-ctx.Done()
		closeQuietly(conn, sess.id)
	}()

	var tasks sync.WaitGroup
	tasks.Add(2)
	go func() {
		defer tasks.Done()
		defer cancel()
		sess.outbound(ctx)
	}()
	go func() {
		defer tasks.Done()
		defer cancel()
		sess.inbound(rl)
	}()
	tasks.Wait()

	sub.Close()
	<-watchDone
	log.Printf("[%s] %q left room %d", sess.id, user, room)
}

// outbound delivers relayed messages to the socket. Bodies that are empty
// or longer than maxBodyChars are dropped here, before the write, so the
// peer never sees them and no view is counted. Every successful write
// increments the view counter once. The task ends when the subscription is
// invalidated, the session is cancelled, or a write fails.
func (c *chatSession) outbound(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-c.sub.C():
			if !ok {
				// Lagged out of the relay or the room shut down.
				log.Printf("[%s] Subscription for room %d closed", c.id, c.room)
				return
			}

			if msg.Body == "" {
				log.Printf("[%s] Declining to deliver empty message in room %d", c.id, c.room)
				continue
			}
			if chars := utf8.RuneCountInString(msg.Body); chars > maxBodyChars {
				log.Printf("[%s] Declining to deliver %d character message in room %d (starts with %q)",
					c.id, chars, c.room, preview(msg.Body))
				continue
			}

			payload, err := json.Marshal(msg)
			if err != nil {
				log.Printf("[%s] Error serializing message: %v", c.id, err)
				return
			}

			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Printf("[%s] Error setting write deadline: %v", c.id, err)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				if !isExpectedCloseError(err) {
					log.Printf("[%s] Error delivering message to %q: %v", c.id, c.user, err)
				}
				return
			}

			c.views.Increment()
		}
	}
}

// inbound publishes client messages to the room's relay. The user field of
// every inbound message is overwritten with the session's bound username
// before publication; whatever the client supplied is discarded. A read
// error, a non-text frame, a parse failure, or a publish failure ends the
// task. None of these affect any other connection in the room.
func (c *chatSession) inbound(rl *relay.Relay) {
	for {
		msgType, raw, err := c.conn.ReadMessage()
		if err != nil {
			logReadEnd(c.id, err)
			return
		}
		if msgType != websocket.TextMessage {
			log.Printf("[%s] Ending inbound task for %q: unexpected binary frame", c.id, c.user)
			return
		}

		var msg relay.Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("[%s] Invalid message from %q: %v", c.id, c.user, err)
			return
		}

		msg.User = c.user

		if err := rl.Publish(msg, c.sub); err != nil {
			log.Printf("[%s] Publish to room %d failed: %v", c.id, c.room, err)
			return
		}
	}
}

// preview returns the first previewChars characters of body without
// splitting a multi-byte character.
func preview(body string) string {
	count := 0
	for i := range body {
		if count == previewChars {
			return body[:i]
		}
		count++
	}
	return body
}
