// Shared helpers for the tests in this package. Most tests run a real
// httptest server and talk to it over real WebSocket connections.
package server

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/roomcast/roomcast/internal/relay"
)

// newTestServer starts an httptest server around a fresh Server. Cleanup
// shuts the sessions down before the listener goes away, because hijacked
// WebSocket connections are invisible to httptest.Server.Close.
func newTestServer(t *testing.T, customize func(cfg *Config)) (*Server, *httptest.Server) {
	t.Helper()

	cfg := NewConfig()
	if customize != nil {
		customize(cfg)
	}

	srv := NewServer(*cfg)
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		_ = srv.Shutdown(2 * time.Second)
		ts.Close()
	})

	return srv, ts
}

// wsURL rewrites the httptest base URL to the ws scheme with the given path.
func wsURL(t *testing.T, base, path string) string {
	t.Helper()

	u, err := url.Parse(base)
	if err != nil {
		t.Fatalf("Failed to parse test server URL: %v", err)
	}
	u.Scheme = "ws"
	u.Path = path
	return u.String()
}

// dialChat connects a named client to a chat room, presenting an origin
// the default configuration allows.
func dialChat(t *testing.T, ts *httptest.Server, room uint64, user string) *websocket.Conn {
	t.Helper()

	target := wsURL(t, ts.URL, fmt.Sprintf("/ws/room/%d/user/%s", room, user))
	conn, resp, err := websocket.DefaultDialer.Dial(target, newOriginHeader(defaultAllowedOrigin))
	if err != nil {
		t.Fatalf("Failed to connect %q to room %d: %v", user, room, err)
	}
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

// dialPingPong connects a client to the ping-pong endpoint.
func dialPingPong(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(t, ts.URL, "/ws/ping"), newOriginHeader(defaultAllowedOrigin))
	if err != nil {
		t.Fatalf("Failed to connect to ping-pong endpoint: %v", err)
	}
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func newOriginHeader(origin string) http.Header {
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	return header
}

func mustMarshalMessage(t *testing.T, user, body string) []byte {
	t.Helper()

	payload, err := json.Marshal(relay.Message{User: user, Body: body})
	if err != nil {
		t.Fatalf("Failed to marshal message: %v", err)
	}
	return payload
}

// sendChatMessage writes one chat payload as a text frame.
func sendChatMessage(t *testing.T, conn *websocket.Conn, user, body string) {
	t.Helper()

	if err := conn.WriteMessage(websocket.TextMessage, mustMarshalMessage(t, user, body)); err != nil {
		t.Fatalf("Failed to send message: %v", err)
	}
}

// sendText writes a raw text frame.
func sendText(t *testing.T, conn *websocket.Conn, text string) {
	t.Helper()

	if err := conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		t.Fatalf("Failed to send %q: %v", text, err)
	}
}

// readChatMessage reads the next text frame and decodes it as a chat message.
func readChatMessage(t *testing.T, conn *websocket.Conn, timeout time.Duration) relay.Message {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	msgType, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read message: %v", err)
	}
	if msgType != websocket.TextMessage {
		t.Fatalf("Expected text message, got type %d", msgType)
	}

	var msg relay.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("Failed to unmarshal message %q: %v", raw, err)
	}
	return msg
}

// readTextFrame reads the next text frame without decoding it.
func readTextFrame(t *testing.T, conn *websocket.Conn, timeout time.Duration) string {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	msgType, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read frame: %v", err)
	}
	if msgType != websocket.TextMessage {
		t.Fatalf("Expected text frame, got type %d", msgType)
	}
	return string(raw)
}

// expectNoMessage asserts that nothing arrives on conn within timeout.
// A timed-out read leaves the connection unusable for further reads, so
// this must be the last read a test performs on conn.
func expectNoMessage(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	_, raw, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("Expected no message, but received %q", raw)
	}
	if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
		return
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return
	}
	t.Fatalf("Unexpected error while waiting for absence of message: %v", err)
}

// expectClosed asserts that the server has closed conn: a read must fail
// promptly with something other than a timeout. Frames still in flight are
// drained along the way.
func expectClosed(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("Failed to set read deadline: %v", err)
	}
	for {
		_, _, err := conn.ReadMessage()
		if err == nil {
			continue
		}
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			t.Fatalf("Expected connection to be closed, but the read timed out")
		}
		return
	}
}

// getViews fetches the current view counter over HTTP.
func getViews(t *testing.T, ts *httptest.Server) uint64 {
	t.Helper()

	resp, err := http.Get(ts.URL + "/views")
	if err != nil {
		t.Fatalf("Failed to fetch views: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status %d from /views, got %d", http.StatusOK, resp.StatusCode)
	}

	var views uint64
	if err := json.NewDecoder(resp.Body).Decode(&views); err != nil {
		t.Fatalf("Failed to decode views response: %v", err)
	}
	return views
}

// waitForViews polls /views until it reports want or the deadline passes.
// The counter is incremented just after the socket write, so a client can
// observe a delivered message marginally before the counter does.
func waitForViews(t *testing.T, ts *httptest.Server, want uint64) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	var got uint64
	for time.Now().Before(deadline) {
		got = getViews(t, ts)
		if got == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("View counter never reached %d, last read %d", want, got)
}

type statsSnapshot struct {
	Rooms       int    `json:"rooms"`
	Subscribers int    `json:"subscribers"`
	Views       uint64 `json:"views"`
}

// getStats fetches the /stats snapshot.
func getStats(t *testing.T, ts *httptest.Server) statsSnapshot {
	t.Helper()

	resp, err := http.Get(ts.URL + "/stats")
	if err != nil {
		t.Fatalf("Failed to fetch stats: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status %d from /stats, got %d", http.StatusOK, resp.StatusCode)
	}

	var stats statsSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("Failed to decode stats response: %v", err)
	}
	return stats
}

// waitForSubscribers polls /stats until the subscriber count reaches want.
// Sessions subscribe after the upgrade handshake completes, so a client
// can finish dialing marginally before it counts; the same lag applies
// when a dropped connection unsubscribes.
func waitForSubscribers(t *testing.T, ts *httptest.Server, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	var got int
	for time.Now().Before(deadline) {
		got = getStats(t, ts).Subscribers
		if got == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Subscriber count never reached %d, last read %d", want, got)
}
