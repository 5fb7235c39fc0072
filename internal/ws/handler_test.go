package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	triggered chan string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{triggered: make(chan string, 8)}
}

func (r *fakeRunner) Trigger(reason string) { r.triggered <- reason }

// dialHandler sets up a test server with the handler and returns a WS
// connection.
func dialHandler(t *testing.T, handler *Handler) (*websocket.Conn, func()) {
	t.Helper()
	server := httptest.NewServer(handler)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn, func() {
		conn.Close()
		server.Close()
	}
}

func sendJSON(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	data, err := NewEnvelope(msgType, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func awaitTrigger(t *testing.T, runner *fakeRunner) string {
	t.Helper()
	select {
	case reason := <-runner.triggered:
		return reason
	case <-time.After(2 * time.Second):
		t.Fatal("runner was not triggered")
		return ""
	}
}

func TestHandlerTriggerRun(t *testing.T) {
	runner := newFakeRunner()
	handler := NewHandler(NewHub(nil), runner, nil)

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()

	sendJSON(t, conn, TypeRunTrigger, RunTriggerPayload{Reason: "manual"})
	assert.Equal(t, "manual", awaitTrigger(t, runner))
}

func TestHandlerTriggerDefaultsReason(t *testing.T) {
	runner := newFakeRunner()
	handler := NewHandler(NewHub(nil), runner, nil)

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()

	sendJSON(t, conn, TypeRunTrigger, nil)
	assert.Equal(t, "client_request", awaitTrigger(t, runner))
}

func TestHandlerReceivesBroadcasts(t *testing.T) {
	hub := NewHub(nil)
	handler := NewHandler(hub, newFakeRunner(), nil)

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()

	// The connection registers asynchronously with the hub.
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	msg, err := NewEnvelope(TypeRunCompleted, RunCompletedPayload{RunID: "run-1", Records: 3})
	require.NoError(t, err)
	hub.Broadcast(msg)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, got, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, string(msg), string(got))
}

func TestHandlerIgnoresMalformedMessages(t *testing.T) {
	runner := newFakeRunner()
	hub := NewHub(nil)
	handler := NewHandler(hub, runner, nil)

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	sendJSON(t, conn, "unknown:type", nil)

	// The connection stays alive and still routes valid messages.
	sendJSON(t, conn, TypeRunTrigger, RunTriggerPayload{Reason: "after_noise"})
	assert.Equal(t, "after_noise", awaitTrigger(t, runner))
}

func TestHandlerUnregistersOnDisconnect(t *testing.T) {
	hub := NewHub(nil)
	handler := NewHandler(hub, newFakeRunner(), nil)

	_, cleanup := dialHandler(t, handler)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	cleanup()

	require.Eventually(t, func() bool { return hub.ClientCount() == 0 },
		2*time.Second, 10*time.Millisecond)
}
