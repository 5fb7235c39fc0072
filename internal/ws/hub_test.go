package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(hub *Hub, buffer int) *Client {
	return &Client{hub: hub, send: make(chan []byte, buffer)}
}

func TestNewEnvelope(t *testing.T) {
	payload := RunStartedPayload{
		RunID:     "run-1",
		Reason:    "startup",
		StartedAt: "2018-09-01T12:00:00Z",
	}

	msg, err := NewEnvelope(TypeRunStarted, payload)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	assert.Equal(t, TypeRunStarted, env.Type)

	var parsed RunStartedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &parsed))
	assert.Equal(t, payload, parsed)
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(nil)
	c1 := testClient(hub, 4)
	c2 := testClient(hub, 4)
	hub.Register(c1)
	hub.Register(c2)
	assert.Equal(t, 2, hub.ClientCount())

	hub.Broadcast([]byte("hello"))

	assert.Equal(t, []byte("hello"), <-c1.send)
	assert.Equal(t, []byte("hello"), <-c2.send)
}

func TestHubUnregisterClosesSend(t *testing.T) {
	hub := NewHub(nil)
	c := testClient(hub, 1)
	hub.Register(c)
	hub.Unregister(c)

	_, open := <-c.send
	assert.False(t, open)
	assert.Equal(t, 0, hub.ClientCount())

	// Unregistering twice must not close the channel again.
	hub.Unregister(c)
}

func TestHubBroadcastDropsWhenBufferFull(t *testing.T) {
	hub := NewHub(nil)
	c := testClient(hub, 1)
	hub.Register(c)

	hub.Broadcast([]byte("first"))
	hub.Broadcast([]byte("dropped"))

	require.Len(t, c.send, 1)
	assert.Equal(t, []byte("first"), <-c.send)
}
