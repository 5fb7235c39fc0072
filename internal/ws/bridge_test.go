package ws

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBridge() (*Bridge, *Client) {
	hub := NewHub(nil)
	client := &Client{hub: hub, send: make(chan []byte, 256)}
	hub.Register(client)
	bridge := NewBridge(hub, nil, "run-1")
	return bridge, client
}

func receiveEnvelope(t *testing.T, c *Client) Envelope {
	t.Helper()
	msg := <-c.send
	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	return env
}

func TestBridgeOnThermostatDone(t *testing.T) {
	bridge, client := newTestBridge()

	bridge.OnThermostatDone("t1", 0, 3, 2, nil)

	env := receiveEnvelope(t, client)
	assert.Equal(t, TypeThermostatDone, env.Type)

	var p ThermostatDonePayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, "run-1", p.RunID)
	assert.Equal(t, "t1", p.ThermostatID)
	assert.Equal(t, 1, p.Completed)
	assert.Equal(t, 3, p.Total)
	assert.Equal(t, 2, p.Records)
	assert.Empty(t, p.Error)
}

func TestBridgeCountsCompletions(t *testing.T) {
	bridge, client := newTestBridge()

	bridge.OnThermostatDone("t1", 0, 2, 1, nil)
	bridge.OnThermostatDone("t2", 1, 2, 0, errors.New("bad telemetry"))

	receiveEnvelope(t, client)
	env := receiveEnvelope(t, client)

	var p ThermostatDonePayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, 2, p.Completed)
	assert.Equal(t, "bad telemetry", p.Error)
}

func TestBridgeOnRunDone(t *testing.T) {
	bridge, client := newTestBridge()

	bridge.OnRunDone(40, 2)

	env := receiveEnvelope(t, client)
	assert.Equal(t, TypeRunCompleted, env.Type)

	var p RunCompletedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, "run-1", p.RunID)
	assert.Equal(t, 40, p.Records)
	assert.Equal(t, 2, p.Failures)
}
