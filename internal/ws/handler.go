package ws

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"thermostat_savings/internal/diag"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Runner triggers pipeline runs on behalf of connected clients.
type Runner interface {
	Trigger(reason string)
}

// Handler manages WebSocket connections and routes client messages to the
// runner.
type Handler struct {
	hub    *Hub
	runner Runner
	sink   diag.Sink
}

func NewHandler(hub *Hub, runner Runner, sink diag.Sink) *Handler {
	if sink == nil {
		sink = diag.Nop{}
	}
	return &Handler{hub: hub, runner: runner, sink: sink}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.sink.Warnw("websocket upgrade failed", "error", err.Error())
		return
	}

	client := &Client{
		hub:  h.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	h.hub.Register(client)
	go client.writePump()

	h.readPump(client)
}

func (h *Handler) readPump(c *Client) {
	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.sink.Warnw("websocket read failed", "error", err.Error())
			}
			return
		}

		h.handleMessage(msg)
	}
}

func (h *Handler) handleMessage(msg []byte) {
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		h.sink.Warnw("invalid ws message", "error", err.Error())
		return
	}

	switch env.Type {
	case TypeRunTrigger:
		var p RunTriggerPayload
		if len(env.Payload) > 0 {
			if err := json.Unmarshal(env.Payload, &p); err != nil {
				h.sink.Warnw("invalid run:trigger payload", "error", err.Error())
				return
			}
		}
		if p.Reason == "" {
			p.Reason = "client_request"
		}
		if h.runner != nil {
			h.runner.Trigger(p.Reason)
		}

	default:
		h.sink.Warnw("unknown ws message type", "type", env.Type)
	}
}
