package ws

import (
	"sync/atomic"

	"thermostat_savings/internal/diag"
)

// Bridge implements fleet.Callback and broadcasts run progress to the hub.
// One bridge serves one run; completion counting starts at zero.
type Bridge struct {
	hub   *Hub
	sink  diag.Sink
	runID string

	completed atomic.Int64
}

func NewBridge(hub *Hub, sink diag.Sink, runID string) *Bridge {
	if sink == nil {
		sink = diag.Nop{}
	}
	return &Bridge{hub: hub, sink: sink, runID: runID}
}

func (b *Bridge) OnThermostatDone(id string, index, total, records int, err error) {
	p := ThermostatDonePayload{
		RunID:        b.runID,
		ThermostatID: id,
		Completed:    int(b.completed.Add(1)),
		Total:        total,
		Records:      records,
	}
	if err != nil {
		p.Error = err.Error()
	}
	b.broadcast(TypeThermostatDone, p)
}

func (b *Bridge) OnRunDone(records, failures int) {
	b.broadcast(TypeRunCompleted, RunCompletedPayload{
		RunID:    b.runID,
		Records:  records,
		Failures: failures,
	})
}

func (b *Bridge) broadcast(msgType string, payload any) {
	msg, err := NewEnvelope(msgType, payload)
	if err != nil {
		b.sink.Errorw("marshaling ws message", "type", msgType, "error", err.Error())
		return
	}
	b.hub.Broadcast(msg)
}
