// Package fleet runs the per-thermostat metric calculator over a
// population of thermostats. Evaluations share no mutable state, so they
// dispatch across a worker pool; results are reassembled in input order so
// a parallel run is indistinguishable from a sequential one.
package fleet

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"thermostat_savings/internal/diag"
	"thermostat_savings/internal/metrics"
	"thermostat_savings/internal/model"
)

// Failure records one thermostat whose processing aborted. The batch
// continues; the failed thermostat contributes zero records.
type Failure struct {
	ThermostatID string
	Err          error
}

// Callback receives fleet progress events. Completion order follows the
// workers, not the input; only the final record table is ordered.
type Callback interface {
	OnThermostatDone(id string, index, total, records int, err error)
	OnRunDone(records, failures int)
}

// Orchestrator fans thermostat evaluations out over a worker pool.
type Orchestrator struct {
	calc     *metrics.Calculator
	workers  int
	sink     diag.Sink
	callback Callback
}

// New builds an orchestrator. workers <= 0 selects GOMAXPROCS; callback may
// be nil.
func New(calc *metrics.Calculator, workers int, sink diag.Sink, callback Callback) *Orchestrator {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if sink == nil {
		sink = diag.Nop{}
	}
	return &Orchestrator{calc: calc, workers: workers, sink: sink, callback: callback}
}

type result struct {
	records []metrics.Record
	err     error
	done    bool
}

// Run evaluates every thermostat and returns the concatenation of their
// records in input order, plus the per-thermostat failures. A failure never
// aborts the batch.
func (o *Orchestrator) Run(ctx context.Context, thermostats []*model.Thermostat) ([]metrics.Record, []Failure) {
	total := len(thermostats)
	results := make([]result, total)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < o.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = o.evaluate(thermostats[i])
				if o.callback != nil {
					o.callback.OnThermostatDone(
						thermostats[i].ID, i, total, len(results[i].records), results[i].err)
				}
			}
		}()
	}

dispatch:
	for i := range thermostats {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	var records []metrics.Record
	var failures []Failure
	for i, r := range results {
		if !r.done {
			// Cancelled before this thermostat was picked up.
			failures = append(failures, Failure{ThermostatID: thermostats[i].ID, Err: ctx.Err()})
			continue
		}
		if r.err != nil {
			failures = append(failures, Failure{ThermostatID: thermostats[i].ID, Err: r.err})
			o.sink.Errorw("thermostat evaluation failed",
				"thermostat_id", thermostats[i].ID, "error", r.err.Error())
			continue
		}
		records = append(records, r.records...)
	}
	if o.callback != nil {
		o.callback.OnRunDone(len(records), len(failures))
	}
	o.sink.Infow("fleet run complete",
		"thermostats", total, "records", len(records), "failures", len(failures))
	return records, failures
}

// evaluate isolates a single thermostat, converting panics on malformed
// telemetry into failures so one bad input cannot take down the batch.
func (o *Orchestrator) evaluate(t *model.Thermostat) (res result) {
	defer func() {
		if r := recover(); r != nil {
			res = result{err: fmt.Errorf("panic evaluating thermostat %s: %v", t.ID, r), done: true}
		}
	}()
	records, err := o.calc.Evaluate(t)
	return result{records: records, err: err, done: true}
}
