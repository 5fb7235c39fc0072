// server hosts the fleet-run monitor: it runs the metrics pipeline on
// demand, on input changes, or on a schedule, and streams run progress to
// WebSocket clients.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"thermostat_savings/internal/config"
	"thermostat_savings/internal/diag"
	"thermostat_savings/internal/pipeline"
	"thermostat_savings/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (empty uses defaults and environment)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	sink, flush, err := diag.NewZapSink(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer flush()

	hub := ws.NewHub(sink)
	srv := &server{
		cfg:     cfg,
		sink:    sink,
		hub:     hub,
		pipe:    pipeline.New(cfg, sink),
		trigger: make(chan string, 1),
	}

	ctx := context.Background()
	go srv.runLoop(ctx)

	if cfg.Server.WatchDataDir {
		if err := srv.watchInputs(); err != nil {
			log.Fatalf("Failed to watch data dir: %v", err)
		}
	}
	if cfg.Server.RescanCron != "" {
		c := cron.New()
		if _, err := c.AddFunc(cfg.Server.RescanCron, func() { srv.Trigger("schedule") }); err != nil {
			log.Fatalf("Invalid rescan cron %q: %v", cfg.Server.RescanCron, err)
		}
		c.Start()
	}

	// First run covers whatever data is already on disk.
	srv.Trigger("startup")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	mux.Handle("/ws", ws.NewHandler(hub, srv, sink))

	sink.Infow("server listening", "addr", cfg.Server.Addr)
	if err := http.ListenAndServe(cfg.Server.Addr, mux); err != nil {
		log.Fatal(err)
	}
}

type server struct {
	cfg  *config.Config
	sink diag.Sink
	hub  *ws.Hub
	pipe *pipeline.Pipeline

	trigger chan string
}

// Trigger requests a pipeline run. Requests arriving while a run is pending
// coalesce into it.
func (s *server) Trigger(reason string) {
	select {
	case s.trigger <- reason:
	default:
	}
}

func (s *server) runLoop(ctx context.Context) {
	for reason := range s.trigger {
		s.runOnce(ctx, reason)
	}
}

func (s *server) runOnce(ctx context.Context, reason string) {
	runID := uuid.NewString()
	s.sink.Infow("starting run", "run_id", runID, "reason", reason)

	s.broadcast(ws.TypeRunStarted, ws.RunStartedPayload{
		RunID:     runID,
		Reason:    reason,
		StartedAt: time.Now().UTC().Format(time.RFC3339),
	})

	bridge := ws.NewBridge(s.hub, s.sink, runID)
	out, err := s.pipe.Execute(ctx, runID, bridge)
	if err != nil {
		s.sink.Errorw("run failed", "run_id", runID, "error", err.Error())
		return
	}

	s.broadcast(ws.TypeSummaryUpdate, ws.SummaryUpdatePayload{
		RunID:  runID,
		Groups: ws.SummaryRows(out.Summaries),
	})
	if out.Certification != nil {
		s.broadcast(ws.TypeCertificationDone, ws.CertificationDonePayload{
			RunID:     runID,
			ProductID: out.Certification.ProductID,
			AllPassed: out.Certification.AllPassed,
			Results:   ws.CertificationRows(*out.Certification),
		})
	}
}

func (s *server) broadcast(msgType string, payload any) {
	msg, err := ws.NewEnvelope(msgType, payload)
	if err != nil {
		s.sink.Errorw("marshaling ws message", "type", msgType, "error", err.Error())
		return
	}
	s.hub.Broadcast(msg)
}

// watchInputs re-runs the pipeline when CSV inputs change. Events are
// debounced through the single-slot trigger channel.
func (s *server) watchInputs() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(s.cfg.Input.DataDir); err != nil {
		return fmt.Errorf("watching %s: %w", s.cfg.Input.DataDir, err)
	}

	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !strings.HasSuffix(ev.Name, ".csv") {
					continue
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
					s.sink.Debugw("input changed", "path", ev.Name, "op", ev.Op.String())
					s.Trigger("input_change")
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.sink.Warnw("watcher error", "error", err.Error())
			}
		}
	}()
	return nil
}
