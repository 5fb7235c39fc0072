// Package pipeline composes the full metrics run: import the fleet, evaluate
// every thermostat, aggregate, certify, and persist the outputs.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"thermostat_savings/internal/cert"
	"thermostat_savings/internal/config"
	"thermostat_savings/internal/diag"
	"thermostat_savings/internal/export"
	"thermostat_savings/internal/fleet"
	"thermostat_savings/internal/importer"
	"thermostat_savings/internal/metrics"
	"thermostat_savings/internal/stats"
)

// Outcome is everything one run produced.
type Outcome struct {
	RunID       string
	StartedAt   time.Time
	Thermostats int

	Records   []metrics.Record
	Failures  []fleet.Failure
	Summaries []stats.Summary

	// Certification is nil when no product or thresholds are configured.
	Certification *cert.Certification
}

// Pipeline runs the metrics methodology end to end from configuration.
type Pipeline struct {
	cfg  *config.Config
	sink diag.Sink
}

func New(cfg *config.Config, sink diag.Sink) *Pipeline {
	if sink == nil {
		sink = diag.Nop{}
	}
	return &Pipeline{cfg: cfg, sink: sink}
}

// Execute performs one full run. runID may be empty to mint a fresh one;
// callback receives fleet progress and may be nil.
func (p *Pipeline) Execute(ctx context.Context, runID string, callback fleet.Callback) (*Outcome, error) {
	if runID == "" {
		runID = uuid.NewString()
	}
	out := &Outcome{
		RunID:     runID,
		StartedAt: time.Now(),
	}

	im := importer.New(p.cfg.Input.DataDir, p.sink)
	st, err := im.Load(p.cfg.Input.MetadataPath)
	if err != nil {
		return nil, fmt.Errorf("loading fleet: %w", err)
	}
	thermostats := st.Thermostats()
	out.Thermostats = len(thermostats)

	calc := metrics.New(p.cfg.SeasonConfig(), p.cfg.Grid(), p.cfg.RegionalComfort(), p.sink)
	orch := fleet.New(calc, p.cfg.Fleet.Workers, p.sink, callback)
	out.Records, out.Failures = orch.Run(ctx, thermostats)

	out.Summaries = stats.Summarize(out.Records, p.cfg.StatsConfig())

	if p.cfg.Certification.ProductID != "" && len(p.cfg.Certification.Thresholds) > 0 {
		certSummaries := out.Summaries
		if p.cfg.Stats.ByClimateZone {
			// Thresholds apply fleet-wide, so certification always compares
			// against zone-agnostic groups.
			fleetCfg := p.cfg.StatsConfig()
			fleetCfg.ByClimateZone = false
			certSummaries = stats.Summarize(out.Records, fleetCfg)
		}
		c := cert.Certify(p.cfg.Certification.ProductID, certSummaries, p.cfg.Certification.Thresholds)
		out.Certification = &c
	}

	if err := p.persist(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Pipeline) persist(ctx context.Context, out *Outcome) error {
	if path := p.cfg.Output.MetricsCSV; path != "" {
		if err := export.MetricsTable(out.Records).WriteCSVFile(path); err != nil {
			return err
		}
	}
	if path := p.cfg.Output.SummaryCSV; path != "" {
		if err := export.SummaryTable(out.Summaries).WriteCSVFile(path); err != nil {
			return err
		}
	}
	if path := p.cfg.Output.CertificationCSV; path != "" && out.Certification != nil {
		if err := export.CertificationTable(*out.Certification).WriteCSVFile(path); err != nil {
			return err
		}
	}

	if path := p.cfg.Output.ArchivePath; path != "" {
		archive, err := export.OpenArchive(path)
		if err != nil {
			return err
		}
		defer archive.Close()
		err = archive.SaveRun(ctx, export.Run{
			ID:          out.RunID,
			CreatedAt:   out.StartedAt,
			Thermostats: out.Thermostats,
			Records:     len(out.Records),
			Failures:    len(out.Failures),
		}, out.Records, out.Summaries, out.Certification)
		if err != nil {
			return fmt.Errorf("archiving run %s: %w", out.RunID, err)
		}
	}

	p.sink.Infow("run persisted", "run_id", out.RunID,
		"records", len(out.Records), "failures", len(out.Failures))
	return nil
}
