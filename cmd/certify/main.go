// certify runs the savings metrics pipeline once: import the fleet, compute
// per-thermostat metrics, aggregate, and check certification thresholds.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"thermostat_savings/internal/config"
	"thermostat_savings/internal/diag"
	"thermostat_savings/internal/pipeline"
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

	out, err := pipeline.New(cfg, sink).Execute(context.Background(), "", nil)
	if err != nil {
		sink.Errorw("pipeline failed", "error", err.Error())
		flush()
		os.Exit(1)
	}

	for _, f := range out.Failures {
		sink.Warnw("thermostat failed", "thermostat_id", f.ThermostatID, "error", f.Err.Error())
	}
	for _, s := range out.Summaries {
		sink.Infow("group summary",
			"season", string(s.SeasonKind),
			"equipment_class", s.EquipmentClass,
			"climate_zone", s.ClimateZone,
			"included", s.IncludedCount,
			"excluded", s.ExcludedCount,
			"savings_median", s.PercentSavings.P50)
	}

	if out.Certification != nil {
		sink.Infow("certification complete",
			"product_id", out.Certification.ProductID,
			"all_passed", out.Certification.AllPassed)
		if !out.Certification.AllPassed {
			flush()
			os.Exit(1)
		}
	}
}
