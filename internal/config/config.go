// Package config loads pipeline configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"

	"thermostat_savings/internal/cert"
	"thermostat_savings/internal/degreeday"
	"thermostat_savings/internal/metrics"
	"thermostat_savings/internal/season"
	"thermostat_savings/internal/stats"
)

// Config is the full configuration of a metrics run.
type Config struct {
	Log struct {
		Level       string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
		Development bool   `yaml:"development" env:"LOG_DEVELOPMENT" env-default:"false"`
	} `yaml:"log"`

	Input struct {
		// MetadataPath is the fleet metadata CSV; each row points at a
		// per-thermostat interval CSV resolved relative to DataDir.
		MetadataPath string `yaml:"metadata_path" env:"INPUT_METADATA_PATH" env-default:"metadata.csv"`
		DataDir      string `yaml:"data_dir" env:"INPUT_DATA_DIR" env-default:"."`
	} `yaml:"input"`

	Output struct {
		MetricsCSV       string `yaml:"metrics_csv" env:"OUTPUT_METRICS_CSV" env-default:"metrics.csv"`
		SummaryCSV       string `yaml:"summary_csv" env:"OUTPUT_SUMMARY_CSV" env-default:"summary.csv"`
		CertificationCSV string `yaml:"certification_csv" env:"OUTPUT_CERTIFICATION_CSV" env-default:""`
		ArchivePath      string `yaml:"archive_path" env:"OUTPUT_ARCHIVE_PATH" env-default:""`
	} `yaml:"output"`

	Fleet struct {
		Workers int `yaml:"workers" env:"FLEET_WORKERS" env-default:"0"`
	} `yaml:"fleet"`

	Seasons struct {
		MinDailyRuntime     float64 `yaml:"min_daily_runtime" env-default:"30"`
		MaxOppositeRuntime  float64 `yaml:"max_opposite_runtime" env-default:"0"`
		MaxMissingTempHours int     `yaml:"max_missing_temp_hours" env-default:"2"`
		MinCoreDays         int     `yaml:"min_core_days" env-default:"10"`
		MaxMissingFraction  float64 `yaml:"max_missing_fraction" env-default:"0.05"`
	} `yaml:"seasons"`

	BalancePoints struct {
		Min  float64 `yaml:"min" env-default:"60"`
		Max  float64 `yaml:"max" env-default:"80"`
		Step float64 `yaml:"step" env-default:"0.5"`
	} `yaml:"balance_points"`

	Stats struct {
		Mode          string  `yaml:"mode" env:"STATS_MODE" env-default:"standard"`
		IQRMultiplier float64 `yaml:"iqr_multiplier" env-default:"1.5"`
		ByClimateZone bool    `yaml:"by_climate_zone" env-default:"false"`
	} `yaml:"stats"`

	Certification struct {
		ProductID string `yaml:"product_id" env:"CERT_PRODUCT_ID"`
		// ThresholdsPath points at a standalone threshold table; inline
		// Thresholds take precedence when both are set.
		ThresholdsPath string           `yaml:"thresholds_path" env:"CERT_THRESHOLDS_PATH"`
		Thresholds     []cert.Threshold `yaml:"thresholds"`
	} `yaml:"certification"`

	// Regional maps climate zone to published regional comfort temperatures.
	Regional map[string]struct {
		Cooling *float64 `yaml:"cooling"`
		Heating *float64 `yaml:"heating"`
	} `yaml:"regional"`

	Server struct {
		Addr string `yaml:"addr" env:"SERVER_ADDR" env-default:":8080"`
		// RescanCron re-runs the pipeline on a schedule; empty disables it.
		RescanCron string `yaml:"rescan_cron" env:"SERVER_RESCAN_CRON" env-default:""`
		// WatchDataDir re-runs the pipeline when input files change.
		WatchDataDir bool `yaml:"watch_data_dir" env:"SERVER_WATCH_DATA_DIR" env-default:"false"`
	} `yaml:"server"`
}

// Load reads the YAML file at path, then applies environment overrides.
// An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("reading config from environment: %w", err)
	}

	if len(cfg.Certification.Thresholds) == 0 && cfg.Certification.ThresholdsPath != "" {
		thresholds, err := cert.LoadThresholds(cfg.Certification.ThresholdsPath)
		if err != nil {
			return nil, err
		}
		cfg.Certification.Thresholds = thresholds
	}
	return cfg, nil
}

// SeasonConfig converts the season section.
func (c *Config) SeasonConfig() season.Config {
	return season.Config{
		MinDailyRuntime:     c.Seasons.MinDailyRuntime,
		MaxOppositeRuntime:  c.Seasons.MaxOppositeRuntime,
		MaxMissingTempHours: c.Seasons.MaxMissingTempHours,
		MinCoreDays:         c.Seasons.MinCoreDays,
		MaxMissingFraction:  c.Seasons.MaxMissingFraction,
	}
}

// Grid converts the balance point section.
func (c *Config) Grid() degreeday.Grid {
	return degreeday.Grid{
		Min:  c.BalancePoints.Min,
		Max:  c.BalancePoints.Max,
		Step: c.BalancePoints.Step,
	}
}

// StatsConfig converts the stats section.
func (c *Config) StatsConfig() stats.Config {
	return stats.Config{
		Mode:          stats.Mode(c.Stats.Mode),
		IQRMultiplier: c.Stats.IQRMultiplier,
		ByClimateZone: c.Stats.ByClimateZone,
	}
}

// RegionalComfort converts the regional section into the calculator's map.
func (c *Config) RegionalComfort() map[string]metrics.RegionalComfort {
	if len(c.Regional) == 0 {
		return nil
	}
	out := make(map[string]metrics.RegionalComfort, len(c.Regional))
	for zone, rc := range c.Regional {
		out[zone] = metrics.RegionalComfort{Cooling: rc.Cooling, Heating: rc.Heating}
	}
	return out
}
