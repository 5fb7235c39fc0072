package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thermostat_savings/internal/season"
	"thermostat_savings/internal/stats"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ":8080", cfg.Server.Addr)

	sc := cfg.SeasonConfig()
	assert.Equal(t, season.DefaultConfig(), sc)

	grid := cfg.Grid()
	assert.Equal(t, 60.0, grid.Min)
	assert.Equal(t, 80.0, grid.Max)
	assert.Equal(t, 0.5, grid.Step)

	st := cfg.StatsConfig()
	assert.Equal(t, stats.ModeStandard, st.Mode)
	assert.Equal(t, 1.5, st.IQRMultiplier)

	assert.Nil(t, cfg.RegionalComfort())
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
log:
  level: debug
input:
  metadata_path: fleet/metadata.csv
  data_dir: fleet
seasons:
  min_core_days: 20
balance_points:
  min: 55
  max: 75
  step: 1
stats:
  mode: advanced_filtering
certification:
  product_id: prod-1
  thresholds:
    - equipment_class: central_ac
      season_kind: cooling
      percentile: 50
      min_savings: 10
regional:
  4C:
    cooling: 73.5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "fleet/metadata.csv", cfg.Input.MetadataPath)
	assert.Equal(t, 20, cfg.SeasonConfig().MinCoreDays)
	// Unset keys keep their defaults.
	assert.Equal(t, 30.0, cfg.SeasonConfig().MinDailyRuntime)
	assert.Equal(t, 55.0, cfg.Grid().Min)
	assert.Equal(t, stats.ModeAdvancedFiltering, cfg.StatsConfig().Mode)

	require.Len(t, cfg.Certification.Thresholds, 1)
	th := cfg.Certification.Thresholds[0]
	assert.Equal(t, "central_ac", th.EquipmentClass)
	assert.Equal(t, season.Cooling, th.SeasonKind)
	assert.Equal(t, 50, th.Percentile)
	assert.Equal(t, 10.0, th.MinSavings)

	regional := cfg.RegionalComfort()
	require.Contains(t, regional, "4C")
	require.NotNil(t, regional["4C"].Cooling)
	assert.Equal(t, 73.5, *regional["4C"].Cooling)
	assert.Nil(t, regional["4C"].Heating)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("FLEET_WORKERS", "8")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 8, cfg.Fleet.Workers)
}
