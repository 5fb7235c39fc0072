package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thermostat_savings/internal/model"
)

// backupHeatWinter builds a heat pump with electric backup over one heating
// season: 28 days at 40°F with steady backup use, then 2 milder days at
// 52°F with too little runtime for the filtered score.
func backupHeatWinter(t *testing.T) *model.Thermostat {
	t.Helper()
	start := time.Date(2017, 12, 1, 0, 0, 0, 0, time.UTC)
	days := 30
	hours := days * 24

	outdoor := make([]float64, hours)
	heat := make([]float64, hours)
	aux := make([]float64, hours)
	for d := 0; d < days; d++ {
		temp, heatRate, auxRate := 40.0, 4.0, 1.0
		if d >= 28 {
			temp, heatRate, auxRate = 52.0, 2.0, 0.25
		}
		for h := 0; h < 24; h++ {
			i := d*24 + h
			outdoor[i] = temp
			heat[i] = heatRate
			aux[i] = auxRate
		}
	}

	ts, err := model.NewThermostat(
		"t1", model.HeatPumpElectricBackup, model.StageSingle, model.NoCool, model.StageNone,
		"97201", "4C",
		constant(start, hours, 68), model.NewSeries(start, outdoor),
		model.EmptySeries(), model.NewSeries(start, heat),
		model.NewSeries(start, aux), constant(start, hours, 0),
	)
	require.NoError(t, err)
	return ts
}

func binAt(t *testing.T, m *RHUMetrics, low float64) RHUBin {
	t.Helper()
	for _, b := range m.Bins {
		if b.LowTemp == low {
			return b
		}
	}
	t.Fatalf("no band starting at %.0fF", low)
	return RHUBin{}
}

func TestResistanceHeatUtilizationBins(t *testing.T) {
	records, err := fleetCalculator().Evaluate(backupHeatWinter(t))
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.True(t, records[0].Valid())

	rh := records[0].Metrics.ResistanceHeat
	require.NotNil(t, rh)
	require.Len(t, rh.Bins, 12)

	// 28 cold days, 96 heat and 24 auxiliary minutes each.
	cold := binAt(t, rh, 35)
	assert.InDelta(t, 28*96.0, cold.HeatRuntime, 1e-9)
	assert.InDelta(t, 28*24.0, cold.AuxiliaryRuntime, 1e-9)
	assert.InDelta(t, 0.25, cold.RHU1, 1e-9)
	assert.InDelta(t, 0.25, cold.RHU2, 1e-9)
	assert.False(t, cold.Nonsense)

	// The mild band has a score but too little combined runtime to keep
	// its filtered score.
	mild := binAt(t, rh, 50)
	assert.InDelta(t, 0.125, mild.RHU1, 1e-9)
	assert.True(t, math.IsNaN(mild.RHU2))

	// Only the 40°F days fall in the wide band.
	assert.InDelta(t, 0.25, rh.WideBin.RHU1, 1e-9)

	// Bands without any runtime stay undefined.
	assert.True(t, math.IsNaN(binAt(t, rh, 0).RHU1))
}

func TestResistanceHeatNonsenseBandSuppressed(t *testing.T) {
	ts := backupHeatWinter(t)
	// Auxiliary heat outrunning the compressor is a telemetry defect.
	for i, v := range ts.HeatRuntime.Values {
		ts.AuxiliaryRuntime.Values[i] = 2 * v
	}

	records, err := fleetCalculator().Evaluate(ts)
	require.NoError(t, err)
	require.True(t, records[0].Valid())

	rh := records[0].Metrics.ResistanceHeat
	require.NotNil(t, rh)

	cold := binAt(t, rh, 35)
	assert.True(t, cold.Nonsense)
	assert.True(t, math.IsNaN(cold.RHU1))
	assert.True(t, math.IsNaN(cold.RHU2))
}

func TestResistanceHeatOnlyForElectricBackup(t *testing.T) {
	ts := backupHeatWinter(t)
	ts.HeatType = model.HeatPumpNoElectricBackup

	records, err := fleetCalculator().Evaluate(ts)
	require.NoError(t, err)
	require.True(t, records[0].Valid())
	assert.Nil(t, records[0].Metrics.ResistanceHeat)
}
