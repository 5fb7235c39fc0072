package degreeday

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thermostat_savings/internal/season"
)

func flatDay(runtime, outdoor float64) DaySample {
	hours := make([]float64, 24)
	for i := range hours {
		hours[i] = outdoor
	}
	return DaySample{Runtime: runtime, Outdoor: hours}
}

func TestGridCandidates(t *testing.T) {
	c := DefaultGrid().Candidates()
	require.Len(t, c, 41)
	assert.Equal(t, 60.0, c[0])
	assert.Equal(t, 60.5, c[1])
	assert.Equal(t, 80.0, c[40])
}

func TestDegreeDays(t *testing.T) {
	hours := make([]float64, 24)
	for i := range hours {
		hours[i] = 85
	}
	assert.Equal(t, 10.0, DegreeDays(season.Cooling, 75, hours))
	assert.Equal(t, 0.0, DegreeDays(season.Cooling, 90, hours))
	assert.Equal(t, 5.0, DegreeDays(season.Heating, 90, hours))
}

func TestDegreeDaysSkipsMissingHours(t *testing.T) {
	hours := make([]float64, 24)
	for i := range hours {
		hours[i] = 85
	}
	hours[0] = math.NaN()
	// 23 hours at 10 degrees over.
	assert.InDelta(t, 230.0/24, DegreeDays(season.Cooling, 75, hours), 1e-12)
}

func TestFitRecoversExactBalancePoint(t *testing.T) {
	// Runtime generated at balance point 75 with alpha 12 min per
	// degree-day: days at 80°F demand 5 degree-days, days at 90°F demand 15.
	var days []DaySample
	for i := 0; i < 10; i++ {
		days = append(days, flatDay(12*5, 80), flatDay(12*15, 90))
	}

	m, err := Fit(season.Cooling, days, DefaultGrid())
	require.NoError(t, err)
	assert.Equal(t, 75.0, m.BalancePoint)
	assert.InDelta(t, 12.0, m.Alpha, 1e-9)
	assert.InDelta(t, 0.0, m.SSR, 1e-9)
	assert.InDelta(t, 0.0, m.RMSE, 1e-6)
	assert.InDelta(t, 0.0, m.CVRMSE, 1e-9)
}

func TestFitTieBreaksToLowestBalancePoint(t *testing.T) {
	// Identical days fit perfectly at every candidate, so the tie-break
	// selects the grid minimum.
	days := []DaySample{flatDay(120, 85), flatDay(120, 85), flatDay(120, 85)}

	m, err := Fit(season.Cooling, days, DefaultGrid())
	require.NoError(t, err)
	assert.Equal(t, 60.0, m.BalancePoint)
}

func TestFitIsDeterministic(t *testing.T) {
	days := []DaySample{flatDay(60, 78), flatDay(150, 88), flatDay(90, 82)}

	first, err := Fit(season.Cooling, days, DefaultGrid())
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Fit(season.Cooling, days, DefaultGrid())
		require.NoError(t, err)
		assert.Equal(t, first.BalancePoint, again.BalancePoint)
		assert.Equal(t, first.Alpha, again.Alpha)
		assert.Equal(t, first.SSR, again.SSR)
	}
}

func TestFitNoDemandResponse(t *testing.T) {
	// Outdoor never exceeds any candidate balance point: zero degree-days
	// everywhere.
	days := []DaySample{flatDay(60, 50), flatDay(60, 55)}

	_, err := Fit(season.Cooling, days, DefaultGrid())
	assert.ErrorIs(t, err, ErrNoDemandResponse)
}

func TestFitNoDays(t *testing.T) {
	_, err := Fit(season.Cooling, nil, DefaultGrid())
	assert.ErrorIs(t, err, ErrNoDemandResponse)
}

func TestFitHeating(t *testing.T) {
	// Heating demand grows as outdoor drops; generated at balance point 65.
	var days []DaySample
	for i := 0; i < 5; i++ {
		days = append(days, flatDay(10*15, 50), flatDay(10*5, 60))
	}

	m, err := Fit(season.Heating, days, DefaultGrid())
	require.NoError(t, err)
	assert.Equal(t, 65.0, m.BalancePoint)
	assert.InDelta(t, 10.0, m.Alpha, 1e-9)
}

func TestPredictedRuntimeClampedAtZero(t *testing.T) {
	m := &Model{Alpha: 10}
	assert.Equal(t, 50.0, m.PredictedRuntime(5))
	assert.Equal(t, 0.0, m.PredictedRuntime(-1))
}
