package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thermostat_savings/internal/metrics"
	"thermostat_savings/internal/model"
	"thermostat_savings/internal/season"
)

func coolingRecord(savings float64, zone string) metrics.Record {
	r := metrics.Record{
		SeasonKind:  season.Cooling,
		CoolType:    model.CentralAC,
		ClimateZone: zone,
		Metrics:     &metrics.SeasonMetrics{},
	}
	r.Metrics.BaselinePercentile.PercentSavings = &savings
	r.Metrics.BaselinePercentile.AvoidedDailyMeanRuntime = savings
	r.Metrics.BaselinePercentile.BaselineDailyMeanRuntime = 100
	return r
}

func excludedRecord() metrics.Record {
	return metrics.Record{
		SeasonKind: season.Cooling,
		CoolType:   model.CentralAC,
		Exclusion:  model.ExclusionInsufficientCoreDays,
	}
}

func TestSummarizeCountsBalance(t *testing.T) {
	records := []metrics.Record{
		coolingRecord(10, ""),
		coolingRecord(12, ""),
		excludedRecord(),
	}

	summaries := Summarize(records, DefaultConfig())
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.Equal(t, 3, s.InputCount)
	assert.Equal(t, 2, s.IncludedCount)
	assert.Equal(t, 1, s.ExcludedCount)
	assert.Equal(t, 1, s.InvalidCount)
	assert.Equal(t, s.InputCount, s.IncludedCount+s.ExcludedCount)
	assert.InDelta(t, 11.0, s.PercentSavings.Mean, 1e-12)
}

func TestSummarizeDistribution(t *testing.T) {
	var records []metrics.Record
	for _, v := range []float64{5, 10, 15, 20, 25} {
		records = append(records, coolingRecord(v, ""))
	}

	summaries := Summarize(records, DefaultConfig())
	require.Len(t, summaries, 1)

	d := summaries[0].PercentSavings
	assert.Equal(t, 5.0, d.Min)
	assert.Equal(t, 25.0, d.Max)
	assert.Equal(t, 15.0, d.P50)
	assert.Equal(t, 10.0, d.P25)
	assert.Equal(t, 20.0, d.P75)
	assert.InDelta(t, 15.0, d.Mean, 1e-12)
}

func TestSummarizeAdvancedFilteringDropsOutliers(t *testing.T) {
	var records []metrics.Record
	for _, v := range []float64{10, 11, 12, 13, 14} {
		records = append(records, coolingRecord(v, ""))
	}
	records = append(records, coolingRecord(500, ""))

	cfg := DefaultConfig()
	cfg.Mode = ModeAdvancedFiltering
	summaries := Summarize(records, cfg)
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.Equal(t, 6, s.InputCount)
	assert.Equal(t, 5, s.IncludedCount)
	assert.Equal(t, 1, s.ExcludedCount)
	assert.Equal(t, 0, s.InvalidCount)
	assert.Equal(t, 14.0, s.PercentSavings.Max)
}

func TestSummarizeStandardKeepsOutliers(t *testing.T) {
	var records []metrics.Record
	for _, v := range []float64{10, 11, 12, 13, 14, 500} {
		records = append(records, coolingRecord(v, ""))
	}

	summaries := Summarize(records, DefaultConfig())
	require.Len(t, summaries, 1)
	assert.Equal(t, 6, summaries[0].IncludedCount)
	assert.Equal(t, 500.0, summaries[0].PercentSavings.Max)
}

func TestSummarizeGroupsByClimateZone(t *testing.T) {
	records := []metrics.Record{
		coolingRecord(10, "4C"),
		coolingRecord(20, "5B"),
	}

	cfg := DefaultConfig()
	cfg.ByClimateZone = true
	summaries := Summarize(records, cfg)
	require.Len(t, summaries, 2)
	assert.Equal(t, "4C", summaries[0].ClimateZone)
	assert.Equal(t, "5B", summaries[1].ClimateZone)

	// Without the zone split the same records form one group.
	merged := Summarize(records, DefaultConfig())
	require.Len(t, merged, 1)
	assert.Equal(t, 2, merged[0].IncludedCount)
}

func TestSummarizeEmptyGroupDistributionIsNaN(t *testing.T) {
	summaries := Summarize([]metrics.Record{excludedRecord()}, DefaultConfig())
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.Equal(t, 0, s.IncludedCount)
	assert.Equal(t, 1, s.ExcludedCount)
	assert.True(t, math.IsNaN(s.PercentSavings.Mean))
	assert.True(t, math.IsNaN(s.AvoidedDailyMeanRuntime))
}

func TestDistributionAt(t *testing.T) {
	d := Distribution{P10: 1, P25: 2, P50: 3, P75: 4, P90: 5}
	v, ok := d.At(50)
	require.True(t, ok)
	assert.Equal(t, 3.0, v)
	_, ok = d.At(33)
	assert.False(t, ok)
}
