// Package stats rolls per-thermostat metrics records up into percentile
// summaries per equipment class and climate zone, with optional outlier
// screening before aggregation.
package stats

import (
	"math"
	"sort"

	"thermostat_savings/internal/metrics"
	"thermostat_savings/internal/season"
)

// Mode selects the aggregation behavior.
type Mode string

const (
	// ModeStandard aggregates every record with computable savings.
	ModeStandard Mode = "standard"
	// ModeAdvancedFiltering removes IQR outliers before aggregating.
	ModeAdvancedFiltering Mode = "advanced_filtering"
)

// Config controls one aggregation pass.
type Config struct {
	Mode Mode
	// IQRMultiplier scales the interquartile range for outlier screening
	// under advanced filtering. 1.5 is the conventional default.
	IQRMultiplier float64
	// ByClimateZone additionally splits groups by climate zone. Leave
	// false for the zone-agnostic summaries certification consumes.
	ByClimateZone bool
}

// DefaultConfig returns standard aggregation with the 1.5x IQR screen
// armed for advanced mode.
func DefaultConfig() Config {
	return Config{Mode: ModeStandard, IQRMultiplier: 1.5}
}

// Key identifies one summary group.
type Key struct {
	SeasonKind     season.Kind
	EquipmentClass string
	ClimateZone    string
}

// Distribution summarizes one metric across a group.
type Distribution struct {
	Mean float64
	Min  float64
	Max  float64
	P10  float64
	P25  float64
	P50  float64
	P75  float64
	P90  float64
}

// At returns the named percentile of the distribution.
func (d Distribution) At(percentile int) (float64, bool) {
	switch percentile {
	case 10:
		return d.P10, true
	case 25:
		return d.P25, true
	case 50:
		return d.P50, true
	case 75:
		return d.P75, true
	case 90:
		return d.P90, true
	}
	return 0, false
}

// Summary is one aggregated row. IncludedCount + ExcludedCount always
// equals InputCount, so every exclusion is auditable; InvalidCount breaks
// out how many exclusions were invalid seasons or undefined savings rather
// than outliers.
type Summary struct {
	Key

	InputCount    int
	IncludedCount int
	ExcludedCount int
	InvalidCount  int

	PercentSavings           Distribution
	AvoidedDailyMeanRuntime  float64
	BaselineDailyMeanRuntime float64
}

// Summarize aggregates the record table into one summary per group, sorted
// by season kind, equipment class, then climate zone. Only records with a
// valid season and a defined savings percentage enter the statistics;
// everything else counts as excluded.
func Summarize(records []metrics.Record, cfg Config) []Summary {
	if cfg.IQRMultiplier <= 0 {
		cfg.IQRMultiplier = 1.5
	}

	groups := make(map[Key][]metrics.Record)
	for _, r := range records {
		k := Key{SeasonKind: r.SeasonKind, EquipmentClass: r.EquipmentClass()}
		if cfg.ByClimateZone {
			k.ClimateZone = r.ClimateZone
		}
		groups[k] = append(groups[k], r)
	}

	keys := make([]Key, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.SeasonKind != b.SeasonKind {
			return a.SeasonKind < b.SeasonKind
		}
		if a.EquipmentClass != b.EquipmentClass {
			return a.EquipmentClass < b.EquipmentClass
		}
		return a.ClimateZone < b.ClimateZone
	})

	summaries := make([]Summary, 0, len(keys))
	for _, k := range keys {
		summaries = append(summaries, summarizeGroup(k, groups[k], cfg))
	}
	return summaries
}

func summarizeGroup(k Key, records []metrics.Record, cfg Config) Summary {
	s := Summary{Key: k, InputCount: len(records)}

	var usable []metrics.Record
	for _, r := range records {
		if r.PercentSavings() == nil {
			s.InvalidCount++
			continue
		}
		usable = append(usable, r)
	}

	if cfg.Mode == ModeAdvancedFiltering && len(usable) > 0 {
		usable = screenOutliers(usable, cfg.IQRMultiplier)
	}

	s.IncludedCount = len(usable)
	s.ExcludedCount = s.InputCount - s.IncludedCount

	savings := make([]float64, len(usable))
	var avoidedSum, baselineSum float64
	for i, r := range usable {
		savings[i] = *r.PercentSavings()
		avoidedSum += r.Metrics.BaselinePercentile.AvoidedDailyMeanRuntime
		baselineSum += r.Metrics.BaselinePercentile.BaselineDailyMeanRuntime
	}
	s.PercentSavings = distribution(savings)
	if len(usable) > 0 {
		s.AvoidedDailyMeanRuntime = avoidedSum / float64(len(usable))
		s.BaselineDailyMeanRuntime = baselineSum / float64(len(usable))
	} else {
		s.AvoidedDailyMeanRuntime = math.NaN()
		s.BaselineDailyMeanRuntime = math.NaN()
	}
	return s
}

// screenOutliers drops records whose savings lie outside multiplier x IQR
// of the group's quartiles.
func screenOutliers(records []metrics.Record, multiplier float64) []metrics.Record {
	savings := make([]float64, len(records))
	for i, r := range records {
		savings[i] = *r.PercentSavings()
	}
	q1 := metrics.Percentile(savings, 25)
	q3 := metrics.Percentile(savings, 75)
	iqr := q3 - q1
	lo := q1 - multiplier*iqr
	hi := q3 + multiplier*iqr

	kept := records[:0]
	for _, r := range records {
		v := *r.PercentSavings()
		if v >= lo && v <= hi {
			kept = append(kept, r)
		}
	}
	return kept
}

func distribution(values []float64) Distribution {
	if len(values) == 0 {
		nan := math.NaN()
		return Distribution{Mean: nan, Min: nan, Max: nan, P10: nan, P25: nan, P50: nan, P75: nan, P90: nan}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	return Distribution{
		Mean: sum / float64(len(sorted)),
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		P10:  metrics.Percentile(sorted, 10),
		P25:  metrics.Percentile(sorted, 25),
		P50:  metrics.Percentile(sorted, 50),
		P75:  metrics.Percentile(sorted, 75),
		P90:  metrics.Percentile(sorted, 90),
	}
}
