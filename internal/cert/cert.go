// Package cert checks aggregated savings summaries against a certification
// threshold table and produces a pass/fail verdict per threshold.
package cert

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"thermostat_savings/internal/season"
	"thermostat_savings/internal/stats"
)

// Threshold is one certification criterion: the named percentile of the
// savings distribution for an equipment class must meet MinSavings.
type Threshold struct {
	EquipmentClass string      `yaml:"equipment_class"`
	SeasonKind     season.Kind `yaml:"season_kind"`
	// Percentile selects which point of the savings distribution is
	// compared: 10, 25, 50, 75, or 90.
	Percentile int     `yaml:"percentile"`
	MinSavings float64 `yaml:"min_savings"`
}

// LoadThresholds reads a standalone threshold table from a YAML file whose
// top level is a list of thresholds.
func LoadThresholds(path string) ([]Threshold, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading thresholds %s: %w", path, err)
	}
	var out []Threshold
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parsing thresholds %s: %w", path, err)
	}
	for i, th := range out {
		if th.EquipmentClass == "" || th.SeasonKind == "" {
			return nil, fmt.Errorf("thresholds %s: entry %d is missing equipment_class or season_kind", path, i)
		}
	}
	return out, nil
}

// Result is the verdict for one threshold. Value is the observed percentile
// savings; nil when no summary group matched the threshold, which fails.
type Result struct {
	ProductID string
	Threshold Threshold
	Value     *float64
	Passed    bool
}

// Certification is the full verdict for one product across a threshold
// table.
type Certification struct {
	ProductID string
	Results   []Result
	// AllPassed is true only when every threshold passed.
	AllPassed bool
}

// Certify compares the summaries against the threshold table. Summaries
// split by climate zone do not participate; thresholds apply fleet-wide.
func Certify(productID string, summaries []stats.Summary, thresholds []Threshold) Certification {
	c := Certification{ProductID: productID, AllPassed: true}
	for _, th := range thresholds {
		r := Result{ProductID: productID, Threshold: th}
		if s, ok := matchSummary(summaries, th); ok {
			if v, ok := s.PercentSavings.At(th.Percentile); ok && !math.IsNaN(v) {
				value := v
				r.Value = &value
				r.Passed = value >= th.MinSavings
			}
		}
		if !r.Passed {
			c.AllPassed = false
		}
		c.Results = append(c.Results, r)
	}
	return c
}

func matchSummary(summaries []stats.Summary, th Threshold) (stats.Summary, bool) {
	for _, s := range summaries {
		if s.ClimateZone != "" {
			continue
		}
		if s.SeasonKind == th.SeasonKind && s.EquipmentClass == th.EquipmentClass {
			return s, true
		}
	}
	return stats.Summary{}, false
}
