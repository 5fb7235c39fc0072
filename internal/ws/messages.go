package ws

import (
	"encoding/json"

	"thermostat_savings/internal/cert"
	"thermostat_savings/internal/stats"
)

// Envelope wraps all WebSocket messages with a type discriminator.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message type constants
const (
	// Client -> Server
	TypeRunTrigger = "run:trigger"

	// Server -> Client
	TypeRunStarted        = "run:started"
	TypeThermostatDone    = "thermostat:done"
	TypeRunCompleted      = "run:completed"
	TypeSummaryUpdate     = "summary:update"
	TypeCertificationDone = "certification:done"
)

// Client -> Server messages

type RunTriggerPayload struct {
	Reason string `json:"reason"`
}

// Server -> Client messages

type RunStartedPayload struct {
	RunID     string `json:"run_id"`
	Reason    string `json:"reason"`
	StartedAt string `json:"started_at"`
}

type ThermostatDonePayload struct {
	RunID        string `json:"run_id"`
	ThermostatID string `json:"thermostat_id"`
	Completed    int    `json:"completed"`
	Total        int    `json:"total"`
	Records      int    `json:"records"`
	Error        string `json:"error,omitempty"`
}

type RunCompletedPayload struct {
	RunID    string `json:"run_id"`
	Records  int    `json:"records"`
	Failures int    `json:"failures"`
}

type SummaryRow struct {
	Season         string   `json:"season"`
	EquipmentClass string   `json:"equipment_class"`
	ClimateZone    string   `json:"climate_zone,omitempty"`
	Included       int      `json:"included"`
	Excluded       int      `json:"excluded"`
	SavingsMean    *float64 `json:"savings_mean,omitempty"`
	SavingsMedian  *float64 `json:"savings_median,omitempty"`
}

type SummaryUpdatePayload struct {
	RunID  string       `json:"run_id"`
	Groups []SummaryRow `json:"groups"`
}

type CertificationRow struct {
	EquipmentClass  string   `json:"equipment_class"`
	Season          string   `json:"season"`
	Percentile      int      `json:"percentile"`
	MinSavings      float64  `json:"min_savings"`
	ObservedSavings *float64 `json:"observed_savings,omitempty"`
	Passed          bool     `json:"passed"`
}

type CertificationDonePayload struct {
	RunID     string             `json:"run_id"`
	ProductID string             `json:"product_id"`
	AllPassed bool               `json:"all_passed"`
	Results   []CertificationRow `json:"results"`
}

func NewEnvelope(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}

func SummaryRows(summaries []stats.Summary) []SummaryRow {
	rows := make([]SummaryRow, 0, len(summaries))
	for _, s := range summaries {
		row := SummaryRow{
			Season:         string(s.SeasonKind),
			EquipmentClass: s.EquipmentClass,
			ClimateZone:    s.ClimateZone,
			Included:       s.IncludedCount,
			Excluded:       s.ExcludedCount,
		}
		if s.IncludedCount > 0 {
			mean, median := s.PercentSavings.Mean, s.PercentSavings.P50
			row.SavingsMean, row.SavingsMedian = &mean, &median
		}
		rows = append(rows, row)
	}
	return rows
}

func CertificationRows(c cert.Certification) []CertificationRow {
	rows := make([]CertificationRow, 0, len(c.Results))
	for _, r := range c.Results {
		rows = append(rows, CertificationRow{
			EquipmentClass:  r.Threshold.EquipmentClass,
			Season:          string(r.Threshold.SeasonKind),
			Percentile:      r.Threshold.Percentile,
			MinSavings:      r.Threshold.MinSavings,
			ObservedSavings: r.Value,
			Passed:          r.Passed,
		})
	}
	return rows
}
