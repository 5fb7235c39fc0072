package metrics

import (
	"time"

	"thermostat_savings/internal/model"
	"thermostat_savings/internal/season"
)

// BaselineComparison compares observed runtime against the counterfactual
// runtime of a reference thermostat at a shifted balance point.
type BaselineComparison struct {
	// ComfortTemperature is the reference comfort temperature that defines
	// the counterfactual.
	ComfortTemperature float64
	// BalancePoint is the counterfactual balance point the baseline
	// degree-days were computed at.
	BalancePoint float64

	BaselineTotalRuntime     float64
	BaselineDailyMeanRuntime float64
	MeanBaselineDemand       float64
	AvoidedTotalRuntime      float64
	AvoidedDailyMeanRuntime  float64

	// PercentSavings is (baseline - observed) / baseline * 100 over daily
	// means. Nil, never zero or infinite, when baseline runtime is zero.
	PercentSavings *float64
}

// SeasonMetrics holds the modeled outputs for one valid season.
type SeasonMetrics struct {
	BalancePoint float64
	Alpha        float64
	MeanDemand   float64

	MSE    float64
	RMSE   float64
	CVRMSE float64
	MAPE   float64
	MAE    float64

	TotalCoreRuntime     float64
	DailyMeanCoreRuntime float64

	MeanIndoorTemp  float64
	MeanOutdoorTemp float64

	// BaselinePercentile uses the comfort temperature this thermostat
	// demonstrated (10th percentile indoor for cooling, 90th for heating).
	BaselinePercentile BaselineComparison
	// BaselineRegional uses the regional average comfort temperature for
	// the thermostat's climate zone; nil when none is configured.
	BaselineRegional *BaselineComparison

	// ResistanceHeat is the backup-heat utilization table. Only heating
	// seasons of heat pumps with electric backup carry it.
	ResistanceHeat *RHUMetrics
}

// Record is the output of one (thermostat, season) evaluation. Exactly one
// record exists per season; invalid seasons carry a nil Metrics and a
// populated exclusion reason rather than being dropped.
type Record struct {
	ThermostatID string
	HeatType     model.HeatType
	HeatStage    model.Stage
	CoolType     model.CoolType
	CoolStage    model.Stage
	Zipcode      string
	ClimateZone  string

	SeasonKind  season.Kind
	SeasonLabel string
	Start       time.Time
	End         time.Time

	NDaysInRange      int
	NCoreDays         int
	NDaysBoth         int
	NDaysInsufficient int

	Exclusion model.ExclusionReason
	Metrics   *SeasonMetrics
}

// Valid reports whether the record carries computed metrics.
func (r *Record) Valid() bool { return r.Metrics != nil }

// EquipmentClass names the equipment driving the record's season: the cool
// type for cooling seasons, the heat type otherwise.
func (r *Record) EquipmentClass() string {
	if r.SeasonKind == season.Cooling {
		return string(r.CoolType)
	}
	return string(r.HeatType)
}

// PercentSavings returns the percentile-baseline savings, or nil for
// invalid seasons and zero baselines.
func (r *Record) PercentSavings() *float64 {
	if r.Metrics == nil {
		return nil
	}
	return r.Metrics.BaselinePercentile.PercentSavings
}
