// Package metrics evaluates one thermostat at a time: season classification,
// degree-day model fitting, and savings computation against counterfactual
// baselines.
package metrics

import (
	"math"
	"sort"
	"time"

	"thermostat_savings/internal/degreeday"
	"thermostat_savings/internal/diag"
	"thermostat_savings/internal/model"
	"thermostat_savings/internal/season"
	"thermostat_savings/internal/store"
)

// RegionalComfort holds the regional average comfort temperatures for one
// climate zone, °F. Nil fields mean no regional baseline is published for
// that mode.
type RegionalComfort struct {
	Cooling *float64
	Heating *float64
}

// Calculator evaluates thermostats into metrics records. The zero value is
// not usable; construct with New.
type Calculator struct {
	seasons  season.Config
	grid     degreeday.Grid
	regional map[string]RegionalComfort
	sink     diag.Sink
}

// New builds a calculator. regional maps climate zone to regional comfort
// temperatures and may be nil; sink may be nil for silence.
func New(seasons season.Config, grid degreeday.Grid, regional map[string]RegionalComfort, sink diag.Sink) *Calculator {
	if sink == nil {
		sink = diag.Nop{}
	}
	return &Calculator{seasons: seasons, grid: grid, regional: regional, sink: sink}
}

// Evaluate produces one record per season of the thermostat, cooling
// seasons first, chronological within each kind. It returns an error only
// for input-contract violations; data-quality conditions become exclusion
// reasons on the emitted records.
func (c *Calculator) Evaluate(t *model.Thermostat) ([]Record, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	seasons := season.Classify(t, c.seasons)
	records := make([]Record, 0, len(seasons))
	for i := range seasons {
		records = append(records, c.evaluateSeason(t, &seasons[i]))
	}
	return records, nil
}

func (c *Calculator) evaluateSeason(t *model.Thermostat, s *season.Season) Record {
	rec := Record{
		ThermostatID:      t.ID,
		HeatType:          t.HeatType,
		HeatStage:         t.HeatStage,
		CoolType:          t.CoolType,
		CoolStage:         t.CoolStage,
		Zipcode:           t.Zipcode,
		ClimateZone:       t.ClimateZone,
		SeasonKind:        s.Kind,
		SeasonLabel:       s.Label,
		Start:             s.Start,
		End:               s.End,
		NDaysInRange:      len(s.Days),
		NCoreDays:         s.NCoreDays,
		NDaysBoth:         s.NDaysBoth,
		NDaysInsufficient: s.NDaysInsufficient,
		Exclusion:         s.Exclusion,
	}
	if !s.Valid() {
		c.sink.Debugw("season excluded",
			"thermostat_id", t.ID, "season", s.Label, "reason", string(s.Exclusion))
		return rec
	}

	runtime := t.CoolRuntime
	if s.Kind == season.Heating {
		runtime = t.HeatRuntime
	}
	runtimeDaily := store.DailySums(runtime)

	coreDates := s.CoreDates()
	days := make([]degreeday.DaySample, len(coreDates))
	for i, date := range coreDates {
		days[i] = degreeday.DaySample{
			Runtime: runtimeDaily.Values[runtimeDaily.IndexOf(date)],
			Outdoor: store.HoursOfDay(t.OutdoorTemp, date),
		}
	}

	fitted, err := degreeday.Fit(s.Kind, days, c.grid)
	if err != nil {
		rec.Exclusion = model.ExclusionNoDemandResponse
		c.sink.Debugw("season has no demand response",
			"thermostat_id", t.ID, "season", s.Label)
		return rec
	}

	m := &SeasonMetrics{
		BalancePoint: fitted.BalancePoint,
		Alpha:        fitted.Alpha,
		MeanDemand:   mean(fitted.DegreeDays),
		MSE:          fitted.MSE,
		RMSE:         fitted.RMSE,
		CVRMSE:       fitted.CVRMSE,
		MAPE:         fitted.MAPE,
		MAE:          fitted.MAE,
		TotalCoreRuntime: s.TotalCoreRuntime,
	}
	m.DailyMeanCoreRuntime = s.TotalCoreRuntime / float64(len(days))

	indoor := coreHourTemps(t.IndoorTemp, coreDates)
	outdoor := coreHourTemps(t.OutdoorTemp, coreDates)
	m.MeanIndoorTemp = mean(indoor)
	m.MeanOutdoorTemp = mean(outdoor)

	comfort := comfortTemperature(s.Kind, indoor)
	m.BaselinePercentile = c.compareBaseline(s.Kind, fitted, days, comfort, m.MeanIndoorTemp)

	if rc, ok := c.regional[t.ClimateZone]; ok {
		var regionalComfort *float64
		if s.Kind == season.Cooling {
			regionalComfort = rc.Cooling
		} else {
			regionalComfort = rc.Heating
		}
		if regionalComfort != nil {
			cmp := c.compareBaseline(s.Kind, fitted, days, *regionalComfort, m.MeanIndoorTemp)
			m.BaselineRegional = &cmp
		}
	}

	if s.Kind == season.Heating && t.HeatType.HasResistanceHeat() {
		m.ResistanceHeat = c.resistanceHeat(t, s)
	}

	rec.Metrics = m
	return rec
}

// compareBaseline evaluates the counterfactual at a reference comfort
// temperature. A comfort shift moves the balance point by the same amount,
// since the fitted balance point folds the occupant's comfort temperature
// into an outdoor-only threshold.
func (c *Calculator) compareBaseline(
	kind season.Kind,
	fitted *degreeday.Model,
	days []degreeday.DaySample,
	comfort, meanIndoor float64,
) BaselineComparison {
	cmp := BaselineComparison{
		ComfortTemperature: comfort,
		BalancePoint:       fitted.BalancePoint + (comfort - meanIndoor),
	}

	baselineTotal, avoidedTotal, demandSum := 0.0, 0.0, 0.0
	for _, d := range days {
		dd := degreeday.DegreeDays(kind, cmp.BalancePoint, d.Outdoor)
		rt := fitted.PredictedRuntime(dd)
		demandSum += dd
		baselineTotal += rt
		avoidedTotal += rt - d.Runtime
	}

	n := float64(len(days))
	cmp.BaselineTotalRuntime = baselineTotal
	cmp.BaselineDailyMeanRuntime = baselineTotal / n
	cmp.MeanBaselineDemand = demandSum / n
	cmp.AvoidedTotalRuntime = avoidedTotal
	cmp.AvoidedDailyMeanRuntime = avoidedTotal / n

	// Savings are undefined, not zero, when the baseline never runs.
	if cmp.BaselineDailyMeanRuntime > 0 {
		savings := cmp.AvoidedDailyMeanRuntime / cmp.BaselineDailyMeanRuntime * 100
		cmp.PercentSavings = &savings
	}
	return cmp
}

// comfortTemperature is the demonstrated comfort temperature over core
// hours: the 10th percentile of indoor temperature for cooling, the 90th
// for heating.
func comfortTemperature(kind season.Kind, indoor []float64) float64 {
	if kind == season.Cooling {
		return Percentile(indoor, 10)
	}
	return Percentile(indoor, 90)
}

// coreHourTemps collects the non-missing hourly temperatures of the core
// days.
func coreHourTemps(s model.Series, dates []time.Time) []float64 {
	var out []float64
	for _, date := range dates {
		for _, v := range store.HoursOfDay(s, date) {
			if !math.IsNaN(v) {
				out = append(out, v)
			}
		}
	}
	return out
}

// Percentile computes the p-th percentile with linear interpolation between
// closest ranks. NaN on empty input.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sum, count := 0.0, 0
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		count++
	}
	if count == 0 {
		return math.NaN()
	}
	return sum / float64(count)
}
