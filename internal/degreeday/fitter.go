// Package degreeday fits balance-point degree-day models to daily runtime.
//
// The balance point is not known a priori and the runtime/degree-day
// relationship is only linear conditional on the correct balance point, so
// the fitter runs a bounded 1-D grid search over candidate balance points
// rather than a closed-form fit.
package degreeday

import (
	"errors"
	"math"

	"thermostat_savings/internal/season"
)

// ErrNoDemandResponse is returned when no candidate balance point yields a
// usable fit: the equipment shows no response to outdoor temperature.
var ErrNoDemandResponse = errors.New("no demand response at any candidate balance point")

// Grid defines the candidate balance points, inclusive of both bounds,
// in °F.
type Grid struct {
	Min  float64
	Max  float64
	Step float64
}

// DefaultGrid covers 60-80 °F at half-degree steps.
func DefaultGrid() Grid {
	return Grid{Min: 60, Max: 80, Step: 0.5}
}

// Candidates returns the grid points in ascending order. The ascending
// order is what makes the lowest-balance-point tie-break fall out of a
// strict comparison during the search.
func (g Grid) Candidates() []float64 {
	if g.Step <= 0 || g.Max < g.Min {
		return nil
	}
	n := int(math.Floor((g.Max-g.Min)/g.Step+1e-9)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = g.Min + float64(i)*g.Step
	}
	return out
}

// DaySample is one core day's inputs to the fit: total same-mode runtime in
// minutes and the day's 24 hourly outdoor temperatures.
type DaySample struct {
	Runtime float64
	Outdoor []float64
}

// Model is the winning degree-day fit for one season.
type Model struct {
	Kind         season.Kind
	BalancePoint float64
	// Alpha is the responsiveness slope in minutes of runtime per
	// degree-day, estimated by ratio estimation.
	Alpha float64
	// DegreeDays holds the per-core-day degree-days at the winning
	// balance point, aligned with the input samples.
	DegreeDays []float64
	SSR        float64

	MSE    float64
	RMSE   float64
	CVRMSE float64
	MAPE   float64
	MAE    float64
}

// DegreeDays computes one day's degree-days at a balance point from hourly
// outdoor temperatures. Missing hours contribute nothing. The division by
// 24 is a unit conversion from degree-hours, not an average.
func DegreeDays(kind season.Kind, balancePoint float64, outdoor []float64) float64 {
	sum := 0.0
	for _, temp := range outdoor {
		if math.IsNaN(temp) {
			continue
		}
		var dd float64
		if kind == season.Cooling {
			dd = temp - balancePoint
		} else {
			dd = balancePoint - temp
		}
		if dd > 0 {
			sum += dd
		}
	}
	return sum / 24
}

// Fit selects the best balance-point model for a season by minimizing the
// sum of squared residuals across the candidate grid. Exact ties go to the
// lowest balance point, so repeated runs are bit-identical. Candidates with
// zero total degree-days or a non-positive slope are skipped; if every
// candidate is skipped the season has no demand response.
func Fit(kind season.Kind, days []DaySample, grid Grid) (*Model, error) {
	if len(days) == 0 {
		return nil, ErrNoDemandResponse
	}

	totalRuntime := 0.0
	for _, d := range days {
		totalRuntime += d.Runtime
	}

	var best *Model
	dd := make([]float64, len(days))
	for _, bp := range grid.Candidates() {
		totalDD := 0.0
		for i, d := range days {
			dd[i] = DegreeDays(kind, bp, d.Outdoor)
			totalDD += dd[i]
		}
		if totalDD == 0 {
			continue
		}
		alpha := totalRuntime / totalDD
		if !(alpha > 0) || math.IsInf(alpha, 0) {
			continue
		}

		ssr := 0.0
		for i, d := range days {
			r := d.Runtime - alpha*dd[i]
			ssr += r * r
		}
		if best == nil || ssr < best.SSR {
			best = &Model{
				Kind:         kind,
				BalancePoint: bp,
				Alpha:        alpha,
				DegreeDays:   append([]float64(nil), dd...),
				SSR:          ssr,
			}
		}
	}
	if best == nil {
		return nil, ErrNoDemandResponse
	}

	best.diagnose(days)
	return best, nil
}

// diagnose fills the residual diagnostics for the winning model.
func (m *Model) diagnose(days []DaySample) {
	n := float64(len(days))
	m.MSE = m.SSR / n
	m.RMSE = math.Sqrt(m.MSE)

	meanRuntime := 0.0
	for _, d := range days {
		meanRuntime += d.Runtime
	}
	meanRuntime /= n

	absSum := 0.0
	for i, d := range days {
		absSum += math.Abs(d.Runtime - m.Alpha*m.DegreeDays[i])
	}
	m.MAE = absSum / n

	if meanRuntime != 0 {
		m.CVRMSE = m.RMSE / meanRuntime
		m.MAPE = m.MAE / meanRuntime
	} else {
		m.CVRMSE = math.NaN()
		m.MAPE = math.NaN()
	}
}

// PredictedRuntime returns the modeled runtime for the given degree-days,
// clamped at zero.
func (m *Model) PredictedRuntime(degreeDays float64) float64 {
	return math.Max(m.Alpha*degreeDays, 0)
}
