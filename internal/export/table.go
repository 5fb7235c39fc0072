// Package export flattens pipeline outputs into tabular form and persists
// them as CSV files or rows in a sqlite archive.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"thermostat_savings/internal/cert"
	"thermostat_savings/internal/metrics"
	"thermostat_savings/internal/stats"
)

// Table is a rectangular result set ready for CSV or sqlite output.
type Table struct {
	Columns []string
	Rows    [][]string
}

const dateLayout = "2006-01-02"

var metricsColumns = append([]string{
	"ct_identifier",
	"heat_type",
	"heat_stage",
	"cool_type",
	"cool_stage",
	"zipcode",
	"climate_zone",
	"heating_or_cooling",
	"start_date",
	"end_date",
	"n_days_in_inputfile_date_range",
	"n_core_days",
	"n_days_both_heating_cooling",
	"n_days_insufficient_data",
	"exclusion_reason",
	"balance_point",
	"alpha",
	"mean_demand",
	"mean_squared_error",
	"root_mean_squared_error",
	"cv_root_mean_squared_error",
	"mean_absolute_percent_error",
	"mean_absolute_error",
	"total_core_day_runtime",
	"daily_mean_core_day_runtime",
	"core_days_mean_indoor_temperature",
	"core_days_mean_outdoor_temperature",
	"comfort_temperature_baseline_percentile",
	"baseline_balance_point_percentile",
	"baseline_total_core_day_runtime_baseline_percentile",
	"baseline_daily_mean_core_day_runtime_baseline_percentile",
	"mean_demand_baseline_percentile",
	"avoided_total_core_day_runtime_baseline_percentile",
	"avoided_daily_mean_core_day_runtime_baseline_percentile",
	"percent_savings_baseline_percentile",
	"comfort_temperature_baseline_regional",
	"baseline_balance_point_regional",
	"baseline_total_core_day_runtime_baseline_regional",
	"baseline_daily_mean_core_day_runtime_baseline_regional",
	"mean_demand_baseline_regional",
	"avoided_total_core_day_runtime_baseline_regional",
	"avoided_daily_mean_core_day_runtime_baseline_regional",
	"percent_savings_baseline_regional",
}, rhuColumnNames...)

var rhuColumnNames = rhuColumns()

// rhuColumns names the resistance-heat utilization cells: raw (rhu1) and
// runtime-filtered (rhu2) scores per 5°F band plus the wide 30-45°F band.
func rhuColumns() []string {
	var cols []string
	for _, kind := range []string{"rhu1", "rhu2"} {
		for low := 0; low < 60; low += 5 {
			cols = append(cols, fmt.Sprintf("%s_%02dF_to_%02dF", kind, low, low+5))
		}
		cols = append(cols, kind+"_30F_to_45F")
	}
	return cols
}

// MetricsTable flattens records into one row per (thermostat, season).
// Metrics cells of excluded seasons are empty, never zero.
func MetricsTable(records []metrics.Record) Table {
	t := Table{Columns: metricsColumns}
	for i := range records {
		t.Rows = append(t.Rows, metricsRow(&records[i]))
	}
	return t
}

func metricsRow(r *metrics.Record) []string {
	row := []string{
		r.ThermostatID,
		string(r.HeatType),
		string(r.HeatStage),
		string(r.CoolType),
		string(r.CoolStage),
		r.Zipcode,
		r.ClimateZone,
		r.SeasonLabel,
		r.Start.Format(dateLayout),
		r.End.Format(dateLayout),
		strconv.Itoa(r.NDaysInRange),
		strconv.Itoa(r.NCoreDays),
		strconv.Itoa(r.NDaysBoth),
		strconv.Itoa(r.NDaysInsufficient),
		string(r.Exclusion),
	}
	m := r.Metrics
	if m == nil {
		for len(row) < len(metricsColumns) {
			row = append(row, "")
		}
		return row
	}
	row = append(row,
		num(m.BalancePoint), num(m.Alpha), num(m.MeanDemand),
		num(m.MSE), num(m.RMSE), num(m.CVRMSE), num(m.MAPE), num(m.MAE),
		num(m.TotalCoreRuntime), num(m.DailyMeanCoreRuntime),
		num(m.MeanIndoorTemp), num(m.MeanOutdoorTemp),
	)
	row = append(row, comparisonCells(&m.BaselinePercentile)...)
	if m.BaselineRegional != nil {
		row = append(row, comparisonCells(m.BaselineRegional)...)
	} else {
		row = append(row, "", "", "", "", "", "", "", "")
	}
	row = append(row, rhuCells(m.ResistanceHeat)...)
	return row
}

// rhuCells lays out RHU1 then RHU2 scores, each narrow bands ascending
// followed by the wide band, matching rhuColumns.
func rhuCells(m *metrics.RHUMetrics) []string {
	if m == nil {
		return make([]string, len(rhuColumnNames))
	}
	cells := make([]string, 0, len(rhuColumnNames))
	for _, bin := range m.Bins {
		cells = append(cells, num(bin.RHU1))
	}
	cells = append(cells, num(m.WideBin.RHU1))
	for _, bin := range m.Bins {
		cells = append(cells, num(bin.RHU2))
	}
	cells = append(cells, num(m.WideBin.RHU2))
	return cells
}

func comparisonCells(c *metrics.BaselineComparison) []string {
	return []string{
		num(c.ComfortTemperature),
		num(c.BalancePoint),
		num(c.BaselineTotalRuntime),
		num(c.BaselineDailyMeanRuntime),
		num(c.MeanBaselineDemand),
		num(c.AvoidedTotalRuntime),
		num(c.AvoidedDailyMeanRuntime),
		optNum(c.PercentSavings),
	}
}

var summaryColumns = []string{
	"heating_or_cooling",
	"equipment_class",
	"climate_zone",
	"n_input",
	"n_included",
	"n_excluded",
	"n_invalid",
	"percent_savings_mean",
	"percent_savings_min",
	"percent_savings_q10",
	"percent_savings_q25",
	"percent_savings_q50",
	"percent_savings_q75",
	"percent_savings_q90",
	"percent_savings_max",
	"avoided_daily_mean_core_day_runtime",
	"baseline_daily_mean_core_day_runtime",
}

// SummaryTable flattens summaries into one row per group.
func SummaryTable(summaries []stats.Summary) Table {
	t := Table{Columns: summaryColumns}
	for _, s := range summaries {
		d := s.PercentSavings
		t.Rows = append(t.Rows, []string{
			string(s.SeasonKind),
			s.EquipmentClass,
			s.ClimateZone,
			strconv.Itoa(s.InputCount),
			strconv.Itoa(s.IncludedCount),
			strconv.Itoa(s.ExcludedCount),
			strconv.Itoa(s.InvalidCount),
			num(d.Mean), num(d.Min),
			num(d.P10), num(d.P25), num(d.P50), num(d.P75), num(d.P90),
			num(d.Max),
			num(s.AvoidedDailyMeanRuntime),
			num(s.BaselineDailyMeanRuntime),
		})
	}
	return t
}

var certColumns = []string{
	"product_id",
	"equipment_class",
	"heating_or_cooling",
	"percentile",
	"min_savings",
	"observed_savings",
	"passed",
}

// CertificationTable flattens one certification into one row per threshold.
func CertificationTable(c cert.Certification) Table {
	t := Table{Columns: certColumns}
	for _, r := range c.Results {
		t.Rows = append(t.Rows, []string{
			c.ProductID,
			r.Threshold.EquipmentClass,
			string(r.Threshold.SeasonKind),
			strconv.Itoa(r.Threshold.Percentile),
			num(r.Threshold.MinSavings),
			optNum(r.Value),
			strconv.FormatBool(r.Passed),
		})
	}
	return t
}

// WriteCSV writes the table with a header row.
func (t Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	for _, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the table to path, replacing any existing file.
func (t Table) WriteCSVFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := t.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// num formats a float cell; undefined values are empty cells.
func num(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func optNum(v *float64) string {
	if v == nil {
		return ""
	}
	return num(*v)
}
