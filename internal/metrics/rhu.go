package metrics

import (
	"math"

	"thermostat_savings/internal/model"
	"thermostat_savings/internal/season"
	"thermostat_savings/internal/store"
)

// Resistance heat utilization measures how often a heat pump's electric
// backup ran relative to its compressor, binned by outdoor temperature.
// Bands are right-closed 5°F steps from 0 to 60°F plus one wide 30-45°F
// band.
const (
	rhuBinMinTemp = 0.0
	rhuBinMaxTemp = 60.0
	rhuBinWidth   = 5.0

	rhuWideBinLow  = 30.0
	rhuWideBinHigh = 45.0
)

// MinRHUBinRuntime is the combined heat, auxiliary and emergency minutes a
// band needs before its filtered utilization (RHU2) is reported.
const MinRHUBinRuntime = 30 * 60.0

// RHUBin accumulates one outdoor-temperature band. A core day lands in the
// band covering its mean outdoor temperature (LowTemp exclusive, HighTemp
// inclusive).
type RHUBin struct {
	LowTemp  float64
	HighTemp float64

	HeatRuntime      float64
	AuxiliaryRuntime float64
	EmergencyRuntime float64

	// RHU1 is (auxiliary + emergency) / (heat + emergency) runtime. NaN for
	// bands with no compressor or emergency runtime and for nonsense bands.
	RHU1 float64
	// RHU2 is RHU1 with thin bands suppressed: NaN when the band's combined
	// runtime is under MinRHUBinRuntime.
	RHU2 float64

	// Nonsense marks bands whose auxiliary runtime exceeds compressor
	// runtime, which no working heat pump produces.
	Nonsense bool
}

func (b *RHUBin) observe(temp, heat, aux, emergency float64) {
	if temp <= b.LowTemp || temp > b.HighTemp {
		return
	}
	b.HeatRuntime += heat
	b.AuxiliaryRuntime += aux
	b.EmergencyRuntime += emergency
}

func (b *RHUBin) score() {
	b.RHU1 = math.NaN()
	if denom := b.HeatRuntime + b.EmergencyRuntime; denom > 0 {
		b.RHU1 = (b.AuxiliaryRuntime + b.EmergencyRuntime) / denom
	}
	b.Nonsense = b.AuxiliaryRuntime > b.HeatRuntime
	if b.Nonsense {
		b.RHU1 = math.NaN()
	}
	b.RHU2 = b.RHU1
	if b.HeatRuntime+b.AuxiliaryRuntime+b.EmergencyRuntime < MinRHUBinRuntime {
		b.RHU2 = math.NaN()
	}
}

// RHUMetrics is the per-season resistance heat utilization table.
type RHUMetrics struct {
	Bins    []RHUBin // ascending 5°F bands covering 0-60°F
	WideBin RHUBin   // single 30-45°F band
}

// NewRHUMetrics returns the empty band table with all scores undefined.
func NewRHUMetrics() *RHUMetrics {
	m := &RHUMetrics{WideBin: RHUBin{
		LowTemp: rhuWideBinLow, HighTemp: rhuWideBinHigh,
		RHU1: math.NaN(), RHU2: math.NaN(),
	}}
	for low := rhuBinMinTemp; low < rhuBinMaxTemp; low += rhuBinWidth {
		m.Bins = append(m.Bins, RHUBin{
			LowTemp: low, HighTemp: low + rhuBinWidth,
			RHU1: math.NaN(), RHU2: math.NaN(),
		})
	}
	return m
}

// resistanceHeat bins the season's core days by daily mean outdoor
// temperature and scores backup-heat utilization per band. Days with an
// incomplete runtime channel or no temperature data stay out of every band.
func (c *Calculator) resistanceHeat(t *model.Thermostat, s *season.Season) *RHUMetrics {
	outdoor := store.DailyMeans(t.OutdoorTemp)
	heat := store.DailySums(t.HeatRuntime)
	aux := store.DailySums(t.AuxiliaryRuntime)
	emergency := store.DailySums(t.EmergencyRuntime)

	m := NewRHUMetrics()
	for _, date := range s.CoreDates() {
		i := outdoor.IndexOf(date)
		if i < 0 {
			continue
		}
		temp := outdoor.Values[i]
		heatRT := heat.Values[heat.IndexOf(date)]
		auxRT := aux.Values[aux.IndexOf(date)]
		emgRT := emergency.Values[emergency.IndexOf(date)]
		if math.IsNaN(temp) || math.IsNaN(heatRT) || math.IsNaN(auxRT) || math.IsNaN(emgRT) {
			continue
		}
		for b := range m.Bins {
			m.Bins[b].observe(temp, heatRT, auxRT, emgRT)
		}
		m.WideBin.observe(temp, heatRT, auxRT, emgRT)
	}

	finish := func(b *RHUBin) {
		b.score()
		if b.Nonsense {
			c.sink.Warnw("auxiliary runtime exceeds compressor runtime",
				"thermostat_id", t.ID, "season", s.Label,
				"band_low_f", b.LowTemp, "band_high_f", b.HighTemp)
		}
	}
	for b := range m.Bins {
		finish(&m.Bins[b])
	}
	finish(&m.WideBin)
	return m
}
