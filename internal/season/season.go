// Package season partitions a thermostat's telemetry into heating and
// cooling seasons and applies the data-quality rules that decide whether a
// season may be modeled at all.
package season

import (
	"fmt"
	"math"
	"time"

	"thermostat_savings/internal/model"
	"thermostat_savings/internal/store"
)

// Kind tags a season as heating or cooling.
type Kind string

const (
	Heating Kind = "heating"
	Cooling Kind = "cooling"
)

// Config holds the season validity thresholds. All values are explicit
// parameters; nothing is read from globals.
type Config struct {
	// MinDailyRuntime is the minutes of same-mode runtime a day needs to
	// count as a core day.
	MinDailyRuntime float64
	// MaxOppositeRuntime is the minutes of opposite-mode runtime beyond
	// which a day is treated as shoulder season.
	MaxOppositeRuntime float64
	// MaxMissingTempHours is the most missing indoor or outdoor temperature
	// hours a core day may have.
	MaxMissingTempHours int
	// MinCoreDays is the fewest core days a season needs to be modeled.
	MinCoreDays int
	// MaxMissingFraction is the largest tolerated fraction of missing
	// hourly records across a season.
	MaxMissingFraction float64
}

// DefaultConfig returns the methodology defaults: 30 minutes of runtime to
// qualify a core day, no opposite-mode runtime allowed, at most 2 missing
// temperature hours per core day, 10 core days and 5% missing data per
// season.
func DefaultConfig() Config {
	return Config{
		MinDailyRuntime:     30,
		MaxOppositeRuntime:  0,
		MaxMissingTempHours: 2,
		MinCoreDays:         10,
		MaxMissingFraction:  0.05,
	}
}

// Season is one contiguous heating or cooling analysis period for a
// thermostat-year. Core selects the days that feed the model fit.
type Season struct {
	Kind  Kind
	Label string
	Start time.Time // inclusive
	End   time.Time // exclusive

	Days []time.Time
	Core []bool

	NCoreDays         int
	NDaysBoth         int
	NDaysInsufficient int
	// TotalRuntime sums same-mode runtime over every day of the season with
	// a complete daily total; TotalCoreRuntime restricts the sum to core
	// days.
	TotalRuntime     float64
	TotalCoreRuntime float64
	MissingFraction  float64

	Exclusion model.ExclusionReason
}

// Valid reports whether the season passed every data-quality rule.
func (s *Season) Valid() bool { return s.Exclusion == model.ExclusionNone }

// CoreDates returns the dates of the season's core days.
func (s *Season) CoreDates() []time.Time {
	out := make([]time.Time, 0, s.NCoreDays)
	for i, core := range s.Core {
		if core {
			out = append(out, s.Days[i])
		}
	}
	return out
}

// Classify splits the thermostat's observation window into cooling seasons
// (calendar years) followed by heating seasons (July-to-June thermostat
// years). Every thermostat-year overlapping the window yields a season for
// each equipped mode; seasons failing a validity rule carry an enumerated
// exclusion reason instead of being dropped. Malformed hours never abort
// classification; they count toward the missing-data ratio.
func Classify(t *model.Thermostat, cfg Config) []Season {
	window := t.ObservationWindow()
	if window.IsEmpty() {
		return nil
	}

	var seasons []Season
	if t.CoolType.HasCooling() {
		seasons = append(seasons, classifyKind(t, cfg, Cooling)...)
	}
	if t.HeatType.HasHeating() {
		seasons = append(seasons, classifyKind(t, cfg, Heating)...)
	}
	return seasons
}

func classifyKind(t *model.Thermostat, cfg Config, kind Kind) []Season {
	var same, opposite model.Series
	if kind == Cooling {
		same, opposite = t.CoolRuntime, t.HeatRuntime
	} else {
		same, opposite = t.HeatRuntime, t.CoolRuntime
	}

	sameDaily := store.DailySums(same)
	oppositeDaily := store.Daily{}
	if !opposite.IsEmpty() {
		oppositeDaily = store.DailySums(opposite)
	}
	missIn := store.MissingHoursPerDay(t.IndoorTemp)
	missOut := store.MissingHoursPerDay(t.OutdoorTemp)

	var seasons []Season
	for _, span := range yearSpans(kind, sameDaily) {
		s := Season{
			Kind:  kind,
			Label: span.label,
			Start: span.start,
			End:   span.end,
		}
		for i, date := range sameDaily.Dates {
			if date.Before(span.start) || !date.Before(span.end) {
				continue
			}
			s.Days = append(s.Days, date)

			sameRT := sameDaily.Values[i]
			oppRT := 0.0
			if oppositeDaily.Len() > 0 {
				oppRT = oppositeDaily.Values[i]
			}

			core := sameRT >= cfg.MinDailyRuntime &&
				(oppositeDaily.Len() == 0 || oppRT <= cfg.MaxOppositeRuntime) &&
				missIn[i] <= cfg.MaxMissingTempHours &&
				missOut[i] <= cfg.MaxMissingTempHours
			s.Core = append(s.Core, core)
			if !math.IsNaN(sameRT) {
				s.TotalRuntime += sameRT
			}
			if core {
				s.NCoreDays++
				s.TotalCoreRuntime += sameRT
			}
			if sameRT > 0 && oppRT > 0 {
				s.NDaysBoth++
			}
			if math.IsNaN(sameRT) || (oppositeDaily.Len() > 0 && math.IsNaN(oppRT)) {
				s.NDaysInsufficient++
			}
		}
		if len(s.Days) == 0 {
			continue
		}
		s.MissingFraction = missingFraction(t, same, s.Days)
		s.Exclusion = exclusion(&s, cfg)
		seasons = append(seasons, s)
	}
	return seasons
}

// exclusion applies the validity rules in order of severity. Core-day
// comparisons against NaN daily sums are false, so malformed days simply
// fail to qualify. The zero-runtime rule reads the season-wide runtime sum:
// equipment that trickles a little every day without ever clearing the
// core-day bar is short on core days, not idle.
func exclusion(s *Season, cfg Config) model.ExclusionReason {
	switch {
	case s.MissingFraction > cfg.MaxMissingFraction:
		return model.ExclusionInsufficientData
	case s.TotalRuntime == 0:
		return model.ExclusionZeroRuntime
	case s.NCoreDays < cfg.MinCoreDays:
		return model.ExclusionInsufficientCoreDays
	default:
		return model.ExclusionNone
	}
}

// missingFraction is the share of the season's hours with a missing
// temperature or runtime sample.
func missingFraction(t *model.Thermostat, runtime model.Series, days []time.Time) float64 {
	if len(days) == 0 {
		return 0
	}
	missing, total := 0, 0
	for _, day := range days {
		for h := 0; h < 24; h++ {
			ts := day.Add(time.Duration(h) * time.Hour)
			total++
			if math.IsNaN(t.IndoorTemp.At(ts)) || math.IsNaN(t.OutdoorTemp.At(ts)) || math.IsNaN(runtime.At(ts)) {
				missing++
			}
		}
	}
	return float64(missing) / float64(total)
}

type span struct {
	label      string
	start, end time.Time
}

// yearSpans returns the analysis-period boundaries overlapping the daily
// grid: calendar years for cooling, July-to-June years for heating.
func yearSpans(kind Kind, daily store.Daily) []span {
	if daily.Len() == 0 {
		return nil
	}
	first := daily.Dates[0]
	last := daily.Dates[daily.Len()-1]
	loc := first.Location()

	var spans []span
	if kind == Cooling {
		for year := first.Year(); year <= last.Year(); year++ {
			spans = append(spans, span{
				label: fmt.Sprintf("cooling_%d", year),
				start: time.Date(year, 1, 1, 0, 0, 0, 0, loc),
				end:   time.Date(year+1, 1, 1, 0, 0, 0, 0, loc),
			})
		}
		return clamp(spans, first, last)
	}

	startYear := first.Year()
	if first.Month() < time.July {
		startYear--
	}
	endYear := last.Year()
	if last.Month() >= time.July {
		endYear++
	}
	for year := startYear; year < endYear; year++ {
		spans = append(spans, span{
			label: fmt.Sprintf("heating_%d-%d", year, year+1),
			start: time.Date(year, 7, 1, 0, 0, 0, 0, loc),
			end:   time.Date(year+1, 7, 1, 0, 0, 0, 0, loc),
		})
	}
	return clamp(spans, first, last)
}

// clamp trims spans to the data range so edge seasons report honest bounds.
func clamp(spans []span, first, last time.Time) []span {
	dataEnd := last.Add(24 * time.Hour)
	out := spans[:0]
	for _, sp := range spans {
		if sp.start.Before(first) {
			sp.start = first
		}
		if sp.end.After(dataEnd) {
			sp.end = dataEnd
		}
		if sp.start.Before(sp.end) {
			out = append(out, sp)
		}
	}
	return out
}
