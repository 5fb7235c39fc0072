package store

import (
	"math"
	"time"

	"thermostat_savings/internal/model"
)

// Daily is an hourly series resampled to calendar days. Dates are UTC
// midnight timestamps 24 hours apart; Values align with Dates.
type Daily struct {
	Dates  []time.Time
	Values []float64
}

// Len returns the number of days.
func (d Daily) Len() int { return len(d.Dates) }

// IndexOf returns the position of date, or -1.
func (d Daily) IndexOf(date time.Time) int {
	if len(d.Dates) == 0 {
		return -1
	}
	i := int(date.Sub(d.Dates[0]) / (24 * time.Hour))
	if i < 0 || i >= len(d.Dates) {
		return -1
	}
	return i
}

// dayBounds returns the calendar-day grid covering s. The first and last
// days may be partial.
func dayBounds(s model.Series) (first time.Time, nDays int) {
	if s.IsEmpty() {
		return time.Time{}, 0
	}
	first = startOfDay(s.Start)
	last := startOfDay(s.TimeAt(s.Len() - 1))
	nDays = int(last.Sub(first)/(24*time.Hour)) + 1
	return first, nDays
}

// DailySums resamples to daily totals. A day with any missing hour sums to
// NaN, so partial days cannot masquerade as low-runtime days.
func DailySums(s model.Series) Daily {
	first, n := dayBounds(s)
	d := Daily{Dates: make([]time.Time, n), Values: make([]float64, n)}
	for i := range d.Dates {
		d.Dates[i] = first.Add(time.Duration(i) * 24 * time.Hour)
	}
	for i := range d.Values {
		day := d.Dates[i]
		sum := 0.0
		for h := 0; h < 24; h++ {
			v := s.At(day.Add(time.Duration(h) * time.Hour))
			if math.IsNaN(v) {
				sum = math.NaN()
				break
			}
			sum += v
		}
		d.Values[i] = sum
	}
	return d
}

// DailyMeans resamples to daily means over the hours present, ignoring
// missing samples. A day with no samples at all is NaN.
func DailyMeans(s model.Series) Daily {
	first, n := dayBounds(s)
	d := Daily{Dates: make([]time.Time, n), Values: make([]float64, n)}
	for i := range d.Dates {
		d.Dates[i] = first.Add(time.Duration(i) * 24 * time.Hour)
	}
	for i := range d.Values {
		day := d.Dates[i]
		sum, count := 0.0, 0
		for h := 0; h < 24; h++ {
			v := s.At(day.Add(time.Duration(h) * time.Hour))
			if math.IsNaN(v) {
				continue
			}
			sum += v
			count++
		}
		if count == 0 {
			d.Values[i] = math.NaN()
		} else {
			d.Values[i] = sum / float64(count)
		}
	}
	return d
}

// MissingHoursPerDay counts missing samples per calendar day. Hours outside
// the series window count as missing, so edge days are penalized like gaps.
func MissingHoursPerDay(s model.Series) []int {
	first, n := dayBounds(s)
	out := make([]int, n)
	for i := range out {
		day := first.Add(time.Duration(i) * 24 * time.Hour)
		missing := 0
		for h := 0; h < 24; h++ {
			if math.IsNaN(s.At(day.Add(time.Duration(h) * time.Hour))) {
				missing++
			}
		}
		out[i] = missing
	}
	return out
}

// HoursOfDay returns the 24 samples for the calendar day starting at date.
// Hours outside the series are NaN.
func HoursOfDay(s model.Series, date time.Time) []float64 {
	out := make([]float64, 24)
	for h := range out {
		out[h] = s.At(date.Add(time.Duration(h) * time.Hour))
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
