package model

import (
	"math"
	"time"
)

// Series is an hourly time series on a regular grid. Index i holds the value
// for the hour starting at Start.Add(i * time.Hour). Missing samples are NaN,
// never dropped, so gaps stay visible to data-quality accounting.
//
// The grid is anchored in UTC. Daily resampling treats every day as exactly
// 24 hours, which a DST-observing location would break.
type Series struct {
	Start  time.Time
	Values []float64
}

// NewSeries builds a series anchored at start, truncated to the hour and
// normalized to UTC.
func NewSeries(start time.Time, values []float64) Series {
	return Series{Start: start.UTC().Truncate(time.Hour), Values: values}
}

// EmptySeries is the zero-length series used for absent equipment channels.
func EmptySeries() Series { return Series{} }

// Len returns the number of hourly samples.
func (s Series) Len() int { return len(s.Values) }

// IsEmpty reports whether the series holds no samples.
func (s Series) IsEmpty() bool { return len(s.Values) == 0 }

// End returns the timestamp one hour past the last sample.
func (s Series) End() time.Time {
	return s.Start.Add(time.Duration(len(s.Values)) * time.Hour)
}

// TimeAt returns the timestamp of sample i.
func (s Series) TimeAt(i int) time.Time {
	return s.Start.Add(time.Duration(i) * time.Hour)
}

// Index returns the sample index for t, or -1 when t is outside the series.
func (s Series) Index(t time.Time) int {
	if s.IsEmpty() {
		return -1
	}
	i := int(t.Sub(s.Start) / time.Hour)
	if i < 0 || i >= len(s.Values) {
		return -1
	}
	return i
}

// At returns the value at t. Out-of-range lookups return NaN, matching the
// treatment of in-range gaps.
func (s Series) At(t time.Time) float64 {
	i := s.Index(t)
	if i < 0 {
		return math.NaN()
	}
	return s.Values[i]
}

// MissingCount returns the number of NaN samples.
func (s Series) MissingCount() int {
	n := 0
	for _, v := range s.Values {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}

// Interpolated returns a copy with interior NaN runs of length <= limit
// filled linearly between their neighbors. Runs touching either end of the
// series are left missing; nothing is extrapolated.
func (s Series) Interpolated(limit int) Series {
	out := Series{Start: s.Start, Values: make([]float64, len(s.Values))}
	copy(out.Values, s.Values)

	i := 0
	for i < len(out.Values) {
		if !math.IsNaN(out.Values[i]) {
			i++
			continue
		}
		j := i
		for j < len(out.Values) && math.IsNaN(out.Values[j]) {
			j++
		}
		runLen := j - i
		if i > 0 && j < len(out.Values) && runLen <= limit {
			lo := out.Values[i-1]
			hi := out.Values[j]
			step := (hi - lo) / float64(runLen+1)
			for k := 0; k < runLen; k++ {
				out.Values[i+k] = lo + step*float64(k+1)
			}
		}
		i = j
	}
	return out
}
