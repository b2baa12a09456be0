package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidWindow is returned when a rolling window is smaller than one week.
var ErrInvalidWindow = errors.New("rolling window must be at least one week")

// RollingWindow describes the shared transform applied to weekly climate
// series: optional mean-centering, a trailing aggregate over Window weeks,
// then a backward shift of Lag weeks with zero-fill for the first Lag
// outputs.
type RollingWindow struct {
	Window int
	Lag    int

	// Total selects a rolling sum instead of a rolling mean.
	Total bool

	// MeanCentered subtracts the all-time mean of the input series from
	// every value before aggregating. Used for temperature and SSTA.
	MeanCentered bool
}

// Apply runs the transform over an ordered weekly series and returns one
// output value per input week. Windows at the head of the series are
// partial: week i aggregates over weeks [i-Window+1, i] clipped to the
// series start. The first Lag output weeks, for which no shifted source
// value exists, are 0.
func (r RollingWindow) Apply(series []WeeklyValue) ([]WeeklyValue, error) {
	if r.Window < 1 {
		return nil, fmt.Errorf("window %d: %w", r.Window, ErrInvalidWindow)
	}
	if r.Lag < 0 {
		return nil, fmt.Errorf("lag %d must not be negative", r.Lag)
	}
	if len(series) == 0 {
		return nil, nil
	}

	values := make([]float64, len(series))
	for i, v := range series {
		values[i] = v.Value
	}

	if r.MeanCentered {
		var sum float64
		for _, v := range values {
			sum += v
		}
		mean := sum / float64(len(values))
		for i := range values {
			values[i] -= mean
		}
	}

	rolled := make([]float64, len(values))
	for i := range values {
		lo := i - r.Window + 1
		if lo < 0 {
			lo = 0
		}
		var sum float64
		for j := lo; j <= i; j++ {
			sum += values[j]
		}
		if r.Total {
			rolled[i] = sum
		} else {
			rolled[i] = sum / float64(i-lo+1)
		}
	}

	out := make([]WeeklyValue, len(series))
	for i := range series {
		out[i].Week = series[i].Week
		if i >= r.Lag {
			out[i].Value = rolled[i-r.Lag]
		}
	}
	return out, nil
}
