package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidSequence is returned when strain observations are out of order
// or contain duplicate week keys.
var ErrInvalidSequence = errors.New("strain observations must be strictly ordered by week")

// SwitchPoint is one week of switch-detector output.
type SwitchPoint struct {
	Week            EWeek
	Switched        bool
	DaysSinceSwitch int
}

// DetectSwitches scans resolved strain observations in chronological order
// and emits, for each week, whether the dominant set changed and how many
// days have elapsed since the most recent change.
//
// The counter semantics mirror the upstream feature exactly: the emitted
// value for a record is the counter before incrementing; the counter
// advances by 7 after every record and resets to 0 when a switch is
// detected, before emission. A week right after a switch therefore emits 0,
// the following unchanged weeks emit 7, 14, 21, ... until the next switch.
// The first observation compares against the empty set, so it is always a
// switch and always emits 0.
//
// Input must be strictly increasing in (year, week); otherwise
// ErrInvalidSequence is returned with no partial result.
func DetectSwitches(obs []StrainObservation) ([]SwitchPoint, error) {
	for i := 1; i < len(obs); i++ {
		if obs[i].Week.Compare(obs[i-1].Week) <= 0 {
			return nil, fmt.Errorf("week %s follows %s: %w",
				obs[i].Week, obs[i-1].Week, ErrInvalidSequence)
		}
	}

	out := make([]SwitchPoint, len(obs))
	var prev StrainSet
	counter := 0
	for i, o := range obs {
		switched := !o.Dominant.Equal(prev)
		if switched {
			counter = 0
		}
		out[i] = SwitchPoint{Week: o.Week, Switched: switched, DaysSinceSwitch: counter}
		prev = o.Dominant
		counter += 7
	}
	return out, nil
}
