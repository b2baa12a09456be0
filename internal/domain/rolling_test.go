package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// weeklySeries builds consecutive weeks of 2023 holding the given values.
func weeklySeries(values ...float64) []WeeklyValue {
	out := make([]WeeklyValue, len(values))
	for i, v := range values {
		out[i] = WeeklyValue{Week: EWeek{2023, i + 1}, Value: v}
	}
	return out
}

func valuesOf(series []WeeklyValue) []float64 {
	out := make([]float64, len(series))
	for i, v := range series {
		out[i] = v.Value
	}
	return out
}

func TestRollingWindow_InvalidWindow(t *testing.T) {
	for _, window := range []int{0, -1} {
		_, err := RollingWindow{Window: window}.Apply(weeklySeries(1, 2, 3))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidWindow)
	}
}

func TestRollingWindow_NegativeLag(t *testing.T) {
	_, err := RollingWindow{Window: 1, Lag: -1}.Apply(weeklySeries(1))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidWindow)
}

func TestRollingWindow_PartialWindowAtStart(t *testing.T) {
	// W=3: week 0 aggregates only itself, week 1 the first two values.
	out, err := RollingWindow{Window: 3}.Apply(weeklySeries(3, 6, 9, 12))
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 4.5, 6, 9}, valuesOf(out))
}

func TestRollingWindow_RollingSum(t *testing.T) {
	out, err := RollingWindow{Window: 2, Total: true}.Apply(weeklySeries(1, 2, 3, 4))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 3, 5, 7}, valuesOf(out))
}

func TestRollingWindow_MeanCentering(t *testing.T) {
	// Series mean is 4; centered values are -2, 0, +2.
	out, err := RollingWindow{Window: 1, MeanCentered: true}.Apply(weeklySeries(2, 4, 6))
	require.NoError(t, err)
	assert.Equal(t, []float64{-2, 0, 2}, valuesOf(out))
}

func TestRollingWindow_LagBoundary(t *testing.T) {
	// L=2: weeks 0 and 1 are zero-filled, week 2 carries the aggregate from week 0.
	out, err := RollingWindow{Window: 1, Lag: 2}.Apply(weeklySeries(10, 20, 30, 40))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 10, 20}, valuesOf(out))
}

func TestRollingWindow_LagPreservesWeekKeys(t *testing.T) {
	series := weeklySeries(10, 20, 30)
	out, err := RollingWindow{Window: 1, Lag: 1}.Apply(series)
	require.NoError(t, err)
	for i := range series {
		assert.Equal(t, series[i].Week, out[i].Week)
	}
}

func TestRollingWindow_WindowAndLagCombined(t *testing.T) {
	// W=2 rolling means: 1, 1.5, 2.5, 3.5; lagged by 1 with zero-fill.
	out, err := RollingWindow{Window: 2, Lag: 1}.Apply(weeklySeries(1, 2, 3, 4))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 1.5, 2.5}, valuesOf(out))
}

func TestRollingWindow_EmptySeries(t *testing.T) {
	out, err := RollingWindow{Window: 3}.Apply(nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}
