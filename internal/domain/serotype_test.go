package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStrainSet(t *testing.T) {
	tests := []struct {
		name     string
		input    []int
		expected StrainSet
	}{
		{"sorted ascending", []int{3, 1, 2}, StrainSet{1, 2, 3}},
		{"duplicates removed", []int{2, 2, 1}, StrainSet{1, 2}},
		{"empty", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NewStrainSet(tt.input...))
		})
	}
}

func TestStrainSetEqual(t *testing.T) {
	assert.True(t, NewStrainSet(1, 2).Equal(NewStrainSet(2, 1)))
	assert.False(t, NewStrainSet(1).Equal(NewStrainSet(1, 2)))
	assert.False(t, NewStrainSet(1, 3).Equal(NewStrainSet(1, 2)))
	assert.True(t, StrainSet(nil).Equal(nil))
}

func TestStrainSetString(t *testing.T) {
	assert.Equal(t, "D1+D3", NewStrainSet(3, 1).String())
	assert.Equal(t, "none", StrainSet(nil).String())
}

func counts(week EWeek, pairs ...int) WeeklyStrainCounts {
	wk := WeeklyStrainCounts{Week: week}
	for i := 0; i+1 < len(pairs); i += 2 {
		wk.Counts = append(wk.Counts, StrainCount{Strain: pairs[i], Count: pairs[i+1]})
	}
	return wk
}

func TestResolveDominant(t *testing.T) {
	t.Run("clear weekly maximum", func(t *testing.T) {
		obs := ResolveDominant([]WeeklyStrainCounts{
			counts(EWeek{2020, 1}, 1, 40, 2, 10, 3, 5),
		})
		require.Len(t, obs, 1)
		assert.Equal(t, NewStrainSet(1), obs[0].Dominant)
	})

	t.Run("tie keeps previously dominant strain", func(t *testing.T) {
		// Week 2 ties D1 and D2; week 1 resolved to D1 alone, so continuity wins.
		obs := ResolveDominant([]WeeklyStrainCounts{
			counts(EWeek{2020, 1}, 1, 40, 2, 10),
			counts(EWeek{2020, 2}, 1, 25, 2, 25),
		})
		require.Len(t, obs, 2)
		assert.Equal(t, NewStrainSet(1), obs[1].Dominant)
	})

	t.Run("tie without previous member keeps current set", func(t *testing.T) {
		// Week 2 ties D1 and D2 but week 1 was dominated by D3.
		obs := ResolveDominant([]WeeklyStrainCounts{
			counts(EWeek{2020, 1}, 3, 40, 1, 10),
			counts(EWeek{2020, 2}, 1, 25, 2, 25),
		})
		require.Len(t, obs, 2)
		assert.Equal(t, NewStrainSet(1, 2), obs[1].Dominant)
	})

	t.Run("tie after multi-strain week keeps current set", func(t *testing.T) {
		obs := ResolveDominant([]WeeklyStrainCounts{
			counts(EWeek{2020, 1}, 1, 25, 2, 25),
			counts(EWeek{2020, 2}, 2, 30, 3, 30),
		})
		require.Len(t, obs, 2)
		assert.Equal(t, NewStrainSet(1, 2), obs[0].Dominant)
		assert.Equal(t, NewStrainSet(2, 3), obs[1].Dominant)
	})

	t.Run("first week tie has no tie-break basis", func(t *testing.T) {
		obs := ResolveDominant([]WeeklyStrainCounts{
			counts(EWeek{2020, 1}, 1, 25, 2, 25),
		})
		require.Len(t, obs, 1)
		assert.Equal(t, NewStrainSet(1, 2), obs[0].Dominant)
	})

	t.Run("tie-break uses resolved set, not raw counts", func(t *testing.T) {
		// Week 2 ties D1/D2 and resolves to D1 via continuity. Week 3 ties
		// D1/D3: the resolved singleton D1 from week 2 must carry forward.
		obs := ResolveDominant([]WeeklyStrainCounts{
			counts(EWeek{2020, 1}, 1, 40, 2, 10),
			counts(EWeek{2020, 2}, 1, 25, 2, 25),
			counts(EWeek{2020, 3}, 1, 30, 3, 30),
		})
		require.Len(t, obs, 3)
		assert.Equal(t, NewStrainSet(1), obs[2].Dominant)
	})

	t.Run("weeks without counts are skipped", func(t *testing.T) {
		obs := ResolveDominant([]WeeklyStrainCounts{
			counts(EWeek{2020, 1}, 1, 40),
			{Week: EWeek{2020, 2}},
			counts(EWeek{2020, 3}, 2, 40),
		})
		require.Len(t, obs, 2)
		assert.Equal(t, EWeek{2020, 3}, obs[1].Week)
	})
}
