package domain

import (
	"fmt"
	"sort"
	"strings"
)

// StrainSet is a set of serotype identifiers (1..4 for D1..D4), stored
// sorted ascending without duplicates.
type StrainSet []int

// NewStrainSet builds a normalized strain set from the given identifiers.
func NewStrainSet(ids ...int) StrainSet {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[int]struct{}, len(ids))
	s := make(StrainSet, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		s = append(s, id)
	}
	sort.Ints(s)
	return s
}

// Equal reports whether two strain sets contain the same serotypes.
func (s StrainSet) Equal(o StrainSet) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// Contains reports whether the set includes the given serotype.
func (s StrainSet) Contains(id int) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// String formats the set as e.g. "D1+D3".
func (s StrainSet) String() string {
	if len(s) == 0 {
		return "none"
	}
	parts := make([]string, len(s))
	for i, id := range s {
		parts[i] = fmt.Sprintf("D%d", id)
	}
	return strings.Join(parts, "+")
}

// StrainCount is the observed sample count for one serotype in one week.
type StrainCount struct {
	Strain int
	Count  int
}

// WeeklyStrainCounts holds the raw per-serotype counts for one week.
type WeeklyStrainCounts struct {
	Week   EWeek
	Counts []StrainCount
}

// StrainObservation is a week with its resolved dominant strain set.
type StrainObservation struct {
	Week     EWeek
	Dominant StrainSet
}

// ResolveDominant determines the dominant strain set for each week from raw
// counts, applying the continuity tie-break. For each week the candidate
// set is every strain tied for the maximum count. When the candidate set
// has more than one member and the previous week resolved to a single
// strain that is among the candidates, the previous week's strain stays
// dominant. Resolution is strictly chronological: each week's tie-break
// consults the prior week's resolved set, not its raw counts. Weeks with no
// counts produce no observation.
func ResolveDominant(weeks []WeeklyStrainCounts) []StrainObservation {
	out := make([]StrainObservation, 0, len(weeks))
	var prev StrainSet
	for _, wk := range weeks {
		curr := tiedForMax(wk.Counts)
		if len(curr) == 0 {
			continue
		}
		resolved := curr
		if len(curr) > 1 && len(prev) == 1 && curr.Contains(prev[0]) {
			resolved = prev
		}
		out = append(out, StrainObservation{Week: wk.Week, Dominant: resolved})
		prev = resolved
	}
	return out
}

// tiedForMax returns the set of strains whose count equals the weekly maximum.
func tiedForMax(counts []StrainCount) StrainSet {
	if len(counts) == 0 {
		return nil
	}
	maxCount := counts[0].Count
	for _, c := range counts[1:] {
		if c.Count > maxCount {
			maxCount = c.Count
		}
	}
	ids := make([]int, 0, len(counts))
	for _, c := range counts {
		if c.Count == maxCount {
			ids = append(ids, c.Strain)
		}
	}
	return NewStrainSet(ids...)
}
