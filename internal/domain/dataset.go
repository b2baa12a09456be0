package domain

import "time"

// Row is one assembled training row, keyed by epidemiological week.
//
// Temperature is the primary series: the assembled dataset has exactly one
// row per week present in it. Features joined from the other series keep an
// explicit missing marker (nil) when absent, with one deliberate exception:
// a missing days_since_switch defaults to 0, because "no switch observed
// yet" is a well-defined zero distance while a missing temperature or case
// count is not.
type Row struct {
	Week            EWeek
	Date            time.Time // Monday starting the week
	TempAnomaly     float64
	DaysSinceSwitch int
	NinoSSTA        *float64
	DaysNoRain      *float64
	Cases           *float64
	Population      *float64
	GeneratedAt     time.Time
}

// Assemble left-joins the feature series and the target onto the
// temperature series. Duplicate weeks in the primary series are dropped,
// keeping the first occurrence, so the output key is unique. Population
// joins on year alone. Join order never affects output: every lookup is by
// explicit week key, not position.
func Assemble(temp []WeeklyValue, switches []SwitchPoint, nino, dryDays, cases []WeeklyValue, population []YearValue) []Row {
	ninoByWeek := indexWeekly(nino)
	dryByWeek := indexWeekly(dryDays)
	casesByWeek := indexWeekly(cases)

	switchByWeek := make(map[EWeek]int, len(switches))
	for _, s := range switches {
		switchByWeek[s.Week] = s.DaysSinceSwitch
	}
	popByYear := make(map[int]float64, len(population))
	for _, p := range population {
		popByYear[p.Year] = p.Value
	}

	now := clock.Now()
	seen := make(map[EWeek]struct{}, len(temp))
	rows := make([]Row, 0, len(temp))
	for _, t := range temp {
		if _, dup := seen[t.Week]; dup {
			continue
		}
		seen[t.Week] = struct{}{}

		row := Row{
			Week:            t.Week,
			Date:            t.Week.StartDate(),
			TempAnomaly:     t.Value,
			DaysSinceSwitch: switchByWeek[t.Week], // zero when absent
			NinoSSTA:        lookupWeekly(ninoByWeek, t.Week),
			DaysNoRain:      lookupWeekly(dryByWeek, t.Week),
			Cases:           lookupWeekly(casesByWeek, t.Week),
			GeneratedAt:     now,
		}
		if pop, ok := popByYear[t.Week.Year]; ok {
			row.Population = &pop
		}
		rows = append(rows, row)
	}
	return rows
}

func indexWeekly(series []WeeklyValue) map[EWeek]float64 {
	m := make(map[EWeek]float64, len(series))
	for _, v := range series {
		m[v.Week] = v.Value
	}
	return m
}

func lookupWeekly(m map[EWeek]float64, w EWeek) *float64 {
	if v, ok := m[w]; ok {
		return &v
	}
	return nil
}
