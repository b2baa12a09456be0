package domain

import (
	"fmt"
	"time"
)

// EWeek is an epidemiological week: an ISO-8601 week number paired with its
// ISO week-year. It is the join key for every weekly series.
type EWeek struct {
	Year int
	Week int
}

// EWeekOf returns the epidemiological week containing t.
func EWeekOf(t time.Time) EWeek {
	year, week := t.ISOWeek()
	return EWeek{Year: year, Week: week}
}

// Compare orders epidemiological weeks chronologically. It returns a
// negative value when w precedes o, zero when equal, positive otherwise.
func (w EWeek) Compare(o EWeek) int {
	if w.Year != o.Year {
		return w.Year - o.Year
	}
	return w.Week - o.Week
}

// Before reports whether w falls strictly before o.
func (w EWeek) Before(o EWeek) bool {
	return w.Compare(o) < 0
}

// StartDate returns the Monday beginning the ISO week, in UTC.
func (w EWeek) StartDate() time.Time {
	// January 4th is always inside ISO week 1 of its week-year.
	jan4 := time.Date(w.Year, time.January, 4, 0, 0, 0, 0, time.UTC)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	week1Monday := jan4.AddDate(0, 0, 1-weekday)
	return week1Monday.AddDate(0, 0, (w.Week-1)*7)
}

// String formats the week as e.g. "2024-W31".
func (w EWeek) String() string {
	return fmt.Sprintf("%04d-W%02d", w.Year, w.Week)
}

// WeeklyValue is one point of a weekly feature series.
type WeeklyValue struct {
	Week  EWeek
	Value float64
}

// YearValue is one point of an annual series, such as population.
type YearValue struct {
	Year  int
	Value float64
}
