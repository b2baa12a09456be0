package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// standardize normalizes raw CSV headers: trims, lowercases, and strips
// spaces and quotes, so the alias tables match any vintage of export.
func standardize(columns []string) []string {
	out := make([]string, len(columns))
	for i, col := range columns {
		col = strings.TrimSpace(col)
		col = strings.ToLower(col)
		col = strings.ReplaceAll(col, " ", "")
		col = strings.ReplaceAll(col, `"`, "")
		out[i] = col
	}
	return out
}

var filenameRangeRe = regexp.MustCompile(`(\d{8})-(\d{8})`)

// parseDateWithFilename resolves an ambiguous DD/MM vs MM/DD date string
// using the YYYYMMDD-YYYYMMDD range embedded in the source filename. Weekly
// exports name their files after the covered range, so only the reading
// inside the range can be the intended one. Returns false when neither
// reading falls inside the range or the filename has no range.
func parseDateWithFilename(dateStr, filename string) (time.Time, bool) {
	m := filenameRangeRe.FindStringSubmatch(filename)
	if m == nil {
		return time.Time{}, false
	}
	rangeStart, err := time.Parse("20060102", m[1])
	if err != nil {
		return time.Time{}, false
	}
	rangeEnd, err := time.Parse("20060102", m[2])
	if err != nil {
		return time.Time{}, false
	}

	inRange := func(d time.Time) bool {
		return !d.Before(rangeStart) && !d.After(rangeEnd)
	}
	if d, err := time.Parse("02/01/2006", dateStr); err == nil && inRange(d) {
		return d, true
	}
	if d, err := time.Parse("01/02/2006", dateStr); err == nil && inRange(d) {
		return d, true
	}
	return time.Time{}, false
}

// table maps standardized header names to column indexes.
type table struct {
	index map[string]int
	rows  [][]string
}

// readTable reads a CSV and resolves headers through the alias map.
// Unknown columns are kept under their standardized name.
func readTable(r io.Reader, aliases map[string]string) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, col := range standardize(header) {
		if canonical, ok := aliases[col]; ok {
			col = canonical
		}
		if _, dup := index[col]; !dup {
			index[col] = i
		}
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return &table{index: index, rows: rows}, nil
}

// cell returns the trimmed value of a named column, or "" when the column
// is absent or the row is short.
func (t *table) cell(row []string, column string) string {
	i, ok := t.index[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// floatCell parses a named column as a float; empty and malformed cells
// come back nil, matching the NULL the raw exports intend.
func (t *table) floatCell(row []string, column string) *float64 {
	s := t.cell(row, column)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// dateCell parses a named date column, trying the DD/MM/YYYY convention of
// the daily exports first, then ISO. When the filename carries a date
// range, it disambiguates slash dates against that range instead.
func (t *table) dateCell(row []string, column, filename string) (time.Time, bool) {
	s := t.cell(row, column)
	if s == "" {
		return time.Time{}, false
	}
	if filenameRangeRe.MatchString(filename) {
		return parseDateWithFilename(s, filename)
	}
	if d, err := time.Parse("02/01/2006", s); err == nil {
		return d, true
	}
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return d, true
	}
	return time.Time{}, false
}
