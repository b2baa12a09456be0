package ingest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"time"
)

// DefaultNino34URL is the NOAA Climate Prediction Center weekly sea surface
// temperature bulletin, published since September 1981.
const DefaultNino34URL = "https://www.cpc.ncep.noaa.gov/data/indices/wksst9120.for"

var (
	bulletinDateRe = regexp.MustCompile(`^(\d{2}[A-Za-z]{3}\d{4})\s+(.*)$`)
	sstPairRe      = regexp.MustCompile(`([0-9.]+)\s*([+-]?[0-9.]+)`)
)

// ParseNino34Bulletin extracts the weekly Niño 3.4 series from the NOAA
// fixed-width bulletin. Each data line carries a week date followed by four
// SST/SSTA pairs for the Niño 1+2, 3, 3.4, and 4 regions; the third pair is
// the one the pipeline wants. Anomalies may abut the SST value with no
// separator ("26.5-0.2"), so pairs are matched, not column-split.
func ParseNino34Bulletin(r io.Reader) ([]NinoRecord, error) {
	var records []NinoRecord
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		m := bulletinDateRe.FindStringSubmatch(scanner.Text())
		if m == nil {
			// Header and preamble lines.
			continue
		}
		date, err := time.Parse("02Jan2006", m[1])
		if err != nil {
			return nil, fmt.Errorf("bulletin line %d: bad date %q: %w", line, m[1], err)
		}
		pairs := sstPairRe.FindAllStringSubmatch(m[2], -1)
		if len(pairs) < 3 {
			return nil, fmt.Errorf("bulletin line %d: expected 4 region pairs, got %d", line, len(pairs))
		}
		nino34 := pairs[2]
		sst, err := strconv.ParseFloat(nino34[1], 64)
		if err != nil {
			return nil, fmt.Errorf("bulletin line %d: bad sst %q: %w", line, nino34[1], err)
		}
		ssta, err := strconv.ParseFloat(nino34[2], 64)
		if err != nil {
			return nil, fmt.Errorf("bulletin line %d: bad ssta %q: %w", line, nino34[2], err)
		}
		records = append(records, NinoRecord{Date: date, SST: sst, SSTA: ssta})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read bulletin: %w", err)
	}
	return records, nil
}

// FetchNino34 downloads and parses the NOAA bulletin.
func FetchNino34(ctx context.Context, client *http.Client, url string) ([]NinoRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bulletin: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch bulletin: status %d", resp.StatusCode)
	}
	return ParseNino34Bulletin(resp.Body)
}
