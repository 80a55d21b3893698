package toushin

import (
	"encoding/csv"
	"io"
	"strings"
	"time"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// NAVEntry is one dated NAV row from the CSV download. NAVs are published
// as whole yen.
type NAVEntry struct {
	Date time.Time
	NAV  int64
}

// NAVHistory is the parsed per-day NAV series for one fund.
type NAVHistory struct {
	Entries []NAVEntry
}

// NAVOn returns the NAV for the given calendar date.
func (h *NAVHistory) NAVOn(date time.Time) (int64, bool) {
	y, m, d := date.Date()
	for _, e := range h.Entries {
		ey, em, ed := e.Date.Date()
		if ey == y && em == m && ed == d {
			return e.NAV, true
		}
	}
	return 0, false
}

// navDateLayouts are the date formats seen in the CSV's date column.
var navDateLayouts = []string{
	"2006/01/02",
	"2006年01月02日",
}

// parseNAVHistory decodes the Shift-JIS CSV body and extracts dated NAV
// rows. Returns nil when nothing usable could be parsed; the CSV format
// is not under our control, so every failure degrades rather than errors.
func parseNAVHistory(body io.Reader) *NAVHistory {
	decoded := transform.NewReader(body, japanese.ShiftJIS.NewDecoder())

	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil || len(rows) == 0 {
		return nil
	}

	dateCol, navCol, start := locateColumns(rows)

	history := &NAVHistory{}
	for _, row := range rows[start:] {
		if len(row) <= dateCol || len(row) <= navCol {
			continue
		}

		date, ok := parseNAVDate(strings.TrimSpace(row[dateCol]))
		if !ok {
			continue
		}

		nav, ok := parseYenDigits(row[navCol])
		if !ok || nav <= 0 {
			continue
		}

		history.Entries = append(history.Entries, NAVEntry{Date: date, NAV: nav})
	}

	return history
}

// locateColumns finds the header row and maps the date and NAV columns by
// their header labels. Without a recognizable header the CSV is assumed to
// be date-first, NAV-second.
func locateColumns(rows [][]string) (dateCol, navCol, start int) {
	dateCol, navCol = 0, 1

	for i, row := range rows {
		if len(row) < 2 {
			continue
		}
		joined := strings.Join(row, "")
		if !strings.Contains(joined, "年月日") &&
			!strings.Contains(joined, "日付") &&
			!strings.Contains(joined, "基準価額") {
			continue
		}

		for j, cell := range row {
			switch {
			case strings.Contains(cell, "年月日"), strings.Contains(cell, "日付"):
				dateCol = j
			case strings.Contains(cell, "基準価額"):
				navCol = j
			}
		}
		return dateCol, navCol, i + 1
	}

	return dateCol, navCol, 0
}

func parseNAVDate(cell string) (time.Time, bool) {
	for _, layout := range navDateLayouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
