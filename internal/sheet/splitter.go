package sheet

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/tabular"
)

// headerKeywords are single words commonly found in header cells. Whole-word
// matching only; "brevard county" is not a header cell (1/2 words match).
var headerKeywords = map[string]bool{
	"country": true, "county": true, "city": true, "email": true,
	"state": true, "province": true, "contact": true, "population": true,
	"phone": true, "role": true, "title": true, "name": true,
	"first": true, "last": true, "position": true, "address": true,
}

// minHeaderCells is how many header-looking cells a row needs before it
// counts as a candidate header row.
const minHeaderCells = 3

// isHeaderCell reports whether more than half of the cell's words are header
// keywords. Words are split on whitespace, "/" and "-".
func isHeaderCell(val string) bool {
	cleaned := strings.NewReplacer("/", " ", "-", " ").Replace(strings.ToLower(val))
	words := strings.Fields(cleaned)
	if len(words) == 0 {
		return false
	}

	matches := 0
	for _, w := range words {
		if headerKeywords[w] {
			matches++
		}
	}
	return float64(matches) > float64(len(words))*0.5
}

// FindHeaderRows returns the indices of rows that look like header rows.
func FindHeaderRows(rows [][]string) []int {
	var headerRows []int
	for idx, row := range rows {
		headerCells := 0
		for _, val := range row {
			if strings.TrimSpace(val) == "" {
				continue
			}
			if isHeaderCell(strings.TrimSpace(val)) {
				headerCells++
			}
		}
		if headerCells >= minHeaderCells {
			headerRows = append(headerRows, idx)
		}
	}
	return headerRows
}

// Split partitions a raw table into sections by detected header rows.
//
// No header detected: row 0 is assumed to be the header (legacy fallback).
// One header: a single section from that row to the end of the table.
// Multiple headers: one section per consecutive header pair, named
// "<sheet>_part<i>" with i following enumeration order over all detected
// headers, so a dropped runt section leaves a gap in the numbering.
func Split(table tabular.RawTable) []*Section {
	if len(table.Rows) == 0 {
		return nil
	}

	headerIndices := FindHeaderRows(table.Rows)

	if len(headerIndices) == 0 {
		return []*Section{sectionAt(table, 0, len(table.Rows), table.Name)}
	}

	if len(headerIndices) == 1 {
		sec := sectionAt(table, headerIndices[0], len(table.Rows), table.Name)
		if len(sec.Rows) < 1 {
			return nil
		}
		return []*Section{sec}
	}

	zap.L().Info(fmt.Sprintf("found %d sections in sheet %q", len(headerIndices), table.Name))

	var sections []*Section
	for i, start := range headerIndices {
		end := len(table.Rows)
		if i+1 < len(headerIndices) {
			end = headerIndices[i+1]
		}

		// Runt sections (header with no data) are dropped entirely.
		if end-start < 2 {
			continue
		}

		sec := sectionAt(table, start, end, fmt.Sprintf("%s_part%d", table.Name, i+1))
		if len(sec.Rows) < 1 {
			continue
		}
		sections = append(sections, sec)

		zap.L().Info(fmt.Sprintf("  section %d: %d data rows", i+1, len(sec.Rows)))
	}

	return sections
}

// sectionAt carves rows [start, end) out of the table, using the first row
// as the section header.
func sectionAt(table tabular.RawTable, start, end int, name string) *Section {
	header := append([]string(nil), table.Rows[start]...)

	rows := make([][]string, 0, end-start-1)
	for _, row := range table.Rows[start+1 : end] {
		rows = append(rows, append([]string(nil), row...))
	}

	return &Section{
		Name:      name,
		SheetName: table.Name,
		Header:    header,
		Rows:      rows,
	}
}
