// Package sheet partitions raw tables into logical sections and resolves
// their headers into semantic column mappings.
//
// Vendor-delivered spreadsheets are frequently concatenations of several
// same-shaped tables, each with its own header row; assuming a single header
// silently corrupts every row below the second one. The splitter detects the
// repeated headers, and the resolver maps whatever the headers call their
// columns onto the fixed field set the enrichment engine works with.
package sheet

import "strings"

// Section is a contiguous block of a sheet treated as one logical table with
// its own header. Sections are immutable once emitted by the splitter; each
// role iteration works on its own Clone so roles never see one another's
// mutations.
type Section struct {
	Name      string
	SheetName string
	Header    []string
	Rows      [][]string
}

// Clone returns a deep copy of the section.
func (s *Section) Clone() *Section {
	c := &Section{
		Name:      s.Name,
		SheetName: s.SheetName,
		Header:    append([]string(nil), s.Header...),
		Rows:      make([][]string, len(s.Rows)),
	}
	for i, row := range s.Rows {
		c.Rows[i] = append([]string(nil), row...)
	}
	return c
}

// Cell returns the value at (row, col), or "" when the row is ragged and
// does not reach col.
func (s *Section) Cell(row, col int) string {
	if row < 0 || row >= len(s.Rows) || col < 0 || col >= len(s.Rows[row]) {
		return ""
	}
	return s.Rows[row][col]
}

// SetCell writes a value at (row, col), growing the row if needed.
func (s *Section) SetCell(row, col int, val string) {
	if row < 0 || row >= len(s.Rows) || col < 0 {
		return
	}
	for len(s.Rows[row]) <= col {
		s.Rows[row] = append(s.Rows[row], "")
	}
	s.Rows[row][col] = val
}

// EnsureColumn returns the index of the named column, appending it to the
// header when absent. Matching is case-insensitive.
func (s *Section) EnsureColumn(name string) int {
	for i, h := range s.Header {
		if strings.EqualFold(h, name) {
			return i
		}
	}
	s.Header = append(s.Header, name)
	return len(s.Header) - 1
}

// ClearColumn blanks every cell of a column. The enrichment engine clears
// its output columns up front so a re-run never mixes stale values with
// fresh ones.
func (s *Section) ClearColumn(col int) {
	for i := range s.Rows {
		s.SetCell(i, col, "")
	}
}
