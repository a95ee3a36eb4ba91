// Package tabular reads spreadsheet/CSV files into raw tables and writes
// enriched sections back out. All cells are read as data; header detection
// happens downstream in the section splitter.
package tabular

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// RawTable is an ordered sequence of rows with no header semantics.
type RawTable struct {
	Name string
	Rows [][]string
}

// Workbook holds one RawTable per sheet, in sheet order. CSV files load as a
// single table named "Sheet1".
type Workbook struct {
	Path   string
	Ext    string // lowercased extension, ".csv" or ".xlsx"
	Tables []RawTable
}

// IsCSV reports whether the source file is a CSV. Only CSV sources support
// re-reading with a shifted header offset during column resolution.
func (w *Workbook) IsCSV() bool {
	return w.Ext == ".csv"
}

// Load reads a tabular file into a Workbook. Unreadable files are a hard
// error; the run controller treats them as fatal.
func Load(path string) (*Workbook, error) {
	ext := strings.ToLower(filepath.Ext(path))

	wb := &Workbook{Path: path, Ext: ext}

	if ext == ".csv" {
		rows, err := readCSV(path, 0)
		if err != nil {
			return nil, err
		}
		wb.Tables = []RawTable{{Name: "Sheet1", Rows: rows}}
		return wb, nil
	}

	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "tabular: open workbook %s", path)
	}

	for _, sheet := range f.Sheets {
		wb.Tables = append(wb.Tables, RawTable{
			Name: sheet.Name,
			Rows: sheetToRows(sheet),
		})
	}

	return wb, nil
}

// ReadCSVSkipping re-reads a CSV file discarding the first skip rows. Used
// by column resolution recovery when the header is not on row 0.
func ReadCSVSkipping(path string, skip int) ([][]string, error) {
	return readCSV(path, skip)
}

func readCSV(path string, skip int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "tabular: open csv %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // allow variable fields
	reader.LazyQuotes = true

	var rows [][]string
	for i := 0; ; i++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "tabular: read csv row")
		}
		if i < skip {
			continue
		}
		rows = append(rows, record)
	}

	return rows, nil
}

func sheetToRows(sheet *xlsx.Sheet) [][]string {
	rows := make([][]string, len(sheet.Rows))
	for i, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		rows[i] = cells
	}
	return rows
}
