package tabular

import (
	"encoding/csv"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Write writes a header and rows to path, choosing CSV or XLSX from the
// extension. The file is written whole in one call so a consumer never sees
// a half-finished output.
func Write(path string, header []string, rows [][]string) error {
	if strings.HasSuffix(strings.ToLower(path), ".csv") {
		return writeCSV(path, header, rows)
	}
	return writeXLSX(path, header, rows)
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "tabular: create %s", path)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return eris.Wrap(err, "tabular: write header")
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			_ = f.Close()
			return eris.Wrap(err, "tabular: write row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return eris.Wrap(err, "tabular: flush csv")
	}

	return eris.Wrap(f.Close(), "tabular: close csv")
}

func writeXLSX(path string, header []string, rows [][]string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	if err != nil {
		return eris.Wrap(err, "tabular: add sheet")
	}

	writeRow := func(cells []string) {
		row := sheet.AddRow()
		for _, c := range cells {
			row.AddCell().Value = c
		}
	}

	writeRow(header)
	for _, r := range rows {
		writeRow(r)
	}

	return eris.Wrapf(f.Save(path), "tabular: save %s", path)
}
