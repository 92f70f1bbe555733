// Package sheet reads spreadsheet uploads and normalizes their rows for import.
package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/dlo137/garment-tracker/internal/errs"
)

// Format is a supported upload format.
type Format int

const (
	FormatUnknown Format = iota
	FormatXLSX
	FormatXLS
	FormatCSV
)

func (f Format) String() string {
	switch f {
	case FormatXLSX:
		return "xlsx"
	case FormatXLS:
		return "xls"
	case FormatCSV:
		return "csv"
	default:
		return "unknown"
	}
}

// DetectFormat maps a file name to a Format by extension.
func DetectFormat(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	case ".xls":
		return FormatXLS
	case ".csv":
		return FormatCSV
	default:
		return FormatUnknown
	}
}

// Read parses the first sheet of r into records keyed by the normalized
// header row. The format is chosen from filename and checked before r is touched.
func Read(filename string, r io.Reader) ([]map[string]string, error) {
	format := DetectFormat(filename)
	var (
		rows [][]string
		err  error
	)
	switch format {
	case FormatXLSX:
		rows, err = readWorkbook(r)
	case FormatXLS:
		rows, err = readXLS(r)
	case FormatCSV:
		rows, err = readCSV(r)
	default:
		return nil, fmt.Errorf("%q: %w", filepath.Ext(filename), errs.ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w: %w", format, filepath.Base(filename), errs.ErrMalformedFile, err)
	}
	return records(rows), nil
}

// readWorkbook reads the first sheet of an OOXML workbook with excelize.
func readWorkbook(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name := f.GetSheetName(0)
	if name == "" {
		return nil, errors.New("workbook has no sheets")
	}
	return f.GetRows(name, excelize.Options{RawCellValue: true})
}

// xlsMaxCols is the BIFF8 column limit.
const xlsMaxCols = 256

// readXLS reads the first sheet of a legacy BIFF workbook. The decoder needs
// random access, so the upload is buffered.
func readXLS(r io.Reader) (rows [][]string, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	defer func() {
		if p := recover(); p != nil {
			rows, err = nil, fmt.Errorf("decoding workbook: %v", p)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	if wb == nil || wb.NumSheets() == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	ws := wb.GetSheet(0)
	if ws == nil {
		return nil, errors.New("workbook has no sheets")
	}

	for i := 0; i <= int(ws.MaxRow); i++ {
		rows = append(rows, xlsRow(ws, i))
	}
	return rows, nil
}

// xlsRow returns the cells of row i with trailing blanks trimmed. Rows the
// sheet never stored come back empty.
func xlsRow(ws *xls.WorkSheet, i int) (cells []string) {
	defer func() {
		if recover() != nil {
			cells = nil
		}
	}()
	row := ws.Row(i)
	if row == nil {
		return nil
	}
	cells = make([]string, xlsMaxCols)
	for c := range cells {
		cells[c] = row.Col(c)
	}
	n := len(cells)
	for n > 0 && cells[n-1] == "" {
		n--
	}
	return cells[:n]
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

// records turns raw rows into maps keyed by NormalizeKey of the header. The
// first non-blank row is the header; blank rows are skipped; short rows are
// padded with "". When two columns normalize to the same key the leftmost
// non-blank value wins.
func records(rows [][]string) []map[string]string {
	var keys []string
	out := []map[string]string{}
	for _, row := range rows {
		if blank(row) {
			continue
		}
		if keys == nil {
			keys = make([]string, len(row))
			for i, h := range row {
				keys[i] = NormalizeKey(h)
			}
			continue
		}
		rec := make(map[string]string, len(keys))
		for i, k := range keys {
			if k == "" {
				continue
			}
			v := ""
			if i < len(row) {
				v = row[i]
			}
			if prev, dup := rec[k]; !dup || strings.TrimSpace(prev) == "" {
				rec[k] = v
			}
		}
		out = append(out, rec)
	}
	return out
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
