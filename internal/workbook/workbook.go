// Package workbook reads and writes .xlsx containers as core datasets.
package workbook

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/JonMunkholm/payorsync/internal/core"
	"github.com/xuri/excelize/v2"
)

// builtinDateFormats are the spreadsheet built-in number formats that render
// a serial number as a date or date-time.
var builtinDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 22: true,
	27: true, 30: true, 36: true, 50: true, 57: true,
}

// Codec implements core.Codec with excelize.
type Codec struct{}

// New returns a Codec.
func New() *Codec {
	return &Codec{}
}

// Decode reads every sheet in container order. Cells come back as their
// display strings, except date-formatted cells which are rendered yyyy-mm-dd.
// Any failure wraps core.ErrUnreadableWorkbook.
func (c *Codec) Decode(r io.Reader) (*core.Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrUnreadableWorkbook, err)
	}
	defer f.Close()

	ds := core.NewDataset()
	dates := &dateStyles{f: f, known: make(map[int]bool)}

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %q: %v", core.ErrUnreadableWorkbook, name, err)
		}
		if err := dates.normalize(name, rows); err != nil {
			return nil, fmt.Errorf("%w: sheet %q: %v", core.ErrUnreadableWorkbook, name, err)
		}
		ds.AddSheet(name, rows)
	}

	return ds, nil
}

// DecodeBytes is Decode over an in-memory file.
func (c *Codec) DecodeBytes(data []byte) (*core.Dataset, error) {
	return c.Decode(bytes.NewReader(data))
}

// Encode writes the dataset's sheets in order. Cells are written as strings.
// Failures wrap core.ErrWorkbookWrite.
func (c *Codec) Encode(ds *core.Dataset) ([]byte, error) {
	if ds == nil || len(ds.SheetNames) == 0 {
		return nil, fmt.Errorf("%w: dataset has no sheets", core.ErrWorkbookWrite)
	}

	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	for i, name := range ds.SheetNames {
		if err := addSheet(f, i, defaultSheet, name); err != nil {
			return nil, fmt.Errorf("%w: sheet %q: %v", core.ErrWorkbookWrite, name, err)
		}
		if err := writeSheet(f, name, ds.Sheet(name)); err != nil {
			return nil, fmt.Errorf("%w: sheet %q: %v", core.ErrWorkbookWrite, name, err)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrWorkbookWrite, err)
	}
	return buf.Bytes(), nil
}

// addSheet renames the new file's default sheet for the first dataset sheet
// and creates the rest.
func addSheet(f *excelize.File, pos int, defaultSheet, name string) error {
	if pos > 0 {
		_, err := f.NewSheet(name)
		return err
	}
	if name == defaultSheet {
		return nil
	}
	return f.SetSheetName(defaultSheet, name)
}

// writeSheet streams rows into an existing sheet.
func writeSheet(f *excelize.File, name string, sheet *core.Sheet) error {
	if sheet == nil || len(sheet.Rows) == 0 {
		return nil
	}

	sw, err := f.NewStreamWriter(name)
	if err != nil {
		return err
	}

	for i, row := range sheet.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := sw.SetRow(cell, values); err != nil {
			return err
		}
	}

	return sw.Flush()
}

// dateStyles rewrites date-formatted numeric cells to yyyy-mm-dd. Style
// lookups are cached per style id.
type dateStyles struct {
	f     *excelize.File
	known map[int]bool
}

func (d *dateStyles) normalize(sheet string, rows [][]string) error {
	for r, row := range rows {
		for c, v := range row {
			if v == "" {
				continue
			}
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			isDate, err := d.isDateCell(sheet, axis)
			if err != nil {
				return err
			}
			if !isDate {
				continue
			}
			raw, err := d.f.GetCellValue(sheet, axis, excelize.Options{RawCellValue: true})
			if err != nil {
				return err
			}
			serial, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				// Text in a date-styled cell stays as displayed.
				continue
			}
			t, err := excelize.ExcelDateToTime(serial, false)
			if err != nil {
				continue
			}
			row[c] = core.NormalizeCell(t)
		}
	}
	return nil
}

func (d *dateStyles) isDateCell(sheet, axis string) (bool, error) {
	styleID, err := d.f.GetCellStyle(sheet, axis)
	if err != nil {
		return false, err
	}
	if isDate, ok := d.known[styleID]; ok {
		return isDate, nil
	}

	style, err := d.f.GetStyle(styleID)
	if err != nil {
		return false, err
	}
	isDate := isDateStyle(style)
	d.known[styleID] = isDate
	return isDate, nil
}

// isDateStyle reports whether a cell style renders numbers as dates.
func isDateStyle(style *excelize.Style) bool {
	if style == nil {
		return false
	}
	if style.CustomNumFmt != nil {
		return isDateFormatCode(*style.CustomNumFmt)
	}
	return builtinDateFormats[style.NumFmt]
}

// isDateFormatCode reports whether a custom number format shows a day or a
// year. Quoted literals and bracketed sections are ignored.
func isDateFormatCode(code string) bool {
	var inQuote, inBracket bool
	for _, r := range strings.ToLower(code) {
		switch {
		case r == '"':
			inQuote = !inQuote
		case inQuote:
		case r == '[':
			inBracket = true
		case r == ']':
			inBracket = false
		case inBracket:
		case r == 'd' || r == 'y':
			return true
		}
	}
	return false
}
