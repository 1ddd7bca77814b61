package core

// Compose builds the changes-only export from the old dataset and a ChangeSet.
//
// Sheets are emitted in the old dataset's order. A sheet that was not
// compared, or was compared but has no changes, is copied unchanged. A sheet
// with changes is replaced by its header (with ACTIVETO and ACTIVEFROM added
// when missing), then every superseded old row stamped ACTIVETO=date, then
// every superseding new row stamped ACTIVEFROM=date, both in detection order.
//
// Compose only reads cs and old; the returned dataset shares no row slices
// with either.
func Compose(old *Dataset, cs *ChangeSet) (*Dataset, error) {
	if old == nil || len(old.SheetNames) == 0 {
		return nil, ErrDatasetMissing
	}
	if !cs.HasChanges() {
		return nil, ErrNoChanges
	}

	bySheet := cs.ChangesBySheet()
	out := NewDataset()

	for _, name := range old.SheetNames {
		sheet := old.Sheet(name)
		if sheet == nil {
			continue
		}

		changes := bySheet[name]
		if !cs.Compared(name) || len(changes) == 0 {
			out.AddSheet(name, sheet.Rows)
			continue
		}

		out.AddSheet(name, composeChangedSheet(sheet.Header(), changes, cs.ComparisonDate))
	}

	return out, nil
}

// validityColumns returns the output header and the positions of ACTIVETO and
// ACTIVEFROM, appending either column when the header lacks it.
func validityColumns(header []string) (out []string, toCol, fromCol int) {
	out = make([]string, len(header))
	copy(out, header)

	toCol, ok := ResolveColumn(out, ColActiveTo)
	if !ok {
		out = append(out, ColActiveTo)
		toCol = len(out) - 1
	}
	fromCol, ok = ResolveColumn(out, ColActiveFrom)
	if !ok {
		out = append(out, ColActiveFrom)
		fromCol = len(out) - 1
	}
	return out, toCol, fromCol
}

// composeChangedSheet renders the header, the superseded rows and the
// superseding rows for one sheet.
func composeChangedSheet(header []string, changes []ChangeRecord, date string) [][]string {
	outHeader, toCol, fromCol := validityColumns(header)
	width := len(outHeader)

	rows := make([][]string, 0, 1+2*len(changes))
	rows = append(rows, outHeader)

	for _, c := range changes {
		row := padRow(c.OldRow, width)
		row[toCol] = date
		row[fromCol] = ""
		rows = append(rows, row)
	}
	for _, c := range changes {
		row := padRow(c.NewRow, width)
		row[toCol] = ""
		row[fromCol] = date
		rows = append(rows, row)
	}

	return rows
}
