package core

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar date format used for comparison dates and for
// the ACTIVETO / ACTIVEFROM validity columns.
const DateLayout = "2006-01-02"

// Sheet is one named grid of string cells. Rows[0] is the header.
type Sheet struct {
	Name string
	Rows [][]string
}

// Header returns the header row, or nil for an empty sheet.
func (s *Sheet) Header() []string {
	if s == nil || len(s.Rows) == 0 {
		return nil
	}
	return s.Rows[0]
}

// DataRows returns the rows after the header.
func (s *Sheet) DataRows() [][]string {
	if s == nil || len(s.Rows) < 2 {
		return nil
	}
	return s.Rows[1:]
}

// Dataset is a decoded workbook: sheets keyed by name plus the order in which
// they appeared in the container.
type Dataset struct {
	SheetNames []string
	Sheets     map[string]*Sheet
}

// NewDataset returns an empty dataset ready for AddSheet.
func NewDataset() *Dataset {
	return &Dataset{Sheets: make(map[string]*Sheet)}
}

// AddSheet appends a sheet, normalizing every cell. A sheet with a name
// already present replaces the earlier one but keeps its position.
func (d *Dataset) AddSheet(name string, rows [][]string) {
	if d.Sheets == nil {
		d.Sheets = make(map[string]*Sheet)
	}
	if _, exists := d.Sheets[name]; !exists {
		d.SheetNames = append(d.SheetNames, name)
	}
	d.Sheets[name] = &Sheet{Name: name, Rows: NormalizeRows(rows)}
}

// Sheet returns the named sheet, or nil.
func (d *Dataset) Sheet(name string) *Sheet {
	if d == nil {
		return nil
	}
	return d.Sheets[name]
}

// Has reports whether the dataset contains the named sheet.
func (d *Dataset) Has(name string) bool {
	return d.Sheet(name) != nil
}

// CompositeKey identifies a record by its two trimmed key-column values.
// It is comparable and used directly as a map key.
type CompositeKey struct {
	Key1 string
	Key2 string
}

// fold returns the form used for index lookups.
func (k CompositeKey) fold() CompositeKey {
	return CompositeKey{Key1: strings.ToUpper(k.Key1), Key2: strings.ToUpper(k.Key2)}
}

// String renders the key in its display form, "key1|key2".
func (k CompositeKey) String() string {
	return k.Key1 + "|" + k.Key2
}

// IndexedRecord is a data row from the old dataset with its resolved key.
type IndexedRecord struct {
	Key          CompositeKey
	RowIndex     int // position within Sheet.Rows (header is 0)
	Row          []string
	TrackedValue string // trimmed value of the tracked column
}

// ChangeRecord is one detected change of the tracked attribute.
type ChangeRecord struct {
	Sheet        string   `json:"sheet"`
	Key1Name     string   `json:"key1Name"`
	Key2Name     string   `json:"key2Name"`
	Key1         string   `json:"key1"`
	Key2         string   `json:"key2"`
	Header       []string `json:"header"`
	OldRow       []string `json:"oldRow"`
	NewRow       []string `json:"newRow"`
	OldSurcharge string   `json:"oldSurcharge"`
	NewSurcharge string   `json:"newSurcharge"`
	OldRowIndex  int      `json:"oldRowIndex"`
	NewRowIndex  int      `json:"newRowIndex"`
}

// Describe returns a one-line summary, e.g. "PAYORAGREECODE=A1 | BILLINGGROUPCODE=B1: 1.2 -> 1.5".
func (c ChangeRecord) Describe() string {
	return fmt.Sprintf("%s=%s | %s=%s: %s -> %s",
		c.Key1Name, c.Key1, c.Key2Name, c.Key2, c.OldSurcharge, c.NewSurcharge)
}

// SheetSummary holds per-sheet counters.
// Invariants: Found+NotFound == Total, Changed+Unchanged == Found.
type SheetSummary struct {
	Total     int `json:"total"`
	Found     int `json:"found"`
	NotFound  int `json:"notFound"`
	Changed   int `json:"changed"`
	Unchanged int `json:"unchanged"`
}

// ChangeSet is the result of one comparison run. It is never mutated after
// Compare returns.
type ChangeSet struct {
	ComparisonDate string                  `json:"comparisonDate"`
	SheetsCompared []string                `json:"sheetsCompared"`
	Summaries      map[string]SheetSummary `json:"summaries"`
	Changes        []ChangeRecord          `json:"changes"`
}

// HasChanges reports whether at least one change was detected.
func (cs *ChangeSet) HasChanges() bool {
	return cs != nil && len(cs.Changes) > 0
}

// ExportRowCount is the number of data rows an export will contain:
// one superseded and one superseding row per change.
func (cs *ChangeSet) ExportRowCount() int {
	if cs == nil {
		return 0
	}
	return 2 * len(cs.Changes)
}

// Compared reports whether the named sheet took part in the comparison.
func (cs *ChangeSet) Compared(sheet string) bool {
	if cs == nil {
		return false
	}
	_, ok := cs.Summaries[sheet]
	return ok
}

// ChangesBySheet groups changes by sheet, keeping detection order.
func (cs *ChangeSet) ChangesBySheet() map[string][]ChangeRecord {
	out := make(map[string][]ChangeRecord)
	if cs == nil {
		return out
	}
	for _, c := range cs.Changes {
		out[c.Sheet] = append(out[c.Sheet], c)
	}
	return out
}

// comparisonDate formats t as the UTC calendar date.
func comparisonDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
