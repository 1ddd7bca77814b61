package core

import (
	"fmt"
	"strings"
)

// DuplicatePolicy decides what RecordIndex does when two rows share a key.
type DuplicatePolicy string

const (
	// LastWins keeps the later row. This is the default.
	LastWins DuplicatePolicy = "last"
	// FirstWins keeps the earlier row.
	FirstWins DuplicatePolicy = "first"
	// RejectDuplicates fails the build with ErrDuplicateKey.
	RejectDuplicates DuplicatePolicy = "reject"
)

// ParseDuplicatePolicy accepts "last", "first" or "reject" (case-insensitive).
// The empty string selects LastWins.
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "last":
		return LastWins, nil
	case "first":
		return FirstWins, nil
	case "reject":
		return RejectDuplicates, nil
	default:
		return "", fmt.Errorf("invalid duplicate policy %q: must be one of last, first, reject", s)
	}
}

// ColumnSet holds the resolved column positions used to index a sheet.
type ColumnSet struct {
	Key1  int
	Key2  int
	Value int
}

// keyOf builds the composite key for row. ok is false if either key cell is
// blank after trimming.
func (c ColumnSet) keyOf(row []string) (CompositeKey, bool) {
	k1 := trimmedCell(row, c.Key1)
	k2 := trimmedCell(row, c.Key2)
	if k1 == "" || k2 == "" {
		return CompositeKey{}, false
	}
	return CompositeKey{Key1: k1, Key2: k2}, true
}

// RecordIndex maps composite keys to rows from one sheet. Keys are matched
// case-insensitively; IndexedRecord.Key keeps the cell text as written.
type RecordIndex struct {
	records map[CompositeKey]IndexedRecord
}

// BuildIndex indexes every data row of sheet whose key cells are non-blank.
func BuildIndex(sheet *Sheet, cols ColumnSet, policy DuplicatePolicy) (*RecordIndex, error) {
	idx := &RecordIndex{records: make(map[CompositeKey]IndexedRecord)}
	if sheet == nil {
		return idx, nil
	}

	for i := 1; i < len(sheet.Rows); i++ {
		row := sheet.Rows[i]
		key, ok := cols.keyOf(row)
		if !ok {
			continue
		}

		slot := key.fold()
		if prev, exists := idx.records[slot]; exists {
			switch policy {
			case FirstWins:
				continue
			case RejectDuplicates:
				return nil, fmt.Errorf("%w: sheet %q key %s at rows %d and %d",
					ErrDuplicateKey, sheet.Name, key, prev.RowIndex, i)
			}
		}

		idx.records[slot] = IndexedRecord{
			Key:          key,
			RowIndex:     i,
			Row:          row,
			TrackedValue: trimmedCell(row, cols.Value),
		}
	}

	return idx, nil
}

// Lookup returns the record for key.
func (x *RecordIndex) Lookup(key CompositeKey) (IndexedRecord, bool) {
	rec, ok := x.records[key.fold()]
	return rec, ok
}

// Len returns the number of indexed records.
func (x *RecordIndex) Len() int {
	return len(x.records)
}
