package core

// compare.go matches the new (changes-only) workbook against the old
// (complete) one, sheet by sheet.
//
// For every sheet present in both workbooks, in the old workbook's order:
//
//  1. Both sides need a header and at least one data row.
//  2. The tracked column (SURCHARGEMULTIPLIER) must resolve in the old header.
//  3. The KeyStrategy must accept the sheet name and both key columns must
//     resolve in the old header.
//  4. The old sheet is indexed by composite key; every keyed row of the new
//     sheet is looked up and classified as not found, unchanged or changed.
//
// A sheet failing 1-3 is skipped and never appears in the ChangeSet. Rows with
// a blank key cell are skipped and count toward nothing.
//
// Sheets are independent. With WithParallelSheets each sheet is compared in
// its own goroutine into its own result slot, and the slots are merged in
// sheet order, so the ChangeSet is identical to a sequential run.

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Comparator compares two datasets. The zero value is not usable; use NewComparator.
type Comparator struct {
	keys     KeyStrategy
	tracked  string
	policy   DuplicatePolicy
	parallel int
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Comparator.
type Option func(*Comparator)

// WithKeyStrategy replaces the default surcharge key policy.
func WithKeyStrategy(ks KeyStrategy) Option {
	return func(c *Comparator) {
		if ks != nil {
			c.keys = ks
		}
	}
}

// WithTrackedColumn changes the column whose value change is detected.
func WithTrackedColumn(name string) Option {
	return func(c *Comparator) {
		if name != "" {
			c.tracked = name
		}
	}
}

// WithDuplicatePolicy sets how duplicate keys in the old sheet are handled.
func WithDuplicatePolicy(p DuplicatePolicy) Option {
	return func(c *Comparator) {
		if p != "" {
			c.policy = p
		}
	}
}

// WithParallelSheets compares up to n sheets concurrently. n <= 1 is sequential.
func WithParallelSheets(n int) Option {
	return func(c *Comparator) {
		c.parallel = n
	}
}

// WithClock overrides the source of the comparison date.
func WithClock(now func() time.Time) Option {
	return func(c *Comparator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger used for skipped sheets.
func WithLogger(l *slog.Logger) Option {
	return func(c *Comparator) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewComparator returns a Comparator with the surcharge defaults applied
// before opts.
func NewComparator(opts ...Option) *Comparator {
	c := &Comparator{
		keys:     DefaultKeyStrategy(),
		tracked:  ColTrackedValue,
		policy:   LastWins,
		parallel: 1,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CompareDatasets compares with the default configuration.
func CompareDatasets(ctx context.Context, oldDS, newDS *Dataset) (*ChangeSet, error) {
	return NewComparator().Compare(ctx, oldDS, newDS)
}

// sheetResult is one sheet's contribution to a ChangeSet.
type sheetResult struct {
	name     string
	compared bool
	summary  SheetSummary
	changes  []ChangeRecord
}

// Compare classifies every keyed row of newDS against oldDS.
// It returns ErrDatasetMissing if either dataset is nil or has no sheets.
func (c *Comparator) Compare(ctx context.Context, oldDS, newDS *Dataset) (*ChangeSet, error) {
	if oldDS == nil || newDS == nil || len(oldDS.SheetNames) == 0 || len(newDS.SheetNames) == 0 {
		return nil, ErrDatasetMissing
	}

	cs := &ChangeSet{
		ComparisonDate: comparisonDate(c.now()),
		SheetsCompared: []string{},
		Summaries:      make(map[string]SheetSummary),
		Changes:        []ChangeRecord{},
	}

	common := commonSheets(oldDS, newDS)
	results := make([]sheetResult, len(common))

	if c.parallel > 1 && len(common) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.parallel)
		for i, name := range common {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				res, err := c.compareSheet(name, oldDS.Sheet(name), newDS.Sheet(name))
				if err != nil {
					return err
				}
				results[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, name := range common {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			res, err := c.compareSheet(name, oldDS.Sheet(name), newDS.Sheet(name))
			if err != nil {
				return nil, err
			}
			results[i] = res
		}
	}

	for _, res := range results {
		if !res.compared {
			continue
		}
		cs.SheetsCompared = append(cs.SheetsCompared, res.name)
		cs.Summaries[res.name] = res.summary
		cs.Changes = append(cs.Changes, res.changes...)
	}

	return cs, nil
}

// commonSheets returns the sheet names present in both datasets, in the old
// dataset's order.
func commonSheets(oldDS, newDS *Dataset) []string {
	var names []string
	for _, name := range oldDS.SheetNames {
		if newDS.Has(name) && oldDS.Has(name) {
			names = append(names, name)
		}
	}
	return names
}

// compareSheet compares one sheet. A skipped sheet returns compared == false
// and a nil error; only a RejectDuplicates violation is an error.
func (c *Comparator) compareSheet(name string, oldSheet, newSheet *Sheet) (sheetResult, error) {
	res := sheetResult{name: name}
	log := c.logger.With("sheet", name)

	if len(oldSheet.Rows) < 2 || len(newSheet.Rows) < 2 {
		log.Debug("sheet skipped: needs a header and at least one data row",
			"old_rows", len(oldSheet.Rows), "new_rows", len(newSheet.Rows))
		return res, nil
	}

	header := oldSheet.Header()
	valueCol, ok := ResolveColumn(header, c.tracked)
	if !ok {
		// A surcharge sheet without the tracked column is structurally broken;
		// any other sheet is simply out of scope.
		if _, supported := c.keys.SelectKeys(name); supported {
			log.Warn("sheet skipped: tracked column not found", "column", c.tracked)
		} else {
			log.Debug("sheet skipped: tracked column not found", "column", c.tracked)
		}
		return res, nil
	}

	keys, ok := c.keys.SelectKeys(name)
	if !ok {
		log.Debug("sheet skipped: no key rule for sheet name")
		return res, nil
	}

	key1Col, ok1 := ResolveColumn(header, keys.Key1)
	key2Col, ok2 := ResolveColumn(header, keys.Key2)
	if !ok1 || !ok2 {
		log.Warn("sheet skipped: required key columns not found",
			"key1", keys.Key1, "key1_found", ok1,
			"key2", keys.Key2, "key2_found", ok2)
		return res, nil
	}

	cols := ColumnSet{Key1: key1Col, Key2: key2Col, Value: valueCol}
	index, err := BuildIndex(oldSheet, cols, c.policy)
	if err != nil {
		return res, fmt.Errorf("index old sheet: %w", err)
	}

	res.compared = true
	res.summary.Total = len(newSheet.Rows) - 1

	for i := 1; i < len(newSheet.Rows); i++ {
		newRow := newSheet.Rows[i]
		key, ok := cols.keyOf(newRow)
		if !ok {
			continue
		}

		oldRec, found := index.Lookup(key)
		if !found {
			res.summary.NotFound++
			continue
		}
		res.summary.Found++

		newValue := trimmedCell(newRow, valueCol)
		if strings.EqualFold(oldRec.TrackedValue, newValue) {
			res.summary.Unchanged++
			continue
		}

		res.summary.Changed++
		res.changes = append(res.changes, ChangeRecord{
			Sheet:        name,
			Key1Name:     keys.Key1,
			Key2Name:     keys.Key2,
			Key1:         cellAt(newRow, key1Col),
			Key2:         cellAt(newRow, key2Col),
			Header:       header,
			OldRow:       oldRec.Row,
			NewRow:       newRow,
			OldSurcharge: oldRec.TrackedValue,
			NewSurcharge: newValue,
			OldRowIndex:  oldRec.RowIndex,
			NewRowIndex:  i,
		})
	}

	log.Debug("sheet compared",
		"total", res.summary.Total,
		"found", res.summary.Found,
		"not_found", res.summary.NotFound,
		"changed", res.summary.Changed,
	)

	return res, nil
}
