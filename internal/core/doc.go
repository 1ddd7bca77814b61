// Package core provides the reconciliation engine for payor agreement workbooks.
//
// Two workbooks go in: an old, complete snapshot and a new, partial one that
// holds only the records whose SURCHARGEMULTIPLIER changed. A changes-only
// workbook comes out in which every changed record appears twice: the old row
// closed with ACTIVETO set to the comparison date and the new row opened with
// ACTIVEFROM set to the same date.
//
// # Pipeline
//
//	decode (workbook) -> Dataset x2 -> Comparator -> ChangeSet -> Compose -> Dataset -> encode (workbook)
//
// The stages pass values explicitly; nothing is held in package state.
//
//   - [ResolveColumn] finds a header cell by upper-cased, trimmed substring match.
//   - [KeyStrategy] picks the two key columns for a sheet from its name.
//     [DefaultKeyStrategy] knows GroupSurcharge and ItemSurcharge sheets.
//   - [BuildIndex] maps [CompositeKey] to the old sheet's rows under a
//     [DuplicatePolicy].
//   - [Comparator.Compare] classifies each keyed new row as not found,
//     unchanged or changed and returns a [ChangeSet].
//   - [Compose] renders the export dataset.
//
// # Skips versus errors
//
// A sheet that cannot be compared (missing on one side, too few rows, no
// tracked column, no key rule, key columns not in the header) is skipped and
// left out of ChangeSet.SheetsCompared. A row with a blank key is skipped and
// counted nowhere. Neither is an error.
//
// Errors are reserved for caller mistakes and unreadable input:
// [ErrDatasetMissing], [ErrNoChanges], [ErrUnreadableWorkbook] and, under
// [RejectDuplicates], [ErrDuplicateKey]. [MapError] turns any of them into a
// coded [UserMessage].
//
// # Service
//
// [Service] wraps the pipeline for long-running callers: it bounds concurrent
// comparisons with a [ComparisonLimiter], keeps each [Run] for export until it
// expires, and records a [RunSummary] in a [HistoryStore].
package core
