package core

import "errors"

// Named failure conditions. Structural and row-level skips are never errors;
// these are the cases a caller must handle.
var (
	// ErrDatasetMissing is returned by Compare when either dataset is nil.
	ErrDatasetMissing = errors.New("comparison requires both old and new datasets")

	// ErrNoChanges is returned by Compose when the change set is empty.
	ErrNoChanges = errors.New("no price changes detected, nothing to export")

	// ErrUnreadableWorkbook wraps any decode failure from the workbook codec.
	ErrUnreadableWorkbook = errors.New("unreadable workbook")

	// ErrWorkbookWrite wraps any encode failure from the workbook codec.
	ErrWorkbookWrite = errors.New("workbook write failed")

	// ErrDuplicateKey is returned by BuildIndex under RejectDuplicates.
	ErrDuplicateKey = errors.New("duplicate composite key")

	// ErrRunNotFound is returned when a comparison run id is unknown or expired.
	ErrRunNotFound = errors.New("comparison run not found")

	// ErrFileTooLarge is returned when an uploaded workbook exceeds the limit.
	ErrFileTooLarge = errors.New("file too large")
)
