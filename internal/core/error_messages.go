// Error Codes Reference
//
// This file maps technical errors to user-friendly messages with codes for
// support reference. Codes are grouped by category:
//
// # Workbook Errors (WB001-WB099)
//
//	WB001 - Unreadable workbook: the file could not be read as a spreadsheet
//	        Action: Save the file as .xlsx and upload it again
//	        Matches: ErrUnreadableWorkbook
//
//	WB002 - Write failure: the export workbook could not be produced
//	        Action: Please try again or contact support
//	        Matches: ErrWorkbookWrite
//
// # Comparison Errors (CMP001-CMP099)
//
//	CMP001 - Missing file: both the old and the new workbook are required
//	         Action: Upload the complete old file and the changes-only new file
//	         Matches: ErrDatasetMissing
//
//	CMP002 - No changes: no SURCHARGEMULTIPLIER value differs
//	         Action: Nothing to export; check that the new file holds the updated prices
//	         Matches: ErrNoChanges
//
//	CMP003 - Duplicate key: a key appears on more than one row of the old file
//	         Action: Remove duplicate rows or switch the duplicate policy
//	         Matches: ErrDuplicateKey
//
// # Run Errors (RUN001-RUN099)
//
//	RUN001 - Run not found: the comparison expired or never existed
//	         Action: Run the comparison again
//	         Matches: ErrRunNotFound
//
// # File and Upload Errors
//
//	FILE001 - File too large         Matches: ErrFileTooLarge, "file too large"
//	FILE004 - No file provided       Matches: "no file provided"
//	UPL002  - System busy            Matches: ErrTooManyComparisons
//	UPL004  - Request cancelled      Matches: context.Canceled
//	UPL005  - Request timeout        Matches: context.DeadlineExceeded
//	RATE001 - Rate limited           Matches: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the application log for the original
// technical error.
//
// # Matching
//
// Sentinel errors are matched with errors.Is first, so wrapped errors resolve
// to their sentinel's code. Errors from outside this package fall back to
// case-insensitive substring patterns; the first match wins.

package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// sentinelMessage pairs a sentinel error with its user message.
type sentinelMessage struct {
	err error
	msg UserMessage
}

// errorPattern defines a substring to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var sentinelMessages = []sentinelMessage{
	{
		err: ErrUnreadableWorkbook,
		msg: UserMessage{
			Message: "The file could not be read as a spreadsheet",
			Action:  "Save the file as .xlsx and upload it again",
			Code:    "WB001",
		},
	},
	{
		err: ErrWorkbookWrite,
		msg: UserMessage{
			Message: "The export workbook could not be produced",
			Action:  "Please try again or contact support",
			Code:    "WB002",
		},
	},
	{
		err: ErrDatasetMissing,
		msg: UserMessage{
			Message: "Both the old and the new workbook are required",
			Action:  "Upload the complete old file and the changes-only new file",
			Code:    "CMP001",
		},
	},
	{
		err: ErrNoChanges,
		msg: UserMessage{
			Message: "No price changes detected",
			Action:  "Nothing to export; check that the new file holds the updated prices",
			Code:    "CMP002",
		},
	},
	{
		err: ErrDuplicateKey,
		msg: UserMessage{
			Message: "A record key appears more than once in the old file",
			Action:  "Remove duplicate rows or switch the duplicate policy",
			Code:    "CMP003",
		},
	},
	{
		err: ErrRunNotFound,
		msg: UserMessage{
			Message: "Comparison not found",
			Action:  "The comparison may have expired. Please run it again",
			Code:    "RUN001",
		},
	},
	{
		err: ErrFileTooLarge,
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Remove unused sheets or split the workbook",
			Code:    "FILE001",
		},
	},
	{
		err: ErrTooManyComparisons,
		msg: UserMessage{
			Message: "Too many comparisons in progress",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		err: context.Canceled,
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		err: context.DeadlineExceeded,
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL005",
		},
	},
}

// errorPatterns catch errors that did not come through a sentinel, such as
// messages produced by the HTTP layer.
var errorPatterns = []errorPattern{
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Remove unused sheets or split the workbook",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select both workbooks to compare",
			Code:    "FILE004",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	err := fmt.Errorf("decode old file: %w", ErrUnreadableWorkbook)
//	msg := MapError(err)
//	// msg.Code == "WB001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
