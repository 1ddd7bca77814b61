package core

// convert.go makes cell coercion explicit at the Dataset boundary.
//
// Decoded workbooks hand us whatever the codec produced: strings, numbers,
// dates, or nothing at all for an absent cell. Everything past this file works
// on plain strings where "empty" means the empty string after trimming.

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NormalizeCell converts a decoded cell value to its string form.
// nil becomes "", times are rendered as yyyy-mm-dd, floats without a
// fractional part drop the trailing ".0".
func NormalizeCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format(DateLayout)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		if t {
			return "TRUE"
		}
		return "FALSE"
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// NormalizeRows returns a deep copy of rows with nil rows replaced by empty
// ones. Cell content is preserved exactly; trimming happens at comparison time
// so pass-through sheets stay byte-for-byte identical.
func NormalizeRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		cp := make([]string, len(row))
		copy(cp, row)
		out[i] = cp
	}
	return out
}

// cellAt returns row[idx], or "" when the row is shorter than idx.
func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// trimmedCell is cellAt with surrounding whitespace removed.
func trimmedCell(row []string, idx int) string {
	return strings.TrimSpace(cellAt(row, idx))
}

// padRow copies row and extends it with empty cells up to width.
func padRow(row []string, width int) []string {
	n := len(row)
	if n < width {
		n = width
	}
	out := make([]string, n)
	copy(out, row)
	return out
}
