package core

import (
	"testing"
	"time"
)

// ----------------------------------------------------------------------------
// NormalizeCell Tests
// ----------------------------------------------------------------------------

type codeStringer string

func (s codeStringer) String() string { return "code:" + string(s) }

func TestNormalizeCell(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{name: "nil is empty", input: nil, want: ""},
		{name: "string unchanged", input: " 1.50 ", want: " 1.50 "},
		{name: "bytes", input: []byte("A1"), want: "A1"},
		{name: "whole float drops fraction", input: 2.0, want: "2"},
		{name: "float keeps digits", input: 1.25, want: "1.25"},
		{name: "float32", input: float32(0.5), want: "0.5"},
		{name: "int", input: 42, want: "42"},
		{name: "int64", input: int64(-7), want: "-7"},
		{name: "bool true", input: true, want: "TRUE"},
		{name: "bool false", input: false, want: "FALSE"},
		{name: "date", input: time.Date(2024, time.January, 31, 15, 4, 0, 0, time.UTC), want: "2024-01-31"},
		{name: "zero time is empty", input: time.Time{}, want: ""},
		{name: "stringer", input: codeStringer("x"), want: "code:x"},
		{name: "fallback", input: []int{1, 2}, want: "[1 2]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeCell(tt.input); got != tt.want {
				t.Errorf("NormalizeCell(%v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// Row helper Tests
// ----------------------------------------------------------------------------

func TestNormalizeRows_DeepCopy(t *testing.T) {
	in := [][]string{{"a", "b"}, nil, {"c"}}
	out := NormalizeRows(in)

	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}
	if out[1] == nil || len(out[1]) != 0 {
		t.Errorf("nil row = %#v, want empty non-nil slice", out[1])
	}

	out[0][0] = "changed"
	if in[0][0] != "a" {
		t.Error("NormalizeRows shares storage with its input")
	}
}

func TestCellAt(t *testing.T) {
	row := []string{" a ", "b"}

	if got := cellAt(row, 0); got != " a " {
		t.Errorf("cellAt(0) = %q", got)
	}
	if got := trimmedCell(row, 0); got != "a" {
		t.Errorf("trimmedCell(0) = %q", got)
	}
	if got := cellAt(row, 5); got != "" {
		t.Errorf("cellAt(5) = %q, want empty", got)
	}
	if got := cellAt(row, -1); got != "" {
		t.Errorf("cellAt(-1) = %q, want empty", got)
	}
}

func TestPadRow(t *testing.T) {
	row := []string{"a"}

	padded := padRow(row, 3)
	if len(padded) != 3 || padded[0] != "a" || padded[2] != "" {
		t.Errorf("padRow = %#v", padded)
	}

	padded[0] = "z"
	if row[0] != "a" {
		t.Error("padRow shares storage with its input")
	}

	if got := padRow([]string{"a", "b", "c"}, 2); len(got) != 3 {
		t.Errorf("padRow never truncates, got len %d", len(got))
	}
}
