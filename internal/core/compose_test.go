package core

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func composeFixture(t *testing.T) (*Dataset, *ChangeSet) {
	t.Helper()
	oldDS := dataset(
		sheet("Notes", []string{"free text"}),
		sheet("GroupSurchargeDetail", groupHeader,
			[]string{"A1", "B1", "1.2"},
			[]string{"A2", "B2", "1.0"},
			[]string{"A3", "B3", "0.9"},
		),
		sheet("ItemSurcharge",
			[]string{"PAYORAGREECODE", "ORDERITEMCODE", "SURCHARGEMULTIPLIER"},
			[]string{"A1", "I1", "2"},
		),
		sheet("Empty"),
	)
	newDS := dataset(
		sheet("GroupSurchargeDetail", groupHeader,
			[]string{"A3", "B3", "1.1"},
			[]string{"A1", "B1", "1.5"},
			[]string{"A2", "B2", "1.0"},
		),
		sheet("ItemSurcharge",
			[]string{"PAYORAGREECODE", "ORDERITEMCODE", "SURCHARGEMULTIPLIER"},
			[]string{"A1", "I1", "2"},
		),
	)

	cs, err := quietComparator().Compare(context.Background(), oldDS, newDS)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	return oldDS, cs
}

func TestCompose_ChangedSheet(t *testing.T) {
	oldDS, cs := composeFixture(t)

	out, err := Compose(oldDS, cs)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	got := out.Sheet("GroupSurchargeDetail").Rows
	want := [][]string{
		{"PAYORAGREECODE", "BILLINGGROUPCODE", "SURCHARGEMULTIPLIER", "ACTIVETO", "ACTIVEFROM"},
		{"A3", "B3", "0.9", "2024-06-01", ""},
		{"A1", "B1", "1.2", "2024-06-01", ""},
		{"A3", "B3", "1.1", "", "2024-06-01"},
		{"A1", "B1", "1.5", "", "2024-06-01"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("changed sheet rows:\n got %v\nwant %v", got, want)
	}

	if n := len(got) - 1; n != cs.ExportRowCount() {
		t.Errorf("data rows = %d, ExportRowCount = %d", n, cs.ExportRowCount())
	}
}

func TestCompose_PassThrough(t *testing.T) {
	oldDS, cs := composeFixture(t)

	out, err := Compose(oldDS, cs)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	if !reflect.DeepEqual(out.SheetNames, oldDS.SheetNames) {
		t.Errorf("SheetNames = %v, want %v", out.SheetNames, oldDS.SheetNames)
	}

	// Not compared, compared without changes, and empty sheets are copied as-is.
	for _, name := range []string{"Notes", "ItemSurcharge", "Empty"} {
		if !reflect.DeepEqual(out.Sheet(name).Rows, oldDS.Sheet(name).Rows) {
			t.Errorf("%s: rows = %v, want %v", name, out.Sheet(name).Rows, oldDS.Sheet(name).Rows)
		}
	}

	out.Sheet("Notes").Rows[0][0] = "changed"
	if oldDS.Sheet("Notes").Rows[0][0] != "free text" {
		t.Error("Compose output shares rows with the old dataset")
	}
}

func TestCompose_ReusesValidityColumns(t *testing.T) {
	header := []string{"PAYORAGREECODE", "ACTIVEFROM", "BILLINGGROUPCODE", "SURCHARGEMULTIPLIER", "ActiveTo"}
	oldDS := dataset(sheet("GroupSurchargeDetail", header,
		[]string{"A1", "2023-01-01", "B1", "1.2", ""},
	))
	newDS := dataset(sheet("GroupSurchargeDetail", header,
		[]string{"A1", "2023-01-01", "B1", "1.4"},
	))

	cs, err := quietComparator().Compare(context.Background(), oldDS, newDS)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	out, err := Compose(oldDS, cs)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	want := [][]string{
		header,
		{"A1", "", "B1", "1.2", "2024-06-01"},
		{"A1", "2024-06-01", "B1", "1.4", ""},
	}
	if got := out.Sheet("GroupSurchargeDetail").Rows; !reflect.DeepEqual(got, want) {
		t.Errorf("rows:\n got %v\nwant %v", got, want)
	}
}

func TestCompose_PadsShortRows(t *testing.T) {
	oldDS := dataset(sheet("GroupSurchargeDetail",
		[]string{"PAYORAGREECODE", "BILLINGGROUPCODE", "SURCHARGEMULTIPLIER", "NOTE"},
		[]string{"A1", "B1", "1.2"},
	))
	newDS := dataset(sheet("GroupSurchargeDetail",
		[]string{"PAYORAGREECODE", "BILLINGGROUPCODE", "SURCHARGEMULTIPLIER", "NOTE"},
		[]string{"A1", "B1", "1.3", "raised"},
	))

	cs, err := quietComparator().Compare(context.Background(), oldDS, newDS)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	out, err := Compose(oldDS, cs)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	rows := out.Sheet("GroupSurchargeDetail").Rows
	for i, row := range rows {
		if len(row) != 6 {
			t.Errorf("row %d has %d cells, want 6: %v", i, len(row), row)
		}
	}
	if rows[1][3] != "" || rows[1][4] != "2024-06-01" {
		t.Errorf("old row = %v", rows[1])
	}
}

func TestCompose_Errors(t *testing.T) {
	oldDS, cs := composeFixture(t)

	if _, err := Compose(oldDS, &ChangeSet{ComparisonDate: "2024-06-01"}); !errors.Is(err, ErrNoChanges) {
		t.Errorf("empty change set: err = %v, want ErrNoChanges", err)
	}
	if _, err := Compose(oldDS, nil); !errors.Is(err, ErrNoChanges) {
		t.Errorf("nil change set: err = %v, want ErrNoChanges", err)
	}
	if _, err := Compose(nil, cs); !errors.Is(err, ErrDatasetMissing) {
		t.Errorf("nil dataset: err = %v, want ErrDatasetMissing", err)
	}
}

func TestCompose_DoesNotMutateChangeSet(t *testing.T) {
	oldDS, cs := composeFixture(t)
	before := NormalizeRows([][]string{cs.Changes[0].OldRow, cs.Changes[0].NewRow})

	if _, err := Compose(oldDS, cs); err != nil {
		t.Fatalf("Compose: %v", err)
	}

	after := [][]string{cs.Changes[0].OldRow, cs.Changes[0].NewRow}
	if !reflect.DeepEqual(before, after) {
		t.Errorf("Compose modified change rows: %v -> %v", before, after)
	}
}

func TestChangeSet_Grouping(t *testing.T) {
	cs := &ChangeSet{
		Summaries: map[string]SheetSummary{"G": {}, "I": {}},
		Changes: []ChangeRecord{
			{Sheet: "G", Key1: "1"},
			{Sheet: "I", Key1: "2"},
			{Sheet: "G", Key1: "3"},
		},
	}

	by := cs.ChangesBySheet()
	if len(by["G"]) != 2 || by["G"][0].Key1 != "1" || by["G"][1].Key1 != "3" {
		t.Errorf("G changes = %+v, want keys 1 then 3", by["G"])
	}
	if len(by["I"]) != 1 {
		t.Errorf("I changes = %+v", by["I"])
	}
	if !cs.Compared("I") || cs.Compared("X") {
		t.Error("Compared should follow Summaries")
	}

	var nilSet *ChangeSet
	if nilSet.HasChanges() || nilSet.ExportRowCount() != 0 || nilSet.Compared("G") {
		t.Error("nil ChangeSet should report nothing")
	}
}
