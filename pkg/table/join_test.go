package table

import "testing"

func mustTable(t *testing.T, cols []string, rows ...[]string) *Table {
	t.Helper()
	tbl, err := New(cols)
	if err != nil {
		t.Fatalf("failed to build table: %v", err)
	}
	for _, row := range rows {
		tbl.AppendRow(row)
	}
	return tbl
}

func TestLeftJoinKeepsEveryBaseRow(t *testing.T) {
	clinical := mustTable(t, []string{"PATIENT_ID", "age"},
		[]string{"A", "51"},
		[]string{"B", "63"},
		[]string{"C", "47"},
	)
	genomic := mustTable(t, []string{"PATIENT_ID", "esr1_expression"},
		[]string{"B", "1.2"},
		[]string{"C", "-0.4"},
		[]string{"D", "2.1"},
	)

	joined, err := LeftJoin(clinical, genomic, "PATIENT_ID", "_genom")
	if err != nil {
		t.Fatalf("unexpected join error: %v", err)
	}

	if joined.NumRows() != clinical.NumRows() {
		t.Fatalf("left-join identity broken: got %d rows, want %d", joined.NumRows(), clinical.NumRows())
	}

	ids, err := joined.Column("PATIENT_ID")
	if err != nil {
		t.Fatalf("missing key column: %v", err)
	}
	for _, id := range ids {
		if id == "D" {
			t.Fatal("patient D is absent from the clinical base and must not create a row")
		}
	}

	// B and C get genomic values, A stays null.
	if v, _ := joined.Cell(1, "esr1_expression"); v != "1.2" {
		t.Fatalf("expected B to carry genomic value, got %q", v)
	}
	if v, _ := joined.Cell(2, "esr1_expression"); v != "-0.4" {
		t.Fatalf("expected C to carry genomic value, got %q", v)
	}
	if v, _ := joined.Cell(0, "esr1_expression"); !Missing(v) {
		t.Fatalf("expected A's genomic cell to be null, got %q", v)
	}
}

func TestLeftJoinSuffixesCollidingColumns(t *testing.T) {
	base := mustTable(t, []string{"PATIENT_ID", "tumor_size"},
		[]string{"A", "12"},
	)
	other := mustTable(t, []string{"PATIENT_ID", "tumor_size"},
		[]string{"A", "14"},
	)

	joined, err := LeftJoin(base, other, "PATIENT_ID", "_cell")
	if err != nil {
		t.Fatalf("unexpected join error: %v", err)
	}

	if !joined.HasColumn("tumor_size") || !joined.HasColumn("tumor_size_cell") {
		t.Fatalf("expected suffixed collision column, got %v", joined.Columns())
	}
	if v, _ := joined.Cell(0, "tumor_size"); v != "12" {
		t.Fatalf("base column overwritten: %q", v)
	}
	if v, _ := joined.Cell(0, "tumor_size_cell"); v != "14" {
		t.Fatalf("joined column lost: %q", v)
	}
}

func TestLeftJoinDropsMalformedKeysOnJoinedSide(t *testing.T) {
	base := mustTable(t, []string{"PATIENT_ID", "age"},
		[]string{"A", "51"},
	)
	other := mustTable(t, []string{"PATIENT_ID", "grade"},
		[]string{"", "3"},
		[]string{"NA", "2"},
		[]string{"A", "1"},
	)

	joined, err := LeftJoin(base, other, "PATIENT_ID", "_x")
	if err != nil {
		t.Fatalf("unexpected join error: %v", err)
	}
	if v, _ := joined.Cell(0, "grade"); v != "1" {
		t.Fatalf("expected null-keyed rows to be skipped in the lookup, got %q", v)
	}
}

func TestLeftJoinFirstMatchWins(t *testing.T) {
	base := mustTable(t, []string{"PATIENT_ID"},
		[]string{"A"},
	)
	other := mustTable(t, []string{"PATIENT_ID", "value"},
		[]string{"A", "first"},
		[]string{"A", "second"},
	)

	joined, err := LeftJoin(base, other, "PATIENT_ID", "_x")
	if err != nil {
		t.Fatalf("unexpected join error: %v", err)
	}
	if v, _ := joined.Cell(0, "value"); v != "first" {
		t.Fatalf("expected first match to win, got %q", v)
	}
}

func TestVStackUnionsColumns(t *testing.T) {
	a := mustTable(t, []string{"PATIENT_ID", "er_status"},
		[]string{"MB-0001", "Positive"},
	)
	b := mustTable(t, []string{"PATIENT_ID", "her2_status"},
		[]string{"TCGA-A2-0001", "Negative"},
	)

	stacked, err := VStack([]*Table{a, b})
	if err != nil {
		t.Fatalf("unexpected stack error: %v", err)
	}
	if stacked.NumRows() != 2 {
		t.Fatalf("expected 2 rows, got %d", stacked.NumRows())
	}
	if stacked.NumColumns() != 3 {
		t.Fatalf("expected union of 3 columns, got %v", stacked.Columns())
	}
	if v, _ := stacked.Cell(0, "her2_status"); !Missing(v) {
		t.Fatalf("expected missing her2 for first cohort, got %q", v)
	}
	if v, _ := stacked.Cell(1, "her2_status"); v != "Negative" {
		t.Fatalf("expected Negative, got %q", v)
	}
}
