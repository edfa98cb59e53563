package table

import (
	"path/filepath"
	"testing"
)

func TestMissingMarkers(t *testing.T) {
	cases := map[string]bool{
		"":         true,
		"  ":       true,
		"NA":       true,
		"NaN":      true,
		"null":     true,
		"None":     true,
		"0":        false,
		"Negative": false,
	}
	for cell, want := range cases {
		if got := Missing(cell); got != want {
			t.Fatalf("Missing(%q) = %v, want %v", cell, got, want)
		}
	}
}

func TestNewRejectsDuplicateColumns(t *testing.T) {
	if _, err := New([]string{"a", "b", "a"}); err == nil {
		t.Fatal("expected duplicate column error")
	}
}

func TestAppendRowPadsRaggedRows(t *testing.T) {
	tbl := mustTable(t, []string{"a", "b", "c"})
	tbl.AppendRow([]string{"1"})
	tbl.AppendRow([]string{"1", "2", "3", "4"})

	if v, _ := tbl.Cell(0, "c"); v != "" {
		t.Fatalf("short row not padded: %q", v)
	}
	if v, _ := tbl.Cell(1, "c"); v != "3" {
		t.Fatalf("long row not truncated: %q", v)
	}
}

func TestTranspose(t *testing.T) {
	// Expression matrix: genes as rows, patients as columns.
	expr := mustTable(t, []string{"Gene_Symbol", "SCAN-B-001", "SCAN-B-002"},
		[]string{"ESR1", "1.5", "0.2"},
		[]string{"TP53", "-0.3", "2.2"},
	)

	pivoted, err := expr.Transpose("Gene_Symbol", "PATIENT_ID")
	if err != nil {
		t.Fatalf("unexpected transpose error: %v", err)
	}

	if pivoted.NumRows() != 2 {
		t.Fatalf("expected one row per patient, got %d", pivoted.NumRows())
	}
	if !pivoted.HasColumn("ESR1") || !pivoted.HasColumn("TP53") {
		t.Fatalf("expected gene columns, got %v", pivoted.Columns())
	}
	if v, _ := pivoted.Cell(0, "PATIENT_ID"); v != "SCAN-B-001" {
		t.Fatalf("expected patient key, got %q", v)
	}
	if v, _ := pivoted.Cell(1, "TP53"); v != "2.2" {
		t.Fatalf("expected 2.2, got %q", v)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	original := mustTable(t, []string{"PATIENT_ID", "age", "er_status"},
		[]string{"TCGA-A2-0001", "51", "Positive"},
		[]string{"TCGA-A2-0002", "", "Negative"},
	)

	if err := WriteFile(original, path); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	reread, err := ReadFile(path, DelimiterFor(path))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	if reread.NumRows() != original.NumRows() {
		t.Fatalf("round-trip row count changed: %d != %d", reread.NumRows(), original.NumRows())
	}
	gotCols := reread.Columns()
	wantCols := original.Columns()
	if len(gotCols) != len(wantCols) {
		t.Fatalf("round-trip column set changed: %v != %v", gotCols, wantCols)
	}
	for i := range gotCols {
		if gotCols[i] != wantCols[i] {
			t.Fatalf("column %d changed: %q != %q", i, gotCols[i], wantCols[i])
		}
	}
	if v, _ := reread.Cell(1, "age"); !Missing(v) {
		t.Fatalf("null cell not preserved: %q", v)
	}
}

func TestDelimiterFor(t *testing.T) {
	if DelimiterFor("data_clinical_patient.txt") != '\t' {
		t.Fatal("expected tab for .txt")
	}
	if DelimiterFor("expr.tsv") != '\t' {
		t.Fatal("expected tab for .tsv")
	}
	if DelimiterFor("tcga_clinical.csv") != ',' {
		t.Fatal("expected comma for .csv")
	}
}

func TestReadFileMissingFile(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "absent.csv"), ','); err == nil {
		t.Fatal("expected error for missing file")
	}
}
