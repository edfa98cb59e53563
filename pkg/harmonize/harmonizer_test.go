package harmonize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/oncoweave/pipeline/pkg/common/logger"
	"github.com/oncoweave/pipeline/pkg/table"
)

func TestMain(m *testing.M) {
	logger.Init("test")
	os.Exit(m.Run())
}

func testMapping() Mapping {
	return Mapping{Columns: map[string]Entry{
		"id_paciente": {
			Type:    "identifier",
			Sources: map[string]string{"metabric": "PATIENT_ID", "scanb": "PATIENT_ID", "tcga": "Patient_ID"},
		},
		"overall_survival": {
			Type:    "numeric",
			Sources: map[string]string{"metabric": "OS_MONTHS", "scanb": "FollowUp_Years", "tcga": "Days_To_Death"},
		},
		"er_status": {
			Type:    "categorical",
			Sources: map[string]string{"metabric": "ER_IHC", "tcga": "ER_Status_IHC", "scanb": "null"},
		},
	}}
}

func metabricTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.New([]string{"PATIENT_ID", "OS_MONTHS", "ER_IHC", "LYMPH_NODES"})
	if err != nil {
		t.Fatalf("failed to build table: %v", err)
	}
	tbl.AppendRow([]string{"MB-0001", "10", "pos", "2"})
	return tbl
}

func tcgaTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.New([]string{"Patient_ID", "Days_To_Death", "ER_Status_IHC"})
	if err != nil {
		t.Fatalf("failed to build table: %v", err)
	}
	tbl.AppendRow([]string{"TCGA-A2-0001", "304", "Negative"})
	return tbl
}

func TestApplyKeepsOnlyMappedColumns(t *testing.T) {
	h := NewHarmonizer(testMapping())

	mapped, err := h.Apply(metabricTable(t), "METABRIC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, col := range []string{"id_paciente", "overall_survival", "er_status", SourceColumnName} {
		if !mapped.HasColumn(col) {
			t.Fatalf("missing unified column %q in %v", col, mapped.Columns())
		}
	}
	if mapped.HasColumn("LYMPH_NODES") {
		t.Fatal("unmapped column must not survive harmonization")
	}
	if v, _ := mapped.Cell(0, SourceColumnName); v != "METABRIC" {
		t.Fatalf("missing cohort tag: %q", v)
	}
}

func TestConsolidateStacksAndNormalizes(t *testing.T) {
	h := NewHarmonizer(testMapping())

	dataset, err := h.Consolidate([]CohortInput{
		{Name: "METABRIC", Table: metabricTable(t)},
		{Name: "TCGA", Table: tcgaTable(t)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dataset.NumRows() != 2 {
		t.Fatalf("expected 2 stacked rows, got %d", dataset.NumRows())
	}

	// METABRIC months converted to days, TCGA untouched.
	if v, _ := dataset.Cell(0, "overall_survival"); v != "304.4" {
		t.Fatalf("METABRIC survival not converted to days: %q", v)
	}
	if v, _ := dataset.Cell(1, "overall_survival"); v != "304" {
		t.Fatalf("TCGA survival must stay in days: %q", v)
	}

	// Receptor status normalized to canonical spelling.
	if v, _ := dataset.Cell(0, "er_status"); v != "Positive" {
		t.Fatalf("er_status not normalized: %q", v)
	}
}

func TestNormalizeValuesScanbYears(t *testing.T) {
	tbl, err := table.New([]string{SourceColumnName, "overall_survival", "chemotherapy"})
	if err != nil {
		t.Fatalf("failed to build table: %v", err)
	}
	tbl.AppendRow([]string{"SCANB", "2", "1"})
	tbl.AppendRow([]string{"SCANB", "", "NO"})

	if err := NormalizeValues(tbl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if v, _ := tbl.Cell(0, "overall_survival"); v != "730.5" {
		t.Fatalf("SCAN-B years not converted: %q", v)
	}
	if v, _ := tbl.Cell(1, "overall_survival"); !table.Missing(v) {
		t.Fatalf("null survival must stay null: %q", v)
	}
	if v, _ := tbl.Cell(0, "chemotherapy"); v != "Yes" {
		t.Fatalf("treatment flag not normalized: %q", v)
	}
	if v, _ := tbl.Cell(1, "chemotherapy"); v != "No" {
		t.Fatalf("treatment flag not normalized: %q", v)
	}
}

func TestLoadMappingFiltersUntypedEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.yaml")
	content := `columns:
  id_paciente:
    type: identifier
    metabric: PATIENT_ID
    scanb: PATIENT_ID
    tcga: Patient_ID
  some_note:
    metabric: IGNORED
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write mapping: %v", err)
	}

	m, err := LoadMapping(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Columns) != 1 {
		t.Fatalf("expected untyped entries filtered, got %v", m.Columns)
	}
	if m.Columns["id_paciente"].SourceColumn("TCGA") != "Patient_ID" {
		t.Fatalf("source column lookup failed: %+v", m.Columns["id_paciente"])
	}
}

func TestSourceColumnNullIsAbsent(t *testing.T) {
	e := Entry{Type: "categorical", Sources: map[string]string{"scanb": "null"}}
	if got := e.SourceColumn("SCANB"); got != "" {
		t.Fatalf("null mapping must resolve to empty, got %q", got)
	}
}
