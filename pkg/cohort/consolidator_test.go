package cohort

import (
	"context"
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

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func testManifest(t *testing.T, dir string) Manifest {
	t.Helper()
	writeFile(t, filepath.Join(dir, "clinical.csv"),
		"Patient_ID,age\nTCGA-A2-0001,51\nTCGA-A2-0002,63\nTCGA-A2-0003,47\n")
	writeFile(t, filepath.Join(dir, "genomics.csv"),
		"Patient_ID,esr1_expression\nTCGA-A2-0002,1.2\nTCGA-A2-0003,-0.4\nTCGA-A2-9999,2.1\n")

	return Manifest{Cohorts: map[string]Cohort{
		"tcga": {
			Base: Source{Name: "clinical", Path: filepath.Join(dir, "clinical.csv"), KeyColumn: "Patient_ID"},
			Sources: []Source{
				{Name: "genomics", Path: filepath.Join(dir, "genomics.csv"), KeyColumn: "Patient_ID", Suffix: "_genom"},
				{Name: "treatments", Path: filepath.Join(dir, "absent.csv"), KeyColumn: "Patient_ID", Suffix: "_treat"},
			},
		},
	}}
}

func TestConsolidatorLeftJoinIdentity(t *testing.T) {
	dir := t.TempDir()
	c := NewConsolidator(testManifest(t, dir), nil)

	consolidated, summary, err := c.Run(context.Background(), "tcga")
	if err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	if consolidated.NumRows() != 3 {
		t.Fatalf("left-join identity broken: got %d rows, want 3", consolidated.NumRows())
	}
	ids, _ := consolidated.Column(KeyColumn)
	for _, id := range ids {
		if id == "TCGA-A2-9999" {
			t.Fatal("genomic-only patient must not create a row")
		}
	}
	if v, _ := consolidated.Cell(0, "esr1_expression"); !table.Missing(v) {
		t.Fatalf("unmatched patient should have null genomic columns, got %q", v)
	}
	if v, _ := consolidated.Cell(1, "esr1_expression"); v != "1.2" {
		t.Fatalf("matched patient lost genomic value: %q", v)
	}
	if summary.Rows != 3 || summary.Patients != 3 {
		t.Fatalf("bad summary: %+v", summary)
	}
}

func TestConsolidatorSkipsMissingSource(t *testing.T) {
	dir := t.TempDir()
	c := NewConsolidator(testManifest(t, dir), nil)

	_, summary, err := c.Run(context.Background(), "tcga")
	if err != nil {
		t.Fatalf("missing side source must not abort the run: %v", err)
	}

	var skipped bool
	for _, src := range summary.Sources {
		if src.Name == "treatments" && src.Skipped {
			skipped = true
		}
	}
	if !skipped {
		t.Fatalf("expected treatments source to be reported skipped: %+v", summary.Sources)
	}
}

func TestConsolidatorMissingBaseIsFatal(t *testing.T) {
	dir := t.TempDir()
	m := Manifest{Cohorts: map[string]Cohort{
		"tcga": {Base: Source{Name: "clinical", Path: filepath.Join(dir, "absent.csv"), KeyColumn: "Patient_ID"}},
	}}
	c := NewConsolidator(m, nil)

	if _, _, err := c.Run(context.Background(), "tcga"); err == nil {
		t.Fatal("expected error when clinical base is unreadable")
	}
}

func TestConsolidatorTransposedExpression(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "clinical.csv"),
		"Patient_ID,age\nSCAN-B-001,55\nSCAN-B-002,61\n")
	writeFile(t, filepath.Join(dir, "fpkm.csv"),
		"Gene_Symbol,SCAN-B-001,SCAN-B-002\nESR1,1.5,0.2\nTP53,-0.3,2.2\n")

	m := Manifest{Cohorts: map[string]Cohort{
		"scanb": {
			Base: Source{Name: "clinical", Path: filepath.Join(dir, "clinical.csv"), KeyColumn: "Patient_ID"},
			Sources: []Source{
				{Name: "fpkm", Path: filepath.Join(dir, "fpkm.csv"), Suffix: "_expr", TransposeOn: "Gene_Symbol"},
			},
		},
	}}

	consolidated, _, err := NewConsolidator(m, nil).Run(context.Background(), "scanb")
	if err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}
	if v, _ := consolidated.Cell(0, "ESR1"); v != "1.5" {
		t.Fatalf("transposed expression not joined: %q", v)
	}
	if v, _ := consolidated.Cell(1, "TP53"); v != "2.2" {
		t.Fatalf("transposed expression not joined: %q", v)
	}
}

func TestManifestValidation(t *testing.T) {
	err := (Manifest{}).Validate()
	if !IsValidationError(err) {
		t.Fatalf("expected validation error for empty manifest, got %v", err)
	}

	m := Manifest{Cohorts: map[string]Cohort{
		"tcga": {
			Base:    Source{Name: "clinical", Path: "x.csv", KeyColumn: "Patient_ID"},
			Sources: []Source{{Name: "demo", Path: "y.csv", KeyColumn: "Patient_ID"}},
		},
	}}
	if err := m.Validate(); !IsValidationError(err) {
		t.Fatalf("expected validation error for missing suffix, got %v", err)
	}
}
