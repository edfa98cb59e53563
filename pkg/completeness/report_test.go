package completeness

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oncoweave/pipeline/pkg/table"
)

func buildDataset(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.New([]string{"PATIENT_ID", "dataset_source", "er_status", "esr1_expression", "tp53_expression"})
	if err != nil {
		t.Fatalf("failed to build table: %v", err)
	}
	tbl.AppendRow([]string{"MB-0001", "METABRIC", "Positive", "1.1", "0.5"})
	tbl.AppendRow([]string{"MB-0002", "METABRIC", "Negative", "", "0.7"})
	tbl.AppendRow([]string{"TCGA-A2-0001", "TCGA", "", "0.9", ""})
	tbl.AppendRow([]string{"TCGA-A2-0002", "TCGA", "Positive", "", ""})
	return tbl
}

func TestAnalyzePercentages(t *testing.T) {
	report := Analyze(buildDataset(t), "dataset_source")

	if report.Rows != 4 {
		t.Fatalf("expected 4 rows, got %d", report.Rows)
	}

	er, err := report.Find("er_status")
	if err != nil {
		t.Fatalf("er_status missing from report: %v", err)
	}
	if er.NonNull != 3 || er.Null != 1 {
		t.Fatalf("er_status counts wrong: %+v", er)
	}
	if er.PctComplete != 75 {
		t.Fatalf("er_status completeness = %.1f, want 75", er.PctComplete)
	}
	// Complete + missing must always be exactly 100.
	if er.PctComplete+er.PctMissing() != 100 {
		t.Fatalf("complete%% and missing%% do not sum to 100: %f + %f", er.PctComplete, er.PctMissing())
	}
}

func TestAnalyzePerCohortBreakdown(t *testing.T) {
	report := Analyze(buildDataset(t), "dataset_source")

	if report.CohortCounts["METABRIC"] != 2 || report.CohortCounts["TCGA"] != 2 {
		t.Fatalf("cohort counts wrong: %v", report.CohortCounts)
	}

	esr1, _ := report.Find("esr1_expression")
	metabric := esr1.PerCohort["METABRIC"]
	if metabric.NonNull != 1 || metabric.Total != 2 || metabric.Pct != 50 {
		t.Fatalf("METABRIC esr1 breakdown wrong: %+v", metabric)
	}
}

func TestBandsArePartition(t *testing.T) {
	report := Analyze(buildDataset(t), "dataset_source")

	total := len(report.Complete()) + len(report.Band(80, 100)) + len(report.Band(50, 80)) + len(report.Band(0, 50))
	if total != len(report.Columns) {
		t.Fatalf("bands do not cover all columns: %d != %d", total, len(report.Columns))
	}
}

func TestPatientMissingCounts(t *testing.T) {
	tbl := buildDataset(t)
	counts := PatientMissingCounts(tbl, []string{"esr1_expression", "tp53_expression"})

	want := []int{0, 1, 1, 2}
	for i, w := range want {
		if counts[i] != w {
			t.Fatalf("patient %d missing count = %d, want %d", i, counts[i], w)
		}
	}

	dist := MissingDistribution(counts)
	if dist[0] != 1 || dist[1] != 2 || dist[2] != 1 {
		t.Fatalf("distribution wrong: %v", dist)
	}
}

func TestPatientMissingCountsAbsentColumn(t *testing.T) {
	tbl := buildDataset(t)
	counts := PatientMissingCounts(tbl, []string{"not_a_column"})
	for i, c := range counts {
		if c != 1 {
			t.Fatalf("patient %d: absent column should count as missing, got %d", i, c)
		}
	}
}

func TestCategorize(t *testing.T) {
	cases := map[string]string{
		"id_paciente":       "identifier",
		"esr1_expression":   "expression",
		"radius_mean":       "imaging",
		"overall_survival":  "survival",
		"chemotherapy":      "treatment",
		"age_at_diagnosis":  "demographic",
		"her2_status":       "clinical",
		"something_unknown": "other",
	}
	for col, want := range cases {
		if got := Categorize(col); got != want {
			t.Fatalf("Categorize(%q) = %q, want %q", col, got, want)
		}
	}
}

func TestWriteTextReport(t *testing.T) {
	report := Analyze(buildDataset(t), "dataset_source")
	path := filepath.Join(t.TempDir(), "out", "completeness.txt")

	if err := WriteText(report, path); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	text := string(content)
	for _, want := range []string{"Total records: 4", "METABRIC", "er_status", "SUMMARY BY COLUMN CATEGORY"} {
		if !strings.Contains(text, want) {
			t.Fatalf("report missing %q:\n%s", want, text)
		}
	}
}
