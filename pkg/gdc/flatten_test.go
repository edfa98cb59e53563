package gdc

import (
	"encoding/json"
	"testing"
)

func caseHits(t *testing.T) []map[string]interface{} {
	t.Helper()
	raw := `[
		{
			"submitter_id": "TCGA-A2-AJI0",
			"demographic": {
				"gender": "female",
				"days_to_birth": -21915,
				"vital_status": "Alive"
			},
			"diagnoses": [
				{"primary_diagnosis": "Infiltrating duct carcinoma", "tumor_grade": "G2"},
				{"primary_diagnosis": "secondary", "tumor_grade": "G3"}
			]
		},
		{
			"submitter_id": "TCGA-BH-A0BQ",
			"demographic": {
				"gender": "female",
				"days_to_birth": null
			}
		}
	]`
	var hits []map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &hits); err != nil {
		t.Fatalf("fixture: %v", err)
	}
	return hits
}

func TestFlattenDottedColumns(t *testing.T) {
	flat, err := Flatten(caseHits(t))
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	if flat.NumRows() != 2 {
		t.Fatalf("rows = %d, want 2", flat.NumRows())
	}
	for _, col := range []string{"submitter_id", "demographic.gender", "demographic.days_to_birth", "diagnoses.primary_diagnosis", "age_years"} {
		if !flat.HasColumn(col) {
			t.Fatalf("missing column %q in %v", col, flat.Columns())
		}
	}

	got, _ := flat.Cell(0, "diagnoses.primary_diagnosis")
	if got != "Infiltrating duct carcinoma" {
		t.Fatalf("diagnosis lists must collapse to the first entry, got %q", got)
	}
}

func TestFlattenDerivesAgeYears(t *testing.T) {
	flat, err := Flatten(caseHits(t))
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}

	age, _ := flat.Cell(0, "age_years")
	if age != "60.0" {
		t.Fatalf("age_years = %q, want 60.0 (21915 days)", age)
	}

	age, _ = flat.Cell(1, "age_years")
	if age != "" {
		t.Fatalf("missing days_to_birth must leave age empty, got %q", age)
	}
}

func TestDomainViews(t *testing.T) {
	flat, err := Flatten(caseHits(t))
	if err != nil {
		t.Fatalf("Flatten: %v", err)
	}

	demo := DemographicColumns(flat)
	if demo[0] != "submitter_id" {
		t.Fatalf("views must lead with the identifier, got %v", demo)
	}
	for _, c := range demo[1:] {
		if len(c) < 12 || c[:12] != "demographic." {
			t.Fatalf("unexpected demographic column %q", c)
		}
	}

	diag := DiagnosisColumns(flat)
	found := false
	for _, c := range diag {
		if c == "diagnoses.tumor_grade" {
			found = true
		}
	}
	if !found {
		t.Fatalf("diagnosis view missing tumor_grade: %v", diag)
	}
}

func TestProjectFilter(t *testing.T) {
	raw, err := projectFilter("TCGA-BRCA")
	if err != nil {
		t.Fatalf("projectFilter: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		t.Fatalf("filter is not valid JSON: %v", err)
	}
	if decoded["op"] != "in" {
		t.Fatalf("filter op = %v", decoded["op"])
	}
	content := decoded["content"].(map[string]interface{})
	if content["field"] != "cases.project.project_id" {
		t.Fatalf("filter field = %v", content["field"])
	}
}
