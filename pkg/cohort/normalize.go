package cohort

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/oncoweave/pipeline/pkg/table"
)

// KeyColumn is the canonical patient-identifier column every source is
// renamed to before joining. The three cohorts ship it under different names
// (Patient_ID, PATIENT_ID, Sample, Sample_Geo_Accession).
const KeyColumn = "PATIENT_ID"

// tcgaBarcode matches the patient portion of a TCGA barcode, e.g. TCGA-A2-AJI0.
var tcgaBarcode = regexp.MustCompile(`^(TCGA-[A-Z0-9]{2}-[A-Z0-9]{4})`)

// CanonicalKey trims and uppercases a raw patient identifier. For TCGA-style
// barcodes any sample/aliquot tail is cut back to the patient portion so the
// same patient keys identically across sources.
func CanonicalKey(raw string) string {
	key := strings.ToUpper(strings.TrimSpace(raw))
	if m := tcgaBarcode.FindString(key); m != "" {
		return m
	}
	return key
}

// TCGAPatientID extracts the patient barcode from an arbitrary string such as
// a pathology-report file name. Empty when no barcode is present.
func TCGAPatientID(s string) string {
	return tcgaBarcode.FindString(strings.ToUpper(strings.TrimSpace(s)))
}

// NormalizeKeys renames the source's key column to KeyColumn and
// canonicalizes every key cell in place. Rows whose key is null keep their
// null; the join drops them from the lookup side.
func NormalizeKeys(t *table.Table, keyColumn string) error {
	if keyColumn != KeyColumn {
		if err := t.Rename(keyColumn, KeyColumn); err != nil {
			return fmt.Errorf("normalize key column: %w", err)
		}
	}
	for i := 0; i < t.NumRows(); i++ {
		cell, _ := t.Cell(i, KeyColumn)
		if table.Missing(cell) {
			continue
		}
		if err := t.SetCell(i, KeyColumn, CanonicalKey(cell)); err != nil {
			return err
		}
	}
	return nil
}

// IdentifierColumn resolves the patient-identifier column of a table:
// KeyColumn on consolidated cohort tables, the unified lowercase name after
// harmonization.
func IdentifierColumn(t *table.Table) (string, bool) {
	for _, col := range []string{KeyColumn, "patient_id"} {
		if t.HasColumn(col) {
			return col, true
		}
	}
	return "", false
}

// UniqueKeys counts distinct non-null values of the named column.
func UniqueKeys(t *table.Table, column string) int {
	keys, err := t.Column(column)
	if err != nil {
		return 0
	}
	seen := make(map[string]struct{})
	for _, k := range keys {
		if table.Missing(k) {
			continue
		}
		seen[k] = struct{}{}
	}
	return len(seen)
}

// UniquePatients counts distinct non-null patient keys, the "pacientes únicos"
// figure every consolidation summary reports. Zero when the table carries no
// identifier column at all.
func UniquePatients(t *table.Table) int {
	col, ok := IdentifierColumn(t)
	if !ok {
		return 0
	}
	return UniqueKeys(t, col)
}
