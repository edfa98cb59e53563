package enrich

import (
	"fmt"
	"strings"

	"github.com/oncoweave/pipeline/pkg/cohort"
	"github.com/oncoweave/pipeline/pkg/common/logger"
	"github.com/oncoweave/pipeline/pkg/table"
)

// JoinSuffix marks columns that came from PDF extraction when they collide
// with a column already in the consolidated table.
const JoinSuffix = "_PDF"

// receptorValues folds the spellings the extraction model produces, including
// the Spanish ones some reports use, onto the harmonized vocabulary.
var receptorValues = map[string]string{
	"positive": "Positive",
	"positivo": "Positive",
	"pos":      "Positive",
	"negative": "Negative",
	"negativo": "Negative",
	"neg":      "Negative",
}

// histologyKeywords maps diagnosis free text onto the coarse histology
// classes the analysis stage works with. First match wins.
var histologyKeywords = []struct {
	keyword string
	class   string
}{
	{"ductal", "Ductal"},
	{"duct carcinoma", "Ductal"},
	{"lobular", "Lobular"},
	{"medullary", "Medullary"},
	{"mucinous", "Mucinous"},
}

// HistologyClass buckets a free-text diagnosis. Unrecognized but present
// diagnoses become Other; null stays null.
func HistologyClass(diagnosis string) string {
	if table.Missing(diagnosis) {
		return ""
	}
	lower := strings.ToLower(diagnosis)
	for _, h := range histologyKeywords {
		if strings.Contains(lower, h.keyword) {
			return h.class
		}
	}
	return "Other"
}

// receptorColumns in the extraction ledger that get value normalization.
var receptorColumns = []string{"er_status", "pr_status", "her2_status"}

// PreparePathology makes a raw extraction-ledger table joinable: the patient
// barcode is recovered from source_file when the model left patient_id blank,
// receptor values are folded onto the harmonized vocabulary, and a histology
// column is derived from the diagnosis text. Rows with no recoverable patient
// stay in the table; the join skips them.
func PreparePathology(t *table.Table) (*table.Table, error) {
	if !t.HasColumn("source_file") {
		return nil, fmt.Errorf("extraction table has no source_file column")
	}
	if !t.HasColumn("patient_id") {
		if err := t.AddColumn("patient_id", ""); err != nil {
			return nil, err
		}
	}

	recovered := 0
	for i := 0; i < t.NumRows(); i++ {
		id, _ := t.Cell(i, "patient_id")
		if table.Missing(id) {
			file, _ := t.Cell(i, "source_file")
			if barcode := cohort.TCGAPatientID(file); barcode != "" {
				if err := t.SetCell(i, "patient_id", barcode); err != nil {
					return nil, err
				}
				recovered++
			}
		}

		for _, col := range receptorColumns {
			if !t.HasColumn(col) {
				continue
			}
			cell, _ := t.Cell(i, col)
			if mapped, ok := receptorValues[strings.ToLower(strings.TrimSpace(cell))]; ok {
				if err := t.SetCell(i, col, mapped); err != nil {
					return nil, err
				}
			}
		}
	}

	if t.HasColumn("diagnosis") && !t.HasColumn("histology") {
		if err := t.AddColumn("histology", ""); err != nil {
			return nil, err
		}
		for i := 0; i < t.NumRows(); i++ {
			diagnosis, _ := t.Cell(i, "diagnosis")
			if err := t.SetCell(i, "histology", HistologyClass(diagnosis)); err != nil {
				return nil, err
			}
		}
	}

	if err := cohort.NormalizeKeys(t, "patient_id"); err != nil {
		return nil, err
	}

	if recovered > 0 {
		logger.Log.WithField("recovered", recovered).Info("Patient barcodes recovered from report file names")
	}
	return t, nil
}

// BackfillReport counts, per column, how many null cells in the consolidated
// table were filled from PDF-extracted values.
type BackfillReport struct {
	Filled  map[string]int
	Matched int
}

// Enrich left-joins prepared pathology extractions onto the consolidated
// table and backfills null cells from the _PDF twin of each column. The base
// row count never changes.
func Enrich(base, pathology *table.Table) (*table.Table, BackfillReport, error) {
	report := BackfillReport{Filled: make(map[string]int)}

	joined, err := table.LeftJoin(base, pathology, cohort.KeyColumn, JoinSuffix)
	if err != nil {
		return nil, report, err
	}
	if joined.NumRows() != base.NumRows() {
		return nil, report, fmt.Errorf("enrichment changed row count: %d != %d", joined.NumRows(), base.NumRows())
	}

	for _, col := range joined.Columns() {
		twin := col + JoinSuffix
		if !joined.HasColumn(twin) {
			continue
		}
		for i := 0; i < joined.NumRows(); i++ {
			cell, _ := joined.Cell(i, col)
			if !table.Missing(cell) {
				continue
			}
			pdfCell, _ := joined.Cell(i, twin)
			if table.Missing(pdfCell) {
				continue
			}
			if err := joined.SetCell(i, col, pdfCell); err != nil {
				return nil, report, err
			}
			report.Filled[col]++
		}
	}

	if joined.HasColumn("source_file") {
		for i := 0; i < joined.NumRows(); i++ {
			if cell, _ := joined.Cell(i, "source_file"); !table.Missing(cell) {
				report.Matched++
			}
		}
	}

	for col, n := range report.Filled {
		logger.Log.WithFields(map[string]interface{}{
			"column": col,
			"filled": n,
		}).Info("Backfilled from pathology reports")
	}
	return joined, report, nil
}
