package harmonize

import (
	"strconv"
	"strings"

	"github.com/oncoweave/pipeline/pkg/table"
)

// SourceColumnName tags each harmonized row with the cohort it came from.
const SourceColumnName = "dataset_source"

// Survival time arrives in different units per cohort; everything is
// normalized to days.
const (
	daysPerMonth = 30.44
	daysPerYear  = 365.25
)

var receptorStatusValues = map[string]string{
	"pos":      "Positive",
	"positive": "Positive",
	"positivo": "Positive",
	"1":        "Positive",
	"neg":      "Negative",
	"negative": "Negative",
	"negativo": "Negative",
	"0":        "Negative",
	"neutral":  "Neutral",
}

var treatmentFlagValues = map[string]string{
	"yes":   "Yes",
	"1":     "Yes",
	"1.0":   "Yes",
	"true":  "Yes",
	"no":    "No",
	"0":     "No",
	"0.0":   "No",
	"false": "No",
}

var receptorColumns = []string{"er_status", "pr_status", "her2_status"}

var treatmentColumns = []string{"chemotherapy", "hormone_therapy", "radiotherapy", "breast_surgery"}

// NormalizeValues rewrites harmonized cells into cohort-independent form:
// survival times become days, receptor statuses become Positive/Negative and
// treatment flags become Yes/No. Null cells pass through untouched.
func NormalizeValues(t *table.Table) error {
	if t.HasColumn("overall_survival") && t.HasColumn(SourceColumnName) {
		if err := normalizeSurvival(t); err != nil {
			return err
		}
	}
	for _, col := range receptorColumns {
		normalizeCategorical(t, col, receptorStatusValues)
	}
	for _, col := range treatmentColumns {
		normalizeCategorical(t, col, treatmentFlagValues)
	}
	return nil
}

func normalizeSurvival(t *table.Table) error {
	for i := 0; i < t.NumRows(); i++ {
		source, _ := t.Cell(i, SourceColumnName)
		var factor float64
		switch strings.ToUpper(strings.TrimSpace(source)) {
		case "METABRIC":
			factor = daysPerMonth // OS_MONTHS
		case "SCANB":
			factor = daysPerYear // FollowUp_Years
		default:
			continue // TCGA is already in days
		}

		cell, _ := t.Cell(i, "overall_survival")
		if table.Missing(cell) {
			continue
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil {
			// Not numeric: leave the original value in place rather than
			// invent one.
			continue
		}
		days := strconv.FormatFloat(value*factor, 'f', -1, 64)
		if err := t.SetCell(i, "overall_survival", days); err != nil {
			return err
		}
	}
	return nil
}

func normalizeCategorical(t *table.Table, column string, values map[string]string) {
	if !t.HasColumn(column) {
		return
	}
	for i := 0; i < t.NumRows(); i++ {
		cell, _ := t.Cell(i, column)
		if table.Missing(cell) {
			continue
		}
		if mapped, ok := values[strings.ToLower(strings.TrimSpace(cell))]; ok {
			_ = t.SetCell(i, column, mapped)
		}
	}
}
