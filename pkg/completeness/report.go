package completeness

import (
	"fmt"
	"sort"

	"github.com/oncoweave/pipeline/pkg/table"
)

// GeneExpressionColumns is the ten-gene panel the downstream analyses depend
// on; per-patient completeness is always reported for this set.
var GeneExpressionColumns = []string{
	"esr1_expression",
	"pgr_expression",
	"erbb2_expression",
	"mki67_expression",
	"tp53_expression",
	"brca1_expression",
	"brca2_expression",
	"pik3ca_expression",
	"pten_expression",
	"akt1_expression",
}

// CohortStat is one column's completeness within a single cohort.
type CohortStat struct {
	Total   int
	NonNull int
	Pct     float64
}

// ColumnStat is one column's completeness over the whole dataset.
type ColumnStat struct {
	Column      string
	NonNull     int
	Null        int
	PctComplete float64
	PerCohort   map[string]CohortStat
}

// PctMissing is always the exact complement of PctComplete.
func (c ColumnStat) PctMissing() float64 {
	return 100 - c.PctComplete
}

// Report is the full completeness analysis of a consolidated table. It has no
// side effects; writing it out is a separate step.
type Report struct {
	Rows         int
	CohortCounts map[string]int
	Columns      []ColumnStat
}

// Analyze computes per-column completeness, with a per-cohort breakdown when
// cohortColumn names an existing column (the harmonized dataset carries
// dataset_source; per-cohort tables pass "").
func Analyze(t *table.Table, cohortColumn string) Report {
	report := Report{
		Rows:         t.NumRows(),
		CohortCounts: make(map[string]int),
	}

	var cohorts []string
	if cohortColumn != "" && t.HasColumn(cohortColumn) {
		cohorts, _ = t.Column(cohortColumn)
		for _, c := range cohorts {
			if !table.Missing(c) {
				report.CohortCounts[c]++
			}
		}
	}

	for _, col := range t.Columns() {
		cells, _ := t.Column(col)
		stat := ColumnStat{Column: col, PerCohort: make(map[string]CohortStat)}
		for i, cell := range cells {
			if table.Missing(cell) {
				stat.Null++
			} else {
				stat.NonNull++
			}
			if cohorts != nil && !table.Missing(cohorts[i]) {
				cs := stat.PerCohort[cohorts[i]]
				cs.Total++
				if !table.Missing(cell) {
					cs.NonNull++
				}
				stat.PerCohort[cohorts[i]] = cs
			}
		}
		if report.Rows > 0 {
			stat.PctComplete = float64(stat.NonNull) / float64(report.Rows) * 100
		}
		for name, cs := range stat.PerCohort {
			if cs.Total > 0 {
				cs.Pct = float64(cs.NonNull) / float64(cs.Total) * 100
			}
			stat.PerCohort[name] = cs
		}
		report.Columns = append(report.Columns, stat)
	}

	sort.SliceStable(report.Columns, func(i, j int) bool {
		return report.Columns[i].PctComplete > report.Columns[j].PctComplete
	})
	return report
}

// Band selects columns whose completeness is in [lo, hi).
func (r Report) Band(lo, hi float64) []ColumnStat {
	var out []ColumnStat
	for _, c := range r.Columns {
		if c.PctComplete >= lo && c.PctComplete < hi {
			out = append(out, c)
		}
	}
	return out
}

// Complete selects columns with no missing values at all.
func (r Report) Complete() []ColumnStat {
	var out []ColumnStat
	for _, c := range r.Columns {
		if c.Null == 0 && r.Rows > 0 {
			out = append(out, c)
		}
	}
	return out
}

// PatientMissingCounts counts, per row, how many of the named columns are
// null. Columns the table lacks count as missing for every patient.
func PatientMissingCounts(t *table.Table, cols []string) []int {
	counts := make([]int, t.NumRows())
	for _, col := range cols {
		if !t.HasColumn(col) {
			for i := range counts {
				counts[i]++
			}
			continue
		}
		cells, _ := t.Column(col)
		for i, cell := range cells {
			if table.Missing(cell) {
				counts[i]++
			}
		}
	}
	return counts
}

// MissingDistribution folds per-patient missing counts into a histogram:
// distribution[k] = number of patients missing exactly k of the columns.
func MissingDistribution(counts []int) map[int]int {
	dist := make(map[int]int)
	for _, c := range counts {
		dist[c]++
	}
	return dist
}

// Find returns the stat for one column.
func (r Report) Find(column string) (ColumnStat, error) {
	for _, c := range r.Columns {
		if c.Column == column {
			return c, nil
		}
	}
	return ColumnStat{}, fmt.Errorf("column %q not in report", column)
}
