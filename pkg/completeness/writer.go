package completeness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// WriteText renders the banded completeness report to a file, fully replacing
// any previous run's output.
func WriteText(r Report, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	var b strings.Builder
	rule := strings.Repeat("=", 100)
	thin := strings.Repeat("-", 100)

	fmt.Fprintf(&b, "COMPLETENESS ANALYSIS - CONSOLIDATED DATASET\n%s\n", rule)
	fmt.Fprintf(&b, "Total records: %d\n", r.Rows)
	fmt.Fprintf(&b, "Total columns: %d\n", len(r.Columns))

	if len(r.CohortCounts) > 0 {
		fmt.Fprintf(&b, "\nRecords per cohort:\n")
		for _, name := range sortedKeys(r.CohortCounts) {
			count := r.CohortCounts[name]
			pct := 0.0
			if r.Rows > 0 {
				pct = float64(count) / float64(r.Rows) * 100
			}
			fmt.Fprintf(&b, "  %s: %d records (%.1f%%)\n", name, count, pct)
		}
	}
	fmt.Fprintf(&b, "%s\n\n", rule)

	writeBand(&b, thin, "COLUMNS AT 100%% COMPLETENESS:", r.Complete(), r.Rows)
	writeBand(&b, thin, "COLUMNS ABOVE 80%% COMPLETENESS:", r.Band(80, 100), r.Rows)
	writeBand(&b, thin, "COLUMNS BETWEEN 50%% AND 80%% COMPLETENESS:", r.Band(50, 80), r.Rows)
	writeBand(&b, thin, "COLUMNS BELOW 50%% COMPLETENESS:", r.Band(0, 50), r.Rows)

	if len(r.CohortCounts) > 0 {
		fmt.Fprintf(&b, "\n%s\nPER-COHORT COMPLETENESS (columns at 50%%+ overall)\n%s\n", rule, rule)
		for _, stat := range r.Columns {
			if stat.PctComplete < 50 || stat.Column == "dataset_source" {
				continue
			}
			fmt.Fprintf(&b, "\n%s (overall %.1f%%)\n%s\n", stat.Column, stat.PctComplete, thin)
			for _, cohort := range sortedCohorts(stat.PerCohort) {
				cs := stat.PerCohort[cohort]
				fmt.Fprintf(&b, "  %-10s | %4d/%4d records (%6.1f%%)\n", cohort, cs.NonNull, cs.Total, cs.Pct)
			}
		}
	}

	fmt.Fprintf(&b, "\n%s\nSUMMARY BY COLUMN CATEGORY\n%s\n", rule, rule)
	byCategory := make(map[string][]ColumnStat)
	for _, stat := range r.Columns {
		cat := Categorize(stat.Column)
		byCategory[cat] = append(byCategory[cat], stat)
	}
	for _, cat := range sortedCategoryKeys(byCategory) {
		fmt.Fprintf(&b, "\n%s:\n%s\n", cat, thin)
		for _, stat := range byCategory[cat] {
			fmt.Fprintf(&b, "  %-40s | %6.1f%% complete | %6.1f%% missing\n", stat.Column, stat.PctComplete, stat.PctMissing())
		}
	}

	return os.WriteFile(path, []byte(b.String()), 0o644)
}

func writeBand(b *strings.Builder, thin, title string, stats []ColumnStat, rows int) {
	fmt.Fprintf(b, title+"\n%s\n", thin)
	for _, stat := range stats {
		fmt.Fprintf(b, "%-40s | Complete: %6.1f%% | Non-null: %5d/%d\n", stat.Column, stat.PctComplete, stat.NonNull, rows)
	}
	fmt.Fprintf(b, "\n")
}

func sortedKeys(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedCohorts(m map[string]CohortStat) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedCategoryKeys(m map[string][]ColumnStat) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
