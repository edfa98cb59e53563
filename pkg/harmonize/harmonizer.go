package harmonize

import (
	"fmt"
	"sort"

	"github.com/oncoweave/pipeline/pkg/common/logger"
	"github.com/oncoweave/pipeline/pkg/table"
)

// CohortInput pairs a cohort name with its consolidated table. Order matters:
// the final dataset stacks cohorts in input order.
type CohortInput struct {
	Name  string
	Table *table.Table
}

// Harmonizer turns per-cohort consolidated tables into one cross-cohort
// dataset: per cohort it keeps only the manually mapped columns under their
// unified names, tags each row with its cohort, stacks everything vertically
// and normalizes values.
type Harmonizer struct {
	mapping Mapping
}

func NewHarmonizer(mapping Mapping) *Harmonizer {
	return &Harmonizer{mapping: mapping}
}

// Apply maps one cohort's table onto the unified column set.
func (h *Harmonizer) Apply(t *table.Table, cohort string) (*table.Table, error) {
	renames := h.mapping.RenamesFor(cohort, t.HasColumn)
	if len(renames) == 0 {
		return nil, fmt.Errorf("cohort %s matches no mapped columns", cohort)
	}

	sources := make([]string, 0, len(renames))
	for src := range renames {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	mapped, err := t.Select(sources)
	if err != nil {
		return nil, err
	}
	for _, src := range sources {
		if err := mapped.Rename(src, renames[src]); err != nil {
			return nil, fmt.Errorf("cohort %s: %w", cohort, err)
		}
	}
	if err := mapped.AddColumn(SourceColumnName, cohort); err != nil {
		return nil, err
	}

	logger.Log.WithFields(map[string]interface{}{
		"cohort":  cohort,
		"columns": len(renames),
		"rows":    mapped.NumRows(),
	}).Info("Applied column mapping")
	return mapped, nil
}

// Consolidate runs the full harmonization over every cohort.
func (h *Harmonizer) Consolidate(inputs []CohortInput) (*table.Table, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no cohorts to harmonize")
	}

	mapped := make([]*table.Table, 0, len(inputs))
	for _, in := range inputs {
		m, err := h.Apply(in.Table, in.Name)
		if err != nil {
			return nil, err
		}
		mapped = append(mapped, m)
	}

	stacked, err := table.VStack(mapped)
	if err != nil {
		return nil, err
	}
	if err := NormalizeValues(stacked); err != nil {
		return nil, err
	}

	logger.Log.WithFields(map[string]interface{}{
		"rows":    stacked.NumRows(),
		"columns": stacked.NumColumns(),
	}).Info("Harmonized dataset built")
	return stacked, nil
}
