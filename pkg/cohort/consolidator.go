package cohort

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/oncoweave/pipeline/pkg/common/events"
	"github.com/oncoweave/pipeline/pkg/common/logger"
	"github.com/oncoweave/pipeline/pkg/common/models"
	"github.com/oncoweave/pipeline/pkg/table"
)

// Consolidator builds one wide patient-by-feature table per cohort: the
// clinical base joined left with every other source in manifest order. A
// source that cannot be loaded is skipped with a warning and contributes
// nothing; the run never aborts for a missing side file.
type Consolidator struct {
	manifest Manifest
	producer *events.Producer
}

func NewConsolidator(manifest Manifest, producer *events.Producer) *Consolidator {
	return &Consolidator{manifest: manifest, producer: producer}
}

// Run consolidates one named cohort and returns the wide table plus the run
// summary. Only a broken clinical base is fatal: without it there is nothing
// to anchor the left join on.
func (c *Consolidator) Run(ctx context.Context, cohortName string) (*table.Table, models.RunSummary, error) {
	summary := models.RunSummary{
		RunID:     uuid.New().String(),
		Stage:     "consolidate",
		Cohort:    cohortName,
		StartedAt: time.Now().UTC(),
	}

	def, err := c.manifest.Get(cohortName)
	if err != nil {
		return nil, summary, err
	}

	_ = c.producer.Publish(ctx, "run-started", summary.Stage, map[string]interface{}{
		"run_id": summary.RunID,
		"cohort": cohortName,
	})

	base, report, err := c.loadSource(def.Base)
	if err != nil {
		return nil, summary, fmt.Errorf("clinical base %s: %w", def.Base.Path, err)
	}
	summary.Sources = append(summary.Sources, report)
	logger.Log.WithFields(map[string]interface{}{
		"cohort": cohortName,
		"source": def.Base.Name,
		"rows":   base.NumRows(),
		"cols":   base.NumColumns(),
	}).Info("Loaded clinical base")

	consolidated := base
	for _, src := range def.Sources {
		partial, report, err := c.loadSource(src)
		if err != nil {
			report.Skipped = true
			report.SkipReason = err.Error()
			summary.Sources = append(summary.Sources, report)
			logger.Log.WithError(err).WithFields(map[string]interface{}{
				"cohort": cohortName,
				"source": src.Name,
			}).Warn("Source unavailable, skipping its columns")
			continue
		}

		joined, err := table.LeftJoin(consolidated, partial, KeyColumn, src.Suffix)
		if err != nil {
			return nil, summary, fmt.Errorf("join %s: %w", src.Name, err)
		}
		consolidated = joined
		summary.Sources = append(summary.Sources, report)

		logger.Log.WithFields(map[string]interface{}{
			"cohort": cohortName,
			"source": src.Name,
			"rows":   consolidated.NumRows(),
			"cols":   consolidated.NumColumns(),
		}).Info("Joined source")

		_ = c.producer.Publish(ctx, "source-loaded", summary.Stage, map[string]interface{}{
			"run_id": summary.RunID,
			"cohort": cohortName,
			"source": src.Name,
			"rows":   report.Rows,
		})
	}

	if consolidated.NumRows() != base.NumRows() {
		// Left-join identity is the contract of the whole stage.
		return nil, summary, fmt.Errorf("consolidated rows %d != clinical base rows %d", consolidated.NumRows(), base.NumRows())
	}

	summary.Rows = consolidated.NumRows()
	summary.Columns = consolidated.NumColumns()
	summary.Patients = UniquePatients(consolidated)
	summary.CompletedAt = time.Now().UTC()
	return consolidated, summary, nil
}

// loadSource reads a delimited file, pivots expression matrices when asked,
// and canonicalizes its patient keys.
func (c *Consolidator) loadSource(src Source) (*table.Table, models.SourceReport, error) {
	report := models.SourceReport{Name: src.Name, Path: src.Path}

	t, err := table.ReadFile(src.Path, table.DelimiterFor(src.Path))
	if err != nil {
		return nil, report, err
	}

	keyColumn := src.KeyColumn
	if src.TransposeOn != "" {
		t, err = t.Transpose(src.TransposeOn, KeyColumn)
		if err != nil {
			return nil, report, fmt.Errorf("transpose %s: %w", src.Name, err)
		}
		keyColumn = KeyColumn
	}
	if err := NormalizeKeys(t, keyColumn); err != nil {
		return nil, report, err
	}

	report.Rows = t.NumRows()
	report.Columns = t.NumColumns()
	report.MatchedKey = UniquePatients(t)
	return t, report, nil
}
