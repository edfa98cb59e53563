package warehouse

import (
	"fmt"

	"github.com/oncoweave/pipeline/pkg/cohort"
	"github.com/oncoweave/pipeline/pkg/common/config"
	"github.com/oncoweave/pipeline/pkg/common/database"
	"github.com/oncoweave/pipeline/pkg/common/logger"
	"github.com/oncoweave/pipeline/pkg/common/models"
	"github.com/oncoweave/pipeline/pkg/table"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists runs and consolidated patient rows. The warehouse is an
// optional sink: the pipeline's files remain the source of truth and every
// write here is idempotent on re-runs. A nil *Repository is valid and no-ops,
// so stages write through it unconditionally.
type Repository struct {
	db *gorm.DB
}

// Connect opens the warehouse when POSTGRES_* is configured. Disabled config
// returns nil; an unreachable database or a failed migration logs a warning
// and returns nil as well, the CSV outputs never depend on the warehouse.
func Connect(cfg *config.Config) *Repository {
	if !cfg.WarehouseEnabled() {
		return nil
	}
	db, err := database.GetPostgres(cfg)
	if err != nil {
		logger.Log.WithError(err).Warn("Warehouse unreachable, continuing without it")
		return nil
	}
	repo, err := NewRepository(db)
	if err != nil {
		logger.Log.WithError(err).Warn("Warehouse schema migration failed, continuing without it")
		return nil
	}
	return repo
}

func NewRepository(db *gorm.DB) (*Repository, error) {
	if err := db.AutoMigrate(&PipelineRun{}, &PatientRecord{}); err != nil {
		return nil, fmt.Errorf("migrate warehouse schema: %w", err)
	}
	return &Repository{db: db}, nil
}

// RegisterRun records one stage execution, keyed by its run id.
func (r *Repository) RegisterRun(summary models.RunSummary) error {
	if r == nil {
		return nil
	}
	run := PipelineRun{
		RunID:       summary.RunID,
		Stage:       summary.Stage,
		Cohort:      summary.Cohort,
		OutputPath:  summary.OutputPath,
		Rows:        summary.Rows,
		Columns:     summary.Columns,
		Patients:    summary.Patients,
		StartedAt:   summary.StartedAt,
		CompletedAt: summary.CompletedAt,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "run_id"}},
		UpdateAll: true,
	}).Create(&run).Error
}

// StoreCohort upserts every patient row of a consolidated table. The patient
// key is resolved per table, so both cohort tables (PATIENT_ID) and the
// harmonized dataset (unified patient_id) can be stored. Rows without a usable
// key are skipped, matching the join semantics upstream.
func (r *Repository) StoreCohort(cohortName, runID string, t *table.Table) (int, error) {
	if r == nil {
		return 0, nil
	}
	keyCol, ok := cohort.IdentifierColumn(t)
	if !ok {
		return 0, fmt.Errorf("table has no patient identifier column")
	}

	cols := t.Columns()
	stored := 0
	for i := 0; i < t.NumRows(); i++ {
		key, _ := t.Cell(i, keyCol)
		if table.Missing(key) {
			continue
		}

		attributes := make(datatypes.JSONMap, len(cols))
		row := t.Row(i)
		for j, col := range cols {
			if col == keyCol || table.Missing(row[j]) {
				continue
			}
			attributes[col] = row[j]
		}

		record := PatientRecord{
			PatientID:  key,
			Cohort:     cohortName,
			RunID:      runID,
			Attributes: attributes,
		}
		err := r.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "patient_id"}, {Name: "cohort"}},
			DoUpdates: clause.AssignmentColumns([]string{"run_id", "attributes", "updated_at"}),
		}).Create(&record).Error
		if err != nil {
			return stored, fmt.Errorf("store patient %s: %w", key, err)
		}
		stored++
	}

	logger.Log.WithFields(map[string]interface{}{
		"cohort": cohortName,
		"stored": stored,
	}).Info("Cohort written to warehouse")
	return stored, nil
}

// Runs lists the most recent stage executions, newest first.
func (r *Repository) Runs(limit int) ([]PipelineRun, error) {
	if r == nil {
		return nil, nil
	}
	var runs []PipelineRun
	err := r.db.Order("completed_at desc").Limit(limit).Find(&runs).Error
	return runs, err
}
