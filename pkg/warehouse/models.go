package warehouse

import (
	"time"

	"gorm.io/datatypes"
)

// PipelineRun is the warehouse registry of pipeline stage executions, one row
// per run of any stage binary.
type PipelineRun struct {
	ID          uint   `gorm:"primaryKey"`
	RunID       string `gorm:"uniqueIndex;size:64"`
	Stage       string `gorm:"index;size:32"`
	Cohort      string `gorm:"size:32"`
	OutputPath  string
	Rows        int
	Columns     int
	Patients    int
	StartedAt   time.Time
	CompletedAt time.Time
	CreatedAt   time.Time
}

// PatientRecord stores one consolidated patient row. The clinical columns
// vary per cohort and over time, so everything beyond the key lives in a
// JSONB attribute map instead of a fixed schema.
type PatientRecord struct {
	ID         uint   `gorm:"primaryKey"`
	PatientID  string `gorm:"uniqueIndex:idx_patient_cohort;size:64"`
	Cohort     string `gorm:"uniqueIndex:idx_patient_cohort;size:32"`
	RunID      string `gorm:"index;size:64"`
	Attributes datatypes.JSONMap
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
