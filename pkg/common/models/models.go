package models

import "time"

// SourceReport records what a single source file contributed to a
// consolidation run.
type SourceReport struct {
	Name       string `json:"name"`
	Path       string `json:"path"`
	Rows       int    `json:"rows"`
	Columns    int    `json:"columns"`
	MatchedKey int    `json:"matched_key"`
	Skipped    bool   `json:"skipped"`
	SkipReason string `json:"skip_reason,omitempty"`
}

// RunSummary describes one pipeline stage run end to end. Each run fully
// replaces its output file; the summary is what gets logged, published and
// optionally registered in the warehouse.
type RunSummary struct {
	RunID       string         `json:"run_id"`
	Stage       string         `json:"stage"`
	Cohort      string         `json:"cohort,omitempty"`
	Sources     []SourceReport `json:"sources,omitempty"`
	OutputPath  string         `json:"output_path,omitempty"`
	Rows        int            `json:"rows"`
	Columns     int            `json:"columns"`
	Patients    int            `json:"patients"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt time.Time      `json:"completed_at"`
}

// Event is the envelope published to the run-events topic.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // run-started, source-loaded, run-completed
	Stage     string                 `json:"stage"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}

// PathologyExtraction is one row of the report-extraction ledger: the flat
// fields the generative model pulls out of a single PDF pathology report.
// Unknown values stay empty and are written as empty CSV cells.
type PathologyExtraction struct {
	SourceFile  string `json:"source_file"`
	PatientID   string `json:"patient_id"`
	Diagnosis   string `json:"diagnosis"`
	TumorGrade  string `json:"tumor_grade"`
	TumorSizeCm string `json:"tumor_size_cm"`
	ERStatus    string `json:"er_status"`
	PRStatus    string `json:"pr_status"`
	HER2Status  string `json:"her2_status"`
}

// LedgerColumns is the fixed header of the extraction ledger CSV. The order
// matters: restarts append rows under the same header.
var LedgerColumns = []string{
	"source_file",
	"patient_id",
	"diagnosis",
	"tumor_grade",
	"tumor_size_cm",
	"er_status",
	"pr_status",
	"her2_status",
}

// Row flattens the extraction in ledger column order.
func (p PathologyExtraction) Row() []string {
	return []string{
		p.SourceFile,
		p.PatientID,
		p.Diagnosis,
		p.TumorGrade,
		p.TumorSizeCm,
		p.ERStatus,
		p.PRStatus,
		p.HER2Status,
	}
}
