package extract

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/oncoweave/pipeline/pkg/common/models"
)

// Ledger is the durable record of processed reports: a CSV file keyed by
// source_file. Restarts read it back to skip work already done and append new
// rows under the existing header, so a crashed run loses at most one
// unflushed batch.
type Ledger struct {
	path string
}

func NewLedger(path string) *Ledger {
	return &Ledger{path: path}
}

func (l *Ledger) Path() string {
	return l.path
}

// Processed returns the set of source files already in the ledger. A ledger
// that does not exist yet is an empty set, not an error.
func (l *Ledger) Processed() (map[string]struct{}, error) {
	processed := make(map[string]struct{})

	f, err := os.Open(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return processed, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("ledger %s unreadable: %w", l.path, err)
	}
	if len(records) == 0 {
		return processed, nil
	}

	fileIdx := -1
	for i, col := range records[0] {
		if col == "source_file" {
			fileIdx = i
			break
		}
	}
	if fileIdx < 0 {
		return nil, fmt.Errorf("ledger %s has no source_file column", l.path)
	}

	for _, record := range records[1:] {
		if fileIdx < len(record) && record[fileIdx] != "" {
			processed[record[fileIdx]] = struct{}{}
		}
	}
	return processed, nil
}

// Append writes a batch of extractions, creating the file with a header on
// first use and appending without one afterwards.
func (l *Ledger) Append(batch []models.PathologyExtraction) error {
	if len(batch) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}

	writeHeader := false
	if info, err := os.Stat(l.path); errors.Is(err, fs.ErrNotExist) || (err == nil && info.Size() == 0) {
		writeHeader = true
	} else if err != nil {
		return err
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if writeHeader {
		if err := writer.Write(models.LedgerColumns); err != nil {
			return err
		}
	}
	for _, extraction := range batch {
		if err := writer.Write(extraction.Row()); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
