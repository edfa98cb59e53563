package table

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DelimiterFor picks the field delimiter from the file extension: the cohort
// exports use .txt/.tsv for tab-separated and .csv for comma-separated files.
func DelimiterFor(path string) rune {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".txt":
		return '\t'
	default:
		return ','
	}
}

// ReadFile loads a delimited file with a header row. Ragged rows are padded
// or truncated to the header width rather than rejected; upstream exports are
// not always rectangular.
func ReadFile(path string, delim rune) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s has no header row", path)
	}

	t, err := New(records[0])
	if err != nil {
		return nil, fmt.Errorf("header of %s: %w", path, err)
	}
	for _, record := range records[1:] {
		t.AppendRow(record)
	}
	return t, nil
}

// WriteFile writes the table as comma-separated text with a header row,
// creating parent directories as needed. The write fully replaces any
// previous output.
func WriteFile(t *Table, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(t.Columns()); err != nil {
		return err
	}
	for i := 0; i < t.NumRows(); i++ {
		if err := writer.Write(t.rows[i]); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
