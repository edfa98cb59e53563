package harmonize

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Entry maps one unified column name to its per-cohort source column. A
// cohort without an entry (or mapped to "null") contributes nulls for that
// column.
type Entry struct {
	Type    string            `yaml:"type"`
	Sources map[string]string `yaml:",inline"`
}

// SourceColumn resolves the source column for a cohort, empty when the cohort
// does not carry this feature.
func (e Entry) SourceColumn(cohort string) string {
	col := strings.TrimSpace(e.Sources[strings.ToLower(cohort)])
	if strings.EqualFold(col, "null") {
		return ""
	}
	return col
}

// Mapping is the manually curated cross-cohort column mapping.
type Mapping struct {
	Columns map[string]Entry `yaml:"columns"`
}

func LoadMapping(path string) (Mapping, error) {
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Mapping{}, err
	}
	var m Mapping
	if err := yaml.Unmarshal(content, &m); err != nil {
		return Mapping{}, fmt.Errorf("parse mapping %s: %w", path, err)
	}
	// Entries without a type are comments or metadata, not mappings.
	for name, entry := range m.Columns {
		if strings.TrimSpace(entry.Type) == "" {
			delete(m.Columns, name)
		}
	}
	if len(m.Columns) == 0 {
		return Mapping{}, fmt.Errorf("mapping %s defines no columns", path)
	}
	return m, nil
}

// RenamesFor builds source-column -> unified-name pairs for one cohort,
// restricted to columns the table actually has.
func (m Mapping) RenamesFor(cohort string, has func(string) bool) map[string]string {
	renames := make(map[string]string)
	for unified, entry := range m.Columns {
		if src := entry.SourceColumn(cohort); src != "" && has(src) {
			renames[src] = unified
		}
	}
	return renames
}
