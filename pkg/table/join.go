package table

import (
	"fmt"
	"strings"
)

// LeftJoin merges other into base on the key column. Every base row survives
// untouched; where other has a row with the same key its columns are filled
// in, otherwise they stay null. Rows on the other side with a null key can
// never match and are dropped from the lookup. When both tables share a
// non-key column name the joined copy gets the suffix.
func LeftJoin(base, other *Table, key, suffix string) (*Table, error) {
	if !base.HasColumn(key) {
		return nil, fmt.Errorf("base table missing key column %q", key)
	}
	if !other.HasColumn(key) {
		return nil, fmt.Errorf("joined table missing key column %q", key)
	}

	// First match wins, matching a many-sources-to-one-row merge.
	lookup := make(map[string]int, other.NumRows())
	otherKeyIdx := other.index[key]
	for i, row := range other.rows {
		k := strings.TrimSpace(row[otherKeyIdx])
		if Missing(k) {
			continue
		}
		if _, dup := lookup[k]; !dup {
			lookup[k] = i
		}
	}

	joinedCols := make([]string, 0, other.NumColumns()-1)
	outCols := base.Columns()
	for _, c := range other.cols {
		if c == key {
			continue
		}
		name := c
		if base.HasColumn(name) {
			name = c + suffix
		}
		joinedCols = append(joinedCols, c)
		outCols = append(outCols, name)
	}

	out, err := New(outCols)
	if err != nil {
		return nil, fmt.Errorf("join column collision even after suffix %q: %w", suffix, err)
	}

	baseKeyIdx := base.index[key]
	for _, row := range base.rows {
		merged := make([]string, 0, len(outCols))
		merged = append(merged, row...)

		k := strings.TrimSpace(row[baseKeyIdx])
		matchIdx, matched := -1, false
		if !Missing(k) {
			matchIdx, matched = lookupRow(lookup, k)
		}
		for _, c := range joinedCols {
			if matched {
				merged = append(merged, other.rows[matchIdx][other.index[c]])
			} else {
				merged = append(merged, "")
			}
		}
		out.AppendRow(merged)
	}
	return out, nil
}

func lookupRow(lookup map[string]int, key string) (int, bool) {
	idx, ok := lookup[key]
	return idx, ok
}
