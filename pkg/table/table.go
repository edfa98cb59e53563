package table

import (
	"fmt"
	"strings"
)

// Table is a small column-ordered table with string cells. Every value read
// from a delimited file stays a string; a missing value is an empty cell and
// is never zero-filled. This is all the pipeline needs: the consolidation
// steps are joins, renames and per-column scans, not arithmetic over typed
// columns.
type Table struct {
	cols  []string
	index map[string]int
	rows  [][]string
}

// missingMarkers are the cell spellings treated as null on top of the empty
// cell. They match what the upstream cohort exports actually contain.
var missingMarkers = map[string]struct{}{
	"NA":   {},
	"N/A":  {},
	"NaN":  {},
	"nan":  {},
	"null": {},
	"NULL": {},
	"None": {},
}

// Missing reports whether a cell counts as a null value.
func Missing(cell string) bool {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return true
	}
	_, ok := missingMarkers[trimmed]
	return ok
}

func New(cols []string) (*Table, error) {
	index := make(map[string]int, len(cols))
	clean := make([]string, len(cols))
	for i, c := range cols {
		name := strings.TrimSpace(c)
		if name == "" {
			return nil, fmt.Errorf("column %d has empty name", i)
		}
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		index[name] = i
		clean[i] = name
	}
	return &Table{cols: clean, index: index}, nil
}

func (t *Table) Columns() []string {
	out := make([]string, len(t.cols))
	copy(out, t.cols)
	return out
}

func (t *Table) NumRows() int {
	return len(t.rows)
}

func (t *Table) NumColumns() int {
	return len(t.cols)
}

func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// AppendRow adds a row, padding or truncating to the column count so ragged
// source files never shift cells between columns.
func (t *Table) AppendRow(row []string) {
	fixed := make([]string, len(t.cols))
	copy(fixed, row)
	t.rows = append(t.rows, fixed)
}

func (t *Table) Row(i int) []string {
	out := make([]string, len(t.cols))
	copy(out, t.rows[i])
	return out
}

// Cell returns the value at (row, column). The second result is false when
// the column does not exist.
func (t *Table) Cell(row int, col string) (string, bool) {
	idx, ok := t.index[col]
	if !ok {
		return "", false
	}
	return t.rows[row][idx], true
}

// SetCell overwrites a single value in place.
func (t *Table) SetCell(row int, col, value string) error {
	idx, ok := t.index[col]
	if !ok {
		return fmt.Errorf("unknown column %q", col)
	}
	t.rows[row][idx] = value
	return nil
}

// Column returns a copy of one column's cells.
func (t *Table) Column(name string) ([]string, error) {
	idx, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("unknown column %q", name)
	}
	out := make([]string, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[idx]
	}
	return out, nil
}

// Rename changes a column name, keeping its position.
func (t *Table) Rename(oldName, newName string) error {
	idx, ok := t.index[oldName]
	if !ok {
		return fmt.Errorf("unknown column %q", oldName)
	}
	if oldName == newName {
		return nil
	}
	if _, dup := t.index[newName]; dup {
		return fmt.Errorf("column %q already exists", newName)
	}
	delete(t.index, oldName)
	t.index[newName] = idx
	t.cols[idx] = newName
	return nil
}

// Select builds a new table with the given columns, in the given order.
func (t *Table) Select(cols []string) (*Table, error) {
	out, err := New(cols)
	if err != nil {
		return nil, err
	}
	indices := make([]int, len(cols))
	for i, c := range cols {
		idx, ok := t.index[c]
		if !ok {
			return nil, fmt.Errorf("unknown column %q", c)
		}
		indices[i] = idx
	}
	for _, row := range t.rows {
		selected := make([]string, len(cols))
		for i, idx := range indices {
			selected[i] = row[idx]
		}
		out.AppendRow(selected)
	}
	return out, nil
}

// AddColumn appends a column filled with the same value on every row.
func (t *Table) AddColumn(name, fill string) error {
	if _, dup := t.index[name]; dup {
		return fmt.Errorf("column %q already exists", name)
	}
	t.index[name] = len(t.cols)
	t.cols = append(t.cols, name)
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], fill)
	}
	return nil
}

// Transpose pivots a matrix-shaped table: the idColumn values become the new
// column names and the remaining column headers become rows keyed by
// newKeyName. Gene-expression exports ship genes as rows and patients as
// columns, which is the wrong orientation for a patient-keyed join.
func (t *Table) Transpose(idColumn, newKeyName string) (*Table, error) {
	idIdx, ok := t.index[idColumn]
	if !ok {
		return nil, fmt.Errorf("unknown column %q", idColumn)
	}

	newCols := make([]string, 0, len(t.rows)+1)
	newCols = append(newCols, newKeyName)
	for _, row := range t.rows {
		newCols = append(newCols, strings.TrimSpace(row[idIdx]))
	}

	out, err := New(newCols)
	if err != nil {
		return nil, fmt.Errorf("transpose on %q: %w", idColumn, err)
	}

	for colIdx, colName := range t.cols {
		if colIdx == idIdx {
			continue
		}
		row := make([]string, 0, len(t.rows)+1)
		row = append(row, colName)
		for _, src := range t.rows {
			row = append(row, src[colIdx])
		}
		out.AppendRow(row)
	}
	return out, nil
}

// VStack concatenates tables vertically over the union of their columns in
// first-seen order. Cells for columns a table lacks stay null.
func VStack(tables []*Table) (*Table, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("nothing to stack")
	}

	var union []string
	seen := make(map[string]struct{})
	for _, t := range tables {
		for _, c := range t.cols {
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				union = append(union, c)
			}
		}
	}

	out, err := New(union)
	if err != nil {
		return nil, err
	}
	for _, t := range tables {
		for _, row := range t.rows {
			stacked := make([]string, len(union))
			for i, c := range union {
				if idx, ok := t.index[c]; ok {
					stacked[i] = row[idx]
				}
			}
			out.AppendRow(stacked)
		}
	}
	return out, nil
}
