package gdc

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/oncoweave/pipeline/pkg/table"
)

const daysPerYear = 365.25

// Flatten turns the nested case hits the API returns into a flat table with
// dotted column names (demographic.gender, diagnoses.tumor_grade). Lists of
// objects collapse to their first element, which for TCGA-BRCA cases is the
// primary diagnosis. A derived age_years column is added from
// demographic.days_to_birth when present.
func Flatten(hits []map[string]interface{}) (*table.Table, error) {
	flat := make([]map[string]string, len(hits))
	seen := make(map[string]struct{})
	var cols []string

	for i, hit := range hits {
		row := make(map[string]string)
		flattenInto(row, "", hit)

		if days, ok := row["demographic.days_to_birth"]; ok && days != "" {
			if v, err := strconv.ParseFloat(days, 64); err == nil {
				row["age_years"] = strconv.FormatFloat(-v/daysPerYear, 'f', 1, 64)
			}
		}

		for col := range row {
			if _, ok := seen[col]; !ok {
				seen[col] = struct{}{}
				cols = append(cols, col)
			}
		}
		flat[i] = row
	}

	sort.Strings(cols)
	out, err := table.New(cols)
	if err != nil {
		return nil, err
	}
	for _, row := range flat {
		cells := make([]string, len(cols))
		for j, col := range cols {
			cells[j] = row[col]
		}
		out.AppendRow(cells)
	}
	return out, nil
}

func flattenInto(row map[string]string, prefix string, value interface{}) {
	switch v := value.(type) {
	case map[string]interface{}:
		for key, nested := range v {
			flattenInto(row, joinKey(prefix, key), nested)
		}
	case []interface{}:
		if len(v) == 0 {
			return
		}
		if _, nested := v[0].(map[string]interface{}); nested {
			flattenInto(row, prefix, v[0])
			return
		}
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, asString(item))
		}
		row[prefix] = strings.Join(parts, ";")
	case nil:
		row[prefix] = ""
	default:
		row[prefix] = asString(v)
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func asString(v interface{}) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(value)
	case float64:
		if value == float64(int64(value)) {
			return strconv.FormatInt(int64(value), 10)
		}
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", value))
	}
}

// DemographicColumns selects the identifier plus demographic columns present
// in a flattened case table, for the per-domain exports.
func DemographicColumns(t *table.Table) []string {
	return viewColumns(t, "demographic.")
}

// DiagnosisColumns selects the identifier plus diagnosis columns.
func DiagnosisColumns(t *table.Table) []string {
	return viewColumns(t, "diagnoses.")
}

func viewColumns(t *table.Table, prefix string) []string {
	var cols []string
	if t.HasColumn("submitter_id") {
		cols = append(cols, "submitter_id")
	}
	for _, c := range t.Columns() {
		if strings.HasPrefix(c, prefix) {
			cols = append(cols, c)
		}
	}
	return cols
}
