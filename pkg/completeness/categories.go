package completeness

import "strings"

// Categorize buckets a column by name the way the completeness report groups
// its summary: identifiers, clinical, demographic, survival, treatment,
// expression and imaging features.
func Categorize(column string) string {
	col := strings.ToLower(column)

	switch col {
	case "patient_id", "id_paciente", "dataset_source":
		return "identifier"
	}

	if strings.Contains(col, "expression") {
		return "expression"
	}
	for _, marker := range []string{"radius", "texture", "perimeter", "area", "smoothness", "compactness", "concavity", "symmetry", "fractal"} {
		if strings.Contains(col, marker) {
			return "imaging"
		}
	}
	for _, marker := range []string{"survival", "vital", "death", "followup", "event"} {
		if strings.Contains(col, marker) {
			return "survival"
		}
	}
	for _, marker := range []string{"chemotherapy", "hormone", "radio", "surgery", "therapy", "treatment"} {
		if strings.Contains(col, marker) {
			return "treatment"
		}
	}
	for _, marker := range []string{"age", "race", "gender", "ethnicity", "menopausal"} {
		if strings.Contains(col, marker) {
			return "demographic"
		}
	}
	for _, marker := range []string{"er_status", "pr_status", "her2", "tumor", "lymph", "grade", "stage", "subtype", "diagnosis", "histolog"} {
		if strings.Contains(col, marker) {
			return "clinical"
		}
	}
	return "other"
}
