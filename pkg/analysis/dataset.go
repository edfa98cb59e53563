package analysis

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/oncoweave/pipeline/pkg/table"
)

// Dataset is the numeric view of a consolidated table: one float row per
// patient, built from the feature columns the caller names. Nulls are imputed
// with the column median and every column is standardized, so the models see
// comparable scales.
type Dataset struct {
	FeatureNames []string
	Samples      [][]float64
	Labels       []float64
	PatientIDs   []string
}

// labelValues maps harmonized categorical labels onto the binary target.
var labelValues = map[string]float64{
	"positive": 1,
	"1":        1,
	"yes":      1,
	"deceased": 1,
	"dead":     1,
	"negative": 0,
	"0":        0,
	"no":       0,
	"living":   0,
	"alive":    0,
}

func parseLabel(cell string) (float64, bool) {
	v, ok := labelValues[strings.ToLower(strings.TrimSpace(cell))]
	return v, ok
}

// FromTable builds a dataset from featureCols and a binary labelCol. Rows
// whose label is null or unrecognized are dropped; null feature cells are
// imputed afterwards so dropped rows never influence the medians.
func FromTable(t *table.Table, featureCols []string, labelCol, idCol string) (*Dataset, error) {
	for _, col := range append([]string{labelCol, idCol}, featureCols...) {
		if !t.HasColumn(col) {
			return nil, fmt.Errorf("table has no column %q", col)
		}
	}

	ds := &Dataset{FeatureNames: featureCols}
	for i := 0; i < t.NumRows(); i++ {
		labelCell, _ := t.Cell(i, labelCol)
		label, ok := parseLabel(labelCell)
		if !ok {
			continue
		}

		sample := make([]float64, len(featureCols))
		for j, col := range featureCols {
			cell, _ := t.Cell(i, col)
			if table.Missing(cell) {
				sample[j] = missingValue
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				sample[j] = missingValue
				continue
			}
			sample[j] = v
		}

		id, _ := t.Cell(i, idCol)
		ds.Samples = append(ds.Samples, sample)
		ds.Labels = append(ds.Labels, label)
		ds.PatientIDs = append(ds.PatientIDs, id)
	}

	if len(ds.Samples) == 0 {
		return nil, fmt.Errorf("no rows with a usable %s label", labelCol)
	}

	ds.imputeMedians()
	ds.standardize()
	return ds, nil
}

// missingValue is a sentinel for cells pending imputation. NaN would work too
// but a plain constant keeps the comparisons simple.
const missingValue = -1e308

func (d *Dataset) imputeMedians() {
	for j := range d.FeatureNames {
		var present []float64
		for _, sample := range d.Samples {
			if sample[j] != missingValue {
				present = append(present, sample[j])
			}
		}
		median := 0.0
		if len(present) > 0 {
			sort.Float64s(present)
			mid := len(present) / 2
			if len(present)%2 == 1 {
				median = present[mid]
			} else {
				median = (present[mid-1] + present[mid]) / 2
			}
		}
		for _, sample := range d.Samples {
			if sample[j] == missingValue {
				sample[j] = median
			}
		}
	}
}

func (d *Dataset) standardize() {
	n := float64(len(d.Samples))
	for j := range d.FeatureNames {
		var sum float64
		for _, sample := range d.Samples {
			sum += sample[j]
		}
		mean := sum / n

		var variance float64
		for _, sample := range d.Samples {
			diff := sample[j] - mean
			variance += diff * diff
		}
		std := 1.0
		if variance > 0 {
			std = math.Sqrt(variance / n)
		}
		for _, sample := range d.Samples {
			sample[j] = (sample[j] - mean) / std
		}
	}
}

// CompleteRows extracts the numeric rows in which every named column is
// present and parseable. Clustering over the expression panel uses this
// instead of imputation: a patient without measured expression should not sit
// at the panel median.
func CompleteRows(t *table.Table, cols []string) ([][]float64, []int, error) {
	for _, col := range cols {
		if !t.HasColumn(col) {
			return nil, nil, fmt.Errorf("table has no column %q", col)
		}
	}

	var samples [][]float64
	var rows []int
	for i := 0; i < t.NumRows(); i++ {
		sample := make([]float64, len(cols))
		complete := true
		for j, col := range cols {
			cell, _ := t.Cell(i, col)
			if table.Missing(cell) {
				complete = false
				break
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				complete = false
				break
			}
			sample[j] = v
		}
		if !complete {
			continue
		}
		samples = append(samples, sample)
		rows = append(rows, i)
	}
	return samples, rows, nil
}

// Split divides the dataset into train and test partitions after a seeded
// shuffle, so runs are reproducible.
func (d *Dataset) Split(trainFraction float64, seed int64) (train, test *Dataset) {
	order := rand.New(rand.NewSource(seed)).Perm(len(d.Samples))
	cut := int(trainFraction * float64(len(d.Samples)))
	if cut < 1 {
		cut = 1
	}
	if cut > len(d.Samples) {
		cut = len(d.Samples)
	}

	train = &Dataset{FeatureNames: d.FeatureNames}
	test = &Dataset{FeatureNames: d.FeatureNames}
	for i, idx := range order {
		target := test
		if i < cut {
			target = train
		}
		target.Samples = append(target.Samples, d.Samples[idx])
		target.Labels = append(target.Labels, d.Labels[idx])
		target.PatientIDs = append(target.PatientIDs, d.PatientIDs[idx])
	}
	return train, test
}
