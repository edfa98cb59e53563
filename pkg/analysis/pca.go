package analysis

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// PCAResult is a fitted principal-component projection of the samples.
type PCAResult struct {
	Projected         [][]float64
	ExplainedVariance []float64
	Components        int
}

// PCA projects standardized samples onto their first n principal components,
// used to compress the ten-gene expression panel before clustering.
func PCA(samples [][]float64, components int) (PCAResult, error) {
	if len(samples) == 0 {
		return PCAResult{}, fmt.Errorf("no samples")
	}
	featureCount := len(samples[0])
	if components < 1 || components > featureCount {
		return PCAResult{}, fmt.Errorf("components must be in [1, %d], got %d", featureCount, components)
	}
	if len(samples) < 2 {
		return PCAResult{}, fmt.Errorf("PCA needs at least 2 samples, got %d", len(samples))
	}

	data := mat.NewDense(len(samples), featureCount, nil)
	for i, sample := range samples {
		data.SetRow(i, sample)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(data, nil); !ok {
		return PCAResult{}, fmt.Errorf("principal component decomposition failed")
	}

	var vectors mat.Dense
	pc.VectorsTo(&vectors)
	variances := pc.VarsTo(nil)

	var projected mat.Dense
	projected.Mul(data, vectors.Slice(0, featureCount, 0, components))

	result := PCAResult{Components: components}
	result.Projected = make([][]float64, len(samples))
	for i := range result.Projected {
		row := make([]float64, components)
		mat.Row(row, i, &projected)
		result.Projected[i] = row
	}

	var total float64
	for _, v := range variances {
		total += v
	}
	result.ExplainedVariance = make([]float64, components)
	for i := 0; i < components; i++ {
		if total > 0 {
			result.ExplainedVariance[i] = variances[i] / total
		}
	}
	return result, nil
}
