package analysis

import (
	"fmt"
	"math"
	"math/rand"
)

// KMeansResult holds cluster assignments for the input samples in order plus
// the final centroids.
type KMeansResult struct {
	Assignments []int
	Centroids   [][]float64
	Iterations  int
}

// KMeans clusters standardized samples with Lloyd's algorithm. Seeded initial
// centroids keep runs reproducible.
func KMeans(samples [][]float64, k int, seed int64, maxIterations int) (KMeansResult, error) {
	if k < 1 {
		return KMeansResult{}, fmt.Errorf("k must be positive, got %d", k)
	}
	if len(samples) < k {
		return KMeansResult{}, fmt.Errorf("%d samples cannot form %d clusters", len(samples), k)
	}
	if maxIterations <= 0 {
		maxIterations = 100
	}

	rng := rand.New(rand.NewSource(seed))
	centroids := make([][]float64, k)
	for i, idx := range rng.Perm(len(samples))[:k] {
		centroids[i] = append([]float64(nil), samples[idx]...)
	}

	assignments := make([]int, len(samples))
	result := KMeansResult{}
	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, sample := range samples {
			best := nearestCentroid(sample, centroids)
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}
		result.Iterations = iter + 1
		if !changed && iter > 0 {
			break
		}

		counts := make([]int, k)
		sums := make([][]float64, k)
		for c := range sums {
			sums[c] = make([]float64, len(samples[0]))
		}
		for i, sample := range samples {
			c := assignments[i]
			counts[c]++
			for j, v := range sample {
				sums[c][j] += v
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				// An emptied cluster restarts from a random sample.
				centroids[c] = append([]float64(nil), samples[rng.Intn(len(samples))]...)
				continue
			}
			for j := range sums[c] {
				centroids[c][j] = sums[c][j] / float64(counts[c])
			}
		}
	}

	result.Assignments = assignments
	result.Centroids = centroids
	return result, nil
}

func nearestCentroid(sample []float64, centroids [][]float64) int {
	best, bestDist := 0, math.MaxFloat64
	for c, centroid := range centroids {
		var dist float64
		for j := range sample {
			diff := sample[j] - centroid[j]
			dist += diff * diff
		}
		if dist < bestDist {
			best, bestDist = c, dist
		}
	}
	return best
}
