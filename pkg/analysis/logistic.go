package analysis

import "math"

type LogisticOptions struct {
	Epochs       int
	LearningRate float64
}

// LogisticWeights is a trained binary classifier over standardized features.
type LogisticWeights struct {
	Bias         float64   `json:"bias"`
	Coefficients []float64 `json:"coefficients"`
}

// ClassifierMetrics summarizes a binary classifier against held-out labels.
type ClassifierMetrics struct {
	Loss      float64 `json:"loss"`
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// TrainLogistic fits a logistic regression with full-batch gradient descent.
func TrainLogistic(samples [][]float64, labels []float64, opts LogisticOptions) LogisticWeights {
	if opts.Epochs <= 0 {
		opts.Epochs = 200
	}
	if opts.LearningRate <= 0 {
		opts.LearningRate = 0.1
	}

	n := len(samples)
	if n == 0 {
		return LogisticWeights{}
	}
	featureCount := len(samples[0])
	weights := make([]float64, featureCount)
	var bias float64

	for epoch := 0; epoch < opts.Epochs; epoch++ {
		grad := make([]float64, featureCount)
		var biasGrad float64
		for i, sample := range samples {
			prediction := sigmoid(dot(weights, sample) + bias)
			error := prediction - labels[i]
			for j := 0; j < featureCount; j++ {
				grad[j] += error * sample[j]
			}
			biasGrad += error
		}
		for j := 0; j < featureCount; j++ {
			weights[j] -= opts.LearningRate * grad[j] / float64(n)
		}
		bias -= opts.LearningRate * biasGrad / float64(n)
	}

	return LogisticWeights{Bias: bias, Coefficients: weights}
}

// PredictProba returns the positive-class probability for one sample.
func (w LogisticWeights) PredictProba(sample []float64) float64 {
	return sigmoid(dot(w.Coefficients, sample) + w.Bias)
}

// Evaluate scores the classifier on labeled samples at the 0.5 threshold.
func (w LogisticWeights) Evaluate(samples [][]float64, labels []float64) ClassifierMetrics {
	var metrics ClassifierMetrics
	if len(samples) == 0 {
		return metrics
	}

	var tp, fp, fn, correct int
	for i, sample := range samples {
		p := w.PredictProba(sample)
		metrics.Loss += -labels[i]*math.Log(p+1e-9) - (1-labels[i])*math.Log(1-p+1e-9)

		predicted := p >= 0.5
		actual := labels[i] == 1
		switch {
		case predicted && actual:
			tp++
			correct++
		case predicted && !actual:
			fp++
		case !predicted && actual:
			fn++
		default:
			correct++
		}
	}

	n := float64(len(samples))
	metrics.Loss /= n
	metrics.Accuracy = float64(correct) / n
	if tp+fp > 0 {
		metrics.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		metrics.Recall = float64(tp) / float64(tp+fn)
	}
	if metrics.Precision+metrics.Recall > 0 {
		metrics.F1 = 2 * metrics.Precision * metrics.Recall / (metrics.Precision + metrics.Recall)
	}
	return metrics
}

func dot(weights []float64, sample []float64) float64 {
	var sum float64
	for i := 0; i < len(weights); i++ {
		sum += weights[i] * sample[i]
	}
	return sum
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
