package ml

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const defaultThreshold = 0.5

// LogisticRegression is a binary classifier: class 1 when
// sigmoid(w·x + b) >= Threshold, class 0 otherwise.
type LogisticRegression struct {
	Weights   []float64 `json:"weights"`
	Bias      float64   `json:"bias"`
	Threshold float64   `json:"threshold,omitempty"`
}

func (m *LogisticRegression) Predict(features []float64) (int, float64, error) {
	if len(m.Weights) == 0 {
		return 0, 0, ErrNotTrained
	}
	if len(features) != len(m.Weights) {
		return 0, 0, fmt.Errorf("%w: expected %d features, got %d", ErrInvalidInput, len(m.Weights), len(features))
	}
	z := mat.Dot(mat.NewVecDense(len(features), features), mat.NewVecDense(len(m.Weights), m.Weights)) + m.Bias
	p := sigmoid(z)

	threshold := m.Threshold
	if threshold == 0 {
		threshold = defaultThreshold
	}
	if p >= threshold {
		return 1, p, nil
	}
	return 0, 1 - p, nil
}

func (m *LogisticRegression) validate(width int) error {
	if len(m.Weights) != width {
		return fmt.Errorf("%w: logistic regression has %d weights, schema has %d features", ErrInvalidArtifact, len(m.Weights), width)
	}
	if m.Threshold < 0 || m.Threshold >= 1 {
		return fmt.Errorf("%w: threshold %v outside [0,1)", ErrInvalidArtifact, m.Threshold)
	}
	for i, w := range m.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: weight %d is not finite", ErrInvalidArtifact, i)
		}
	}
	return nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
