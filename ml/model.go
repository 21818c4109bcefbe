package ml

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Prediction is the label chosen for one feature row and the model's
// confidence in it.
type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Predictor answers a single-row feature matrix with a label.
type Predictor interface {
	Predict(x *mat.Dense) (Prediction, error)
}

// Classifier is implemented by the concrete models stored in artifacts.
// It returns a class index into the artifact's class list.
type Classifier interface {
	Predict(features []float64) (int, float64, error)
}

// Model binds a classifier to its class labels and expected input width.
type Model struct {
	classifier Classifier
	classes    []string
	width      int
}

func NewModel(classifier Classifier, classes []string, width int) *Model {
	return &Model{classifier: classifier, classes: classes, width: width}
}

func (m *Model) Predict(x *mat.Dense) (Prediction, error) {
	if x == nil {
		return Prediction{}, fmt.Errorf("%w: no feature row", ErrInvalidInput)
	}
	rows, cols := x.Dims()
	if rows != 1 || cols != m.width {
		return Prediction{}, fmt.Errorf("%w: expected 1x%d features, got %dx%d", ErrInvalidInput, m.width, rows, cols)
	}
	class, score, err := m.classifier.Predict(x.RawRowView(0))
	if err != nil {
		return Prediction{}, err
	}
	if class < 0 || class >= len(m.classes) {
		return Prediction{}, fmt.Errorf("%w: class %d has no label", ErrInvalidArtifact, class)
	}
	return Prediction{Label: m.classes[class], Score: score}, nil
}
