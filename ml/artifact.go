package ml

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	KindLogisticRegression = "logistic_regression"
	KindDecisionTree       = "decision_tree"
)

// DefaultClasses maps class 0 to "no" and class 1 to "yes".
var DefaultClasses = []string{"no", "yes"}

// Artifact is the on-disk form of a trained model.
type Artifact struct {
	Kind     string          `json:"kind"`
	Features []string        `json:"features,omitempty"`
	Classes  []string        `json:"classes,omitempty"`
	Params   json.RawMessage `json:"params"`
}

// NewArtifact wraps a trained classifier for saving.
func NewArtifact(classifier Classifier, schema Schema, classes []string) (*Artifact, error) {
	var kind string
	switch classifier.(type) {
	case *LogisticRegression:
		kind = KindLogisticRegression
	case *DecisionTree:
		kind = KindDecisionTree
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedModel, classifier)
	}
	params, err := json.Marshal(classifier)
	if err != nil {
		return nil, err
	}
	return &Artifact{
		Kind:     kind,
		Features: append([]string(nil), schema...),
		Classes:  append([]string(nil), classes...),
		Params:   params,
	}, nil
}

func (a *Artifact) Save(path string) error {
	payload, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

// LoadArtifact reads the model at path and checks it against schema. A
// missing file yields an error wrapping fs.ErrNotExist.
func LoadArtifact(path string, schema Schema) (*Model, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}

	var artifact Artifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidArtifact, path, err)
	}
	if len(artifact.Features) > 0 && !schema.Equal(artifact.Features) {
		return nil, fmt.Errorf("%w: artifact lists %d features", ErrSchemaMismatch, len(artifact.Features))
	}
	classes := artifact.Classes
	if len(classes) == 0 {
		classes = DefaultClasses
	}
	if len(classes) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 classes, got %d", ErrInvalidArtifact, len(classes))
	}

	switch artifact.Kind {
	case KindLogisticRegression:
		var model LogisticRegression
		if err := json.Unmarshal(artifact.Params, &model); err != nil {
			return nil, fmt.Errorf("%w: logistic regression params: %v", ErrInvalidArtifact, err)
		}
		if err := model.validate(schema.Len()); err != nil {
			return nil, err
		}
		return NewModel(&model, classes, schema.Len()), nil
	case KindDecisionTree:
		var model DecisionTree
		if err := json.Unmarshal(artifact.Params, &model); err != nil {
			return nil, fmt.Errorf("%w: decision tree params: %v", ErrInvalidArtifact, err)
		}
		if err := model.validate(schema.Len(), len(classes)); err != nil {
			return nil, err
		}
		return NewModel(&model, classes, schema.Len()), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, artifact.Kind)
	}
}
