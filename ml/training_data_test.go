package ml

import (
	"errors"
	"strings"
	"testing"
)

func trainingCSV(rows ...string) string {
	// Columns are written in reverse to prove order does not matter.
	schema := DefaultSchema()
	header := make([]string, 0, len(schema)+1)
	header = append(header, "y")
	for i := len(schema) - 1; i >= 0; i-- {
		header = append(header, schema[i])
	}
	return strings.Join(header, ",") + "\n" + strings.Join(rows, "\n") + "\n"
}

func csvRow(label string, age string) string {
	fields := []string{label}
	for i := 0; i < 19; i++ {
		fields = append(fields, "0")
	}
	return strings.Join(append(fields, age), ",")
}

func TestReadTrainingCSV(t *testing.T) {
	data := trainingCSV(csvRow("yes", "61"), csvRow("no", "24"))

	features, labels, err := ReadTrainingCSV(strings.NewReader(data), DefaultSchema(), "y", DefaultClasses)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(features) != 2 || len(labels) != 2 {
		t.Fatalf("expected 2 rows, got %d/%d", len(features), len(labels))
	}
	if features[0][0] != 61 || features[1][0] != 24 {
		t.Fatalf("age not placed in column 0: %v", features)
	}
	if labels[0] != 1 || labels[1] != 0 {
		t.Fatalf("unexpected labels: %v", labels)
	}
}

func TestReadTrainingCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing column", "age,y\n1,yes\n"},
		{"unknown class", trainingCSV(csvRow("maybe", "30"))},
		{"bad number", trainingCSV(csvRow("yes", "old"))},
		{"no rows", trainingCSV()[:len(trainingCSV())-1]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ReadTrainingCSV(strings.NewReader(tt.data), DefaultSchema(), "y", DefaultClasses)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestTrainedTreeRoundTripsThroughArtifact(t *testing.T) {
	data := trainingCSV(csvRow("yes", "61"), csvRow("yes", "58"), csvRow("no", "24"), csvRow("no", "30"))
	features, labels, err := ReadTrainingCSV(strings.NewReader(data), DefaultSchema(), "y", DefaultClasses)
	if err != nil {
		t.Fatal(err)
	}
	tree := &DecisionTree{}
	if err := tree.Train(features, labels, 3); err != nil {
		t.Fatal(err)
	}
	artifact, err := NewArtifact(tree, DefaultSchema(), DefaultClasses)
	if err != nil {
		t.Fatal(err)
	}
	path := t.TempDir() + "/tree.json"
	if err := artifact.Save(path); err != nil {
		t.Fatal(err)
	}
	model, err := LoadArtifact(path, DefaultSchema())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	pred, err := model.Predict(row(t))
	if err != nil {
		t.Fatal(err)
	}
	// row(t) has age=1, on the "no" side of the learned split.
	if pred.Label != "no" {
		t.Fatalf("expected no, got %+v", pred)
	}
}
