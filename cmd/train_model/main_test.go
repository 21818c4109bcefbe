package main

import (
	"testing"

	"depositform/ml"
)

func TestSplitDatasetDeterministic(t *testing.T) {
	features := [][]float64{{1}, {2}, {3}, {4}, {5}, {6}, {7}, {8}, {9}, {10}}
	labels := []int{0, 1, 0, 1, 0, 1, 0, 1, 0, 1}

	trainX, trainY, testX, testY := splitDataset(features, labels, 0.2, 7)
	if len(trainX) != 8 || len(trainY) != 8 || len(testX) != 2 || len(testY) != 2 {
		t.Fatalf("unexpected split sizes %d/%d", len(trainX), len(testX))
	}
	againX, _, _, _ := splitDataset(features, labels, 0.2, 7)
	for i := range trainX {
		if trainX[i][0] != againX[i][0] {
			t.Fatal("split must be deterministic for a fixed seed")
		}
	}
}

func TestEvaluateModel(t *testing.T) {
	model := &ml.DecisionTree{}
	if err := model.Train([][]float64{{0}, {1}, {10}, {11}}, []int{0, 0, 1, 1}, 2); err != nil {
		t.Fatal(err)
	}
	accuracy, precision, recall := evaluateModel(model, [][]float64{{0.5}, {10.5}}, []int{0, 1})
	if accuracy != 1 || precision != 1 || recall != 1 {
		t.Fatalf("unexpected metrics %v %v %v", accuracy, precision, recall)
	}
}
