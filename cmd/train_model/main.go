package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"

	"depositform/ml"
)

func main() {
	dataPath := flag.String("data", "", "CSV with the 20 feature columns and a target column")
	target := flag.String("target", "y", "target column name")
	classes := flag.String("classes", "no,yes", "comma separated class labels, negative first")
	modelPath := flag.String("model_path", "./model.json", "model output path")
	maxDepth := flag.Int("max_depth", 8, "max tree depth")
	testRatio := flag.Float64("test_ratio", 0.2, "test ratio")
	seed := flag.Int64("seed", 1, "shuffle seed")
	flag.Parse()

	if *dataPath == "" {
		log.Fatal("data is required")
	}
	classList := strings.Split(*classes, ",")
	schema := ml.DefaultSchema()

	file, err := os.Open(*dataPath)
	if err != nil {
		log.Fatalf("failed to open data: %v", err)
	}
	features, labels, err := ml.ReadTrainingCSV(file, schema, *target, classList)
	file.Close()
	if err != nil {
		log.Fatalf("failed to read training data: %v", err)
	}

	trainX, trainY, testX, testY := splitDataset(features, labels, *testRatio, *seed)

	model := &ml.DecisionTree{}
	if err := model.Train(trainX, trainY, *maxDepth); err != nil {
		log.Fatalf("failed to train model: %v", err)
	}

	accuracy, precision, recall := evaluateModel(model, testX, testY)
	log.Printf("rows=%d accuracy=%.2f precision=%.2f recall=%.2f", len(features), accuracy, precision, recall)

	artifact, err := ml.NewArtifact(model, schema, classList)
	if err != nil {
		log.Fatalf("failed to build artifact: %v", err)
	}
	if err := artifact.Save(*modelPath); err != nil {
		log.Fatalf("failed to save model: %v", err)
	}

	fmt.Printf("model saved to %s\n", *modelPath)
}

func splitDataset(features [][]float64, labels []int, testRatio float64, seed int64) (trainX [][]float64, trainY []int, testX [][]float64, testY []int) {
	if testRatio <= 0 || testRatio >= 1 {
		testRatio = 0.2
	}
	indices := rand.New(rand.NewSource(seed)).Perm(len(features))

	split := int(float64(len(features)) * (1 - testRatio))
	for i, idx := range indices {
		if i < split {
			trainX = append(trainX, features[idx])
			trainY = append(trainY, labels[idx])
		} else {
			testX = append(testX, features[idx])
			testY = append(testY, labels[idx])
		}
	}
	return trainX, trainY, testX, testY
}

// evaluateModel treats class 1 as the positive class.
func evaluateModel(model *ml.DecisionTree, testX [][]float64, testY []int) (accuracy, precision, recall float64) {
	if len(testX) == 0 {
		return 0, 0, 0
	}

	var correct int
	var truePositive int
	var predictedPositive int
	var actualPositive int

	for i, feature := range testX {
		label, _, err := model.Predict(feature)
		if err != nil {
			continue
		}
		if label == testY[i] {
			correct++
		}
		if label == 1 {
			predictedPositive++
		}
		if testY[i] == 1 {
			actualPositive++
			if label == 1 {
				truePositive++
			}
		}
	}

	accuracy = float64(correct) / float64(len(testX))
	if predictedPositive > 0 {
		precision = float64(truePositive) / float64(predictedPositive)
	}
	if actualPositive > 0 {
		recall = float64(truePositive) / float64(actualPositive)
	}
	return accuracy, precision, recall
}
