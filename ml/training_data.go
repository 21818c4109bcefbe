package ml

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadTrainingCSV reads labelled rows for offline training. The header must
// name every schema feature plus the target column; column order is free.
// Target values are matched against classes to produce class indices.
func ReadTrainingCSV(r io.Reader, schema Schema, target string, classes []string) ([][]float64, []int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	featureCols := make([]int, len(schema))
	for i, name := range schema {
		col, ok := columns[name]
		if !ok {
			return nil, nil, fmt.Errorf("%w: column %q missing", ErrInvalidInput, name)
		}
		featureCols[i] = col
	}
	targetCol, ok := columns[target]
	if !ok {
		return nil, nil, fmt.Errorf("%w: target column %q missing", ErrInvalidInput, target)
	}
	classIdx := make(map[string]int, len(classes))
	for i, c := range classes {
		classIdx[c] = i
	}

	var features [][]float64
	var labels []int
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		row := make([]float64, len(schema))
		for i, col := range featureCols {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[col]), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: line %d column %s: %v", ErrInvalidInput, line, schema[i], err)
			}
			row[i] = v
		}
		label, ok := classIdx[strings.TrimSpace(record[targetCol])]
		if !ok {
			return nil, nil, fmt.Errorf("%w: line %d: unknown class %q", ErrInvalidInput, line, record[targetCol])
		}
		features = append(features, row)
		labels = append(labels, label)
	}
	if len(features) == 0 {
		return nil, nil, fmt.Errorf("%w: no training rows", ErrInvalidInput)
	}
	return features, labels, nil
}
