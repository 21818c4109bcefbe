package ml

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid feature input")
	ErrInvalidArtifact  = errors.New("invalid model artifact")
	ErrSchemaMismatch   = errors.New("model features do not match form schema")
	ErrUnsupportedModel = errors.New("unsupported model type")
	ErrNotTrained       = errors.New("model not trained")
)
