package storage

import (
	"context"
	"errors"
)

// ConversionState loads the raw JSON conversion factor table.
type ConversionState interface {
	Load(ctx context.Context) ([]byte, error)
}

// RecipeSource loads the raw JSON of the original recipe to adapt.
type RecipeSource interface {
	Load(ctx context.Context) ([]byte, error)
}

// TestConversionState is a simple in-memory implementation for testing
type TestConversionState struct {
	data []byte
	err  error
}

func NewTestConversionState(data []byte) *TestConversionState {
	return &TestConversionState{data: data}
}

func NewTestConversionStateWithError() *TestConversionState {
	return &TestConversionState{err: errors.New("not found")}
}

func (t *TestConversionState) Load(ctx context.Context) ([]byte, error) {
	if t.err != nil {
		return nil, t.err
	}
	return t.data, nil
}

// TestRecipeSource is a simple in-memory implementation for testing
type TestRecipeSource struct {
	data []byte
	err  error
}

func NewTestRecipeSource(data []byte) *TestRecipeSource {
	return &TestRecipeSource{data: data}
}

func NewTestRecipeSourceWithError() *TestRecipeSource {
	return &TestRecipeSource{err: errors.New("not found")}
}

func (t *TestRecipeSource) Load(ctx context.Context) ([]byte, error) {
	if t.err != nil {
		return nil, t.err
	}
	return t.data, nil
}
