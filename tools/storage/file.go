package storage

import (
	"context"
	"os"
)

type FileConversionState struct {
	FilePath string
}

func NewFileConversionState(filePath string) *FileConversionState {
	return &FileConversionState{FilePath: filePath}
}

func (c *FileConversionState) Load(ctx context.Context) ([]byte, error) {
	return os.ReadFile(c.FilePath)
}

type FileRecipeSource struct {
	FilePath string
}

func NewFileRecipeSource(filePath string) *FileRecipeSource {
	return &FileRecipeSource{FilePath: filePath}
}

func (r *FileRecipeSource) Load(ctx context.Context) ([]byte, error) {
	return os.ReadFile(r.FilePath)
}
