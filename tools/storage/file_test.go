package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileConversionState_Load(t *testing.T) {
	t.Run("loads table from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "conversions.json")
		content := []byte(`{"factors": [{"unit": "cup", "to_unit": "gram", "factor": 240}]}`)
		require.NoError(t, os.WriteFile(path, content, 0o600))

		state := NewFileConversionState(path)
		got, err := state.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, content, got)
	})

	t.Run("missing file returns error", func(t *testing.T) {
		state := NewFileConversionState(filepath.Join(t.TempDir(), "missing.json"))
		_, err := state.Load(context.Background())
		assert.Error(t, err)
	})
}

func TestFileRecipeSource_Load(t *testing.T) {
	t.Run("loads recipe from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "recipe.json")
		content := []byte(`{"title": "Beef Stroganoff", "ingredients": [], "instructions": []}`)
		require.NoError(t, os.WriteFile(path, content, 0o600))

		source := NewFileRecipeSource(path)
		got, err := source.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, content, got)
	})

	t.Run("missing file returns error", func(t *testing.T) {
		source := NewFileRecipeSource(filepath.Join(t.TempDir(), "missing.json"))
		_, err := source.Load(context.Background())
		assert.Error(t, err)
	})
}
