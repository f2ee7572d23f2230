package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	registry, err := NewRegistry(nil)
	require.NoError(t, err)

	t.Run("get registered tool", func(t *testing.T) {
		tool, err := registry.GetTool("unit_convert")
		require.NoError(t, err)
		assert.Equal(t, "unit_convert", tool.Name())
	})

	t.Run("get unknown tool", func(t *testing.T) {
		_, err := registry.GetTool("nonexistent")
		assert.ErrorContains(t, err, "not found")
	})

	t.Run("list tools", func(t *testing.T) {
		all := registry.GetTools()
		require.Len(t, all, 1)
		assert.Equal(t, "unit_convert", all[0].Name())
	})
}
