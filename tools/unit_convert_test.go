package tools

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipeadapter/tools/storage"
)

func TestUnitConvert_Run(t *testing.T) {
	tests := []struct {
		name           string
		input          map[string]any
		expectedResult map[string]any
	}{
		{
			name: "flour cups to grams uses density factor",
			input: map[string]any{
				"conversions": []any{
					map[string]any{"amount": 2.0, "unit": "cup", "to_unit": "gram", "ingredient": "flour"},
				},
			},
			expectedResult: map[string]any{
				"notes": []any{
					"Original: 2 cup flour. Standardized: 240 gram.",
				},
			},
		},
		{
			name: "plural and abbreviated units are normalized",
			input: map[string]any{
				"conversions": []any{
					map[string]any{"amount": 2.0, "unit": "cups", "to_unit": "grams", "ingredient": "beef broth"},
					map[string]any{"amount": 3.0, "unit": "tbsp", "to_unit": "ml"},
				},
			},
			expectedResult: map[string]any{
				"notes": []any{
					"Original: 2 cups beef broth. Standardized: 480 gram.",
					"Original: 3 tbsp. Standardized: 45 milliliter.",
				},
			},
		},
		{
			name: "mass units",
			input: map[string]any{
				"conversions": []any{
					map[string]any{"amount": 1.0, "unit": "lb", "to_unit": "gram", "ingredient": "beef chuck"},
					map[string]any{"amount": 0.5, "unit": "oz", "to_unit": "g", "ingredient": "ginger"},
				},
			},
			expectedResult: map[string]any{
				"notes": []any{
					"Original: 1 lb beef chuck. Standardized: 453.59 gram.",
					"Original: 0.5 oz ginger. Standardized: 14.18 gram.",
				},
			},
		},
		{
			name: "unknown unit pair degrades into a carried-over note",
			input: map[string]any{
				"conversions": []any{
					map[string]any{"amount": 1.0, "unit": "pinch", "to_unit": "gram", "ingredient": "salt"},
				},
			},
			expectedResult: map[string]any{
				"notes": []any{
					"Original: 1 pinch salt. Carried over unconverted: no standard conversion from pinch to gram.",
				},
			},
		},
		{
			name:           "empty conversion list yields empty notes",
			input:          map[string]any{"conversions": []any{}},
			expectedResult: map[string]any{"notes": []any{}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := NewUnitConvert(nil)

			result, err := tool.Run(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedResult, result)
		})
	}

	t.Run("missing conversions input", func(t *testing.T) {
		tool := NewUnitConvert(nil)
		_, err := tool.Run(context.Background(), map[string]any{})
		assert.Error(t, err, "Expected error for missing conversions input")
	})

	t.Run("malformed conversions input", func(t *testing.T) {
		tool := NewUnitConvert(nil)
		_, err := tool.Run(context.Background(), map[string]any{"conversions": "not a list"})
		assert.Error(t, err, "Expected error for malformed conversions input")
	})
}

// Every entry must yield exactly one note, in the same order, regardless of
// whether its unit pair is convertible.
func TestUnitConvert_OneNotePerEntryInOrder(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	units := []string{"cup", "tablespoon", "teaspoon", "pinch", "dash", "pound", "stick"}
	ingredients := []string{"flour", "sugar", "butter", "salt", "beef broth", ""}

	tool := NewUnitConvert(nil)

	for trial := 0; trial < 20; trial++ {
		n := rng.Intn(12)
		entries := make([]any, 0, n)
		for i := 0; i < n; i++ {
			entries = append(entries, map[string]any{
				"amount":     float64(rng.Intn(8) + 1),
				"unit":       units[rng.Intn(len(units))],
				"to_unit":    "gram",
				"ingredient": ingredients[rng.Intn(len(ingredients))],
			})
		}

		result, err := tool.Run(context.Background(), map[string]any{"conversions": entries})
		require.NoError(t, err)

		notes, ok := result["notes"].([]any)
		require.True(t, ok)
		require.Len(t, notes, n)

		for i, note := range notes {
			s, ok := note.(string)
			require.True(t, ok)
			entry := entries[i].(map[string]any)
			prefix := fmt.Sprintf("Original: %g %s", entry["amount"], entry["unit"])
			assert.Contains(t, s, prefix, "note %d must describe entry %d", i, i)
		}
	}
}

// Unknown pairs never error; the note always carries the marker.
func TestUnitConvert_UnknownPairsNeverError(t *testing.T) {
	tool := NewUnitConvert(nil)

	unknowns := []map[string]any{
		{"amount": 1.0, "unit": "pinch", "to_unit": "gram"},
		{"amount": 2.0, "unit": "dash", "to_unit": "milliliter", "ingredient": "fish sauce"},
		{"amount": 3.0, "unit": "handful", "to_unit": "gram", "ingredient": "basil"},
		{"amount": 4.0, "unit": "cup", "to_unit": "furlong"},
	}

	for _, entry := range unknowns {
		result, err := tool.Run(context.Background(), map[string]any{"conversions": []any{entry}})
		require.NoError(t, err)

		notes := result["notes"].([]any)
		require.Len(t, notes, 1)
		assert.Contains(t, notes[0].(string), NoConversionMarker)
	}
}

// The tool is deterministic: identical inputs produce identical outputs.
func TestUnitConvert_Deterministic(t *testing.T) {
	input := map[string]any{
		"conversions": []any{
			map[string]any{"amount": 2.0, "unit": "cups", "to_unit": "grams", "ingredient": "flour"},
			map[string]any{"amount": 1.0, "unit": "pinch", "to_unit": "gram", "ingredient": "salt"},
		},
	}

	tool := NewUnitConvert(nil)

	first, err := tool.Run(context.Background(), input)
	require.NoError(t, err)
	second, err := tool.Run(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestUnitConvert_StateBackedTable(t *testing.T) {
	t.Run("configured table overrides defaults", func(t *testing.T) {
		state := storage.NewTestConversionState([]byte(`{"factors": [{"unit": "cup", "to_unit": "gram", "factor": 100}]}`))
		tool := NewUnitConvert(state)

		result, err := tool.Run(context.Background(), map[string]any{
			"conversions": []any{map[string]any{"amount": 2.0, "unit": "cup", "to_unit": "gram"}},
		})
		require.NoError(t, err)
		assert.Equal(t, []any{"Original: 2 cup. Standardized: 200 gram."}, result["notes"])
	})

	t.Run("load failure falls back to defaults", func(t *testing.T) {
		state := storage.NewTestConversionStateWithError()
		tool := NewUnitConvert(state)

		result, err := tool.Run(context.Background(), map[string]any{
			"conversions": []any{map[string]any{"amount": 2.0, "unit": "cup", "to_unit": "gram", "ingredient": "flour"}},
		})
		require.NoError(t, err)
		assert.Equal(t, []any{"Original: 2 cup flour. Standardized: 240 gram."}, result["notes"])
	})

	t.Run("corrupt table falls back to defaults", func(t *testing.T) {
		state := storage.NewTestConversionState([]byte("invalid json"))
		tool := NewUnitConvert(state)

		result, err := tool.Run(context.Background(), map[string]any{
			"conversions": []any{map[string]any{"amount": 1.0, "unit": "tablespoon", "to_unit": "milliliter"}},
		})
		require.NoError(t, err)
		assert.Equal(t, []any{"Original: 1 tablespoon. Standardized: 15 milliliter."}, result["notes"])
	})
}

func TestUnitConvert_ToolMethods(t *testing.T) {
	tool := NewUnitConvert(nil)

	t.Run("tool metadata", func(t *testing.T) {
		assert.Equal(t, "unit_convert", tool.Name())
		assert.NotEmpty(t, tool.Title())
		assert.NotEmpty(t, tool.Description())
		assert.Contains(t, tool.Description(), "metric")
	})

	t.Run("schemas are valid", func(t *testing.T) {
		inputSchema := tool.InputSchema()
		require.NotNil(t, inputSchema)
		assert.Equal(t, "object", inputSchema.Type)
		assert.Contains(t, inputSchema.Properties, "conversions")

		itemProps := inputSchema.Properties["conversions"].Items.Properties
		assert.Contains(t, itemProps, "amount")
		assert.Contains(t, itemProps, "unit")
		assert.Contains(t, itemProps, "to_unit")
		assert.Contains(t, itemProps, "ingredient")

		outputSchema := tool.OutputSchema()
		require.NotNil(t, outputSchema)
		assert.Equal(t, "object", outputSchema.Type)
		assert.Contains(t, outputSchema.Properties, "notes")
		assert.Equal(t, "array", outputSchema.Properties["notes"].Type)
	})
}

// BenchmarkUnitConvert_Run benchmarks the main Run function
func BenchmarkUnitConvert_Run(b *testing.B) {
	tool := NewUnitConvert(nil)
	input := map[string]any{
		"conversions": []any{
			map[string]any{"amount": 2.0, "unit": "cups", "to_unit": "grams", "ingredient": "flour"},
			map[string]any{"amount": 1.0, "unit": "cup", "to_unit": "gram", "ingredient": "sour cream"},
			map[string]any{"amount": 2.0, "unit": "tablespoons", "to_unit": "grams", "ingredient": "butter"},
			map[string]any{"amount": 1.0, "unit": "pinch", "to_unit": "gram", "ingredient": "salt"},
		},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := tool.Run(context.Background(), input); err != nil {
			b.Fatal(err)
		}
	}
}
