package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"recipeadapter/tools/storage"
)

// NoConversionMarker appears in every note for a (unit, ingredient) pair
// absent from the conversion table.
const NoConversionMarker = "no standard conversion"

// UnitConvert converts volumetric cooking quantities to metric units using
// a fixed factor table. It is fully deterministic and never fails a run:
// unknown unit pairs degrade into a carried-over note, and a broken or
// missing table falls back to the compiled-in defaults.
type UnitConvert struct {
	state storage.ConversionState
}

func NewUnitConvert(state storage.ConversionState) *UnitConvert { return &UnitConvert{state: state} }

func (t *UnitConvert) Name() string  { return "unit_convert" }
func (t *UnitConvert) Title() string { return "Convert Units (volumetric to metric)" }
func (t *UnitConvert) Description() string {
	return "Converts cooking quantities to metric mass/volume units, one note per requested conversion, in order. Pairs without a known factor are carried over unconverted."
}

func (t *UnitConvert) InputSchema() *jsonschema.Schema {
	minAmount := 0.0
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"conversions": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"amount":     {Type: "number", Minimum: &minAmount},
						"unit":       {Type: "string"},
						"to_unit":    {Type: "string"},
						"ingredient": {Type: "string"},
					},
					Required: []string{"amount", "unit", "to_unit"},
				},
			},
		},
		Required: []string{"conversions"},
	}
}

func (t *UnitConvert) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"notes": {
				Type:  "array",
				Items: &jsonschema.Schema{Type: "string"},
			},
		},
		Required: []string{"notes"},
	}
}

type conversionInput struct {
	Amount     float64 `json:"amount"`
	Unit       string  `json:"unit"`
	ToUnit     string  `json:"to_unit"`
	Ingredient string  `json:"ingredient,omitempty"`
}

func (t *UnitConvert) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	raw, ok := input["conversions"]
	if !ok {
		return nil, fmt.Errorf("missing required input %q", "conversions")
	}

	// marshal -> typed slice to keep input handling uniform
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid conversions input: %w", err)
	}
	var entries []conversionInput
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("invalid conversions input: %w", err)
	}

	table := t.loadTable(ctx)

	notes := make([]any, 0, len(entries))
	for _, e := range entries {
		notes = append(notes, convertOne(table, e))
	}

	return map[string]any{"notes": notes}, nil
}

func convertOne(table ConversionTable, e conversionInput) string {
	subject := strings.TrimSpace(fmt.Sprintf("%g %s %s", e.Amount, e.Unit, e.Ingredient))

	factor, ok := table.Lookup(e.Unit, e.ToUnit, e.Ingredient)
	if !ok {
		return fmt.Sprintf("Original: %s. Carried over unconverted: %s from %s to %s.",
			subject, NoConversionMarker, NormalizeUnit(e.Unit), NormalizeUnit(e.ToUnit))
	}

	converted := math.Round(e.Amount*factor*100) / 100
	return fmt.Sprintf("Original: %s. Standardized: %g %s.", subject, converted, NormalizeUnit(e.ToUnit))
}

// loadTable reads the configured table, falling back to the compiled-in
// defaults so the converting stage cannot abort the pipeline.
func (t *UnitConvert) loadTable(ctx context.Context) ConversionTable {
	if t.state == nil {
		return DefaultConversionTable()
	}

	b, err := t.state.Load(ctx)
	if err != nil {
		slog.Warn("UNIT_CONVERT: Failed to load conversion table, using defaults", "error", err)
		return DefaultConversionTable()
	}

	var table ConversionTable
	if err := json.Unmarshal(b, &table); err != nil {
		slog.Warn("UNIT_CONVERT: Failed to parse conversion table, using defaults", "error", err)
		return DefaultConversionTable()
	}
	if len(table.Factors) == 0 {
		return DefaultConversionTable()
	}
	return table
}
