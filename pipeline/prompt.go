package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"recipeadapter"
)

// PlanningResultSchema is the response schema the planner stage asks the
// model to conform to. Field names match recipeadapter.PlanningResult.
func PlanningResultSchema() *jsonschema.Schema {
	minAmount := 0.0
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"substitution_map": {
				Type:        "array",
				Description: "The comprehensive list of ingredient swaps.",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"original_ingredient": {Type: "string", Description: "The exact ingredient name to be replaced."},
						"substitute":          {Type: "string", Description: "The new ingredient for the target cuisine/diet."},
						"reason":              {Type: "string", Description: "A brief explanation for the swap."},
					},
					Required: []string{"original_ingredient", "substitute"},
				},
			},
			"conversion_list": {
				Type:        "array",
				Description: "Quantities to convert to metric units.",
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
		Required: []string{"substitution_map", "conversion_list"},
	}
}

// NewPlannerRequest builds the planner stage's generation request for one
// adaptation run.
func NewPlannerRequest(req recipeadapter.AdaptationRequest) (GenerateRequest, error) {
	recipeJSON, err := json.MarshalIndent(req.Recipe, "", "  ")
	if err != nil {
		return GenerateRequest{}, fmt.Errorf("failed to marshal recipe: %w", err)
	}

	prompt := fmt.Sprintf(`ORIGINAL RECIPE:
%s

TARGET TRANSFORMATION: %q

Analyze the recipe and generate a comprehensive substitution map and a list of the unit conversions needed to express quantities in metric units.`,
		string(recipeJSON), req.TargetStyle)

	return GenerateRequest{
		System:         plannerSystemPrompt,
		Prompt:         prompt,
		ResponseSchema: PlanningResultSchema(),
	}, nil
}

// NewStylistRequest builds the stylist stage's generation request. The
// substitution map and every conversion note from the same run are
// embedded; partial context is not a supported state.
func NewStylistRequest(req recipeadapter.AdaptationRequest, plan recipeadapter.PlanningResult, notes []recipeadapter.ConversionNote) (GenerateRequest, error) {
	recipeJSON, err := json.MarshalIndent(req.Recipe, "", "  ")
	if err != nil {
		return GenerateRequest{}, fmt.Errorf("failed to marshal recipe: %w", err)
	}

	subsJSON, err := json.MarshalIndent(plan.SubstitutionMap, "", "  ")
	if err != nil {
		return GenerateRequest{}, fmt.Errorf("failed to marshal substitution map: %w", err)
	}

	noteLines := make([]string, 0, len(notes))
	for _, n := range notes {
		noteLines = append(noteLines, "- "+string(n))
	}

	prompt := fmt.Sprintf(`ORIGINAL RECIPE:
%s

SUBSTITUTION MAP (CRITICAL MEMORY):
%s

CONVERSION NOTES:
%s

Rewrite the ORIGINAL RECIPE entirely, applying every substitution and every conversion note above. Rewrite the instructions to sound authentic for the %q style.`,
		string(recipeJSON), string(subsJSON), strings.Join(noteLines, "\n"), req.TargetStyle)

	return GenerateRequest{
		System: fmt.Sprintf(stylistSystemPrompt, req.TargetStyle),
		Prompt: prompt,
	}, nil
}

const plannerSystemPrompt = `You are an expert recipe planner.

GOAL
Given an original recipe and a target cuisine or dietary transformation, identify every ingredient substitution needed to match the target style and every unit conversion needed to express quantities in metric units.

OUTPUT CONTRACT
- Your response must be ONE valid JSON object only (no extra text, no markdown, no code fences). Start with '{' and end with '}'.
- UTF-8, no trailing commas.
- Shape:
{
  "substitution_map": [            // at least one element
    {
      "original_ingredient": string,  // exact name from the recipe
      "substitute": string,           // replacement for the target style
      "reason": string                // brief rationale
    }
  ],
  "conversion_list": [             // may be empty
    {
      "amount": number,            // quantity as written in the recipe
      "unit": string,              // source unit, e.g. "cup"
      "to_unit": string,           // metric target, "gram" or "milliliter"
      "ingredient": string         // ingredient the quantity refers to
    }
  ]
}

PLANNING RULES
- Substitute every ingredient that conflicts with the target transformation. Leave compatible ingredients out of the map.
- Never invent ingredients that are not plausible replacements in the target cuisine.
- List a conversion for every non-metric quantity in the recipe.
- Do not perform conversions yourself; a deterministic converter handles the arithmetic.`

const stylistSystemPrompt = `You are an expert technical recipe stylist.

GOAL
Take the original recipe, the substitution map, and the conversion notes, and rewrite the final, well-formatted recipe in the style of %q cuisine.

STYLING RULES
- Apply every substitution from the map; the replaced ingredients must not appear in the output.
- Use the standardized metric quantities from the conversion notes.
- Rewrite the instructions cohesively in the target voice, not as a diff of the original.
- Output plain prose with an ingredient list and numbered steps. No JSON.`
