package recipeadapter

import (
	"context"
	"net/http"
	"recipeadapter/tools"
	"strings"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Notifier interface {
	PostAdaptedRecipe(ctx context.Context, channel string, recipe AdaptedRecipe) error
}

type ToolProvider interface {
	GetTools() []tools.Tool
	GetTool(name string) (tools.Tool, error)
}

type Adapter interface {
	Adapt(ctx context.Context, req AdaptationRequest) (AdaptedRecipe, error)
}

// RecipeIngredient is a single ingredient line of the original recipe.
type RecipeIngredient struct {
	Name string  `json:"name"`
	Qty  float64 `json:"qty"`
	Unit string  `json:"unit"`
}

// Recipe is the original recipe as supplied by the caller. It is never
// mutated by the pipeline; only derived artifacts are produced.
type Recipe struct {
	Title        string             `json:"title"`
	Ingredients  []RecipeIngredient `json:"ingredients"`
	Instructions []string           `json:"instructions"`
}

// AdaptationRequest pairs the original recipe with the target
// dietary/cultural constraint for one pipeline run.
type AdaptationRequest struct {
	Recipe      Recipe `json:"recipe"`
	TargetStyle string `json:"target_style"`
}

// IsValid checks the request meets the pipeline's input constraints.
func (r *AdaptationRequest) IsValid() bool {
	if len(r.Recipe.Ingredients) == 0 {
		return false
	}
	if strings.TrimSpace(r.TargetStyle) == "" {
		return false
	}
	return true
}

// SubstitutionEntry maps one original ingredient to its replacement.
type SubstitutionEntry struct {
	OriginalIngredient string `json:"original_ingredient"`
	Substitute         string `json:"substitute"`
	Reason             string `json:"reason,omitempty"`
}

// ConversionEntry is one unit conversion the planner asked for.
type ConversionEntry struct {
	Amount     float64 `json:"amount"`
	Unit       string  `json:"unit"`
	ToUnit     string  `json:"to_unit"`
	Ingredient string  `json:"ingredient,omitempty"`
}

// PlanningResult is the structured contract produced by the planner stage
// and consumed read-only by the unit converter and the stylist.
type PlanningResult struct {
	SubstitutionMap []SubstitutionEntry `json:"substitution_map"`
	ConversionList  []ConversionEntry   `json:"conversion_list"`
}

// IsValid checks if the PlanningResult meets basic validation requirements.
// A result that decodes but fails these checks is treated as a schema
// violation, not silently accepted.
func (pr *PlanningResult) IsValid() bool {
	// Must have at least one substitution; a plan that changes nothing is
	// not a plan.
	if len(pr.SubstitutionMap) == 0 {
		return false
	}

	for _, sub := range pr.SubstitutionMap {
		if sub.OriginalIngredient == "" || sub.Substitute == "" {
			return false
		}
	}

	// The conversion list may be empty, but present entries must be whole.
	for _, conv := range pr.ConversionList {
		if conv.Amount <= 0 || conv.Unit == "" || conv.ToUnit == "" {
			return false
		}
	}

	return true
}

// ConversionNote is the human-readable record of one completed (or
// carried-over) unit conversion.
type ConversionNote string

// AdaptedRecipe is the terminal artifact of a successful run.
type AdaptedRecipe struct {
	TargetStyle string `json:"target_style"`
	Text        string `json:"text"`
}
