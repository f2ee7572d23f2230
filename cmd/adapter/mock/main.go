package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/joeshaw/envdecode"

	"recipeadapter"
	"recipeadapter/pipeline"
	"recipeadapter/pipeline/mock"
	"recipeadapter/tools"
)

// Offline demo: runs the full pipeline against the deterministic mock LLM,
// no credential or network required. Useful for exercising the stage
// sequencing and the unit converter end to end.
func main() {
	ctx := context.Background()

	var adapterConfig recipeadapter.AdapterConfig
	if err := envdecode.Decode(&adapterConfig); err != nil {
		log.Fatalf("SETUP: Failed to decode: %s", err)
	}

	// The mock run uses the compiled-in conversion table.
	registry, err := tools.NewRegistry(nil)
	if err != nil {
		log.Fatalf("SETUP: Failed to create tool registry: %s", err)
	}

	req := recipeadapter.AdaptationRequest{
		Recipe: recipeadapter.Recipe{
			Title: "Classic Beef Stroganoff",
			Ingredients: []recipeadapter.RecipeIngredient{
				{Name: "beef chuck", Qty: 2, Unit: "cups"},
				{Name: "sour cream", Qty: 1, Unit: "cup"},
				{Name: "butter", Qty: 2, Unit: "tablespoons"},
				{Name: "salt", Qty: 1, Unit: "pinch"},
				{Name: "egg noodles", Qty: 4, Unit: "cups"},
			},
			Instructions: []string{
				"Sear beef in butter.",
				"Stir in sour cream and salt.",
				"Simmer for 15 mins.",
				"Serve over egg noodles.",
			},
		},
		TargetStyle: argOr(1, "Vegetarian Southeast Asian"),
	}

	adapted, err := pipeline.NewPipeline(mock.NewLLMClient(), registry, adapterConfig.LLMCallTimeout, recipeadapter.NewStdoutRunLogger(), nil).Adapt(ctx, req)
	if err != nil {
		slog.Error("FAILURE: Error adapting recipe", "error", err)
		os.Exit(1)
	}

	fmt.Println(adapted.Text)

	if os.Getenv("DUMP_RESULT") != "" {
		recipeadapter.Dump(adapted)
	}
}

func argOr(i int, def string) string {
	if len(os.Args) > i {
		return os.Args[i]
	}
	return def
}
