package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joeshaw/envdecode"

	"recipeadapter"
	"recipeadapter/pipeline"
	"recipeadapter/pipeline/bedrock"
	"recipeadapter/tools"
	"recipeadapter/tools/storage"
)

type Params struct {
	// Recipe overrides the S3-stored recipe when present.
	Recipe      *recipeadapter.Recipe `json:"recipe,omitempty"`
	TargetStyle string                `json:"target_style"`
}

type Results struct {
	AdaptedRecipe recipeadapter.AdaptedRecipe `json:"adapted_recipe"`
}

func main() {
	fn := func(ctx context.Context, params Params) (Results, error) {
		var modelConfig recipeadapter.ModelConfig
		if err := envdecode.Decode(&modelConfig); err != nil {
			log.Fatalf("Failed to decode: %s", err)
		}

		var adapterConfig recipeadapter.AdapterConfig
		if err := envdecode.Decode(&adapterConfig); err != nil {
			log.Fatalf("Failed to decode: %s", err)
		}

		// S3 config from env
		s3Bucket := os.Getenv("ARTIFACTS_S3_BUCKET")
		conversionsKey := os.Getenv("ARTIFACTS_CONVERSIONS_S3_KEY")
		recipeKey := os.Getenv("ARTIFACTS_RECIPE_S3_KEY")
		if s3Bucket == "" || conversionsKey == "" {
			return Results{}, fmt.Errorf("missing S3 config: ARTIFACTS_S3_BUCKET and ARTIFACTS_CONVERSIONS_S3_KEY must be set")
		}

		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return Results{}, fmt.Errorf("failed to load AWS config: %w", err)
		}
		s3Client := s3.NewFromConfig(awsCfg)

		cs := storage.NewS3ConversionState(s3Client, s3Bucket, conversionsKey)
		registry, err := tools.NewRegistry(cs)
		if err != nil {
			slog.Error("SETUP: Failed to create tool registry", "error", err)
			return Results{}, err
		}
		slog.Info("SETUP: S3 conversion table state initialized", "bucket", s3Bucket, "key", conversionsKey)

		req, err := buildRequest(ctx, params, s3Client, s3Bucket, recipeKey)
		if err != nil {
			slog.Error("SETUP: Failed to build adaptation request", "error", err)
			return Results{}, err
		}

		runLogger := recipeadapter.NewStdoutRunLogger()

		brc, err := newBedrockRuntimeClient(ctx)
		if err != nil {
			slog.Error("SETUP: Failed to create Bedrock client", "error", err)
			return Results{}, err
		}

		llm := bedrock.NewLLMClient(brc, bedrock.LLMOptions{
			ModelID:     modelConfig.ModelID,
			MaxTokens:   modelConfig.MaxTokens,
			Temperature: modelConfig.Temperature,
			TopP:        modelConfig.TopP,
		})

		tracerProvider, meterProvider, otelShutdown, err := recipeadapter.InitOtel(ctx)
		if err != nil {
			slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
			return Results{}, err
		}
		defer func() {
			if err := otelShutdown(ctx); err != nil {
				slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
			}
		}()

		tracer := tracerProvider.Tracer(recipeadapter.TracerNameBedrock)
		meter := meterProvider.Meter(recipeadapter.TracerNameBedrock)

		adapted, err := pipeline.NewInstrumentedPipeline(llm, registry, adapterConfig.LLMCallTimeout, runLogger, tracer, meter).Adapt(ctx, req)
		if err != nil {
			slog.Error("RESULT: Error adapting recipe", "error", err)
			return Results{}, err
		}

		return Results{AdaptedRecipe: adapted}, nil
	}

	lambda.Start(fn)
}

func newBedrockRuntimeClient(ctx context.Context) (*bedrockruntime.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(5))
	if err != nil {
		return nil, err
	}
	return bedrockruntime.NewFromConfig(awsCfg), nil
}

// buildRequest takes the recipe from the invocation payload when present,
// falling back to the S3-stored recipe artifact.
func buildRequest(ctx context.Context, params Params, s3Client *s3.Client, bucket, recipeKey string) (recipeadapter.AdaptationRequest, error) {
	if params.Recipe != nil {
		return recipeadapter.AdaptationRequest{Recipe: *params.Recipe, TargetStyle: params.TargetStyle}, nil
	}

	if recipeKey == "" {
		return recipeadapter.AdaptationRequest{}, fmt.Errorf("no recipe in payload and ARTIFACTS_RECIPE_S3_KEY not set")
	}

	rs := storage.NewS3RecipeSource(s3Client, bucket, recipeKey)
	b, err := rs.Load(ctx)
	if err != nil {
		return recipeadapter.AdaptationRequest{}, fmt.Errorf("failed to load recipe from S3: %w", err)
	}

	var recipe recipeadapter.Recipe
	if err := json.Unmarshal(b, &recipe); err != nil {
		return recipeadapter.AdaptationRequest{}, fmt.Errorf("failed to parse recipe: %w", err)
	}

	return recipeadapter.AdaptationRequest{Recipe: recipe, TargetStyle: params.TargetStyle}, nil
}
