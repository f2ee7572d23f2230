package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/joeshaw/envdecode"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"recipeadapter"
	"recipeadapter/notify"
	"recipeadapter/pipeline"
	"recipeadapter/pipeline/gemini"
	"recipeadapter/tools"
	"recipeadapter/tools/storage"
)

func main() {
	ctx := context.Background()

	var modelConfig recipeadapter.ModelConfig
	if err := envdecode.Decode(&modelConfig); err != nil {
		log.Fatalf("SETUP: Failed to decode: %s", err)
	}

	var adapterConfig recipeadapter.AdapterConfig
	if err := envdecode.Decode(&adapterConfig); err != nil {
		log.Fatalf("SETUP: Failed to decode: %s", err)
	}

	// Absence of the credential is fatal at startup, not a per-call error.
	var geminiConfig recipeadapter.GeminiConfig
	if err := envdecode.Decode(&geminiConfig); err != nil {
		log.Fatalf("SETUP: %s: %s", recipeadapter.ErrCredentialMissing, err)
	}

	cs := storage.NewFileConversionState(adapterConfig.ArtifactsConversionsPath)
	registry, err := tools.NewRegistry(cs)
	if err != nil {
		log.Fatalf("SETUP: Failed to create tool registry: %s", err)
	}

	req, err := loadRequest(ctx, storage.NewFileRecipeSource(adapterConfig.ArtifactsRecipePath), argOr(1, "Vegetarian Southeast Asian"))
	if err != nil {
		log.Fatalf("SETUP: Failed to load recipe: %s", err)
	}

	runLogger, cleanup, err := newRunLogger(modelConfig.ModelID)
	if err != nil {
		log.Fatalf("SETUP: Failed to create run logger: %s", err)
	}
	defer func() {
		if err := cleanup(); err != nil {
			slog.Error("SETUP: Failed to flush run log", "error", err)
		}
	}()

	llm, err := gemini.NewLLMClient(ctx, geminiConfig.APIKey, gemini.LLMOptions{
		ModelID:     modelConfig.ModelID,
		MaxTokens:   modelConfig.MaxTokens,
		Temperature: modelConfig.Temperature,
		TopP:        modelConfig.TopP,
	})
	if err != nil {
		log.Fatalf("SETUP: Failed to create LLM client: %s", err)
	}

	tracerProvider, meterProvider, otelShutdown, err := recipeadapter.InitOtel(ctx)
	if err != nil {
		log.Fatalf("SETUP: Failed to initialize OpenTelemetry: %s", err)
	}
	defer func() {
		if err := otelShutdown(ctx); err != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	tracer := tracerProvider.Tracer(recipeadapter.TracerNameGemini)
	meter := meterProvider.Meter(recipeadapter.TracerNameGemini)

	ctx, span := tracer.Start(ctx, recipeadapter.TracerNameGemini, trace.WithAttributes(
		attribute.String("model.id", modelConfig.ModelID),
		attribute.Int("model.max_tokens", int(modelConfig.MaxTokens)),
		attribute.Float64("model.temperature", float64(modelConfig.Temperature)),
		attribute.Float64("model.top_p", float64(modelConfig.TopP)),
		attribute.String("adaptation.target_style", req.TargetStyle),
	))
	defer span.End()

	adapted, err := pipeline.NewInstrumentedPipeline(llm, registry, adapterConfig.LLMCallTimeout, runLogger, tracer, meter).Adapt(ctx, req)
	if err != nil {
		slog.Error("FAILURE: Error adapting recipe", "error", err)
		os.Exit(1)
	}

	fmt.Println(adapted.Text)

	if adapterConfig.SlackWebhookURL != "" {
		slackClient := notify.NewSlackClient(adapterConfig.SlackWebhookURL, http.DefaultClient)
		if err := slackClient.PostAdaptedRecipe(ctx, adapterConfig.SlackChannel, adapted); err != nil {
			slog.Error("Failed to post adapted recipe to Slack", "error", err)
		}
	}
}

func argOr(i int, def string) string {
	if len(os.Args) > i {
		return os.Args[i]
	}
	return def
}

func loadRequest(ctx context.Context, rs storage.RecipeSource, targetStyle string) (recipeadapter.AdaptationRequest, error) {
	b, err := rs.Load(ctx)
	if err != nil {
		return recipeadapter.AdaptationRequest{}, err
	}

	var recipe recipeadapter.Recipe
	if err := json.Unmarshal(b, &recipe); err != nil {
		return recipeadapter.AdaptationRequest{}, fmt.Errorf("failed to parse recipe: %w", err)
	}

	return recipeadapter.AdaptationRequest{Recipe: recipe, TargetStyle: targetStyle}, nil
}

func newRunLogger(modelID string) (recipeadapter.RunLogger, func() error, error) {
	logFilePath := recipeadapter.NewRunLogFilePath(modelID)
	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, func() error { return err }, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := recipeadapter.NewFileRunLogger(logFile)
	cleanup := func() error {
		return errors.Join(logger.Flush(), logFile.Close())
	}
	return logger, cleanup, nil
}
