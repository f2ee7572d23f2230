package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"recipeadapter/pipeline"
)

const (
	// defaultModelID is the default model ID for Bedrock Claude.
	// It's an inference profile ID or ARN, not the foundation model's ID.
	// See https://docs.aws.amazon.com/bedrock/latest/userguide/inference-profiles.html.
	defaultModelID = "us.anthropic.claude-3-7-sonnet-20250219-v1:0"

	// Controls the maximum number of tokens the model can generate in one response. 2k covers a full rewritten recipe.
	defaultMaxTokens = 2048

	// Low temperature keeps outputs more deterministic and consistent, which is better for JSON and structured outputs.
	defaultTemperature = 0.2

	// Low top_p keeps outputs more focused and less random, which is better for JSON and structured outputs.
	defaultTopP = 0.9
)

type bedrockRuntimeClient interface {
	Converse(context.Context, *bedrockruntime.ConverseInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type LLMOptions struct {
	ModelID     string
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

// LLMClient implements pipeline.LLM backed by the Bedrock Converse API.
// Converse has no native response-schema support, so schema conformance is
// requested through the system prompt; the pipeline validates the output
// locally either way.
type LLMClient struct {
	brc  bedrockRuntimeClient
	opts LLMOptions
}

func NewLLMClient(brc bedrockRuntimeClient, opts LLMOptions) *LLMClient {
	if opts.ModelID == "" {
		opts.ModelID = defaultModelID
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature == 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.TopP == 0 {
		opts.TopP = defaultTopP
	}
	return &LLMClient{
		brc:  brc,
		opts: opts,
	}
}

func (c *LLMClient) Generate(ctx context.Context, req pipeline.GenerateRequest) (pipeline.GenerateResponse, error) {
	slog.Info("LLM_CLIENT: Invoked", "model", c.opts.ModelID, "structured", req.ResponseSchema != nil)

	system := req.System
	if req.ResponseSchema != nil {
		schemaJSON, err := json.MarshalIndent(req.ResponseSchema, "", "  ")
		if err != nil {
			return pipeline.GenerateResponse{}, fmt.Errorf("LLM_CLIENT: marshal response schema: %w", err)
		}
		system = fmt.Sprintf("%s\n\nRESPONSE SCHEMA\nYour entire response must be a single JSON object conforming to this JSON Schema. No prose, no markdown, no code fences.\n%s", system, string(schemaJSON))
	}

	out, err := c.brc.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId: aws.String(c.opts.ModelID),
		System: []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: system},
		},
		Messages: []types.Message{
			{
				Role: types.ConversationRoleUser,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: req.Prompt},
				},
			},
		},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(c.opts.MaxTokens),
			Temperature: aws.Float32(c.opts.Temperature),
			TopP:        aws.Float32(c.opts.TopP),
		},
	})
	if err != nil {
		return pipeline.GenerateResponse{}, fmt.Errorf("LLM_CLIENT: converse: %w", err)
	}

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return pipeline.GenerateResponse{}, fmt.Errorf("LLM_CLIENT: unexpected converse output type %T", out.Output)
	}

	var sb strings.Builder
	for _, block := range msg.Value.Content {
		if text, ok := block.(*types.ContentBlockMemberText); ok {
			sb.WriteString(text.Value)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return pipeline.GenerateResponse{}, fmt.Errorf("LLM_CLIENT: empty response from model %s", c.opts.ModelID)
	}

	return pipeline.GenerateResponse{Text: text}, nil
}
