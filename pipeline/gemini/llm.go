package gemini

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
	"google.golang.org/genai"

	"recipeadapter"
	"recipeadapter/pipeline"
)

const (
	// defaultModelID is the Gemini model used when none is configured.
	defaultModelID = "gemini-2.5-flash"

	// Controls the maximum number of tokens the model can generate in one response. 2k covers a full rewritten recipe; raise it for unusually long recipes.
	defaultMaxTokens = 2048

	// Low temperature keeps outputs more deterministic, which is better for the structured planning stage. The stylist inherits it; creativity comes from the prompt, not sampling noise.
	defaultTemperature = 0.2

	// Low top_p keeps outputs focused, which is better for JSON and structured outputs.
	defaultTopP = 0.9
)

type LLMOptions struct {
	ModelID     string
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

// LLMClient implements pipeline.LLM backed by the Gemini API. When a
// request carries a response schema, Gemini's native structured output is
// used (JSON MIME type + response schema) rather than prompt begging.
type LLMClient struct {
	genAI *genai.Client
	opts  LLMOptions
}

// NewLLMClient creates a Gemini-backed LLM client. A missing API key is a
// startup-time failure, not a per-call one.
func NewLLMClient(ctx context.Context, apiKey string, opts LLMOptions) (*LLMClient, error) {
	if apiKey == "" {
		return nil, recipeadapter.ErrCredentialMissing
	}
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

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &LLMClient{
		genAI: client,
		opts:  opts,
	}, nil
}

func (c *LLMClient) Generate(ctx context.Context, req pipeline.GenerateRequest) (pipeline.GenerateResponse, error) {
	slog.Info("LLM_CLIENT: Invoked", "model", c.opts.ModelID, "structured", req.ResponseSchema != nil)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleModel),
		Temperature:       ptr(c.opts.Temperature),
		TopP:              ptr(c.opts.TopP),
		MaxOutputTokens:   c.opts.MaxTokens,
	}
	if req.ResponseSchema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = toGenAISchema(req.ResponseSchema)
	}

	res, err := c.genAI.Models.GenerateContent(ctx, c.opts.ModelID, []*genai.Content{
		genai.NewContentFromText(req.Prompt, genai.RoleUser),
	}, cfg)
	if err != nil {
		return pipeline.GenerateResponse{}, fmt.Errorf("LLM_CLIENT: generate content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return pipeline.GenerateResponse{}, fmt.Errorf("LLM_CLIENT: empty response from model %s", c.opts.ModelID)
	}

	return pipeline.GenerateResponse{Text: text}, nil
}

// toGenAISchema converts the tool-layer jsonschema into Gemini's schema
// type. Only the subset the planner schema uses is mapped.
func toGenAISchema(s *jsonschema.Schema) *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{
		Description: s.Description,
		Required:    s.Required,
	}

	switch s.Type {
	case "object":
		out.Type = genai.TypeObject
	case "array":
		out.Type = genai.TypeArray
	case "string":
		out.Type = genai.TypeString
	case "number":
		out.Type = genai.TypeNumber
	case "integer":
		out.Type = genai.TypeInteger
	case "boolean":
		out.Type = genai.TypeBoolean
	}

	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenAISchema(prop)
		}
	}
	if s.Items != nil {
		out.Items = toGenAISchema(s.Items)
	}
	if s.Minimum != nil {
		out.Minimum = s.Minimum
	}

	return out
}

func ptr[T any](v T) *T { return &v }
