package pipeline

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

// GenerateRequest is one text-generation request to the model boundary.
// When ResponseSchema is set, the backend must either return output that
// parses against the schema or surface an error; the pipeline still
// validates locally and never trusts the backend's conformance claim.
type GenerateRequest struct {
	System         string
	Prompt         string
	ResponseSchema *jsonschema.Schema
}

// GenerateResponse carries the model's text output.
type GenerateResponse struct {
	Text string
}

// LLM is the generation capability boundary. Implemented by a real
// network-backed client (gemini, bedrock) or a deterministic mock.
type LLM interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error)
}
