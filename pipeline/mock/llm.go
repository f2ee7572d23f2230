package mock

import (
	"context"
	"log/slog"
	"sync"

	"recipeadapter/pipeline"
)

// defaultPlanningJSON is the canned planner output: the vegetarian
// Southeast Asian transformation of a beef stroganoff.
const defaultPlanningJSON = `{
  "substitution_map": [
    {"original_ingredient": "beef chuck", "substitute": "firm tofu", "reason": "Vegetarian protein swap."},
    {"original_ingredient": "sour cream", "substitute": "full-fat coconut milk", "reason": "Dairy-free creamy base."}
  ],
  "conversion_list": [
    {"amount": 2, "unit": "cups", "to_unit": "grams", "ingredient": "broth"}
  ]
}`

const defaultStylistText = `Lemongrass Tofu Simmer (Vegetarian Southeast Asian)

Ingredients:
- 480 g firm tofu, pressed and cubed
- 480 g vegetable broth
- 230 g full-fat coconut milk
- 2 stalks lemongrass, bruised
- 1 tablespoon soy sauce

Instructions:
1. Sear the tofu cubes in a hot wok until golden.
2. Pour in the vegetable broth with the lemongrass and simmer gently.
3. Stir in the coconut milk and soy sauce; simmer 10 minutes.
4. Serve over jasmine rice, garnished with fresh herbs.`

// LLMClient is a deterministic implementation of pipeline.LLM. Requests
// carrying a response schema get a canned planning result; requests
// without one get canned stylist prose. It records every request so tests
// can assert call counts and ordering. Real LLMs are, of course, not so
// predictable.
type LLMClient struct {
	// PlanningJSON overrides the canned planner output when non-empty.
	PlanningJSON string
	// StylistText overrides the canned stylist output when non-empty.
	StylistText string
	// Err, when set, fails every call.
	Err error

	mu    sync.Mutex
	calls []pipeline.GenerateRequest
}

func NewLLMClient() *LLMClient {
	return &LLMClient{}
}

func (m *LLMClient) Generate(ctx context.Context, req pipeline.GenerateRequest) (pipeline.GenerateResponse, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	slog.Info("LLM_CLIENT: Invoked (mock)", "structured", req.ResponseSchema != nil)

	if m.Err != nil {
		return pipeline.GenerateResponse{}, m.Err
	}
	if err := ctx.Err(); err != nil {
		return pipeline.GenerateResponse{}, err
	}

	if req.ResponseSchema != nil {
		text := m.PlanningJSON
		if text == "" {
			text = defaultPlanningJSON
		}
		return pipeline.GenerateResponse{Text: text}, nil
	}

	text := m.StylistText
	if text == "" {
		text = defaultStylistText
	}
	return pipeline.GenerateResponse{Text: text}, nil
}

// Calls returns a copy of every request seen so far, in order.
func (m *LLMClient) Calls() []pipeline.GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]pipeline.GenerateRequest, len(m.calls))
	copy(out, m.calls)
	return out
}
