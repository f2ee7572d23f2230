package mock_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipeadapter/pipeline"
	"recipeadapter/pipeline/mock"
)

func TestLLMClient_Generate(t *testing.T) {
	t.Run("structured requests get a decodable plan", func(t *testing.T) {
		client := mock.NewLLMClient()

		res, err := client.Generate(context.Background(), pipeline.GenerateRequest{
			Prompt:         "plan this recipe",
			ResponseSchema: pipeline.PlanningResultSchema(),
		})
		require.NoError(t, err)

		plan, schemaErr := pipeline.DecodePlanningResult(res.Text)
		require.Nil(t, schemaErr, "canned planner output must satisfy the planning contract")
		assert.NotEmpty(t, plan.SubstitutionMap)
	})

	t.Run("unstructured requests get stylist prose", func(t *testing.T) {
		client := mock.NewLLMClient()

		res, err := client.Generate(context.Background(), pipeline.GenerateRequest{Prompt: "style this recipe"})
		require.NoError(t, err)
		assert.NotEmpty(t, res.Text)

		_, schemaErr := pipeline.DecodePlanningResult(res.Text)
		assert.NotNil(t, schemaErr, "stylist output is prose, not a plan")
	})

	t.Run("deterministic across calls", func(t *testing.T) {
		client := mock.NewLLMClient()
		req := pipeline.GenerateRequest{ResponseSchema: pipeline.PlanningResultSchema()}

		first, err := client.Generate(context.Background(), req)
		require.NoError(t, err)
		second, err := client.Generate(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("output overrides", func(t *testing.T) {
		client := mock.NewLLMClient()
		client.PlanningJSON = `{"substitution_map": []}`
		client.StylistText = "custom prose"

		planRes, err := client.Generate(context.Background(), pipeline.GenerateRequest{ResponseSchema: pipeline.PlanningResultSchema()})
		require.NoError(t, err)
		assert.Equal(t, `{"substitution_map": []}`, planRes.Text)

		styleRes, err := client.Generate(context.Background(), pipeline.GenerateRequest{})
		require.NoError(t, err)
		assert.Equal(t, "custom prose", styleRes.Text)
	})

	t.Run("configured error fails every call", func(t *testing.T) {
		client := mock.NewLLMClient()
		client.Err = errors.New("boom")

		_, err := client.Generate(context.Background(), pipeline.GenerateRequest{})
		assert.ErrorContains(t, err, "boom")
	})

	t.Run("honors context cancellation", func(t *testing.T) {
		client := mock.NewLLMClient()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.Generate(ctx, pipeline.GenerateRequest{})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("records calls in order", func(t *testing.T) {
		client := mock.NewLLMClient()

		_, err := client.Generate(context.Background(), pipeline.GenerateRequest{Prompt: "first", ResponseSchema: pipeline.PlanningResultSchema()})
		require.NoError(t, err)
		_, err = client.Generate(context.Background(), pipeline.GenerateRequest{Prompt: "second"})
		require.NoError(t, err)

		calls := client.Calls()
		require.Len(t, calls, 2)
		assert.Equal(t, "first", calls[0].Prompt)
		assert.Equal(t, "second", calls[1].Prompt)
	})
}
