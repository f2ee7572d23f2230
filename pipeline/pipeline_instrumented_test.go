package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	mnoop "go.opentelemetry.io/otel/metric/noop"
	tnoop "go.opentelemetry.io/otel/trace/noop"

	"recipeadapter"
	"recipeadapter/pipeline"
	"recipeadapter/pipeline/mock"
)

func newInstrumentedPipeline(t *testing.T, llm pipeline.LLM, logger recipeadapter.RunLogger) *pipeline.InstrumentedPipeline {
	t.Helper()
	tracer := tnoop.NewTracerProvider().Tracer("test")
	meter := mnoop.NewMeterProvider().Meter("test")
	return pipeline.NewInstrumentedPipeline(llm, newRegistry(t), 0, logger, tracer, meter)
}

func TestInstrumentedPipeline_Adapt(t *testing.T) {
	t.Run("successful run matches plain pipeline semantics", func(t *testing.T) {
		llm := mock.NewLLMClient()
		logger := &captureLogger{}
		p := newInstrumentedPipeline(t, llm, logger)

		req := strogonoffRequest()
		adapted, err := p.Adapt(context.Background(), req)
		require.NoError(t, err)

		assert.Equal(t, req.TargetStyle, adapted.TargetStyle)
		assert.Contains(t, adapted.Text, "firm tofu")
		assert.Len(t, llm.Calls(), 2)

		require.Len(t, logger.stages, 4)
		assert.Equal(t, recipeadapter.StageDone, logger.stages[3].Stage)
	})

	t.Run("planning failure short-circuits", func(t *testing.T) {
		llm := mock.NewLLMClient()
		llm.Err = errors.New("model unavailable")
		p := newInstrumentedPipeline(t, llm, nil)

		_, err := p.Adapt(context.Background(), strogonoffRequest())

		var serviceErr *recipeadapter.PlanningServiceError
		require.ErrorAs(t, err, &serviceErr)
		assert.Len(t, llm.Calls(), 1)
	})

	t.Run("schema violation is reported as such", func(t *testing.T) {
		llm := mock.NewLLMClient()
		llm.PlanningJSON = "not a plan"
		p := newInstrumentedPipeline(t, llm, nil)

		_, err := p.Adapt(context.Background(), strogonoffRequest())

		var schemaErr *recipeadapter.PlanningSchemaError
		assert.ErrorAs(t, err, &schemaErr)
	})

	t.Run("invalid request is rejected", func(t *testing.T) {
		llm := mock.NewLLMClient()
		p := newInstrumentedPipeline(t, llm, nil)

		_, err := p.Adapt(context.Background(), recipeadapter.AdaptationRequest{TargetStyle: "Vegan"})
		require.Error(t, err)
		assert.Empty(t, llm.Calls())
	})
}
