package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"recipeadapter"
	"recipeadapter/tools"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedPipeline is an instrumented version of the Pipeline with
// comprehensive observability metrics.
type InstrumentedPipeline struct {
	llm          LLM
	toolProvider recipeadapter.ToolProvider
	callTimeout  time.Duration
	logger       recipeadapter.RunLogger
	tracer       trace.Tracer
	meter        metric.Meter
}

// NewInstrumentedPipeline initializes a new instrumented pipeline.
func NewInstrumentedPipeline(llm LLM, tp recipeadapter.ToolProvider, callTimeout time.Duration, log recipeadapter.RunLogger, tracer trace.Tracer, meter metric.Meter) *InstrumentedPipeline {
	return &InstrumentedPipeline{
		llm:          llm,
		toolProvider: tp,
		callTimeout:  callTimeout,
		logger:       log,
		tracer:       tracer,
		meter:        meter,
	}
}

// Adapt executes one adaptation run with full instrumentation.
func (p *InstrumentedPipeline) Adapt(ctx context.Context, req recipeadapter.AdaptationRequest) (recipeadapter.AdaptedRecipe, error) {
	ctx, span := p.tracer.Start(ctx, "InstrumentedPipeline.Adapt")
	defer span.End()

	slog.Info("PIPELINE: Starting instrumented run", "recipe", req.Recipe.Title, "target_style", req.TargetStyle)

	runsCounter, _ := p.meter.Int64Counter("adaptation_runs_total",
		metric.WithDescription("Total number of adaptation runs started"))
	runsCompletedCounter, _ := p.meter.Int64Counter("adaptation_runs_completed_total",
		metric.WithDescription("Total number of adaptation runs completed successfully"))
	runsFailedCounter, _ := p.meter.Int64Counter("adaptation_runs_failed_total",
		metric.WithDescription("Total number of adaptation runs that failed"))
	schemaViolationsCounter, _ := p.meter.Int64Counter("planning_schema_violations_total",
		metric.WithDescription("Total number of planner outputs rejected by schema validation"))
	conversionNotesCounter, _ := p.meter.Int64Counter("conversion_notes_total",
		metric.WithDescription("Total number of conversion notes produced"))
	unsupportedConversionsCounter, _ := p.meter.Int64Counter("unsupported_conversions_total",
		metric.WithDescription("Total number of conversions carried over without a known factor"))

	promptSizeGauge, _ := p.meter.Int64Gauge("prompt_size_bytes",
		metric.WithDescription("Size of the prompt sent to the LLM in bytes"))
	substitutionsGauge, _ := p.meter.Int64Gauge("plan_substitutions_count",
		metric.WithDescription("Number of substitutions in the latest planning result"))
	conversionsGauge, _ := p.meter.Int64Gauge("plan_conversions_count",
		metric.WithDescription("Number of conversion entries in the latest planning result"))

	runDurationHist, _ := p.meter.Float64Histogram("adaptation_duration_seconds",
		metric.WithDescription("Total duration of one adaptation run in seconds"))
	llmResponseTimeHist, _ := p.meter.Float64Histogram("llm_response_time_seconds",
		metric.WithDescription("Time taken to receive a response from the LLM in seconds"))
	toolExecutionTimeHist, _ := p.meter.Float64Histogram("tool_execution_time_seconds",
		metric.WithDescription("Time taken to execute the unit converter in seconds"))

	runsCounter.Add(ctx, 1)
	runStartTime := time.Now()

	fail := func(stage recipeadapter.Stage, err error) (recipeadapter.AdaptedRecipe, error) {
		runsFailedCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("stage", string(stage)),
		))
		span.SetStatus(codes.Error, fmt.Sprintf("%s stage failed", stage))
		span.RecordError(err)
		return recipeadapter.AdaptedRecipe{}, err
	}

	if !req.IsValid() {
		return fail(recipeadapter.StageIdle, fmt.Errorf("invalid adaptation request: need at least one ingredient and a non-empty target style"))
	}

	// 1) Planning
	plannerReq, err := NewPlannerRequest(req)
	if err != nil {
		return fail(recipeadapter.StagePlanning, fmt.Errorf("failed to build planner prompt: %w", err))
	}
	promptSizeGauge.Record(ctx, int64(len(plannerReq.Prompt)), metric.WithAttributes(
		attribute.String("stage", string(recipeadapter.StagePlanning)),
	))

	planLog := recipeadapter.StageLog{Stage: recipeadapter.StagePlanning, Timestamp: time.Now(), LLMInput: plannerReq.Prompt}
	span.AddEvent("Sending planner prompt", trace.WithAttributes(
		attribute.Int("prompt_size_bytes", len(plannerReq.Prompt)),
	))

	llmStartTime := time.Now()
	planRes, err := p.generate(ctx, plannerReq)
	llmDuration := time.Since(llmStartTime)
	llmResponseTimeHist.Record(ctx, llmDuration.Seconds(), metric.WithAttributes(
		attribute.String("stage", string(recipeadapter.StagePlanning)),
	))

	if err != nil {
		serr := &recipeadapter.PlanningServiceError{Err: err}
		planLog.Error = serr.Error()
		p.logStage(planLog)
		return fail(recipeadapter.StagePlanning, serr)
	}
	planLog.LLMOutput = planRes.Text

	plan, schemaErr := DecodePlanningResult(planRes.Text)
	if schemaErr != nil {
		schemaViolationsCounter.Add(ctx, 1)
		planLog.Error = schemaErr.Error()
		p.logStage(planLog)
		return fail(recipeadapter.StagePlanning, schemaErr)
	}
	p.logStage(planLog)

	substitutionsGauge.Record(ctx, int64(len(plan.SubstitutionMap)))
	conversionsGauge.Record(ctx, int64(len(plan.ConversionList)))
	span.AddEvent("Planning complete", trace.WithAttributes(
		attribute.Int("substitutions", len(plan.SubstitutionMap)),
		attribute.Int("conversions", len(plan.ConversionList)),
		attribute.Float64("llm_response_time_seconds", llmDuration.Seconds()),
	))

	slog.Info("PIPELINE: Planning complete",
		"substitutions", len(plan.SubstitutionMap),
		"conversions", len(plan.ConversionList),
		"llm_response_time_ms", llmDuration.Milliseconds(),
	)

	// 2) Converting
	convLog := recipeadapter.StageLog{Stage: recipeadapter.StageConverting, Timestamp: time.Now()}

	toolStartTime := time.Now()
	notes, err := runConverter(ctx, p.toolProvider, plan.ConversionList)
	toolDuration := time.Since(toolStartTime)
	toolExecutionTimeHist.Record(ctx, toolDuration.Seconds())

	if err != nil {
		convLog.Error = err.Error()
		p.logStage(convLog)
		return fail(recipeadapter.StageConverting, fmt.Errorf("failed to run unit converter: %w", err))
	}
	convLog.Notes = notes
	p.logStage(convLog)

	conversionNotesCounter.Add(ctx, int64(len(notes)))
	for _, n := range notes {
		if strings.Contains(string(n), tools.NoConversionMarker) {
			unsupportedConversionsCounter.Add(ctx, 1)
		}
	}
	span.AddEvent("Converting complete", trace.WithAttributes(
		attribute.Int("notes", len(notes)),
		attribute.Float64("tool_execution_time_seconds", toolDuration.Seconds()),
	))

	// 3) Styling
	stylistReq, err := NewStylistRequest(req, plan, notes)
	if err != nil {
		return fail(recipeadapter.StageStyling, fmt.Errorf("failed to build stylist prompt: %w", err))
	}
	promptSizeGauge.Record(ctx, int64(len(stylistReq.Prompt)), metric.WithAttributes(
		attribute.String("stage", string(recipeadapter.StageStyling)),
	))

	styleLog := recipeadapter.StageLog{Stage: recipeadapter.StageStyling, Timestamp: time.Now(), LLMInput: stylistReq.Prompt}

	llmStartTime = time.Now()
	styleRes, err := p.generate(ctx, stylistReq)
	llmDuration = time.Since(llmStartTime)
	llmResponseTimeHist.Record(ctx, llmDuration.Seconds(), metric.WithAttributes(
		attribute.String("stage", string(recipeadapter.StageStyling)),
	))

	if err != nil {
		serr := &recipeadapter.StylingServiceError{Err: err}
		styleLog.Error = serr.Error()
		p.logStage(styleLog)
		return fail(recipeadapter.StageStyling, serr)
	}
	styleLog.LLMOutput = styleRes.Text
	p.logStage(styleLog)

	p.logStage(recipeadapter.StageLog{Stage: recipeadapter.StageDone, Timestamp: time.Now()})

	runsCompletedCounter.Add(ctx, 1)
	runDurationHist.Record(ctx, time.Since(runStartTime).Seconds())
	span.AddEvent("Styling complete", trace.WithAttributes(
		attribute.Int("output_length", len(styleRes.Text)),
	))

	slog.Info("PIPELINE: Run complete", "output_length", len(styleRes.Text))

	return recipeadapter.AdaptedRecipe{
		TargetStyle: req.TargetStyle,
		Text:        styleRes.Text,
	}, nil
}

// generate applies the per-call deadline, if any, around one model call.
func (p *InstrumentedPipeline) generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	if p.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.callTimeout)
		defer cancel()
	}
	return p.llm.Generate(ctx, req)
}

// logStage logs a stage using the configured logger, handling errors gracefully
func (p *InstrumentedPipeline) logStage(stage recipeadapter.StageLog) {
	if p.logger != nil {
		if err := p.logger.LogStage(stage); err != nil {
			slog.Error("Failed to log pipeline stage", "error", err, "stage", stage.Stage)
		}
	}
}
