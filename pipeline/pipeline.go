package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"recipeadapter"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
)

// Pipeline runs one adaptation request through the fixed sequence
// Planning -> Converting -> Styling. All run state is local to Adapt, so a
// single Pipeline value may serve concurrent invocations.
type Pipeline struct {
	llm            LLM
	toolProvider   recipeadapter.ToolProvider
	callTimeout    time.Duration
	logger         recipeadapter.RunLogger
	tracerProvider *trace.TracerProvider
}

// NewPipeline initializes a new pipeline. A zero callTimeout disables the
// per-call deadline on the two model calls.
func NewPipeline(llm LLM, tp recipeadapter.ToolProvider, callTimeout time.Duration, log recipeadapter.RunLogger, tracerProvider *trace.TracerProvider) *Pipeline {
	return &Pipeline{
		llm:            llm,
		toolProvider:   tp,
		callTimeout:    callTimeout,
		logger:         log,
		tracerProvider: tracerProvider,
	}
}

// Adapt executes one adaptation run. Any planning or styling failure
// aborts the run immediately; the converting stage cannot fail it.
func (p *Pipeline) Adapt(ctx context.Context, req recipeadapter.AdaptationRequest) (recipeadapter.AdaptedRecipe, error) {
	ctx, span := otel.Tracer(recipeadapter.TracerNamePipeline).Start(ctx, "Pipeline.Adapt")
	defer span.End()

	slog.Info("PIPELINE: Starting run", "recipe", req.Recipe.Title, "target_style", req.TargetStyle)

	if !req.IsValid() {
		return recipeadapter.AdaptedRecipe{}, fmt.Errorf("invalid adaptation request: need at least one ingredient and a non-empty target style")
	}

	// 1) Planning
	plannerReq, err := NewPlannerRequest(req)
	if err != nil {
		return recipeadapter.AdaptedRecipe{}, fmt.Errorf("failed to build planner prompt: %w", err)
	}

	planLog := recipeadapter.StageLog{Stage: recipeadapter.StagePlanning, Timestamp: time.Now(), LLMInput: plannerReq.Prompt}

	planRes, err := p.generate(ctx, plannerReq)
	if err != nil {
		serr := &recipeadapter.PlanningServiceError{Err: err}
		planLog.Error = serr.Error()
		p.logStage(planLog)
		return recipeadapter.AdaptedRecipe{}, serr
	}
	planLog.LLMOutput = planRes.Text

	plan, schemaErr := DecodePlanningResult(planRes.Text)
	if schemaErr != nil {
		planLog.Error = schemaErr.Error()
		p.logStage(planLog)
		return recipeadapter.AdaptedRecipe{}, schemaErr
	}
	p.logStage(planLog)

	slog.Info("PIPELINE: Planning complete",
		"substitutions", len(plan.SubstitutionMap),
		"conversions", len(plan.ConversionList),
	)

	// 2) Converting
	convLog := recipeadapter.StageLog{Stage: recipeadapter.StageConverting, Timestamp: time.Now()}

	notes, err := runConverter(ctx, p.toolProvider, plan.ConversionList)
	if err != nil {
		convLog.Error = err.Error()
		p.logStage(convLog)
		return recipeadapter.AdaptedRecipe{}, fmt.Errorf("failed to run unit converter: %w", err)
	}
	convLog.Notes = notes
	p.logStage(convLog)

	slog.Info("PIPELINE: Converting complete", "notes", len(notes))

	// 3) Styling
	stylistReq, err := NewStylistRequest(req, plan, notes)
	if err != nil {
		return recipeadapter.AdaptedRecipe{}, fmt.Errorf("failed to build stylist prompt: %w", err)
	}

	styleLog := recipeadapter.StageLog{Stage: recipeadapter.StageStyling, Timestamp: time.Now(), LLMInput: stylistReq.Prompt}

	styleRes, err := p.generate(ctx, stylistReq)
	if err != nil {
		serr := &recipeadapter.StylingServiceError{Err: err}
		styleLog.Error = serr.Error()
		p.logStage(styleLog)
		return recipeadapter.AdaptedRecipe{}, serr
	}
	styleLog.LLMOutput = styleRes.Text
	p.logStage(styleLog)

	p.logStage(recipeadapter.StageLog{Stage: recipeadapter.StageDone, Timestamp: time.Now()})
	slog.Info("PIPELINE: Run complete", "output_length", len(styleRes.Text))

	return recipeadapter.AdaptedRecipe{
		TargetStyle: req.TargetStyle,
		Text:        styleRes.Text,
	}, nil
}

// runConverter invokes the unit_convert tool through the registry and
// maps its output back to typed notes, one per conversion entry.
func runConverter(ctx context.Context, tp recipeadapter.ToolProvider, entries []recipeadapter.ConversionEntry) ([]recipeadapter.ConversionNote, error) {
	tool, err := tp.GetTool("unit_convert")
	if err != nil {
		return nil, err
	}

	// marshal -> map[string]any to match the tool input convention
	b, err := json.Marshal(map[string]any{"conversions": entries})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal conversion list: %w", err)
	}
	var input map[string]any
	if err := json.Unmarshal(b, &input); err != nil {
		return nil, fmt.Errorf("failed to build tool input: %w", err)
	}

	result, err := tool.Run(ctx, input)
	if err != nil {
		return nil, err
	}

	rawNotes, ok := result["notes"].([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected unit_convert output: missing notes")
	}
	if len(rawNotes) != len(entries) {
		return nil, fmt.Errorf("unit_convert returned %d notes for %d entries", len(rawNotes), len(entries))
	}

	notes := make([]recipeadapter.ConversionNote, 0, len(rawNotes))
	for _, n := range rawNotes {
		s, ok := n.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected unit_convert note type %T", n)
		}
		notes = append(notes, recipeadapter.ConversionNote(s))
	}
	return notes, nil
}

// generate applies the per-call deadline, if any, around one model call.
func (p *Pipeline) generate(ctx context.Context, req GenerateRequest) (GenerateResponse, error) {
	if p.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.callTimeout)
		defer cancel()
	}
	return p.llm.Generate(ctx, req)
}

// DecodePlanningResult parses model output into a PlanningResult,
// tolerating markdown code fences around the JSON. Anything that fails to
// decode or validate is a PlanningSchemaError, never silently accepted.
func DecodePlanningResult(raw string) (recipeadapter.PlanningResult, *recipeadapter.PlanningSchemaError) {
	cleaned := stripCodeFence(raw)

	var plan recipeadapter.PlanningResult
	if err := json.Unmarshal([]byte(cleaned), &plan); err != nil {
		return recipeadapter.PlanningResult{}, &recipeadapter.PlanningSchemaError{Raw: raw, Err: err}
	}
	if !plan.IsValid() {
		return recipeadapter.PlanningResult{}, &recipeadapter.PlanningSchemaError{
			Raw: raw,
			Err: fmt.Errorf("decoded plan fails validation: substitutions=%d conversions=%d", len(plan.SubstitutionMap), len(plan.ConversionList)),
		}
	}
	return plan, nil
}

// stripCodeFence removes a single surrounding markdown code fence, with or
// without a language tag.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		// Drop a language tag like "json" on the fence line.
		first := strings.TrimSpace(s[:idx])
		if first == "" || !strings.ContainsAny(first, "{}[]") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// logStage logs a stage using the configured logger, handling errors gracefully
func (p *Pipeline) logStage(stage recipeadapter.StageLog) {
	if p.logger != nil {
		if err := p.logger.LogStage(stage); err != nil {
			slog.Error("Failed to log pipeline stage", "error", err, "stage", stage.Stage)
		}
	}
}
