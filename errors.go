package recipeadapter

import (
	"errors"
	"fmt"
)

// Stage identifies a step of the adaptation pipeline. Used in run logs
// and attached to failures so the caller can tell which stage aborted.
type Stage string

const (
	StageIdle       Stage = "idle"
	StagePlanning   Stage = "planning"
	StageConverting Stage = "converting"
	StageStyling    Stage = "styling"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
)

// ErrCredentialMissing is returned at startup when the LLM API credential
// is absent. It is never a per-call error.
var ErrCredentialMissing = errors.New("missing LLM API credential")

// PlanningSchemaError indicates the planner's model output could not be
// parsed into the PlanningResult shape.
type PlanningSchemaError struct {
	Raw string // raw model output, for the run log
	Err error
}

func (e *PlanningSchemaError) Error() string {
	return fmt.Sprintf("planning: model output does not match planning schema: %v", e.Err)
}

func (e *PlanningSchemaError) Unwrap() error { return e.Err }

// PlanningServiceError indicates the planner's model call failed or
// timed out.
type PlanningServiceError struct {
	Err error
}

func (e *PlanningServiceError) Error() string {
	return fmt.Sprintf("planning: model call failed: %v", e.Err)
}

func (e *PlanningServiceError) Unwrap() error { return e.Err }

// StylingServiceError indicates the stylist's model call failed or
// timed out.
type StylingServiceError struct {
	Err error
}

func (e *StylingServiceError) Error() string {
	return fmt.Sprintf("styling: model call failed: %v", e.Err)
}

func (e *StylingServiceError) Unwrap() error { return e.Err }
